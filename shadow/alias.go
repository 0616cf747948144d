/*
   Shadow: liveness / alias pre-pass (component D).

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package shadow

// StmtKind classifies a statement summary the Translator collaborator
// hands the pre-pass -- the minimal shape component D needs to decide
// instrumentation, without pulling in the translator's own IR types
// (spec.md section 1: the IR-producing translator is an external
// collaborator; section 9's design note: "model it as a pure function
// over a small Stmt summary").
type StmtKind uint8

const (
	StmtOther StmtKind = iota
	StmtGet
	StmtPut
	StmtWrTmp
	StmtStore
)

// ExprKind classifies the right-hand side of a WrTmp statement.
type ExprKind uint8

const (
	ExprOther ExprKind = iota
	ExprRdTmp
	ExprGet
	ExprStructural // reinterpret / pack / unpack -- see isStructural
	ExprShadowOp   // unary/binary/ternary/cmp/cvt/mux the handlers model
)

// Stmt is the pre-pass's view of one IR statement: enough to run the
// backward and forward walks without depending on the translator's own
// statement representation.
type Stmt struct {
	Kind StmtKind

	// StmtGet / StmtPut
	RegOffset int
	TmpOut    int // destination temp of a Get

	// StmtPut
	SrcTmp    int  // temp written to the register, if the source is RdTmp
	SrcIsTmp  bool

	// StmtWrTmp
	DestTmp  int
	Expr     ExprKind
	SrcTmp1  int // RdTmp / structural single-operand source
	Shadowed bool // true if Expr == ExprShadowOp and this op is one of E's

	// StmtStore
	StoreSrcTmp int
}

// AliasInfo is the pre-pass's output for one superblock: the
// important/ignorable tag per temp and the tmpInstead rename table
// (spec.md section 4.D).
type AliasInfo struct {
	important  map[int]bool
	tmpInstead map[int]int
}

// NewAliasInfo returns an empty result, defaulting every temp to
// ignorable until the backward walk marks it important.
func NewAliasInfo() *AliasInfo {
	return &AliasInfo{
		important:  make(map[int]bool),
		tmpInstead: make(map[int]int),
	}
}

// Important reports whether temp t was tagged important by the
// backward walk.
func (a *AliasInfo) Important(t int) bool { return a.important[t] }

// Resolve follows tmpInstead, returning the temp handlers should
// actually read shadow state from for t (spec.md section 4.D: "when an
// op reads t, they actually read tmpInstead[t] if set").
func (a *AliasInfo) Resolve(t int) int {
	if j, ok := a.tmpInstead[t]; ok {
		return j
	}
	return t
}

// RegisterSkip reports whether stmts[i] is a Put that the backward walk
// determined may skip its shadow callback: no subsequent Get reads the
// offset before a later Put overwrites it again.
type RegisterSkip struct {
	skip map[int]bool // statement index -> skip
}

// Skip reports whether the Put at statement index i may skip shadowing.
func (r *RegisterSkip) Skip(i int) bool { return r.skip[i] }

// Analyze runs both walks over one superblock's statement summaries and
// returns the alias table plus the register-skip set (spec.md section
// 4.D).
func Analyze(stmts []Stmt) (*AliasInfo, *RegisterSkip) {
	info := NewAliasInfo()
	skip := &RegisterSkip{skip: make(map[int]bool)}

	backwardWalk(stmts, info, skip)
	forwardWalk(stmts, info)

	return info, skip
}

// backwardWalk walks statements in reverse, tracking per-offset "will a
// Get read this before the next Put" state, and tags temps important
// when they feed a shadow-relevant consumer.
func backwardWalk(stmts []Stmt, info *AliasInfo, skip *RegisterSkip) {
	readBeforeNextPut := make(map[int]bool)

	for i := len(stmts) - 1; i >= 0; i-- {
		s := stmts[i]
		switch s.Kind {
		case StmtGet:
			readBeforeNextPut[s.RegOffset] = true
			info.important[s.TmpOut] = true

		case StmtPut:
			if !readBeforeNextPut[s.RegOffset] {
				skip.skip[i] = true
			}
			readBeforeNextPut[s.RegOffset] = false
			if s.SrcIsTmp {
				info.important[s.SrcTmp] = true
			}

		case StmtStore:
			info.important[s.StoreSrcTmp] = true

		case StmtWrTmp:
			if s.Shadowed {
				info.important[s.DestTmp] = true
				info.important[s.SrcTmp1] = true
			}
		}
	}
}

// isStructural reports whether expr is one of the "pure rename" forms
// the forward walk folds into tmpInstead instead of instrumenting
// directly (spec.md section 4.D: F32<->F64 reinterpret, 64<->V128 and
// 32<->64 pack/unpack, Get from a register whose last write was a tmp).
func isStructural(k ExprKind) bool { return k == ExprStructural || k == ExprGet }

// forwardWalk builds tmpInstead by propagating renames through chains
// of structural ops and through Gets of a register whose last write was
// a plain RdTmp Put.
func forwardWalk(stmts []Stmt, info *AliasInfo) {
	lastPutSrc := make(map[int]int) // reg offset -> source temp of last plain Put
	hasLastPutSrc := make(map[int]bool)

	for _, s := range stmts {
		switch s.Kind {
		case StmtPut:
			if s.SrcIsTmp {
				lastPutSrc[s.RegOffset] = s.SrcTmp
				hasLastPutSrc[s.RegOffset] = true
			} else {
				hasLastPutSrc[s.RegOffset] = false
			}

		case StmtGet:
			if hasLastPutSrc[s.RegOffset] {
				info.tmpInstead[s.TmpOut] = resolveChain(info.tmpInstead, lastPutSrc[s.RegOffset])
			}

		case StmtWrTmp:
			if !isStructural(s.Expr) {
				continue
			}
			switch s.Expr {
			case ExprRdTmp:
				info.tmpInstead[s.DestTmp] = resolveChain(info.tmpInstead, s.SrcTmp1)
			case ExprStructural:
				info.tmpInstead[s.DestTmp] = resolveChain(info.tmpInstead, s.SrcTmp1)
			}
		}
	}
}

// resolveChain follows an in-progress tmpInstead table to its end,
// guarding against a self-referential or cyclic rename (which a
// well-formed superblock never produces, but a defensive bound keeps a
// malformed one from looping forever).
func resolveChain(table map[int]int, t int) int {
	seen := 0
	for {
		j, ok := table[t]
		if !ok || j == t || seen > len(table)+1 {
			return t
		}
		t = j
		seen++
	}
}
