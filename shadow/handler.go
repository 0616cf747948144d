/*
   Shadow: the Engine context and the component E dispatch surface.

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

import "log/slog"

// Op identifies an opcode a handler models. Grouped by the staging
// class that carries its operands (spec.md section 4.C/4.E).
type Op uint16

const (
	OpInvalid Op = iota

	// Unary (4.E.1)
	OpSqrt
	OpNeg
	OpAbs

	// Binary / Ternary arithmetic (4.E.2 / 4.E.3)
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax

	// Comparison (4.E.4)
	OpCmpF64

	// Conversions (4.E.5)
	OpF64toI16S
	OpF64toI32S
	OpF64toI64S
	OpF64toI32U
	OpF64toI64U

	// Mux (4.E.6)
	OpMux0X
	OpMuxX0
)

// CmpResult is the three-way shadow comparison outcome of 4.E.4.
type CmpResult int8

const (
	CmpLT CmpResult = -1
	CmpEQ CmpResult = 0
	CmpGT CmpResult = 1
)

// Options mirrors the CLI flags of spec.md section 6 that alter
// handler behavior at runtime (the remaining flags -- report paths,
// file-vs-stdout routing -- live in the config package).
type Options struct {
	Precision        uint
	MeanError        bool
	IgnoreLibraries  bool
	IgnoreAccurate   bool
	SimOriginal      bool
	AnalyzeAll       bool
	IgnoreEnd        bool
	ErrorLocalize    bool
	PrintEveryError  bool
	DetectPSO        bool
	GotoShadowBranch bool
	TrackInt         bool
}

// DefaultOptions returns the flag defaults of spec.md section 6.
func DefaultOptions() Options {
	return Options{
		Precision:      DefaultPrecision,
		MeanError:      true,
		IgnoreAccurate: true,
		AnalyzeAll:     true,
	}
}

// Stats is the read-only instrumentation counter set the original
// source keeps as getCount/getsIgnored/... globals, folded here into a
// struct; the console's stats command prints it (app.App.StatsSummary).
type Stats struct {
	Gets, GetsIgnored     uint64
	Puts, PutsIgnored     uint64
	Loads, LoadsIgnored   uint64
	Stores, StoresIgnored uint64
	MaxTemps              int
	UnsupportedOps        map[string]uint64
}

// Engine is the shadow execution engine context: every piece of state
// the original source keeps as module-scope globals (temps, registers,
// memory, staging, options, analyses), collapsed into one struct passed
// explicitly -- the "Engine context" resolution of spec.md section 9's
// open design note on global mutable singletons. A process that truly
// needs only one engine may hold a single package-level *Engine; this
// type itself carries no global state.
type Engine struct {
	Opts Options

	Temps     *TempStore
	Regs      *ThreadRegisters
	Memory    *MemoryMap
	Operands  OperandTable
	Unary     UnaryStage
	Binary    BinaryStage
	Ternary   TernaryStage
	MuxSel    MuxStage
	Mem       MemStage

	Translator Translator
	Locator    SourceLocator
	Hook       AnalysisHook

	Analyzing bool // the global "analyze" flag toggled by BEGIN/END

	Stats Stats

	Log *slog.Logger
}

// report forwards a completed operation to the analysis hook, if any,
// and is a no-op when --mean-error is disabled or no hook is wired.
func (e *Engine) report(rec OpRecord) {
	if e.Hook == nil || !e.Opts.MeanError {
		return
	}
	e.Hook.RecordOp(rec)
}

// NewEngine returns an Engine ready to instrument a fresh run, with
// opts and every store allocated but empty.
func NewEngine(opts Options, translator Translator, locator SourceLocator, log *slog.Logger) *Engine {
	return &Engine{
		Opts:       opts,
		Temps:      NewTempStore(),
		Regs:       NewThreadRegisters(),
		Memory:     NewMemoryMap(),
		Translator: translator,
		Locator:    locator,
		Analyzing:  opts.AnalyzeAll,
		Stats:      Stats{UnsupportedOps: make(map[string]uint64)},
		Log:        log,
	}
}

// EnterSuperblock increments the temp-liveness epoch (spec.md section
// 4.E.9) at the top of each instrumented superblock.
func (e *Engine) EnterSuperblock() {
	e.Temps.BeginSuperblock()
}

// Reset answers the RESET client request: every temp, register, and
// memory record is marked inactive; temp version counters are left
// untouched (spec.md section 4.G).
func (e *Engine) Reset() {
	for i := range e.Temps.slots {
		e.Temps.slots[i].SetActive(false)
	}
	for _, rf := range e.Regs.byThread {
		for i := range rf.slots {
			rf.slots[i].SetActive(false)
		}
	}
	e.Memory.Reset()
}

// precisionFor returns the AP precision a fresh shadow should use,
// honoring --sim-original (shrink to the native IEEE width instead of
// the configured high precision).
func (e *Engine) precisionFor(t OrgType) uint {
	if e.Opts.SimOriginal {
		return t.NativeWidth()
	}
	return e.Opts.Precision
}

// Introduce is the exported form of introduce, for client-request
// handlers outside this package (INSERT_SHADOW, ORIGINAL_TO_SHADOW)
// that need the same "create a shadow from the native value" path.
func (e *Engine) Introduce(dst *Value, t OrgType, native float64) {
	e.introduce(dst, t, native)
}

// introduce initializes dst from a native value when no shadow was
// live for an argument -- the "introduction" error-handling path of
// spec.md section 7: "The handler creates a shadow from the native
// IEEE value at the arg's IR type; operation proceeds."
func (e *Engine) introduce(dst *Value, t OrgType, native float64) {
	dst.Init(dst.Key())
	dst.OrgType = t
	prec := e.precisionFor(t)
	dst.High().SetFloat64(prec, native)
	DeriveMid(dst.Mid(), dst.High(), t)
	DeriveOri(dst.Ori(), dst.High(), t)
	dst.OpCount = 0
	dst.Origin = 0
	dst.Canceled = 0
	dst.CancelOrigin = 0
	if t == Float {
		dst.OrgFloat = float32(native)
	} else {
		dst.OrgDouble = native
	}
}

// checkAndRecover is the divergence-detection error path of spec.md
// section 7: if the native value and the emulated-IEEE shadow disagree,
// the engine overwrites all three AP fields with the native value,
// logs a warning, and continues rather than letting the mismatch
// compound. This bounds error introduced by un-instrumented code (e.g.
// library math the engine never shadowed).
func (e *Engine) checkAndRecover(v *Value, native float64) {
	var org APFloat
	org.SetFloat64(v.Ori().Prec(), native)
	if v.Ori().IsNaN() != org.IsNaN() || (!v.Ori().IsNaN() && v.Ori().Cmp(&org) != 0) {
		if e.Log != nil {
			e.Log.Warn("shadow diverged from native, recovering",
				"origin", v.Origin, "native", native)
		}
		prec := v.High().Prec()
		v.High().SetFloat64(prec, native)
		DeriveMid(v.Mid(), v.High(), v.OrgType)
		DeriveOri(v.Ori(), v.High(), v.OrgType)
	}
}

// recordUnsupported is the non-fatal "unsupported IR opcode" error path
// of spec.md section 7: recorded once per opcode name, statement
// emitted verbatim with no shadow update.
func (e *Engine) recordUnsupported(name string) {
	e.Stats.UnsupportedOps[name]++
}

// NoteGet/NotePut/NoteLoad/NoteStore count a Get/Put/Load/Store and,
// when skipped is set, record that the instrumentor elided its shadow
// callback (--ignore-libraries or the liveness pre-pass's RegisterSkip),
// feeding the getCount/getsIgnored style counters of Stats.
func (e *Engine) NoteGet(skipped bool) {
	e.Stats.Gets++
	if skipped {
		e.Stats.GetsIgnored++
	}
}

func (e *Engine) NotePut(skipped bool) {
	e.Stats.Puts++
	if skipped {
		e.Stats.PutsIgnored++
	}
}

func (e *Engine) NoteLoad(skipped bool) {
	e.Stats.Loads++
	if skipped {
		e.Stats.LoadsIgnored++
	}
}

func (e *Engine) NoteStore(skipped bool) {
	e.Stats.Stores++
	if skipped {
		e.Stats.StoresIgnored++
	}
}
