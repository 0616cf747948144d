/*
   Analysis: mean-value tracking, keyed by producing guest IP --
   spec.md section 4.F.

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

package analysis

import (
	"math/big"
	"sync"

	"fpdebug/shadow"
)

// MeanValueEntry is one IP's accumulated error statistics (spec.md
// section 4.F / section 6's mean_errors report kinds).
type MeanValueEntry struct {
	IP    uint64
	Count uint64

	errSum, errMax big.Float

	CanceledSum, CanceledMax int64
	CanceledOverflow         bool

	BadnessSum, BadnessMax int64

	// Provenance of the argument pair at the max-error occurrence, for
	// graph building (report/graph.go).
	MaxArgIP1, MaxArgIP2 uint64

	IntroducedError bool // true once any op at this IP has a nonzero error
}

// AvgError returns errSum/Count at prec bits, or a zero value if Count
// is zero.
func (m *MeanValueEntry) AvgError(prec uint) *big.Float {
	avg := new(big.Float).SetPrec(prec)
	if m.Count == 0 {
		return avg
	}
	var count big.Float
	count.SetPrec(prec).SetUint64(m.Count)
	return avg.Quo(&m.errSum, &count)
}

// MaxError returns the largest relative error observed at this IP.
func (m *MeanValueEntry) MaxError() *big.Float { return &m.errMax }

// MeanValueTable is the per-IP table of spec.md section 4.F, populated
// by Engine.report through the shadow.AnalysisHook boundary (so this
// package can depend on shadow without shadow depending back on it).
type MeanValueTable struct {
	mu      sync.Mutex
	byIP    map[uint64]*MeanValueEntry
	enabled bool
}

// NewMeanValueTable returns an empty table. enabled mirrors --mean-error.
func NewMeanValueTable(enabled bool) *MeanValueTable {
	return &MeanValueTable{byIP: make(map[uint64]*MeanValueEntry), enabled: enabled}
}

// RecordOp implements shadow.AnalysisHook.
func (m *MeanValueTable) RecordOp(rec shadow.OpRecord) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byIP[rec.IP]
	if !ok {
		e = &MeanValueEntry{IP: rec.IP}
		e.errSum.SetPrec(rec.RelError.Prec())
		e.errMax.SetPrec(rec.RelError.Prec())
		m.byIP[rec.IP] = e
	}

	e.Count++

	relBig := rec.RelError.Big()
	if relBig.Sign() != 0 {
		e.IntroducedError = true
	}
	e.errSum.Add(&e.errSum, relBig)
	if relBig.Cmp(&e.errMax) > 0 {
		e.errMax.Set(relBig)
		e.MaxArgIP1, e.MaxArgIP2 = rec.ArgIP1, rec.ArgIP2
	}

	canceled := int64(rec.Canceled)
	prevCanceledSum := e.CanceledSum
	e.CanceledSum += canceled
	if e.CanceledSum < prevCanceledSum {
		e.CanceledOverflow = true
	}
	if canceled > e.CanceledMax {
		e.CanceledMax = canceled
	}

	badness := int64(rec.Badness)
	e.BadnessSum += badness
	if badness > e.BadnessMax {
		e.BadnessMax = badness
	}
}

// Entries returns a snapshot of every tracked IP's entry, for report
// writers to iterate without holding the table's lock.
func (m *MeanValueTable) Entries() []*MeanValueEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MeanValueEntry, 0, len(m.byIP))
	for _, e := range m.byIP {
		out = append(out, e)
	}
	return out
}
