/*
   Analysis: the iterative stage tracker -- spec.md section 4.F.

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
	"math"
	"sync"
)

// stageSample is one address's snapshot within an iteration: the
// relative error observed and the IP that last produced the value.
type stageSample struct {
	relErr float64
	origin uint64
}

// StageReport is emitted by End when an address's error delta exceeds
// its adaptive limit (spec.md section 4.F / section 6's stage_reports
// format).
type StageReport struct {
	StageID  uint64
	Addr     uint64
	Count    uint64
	IterMin  uint64
	IterMax  uint64
	Origin   uint64
}

// stage holds one BEGIN_STAGE..END_STAGE region's bookkeeping across
// iterations.
type stage struct {
	iteration uint64
	prev      map[uint64]stageSample
	curr      map[uint64]stageSample
	limits    map[uint64]float64 // adaptive per-address delta limit
	reports   map[uint64]*StageReport
}

func newStage() *stage {
	return &stage{
		prev:    make(map[uint64]stageSample),
		curr:    make(map[uint64]stageSample),
		limits:  make(map[uint64]float64),
		reports: make(map[uint64]*StageReport),
	}
}

// StageTracker implements BEGIN_STAGE/END_STAGE/CLEAR_STAGE (spec.md
// section 4.G) and the Δ-based instability detector of section 4.F.
type StageTracker struct {
	mu     sync.Mutex
	stages map[uint64]*stage
}

// NewStageTracker returns an empty tracker.
func NewStageTracker() *StageTracker {
	return &StageTracker{stages: make(map[uint64]*stage)}
}

// Begin allocates a fresh per-iteration snapshot table for id --
// BEGIN_STAGE.
func (t *StageTracker) Begin(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages[id] = newStage()
}

// Observe records the current relative error for addr within the
// active stage id's current-iteration snapshot. StageTracker does not
// implement shadow.StageObserver, so the Store handler does not call
// Observe; its callers pass id, addr, relErr and origin directly.
func (t *StageTracker) Observe(id, addr uint64, relErr float64, origin uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stages[id]
	if !ok {
		return
	}
	s.curr[addr] = stageSample{relErr: relErr, origin: origin}
}

// NextIteration swaps curr into prev and starts a fresh curr snapshot,
// bumping the iteration counter. Called by the embedding tool at each
// loop-back edge within the stage's region.
func (t *StageTracker) NextIteration(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stages[id]
	if !ok {
		return
	}
	s.iteration++
	s.prev = s.curr
	s.curr = make(map[uint64]stageSample)
}

// End computes, for each address present in both the previous and
// current snapshots, Δ = |prevRelErr - currRelErr|; if it exceeds that
// address's adaptive limit (grown to each observed Δ), a stage report
// is emitted pointing at the address's last-producing IP. Returns the
// reports accumulated over the stage's lifetime and deallocates the
// stage's state -- END_STAGE (spec.md section 4.F/4.G).
func (t *StageTracker) End(id uint64) []*StageReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stages[id]
	if !ok {
		return nil
	}

	for addr, cur := range s.curr {
		prev, ok := s.prev[addr]
		if !ok {
			continue
		}
		delta := math.Abs(prev.relErr - cur.relErr)
		limit := s.limits[addr]
		if delta > limit {
			s.limits[addr] = delta
			rep, ok := s.reports[addr]
			if !ok {
				rep = &StageReport{StageID: id, Addr: addr, IterMin: s.iteration, IterMax: s.iteration}
				s.reports[addr] = rep
			}
			rep.Count++
			rep.Origin = cur.origin
			if s.iteration < rep.IterMin {
				rep.IterMin = s.iteration
			}
			if s.iteration > rep.IterMax {
				rep.IterMax = s.iteration
			}
		}
	}

	out := make([]*StageReport, 0, len(s.reports))
	for _, rep := range s.reports {
		out = append(out, rep)
	}
	delete(t.stages, id)
	return out
}

// Clear releases a stage's state without producing reports --
// CLEAR_STAGE.
func (t *StageTracker) Clear(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.stages, id)
}

// Active reports whether any stage is currently open, for the Store
// handler to decide whether to call Observe at all.
func (t *StageTracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stages) > 0
}

// IDs returns the ids of every currently open stage.
func (t *StageTracker) IDs() []uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uint64, 0, len(t.stages))
	for id := range t.stages {
		ids = append(ids, id)
	}
	return ids
}
