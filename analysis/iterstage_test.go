/*
   Analysis: the iterative stage tracker test set.

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTrackerActiveAndIDs(t *testing.T) {
	s := NewStageTracker()
	assert.False(t, s.Active())

	s.Begin(1)
	assert.True(t, s.Active())
	assert.Equal(t, []uint64{1}, s.IDs())
}

func TestStageTrackerObserveIgnoredWithoutBegin(t *testing.T) {
	s := NewStageTracker()
	s.Observe(99, 0x1000, 0.5, 0x10)
	assert.Empty(t, s.End(99))
}

func TestStageTrackerClearDropsStateWithoutReports(t *testing.T) {
	s := NewStageTracker()
	s.Begin(1)
	s.Observe(1, 0x1000, 0.1, 0x10)
	s.Clear(1)
	assert.False(t, s.Active())
	// A cleared stage no longer exists; End on it returns nil.
	assert.Nil(t, s.End(1))
}

func TestStageTrackerEndWithNoPriorIterationProducesNoReports(t *testing.T) {
	s := NewStageTracker()
	s.Begin(1)
	s.Observe(1, 0x1000, 0.5, 0x10)
	// No NextIteration call yet, so prev is empty -- nothing to diff.
	reports := s.End(1)
	assert.Empty(t, reports)
}

func TestStageTrackerEndFlagsGrowingDelta(t *testing.T) {
	s := NewStageTracker()
	s.Begin(1)

	s.Observe(1, 0x2000, 0.01, 0x50)
	s.NextIteration(1)

	s.Observe(1, 0x2000, 0.9, 0x51)
	reports := s.End(1)

	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, uint64(1), r.StageID)
	assert.Equal(t, uint64(0x2000), r.Addr)
	assert.Equal(t, uint64(0x51), r.Origin)
	assert.EqualValues(t, 1, r.Count)
}

func TestStageTrackerEndOnlyComparesAddressesPresentInBothSnapshots(t *testing.T) {
	s := NewStageTracker()
	s.Begin(1)

	s.Observe(1, 0x3000, 0.0, 0x10)
	s.NextIteration(1)

	// 0x4000 never appeared in the previous snapshot, so it has nothing
	// to diff against and must not produce a report.
	s.Observe(1, 0x4000, 5.0, 0x12)
	reports := s.End(1)
	assert.Empty(t, reports, "an address absent from the prior snapshot has no delta to report")
}

func TestStageTrackerEndDeletesStageAfterReporting(t *testing.T) {
	s := NewStageTracker()
	s.Begin(1)
	s.Observe(1, 0x3000, 0.0, 0x10)
	s.NextIteration(1)
	s.Observe(1, 0x3000, 1.0, 0x11)
	s.End(1)
	assert.False(t, s.Active(), "End deallocates the stage's state")
}

func TestStageTrackerEndFlagsOnlyFinalIterationPair(t *testing.T) {
	s := NewStageTracker()
	s.Begin(1)

	s.Observe(1, 0x4000, 0.0, 0x10)
	s.NextIteration(1) // iteration 1, prev now holds iteration 0's snapshot

	s.Observe(1, 0x4000, 1.0, 0x11)
	s.NextIteration(1) // iteration 2, prev now holds iteration 1's snapshot

	// End() only diffs the final curr against the final prev.
	s.Observe(1, 0x4000, 5.0, 0x12)
	reports := s.End(1)

	require.Len(t, reports, 1)
	assert.EqualValues(t, 2, reports[0].IterMax)
}
