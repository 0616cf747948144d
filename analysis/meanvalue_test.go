/*
   Analysis: mean-value table test set.

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

	"fpdebug/shadow"
)

func relError(prec uint, v float64) *shadow.APFloat {
	var f shadow.APFloat
	f.SetFloat64(prec, v)
	return &f
}

func TestMeanValueTableDisabledRecordsNothing(t *testing.T) {
	m := NewMeanValueTable(false)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0.5)})
	assert.Empty(t, m.Entries())
}

func TestMeanValueTableAccumulatesCountAndSum(t *testing.T) {
	m := NewMeanValueTable(true)
	m.RecordOp(shadow.OpRecord{IP: 0x10, RelError: relError(53, 0.25)})
	m.RecordOp(shadow.OpRecord{IP: 0x10, RelError: relError(53, 0.75)})

	entries := m.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.EqualValues(t, 2, e.Count)
	avg := e.AvgError(53)
	f, _ := avg.Float64()
	assert.InDelta(t, 0.5, f, 1e-9)
	max, _ := e.MaxError().Float64()
	assert.InDelta(t, 0.75, max, 1e-9)
}

func TestMeanValueTableTracksMaxErrorArgOrigins(t *testing.T) {
	m := NewMeanValueTable(true)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0.1), ArgIP1: 0xA, ArgIP2: 0xB})
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0.9), ArgIP1: 0xC, ArgIP2: 0xD})

	e := m.Entries()[0]
	assert.Equal(t, uint64(0xC), e.MaxArgIP1)
	assert.Equal(t, uint64(0xD), e.MaxArgIP2)
}

func TestMeanValueTableIntroducedErrorFlag(t *testing.T) {
	m := NewMeanValueTable(true)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0.0)})
	assert.False(t, m.Entries()[0].IntroducedError)

	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 1e-20)})
	assert.True(t, m.Entries()[0].IntroducedError)
}

func TestMeanValueTableCanceledSumOverflowFlag(t *testing.T) {
	m := NewMeanValueTable(true)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0), Canceled: 1})
	e, ok := m.byIP[1]
	require.True(t, ok)
	// Force the running sum to the brink of int64 overflow and confirm
	// the next op trips the flag rather than silently wrapping.
	e.CanceledSum = int64(1<<63 - 1)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0), Canceled: 1})
	assert.True(t, e.CanceledOverflow)
}

func TestMeanValueTableCanceledAndBadnessMax(t *testing.T) {
	m := NewMeanValueTable(true)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0), Canceled: 3, Badness: 1})
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0), Canceled: 9, Badness: 4})
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0), Canceled: 2, Badness: 2})

	e := m.Entries()[0]
	assert.EqualValues(t, 9, e.CanceledMax)
	assert.EqualValues(t, 14, e.CanceledSum)
	assert.EqualValues(t, 4, e.BadnessMax)
	assert.EqualValues(t, 7, e.BadnessSum)
}

func TestMeanValueTableSeparatesEntriesByIP(t *testing.T) {
	m := NewMeanValueTable(true)
	m.RecordOp(shadow.OpRecord{IP: 1, RelError: relError(53, 0.1)})
	m.RecordOp(shadow.OpRecord{IP: 2, RelError: relError(53, 0.2)})
	assert.Len(t, m.Entries(), 2)
}

func TestAvgErrorZeroCountReturnsZero(t *testing.T) {
	var e MeanValueEntry
	avg := e.AvgError(53)
	f, _ := avg.Float64()
	assert.Zero(t, f)
}
