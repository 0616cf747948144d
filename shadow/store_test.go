/*
   Shadow: the B stores test set.

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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempStoreVersionInvalidatesAcrossSuperblocks(t *testing.T) {
	s := NewTempStore()
	v := s.Set(5)
	v.High().SetFloat64(53, 1.5)

	_, ok := s.Get(5)
	require.True(t, ok)

	s.BeginSuperblock()
	_, ok = s.Get(5)
	assert.False(t, ok, "a temp from the previous superblock must not be live")
}

func TestTempStoreSetThenGetSameSuperblock(t *testing.T) {
	s := NewTempStore()
	s.Set(10)
	v, ok := s.Get(10)
	require.True(t, ok)
	assert.True(t, v.Active())
}

func TestRegisterFileInvalidateRetainsStorageDeactivatesOnly(t *testing.T) {
	r := NewRegisterFile()
	v := r.Set(64)
	v.High().SetFloat64(53, 2.25)

	r.Invalidate(64)
	_, ok := r.Get(64)
	assert.False(t, ok)

	v2 := r.Set(64)
	assert.Equal(t, 2.25, v2.High().Float64(), "reactivating must reuse the same backing record")
}

func TestThreadRegistersLazyPerThread(t *testing.T) {
	tr := NewThreadRegisters()
	a := tr.Of(1)
	b := tr.Of(2)
	assert.NotSame(t, a, b)
	assert.Same(t, a, tr.Of(1))
}

func TestMemoryMapStoreThenLookup(t *testing.T) {
	m := NewMemoryMap()
	v := m.Store(0x1000)
	v.High().SetFloat64(53, 9.5)

	got, ok := m.Lookup(0x1000)
	require.True(t, ok)
	assert.Equal(t, 9.5, got.High().Float64())
}

func TestMemoryMapInvalidateNonFPRetainsStorage(t *testing.T) {
	m := NewMemoryMap()
	v := m.Store(0x2000)
	v.High().SetFloat64(53, 4.0)

	m.InvalidateNonFP(0x2000)
	_, ok := m.Lookup(0x2000)
	assert.False(t, ok, "a deactivated node must not be visible to Lookup")

	// Storing again reactivates the same node rather than discarding it.
	v2 := m.Store(0x2000)
	assert.Equal(t, 4.0, v2.High().Float64())
}

func TestMemoryMapResetDeactivatesEveryNode(t *testing.T) {
	m := NewMemoryMap()
	m.Store(1)
	m.Store(2)
	m.Reset()
	_, ok1 := m.Lookup(1)
	_, ok2 := m.Lookup(2)
	assert.False(t, ok1)
	assert.False(t, ok2)
}
