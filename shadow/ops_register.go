/*
   Shadow: Put/Get/PutI/GetI opcode handlers -- spec.md section 4.E.8.

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

// circularOffset computes the effective register offset for PutI/GetI:
// base + ((ix + bias) mod nElems), per spec.md section 4.E.8.
func circularOffset(base, nElems, bias, ix int) int {
	if nElems <= 0 {
		return base
	}
	m := (ix + bias) % nElems
	if m < 0 {
		m += nElems
	}
	return base + m
}

// Get answers a shadowed Get(threadId, offset -> tmp): symmetric to
// Load, keyed by the per-thread register file.
func (e *Engine) Get(dst *Value, threadID uint32, offset int, simulateOriginal bool) bool {
	if !e.Analyzing {
		return false
	}
	rf := e.Regs.Of(threadID)
	src, ok := rf.Get(offset)
	if !ok {
		dst.SetActive(false)
		return false
	}
	dst.CopyFrom(src, simulateOriginal)
	dst.SetActive(true)
	return true
}

// Put answers a shadowed Put(threadId, offset <- tmp): symmetric to
// Store, keyed by the per-thread register file. If src is not live,
// any existing register shadow at offset is invalidated instead.
func (e *Engine) Put(src *Value, threadID uint32, offset int, simulateOriginal bool) {
	if !e.Analyzing {
		return
	}
	rf := e.Regs.Of(threadID)
	if !src.Active() {
		rf.Invalidate(offset)
		return
	}
	dst := rf.Set(offset)
	dst.CopyFrom(src, simulateOriginal)
}

// GetI answers a shadowed GetI through the circular register array
// (spec.md section 4.E.8).
func (e *Engine) GetI(dst *Value, threadID uint32, base, nElems, bias, ix int, simulateOriginal bool) bool {
	return e.Get(dst, threadID, circularOffset(base, nElems, bias, ix), simulateOriginal)
}

// PutI answers a shadowed PutI through the circular register array.
func (e *Engine) PutI(src *Value, threadID uint32, base, nElems, bias, ix int, simulateOriginal bool) {
	e.Put(src, threadID, circularOffset(base, nElems, bias, ix), simulateOriginal)
}
