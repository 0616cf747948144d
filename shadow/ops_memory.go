/*
   Shadow: Load/Store opcode handlers -- spec.md section 4.E.7.

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

// StageObserver receives notification of a shadowed store while a
// stage is active, feeding component F's iterative-stage tracker
// (spec.md section 4.E.7: "also notify F's stage tracker if any stage
// is active").
type StageObserver interface {
	ObserveStore(addr uint64, v *Value)
}

// Load answers a shadowed Load(addr -> tmp): if memory[addr] is present
// and active, populates dst from it. Returns false (dst left inactive)
// if no shadow exists at addr.
func (e *Engine) Load(dst *Value, addr uint64, simulateOriginal bool) bool {
	if !e.Analyzing {
		return false
	}
	src, ok := e.Memory.Lookup(addr)
	if !ok {
		dst.SetActive(false)
		return false
	}
	dst.CopyFrom(src, simulateOriginal)
	dst.SetActive(true)
	return true
}

// Store answers a shadowed Store(addr <- tmp): if src is live, upserts
// memory[addr] and copies the shadow in, also recording the native
// value and orgType on the record (spec.md section 4.E.7). If src is
// not live but a memory record already exists at addr, that record is
// deactivated instead -- memory has been overwritten by something
// unshadowed.
func (e *Engine) Store(src *Value, addr uint64, t OrgType, native float64, simulateOriginal bool, obs StageObserver) {
	if !e.Analyzing {
		return
	}
	if !src.Active() {
		e.Memory.InvalidateNonFP(addr)
		return
	}

	rec := e.Memory.Store(addr)
	rec.CopyFrom(src, simulateOriginal)
	rec.OrgType = t
	if t == Float {
		rec.OrgFloat = float32(native)
	} else {
		rec.OrgDouble = native
	}

	if obs != nil {
		obs.ObserveStore(addr, rec)
	}
}
