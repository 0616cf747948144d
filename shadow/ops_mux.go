/*
   Shadow: conditional-select (Mux) opcode handler -- spec.md section
   4.E.6.

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

// Mux executes a conditional select: at callback time cond has already
// been read from staging by the caller. If the chosen argument has no
// shadow, the destination gets none either -- the one way an FP-typed
// mux may produce an unshadowed temp (spec.md section 4.E.6).
func (e *Engine) Mux(dst *Value, cond bool, expr0, exprX *Value, simulateOriginal bool) {
	if !e.Analyzing {
		return
	}
	chosen := expr0
	if cond {
		chosen = exprX
	}
	if !chosen.Active() {
		dst.SetActive(false)
		return
	}
	dst.CopyFrom(chosen, simulateOriginal)
	dst.SetActive(true)
}
