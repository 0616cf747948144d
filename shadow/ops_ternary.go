/*
   Shadow: ternary arithmetic opcode handlers -- spec.md section 4.E.3.

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

// TriOp executes a ternary arithmetic handler (F64 add/sub/mul/div
// where argument 1 is a rounding mode). The rounding mode itself is
// ignored -- all shadow arithmetic uses round-to-nearest (spec.md
// section 4.E.3) -- and the remaining semantics are identical to BinOp
// over args 2 and 3, which this delegates to directly.
func (e *Engine) TriOp(op Op, ip uint64, dst, arg2, arg3 *Value, roundMode int, t OrgType, native2, native3, nativeResult float64) {
	_ = roundMode
	e.BinOp(op, ip, dst, arg2, arg3, t, native2, native3, nativeResult)
}
