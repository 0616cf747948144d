/*
   Shadow: unary opcode handlers (sqrt, neg, abs) -- spec.md section 4.E.1.

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

// UnOp executes a unary handler (sqrt/neg/abs) for stage, reading the
// source shadow from src (introducing one from native if absent), and
// writing the result into dst. ip is the guest instruction address
// attributed as Origin on the result.
//
// No cancellation is possible for a unary op; canceled/cancelOrigin are
// inherited unchanged from the argument (spec.md section 4.E.1).
func (e *Engine) UnOp(op Op, ip uint64, dst, src *Value, t OrgType, native float64) {
	if !e.Analyzing {
		return
	}
	if !src.Active() {
		e.introduce(src, t, native)
	}

	prec := e.precisionFor(t)
	dst.OrgType = t
	if dst.High().Prec() != prec {
		dst.High().SetPrec(prec)
	}

	switch op {
	case OpSqrt:
		dst.High().Sqrt(src.High())
	case OpNeg:
		dst.High().Neg(src.High())
	case OpAbs:
		dst.High().Abs(src.High())
	default:
		panic("shadow: UnOp given a non-unary opcode")
	}

	DeriveMid(dst.Mid(), dst.High(), t)
	DeriveOri(dst.Ori(), dst.High(), t)
	e.checkAndRecover(dst, native)

	dst.OpCount = src.OpCount + 1
	dst.Origin = ip
	dst.Canceled = src.Canceled
	dst.CancelOrigin = src.CancelOrigin
	if t == Float {
		dst.OrgFloat = float32(native)
	} else {
		dst.OrgDouble = native
	}

	rel := dst.High().RelativeError(native, prec)
	e.report(OpRecord{
		IP:       ip,
		ArgIP1:   src.Origin,
		RelError: rel,
		Canceled: dst.Canceled,
		Native:   native,
		Shadow:   dst.High().Float64(),
	})
}
