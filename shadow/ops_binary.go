/*
   Shadow: binary arithmetic opcode handlers (add, sub, mul, div, min,
   max) and the canceled-bit / cancellation-badness estimators --
   spec.md section 4.E.2.

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

// maxExactBits is the clamp on the exact-bits estimate for each native
// width (spec.md section 4.E.2: "[0, 23] for F32, [0, 52] for F64").
func maxExactBits(t OrgType) int32 {
	if t == Float {
		return 23
	}
	return 52
}

// exactBitsEstimate estimates how many bits of argShadow are already
// known to agree with argNative, used to separate genuine cancellation
// from cancellation the guest's own prior rounding already accounted
// for (spec.md section 4.E.2's "cancellation badness").
func exactBitsEstimate(argShadow *APFloat, argNative float64, prec uint, t OrgType) int32 {
	var native APFloat
	native.SetFloat64(prec, argNative)
	if argShadow.Exp() != native.Exp() {
		return 0
	}
	var diff APFloat
	diff.SetPrec(prec)
	diff.Sub(argShadow, &native)
	eb := int32(argShadow.Exp()) - int32(diff.Exp()) - 2
	if eb < 0 {
		eb = 0
	}
	if max := maxExactBits(t); eb > max {
		eb = max
	}
	return eb
}

// canceledBits computes spec.md section 4.E.2's canceled-bit count for
// an add/sub: max(0, max(exp(arg1), exp(arg2)) - exp(result)) when all
// three operands are regular, zero otherwise.
func canceledBits(arg1, arg2, result *APFloat) int32 {
	if !arg1.IsRegular() || !arg2.IsRegular() || !result.IsRegular() {
		return 0
	}
	maxArgExp := arg1.Exp()
	if arg2.Exp() > maxArgExp {
		maxArgExp = arg2.Exp()
	}
	c := int32(maxArgExp - result.Exp())
	if c < 0 {
		c = 0
	}
	return c
}

// cancellationBadness is max(0, canceledBits - min(exactBits1, exactBits2)).
func cancellationBadness(canceled, exactBits1, exactBits2 int32) int32 {
	minExact := exactBits1
	if exactBits2 < minExact {
		minExact = exactBits2
	}
	b := canceled - minExact
	if b < 0 {
		b = 0
	}
	return b
}

// inheritCanceled picks the larger of this op's own canceled-bit count
// and each argument's inherited maximum, tracking the origin IP of
// whichever is largest (spec.md section 4.E.2: "canceled is the max of
// (this op's canceled, each argument's inherited canceled)").
func inheritCanceled(ownCanceled int32, ownIP uint64, arg1, arg2 *Value) (int32, uint64) {
	best, origin := ownCanceled, ownIP
	if arg1.Canceled > best {
		best, origin = arg1.Canceled, arg1.CancelOrigin
	}
	if arg2.Canceled > best {
		best, origin = arg2.Canceled, arg2.CancelOrigin
	}
	return best, origin
}

// BinOp executes a binary arithmetic handler (add/sub/mul/div/min/max)
// at native width t. ip is the producing guest instruction; native1/
// native2 are the staged native operand values used for the exact-bits
// estimate and for introducing a fresh shadow when an argument has
// none live.
func (e *Engine) BinOp(op Op, ip uint64, dst, arg1, arg2 *Value, t OrgType, native1, native2, nativeResult float64) {
	if !e.Analyzing {
		return
	}
	if !arg1.Active() {
		e.introduce(arg1, t, native1)
	}
	if !arg2.Active() {
		e.introduce(arg2, t, native2)
	}

	prec := e.precisionFor(t)
	dst.OrgType = t
	if dst.High().Prec() != prec {
		dst.High().SetPrec(prec)
	}

	switch op {
	case OpAdd:
		dst.High().Add(arg1.High(), arg2.High())
	case OpSub:
		dst.High().Sub(arg1.High(), arg2.High())
	case OpMul:
		dst.High().Mul(arg1.High(), arg2.High())
	case OpDiv:
		dst.High().Quo(arg1.High(), arg2.High())
	case OpMin:
		if arg1.High().Cmp(arg2.High()) <= 0 {
			dst.High().Set(arg1.High())
		} else {
			dst.High().Set(arg2.High())
		}
	case OpMax:
		if arg1.High().Cmp(arg2.High()) >= 0 {
			dst.High().Set(arg1.High())
		} else {
			dst.High().Set(arg2.High())
		}
	default:
		panic("shadow: BinOp given a non-binary opcode")
	}

	DeriveMid(dst.Mid(), dst.High(), t)
	DeriveOri(dst.Ori(), dst.High(), t)
	e.checkAndRecover(dst, nativeResult)

	var canceled, badness int32
	if op == OpAdd || op == OpSub {
		canceled = canceledBits(arg1.High(), arg2.High(), dst.High())
		eb1 := exactBitsEstimate(arg1.High(), native1, prec, t)
		eb2 := exactBitsEstimate(arg2.High(), native2, prec, t)
		badness = cancellationBadness(canceled, eb1, eb2)
	}

	dst.OpCount = arg1.OpCount + 1
	if arg2.OpCount > arg1.OpCount {
		dst.OpCount = arg2.OpCount + 1
	}
	dst.Origin = ip
	dst.Canceled, dst.CancelOrigin = inheritCanceled(canceled, ip, arg1, arg2)
	if t == Float {
		dst.OrgFloat = float32(nativeResult)
	} else {
		dst.OrgDouble = nativeResult
	}

	rel := dst.High().RelativeError(nativeResult, prec)
	e.report(OpRecord{
		IP:       ip,
		ArgIP1:   arg1.Origin,
		ArgIP2:   arg2.Origin,
		RelError: rel,
		Canceled: canceled,
		Badness:  badness,
		Native:   nativeResult,
		Shadow:   dst.High().Float64(),
	})
}
