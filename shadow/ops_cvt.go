/*
   Shadow: F64 -> integer conversion opcode handlers -- spec.md section
   4.E.5.

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

import "math"

// CvtToInt executes one of F64toI16S/I32S/I64S/I32U/I64U: reads the F64
// shadow and returns it cast to the target integer width, for the
// instrumented code to bind into the destination IR temp. A no-op
// (returning nativeResult unchanged) when --track-int is off -- the
// native conversion is used instead (spec.md section 4.E.5).
func (e *Engine) CvtToInt(op Op, arg *Value, native float64, nativeResult int64) int64 {
	if !e.Analyzing || !e.Opts.TrackInt {
		return nativeResult
	}
	if !arg.Active() {
		e.introduce(arg, Double, native)
	}

	v := arg.High().Float64()
	switch op {
	case OpF64toI16S:
		return int64(int16(truncInt(v)))
	case OpF64toI32S:
		return int64(int32(truncInt(v)))
	case OpF64toI64S:
		return truncInt(v)
	case OpF64toI32U:
		return int64(uint32(truncUint(v)))
	case OpF64toI64U:
		return int64(truncUint(v))
	default:
		panic("shadow: CvtToInt given a non-conversion opcode")
	}
}

func truncInt(v float64) int64 {
	return int64(math.Trunc(v))
}

func truncUint(v float64) uint64 {
	return uint64(math.Trunc(v))
}
