/*
   Shadow: comparison opcode handler -- spec.md section 4.E.4.

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

// DivergenceLog records a branch-divergence event: the shadow and
// emulated-IEEE comparisons disagreed at ip. The caller (the report
// package) decides how to surface these; the engine only detects them.
type DivergenceLog interface {
	LogDivergence(ip uint64, shadow, ori CmpResult)
}

func cmpResult(c int) CmpResult {
	switch {
	case c < 0:
		return CmpLT
	case c > 0:
		return CmpGT
	default:
		return CmpEQ
	}
}

// Cmp executes cmpF64: computes both the shadow comparison and the
// emulated-IEEE (ori) comparison, logs a divergence if they disagree,
// and -- in --goto-shadow-branch mode -- returns the shadow's outcome
// for the instrumented code to substitute for the native branch
// condition (spec.md section 4.E.4).
func (e *Engine) Cmp(ip uint64, arg1, arg2 *Value, t OrgType, native1, native2 float64, div DivergenceLog) CmpResult {
	if !e.Analyzing {
		return cmpResult(cmpNative(native1, native2))
	}
	if !arg1.Active() {
		e.introduce(arg1, t, native1)
	}
	if !arg2.Active() {
		e.introduce(arg2, t, native2)
	}

	shadow := cmpResult(arg1.High().Cmp(arg2.High()))
	ori := cmpResult(arg1.Ori().Cmp(arg2.Ori()))

	if shadow != ori && div != nil {
		div.LogDivergence(ip, shadow, ori)
	}

	if e.Opts.GotoShadowBranch {
		return shadow
	}
	return cmpResult(cmpNative(native1, native2))
}

func cmpNative(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
