/*
   Shadow: the E opcode handlers test set.

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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	e := NewEngine(DefaultOptions(), nil, nil, nil)
	e.Analyzing = true
	return e
}

type fakeHook struct {
	recs []OpRecord
}

func (h *fakeHook) RecordOp(rec OpRecord) { h.recs = append(h.recs, rec) }

func TestBinOpAddComputesShadowAndOpCount(t *testing.T) {
	e := newTestEngine()
	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)

	e.BinOp(OpAdd, 0x100, &dst, &arg1, &arg2, Double, 1.5, 2.5, 4.0)

	assert.InDelta(t, 4.0, dst.High().Float64(), 1e-9)
	assert.EqualValues(t, 1, dst.OpCount, "opCount = 1 + max(argOpCount1, argOpCount2)")
	assert.Equal(t, uint64(0x100), dst.Origin)
}

func TestBinOpOpCountRecurrence(t *testing.T) {
	e := newTestEngine()
	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)
	for _, arg := range []*Value{&arg1, &arg2} {
		arg.SetActive(true)
		arg.OrgType = Double
		arg.High().SetFloat64(e.Opts.Precision, 1.0)
		DeriveMid(arg.Mid(), arg.High(), Double)
		DeriveOri(arg.Ori(), arg.High(), Double)
	}
	arg1.OpCount = 3
	arg2.OpCount = 7

	e.BinOp(OpAdd, 0x200, &dst, &arg1, &arg2, Double, 1.0, 1.0, 2.0)

	assert.EqualValues(t, 8, dst.OpCount)
}

func TestBinOpIntroducesInactiveArguments(t *testing.T) {
	e := newTestEngine()
	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)
	require.False(t, arg1.Active())
	require.False(t, arg2.Active())

	e.BinOp(OpAdd, 0x10, &dst, &arg1, &arg2, Double, 3.0, 4.0, 7.0)

	assert.Equal(t, 3.0, arg1.High().Float64(), "an inactive argument is introduced from its native value")
	assert.Equal(t, 4.0, arg2.High().Float64())
}

func TestBinOpCancellationOnlyComputedForAddSub(t *testing.T) {
	e := newTestEngine()

	// mul/div/min/max never compute cancellation, regardless of operands.
	for _, op := range []Op{OpMul, OpDiv, OpMin, OpMax} {
		var arg1, arg2, dst Value
		arg1.Init(0)
		arg2.Init(1)
		dst.Init(2)
		e.BinOp(op, 0x30, &dst, &arg1, &arg2, Double, 2.0, 2.0, 2.0)
		assert.EqualValues(t, 0, dst.Canceled, "op %v must report zero canceled bits", op)
	}
}

func TestBinOpCancellationBoundsOnRegularOperands(t *testing.T) {
	// For regular finite operands and a regular finite result, canceled is
	// nonnegative and equals the definition checked below.
	e := newTestEngine()
	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)

	// A Kahan-style near-total cancellation: two close values subtracted.
	e.BinOp(OpSub, 0x40, &dst, &arg1, &arg2, Double, 1.0000000001, 1.0, 1.0000000001-1.0)

	maxArgExp := arg1.High().Exp()
	if e2 := arg2.High().Exp(); e2 > maxArgExp {
		maxArgExp = e2
	}

	assert.GreaterOrEqual(t, dst.Canceled, int32(0))
	assert.True(t, dst.Canceled > 0, "a near-total cancellation must report a nonzero canceled-bit count")
	// canceledBits itself is exactly max(exp(arg1),exp(arg2)) - exp(result),
	// clamped to >= 0; confirm it matches that definition directly.
	want := int32(maxArgExp - dst.High().Exp())
	if want < 0 {
		want = 0
	}
	assert.Equal(t, want, canceledBits(arg1.High(), arg2.High(), dst.High()))
}

func TestBinOpCancellationZeroOnNonRegularOperand(t *testing.T) {
	var arg1, arg2, result APFloat
	arg1.SetNaN(53)
	arg2.SetFloat64(53, 1.0)
	result.SetFloat64(53, 1.0)
	assert.EqualValues(t, 0, canceledBits(&arg1, &arg2, &result))
}

func TestInheritCanceledPicksLargestAndTracksOrigin(t *testing.T) {
	var arg1, arg2 Value
	arg1.Init(0)
	arg2.Init(1)
	arg1.Canceled, arg1.CancelOrigin = 5, 0xAAA
	arg2.Canceled, arg2.CancelOrigin = 12, 0xBBB

	best, origin := inheritCanceled(3, 0xCCC, &arg1, &arg2)
	assert.EqualValues(t, 12, best)
	assert.Equal(t, uint64(0xBBB), origin)

	best, origin = inheritCanceled(20, 0xCCC, &arg1, &arg2)
	assert.EqualValues(t, 20, best)
	assert.Equal(t, uint64(0xCCC), origin)
}

func TestCancellationBadnessClampedAtZero(t *testing.T) {
	assert.EqualValues(t, 0, cancellationBadness(3, 10, 10), "exact bits covering the cancellation yields zero badness")
	assert.EqualValues(t, 5, cancellationBadness(10, 10, 5), "badness is canceled minus the smaller exact-bit estimate")
}

func TestBinOpNaNOperandPropagates(t *testing.T) {
	e := newTestEngine()
	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)
	arg1.SetActive(true)
	arg1.OrgType = Double
	arg1.High().SetNaN(e.Opts.Precision)
	DeriveMid(arg1.Mid(), arg1.High(), Double)
	DeriveOri(arg1.Ori(), arg1.High(), Double)

	e.BinOp(OpAdd, 0x50, &dst, &arg1, &arg2, Double, 0, 2.0, math.NaN())

	assert.True(t, dst.High().IsNaN())
}

func TestBinOpReportsToHookOnlyWhenMeanErrorEnabled(t *testing.T) {
	e := newTestEngine()
	hook := &fakeHook{}
	e.Hook = hook

	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)

	e.Opts.MeanError = false
	e.BinOp(OpAdd, 0x60, &dst, &arg1, &arg2, Double, 1.0, 1.0, 2.0)
	assert.Empty(t, hook.recs, "report is a no-op when --mean-error is disabled")

	e.Opts.MeanError = true
	e.BinOp(OpAdd, 0x60, &dst, &arg1, &arg2, Double, 1.0, 1.0, 2.0)
	require.Len(t, hook.recs, 1)
	assert.Equal(t, uint64(0x60), hook.recs[0].IP)
}

func TestBinOpNoopWhenNotAnalyzing(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil, nil, nil)
	e.Analyzing = false
	var arg1, arg2, dst Value
	arg1.Init(0)
	arg2.Init(1)
	dst.Init(2)

	e.BinOp(OpAdd, 0x70, &dst, &arg1, &arg2, Double, 1.0, 1.0, 2.0)
	assert.False(t, dst.Active(), "no destination shadow is produced while analysis is disabled")
}

func TestUnOpSqrtInheritsCanceledFromArgument(t *testing.T) {
	e := newTestEngine()
	var src, dst Value
	src.Init(0)
	dst.Init(1)
	src.SetActive(true)
	src.OrgType = Double
	src.High().SetFloat64(e.Opts.Precision, 2.0)
	DeriveMid(src.Mid(), src.High(), Double)
	DeriveOri(src.Ori(), src.High(), Double)
	src.Canceled = 9
	src.CancelOrigin = 0x111
	src.OpCount = 4

	e.UnOp(OpSqrt, 0x80, &dst, &src, Double, math.Sqrt(2.0))

	assert.InDelta(t, 1.4142135623730951, dst.High().Float64(), 1e-12)
	assert.EqualValues(t, 9, dst.Canceled, "unary ops never change canceled, only inherit it")
	assert.Equal(t, uint64(0x111), dst.CancelOrigin)
	assert.EqualValues(t, 5, dst.OpCount)
}

func TestUnOpNegAndAbs(t *testing.T) {
	e := newTestEngine()
	var src, dst Value
	src.Init(0)
	dst.Init(1)

	e.UnOp(OpNeg, 0x90, &dst, &src, Double, -3.0)
	assert.InDelta(t, -3.0, dst.High().Float64(), 1e-12)

	var src2, dst2 Value
	src2.Init(2)
	dst2.Init(3)
	e.UnOp(OpAbs, 0x91, &dst2, &src2, Double, 3.0)
	assert.InDelta(t, 3.0, dst2.High().Float64(), 1e-12)
}

func TestCmpLogsDivergenceOnDisagreement(t *testing.T) {
	e := newTestEngine()
	var arg1, arg2 Value
	arg1.Init(0)
	arg2.Init(1)

	// Force a shadow/ori divergence: give arg1 a shadow that disagrees
	// with its recovered-from-native ori mirror.
	arg1.SetActive(true)
	arg1.OrgType = Double
	arg1.High().SetFloat64(e.Opts.Precision, 5.0)
	DeriveMid(arg1.Mid(), arg1.High(), Double)
	arg1.Ori().SetFloat64(midPrecDouble, 1.0) // deliberately wrong vs. native

	arg2.SetActive(true)
	arg2.OrgType = Double
	arg2.High().SetFloat64(e.Opts.Precision, 5.0)
	DeriveMid(arg2.Mid(), arg2.High(), Double)
	DeriveOri(arg2.Ori(), arg2.High(), Double)

	var log fakeDivergenceLog
	e.Cmp(0xA0, &arg1, &arg2, Double, 5.0, 5.0, &log)
	assert.True(t, log.called, "shadow (EQ, both High()=5.0) must diverge from the ori comparison (1.0 < 5.0)")
}

type fakeDivergenceLog struct {
	called bool
	ip     uint64
	shadow, ori CmpResult
}

func (f *fakeDivergenceLog) LogDivergence(ip uint64, shadow, ori CmpResult) {
	f.called = true
	f.ip = ip
	f.shadow, f.ori = shadow, ori
}

func TestCmpGotoShadowBranchOverridesNativeOutcome(t *testing.T) {
	e := newTestEngine()
	e.Opts.GotoShadowBranch = true
	var arg1, arg2 Value
	arg1.Init(0)
	arg2.Init(1)

	// Shadow disagrees with native: native says equal, shadow says LT.
	arg1.SetActive(true)
	arg1.OrgType = Double
	arg1.High().SetFloat64(e.Opts.Precision, 1.0)
	DeriveMid(arg1.Mid(), arg1.High(), Double)
	DeriveOri(arg1.Ori(), arg1.High(), Double)

	arg2.SetActive(true)
	arg2.OrgType = Double
	arg2.High().SetFloat64(e.Opts.Precision, 2.0)
	DeriveMid(arg2.Mid(), arg2.High(), Double)
	DeriveOri(arg2.Ori(), arg2.High(), Double)

	result := e.Cmp(0xB0, &arg1, &arg2, Double, 2.0, 2.0, nil)
	assert.Equal(t, CmpLT, result, "--goto-shadow-branch substitutes the shadow outcome for the native one")
}

func TestCmpDefaultReturnsNativeOutcome(t *testing.T) {
	e := newTestEngine()
	var arg1, arg2 Value
	arg1.Init(0)
	arg2.Init(1)

	result := e.Cmp(0xB1, &arg1, &arg2, Double, 1.0, 2.0, nil)
	assert.Equal(t, CmpLT, result)
}

func TestCmpNotAnalyzingStillReturnsNativeOutcome(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil, nil, nil)
	e.Analyzing = false
	var arg1, arg2 Value
	arg1.Init(0)
	arg2.Init(1)

	result := e.Cmp(0xB2, &arg1, &arg2, Double, 5.0, 1.0, nil)
	assert.Equal(t, CmpGT, result)
}

func TestMuxSelectsByCondAndDeactivatesIfChosenUnshadowed(t *testing.T) {
	e := newTestEngine()
	var expr0, exprX, dst Value
	expr0.Init(0)
	exprX.Init(1)
	dst.Init(2)

	expr0.SetActive(true)
	expr0.OrgType = Double
	expr0.High().SetFloat64(e.Opts.Precision, 1.0)
	exprX.SetActive(true)
	exprX.OrgType = Double
	exprX.High().SetFloat64(e.Opts.Precision, 9.0)

	e.Mux(&dst, false, &expr0, &exprX, false)
	assert.True(t, dst.Active())
	assert.Equal(t, 1.0, dst.High().Float64())

	e.Mux(&dst, true, &expr0, &exprX, false)
	assert.Equal(t, 9.0, dst.High().Float64())

	var dst2 Value
	dst2.Init(3)
	dst2.SetActive(true)
	var unshadowed Value
	unshadowed.Init(4)
	e.Mux(&dst2, false, &unshadowed, &exprX, false)
	assert.False(t, dst2.Active(), "a mux choosing an unshadowed argument leaves the destination unshadowed too")
}
