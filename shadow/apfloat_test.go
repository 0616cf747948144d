/*
   Shadow: the AP float wrapper test set.

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

func TestAPFloatRoundTripFloat64(t *testing.T) {
	var a APFloat
	a.SetFloat64(120, 3.5)
	assert.Equal(t, 3.5, a.Float64())
	assert.False(t, a.IsNaN())
}

func TestAPFloatNaNFromFloat64(t *testing.T) {
	var a APFloat
	a.SetFloat64(120, math.NaN())
	assert.True(t, a.IsNaN())
	assert.True(t, math.IsNaN(a.Float64()))
	assert.False(t, a.IsZero())
	assert.False(t, a.IsInf())
	assert.Equal(t, 0, a.Sign())
}

func TestAPFloatIndeterminateFormsProduceNaN(t *testing.T) {
	var zero, inf, result APFloat
	zero.SetFloat64(53, 0)
	inf.SetFloat64(53, math.Inf(1))

	result.Quo(&zero, &zero)
	require.True(t, result.IsNaN())

	result.Quo(&inf, &inf)
	require.True(t, result.IsNaN())
}

func TestAPFloatNaNPropagatesThroughArithmetic(t *testing.T) {
	var nan, one, result APFloat
	nan.SetNaN(53)
	one.SetFloat64(53, 1)

	result.Add(&nan, &one)
	assert.True(t, result.IsNaN())

	result.Mul(&one, &nan)
	assert.True(t, result.IsNaN())

	result.Sqrt(&nan)
	assert.True(t, result.IsNaN())
}

func TestAPFloatSqrtOfNegativeIsNaN(t *testing.T) {
	var neg, result APFloat
	neg.SetFloat64(53, -4)
	result.Sqrt(&neg)
	assert.True(t, result.IsNaN())
}

func TestAPFloatCmpTreatsNaNAsEqual(t *testing.T) {
	var nan, one APFloat
	nan.SetNaN(53)
	one.SetFloat64(53, 1)
	assert.Equal(t, 0, nan.Cmp(&one))
}

func TestAPFloatRelativeErrorZeroVsZero(t *testing.T) {
	var a APFloat
	a.SetFloat64(120, 0)
	rel := a.RelativeError(0, 120)
	assert.False(t, rel.IsNaN())
	assert.True(t, rel.IsZero())
}

func TestAPFloatRelativeErrorNaNOperand(t *testing.T) {
	var a APFloat
	a.SetNaN(120)
	rel := a.RelativeError(1.0, 120)
	assert.True(t, rel.IsNaN())
}

func TestDeriveMidTruncatesToNativeWidth(t *testing.T) {
	var value, mid APFloat
	value.SetFloat64(120, math.Pi)

	DeriveMid(&mid, &value, Double)
	assert.EqualValues(t, midPrecDouble, mid.Prec())

	DeriveMid(&mid, &value, Float)
	assert.EqualValues(t, midPrecFloat, mid.Prec())
}

func TestDeriveOriPropagatesNaN(t *testing.T) {
	var value, ori APFloat
	value.SetNaN(120)
	DeriveOri(&ori, &value, Double)
	assert.True(t, ori.IsNaN())
}
