/*
   Shadow: arbitrary-precision kernel used by ShadowValue.

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
	"math/big"
)

// APFloat is the arbitrary precision kernel spec.md section 1 assumes
// is available "with standard rounding, prec control, and emin/emax
// tweaks". It wraps math/big.Float, which supplies the first two
// directly; the emin/emax clamp and subnormalize step has no stdlib or
// corpus library equivalent and is implemented by hand below (see
// DESIGN.md).
//
// math/big.Float has no NaN representation at all -- arithmetic that
// would produce one (0/0, Inf-Inf, 0*Inf) panics with big.ErrNaN
// instead. nan tracks that case explicitly so the engine can carry NaN
// through a shadow computation instead of crashing, which real guest
// programs do trigger (spec.md section 8: "If original is NaN ... the
// entry appears in the special report").
type APFloat struct {
	f   big.Float
	nan bool
}

// Round to nearest, ties to even -- the engine's only rounding mode
// (spec.md section 4.E.3: "all shadow arithmetic uses round-to-nearest").
const stdRound = big.ToNearestEven

const (
	// Default high shadow precision, spec.md section 6 --precision flag.
	DefaultPrecision uint = 120

	midPrecFloat  uint = 24
	midPrecDouble uint = 53

	// IEEE double exponent bounds in math/big.Float.MantExp convention
	// (value == mant * 2**exp, 0.5 <= |mant| < 1), matching the
	// original source's mpfr_set_emin(-1073)/mpfr_set_emax(1024).
	doubleEmin = -1073
	doubleEmax = 1024

	// Smallest normal exponent in the same convention: 0.5*2**-1021 == 2**-1022.
	doubleMinNormalExp = -1021
)

// Prec returns the current precision in bits.
func (a *APFloat) Prec() uint { return a.f.Prec() }

// SetPrec resets the precision; the stored value is rounded to the new
// precision exactly like mpfr_set_prec does for an in-place field.
func (a *APFloat) SetPrec(prec uint) *APFloat {
	a.f.SetPrec(prec)
	return a
}

// Set copies src's value (not precision) into a, rounding to a's own
// precision -- mirrors mpfr_set.
func (a *APFloat) Set(src *APFloat) *APFloat {
	if a.f.Prec() == 0 {
		a.f.SetPrec(src.f.Prec())
	}
	if src.nan {
		return a.SetNaN(a.f.Prec())
	}
	a.nan = false
	a.f.SetMode(stdRound).Set(&src.f)
	return a
}

// SetFloat64 sets a to x exactly (float64 always fits, since a's
// precision is at least 53 once initialized for a Double value). A
// NaN payload sets the nan flag instead of touching the big.Float,
// which cannot hold one.
func (a *APFloat) SetFloat64(prec uint, x float64) *APFloat {
	a.f.SetPrec(prec)
	if math.IsNaN(x) {
		a.nan = true
		a.f.SetInt64(0)
		return a
	}
	a.nan = false
	a.f.SetMode(stdRound).SetFloat64(x)
	return a
}

// SetFloat32 sets a to x exactly.
func (a *APFloat) SetFloat32(prec uint, x float32) *APFloat {
	return a.SetFloat64(prec, float64(x))
}

// Float64 rounds a to the nearest float64, returning math.NaN() if the
// nan flag is set.
func (a *APFloat) Float64() float64 {
	if a.nan {
		return math.NaN()
	}
	v, _ := a.f.Float64()
	return v
}

// Float32 rounds a to the nearest float32, returning float32(NaN) if
// the nan flag is set.
func (a *APFloat) Float32() float32 {
	if a.nan {
		return float32(math.NaN())
	}
	v, _ := a.f.Float32()
	return v
}

// Big exposes the underlying big.Float for arithmetic helpers in the
// opcode handlers that need the full math/big API (Add, Mul, Quo, ...).
// Callers that accept a NaN operand should check IsNaN first.
func (a *APFloat) Big() *big.Float { return &a.f }

// IsNaN reports whether a holds the not-a-number sentinel.
func (a *APFloat) IsNaN() bool { return a.nan }

// SetNaN forces a into the not-a-number state at the given precision.
func (a *APFloat) SetNaN(prec uint) *APFloat {
	a.f.SetPrec(prec).SetInt64(0)
	a.nan = true
	return a
}

// IsZero, IsInf, Sign, Signbit mirror the predicates the handlers need
// for the "regular" checks in spec.md section 4.E.2 and section 8. A
// NaN value is neither zero nor infinite.
func (a *APFloat) IsZero() bool  { return !a.nan && a.f.Sign() == 0 }
func (a *APFloat) IsInf() bool   { return !a.nan && a.f.IsInf() }
func (a *APFloat) Sign() int {
	if a.nan {
		return 0
	}
	return a.f.Sign()
}
func (a *APFloat) Signbit() bool { return !a.nan && a.f.Signbit() }

// IsRegular reports whether a is neither zero, infinite, nor NaN --
// spec.md section 8's definition of a "regular" operand, used to zero
// out canceled-bit accounting whenever any operand or result is not
// regular.
func (a *APFloat) IsRegular() bool {
	return !a.nan && !a.IsZero() && !a.IsInf()
}

// Exp returns the base-2 exponent in math/big.Float.MantExp convention
// (0.5 <= |mant| < 1); 0 for zero/Inf/NaN, matching spec.md section
// 4.E.2's "zero otherwise" rule for non-regular operands.
func (a *APFloat) Exp() int {
	if !a.IsRegular() {
		return 0
	}
	return a.f.MantExp(nil)
}

// recoverNaN turns a big.ErrNaN panic from an indeterminate big.Float
// operation (0/0, Inf-Inf, 0*Inf, Inf/Inf) into the nan flag instead of
// letting it crash the engine. big.Float itself has no representation
// for these forms; guest programs do trigger them.
func (a *APFloat) recoverNaN(prec uint) {
	if r := recover(); r != nil {
		if _, ok := r.(big.ErrNaN); !ok {
			panic(r)
		}
		a.SetNaN(prec)
	}
}

// Abs, Neg, Sqrt, Add, Sub, Mul, Quo are thin arithmetic wrappers at a's
// own precision, rounding to nearest (spec.md section 4.E.1/4.E.2). Each
// propagates an existing NaN operand and converts any big.ErrNaN the
// underlying operation raises into the nan flag.
func (a *APFloat) Abs(x *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Abs(&x.f)
	return a
}

func (a *APFloat) Neg(x *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Neg(&x.f)
	return a
}

func (a *APFloat) Sqrt(x *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan || x.Sign() < 0 {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Sqrt(&x.f)
	return a
}

func (a *APFloat) Add(x, y *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan || y.nan {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Add(&x.f, &y.f)
	return a
}

func (a *APFloat) Sub(x, y *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan || y.nan {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Sub(&x.f, &y.f)
	return a
}

func (a *APFloat) Mul(x, y *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan || y.nan {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Mul(&x.f, &y.f)
	return a
}

func (a *APFloat) Quo(x, y *APFloat) *APFloat {
	prec := a.f.Prec()
	if prec == 0 {
		prec = x.f.Prec()
	}
	if x.nan || y.nan || (x.IsZero() && y.IsZero()) || (x.IsInf() && y.IsInf()) {
		return a.SetNaN(prec)
	}
	defer a.recoverNaN(prec)
	a.nan = false
	a.f.SetMode(stdRound).Quo(&x.f, &y.f)
	return a
}

// Cmp orders a against b. NaN compares as 0 (equal) to keep callers
// using Cmp for equality checks from treating it as sign of anything;
// handlers that need IEEE unordered-NaN semantics check IsNaN first.
func (a *APFloat) Cmp(b *APFloat) int {
	if a.nan || b.nan {
		return 0
	}
	return a.f.Cmp(&b.f)
}

// RelativeError computes |a - native| / |native| at a's own precision,
// returning zero exactly when both a and native are exactly zero, and
// NaN when either side is NaN, per spec.md section 8's boundary
// behavior.
func (a *APFloat) RelativeError(native float64, prec uint) *APFloat {
	var org, diff, rel APFloat
	org.SetFloat64(prec, native)
	if a.nan || org.nan {
		return rel.SetNaN(prec)
	}
	if a.IsZero() && org.IsZero() {
		rel.SetFloat64(prec, 0)
		return &rel
	}
	diff.Sub(a, &org)
	diff.Abs(&diff)
	if org.IsZero() {
		rel.Set(&diff)
		return &rel
	}
	rel.Quo(&diff, &org)
	rel.Abs(&rel)
	return &rel
}

// DeriveMid truncates value into mid at the native IEEE width implied
// by orgType (spec.md section 3 invariant 4). Used whenever an
// arithmetic handler recomputes Value and must refresh Mid to match.
func DeriveMid(mid *APFloat, value *APFloat, t OrgType) {
	if value.nan {
		mid.SetNaN(t.NativeWidth())
		return
	}
	mid.nan = false
	mid.f.SetPrec(t.NativeWidth()).SetMode(stdRound).Set(&value.f)
}

// DeriveOri recomputes ori from value under the emulated IEEE-double
// exponent range with subnormalization, matching the original source's
// beginEmulateDouble/endEmulate bracket around every shadow update
// (spec.md section 3 invariant 4, section 4.A).
func DeriveOri(ori *APFloat, value *APFloat, t OrgType) {
	if value.nan {
		ori.SetNaN(t.NativeWidth())
		return
	}
	ori.nan = false
	ori.f.SetPrec(t.NativeWidth()).SetMode(stdRound).Set(&value.f)
	subnormalizeIEEE(&ori.f, t.NativeWidth())
}

// subnormalizeIEEE clamps f into the IEEE double exponent range
// [doubleEmin, doubleEmax] and, for results that fall into the
// subnormal range, reduces the effective mantissa precision the way
// IEEE gradual underflow does -- a faithful emulation of MPFR's
// mpfr_set_emin/mpfr_set_emax/mpfr_subnormalize sequence the original
// source runs around every ori update.
func subnormalizeIEEE(f *big.Float, prec uint) {
	if f.Sign() == 0 || f.IsInf() {
		return
	}
	var mant big.Float
	mant.SetPrec(prec)
	exp := f.MantExp(&mant)

	if exp > doubleEmax {
		f.SetInf(f.Signbit())
		return
	}
	if exp < doubleEmin {
		f.SetPrec(prec).SetInt64(0)
		if mant.Signbit() {
			f.Neg(f)
		}
		return
	}
	if exp < doubleMinNormalExp {
		lost := uint(doubleMinNormalExp - exp)
		newPrec := prec
		if lost >= prec {
			newPrec = 0
		} else {
			newPrec = prec - lost
		}
		if newPrec == 0 {
			f.SetPrec(prec).SetInt64(0)
			if mant.Signbit() {
				f.Neg(f)
			}
			return
		}
		mant.SetPrec(newPrec).Set(&mant)
	}
	f.SetPrec(prec).SetMantExp(&mant, exp)
}
