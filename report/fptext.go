/*
   Report: the floating-point text renderers -- spec.md section 6's
   "Floating-point text format".

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

package report

import (
	"fmt"
	"math/big"
)

// LongDigits and ShortDigits bound the mantissa precision of the long
// and short FP text variants (spec.md section 6).
const (
	LongDigits  = 60
	ShortDigits = 3
)

// FormatLong renders f with up to LongDigits significant decimal
// digits, "mantissa * 10^exp" style.
func FormatLong(f *big.Float) string {
	return formatSci(f, LongDigits, " * 10^")
}

// FormatShort renders f with ShortDigits significant decimal digits,
// "mantissaeexp" style -- the compact form used inline in per-entry
// report blocks.
func FormatShort(f *big.Float) string {
	return formatSci(f, ShortDigits, "e")
}

func formatSci(f *big.Float, digits int, expSep string) string {
	if f == nil {
		return "0"
	}
	if f.IsInf() {
		if f.Signbit() {
			return "-Inf"
		}
		return "Inf"
	}
	if f.Sign() == 0 {
		return "0" + expSep + "0"
	}

	// big.Float.Text('e', ...) already produces a correctly-rounded
	// base-10 "mantissa e exp" string at the requested digit count;
	// only the separator needs rewriting to match spec.md's format.
	text := f.Text('e', digits-1)
	return splitExp(text, expSep)
}

// splitExp rewrites Go's "1.234e+05" text into "1.234 * 10^5" (or
// "1.234e5" for the short form's separator), matching spec.md's format
// exactly.
func splitExp(text, expSep string) string {
	for i := 0; i < len(text); i++ {
		if text[i] == 'e' {
			mantissa := text[:i]
			exp := text[i+1:]
			exp = trimExpSign(exp)
			return mantissa + expSep + exp
		}
	}
	return text
}

func trimExpSign(exp string) string {
	if len(exp) == 0 {
		return exp
	}
	sign := ""
	if exp[0] == '+' {
		exp = exp[1:]
	} else if exp[0] == '-' {
		sign = "-"
		exp = exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	return sign + exp
}

// PrecisionFooter renders the optional ", used/total bit" trailer
// (spec.md section 6), reporting how many bits of prec were actually
// significant in f versus its full allocated precision.
func PrecisionFooter(f *big.Float, total uint) string {
	used := f.MinPrec()
	return fmt.Sprintf(", %d/%d bit", used, total)
}
