/*
   Report: shadow_values_{relative_error,canceled,special} writers --
   spec.md section 6.

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
	"fpdebug/shadow"
)

// ShadowEntry is one addressed ShadowValue snapshot, as handed to the
// three shadow_values_* writers by whatever client-request handler
// produced it (PRINT_ERROR / COND_PRINT_ERROR).
type ShadowEntry struct {
	N      int
	Addr   uint64
	Type   shadow.OrgType
	Value  *shadow.Value
	AbsErr string
	RelErr string
}

// typeName renders a shadow.OrgType the way the report format expects.
func typeName(t shadow.OrgType) string {
	if t == shadow.Float {
		return "float"
	}
	return "double"
}

// WriteShadowEntry appends one per-entry block to w, in the
// "N: 0xADDR of type {float|double}" format of spec.md section 6,
// followed by indented original/shadow/errors/cancellation/origin
// lines.
func WriteShadowEntry(w *Writer, e ShadowEntry) {
	v := e.Value
	w.Printf("%d: 0x%x of type %s\n", e.N, e.Addr, typeName(e.Type))
	w.Printf("  original:  %v\n", v.OrgAsFloat64())
	w.Printf("  shadow:    %s\n", FormatLong(v.High().Big()))
	w.Printf("  absolute error: %s\n", e.AbsErr)
	w.Printf("  relative error: %s\n", e.RelErr)
	w.Printf("  max canceled bits: %d\n", v.Canceled)
	if v.Canceled > 0 {
		w.Printf("  origin of max cancellation: 0x%x\n", v.CancelOrigin)
	}
	w.Printf("  last operation origin: 0x%x\n", v.Origin)
	w.Printf("  operation count: %d\n", v.OpCount)
}

// WriteShadowTrailer appends the report's trailing totals line.
func WriteShadowTrailer(w *Writer, total int) {
	w.Printf("total entries: %d\n", total)
}

// ShadowValuesReport accumulates entries for one of the three
// shadow_values_* report kinds and writes a trailer on Close.
type ShadowValuesReport struct {
	w     *Writer
	count int
}

// NewShadowValuesReport opens a report file of the given kind.
func NewShadowValuesReport(exe string, kind Kind) *ShadowValuesReport {
	return &ShadowValuesReport{w: Create(exe, kind, nil)}
}

// Add appends one entry, numbering it in sequence.
func (r *ShadowValuesReport) Add(addr uint64, t shadow.OrgType, v *shadow.Value, absErr, relErr string) {
	r.count++
	WriteShadowEntry(r.w, ShadowEntry{
		N: r.count, Addr: addr, Type: t, Value: v, AbsErr: absErr, RelErr: relErr,
	})
}

// IsSpecial reports whether v belongs in the "special" report instead
// of the relative-error or canceled reports: original is NaN or ±Inf
// (spec.md section 8's boundary behavior).
func IsSpecial(v *shadow.Value) bool {
	native := v.OrgAsFloat64()
	return native != native || native > maxFinite || native < -maxFinite
}

const maxFinite = 1.7976931348623157e+308 // math.MaxFloat64, spelled out to avoid importing math just for this

// Close flushes and closes the underlying writer and returns the total
// entry count written.
func (r *ShadowValuesReport) Close() int {
	WriteShadowTrailer(r.w, r.count)
	_ = r.w.Close()
	return r.count
}
