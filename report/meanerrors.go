/*
   Report: mean_errors_{addr,canceled,intro} writers -- spec.md section
   6 and section 4.F.

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
	"sort"

	"fpdebug/analysis"
)

// Describer resolves a guest instruction address to a human readable
// "file:line (function)" string, same contract as request.NameTable
// but scoped to this package to avoid an import on request.
type Describer interface {
	Describe(ip uint64) string
}

// WriteMeanErrorAddr writes the mean_errors_addr report: one block per
// tracked IP giving average/max relative error: a "DESCR (COUNT)"
// header (no operation name is printed) followed by indented avg/max
// error lines.
func WriteMeanErrorAddr(w *Writer, entries []*analysis.MeanValueEntry, desc Describer, prec uint) {
	for _, e := range sortedByIP(entries) {
		w.Printf("%s (%d)\n", describeOrAddr(desc, e.IP), e.Count)
		w.Printf("  avg error: %s\n", FormatShort(e.AvgError(prec)))
		w.Printf("  max error: %s\n", FormatShort(e.MaxError()))
		if e.MaxArgIP1 != 0 || e.MaxArgIP2 != 0 {
			w.Printf("  argument origins of max error: 0x%x, 0x%x\n", e.MaxArgIP1, e.MaxArgIP2)
		}
	}
}

// WriteMeanErrorCanceled writes the mean_errors_canceled report: max
// and average canceled bits, plus cancellation badness expressed as a
// percentage of count*max (spec.md section 6).
func WriteMeanErrorCanceled(w *Writer, entries []*analysis.MeanValueEntry) {
	for _, e := range sortedByIP(entries) {
		w.Printf("0x%x (%d)\n", e.IP, e.Count)
		w.Printf("  canceled bits max: %d\n", e.CanceledMax)
		if e.Count > 0 {
			avg := float64(e.CanceledSum) / float64(e.Count)
			w.Printf("  canceled bits avg: %.3f\n", avg)
		}
		if e.CanceledOverflow {
			w.Printf("  canceled bit sum overflowed int64\n")
		}
		if e.Count > 0 && e.CanceledMax > 0 {
			denom := float64(e.Count) * float64(e.CanceledMax)
			pct := 100 * float64(e.BadnessSum) / denom
			w.Printf("  cancellation badness: %.2f%% of count*max\n", pct)
		}
	}
}

// WriteMeanErrorIntro writes the mean_errors_intro report: whether an
// IP ever introduced error, per spec.md section 6 ("introduced error
// or 'no error has been introduced'").
func WriteMeanErrorIntro(w *Writer, entries []*analysis.MeanValueEntry) {
	for _, e := range sortedByIP(entries) {
		w.Printf("0x%x (%d)\n", e.IP, e.Count)
		if e.IntroducedError {
			w.Printf("  error has been introduced\n")
		} else {
			w.Printf("  no error has been introduced\n")
		}
	}
}

func describeOrAddr(desc Describer, ip uint64) string {
	if desc != nil {
		if s := desc.Describe(ip); s != "" {
			return s
		}
	}
	return hexAddr(ip)
}

func hexAddr(ip uint64) string {
	return "0x" + uintToHex(ip)
}

func uintToHex(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

func sortedByIP(entries []*analysis.MeanValueEntry) []*analysis.MeanValueEntry {
	out := make([]*analysis.MeanValueEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].IP < out[j].IP })
	return out
}

// MeanValueProvenance adapts a MeanValueTable snapshot into the
// ProvenanceSource graph.go needs: each IP's max-error argument origins
// double as its provenance DAG parents.
type MeanValueProvenance struct {
	byIP map[uint64]*analysis.MeanValueEntry
}

// NewMeanValueProvenance indexes entries by IP for graph traversal.
func NewMeanValueProvenance(entries []*analysis.MeanValueEntry) *MeanValueProvenance {
	byIP := make(map[uint64]*analysis.MeanValueEntry, len(entries))
	for _, e := range entries {
		byIP[e.IP] = e
	}
	return &MeanValueProvenance{byIP: byIP}
}

// ArgOrigins implements ProvenanceSource.
func (p *MeanValueProvenance) ArgOrigins(ip uint64) (arg1, arg2 uint64, ok bool) {
	e, found := p.byIP[ip]
	if !found {
		return 0, 0, false
	}
	return e.MaxArgIP1, e.MaxArgIP2, e.MaxArgIP1 != 0 || e.MaxArgIP2 != 0
}

// ErrorMagnitude implements ProvenanceSource.
func (p *MeanValueProvenance) ErrorMagnitude(ip uint64) float64 {
	e, found := p.byIP[ip]
	if !found {
		return 0
	}
	f, _ := e.MaxError().Float64()
	return f
}
