/*
   Report: pso.log writer -- spec.md section 6 / section 4.F's
   precision-specific-operation detector.

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

import "sort"

// WritePSOLog appends one "file:line (function)" line per detected
// precision-specific-operation IP, resolved through desc (spec.md
// section 6: "pso.log: one line per detected PSO IP").
func WritePSOLog(w *Writer, ips []uint64, desc Describer) {
	sorted := make([]uint64, len(ips))
	copy(sorted, ips)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, ip := range sorted {
		w.Printf("%s\n", describeOrAddr(desc, ip))
	}
}
