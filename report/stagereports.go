/*
   Report: stage_reports writer -- spec.md section 6 / section 4.F.

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

// WriteStageReports appends one section per report to w, in the
// "(stage) 0xKEY (COUNT)" / "[iterMin, iterMax]" format of spec.md
// section 6, identifying the producing instruction for each unstable
// address.
func WriteStageReports(w *Writer, reports []*analysis.StageReport, desc Describer) {
	sorted := make([]*analysis.StageReport, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StageID != sorted[j].StageID {
			return sorted[i].StageID < sorted[j].StageID
		}
		return sorted[i].Addr < sorted[j].Addr
	})

	for _, r := range sorted {
		w.Printf("(stage 0x%x) 0x%x (%d)\n", r.StageID, r.Addr, r.Count)
		w.Printf("  iterations: [%d, %d]\n", r.IterMin, r.IterMax)
		w.Printf("  producing instruction: %s\n", describeOrAddr(desc, r.Origin))
	}
}
