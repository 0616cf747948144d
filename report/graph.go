/*
   Report: DUMP_ERROR_GRAPH's VCG provenance-DAG writer -- spec.md
   section 4.G / section 6.

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
	"math"
)

// maxGraphDepth and maxGraphsPerRun bound DUMP_ERROR_GRAPH's walk and
// its total output (spec.md section 6: "bounded by a max depth of 10
// and max graphs of 10 per run").
const (
	maxGraphDepth   = 10
	maxGraphsPerRun = 10
)

// colorLo and colorHi bound the VCG color palette used to encode
// introduced-error magnitude on nodes.
const (
	colorLo = 50
	colorHi = 249
)

// ProvenanceSource answers the two questions DUMP_ERROR_GRAPH needs
// about a producing IP: which two IPs (if any) produced its arguments,
// and how much error it carries. Node labels come from the Describer,
// not from this interface. MeanValueTable's MaxArgIP1/MaxArgIP2 +
// MaxError satisfy this once wrapped.
type ProvenanceSource interface {
	// ArgOrigins returns the producing IPs of this IP's two operands,
	// or ok=false at a provenance leaf (an introduced value or a
	// Get/Load with no recorded parent).
	ArgOrigins(ip uint64) (arg1, arg2 uint64, ok bool)
	// ErrorMagnitude returns a representative (e.g. max observed)
	// relative error at ip, used only for node/edge coloring.
	ErrorMagnitude(ip uint64) float64
}

// GraphLimiter enforces the "max 10 graphs per run" cap across
// however many DUMP_ERROR_GRAPH requests a single run issues.
type GraphLimiter struct {
	emitted int
}

// Allow reports whether another graph may be emitted, and if so
// accounts for it.
func (g *GraphLimiter) Allow() bool {
	if g.emitted >= maxGraphsPerRun {
		return false
	}
	g.emitted++
	return true
}

// WriteErrorGraph walks backward from root through src, up to
// maxGraphDepth, emitting one VCG node per visited IP and one edge per
// parent-to-child provenance link. careVisited, when true, skips an IP
// already emitted in this graph instead of re-descending into it
// (breaks cycles from loop-carried values).
func WriteErrorGraph(w *Writer, exe string, root uint64, src ProvenanceSource, desc Describer, careVisited bool) {
	w.Printf("graph: {\n")
	w.Printf("  title: \"%s error graph for 0x%x\"\n", exe, root)
	w.Printf("  classname 1 : \"FpDebug\"\n")
	for n := 0; n <= colorHi-colorLo; n++ {
		r, g, b := palette(n)
		w.Printf("  colorentry %d : %d %d %d\n", colorLo+n, r, g, b)
	}

	visited := make(map[uint64]bool)
	walkGraph(w, root, src, desc, 0, visited, careVisited)

	w.Printf("}\n")
}

func walkGraph(w *Writer, ip uint64, src ProvenanceSource, desc Describer, depth int, visited map[uint64]bool, careVisited bool) {
	if depth > maxGraphDepth {
		return
	}
	if careVisited && visited[ip] {
		return
	}
	visited[ip] = true

	label := describeOrAddr(desc, ip)
	color := errorColor(src.ErrorMagnitude(ip))
	w.Printf("  node: { title: \"0x%x\" label: \"%s\" color: %d }\n", ip, label, color)

	arg1, arg2, ok := src.ArgOrigins(ip)
	if !ok {
		return
	}

	err1, err2 := src.ErrorMagnitude(arg1), src.ErrorMagnitude(arg2)
	if arg1 != 0 {
		w.Printf("  edge: { sourcename: \"0x%x\" targetname: \"0x%x\" label: \"arg1\" color: %d }\n",
			arg1, ip, edgeColor(err1, err2))
		walkGraph(w, arg1, src, desc, depth+1, visited, careVisited)
	}
	if arg2 != 0 {
		w.Printf("  edge: { sourcename: \"0x%x\" targetname: \"0x%x\" label: \"arg2\" color: %d }\n",
			arg2, ip, edgeColor(err2, err1))
		walkGraph(w, arg2, src, desc, depth+1, visited, careVisited)
	}
}

// errorColor maps a relative error onto the colorLo..colorHi palette
// on a log scale: zero error maps to colorLo, and error growing
// without bound saturates at colorHi.
func errorColor(relErr float64) int {
	if relErr <= 0 || math.IsNaN(relErr) {
		return colorLo
	}
	// log10(relErr) ranges roughly -16 (machine epsilon) .. 0 (100%
	// relative error); rescale that span onto the palette.
	scaled := (math.Log10(relErr) + 16) / 16
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 1 {
		scaled = 1
	}
	return colorLo + int(scaled*float64(colorHi-colorLo))
}

// edgeColor highlights the argument that carried the larger error
// (spec.md section 6: "edge color encodes which of a pair of arguments
// carried the larger error").
func edgeColor(mine, other float64) int {
	if mine >= other {
		return colorHi
	}
	return colorLo
}

// palette produces a simple blue (low error) -> red (high error) ramp
// across the colorLo..colorHi entries.
func palette(n int) (r, g, b int) {
	span := colorHi - colorLo
	if span <= 0 {
		return 0, 0, 255
	}
	frac := float64(n) / float64(span)
	r = int(255 * frac)
	b = int(255 * (1 - frac))
	g = 0
	return r, g, b
}
