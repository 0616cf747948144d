/*
   Shadow: external collaborator boundaries -- the IR-producing
   translator and the guest source-location resolver.

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

// Translator is the IR-producing framework this engine instruments.
// The engine never constructs IR itself; it only consumes a per-
// superblock statement summary from whatever translator front end the
// embedding tool provides.
type Translator interface {
	// Superblock returns the statement summary for the superblock
	// starting at guest address entry, used by the alias pre-pass.
	Superblock(entry uint64) []Stmt
}

// SourceLocator resolves a guest instruction pointer to the shared
// object (if any) that contains it, enforcing --ignore-libraries
// (spec.md section 6), and to a human-readable file:line:function
// string for report provenance.
type SourceLocator interface {
	// Module returns the basename of the shared object containing ip,
	// or "" if ip lies in the main executable.
	Module(ip uint64) string

	// Describe returns "file:line:function" for ip, or ip formatted as
	// hex if no debug info is available.
	Describe(ip uint64) string
}

// IgnoresLibraries reports whether ip should be skipped per
// --ignore-libraries: true when the locator resolves ip into a shared
// object (a non-empty Module), matching the original source's
// isInLibrary/ignoreFile gate.
func IgnoresLibraries(loc SourceLocator, ip uint64, enabled bool) bool {
	if !enabled || loc == nil {
		return false
	}
	return loc.Module(ip) != ""
}

// OpRecord is the per-operation summary component F's analyses consume,
// handed to the AnalysisHook after every arithmetic handler runs
// (spec.md section 4.F).
type OpRecord struct {
	IP           uint64
	ArgIP1, ArgIP2 uint64
	RelError     *APFloat
	Canceled     int32
	Badness      int32
	Native       float64
	Shadow       float64
}

// AnalysisHook lets component F (package analysis) observe every
// opcode handler's result without component E importing it back --
// analysis implements this interface over its own tables instead of
// shadow depending on analysis.
type AnalysisHook interface {
	RecordOp(rec OpRecord)
}

