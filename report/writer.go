/*
   Report: the buffered report-file writer shared by every report kind.

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
	"bufio"
	"fmt"
	"log/slog"
	"os"
)

// Buffer sizing matches the original source's fwrite buffer discipline
// (spec.md's "resource policy" section and the original's 32KiB I/O
// buffer with a 10KiB cut-through threshold for large single writes).
const (
	bufferSize    = 32 * 1024
	cutThrough    = 10 * 1024
)

// Writer is one report file: a buffered writer that falls back to an
// unbuffered direct write for any single write at or above cutThrough,
// avoiding a double copy for the rare oversized record (a long VCG
// graph file section, for instance).
type Writer struct {
	file *os.File
	buf  *bufio.Writer
}

// Kind is one of the report file kinds of spec.md section 6.
type Kind string

const (
	KindShadowValuesRelError  Kind = "shadow_values_relative_error"
	KindShadowValuesCanceled  Kind = "shadow_values_canceled"
	KindShadowValuesSpecial   Kind = "shadow_values_special"
	KindMeanErrorsAddr        Kind = "mean_errors_addr"
	KindMeanErrorsCanceled    Kind = "mean_errors_canceled"
	KindMeanErrorsIntro       Kind = "mean_errors_intro"
	KindStageReports          Kind = "stage_reports"
	KindPSOLog                Kind = "pso.log"
	KindGraph                 Kind = "graph"
)

// NextName returns "<exe>_<kind>_<n>" for the smallest n >= 1 that does
// not already name an existing file, per spec.md section 6.
func NextName(exe string, kind Kind) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s_%s_%d", exe, kind, n)
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
	}
}

// Create opens a fresh report file under NextName(exe, kind). On
// failure it logs and returns a nil Writer -- spec.md section 7's
// "file creation failure" error path: "Log and skip that report; other
// analyses continue."
func Create(exe string, kind Kind, log *slog.Logger) *Writer {
	name := NextName(exe, kind)
	f, err := os.Create(name)
	if err != nil {
		if log != nil {
			log.Error("report: could not create file", "name", name, "error", err)
		}
		return nil
	}
	return &Writer{file: f, buf: bufio.NewWriterSize(f, bufferSize)}
}

// WriteString buffers s, flushing through directly to the file when s
// alone is at or above the cut-through threshold.
func (w *Writer) WriteString(s string) error {
	if w == nil {
		return nil
	}
	if len(s) >= cutThrough {
		if err := w.buf.Flush(); err != nil {
			return err
		}
		_, err := w.file.WriteString(s)
		return err
	}
	_, err := w.buf.WriteString(s)
	return err
}

// Printf is a convenience wrapper over WriteString.
func (w *Writer) Printf(format string, args ...any) error {
	return w.WriteString(fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying file. Safe to call on a nil
// Writer (the Create-failed case).
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
