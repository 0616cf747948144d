/*
   App: wires the shadow engine, its component F analyses, and the
   report writers behind the request.Handlers surface -- this is the
   glue a real embedding framework's client-request trampoline would
   call into.

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

package app

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"fpdebug/analysis"
	"fpdebug/report"
	"fpdebug/request"
	"fpdebug/shadow"
)

// App owns the engine and its analyses and answers every
// request.Handlers method plus console.Engine's StatsSummary, so
// cmd/fpdebug can wire one value to both the dispatcher and the
// console.
type App struct {
	mu sync.Mutex

	Exe string

	Engine    *shadow.Engine
	MeanTable *analysis.MeanValueTable
	Stages    *analysis.StageTracker
	PSO       *analysis.PSODetector

	graphs     report.GraphLimiter
	dispatcher *request.Dispatcher

	Log *slog.Logger
}

// New constructs an App with every analysis wired to eng through the
// shadow.AnalysisHook boundary.
func New(exe string, eng *shadow.Engine, mean *analysis.MeanValueTable, names request.NameTable, log *slog.Logger) *App {
	eng.Hook = mean
	a := &App{
		Exe:       exe,
		Engine:    eng,
		MeanTable: mean,
		Stages:    analysis.NewStageTracker(),
		PSO:       analysis.NewPSODetector(),
		Log:       log,
	}
	a.dispatcher = request.NewDispatcher(a, names, log)
	return a
}

// Dispatch satisfies console.Engine by delegating to the Dispatcher
// built over this App's own Handlers implementation.
func (a *App) Dispatch(pkt request.Packet) request.Result {
	return a.dispatcher.Dispatch(pkt)
}

// StatsSummary renders the engine's instrumentation counters for the
// console's "stats" command.
func (a *App) StatsSummary() string {
	s := a.Engine.Stats
	return fmt.Sprintf(
		"gets %d/%d puts %d/%d loads %d/%d stores %d/%d unsupported-ops %d",
		s.GetsIgnored, s.Gets, s.PutsIgnored, s.Puts,
		s.LoadsIgnored, s.Loads, s.StoresIgnored, s.Stores, len(s.UnsupportedOps))
}

// relativeErrorAt computes the current relative error between a
// memory shadow's high-precision value and its recorded native value,
// the same formula component F's mean-value tracker uses.
func relativeErrorAt(v *shadow.Value) float64 {
	if v == nil || !v.Active() {
		return 0
	}
	native := v.OrgAsFloat64()
	rel := v.High().RelativeError(native, v.High().Prec())
	f, _ := rel.Big().Float64()
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// PrintError implements request.Handlers: PRINT_ERROR / COND_PRINT_ERROR.
// conditional=true (COND_PRINT_ERROR) suppresses output for a
// zero-error entry, matching --ignore-accurate's intent for the
// conditional variant regardless of the global flag.
func (a *App) PrintError(name string, addr uint64, conditional bool) {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok || !v.Active() {
		return
	}
	relErr := relativeErrorAt(v)
	if conditional && relErr == 0 {
		return
	}
	if a.Engine.Opts.IgnoreAccurate && relErr == 0 && !conditional {
		return
	}

	kind := report.KindShadowValuesRelError
	if report.IsSpecial(v) {
		kind = report.KindShadowValuesSpecial
	} else if v.Canceled > 0 {
		kind = report.KindShadowValuesCanceled
	}

	rep := report.NewShadowValuesReport(a.Exe, kind)
	if rep == nil {
		return
	}
	relErrAP := v.High().RelativeError(v.OrgAsFloat64(), v.High().Prec())
	rep.Add(addr, v.OrgType, v, absErrorString(v), report.FormatShort(relErrAP.Big()))
	rep.Close()

	if name != "" && a.Log != nil {
		a.Log.Info("print error", "name", name, "addr", addr, "relative_error", relErr)
	}
}

// absErrorString renders |shadow - native| in the short FP text form,
// for the shadow_values_* reports' "absolute error" line.
func absErrorString(v *shadow.Value) string {
	var nativeAP shadow.APFloat
	nativeAP.SetFloat64(v.High().Prec(), v.OrgAsFloat64())
	var abs shadow.APFloat
	abs.Sub(v.High(), &nativeAP)
	abs.Abs(&abs)
	return report.FormatShort(abs.Big())
}

// DumpErrorGraph implements DUMP_ERROR_GRAPH, bounded by
// report.GraphLimiter's max-10-graphs-per-run cap.
func (a *App) DumpErrorGraph(file string, addr uint64, _ uint64, careVisited bool) {
	a.mu.Lock()
	allowed := a.graphs.Allow()
	a.mu.Unlock()
	if !allowed {
		if a.Log != nil {
			a.Log.Warn("dump error graph: per-run graph limit reached", "addr", addr)
		}
		return
	}

	exe := a.Exe
	if file != "" {
		exe = file
	}
	w := report.Create(exe, report.KindGraph, a.Log)
	if w == nil {
		return
	}
	defer w.Close()

	prov := report.NewMeanValueProvenance(a.MeanTable.Entries())
	report.WriteErrorGraph(w, exe, addr, prov, a.Engine.Locator, careVisited)
}

// BeginStage/EndStage/ClearStage implement the stage-tracking requests.
func (a *App) BeginStage(id uint64) { a.Stages.Begin(id) }

func (a *App) EndStage(id uint64) {
	reports := a.Stages.End(id)
	if len(reports) == 0 {
		return
	}
	w := report.Create(a.Exe, report.KindStageReports, a.Log)
	if w == nil {
		return
	}
	defer w.Close()
	report.WriteStageReports(w, reports, a.Engine.Locator)
}

func (a *App) ClearStage(id uint64) { a.Stages.Clear(id) }

// ErrorGreater implements ERROR_GREATER: addr's current relative error
// exceeds the bound encoded (as an IEEE double) in boundAddr.
func (a *App) ErrorGreater(addr, boundAddr uint64) bool {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok {
		return false
	}
	bound := math.Float64frombits(boundAddr)
	return relativeErrorAt(v) > bound
}

// Reset implements RESET.
func (a *App) Reset() { a.Engine.Reset() }

// InsertShadow implements INSERT_SHADOW: force-introduce a shadow for
// the memory record at addr from its currently recorded native value,
// even if one was already active.
func (a *App) InsertShadow(addr uint64) {
	v := a.Engine.Memory.Store(addr)
	a.Engine.Introduce(v, v.OrgType, v.OrgAsFloat64())
	v.SetActive(true)
}

// SetShadow implements SET_SHADOW: same as InsertShadow, the original
// source's two request ids differ only in call-site intent (explicit
// vs. lazy insertion), not in engine behavior.
func (a *App) SetShadow(addr uint64) { a.InsertShadow(addr) }

// OriginalToShadow implements ORIGINAL_TO_SHADOW: overwrite the shadow
// at addr with its native value, discarding accumulated error.
func (a *App) OriginalToShadow(addr uint64) {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok {
		return
	}
	a.Engine.Introduce(v, v.OrgType, v.OrgAsFloat64())
}

// ShadowToOriginal implements SHADOW_TO_ORIGINAL: overwrite the native
// value recorded at addr with the shadow's IEEE-width mirror, the
// round-trip partner of OriginalToShadow (spec.md section 8's
// ORIGINAL_TO_SHADOW;SHADOW_TO_ORIGINAL identity property).
func (a *App) ShadowToOriginal(addr uint64) {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok {
		return
	}
	if v.OrgType == shadow.Float {
		v.OrgFloat = v.Mid().Float32()
	} else {
		v.OrgDouble = v.Mid().Float64()
	}
}

// SetOriginal implements SET_ORIGINAL: copy src's shadow value into
// dst, reinterpreting it as dst's native value (no shadow update).
func (a *App) SetOriginal(addr, src uint64) {
	s, ok := a.Engine.Memory.Lookup(src)
	if !ok {
		return
	}
	v := a.Engine.Memory.Store(addr)
	if v.OrgType == shadow.Float {
		v.OrgFloat = s.Mid().Float32()
	} else {
		v.OrgDouble = s.Mid().Float64()
	}
}

// SetShadowBy implements SET_SHADOW_BY: dst's shadow becomes a copy of
// src's shadow, transitively (spec.md section 8's SET_SHADOW_BY
// transitivity property).
func (a *App) SetShadowBy(dst, src uint64) {
	s, ok := a.Engine.Memory.Lookup(src)
	if !ok {
		return
	}
	v := a.Engine.Memory.Store(dst)
	v.CopyFrom(s, a.Engine.Opts.SimOriginal)
	v.SetActive(true)
}

// GetRelativeError implements GET_RELATIVE_ERROR: no-op in this
// process-local form since outBuf would be a guest memory address the
// embedding framework must write through; logged instead.
func (a *App) GetRelativeError(addr, outBuf uint64) {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok {
		return
	}
	if a.Log != nil {
		a.Log.Info("get relative error", "addr", addr, "out_buf", outBuf, "value", relativeErrorAt(v))
	}
}

// GetShadow implements GET_SHADOW, the same write-through caveat as
// GetRelativeError.
func (a *App) GetShadow(addr, outBuf uint64) {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok || a.Log == nil {
		return
	}
	a.Log.Info("get shadow", "addr", addr, "out_buf", outBuf, "value", report.FormatShort(v.High().Big()))
}

// PrintValues implements PRINT_VALUES: log the three shadow mirrors of
// the memory record at addr.
func (a *App) PrintValues(name string, typeTag int, addr uint64) {
	v, ok := a.Engine.Memory.Lookup(addr)
	if !ok || !v.Active() {
		return
	}
	if a.Log != nil {
		a.Log.Info("print values", "name", name, "type", typeTag, "addr", addr,
			"value", report.FormatLong(v.High().Big()),
			"mid", report.FormatShort(v.Mid().Big()),
			"ori", report.FormatShort(v.Ori().Big()))
	}
}

// PSOBeginRun/PSOEndRun/PSOBeginInstance/IsPSOFinished implement the
// PSO-detector requests.
func (a *App) PSOBeginRun() { a.PSO.BeginRun() }

func (a *App) PSOEndRun() {
	a.PSO.EndRun()
	ips := a.PSO.Detected()
	if len(ips) == 0 {
		return
	}
	w := report.Create(a.Exe, report.KindPSOLog, a.Log)
	if w == nil {
		return
	}
	defer w.Close()
	report.WritePSOLog(w, ips, a.Engine.Locator)
}

func (a *App) PSOBeginInstance() { a.PSO.BeginInstance() }

func (a *App) IsPSOFinished() bool { return a.PSO.IsFinished() }

// SetAnalyzing implements BEGIN/END's global analyze-flag toggle.
func (a *App) SetAnalyzing(on bool) { a.Engine.Analyzing = on }

// IgnoreEnd reports --ignore-end, read through to the engine options
// the dispatcher needs to decide whether END takes effect.
func (a *App) IgnoreEnd() bool { return a.Engine.Opts.IgnoreEnd }
