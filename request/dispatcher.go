/*
   Request: the client-request dispatcher -- component G, spec.md
   section 4.G.

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

package request

import (
	"log/slog"
)

// ID is the closed enumeration of client-request ids the guest program
// may issue (spec.md section 4.G).
type ID uint32

const (
	PrintError ID = iota
	CondPrintError
	DumpErrorGraph
	BeginStage
	EndStage
	ClearStage
	ErrorGreater
	Reset
	InsertShadow
	SetShadow
	OriginalToShadow
	ShadowToOriginal
	SetOriginal
	SetShadowBy
	GetRelativeError
	GetShadow
	PrintValues
	PSOBeginRun
	PSOEndRun
	PSOBeginInstance
	IsPSOFinished
	Begin
	End
)

// Packet is one client request: a single-word id plus up to four
// word-sized arguments, delivered synchronously from guest to engine
// (spec.md section 4.G/6).
type Packet struct {
	Req  ID
	Arg1 uint64
	Arg2 uint64
	Arg3 uint64
	Arg4 uint64
}

// Result is the one-word result the guest reads back after a request
// completes; Handled is false for a request id the dispatcher did not
// recognize (a statically impossible case given the closed ID
// enumeration, but checked defensively since packets can arrive from
// outside this process's type system).
type Result struct {
	Value   uint64
	Handled bool
}

// Handlers is the narrow surface the dispatcher needs from the engine
// to carry out each request; request/dispatcher.go stays free of a
// direct shadow.Engine import so the two packages can evolve
// independently, matching the staging/collaborator boundary component
// E already uses.
type Handlers interface {
	PrintError(name string, addr uint64, conditional bool)
	DumpErrorGraph(file string, addr uint64, cond uint64, careVisited bool)
	BeginStage(id uint64)
	EndStage(id uint64)
	ClearStage(id uint64)
	ErrorGreater(addr, boundAddr uint64) bool
	Reset()
	InsertShadow(addr uint64)
	SetShadow(addr uint64)
	OriginalToShadow(addr uint64)
	ShadowToOriginal(addr uint64)
	SetOriginal(addr, src uint64)
	SetShadowBy(dst, src uint64)
	GetRelativeError(addr, outBuf uint64)
	GetShadow(addr, outBuf uint64)
	PrintValues(name string, typeTag int, addr uint64)
	PSOBeginRun()
	PSOEndRun()
	PSOBeginInstance()
	IsPSOFinished() bool
	SetAnalyzing(on bool)
	IgnoreEnd() bool
}

// NameTable resolves the Arg1 word of a name-bearing request (PrintError
// variants, PrintValues) back to a string; the instrumented guest
// passes a guest-address pointer to a C string, which only the
// embedding framework can dereference.
type NameTable interface {
	String(addr uint64) string
}

// Dispatcher is component G: a synchronous, non-reentrant (spec.md
// section 5: "instrumentation callbacks are not re-entrant") switch
// over the closed request-id enumeration, grounded on the teacher's
// processPacket shape (one tagged value in, a single switch, handlers
// run to completion before control returns to the guest).
type Dispatcher struct {
	h     Handlers
	names NameTable
	log   *slog.Logger
}

// NewDispatcher wires a Dispatcher to the engine-facing Handlers
// surface and the guest string resolver.
func NewDispatcher(h Handlers, names NameTable, log *slog.Logger) *Dispatcher {
	return &Dispatcher{h: h, names: names, log: log}
}

// Dispatch executes pkt to completion and returns its one-word result.
func (d *Dispatcher) Dispatch(pkt Packet) Result {
	switch pkt.Req {
	case PrintError:
		d.h.PrintError(d.name(pkt.Arg1), pkt.Arg2, false)
		return Result{Handled: true}

	case CondPrintError:
		d.h.PrintError(d.name(pkt.Arg1), pkt.Arg2, true)
		return Result{Handled: true}

	case DumpErrorGraph:
		d.h.DumpErrorGraph(d.name(pkt.Arg1), pkt.Arg2, pkt.Arg3, pkt.Arg4 != 0)
		return Result{Handled: true}

	case BeginStage:
		d.h.BeginStage(pkt.Arg1)
		return Result{Handled: true}

	case EndStage:
		d.h.EndStage(pkt.Arg1)
		return Result{Handled: true}

	case ClearStage:
		d.h.ClearStage(pkt.Arg1)
		return Result{Handled: true}

	case ErrorGreater:
		var v uint64
		if d.h.ErrorGreater(pkt.Arg1, pkt.Arg2) {
			v = 1
		}
		return Result{Value: v, Handled: true}

	case Reset:
		d.h.Reset()
		return Result{Handled: true}

	case InsertShadow:
		d.h.InsertShadow(pkt.Arg1)
		return Result{Handled: true}

	case SetShadow:
		d.h.SetShadow(pkt.Arg1)
		return Result{Handled: true}

	case OriginalToShadow:
		d.h.OriginalToShadow(pkt.Arg1)
		return Result{Handled: true}

	case ShadowToOriginal:
		d.h.ShadowToOriginal(pkt.Arg1)
		return Result{Handled: true}

	case SetOriginal:
		d.h.SetOriginal(pkt.Arg1, pkt.Arg2)
		return Result{Handled: true}

	case SetShadowBy:
		d.h.SetShadowBy(pkt.Arg1, pkt.Arg2)
		return Result{Handled: true}

	case GetRelativeError:
		d.h.GetRelativeError(pkt.Arg1, pkt.Arg2)
		return Result{Handled: true}

	case GetShadow:
		d.h.GetShadow(pkt.Arg1, pkt.Arg2)
		return Result{Handled: true}

	case PrintValues:
		d.h.PrintValues(d.name(pkt.Arg1), int(pkt.Arg2), pkt.Arg3)
		return Result{Handled: true}

	case PSOBeginRun:
		d.h.PSOBeginRun()
		return Result{Handled: true}

	case PSOEndRun:
		d.h.PSOEndRun()
		return Result{Handled: true}

	case PSOBeginInstance:
		d.h.PSOBeginInstance()
		return Result{Handled: true}

	case IsPSOFinished:
		var v uint64
		if d.h.IsPSOFinished() {
			v = 1
		}
		return Result{Value: v, Handled: true}

	case Begin:
		d.h.SetAnalyzing(true)
		return Result{Handled: true}

	case End:
		if !d.h.IgnoreEnd() {
			d.h.SetAnalyzing(false)
		}
		return Result{Handled: true}

	default:
		if d.log != nil {
			d.log.Warn("unrecognized client request", "id", pkt.Req)
		}
		return Result{Handled: false}
	}
}

func (d *Dispatcher) name(addr uint64) string {
	if d.names == nil {
		return ""
	}
	return d.names.String(addr)
}
