/*
   Analysis: the precision-specific-operation (PSO) detector -- spec.md
   section 4.F.

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

package analysis

import "sync"

// Inflation thresholds and near-zero band bounds, spec.md section 4.F.
const (
	inflationThreshold = 1e6
	nearZeroOriginal   = 1e-9
	nearZeroShadow     = 1e-15

	// detectedPSO convergence thresholds, spec.md section 4.F.
	errFraction = 0.7
	ovFraction  = 0.1
)

// ipCounters is one IP's PSO bookkeeping across a run.
type ipCounters struct {
	totalCnt uint64
	errCnt   uint64
	ovCnt    uint64
}

// PSODetector implements the two-phase observe/fix state machine of
// spec.md section 4.F, driven by PSO_BEGIN_RUN/PSO_END_RUN/
// PSO_BEGIN_INSTANCE and IS_PSO_FINISHED (section 4.G).
type PSODetector struct {
	mu sync.Mutex

	byIP map[uint64]*ipCounters

	detected map[uint64]bool

	// instanceSeen tracks, within the current call-frame instance,
	// whether an inflating op has already been recorded -- only the
	// first inflating op per instance counts (spec.md: "upstream PSOs
	// shadow downstream ones").
	instanceSeen map[uint64]bool

	runActive      bool
	instanceActive bool
	finished       bool
}

// NewPSODetector returns a detector with no IPs observed yet.
func NewPSODetector() *PSODetector {
	return &PSODetector{
		byIP:         make(map[uint64]*ipCounters),
		detected:     make(map[uint64]bool),
		instanceSeen: make(map[uint64]bool),
	}
}

// BeginRun starts a fresh observation pass -- PSO_BEGIN_RUN.
func (p *PSODetector) BeginRun() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runActive = true
	p.finished = false
}

// BeginInstance starts a new call-frame instance, resetting the
// first-inflating-op-wins bookkeeping -- PSO_BEGIN_INSTANCE.
func (p *PSODetector) BeginInstance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instanceActive = true
	p.instanceSeen = make(map[uint64]bool)
}

// Observe runs steps 1-5 of spec.md section 4.F for one binary/ternary
// op: computes inflation from the argument and output relative errors,
// bumps totalCnt always, and bumps errCnt (and, in the near-zero band,
// ovCnt) at most once per instance.
func (p *PSODetector) Observe(ip uint64, argRelErr, outRelErr, origMagnitude, shadowMagnitude float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.runActive {
		return
	}

	c, ok := p.byIP[ip]
	if !ok {
		c = &ipCounters{}
		p.byIP[ip] = c
	}
	c.totalCnt++

	if len(p.instanceSeen) > 0 {
		return
	}

	inflation := inflationRatio(argRelErr, outRelErr)
	if inflation < inflationThreshold {
		return
	}

	p.instanceSeen[ip] = true
	c.errCnt++
	if abs(origMagnitude) < nearZeroOriginal && abs(shadowMagnitude) < nearZeroShadow {
		c.ovCnt++
	}
}

// inflationRatio computes orel / max(irel, 0), with the degenerate
// cases spec.md section 4.F implies but leaves informal: a zero
// argument error with nonzero output error is maximal inflation (any
// nonzero output from a supposedly-exact argument is fully explained
// by this op); zero output error is never inflation.
func inflationRatio(argRelErr, outRelErr float64) float64 {
	if outRelErr == 0 {
		return 0
	}
	if argRelErr <= 0 {
		return inflationThreshold
	}
	return outRelErr / argRelErr
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// EndRun closes the current run's observation pass and recomputes
// detectedPSO: any IP with errCnt > errFraction*totalCnt is added;
// IPs whose ovCnt > ovFraction*totalCnt are treated as false positives
// and removed (spec.md section 4.F).
func (p *PSODetector) EndRun() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runActive = false
	p.instanceActive = false

	for ip, c := range p.byIP {
		if c.totalCnt == 0 {
			continue
		}
		threshold := errFraction * float64(c.totalCnt)
		ovThreshold := ovFraction * float64(c.totalCnt)
		switch {
		case float64(c.ovCnt) > ovThreshold:
			delete(p.detected, ip)
		case float64(c.errCnt) > threshold:
			p.detected[ip] = true
		}
	}
	p.finished = true
}

// IsFinished answers IS_PSO_FINISHED: whether PSO collection has
// converged this run. A run with no IPs whose totalCnt is zero is
// required before convergence can be claimed (spec.md: "PSO detection
// never flags an IP whose totalCnt is zero" -- guaranteed structurally
// here since ipCounters are only created inside Observe).
func (p *PSODetector) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// IsPSO reports whether ip has been confirmed as a PSO across runs.
// The opcode handlers in package shadow do not consult it and perform
// no fix-mode substitution of the mid value at confirmed IPs.
func (p *PSODetector) IsPSO(ip uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detected[ip]
}

// Detected returns a snapshot of every confirmed PSO IP, for
// report/pso.go.
func (p *PSODetector) Detected() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint64, 0, len(p.detected))
	for ip := range p.detected {
		out = append(out, ip)
	}
	return out
}
