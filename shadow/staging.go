/*
   Shadow: IR staging buffers bridging the instrumented code and the
   shadow callbacks (component C).

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

// NativeType tags a staged constant or temp value the way the
// instrumented code records it, per spec.md section 4.C.
type NativeType uint8

const (
	NativeInvalid NativeType = iota
	NativeF32
	NativeF64
	NativeV128
	NativeIcoF64
	NativeIcoV128
)

// TmpCount and ConstCount bound the per-statement staged-operand
// tables (spec.md section 4.C: "a parallel structure holds up to
// TMP_COUNT staged temp values and CONST_COUNT staged IR constants").
const (
	TmpCount   = 8
	ConstCount = 4
)

// StagedOperand is one entry of the parallel temp/const staging table:
// a native value plus the type tag the instrumented code recorded it
// under.
type StagedOperand struct {
	Type    NativeType
	F32     float32
	F64     float64
	V128Lo  uint64
	V128Hi  uint64
}

// OperandTable is process scope, refilled once per statement before the
// shadow callback runs.
type OperandTable struct {
	Tmps   [TmpCount]StagedOperand
	Consts [ConstCount]StagedOperand
}

// Reset clears every slot to NativeInvalid; called once per statement
// so stale entries from a prior op are never misread.
func (t *OperandTable) Reset() {
	for i := range t.Tmps {
		t.Tmps[i] = StagedOperand{}
	}
	for i := range t.Consts {
		t.Consts[i] = StagedOperand{}
	}
}

// UnaryStage is the fixed staging struct for UnOp: opcode tag,
// destination temp, one source operand, and the native result read
// back from the IR temp that holds it (spec.md section 4.C).
type UnaryStage struct {
	Op        uint16
	Dest      int
	Src       int
	NativeF32 float32
	NativeF64 float64
}

// BinaryStage is shared by BinOp, Cmp, and Cvt (spec.md section 4.C:
// "binary (also used by comparisons and conversions)").
type BinaryStage struct {
	Op        uint16
	Dest      int
	Src1      int
	Src2      int
	NativeF32 float32
	NativeF64 float64
}

// TernaryStage is the fixed staging struct for TriOp (rounding-mode
// operand plus two source operands).
type TernaryStage struct {
	Op        uint16
	Dest      int
	RoundMode int
	Src1      int
	Src2      int
	NativeF32 float32
	NativeF64 float64
}

// MuxStage stages a Mux0X/MuxX0 conditional select: the condition's
// native value plus both candidate temps.
type MuxStage struct {
	Dest  int
	Cond  uint64
	Src0  int
	SrcX  int
}

// MemStage is the fixed staging struct for Load/Store/Get/Put/GetI/PutI:
// the effective guest address or register offset, the IR temp carrying
// the value, and (for PutI/GetI) the circular-array parameters of
// spec.md section 4.E.8.
type MemStage struct {
	Dest     int
	Addr     uint64
	Offset   int
	Base     int
	NElems   int
	Bias     int
	Ix       int
	OrgType  OrgType
}
