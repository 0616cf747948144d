/*
   Shadow: the ShadowValue record and its lifecycle.

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

// OrgType records the original IEEE width a ShadowValue mirrors.
type OrgType uint8

const (
	Invalid OrgType = iota
	Float           // 32 bit native value
	Double          // 64 bit native value
)

// Key identifies the slot a Value shadows: a temp index, a register
// offset, or a guest memory address, depending on which store holds it.
type Key uint64

// Value is the ShadowValue record of spec.md section 3: a triple
// precision shadow plus provenance metadata. AP storage is long lived
// and reused in place; Init/Free only toggle precision and activity,
// never reallocate the underlying *big.Float.
type Value struct {
	key     Key
	active  bool
	version uint64 // current iff version == owning store's epoch

	value APFloat // high precision shadow, user configurable (default 120 bit)
	mid   APFloat // IEEE width mirror of value (24 or 53 bit)
	ori   APFloat // emulated IEEE shadow, double exponent range, subnormalized

	OpCount      uint64  // max-path count of FP operations producing this value
	Origin       uint64  // guest instruction address that produced Value
	Canceled     int32   // max canceled-bit count along any producing path
	CancelOrigin uint64  // guest instruction address of that max cancellation
	OrgType      OrgType // original IEEE width tag
	OrgFloat     float32 // original native value, valid iff OrgType == Float
	OrgDouble    float64 // original native value, valid iff OrgType == Double
}

// Init resets v to a reserved-but-empty record for key. AP storage is
// kept (if any was already allocated); precision is reset on next use.
func (v *Value) Init(key Key) {
	v.key = key
	v.active = false
	v.version = 0
	v.OpCount = 0
	v.Origin = 0
	v.Canceled = 0
	v.CancelOrigin = 0
	v.OrgType = Invalid
	v.OrgFloat = 0
	v.OrgDouble = 0
}

// Free marks v as logically dead. The AP storage is retained for reuse,
// per spec.md section 5's "reuse in place rather than free and realloc"
// resource policy.
func (v *Value) Free() {
	v.active = false
}

// Key returns the slot identity this record belongs to.
func (v *Value) Key() Key { return v.key }

// Active reports whether consumers may read Value/Mid/Ori.
func (v *Value) Active() bool { return v.active }

// SetActive marks the record live or dead without touching its AP
// storage or provenance. Used by stores that deactivate in place
// (spec.md section 4.B: "retains the AP storage").
func (v *Value) SetActive(active bool) { v.active = active }

// Version returns the store generation this record was last written at.
func (v *Value) Version() uint64 { return v.version }

// SetVersion stamps v as current for the given epoch.
func (v *Value) SetVersion(version uint64) { v.version = version }

// High returns the high precision shadow field.
func (v *Value) High() *APFloat { return &v.value }

// Mid returns the IEEE-width mirror.
func (v *Value) Mid() *APFloat { return &v.mid }

// Ori returns the emulated-IEEE, double-exponent-range mirror.
func (v *Value) Ori() *APFloat { return &v.ori }

// NativeWidth returns 24 for Float, 53 for Double, 0 for Invalid.
func (t OrgType) NativeWidth() uint {
	switch t {
	case Float:
		return midPrecFloat
	case Double:
		return midPrecDouble
	default:
		return 0
	}
}

// CopyFrom copies every field of src into v except active and version,
// which the caller sets explicitly (spec.md section 4.A). This is the
// only path by which provenance metadata propagates through
// non-arithmetic movement (load/store/get/put/mux); arithmetic handlers
// overwrite provenance explicitly instead of calling CopyFrom.
//
// simulateOriginal, when true, first resets the precision of the three
// AP fields to match src's precisions (clo_simulateOriginal in the
// original source) before copying values in.
func (v *Value) CopyFrom(src *Value, simulateOriginal bool) {
	if simulateOriginal {
		v.value.SetPrec(src.value.Prec())
		v.mid.SetPrec(src.mid.Prec())
		v.ori.SetPrec(src.ori.Prec())
	}
	v.value.Set(&src.value)
	v.mid.Set(&src.mid)
	v.ori.Set(&src.ori)

	v.OpCount = src.OpCount
	v.Origin = src.Origin
	v.Canceled = src.Canceled
	v.CancelOrigin = src.CancelOrigin
	v.OrgType = src.OrgType
	v.OrgFloat = src.OrgFloat
	v.OrgDouble = src.OrgDouble
}

// OrgAsFloat64 returns the original native value widened to float64,
// for use by analyses that compare against the shadow regardless of
// the original's native width.
func (v *Value) OrgAsFloat64() float64 {
	switch v.OrgType {
	case Float:
		return float64(v.OrgFloat)
	case Double:
		return v.OrgDouble
	default:
		return 0
	}
}
