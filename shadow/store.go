/*
   Shadow: the B stores -- temp array, per-thread register file, global
   memory map.

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

// MaxRegOffset bounds the per-thread register file, following
// emu/sys_channel's dense-array-indexed-by-small-bounded-key pattern.
// Must be at least the largest guest-register byte offset the
// translator ever emits (spec.md section 4.B).
const MaxRegOffset = 4096

// TempCount sizes the fixed temp array. Superblocks rarely use more
// than a few hundred IR temporaries; this is generous headroom.
const TempCount = 2048

// TempStore is the fixed-size, version-stamped temp array of spec.md
// section 4.B: "getTemp(i) returns the record iff version == sbExecuted
// && active". Records are never freed within a run; staleness across
// superblocks is detected purely by the version mismatch, giving O(1)
// invalidation of every temp at once.
type TempStore struct {
	slots   [TempCount]Value
	current uint64 // sbExecuted, bumped once per superblock entry
}

// NewTempStore returns a TempStore with every slot reserved-but-inactive.
func NewTempStore() *TempStore {
	s := &TempStore{}
	for i := range s.slots {
		s.slots[i].Init(Key(i))
	}
	return s
}

// BeginSuperblock increments the liveness epoch (spec.md section 4.E.9:
// "at the top of each instrumented superblock, increment sbExecuted").
func (s *TempStore) BeginSuperblock() {
	s.current++
}

// Get returns the temp record for i iff it is live (version matches the
// current superblock and active), per spec.md's getTemp.
func (s *TempStore) Get(i int) (*Value, bool) {
	v := &s.slots[i]
	if v.Version() != s.current || !v.Active() {
		return nil, false
	}
	return v, true
}

// Set ensures a record exists for i, marks it current and active, and
// returns it for the caller to populate -- spec.md's setTemp.
func (s *TempStore) Set(i int) *Value {
	v := &s.slots[i]
	v.SetActive(true)
	v.SetVersion(s.current)
	return v
}

// RegisterFile is the per-thread dense register-shadow array of spec.md
// section 4.B, keyed by guest-register byte offset. Grounded on
// emu/memory's fixed backing array plus access-bit discipline: instead
// of access bits this tracks the same active/version Value contract as
// the temp store, but register records have no version epoch -- they
// live until an overwriting non-shadowed Put invalidates them (spec.md
// section 3 Lifecycle).
type RegisterFile struct {
	slots [MaxRegOffset]Value
}

// NewRegisterFile returns a RegisterFile with every offset
// reserved-but-inactive.
func NewRegisterFile() *RegisterFile {
	r := &RegisterFile{}
	for i := range r.slots {
		r.slots[i].Init(Key(i))
	}
	return r
}

// Get returns the register record at offset iff active.
func (r *RegisterFile) Get(offset int) (*Value, bool) {
	v := &r.slots[offset]
	if !v.Active() {
		return nil, false
	}
	return v, true
}

// Set marks the record at offset active and returns it for the caller
// to populate -- used on a shadowed Put.
func (r *RegisterFile) Set(offset int) *Value {
	v := &r.slots[offset]
	v.SetActive(true)
	return v
}

// Invalidate marks the record at offset dead without discarding its AP
// storage, for a non-shadowed Put that overwrites a previously shadowed
// register (spec.md section 3 Lifecycle).
func (r *RegisterFile) Invalidate(offset int) {
	r.slots[offset].SetActive(false)
}

// ThreadRegisters is the "keyed by (threadId, byteOffset)" register
// lookup of spec.md section 4.B, lazily creating one RegisterFile per
// guest thread id. The engine's single-thread-at-a-time contract
// (spec.md section 5: "exactly one guest thread runs" at any instant)
// means no locking is needed here even though multiple ids may appear
// across the life of a run.
type ThreadRegisters struct {
	byThread map[uint32]*RegisterFile
}

// NewThreadRegisters returns an empty per-thread register table.
func NewThreadRegisters() *ThreadRegisters {
	return &ThreadRegisters{byThread: make(map[uint32]*RegisterFile)}
}

// Of returns (creating if necessary) the register file for threadID.
func (t *ThreadRegisters) Of(threadID uint32) *RegisterFile {
	rf, ok := t.byThread[threadID]
	if !ok {
		rf = NewRegisterFile()
		t.byThread[threadID] = rf
	}
	return rf
}

// MemoryMap is the global guest-memory shadow of spec.md section 4.B:
// a hash table keyed by guest address, entries created lazily on first
// FP store, retained (deactivated, not freed) across a later non-FP
// store or RESET. A plain Go map is the grounded choice here -- see
// DESIGN.md for why the corpus's eviction caches (fastcache) and
// merkleized tries (go-ethereum state journal) have the wrong retention
// contract for this table.
type MemoryMap struct {
	nodes map[uint64]*Value
}

// NewMemoryMap returns an empty memory shadow table.
func NewMemoryMap() *MemoryMap {
	return &MemoryMap{nodes: make(map[uint64]*Value)}
}

// Lookup returns the record at addr iff it exists and is active --
// spec.md's HT_lookup, used on a shadow-tracked Load.
func (m *MemoryMap) Lookup(addr uint64) (*Value, bool) {
	v, ok := m.nodes[addr]
	if !ok || !v.Active() {
		return nil, false
	}
	return v, true
}

// Store returns the record at addr for a shadow-tracked Store, creating
// it (HT_add_node) on first use and reactivating it on reuse.
func (m *MemoryMap) Store(addr uint64) *Value {
	v, ok := m.nodes[addr]
	if !ok {
		v = &Value{}
		v.Init(Key(addr))
		m.nodes[addr] = v
	}
	v.SetActive(true)
	return v
}

// InvalidateNonFP flips an existing node at addr inactive for a non-FP
// store with no live temp shadow, retaining its AP storage for reuse --
// spec.md section 4.B's "a non-FP store ... flips active=false on the
// existing node (if any) but retains the AP storage". A no-op if no
// node exists at addr yet.
func (m *MemoryMap) InvalidateNonFP(addr uint64) {
	if v, ok := m.nodes[addr]; ok {
		v.SetActive(false)
	}
}

// Reset marks every node inactive without freeing AP storage, for the
// RESET client request (spec.md section 6's request table).
func (m *MemoryMap) Reset() {
	for _, v := range m.nodes {
		v.SetActive(false)
	}
}
