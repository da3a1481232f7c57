// Copyright 2026 The rvkernel Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pagetables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/sentry/pgalloc"
)

// leafSet is a LeafOwner that keeps adopted frames in a map.
type leafSet map[hostarch.VirtPageNum]*pgalloc.Frame

func (s leafSet) Adopt(vpn hostarch.VirtPageNum, f *pgalloc.Frame) {
	s[vpn] = f
}

func (s leafSet) Disown(vpn hostarch.VirtPageNum) {
	s[vpn].Release()
	delete(s, vpn)
}

func (s leafSet) release() {
	for vpn := range s {
		s.Disown(vpn)
	}
}

func newAllocator(t *testing.T, frames uint64) *pgalloc.FrameAllocator {
	t.Helper()
	mf, err := pgalloc.NewMemoryFile(frames)
	if err != nil {
		t.Fatalf("NewMemoryFile: %v", err)
	}
	t.Cleanup(func() { mf.Close() })
	return pgalloc.NewFrameAllocator(mf)
}

type mapping struct {
	vpn   hostarch.VirtPageNum
	ppn   hostarch.PhysPageNum
	flags PTEFlags
}

func checkMappings(t *testing.T, pt *PageTable, want []mapping) {
	t.Helper()
	var got []mapping
	pt.Visit(func(vpn hostarch.VirtPageNum, pte PTE) bool {
		got = append(got, mapping{vpn: vpn, ppn: pte.PPN(), flags: pte.Flags()})
		return true
	})
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(mapping{})); diff != "" {
		t.Errorf("mappings mismatch (-want +got):\n%s", diff)
	}
}

func TestPTEEncoding(t *testing.T) {
	pte := NewPTE(0x80123, Valid|Readable|Writable|User)
	if got, want := uint64(pte), uint64(0x80123<<10|0x17); got != want {
		t.Errorf("NewPTE = %#x, want %#x", got, want)
	}
	if pte.PPN() != 0x80123 {
		t.Errorf("PPN() = %v, want PPN:0x80123", pte.PPN())
	}
	if !pte.Valid() || !pte.Readable() || !pte.Writable() || pte.Executable() || !pte.User() {
		t.Errorf("flag accessors disagree with %v", pte.Flags())
	}
	if pte.IsDirectory() {
		t.Errorf("leaf %v reported as directory", pte)
	}
	if !NewPTE(0x80000, Valid).IsDirectory() {
		t.Errorf("Valid-only entry not reported as directory")
	}
	if got, want := pte.Flags().String(), "---U-WRV"; got != want {
		t.Errorf("Flags().String() = %q, want %q", got, want)
	}
}

func TestFlagsFor(t *testing.T) {
	if got, want := FlagsFor(hostarch.AccessTypeFromPort(3), true), Readable|Writable|User; got != want {
		t.Errorf("FlagsFor(rw-, user) = %v, want %v", got, want)
	}
	if got := (Readable | Executable).AccessType(); got != (hostarch.AccessType{Read: true, Execute: true}) {
		t.Errorf("AccessType() = %v, want r-x", got)
	}
}

func TestMapTranslateRoundTrip(t *testing.T) {
	a := newAllocator(t, 16)
	pt := New(a)
	defer pt.Release()

	for _, m := range []mapping{
		{0x0, 0x80010, Readable | User},
		{0x1ff, 0x80011, Readable | Writable},
		{0x40000, 0x80012, Executable},
		{1<<hostarch.VPNWidth - 1, 0x80013, Readable | Writable | User},
	} {
		pt.Map(m.vpn, m.ppn, m.flags)
		pte, ok := pt.Translate(m.vpn)
		if !ok {
			t.Fatalf("Translate(%v) after Map: not mapped", m.vpn)
		}
		if pte.PPN() != m.ppn || pte.Flags() != m.flags|Valid {
			t.Errorf("Translate(%v) = %v, want ppn %v flags %v", m.vpn, pte, m.ppn, m.flags|Valid)
		}
		pt.Unmap(m.vpn)
		if _, ok := pt.Translate(m.vpn); ok {
			t.Errorf("Translate(%v) after Unmap: still mapped", m.vpn)
		}
	}
}

func TestTranslateVA(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()

	pt.Map(0x10, 0x80005, Readable)
	got, ok := pt.TranslateVA(0x10123)
	if !ok || got != 0x80005123 {
		t.Errorf("TranslateVA(0x10123) = %v, %v; want 0x80005123, true", got, ok)
	}
	if _, ok := pt.TranslateVA(0x11000); ok {
		t.Errorf("TranslateVA of unmapped page succeeded")
	}
}

func TestMapTwicePanics(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()
	pt.Map(3, 0x80004, Readable)
	defer func() {
		if recover() == nil {
			t.Errorf("second Map did not panic")
		}
	}()
	pt.Map(3, 0x80005, Readable)
}

func TestUnmapInvalidPanics(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()
	defer func() {
		if recover() == nil {
			t.Errorf("Unmap of unmapped page did not panic")
		}
	}()
	pt.Unmap(3)
}

func TestTokenRoundTrip(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()

	token := pt.Token()
	if token>>60 != 8 {
		t.Errorf("Token() mode = %d, want 8", token>>60)
	}
	if got := hostarch.PhysPageNum(token & (1<<44 - 1)); got != pt.Root() {
		t.Errorf("Token() root = %v, want %v", got, pt.Root())
	}

	pt.Map(7, 0x80006, Readable|User)
	view := FromToken(a, token)
	if pte, ok := view.Translate(7); !ok || pte.PPN() != 0x80006 {
		t.Errorf("borrowed Translate(7) = %v, %v", pte, ok)
	}
	if view.DirectoryFrames() != 0 {
		t.Errorf("borrowed view owns %d frames", view.DirectoryFrames())
	}
	before := a.Outstanding()
	view.Release()
	if a.Outstanding() != before {
		t.Errorf("releasing a borrowed view freed frames")
	}
}

func TestDirectoryFramesReturnToBaseline(t *testing.T) {
	a := newAllocator(t, 32)
	baseline := a.Outstanding()

	pt := New(a)
	// 0x1 shares every directory with 0x0; 0x40200 shares its level 1
	// table with 0x40000.
	pt.Map(0x0, 0x80100, Readable)
	pt.Map(0x1, 0x80101, Readable)
	pt.Map(0x40000, 0x80102, Readable)
	pt.Map(0x40200, 0x80103, Readable)
	if got, want := pt.DirectoryFrames(), 6; got != want {
		t.Errorf("DirectoryFrames() = %d, want %d", got, want)
	}
	if got, want := a.Outstanding()-baseline, uint64(6); got != want {
		t.Errorf("allocator outstanding delta = %d, want %d", got, want)
	}
	pt.Release()
	if got := a.Outstanding(); got != baseline {
		t.Errorf("Outstanding() after Release = %d, want baseline %d", got, baseline)
	}
}

func TestMMapMUnmapInverse(t *testing.T) {
	a := newAllocator(t, 32)
	pt := New(a)
	owner := leafSet{}
	defer pt.Release()

	const start, length = hostarch.VirtAddr(0x10000000), uint64(3 * hostarch.PageSize)
	if err := pt.MMap(start, length, Readable|Writable|User, owner); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	if len(owner) != 3 {
		t.Errorf("owner adopted %d frames, want 3", len(owner))
	}
	var want []mapping
	for vpn := range hostarch.PageRangeOf(start, length).All() {
		want = append(want, mapping{vpn, owner[vpn].PPN, Valid | Readable | Writable | User})
	}
	checkMappings(t, pt, want)
	if !pt.AllMapped(start, length) {
		t.Errorf("AllMapped after MMap = false")
	}

	if err := pt.MUnmap(start, length, owner); err != nil {
		t.Fatalf("MUnmap: %v", err)
	}
	checkMappings(t, pt, nil)
	if pt.AnyMapped(start, length) {
		t.Errorf("AnyMapped after MUnmap = true")
	}
	if len(owner) != 0 {
		t.Errorf("owner still holds %d frames", len(owner))
	}
}

func TestMMapOverlap(t *testing.T) {
	a := newAllocator(t, 32)
	pt := New(a)
	owner := leafSet{}
	defer pt.Release()
	defer owner.release()

	const start, length = hostarch.VirtAddr(0x4000), uint64(2 * hostarch.PageSize)
	if err := pt.MMap(start, length, Readable|User, owner); err != nil {
		t.Fatalf("first MMap: %v", err)
	}
	first := map[hostarch.VirtPageNum]hostarch.PhysPageNum{}
	for vpn, f := range owner {
		first[vpn] = f.PPN
	}
	outstanding := a.Outstanding()

	err := pt.MMap(start, length, Readable|Writable|User, owner)
	if !linuxerr.Equals(linuxerr.EEXIST, err) {
		t.Errorf("second MMap = %v, want EEXIST", err)
	}
	if a.Outstanding() != outstanding {
		t.Errorf("overlapping MMap allocated frames")
	}
	for vpn, ppn := range first {
		pte, ok := pt.Translate(vpn)
		if !ok || pte.PPN() != ppn || pte.Writable() {
			t.Errorf("Translate(%v) = %v, %v after rejected MMap; want original %v", vpn, pte, ok, ppn)
		}
	}
}

func TestMMapAlignment(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()
	outstanding := a.Outstanding()

	for _, start := range []hostarch.VirtAddr{0x1001, 0x1fff, 0x10000800} {
		if err := pt.MMap(start, hostarch.PageSize, Readable|User, leafSet{}); !linuxerr.Equals(linuxerr.EINVAL, err) {
			t.Errorf("MMap(%v) = %v, want EINVAL", start, err)
		}
		if err := pt.MUnmap(start, hostarch.PageSize, leafSet{}); !linuxerr.Equals(linuxerr.EINVAL, err) {
			t.Errorf("MUnmap(%v) = %v, want EINVAL", start, err)
		}
	}
	if a.Outstanding() != outstanding {
		t.Errorf("misaligned MMap allocated %d frames", a.Outstanding()-outstanding)
	}
}

func TestMMapEmptyRange(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()
	if err := pt.MMap(0x2000, 0, Readable, leafSet{}); err != nil {
		t.Errorf("MMap of empty range = %v, want nil", err)
	}
	if err := pt.MUnmap(0x2000, 0, leafSet{}); err != nil {
		t.Errorf("MUnmap of empty range = %v, want nil", err)
	}
}

func TestMUnmapNotMapped(t *testing.T) {
	a := newAllocator(t, 16)
	pt := New(a)
	owner := leafSet{}
	defer pt.Release()
	defer owner.release()

	if err := pt.MMap(0x1000, hostarch.PageSize, Readable|User, owner); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	// The first page is unmapped before the hole is found.
	err := pt.MUnmap(0x1000, 2*hostarch.PageSize, owner)
	if !linuxerr.Equals(linuxerr.EFAULT, err) {
		t.Errorf("MUnmap over hole = %v, want EFAULT", err)
	}
	if _, ok := pt.Translate(1); ok {
		t.Errorf("page before the hole still mapped")
	}
}

func TestMMapOutOfMemory(t *testing.T) {
	// Root plus the two directories leave one frame for data.
	a := newAllocator(t, 4)
	pt := New(a)
	owner := leafSet{}
	defer pt.Release()
	defer owner.release()

	err := pt.MMap(0, 2*hostarch.PageSize, Readable|User, owner)
	if !linuxerr.Equals(linuxerr.ENOMEM, err) {
		t.Errorf("MMap = %v, want ENOMEM", err)
	}
	if len(owner) != 1 {
		t.Errorf("owner adopted %d frames before exhaustion, want 1", len(owner))
	}
}

func TestWalk(t *testing.T) {
	a := newAllocator(t, 8)
	pt := New(a)
	defer pt.Release()

	vpn := hostarch.VirtPageNum(1<<18 | 2<<9 | 3)
	if got := pt.Walk(vpn); len(got) != 1 || got[0].Index != 1 || got[0].Entry.Valid() {
		t.Errorf("Walk of empty table = %+v, want a single invalid root step", got)
	}
	pt.Map(vpn, 0x80007, Readable|User)
	steps := pt.Walk(vpn)
	if len(steps) != hostarch.Levels {
		t.Fatalf("Walk returned %d steps, want %d", len(steps), hostarch.Levels)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, []int{steps[0].Index, steps[1].Index, steps[2].Index}); diff != "" {
		t.Errorf("walk indexes mismatch (-want +got):\n%s", diff)
	}
	if steps[0].Table != pt.Root() || !steps[0].Entry.IsDirectory() {
		t.Errorf("root step = %+v", steps[0])
	}
	if steps[2].Entry.PPN() != 0x80007 {
		t.Errorf("leaf step = %+v, want PPN:0x80007", steps[2])
	}
}
