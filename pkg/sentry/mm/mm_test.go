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

package mm

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/ring0/pagetables"
	"rvkernel.dev/rvkernel/pkg/sentry/pgalloc"
)

func newTestMemorySet(t *testing.T, frames uint64) (*pgalloc.FrameAllocator, *MemorySet) {
	t.Helper()
	mf, err := pgalloc.NewMemoryFile(frames)
	if err != nil {
		t.Fatalf("NewMemoryFile: %v", err)
	}
	t.Cleanup(func() { mf.Close() })
	a := pgalloc.NewFrameAllocator(mf)
	return a, NewMemorySet(a)
}

const rw = pagetables.Readable | pagetables.Writable | pagetables.User

func TestCrossPageCopy(t *testing.T) {
	a, ms := newTestMemorySet(t, 16)
	defer ms.Release()

	const base = hostarch.VirtAddr(0x20000000)
	if err := ms.MMap(base, 2*hostarch.PageSize, rw); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	ptr := base + hostarch.PageSize - 10
	src := []byte("abcdefghijklmnopqrstuvwxyz")

	var lens []int
	for b := range TranslatedByteBuffer(a, ms.Token(), ptr, uint64(len(src))) {
		lens = append(lens, len(b))
	}
	if diff := cmp.Diff([]int{10, len(src) - 10}, lens); diff != "" {
		t.Errorf("slice lengths mismatch (-want +got):\n%s", diff)
	}

	CopyToUser(a, ms.Token(), ptr, src)
	got := make([]byte, len(src))
	CopyFromUser(a, ms.Token(), got, ptr)
	if !bytes.Equal(got, src) {
		t.Errorf("CopyFromUser = %q, want %q", got, src)
	}

	// The bytes land in the frames the page table points at.
	pte, _ := ms.PageTable().Translate(base.Floor())
	if tail := a.Bytes(pte.PPN())[hostarch.PageSize-10:]; !bytes.Equal(tail, src[:10]) {
		t.Errorf("first frame tail = %q, want %q", tail, src[:10])
	}
}

func TestTranslatedByteBufferStopsEarly(t *testing.T) {
	a, ms := newTestMemorySet(t, 16)
	defer ms.Release()
	if err := ms.MMap(0x1000, 3*hostarch.PageSize, rw); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	n := 0
	for range TranslatedByteBuffer(a, ms.Token(), 0x1000, 3*hostarch.PageSize) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d slices after break, want 1", n)
	}
}

func TestTranslatedByteBufferUnmappedPanics(t *testing.T) {
	a, ms := newTestMemorySet(t, 16)
	defer ms.Release()
	if err := ms.MMap(0x1000, hostarch.PageSize, rw); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("copy into unmapped page did not panic")
		}
	}()
	CopyToUser(a, ms.Token(), 0x1ff0, make([]byte, 32))
}

func TestCopyToReadOnlyPagePanics(t *testing.T) {
	a, ms := newTestMemorySet(t, 16)
	defer ms.Release()
	if err := ms.MMap(0x1000, hostarch.PageSize, rw); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	if err := ms.MMap(0x2000, hostarch.PageSize, pagetables.Readable|pagetables.User); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	// Reads of the read-only page are fine.
	CopyFromUser(a, ms.Token(), make([]byte, 32), 0x1ff0)

	defer func() {
		if recover() == nil {
			t.Errorf("copy into read-only page did not panic")
		}
	}()
	CopyToUser(a, ms.Token(), 0x1ff0, make([]byte, 32))
}

func TestReleaseReturnsEveryFrame(t *testing.T) {
	a, ms := newTestMemorySet(t, 32)
	if err := ms.MMap(0x10000, 4*hostarch.PageSize, rw); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	if _, err := ms.MapUserStack(0x80000, 2*hostarch.PageSize); err != nil {
		t.Fatalf("MapUserStack: %v", err)
	}
	if got := ms.LeafFrames(); got != 6 {
		t.Errorf("LeafFrames() = %d, want 6", got)
	}
	ms.Release()
	if got := a.Outstanding(); got != 0 {
		t.Errorf("Outstanding() after Release = %d, want 0", got)
	}
}

func TestMUnmapReleasesLeaves(t *testing.T) {
	a, ms := newTestMemorySet(t, 16)
	defer ms.Release()
	if err := ms.MMap(0x3000, 2*hostarch.PageSize, rw); err != nil {
		t.Fatalf("MMap: %v", err)
	}
	before := a.Outstanding()
	if err := ms.MUnmap(0x3000, 2*hostarch.PageSize); err != nil {
		t.Fatalf("MUnmap: %v", err)
	}
	if got, want := before-a.Outstanding(), uint64(2); got != want {
		t.Errorf("MUnmap released %d frames, want %d", got, want)
	}
	if ms.AnyMapped(0x3000, 2*hostarch.PageSize) {
		t.Errorf("range still mapped after MUnmap")
	}
}

func TestMapUserStack(t *testing.T) {
	_, ms := newTestMemorySet(t, 16)
	defer ms.Release()
	sp, err := ms.MapUserStack(0x10000, 2*hostarch.PageSize)
	if err != nil {
		t.Fatalf("MapUserStack: %v", err)
	}
	if sp != 0x10000 {
		t.Errorf("stack pointer = %v, want 0x10000", sp)
	}
	if got, want := ms.Stack(), (hostarch.VPNRange{Start: 0xe, End: 0x10}); got != want {
		t.Errorf("Stack() = %v, want %v", got, want)
	}
	if _, err := ms.MapUserStack(0x10001, hostarch.PageSize); !linuxerr.Equals(linuxerr.EINVAL, err) {
		t.Errorf("misaligned MapUserStack = %v, want EINVAL", err)
	}
}

func TestChangeBrk(t *testing.T) {
	a, ms := newTestMemorySet(t, 32)
	defer ms.Release()
	const bottom = hostarch.VirtAddr(0x100000)
	if err := ms.InitHeap(bottom); err != nil {
		t.Fatalf("InitHeap: %v", err)
	}
	base := a.Outstanding()

	for _, step := range []struct {
		delta   int64
		wantOld hostarch.VirtAddr
		leaves  int
	}{
		{delta: 100, wantOld: bottom, leaves: 1},
		{delta: hostarch.PageSize, wantOld: bottom + 100, leaves: 2},
		{delta: 0, wantOld: bottom + 100 + hostarch.PageSize, leaves: 2},
		{delta: -int64(hostarch.PageSize), wantOld: bottom + 100 + hostarch.PageSize, leaves: 1},
		{delta: -100, wantOld: bottom + 100, leaves: 0},
	} {
		old, err := ms.ChangeBrk(step.delta)
		if err != nil {
			t.Fatalf("ChangeBrk(%d): %v", step.delta, err)
		}
		if old != step.wantOld {
			t.Errorf("ChangeBrk(%d) = %v, want %v", step.delta, old, step.wantOld)
		}
		if got := ms.LeafFrames(); got != step.leaves {
			t.Errorf("after ChangeBrk(%d) LeafFrames() = %d, want %d", step.delta, got, step.leaves)
		}
	}
	if _, err := ms.ChangeBrk(-1); !linuxerr.Equals(linuxerr.EINVAL, err) {
		t.Errorf("ChangeBrk below bottom = %v, want EINVAL", err)
	}
	if ms.Brk() != bottom {
		t.Errorf("Brk() = %v, want %v", ms.Brk(), bottom)
	}
	// Directory frames created for the heap stay with the page table.
	if got := a.Outstanding() - base; got != 2 {
		t.Errorf("outstanding delta = %d, want 2 heap directories", got)
	}
}

func TestHeapIsWritable(t *testing.T) {
	a, ms := newTestMemorySet(t, 16)
	defer ms.Release()
	if err := ms.InitHeap(0x40000); err != nil {
		t.Fatalf("InitHeap: %v", err)
	}
	old, err := ms.ChangeBrk(64)
	if err != nil {
		t.Fatalf("ChangeBrk: %v", err)
	}
	CopyToUser(a, ms.Token(), old, []byte("heap"))
	got := make([]byte, 4)
	CopyFromUser(a, ms.Token(), got, old)
	if string(got) != "heap" {
		t.Errorf("heap round trip = %q", got)
	}
}
