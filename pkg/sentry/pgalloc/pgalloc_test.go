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

package pgalloc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"rvkernel.dev/rvkernel/pkg/hostarch"
)

func newTestAllocator(t *testing.T, frames uint64) *FrameAllocator {
	t.Helper()
	mf, err := NewMemoryFile(frames)
	if err != nil {
		t.Fatalf("NewMemoryFile(%d): %v", frames, err)
	}
	t.Cleanup(func() { mf.Close() })
	return NewFrameAllocator(mf)
}

func TestAllocateAscending(t *testing.T) {
	a := newTestAllocator(t, 4)
	base := a.MemoryFile().Start()
	var got []hostarch.PhysPageNum
	for i := 0; i < 4; i++ {
		f, ok := a.Allocate()
		if !ok {
			t.Fatalf("Allocate #%d failed", i)
		}
		got = append(got, f.PPN)
	}
	want := []hostarch.PhysPageNum{base, base + 1, base + 2, base + 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("allocation order mismatch (-want +got):\n%s", diff)
	}
	if _, ok := a.Allocate(); ok {
		t.Errorf("Allocate succeeded on exhausted memory")
	}
	if got := a.Outstanding(); got != 4 {
		t.Errorf("Outstanding() = %d, want 4", got)
	}
}

func TestReleaseReusesLowestFirst(t *testing.T) {
	a := newTestAllocator(t, 8)
	var frames []*Frame
	for i := 0; i < 4; i++ {
		frames = append(frames, a.MustAllocate())
	}
	frames[2].Release()
	frames[1].Release()
	if got, want := a.Outstanding(), uint64(2); got != want {
		t.Errorf("Outstanding() = %d, want %d", got, want)
	}
	if got, want := a.Available(), uint64(6); got != want {
		t.Errorf("Available() = %d, want %d", got, want)
	}
	f := a.MustAllocate()
	if f.PPN != frames[1].PPN {
		t.Errorf("reallocated %v, want lowest released %v", f.PPN, frames[1].PPN)
	}
}

func TestAllocateZeroes(t *testing.T) {
	a := newTestAllocator(t, 1)
	f := a.MustAllocate()
	copy(f.Bytes(), "dirty")
	f.Release()
	g := a.MustAllocate()
	for i, b := range g.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d of reused frame = %#x, want 0", i, b)
		}
	}
	if len(g.Bytes()) != hostarch.PageSize {
		t.Errorf("frame length = %d, want %d", len(g.Bytes()), hostarch.PageSize)
	}
}

func TestDoubleReleasePanics(t *testing.T) {
	a := newTestAllocator(t, 2)
	f := a.MustAllocate()
	f.Release()
	defer func() {
		if recover() == nil {
			t.Errorf("second Release did not panic")
		}
	}()
	f.Release()
}

func TestBytesOutOfRangePanics(t *testing.T) {
	a := newTestAllocator(t, 1)
	defer func() {
		if recover() == nil {
			t.Errorf("Bytes outside memory did not panic")
		}
	}()
	a.Bytes(a.MemoryFile().End())
}
