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

// Package mm implements user address spaces.
//
// A MemorySet owns a page table and the data frames mapped by it. The page
// table owns only its directory frames; every leaf frame is adopted by the
// MemorySet and released by it, either on unmap or on Release.
package mm

import (
	"fmt"

	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/ring0/pagetables"
	"rvkernel.dev/rvkernel/pkg/sentry/pgalloc"
)

// heapPerms are the leaf flags of heap and stack pages.
const heapPerms = pagetables.Readable | pagetables.Writable | pagetables.User

// MemorySet is a user address space.
type MemorySet struct {
	pt *pagetables.PageTable

	// leaves maps every mapped page to the frame backing it.
	leaves map[hostarch.VirtPageNum]*pgalloc.Frame

	// stack is the range of the user stack, if any.
	stack hostarch.VPNRange

	// heapBottom is the lowest heap address. It is page aligned.
	heapBottom hostarch.VirtAddr

	// brk is the current program break.
	brk hostarch.VirtAddr
}

var _ pagetables.LeafOwner = (*MemorySet)(nil)

// NewMemorySet returns an empty address space.
func NewMemorySet(alloc pagetables.Allocator) *MemorySet {
	return &MemorySet{
		pt:     pagetables.New(alloc),
		leaves: make(map[hostarch.VirtPageNum]*pgalloc.Frame),
	}
}

// PageTable returns the page table of ms.
func (ms *MemorySet) PageTable() *pagetables.PageTable {
	return ms.pt
}

// Token returns the token activating ms.
func (ms *MemorySet) Token() uint64 {
	return ms.pt.Token()
}

// Adopt implements pagetables.LeafOwner.Adopt.
func (ms *MemorySet) Adopt(vpn hostarch.VirtPageNum, f *pgalloc.Frame) {
	if old, ok := ms.leaves[vpn]; ok {
		panic(fmt.Sprintf("%v already backed by %v", vpn, old))
	}
	ms.leaves[vpn] = f
}

// Disown implements pagetables.LeafOwner.Disown.
func (ms *MemorySet) Disown(vpn hostarch.VirtPageNum) {
	f, ok := ms.leaves[vpn]
	if !ok {
		panic(fmt.Sprintf("%v has no backing frame", vpn))
	}
	delete(ms.leaves, vpn)
	f.Release()
}

// LeafFrames returns the number of data frames ms owns.
func (ms *MemorySet) LeafFrames() int {
	return len(ms.leaves)
}

// MMap maps [start, start+length) to fresh anonymous memory.
func (ms *MemorySet) MMap(start hostarch.VirtAddr, length uint64, flags pagetables.PTEFlags) error {
	return ms.pt.MMap(start, length, flags, ms)
}

// MUnmap unmaps [start, start+length) and releases the frames behind it.
func (ms *MemorySet) MUnmap(start hostarch.VirtAddr, length uint64) error {
	return ms.pt.MUnmap(start, length, ms)
}

// AnyMapped returns true if some page of the range is mapped.
func (ms *MemorySet) AnyMapped(start hostarch.VirtAddr, length uint64) bool {
	return ms.pt.AnyMapped(start, length)
}

// AllMapped returns true if every page of the range is mapped.
func (ms *MemorySet) AllMapped(start hostarch.VirtAddr, length uint64) bool {
	return ms.pt.AllMapped(start, length)
}

// MapUserStack maps a user stack of size bytes ending at top and returns
// the initial stack pointer.
func (ms *MemorySet) MapUserStack(top hostarch.VirtAddr, size uint64) (hostarch.VirtAddr, error) {
	if !top.Aligned() || size%hostarch.PageSize != 0 || size > uint64(top) {
		return 0, linuxerr.EINVAL
	}
	bottom := top - hostarch.VirtAddr(size)
	if err := ms.MMap(bottom, size, heapPerms); err != nil {
		return 0, err
	}
	ms.stack = hostarch.PageRangeOf(bottom, size)
	return top, nil
}

// Stack returns the pages of the user stack.
func (ms *MemorySet) Stack() hostarch.VPNRange {
	return ms.stack
}

// Release returns every frame of ms: data frames first, then the page
// table. ms must not be used afterwards.
func (ms *MemorySet) Release() {
	for vpn, f := range ms.leaves {
		f.Release()
		delete(ms.leaves, vpn)
	}
	ms.pt.Release()
	if log.IsLogging(log.Debug) {
		log.Debugf("mm: released address space %#x", ms.pt.Token())
	}
}
