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

// Package pagetables implements Sv39 page tables over simulated physical
// memory.
//
// A PageTable owns the frame holding its root table and every directory
// frame it creates. Leaf data frames belong to a LeafOwner (in practice the
// address space) and are never released here.
package pagetables

import (
	"fmt"

	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/sentry/pgalloc"
)

// Allocator supplies table and data frames.
//
// *pgalloc.FrameAllocator implements Allocator.
type Allocator interface {
	// Allocate returns a zeroed frame, or false if memory is exhausted.
	Allocate() (*pgalloc.Frame, bool)

	// Bytes returns the contents of frame ppn.
	Bytes(ppn hostarch.PhysPageNum) []byte
}

// LeafOwner takes ownership of leaf data frames installed by MMap and gets
// them back from MUnmap.
type LeafOwner interface {
	// Adopt takes ownership of f, now mapped at vpn.
	Adopt(vpn hostarch.VirtPageNum, f *pgalloc.Frame)

	// Disown is called after vpn has been unmapped; the owner releases
	// the frame it adopted for vpn.
	Disown(vpn hostarch.VirtPageNum)
}

// satpModeSv39 is the MODE field of satp selecting Sv39.
const satpModeSv39 = 8

// PageTable is a three-level Sv39 page table.
type PageTable struct {
	alloc Allocator

	// root is the frame of the level 0 table.
	root hostarch.PhysPageNum

	// frames holds every directory frame this table created, root first,
	// in allocation order. It is nil for a borrowed view.
	frames []*pgalloc.Frame

	// borrowed is set for tables built by FromToken.
	borrowed bool
}

// New returns an empty page table owning a fresh root frame.
//
// Allocator exhaustion is fatal.
func New(alloc Allocator) *PageTable {
	pt := &PageTable{alloc: alloc}
	root := pt.allocDirectory()
	pt.root = root.PPN
	return pt
}

// FromToken returns a view of the table activated by token. The view owns
// no frames and must not be used to create directories.
func FromToken(alloc Allocator, token uint64) *PageTable {
	return &PageTable{
		alloc:    alloc,
		root:     hostarch.PhysPageNum(token & ppnMask),
		borrowed: true,
	}
}

// Token returns the satp value that activates pt.
func (pt *PageTable) Token() uint64 {
	return satpModeSv39<<60 | uint64(pt.root)
}

// Root returns the root table frame.
func (pt *PageTable) Root() hostarch.PhysPageNum {
	return pt.root
}

// DirectoryFrames returns the number of table frames pt owns, root included.
func (pt *PageTable) DirectoryFrames() int {
	return len(pt.frames)
}

// Release returns every table frame to the allocator, in allocation order.
// Releasing a borrowed view does nothing.
func (pt *PageTable) Release() {
	if pt.borrowed {
		return
	}
	for _, f := range pt.frames {
		f.Release()
	}
	pt.frames = nil
}

func (pt *PageTable) allocDirectory() *pgalloc.Frame {
	if pt.borrowed {
		panic(fmt.Sprintf("creating a directory through borrowed page table %#x", pt.Token()))
	}
	f, ok := pt.alloc.Allocate()
	if !ok {
		panic("out of frames for page table directory")
	}
	pt.frames = append(pt.frames, f)
	return f
}

func (pt *PageTable) table(ppn hostarch.PhysPageNum) *PTEs {
	return ptesOf(pt.alloc.Bytes(ppn))
}

// findPTECreate returns the leaf slot for vpn, creating missing directories.
func (pt *PageTable) findPTECreate(vpn hostarch.VirtPageNum) *PTE {
	idx := vpn.Indexes()
	ppn := pt.root
	for level, i := range idx {
		pte := &pt.table(ppn)[i]
		if level == hostarch.Levels-1 {
			return pte
		}
		if !pte.Valid() {
			*pte = NewPTE(pt.allocDirectory().PPN, Valid)
		}
		ppn = pte.PPN()
	}
	panic("unreachable")
}

// findPTE returns the leaf slot for vpn, or nil if a directory on the way
// is missing.
func (pt *PageTable) findPTE(vpn hostarch.VirtPageNum) *PTE {
	idx := vpn.Indexes()
	ppn := pt.root
	for level, i := range idx {
		pte := &pt.table(ppn)[i]
		if level == hostarch.Levels-1 {
			return pte
		}
		if !pte.Valid() {
			return nil
		}
		ppn = pte.PPN()
	}
	panic("unreachable")
}

// Map installs vpn -> ppn. Valid is always set.
//
// Precondition: vpn is not mapped.
func (pt *PageTable) Map(vpn hostarch.VirtPageNum, ppn hostarch.PhysPageNum, flags PTEFlags) {
	pte := pt.findPTECreate(vpn)
	if pte.Valid() {
		panic(fmt.Sprintf("%v is mapped before mapping", vpn))
	}
	*pte = NewPTE(ppn, flags|Valid)
}

// Unmap clears the mapping of vpn.
//
// Precondition: vpn is mapped.
func (pt *PageTable) Unmap(vpn hostarch.VirtPageNum) {
	pte := pt.findPTE(vpn)
	if pte == nil || !pte.Valid() {
		panic(fmt.Sprintf("%v is invalid before unmapping", vpn))
	}
	*pte = 0
}

// Translate returns the leaf entry of vpn if it is mapped.
func (pt *PageTable) Translate(vpn hostarch.VirtPageNum) (PTE, bool) {
	pte := pt.findPTE(vpn)
	if pte == nil || !pte.Valid() {
		return 0, false
	}
	return *pte, true
}

// TranslateVA returns the physical address va maps to.
func (pt *PageTable) TranslateVA(va hostarch.VirtAddr) (hostarch.PhysAddr, bool) {
	pte, ok := pt.Translate(va.Floor())
	if !ok {
		return 0, false
	}
	return pte.PPN().Addr() + hostarch.PhysAddr(va.PageOffset()), true
}
