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
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// MMap maps [start, start+length) page by page to fresh zeroed frames and
// hands each frame to owner.
//
// It returns EINVAL if start is not page aligned, EEXIST when it reaches a
// page that is already mapped and ENOMEM when frames run out. Pages mapped
// before a failure stay mapped.
func (pt *PageTable) MMap(start hostarch.VirtAddr, length uint64, flags PTEFlags, owner LeafOwner) error {
	if !start.Aligned() {
		return linuxerr.EINVAL
	}
	for vpn := range hostarch.PageRangeOf(start, length).All() {
		pte := pt.findPTECreate(vpn)
		if pte.Valid() {
			return linuxerr.EEXIST
		}
		f, ok := pt.alloc.Allocate()
		if !ok {
			return linuxerr.ENOMEM
		}
		*pte = NewPTE(f.PPN, flags|Valid)
		owner.Adopt(vpn, f)
	}
	return nil
}

// MUnmap clears the mappings of [start, start+length) page by page and gives
// each leaf frame back to owner.
//
// It returns EINVAL if start is not page aligned and EFAULT when it reaches
// a page that is not mapped. Pages unmapped before a failure stay unmapped.
func (pt *PageTable) MUnmap(start hostarch.VirtAddr, length uint64, owner LeafOwner) error {
	if !start.Aligned() {
		return linuxerr.EINVAL
	}
	for vpn := range hostarch.PageRangeOf(start, length).All() {
		pte := pt.findPTE(vpn)
		if pte == nil || !pte.Valid() {
			return linuxerr.EFAULT
		}
		*pte = 0
		owner.Disown(vpn)
	}
	return nil
}

// AnyMapped returns true if some page of [start, start+length) is mapped.
func (pt *PageTable) AnyMapped(start hostarch.VirtAddr, length uint64) bool {
	for vpn := range hostarch.PageRangeOf(start, length).All() {
		if _, ok := pt.Translate(vpn); ok {
			return true
		}
	}
	return false
}

// AllMapped returns true if every page of [start, start+length) is mapped.
func (pt *PageTable) AllMapped(start hostarch.VirtAddr, length uint64) bool {
	for vpn := range hostarch.PageRangeOf(start, length).All() {
		if _, ok := pt.Translate(vpn); !ok {
			return false
		}
	}
	return true
}
