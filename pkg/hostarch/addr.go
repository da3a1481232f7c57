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

package hostarch

import "fmt"

// VirtAddr is a virtual address. Only the low VAWidth bits are significant.
type VirtAddr uint64

// PhysAddr is a physical address. Only the low PAWidth bits are significant.
type PhysAddr uint64

// VirtPageNum is a virtual address shifted right by PageShift.
type VirtPageNum uint64

// PhysPageNum is a physical address shifted right by PageShift.
type PhysPageNum uint64

// VirtAddrOf truncates v to VAWidth bits.
func VirtAddrOf(v uint64) VirtAddr {
	return VirtAddr(v & (1<<VAWidth - 1))
}

// PhysAddrOf truncates v to PAWidth bits.
func PhysAddrOf(v uint64) PhysAddr {
	return PhysAddr(v & (1<<PAWidth - 1))
}

// PageOffset returns the offset of v within its page.
func (v VirtAddr) PageOffset() uint64 {
	return uint64(v) & (PageSize - 1)
}

// Aligned returns true if v is on a page boundary.
func (v VirtAddr) Aligned() bool {
	return v.PageOffset() == 0
}

// Floor returns the page containing v.
func (v VirtAddr) Floor() VirtPageNum {
	return VirtPageNum(uint64(v) / PageSize)
}

// Ceil returns the first page at or above v.
func (v VirtAddr) Ceil() VirtPageNum {
	if v == 0 {
		return 0
	}
	return VirtPageNum((uint64(v) - 1 + PageSize) / PageSize)
}

// String implements fmt.Stringer.String.
func (v VirtAddr) String() string {
	return fmt.Sprintf("%#x", uint64(v))
}

// PageOffset returns the offset of p within its frame.
func (p PhysAddr) PageOffset() uint64 {
	return uint64(p) & (PageSize - 1)
}

// Aligned returns true if p is on a frame boundary.
func (p PhysAddr) Aligned() bool {
	return p.PageOffset() == 0
}

// Floor returns the frame containing p.
func (p PhysAddr) Floor() PhysPageNum {
	return PhysPageNum(uint64(p) / PageSize)
}

// Ceil returns the first frame at or above p.
func (p PhysAddr) Ceil() PhysPageNum {
	if p == 0 {
		return 0
	}
	return PhysPageNum((uint64(p) - 1 + PageSize) / PageSize)
}

// String implements fmt.Stringer.String.
func (p PhysAddr) String() string {
	return fmt.Sprintf("%#x", uint64(p))
}

// Addr returns the address of the first byte of vpn.
func (vpn VirtPageNum) Addr() VirtAddr {
	return VirtAddr(uint64(vpn) << PageShift)
}

// Indexes splits vpn into its per-level table indexes, root level first.
func (vpn VirtPageNum) Indexes() [Levels]int {
	var idx [Levels]int
	v := uint64(vpn)
	for i := Levels - 1; i >= 0; i-- {
		idx[i] = int(v & (PTEsPerPage - 1))
		v >>= IndexBits
	}
	return idx
}

// Next returns the page following vpn.
func (vpn VirtPageNum) Next() VirtPageNum {
	return vpn + 1
}

// String implements fmt.Stringer.String.
func (vpn VirtPageNum) String() string {
	return fmt.Sprintf("VPN:%#x", uint64(vpn))
}

// Addr returns the address of the first byte of ppn.
func (ppn PhysPageNum) Addr() PhysAddr {
	return PhysAddr(uint64(ppn) << PageShift)
}

// String implements fmt.Stringer.String.
func (ppn PhysPageNum) String() string {
	return fmt.Sprintf("PPN:%#x", uint64(ppn))
}
