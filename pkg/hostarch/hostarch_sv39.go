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

// Package hostarch contains the address and page-number types of the RV64
// Sv39 machine the kernel core runs on.
package hostarch

import "encoding/binary"

const (
	// PageShift is the binary log of the page size.
	PageShift = 12

	// PageSize is the size of a page and of a physical frame.
	PageSize = 1 << PageShift

	// PAWidth is the number of significant physical address bits in Sv39.
	PAWidth = 56

	// VAWidth is the number of significant virtual address bits in Sv39.
	VAWidth = 39

	// PPNWidth is the width of a physical page number.
	PPNWidth = PAWidth - PageShift

	// VPNWidth is the width of a virtual page number.
	VPNWidth = VAWidth - PageShift

	// Levels is the depth of an Sv39 page table.
	Levels = 3

	// IndexBits is the number of VPN bits consumed at each level.
	IndexBits = 9

	// PTEsPerPage is the number of entries held by one table frame.
	PTEsPerPage = 1 << IndexBits

	// MemoryStart is the physical address of the first byte of DRAM.
	MemoryStart = 0x80000000
)

// ByteOrder is the byte order of the simulated machine (little endian),
// independent of the host.
var ByteOrder = binary.LittleEndian
