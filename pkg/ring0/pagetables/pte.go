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
	"fmt"
	"strings"

	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// PTEFlags is the low byte of a page table entry.
type PTEFlags uint8

// Sv39 entry flags.
const (
	Valid PTEFlags = 1 << iota
	Readable
	Writable
	Executable
	User
	Global
	Accessed
	Dirty
)

// permMask covers the flags that make an entry a leaf.
const permMask = Readable | Writable | Executable

// FlagsFor returns the leaf flags granting at, optionally to user mode.
// Valid is not included.
func FlagsFor(at hostarch.AccessType, user bool) PTEFlags {
	var f PTEFlags
	if at.Read {
		f |= Readable
	}
	if at.Write {
		f |= Writable
	}
	if at.Execute {
		f |= Executable
	}
	if user {
		f |= User
	}
	return f
}

// AccessType returns the access granted by f.
func (f PTEFlags) AccessType() hostarch.AccessType {
	return hostarch.AccessType{
		Read:    f&Readable != 0,
		Write:   f&Writable != 0,
		Execute: f&Executable != 0,
	}
}

// String renders f in the usual "DAGUXWRV" order, most significant first.
func (f PTEFlags) String() string {
	const names = "VRWXUGAD"
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		if f&(1<<i) != 0 {
			b.WriteByte(names[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// flagBits is the number of bits below the PPN field.
const flagBits = 10

// ppnMask masks a PPNWidth-bit page number.
const ppnMask = 1<<hostarch.PPNWidth - 1

// PTE is a single Sv39 page table entry.
type PTE uint64

// NewPTE encodes an entry pointing at ppn.
func NewPTE(ppn hostarch.PhysPageNum, flags PTEFlags) PTE {
	return PTE((uint64(ppn)&ppnMask)<<flagBits | uint64(flags))
}

// PPN returns the physical page number the entry points at.
func (p PTE) PPN() hostarch.PhysPageNum {
	return hostarch.PhysPageNum(uint64(p) >> flagBits & ppnMask)
}

// Flags returns the flag byte.
func (p PTE) Flags() PTEFlags {
	return PTEFlags(p)
}

// Valid returns true if the entry is in use.
func (p PTE) Valid() bool {
	return p.Flags()&Valid != 0
}

// Readable returns true if the entry grants reads.
func (p PTE) Readable() bool {
	return p.Flags()&Readable != 0
}

// Writable returns true if the entry grants writes.
func (p PTE) Writable() bool {
	return p.Flags()&Writable != 0
}

// Executable returns true if the entry grants instruction fetch.
func (p PTE) Executable() bool {
	return p.Flags()&Executable != 0
}

// User returns true if the entry is accessible from user mode.
func (p PTE) User() bool {
	return p.Flags()&User != 0
}

// IsDirectory returns true if p is valid and points at the next level.
func (p PTE) IsDirectory() bool {
	return p.Valid() && p.Flags()&permMask == 0
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	return fmt.Sprintf("PTE{%v %v}", p.PPN(), p.Flags())
}
