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

// Package pgalloc contains the physical memory of the machine and the
// allocator that hands it out one frame at a time.
package pgalloc

import (
	"fmt"

	"golang.org/x/sys/unix"
	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// MemoryFile is the machine's DRAM: an anonymous host mapping addressed by
// physical page number, starting at hostarch.MemoryStart.
type MemoryFile struct {
	mapping []byte
	start   hostarch.PhysPageNum
	end     hostarch.PhysPageNum
}

// NewMemoryFile maps frames frames of zeroed memory.
func NewMemoryFile(frames uint64) (*MemoryFile, error) {
	if frames == 0 {
		return nil, fmt.Errorf("memory file must hold at least one frame")
	}
	m, err := unix.Mmap(-1, 0, int(frames*hostarch.PageSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mapping %d frames: %w", frames, err)
	}
	start := hostarch.PhysAddr(hostarch.MemoryStart).Floor()
	return &MemoryFile{
		mapping: m,
		start:   start,
		end:     start + hostarch.PhysPageNum(frames),
	}, nil
}

// Start returns the first frame of the file.
func (f *MemoryFile) Start() hostarch.PhysPageNum {
	return f.start
}

// End returns the frame past the last frame of the file.
func (f *MemoryFile) End() hostarch.PhysPageNum {
	return f.end
}

// Contains returns true if ppn is backed by f.
func (f *MemoryFile) Contains(ppn hostarch.PhysPageNum) bool {
	return f.start <= ppn && ppn < f.end
}

// Bytes returns the contents of frame ppn.
//
// Preconditions: f.Contains(ppn).
func (f *MemoryFile) Bytes(ppn hostarch.PhysPageNum) []byte {
	if !f.Contains(ppn) {
		panic(fmt.Sprintf("%v outside physical memory [%v, %v)", ppn, f.start, f.end))
	}
	off := uint64(ppn-f.start) * hostarch.PageSize
	return f.mapping[off : off+hostarch.PageSize : off+hostarch.PageSize]
}

// Close unmaps the file. No frame of f may be used afterwards.
func (f *MemoryFile) Close() error {
	if f.mapping == nil {
		return nil
	}
	err := unix.Munmap(f.mapping)
	f.mapping = nil
	return err
}
