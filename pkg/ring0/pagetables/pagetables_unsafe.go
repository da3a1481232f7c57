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
	"unsafe"

	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// PTEs is one table frame viewed as entries.
type PTEs [hostarch.PTEsPerPage]PTE

// ptesOf reinterprets a frame's bytes as a table. Frames come from a page
// aligned host mapping, so the cast is always suitably aligned.
func ptesOf(b []byte) *PTEs {
	if len(b) != hostarch.PageSize {
		panic("page table frame is not a full page")
	}
	return (*PTEs)(unsafe.Pointer(unsafe.SliceData(b)))
}
