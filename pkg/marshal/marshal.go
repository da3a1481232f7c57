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

// Package marshal defines the Marshallable interface for serialize/deserializing
// Go data structures to/from memory, according to the user ABI.
//
// Implementations of this interface are hand-written next to the ABI type
// they describe. All multi-byte fields use hostarch.ByteOrder.
package marshal

// Marshallable represents operations on a type that can be marshalled to and
// from memory.
type Marshallable interface {
	// SizeBytes is the size of the memory representation of a type in
	// marshalled form.
	SizeBytes() int

	// MarshalBytes serializes a copy of a type to dst.
	//
	// Preconditions: len(dst) >= SizeBytes().
	MarshalBytes(dst []byte)

	// UnmarshalBytes deserializes a type from src.
	//
	// Preconditions: len(src) >= SizeBytes().
	UnmarshalBytes(src []byte)
}

// Marshal returns the serialized contents of m in a newly allocated byte
// slice.
func Marshal(m Marshallable) []byte {
	buf := make([]byte, m.SizeBytes())
	m.MarshalBytes(buf)
	return buf
}
