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

package linux

import (
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/marshal"
)

// SizeOfTimeVal is the size of a TimeVal struct in bytes.
const SizeOfTimeVal = 16

// TimeVal is the structure written by get_time.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

var _ marshal.Marshallable = (*TimeVal)(nil)

// MicrosToTimeVal splits a microsecond count.
func MicrosToTimeVal(us uint64) TimeVal {
	return TimeVal{Sec: us / 1e6, Usec: us % 1e6}
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (t *TimeVal) SizeBytes() int {
	return SizeOfTimeVal
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (t *TimeVal) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[:8], t.Sec)
	dst = dst[8:]
	hostarch.ByteOrder.PutUint64(dst[:8], t.Usec)
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (t *TimeVal) UnmarshalBytes(src []byte) {
	t.Sec = hostarch.ByteOrder.Uint64(src[:8])
	src = src[8:]
	t.Usec = hostarch.ByteOrder.Uint64(src[:8])
}
