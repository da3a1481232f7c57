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

package linuxerr

import (
	goerrors "errors"
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
)

func TestErrorFromUnix(t *testing.T) {
	for _, test := range []struct {
		errno unix.Errno
		want  error
	}{
		{0, nil},
		{unix.EINVAL, EINVAL},
		{unix.EEXIST, EEXIST},
		{unix.EFAULT, EFAULT},
	} {
		if got := ErrorFromUnix(test.errno); got != test.want {
			t.Errorf("ErrorFromUnix(%v) = %v, want %v", test.errno, got, test.want)
		}
	}
}

func TestEquals(t *testing.T) {
	if !Equals(EINVAL, EINVAL) {
		t.Errorf("Equals(EINVAL, EINVAL) = false")
	}
	if !Equals(EINVAL, unix.EINVAL) {
		t.Errorf("Equals(EINVAL, unix.EINVAL) = false")
	}
	if Equals(EINVAL, EEXIST) {
		t.Errorf("Equals(EINVAL, EEXIST) = true")
	}
	if !Equals(nil, nil) {
		t.Errorf("Equals(nil, nil) = false")
	}
}

func TestWrapped(t *testing.T) {
	err := fmt.Errorf("mapping page: %w", ENOMEM)
	if !goerrors.Is(err, ENOMEM) {
		t.Errorf("errors.Is(%v, ENOMEM) = false", err)
	}
	if !goerrors.Is(err, unix.ENOMEM) {
		t.Errorf("errors.Is(%v, unix.ENOMEM) = false", err)
	}
	if goerrors.Is(err, EFAULT) {
		t.Errorf("errors.Is(%v, EFAULT) = true", err)
	}
	if got := ToUnix(ENOMEM); got != unix.ENOMEM {
		t.Errorf("ToUnix(ENOMEM) = %v", got)
	}
}
