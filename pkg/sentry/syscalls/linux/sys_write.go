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
	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
)

// Write implements write(2) for the console. Only stdout is backed.
func Write(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	if fd != linux.STDOUT {
		return 0, linuxerr.EBADF
	}
	buf := make([]byte, size)
	k.Processor().CopyFromCurrentUser(buf, addr)
	n, err := k.Console().Write(buf)
	if err != nil && n == 0 {
		return 0, linuxerr.EFAULT
	}
	return uint64(n), nil
}
