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

package kernel

// Task-level scheduling: giving up the core and leaving it for good.

import (
	"rvkernel.dev/rvkernel/pkg/log"
)

// SuspendCurrentAndRunNext puts the running task back on the ready queue and
// switches to the dispatch loop. It returns when the task runs again.
func (k *Kernel) SuspendCurrentAndRunNext() {
	t := k.proc.TakeCurrent()
	if t == nil {
		panic("suspend with no current task")
	}
	cx := t.suspend()
	k.tasks.Add(t)
	k.proc.Schedule(cx)
}

// ExitCurrentAndRunNext ends the running task with code, releases its
// address space and switches to the dispatch loop. It does not return.
func (k *Kernel) ExitCurrentAndRunNext(code int32) {
	t := k.proc.TakeCurrent()
	if t == nil {
		panic("exit with no current task")
	}
	t.exit(code)
	tasksExited.Increment()
	log.Infof("[kernel] Application %v exited with code %d", t, code)
	k.proc.Schedule(nil)
	panic("exited task resumed")
}
