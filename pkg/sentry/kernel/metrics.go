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

import "rvkernel.dev/rvkernel/pkg/metric"

var (
	dispatches   = metric.MustCreateNewUint64Metric("kernel_dispatches", "Number of times a task was switched to.")
	tasksSpawned = metric.MustCreateNewUint64Metric("kernel_tasks_spawned", "Number of tasks created.")
	tasksExited  = metric.MustCreateNewUint64Metric("kernel_tasks_exited", "Number of tasks that exited.")

	syscallsHandled = metric.MustCreateNewUint64Metric("kernel_syscalls", "Number of syscalls handled, by result.",
		metric.NewField("result", []string{"ok", "error", "missing"}))
)
