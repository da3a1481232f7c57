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

// Package platform provides the context switch the scheduler runs on.
//
// See Switcher for more information.
package platform

import (
	"fmt"
	"sort"

	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sync"
)

// Switcher transfers control between flows of execution described by
// arch.TaskContexts.
type Switcher interface {
	// Switch saves the calling flow into from and resumes to. It returns
	// when another Switch resumes from.
	//
	// If from is nil the calling flow is abandoned and Switch does not
	// return. Calls deferred by an abandoned flow may run after to has
	// resumed and concurrently with it, so they must not touch kernel
	// state. A context that has never run is started at its Entry.
	//
	// Only one flow runs at a time; callers must not hold locks that the
	// resumed flow needs.
	Switch(from, to *arch.TaskContext)
}

// Constructor returns a new Switcher.
type Constructor func() (Switcher, error)

var (
	mu        sync.Mutex
	platforms = make(map[string]Constructor)
)

// Register registers a new switcher implementation.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := platforms[name]; ok {
		panic(fmt.Sprintf("duplicate platform registration for %q", name))
	}
	platforms[name] = c
}

// Lookup looks up the switcher constructor by name.
func Lookup(name string) (Constructor, error) {
	mu.Lock()
	defer mu.Unlock()
	c, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unknown platform: %q", name)
	}
	return c, nil
}

// List lists available platforms.
func List() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
