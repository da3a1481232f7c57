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

// Package config provides basic infrastructure to set configuration settings
// for rvsim. Each setting that can be changed from the command line must have
// a corresponding flag name; settings may also come from a TOML boot file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohae/deepcopy"
	"rvkernel.dev/rvkernel/pkg/log"
)

// Config holds configuration that is not part of the built-in programs
// themselves.
//
// Follow these steps to add a new flag:
//  1. Create a new field in Config.
//  2. Add a field tag with the flag name and a toml tag with its key.
//  3. Register a new flag in flags.go, with name and description.
//  4. Add any necessary validation into validate().
type Config struct {
	// ConfigFile is the path of a TOML boot file. Flags set on the command
	// line take precedence over its values.
	ConfigFile string `flag:"config" toml:"-"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log" toml:"log"`

	// LogFormat is the log format: text, json or logrus.
	LogFormat string `flag:"log-format" toml:"log_format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug" toml:"debug"`

	// DebugLog is the path to log debug information to, if not empty. If it
	// ends with '/', a file is created inside the directory.
	DebugLog string `flag:"debug-log" toml:"debug_log"`

	// DebugLogFormat is the log format for debug.
	DebugLogFormat string `flag:"debug-log-format" toml:"debug_log_format"`

	// AlsoLogToStderr allows to send log messages to stderr.
	AlsoLogToStderr bool `flag:"alsologtostderr" toml:"alsologtostderr"`

	// Platform is the context switch implementation to run tasks on.
	Platform string `flag:"platform" toml:"platform"`

	// MemoryFrames is the number of 4 KiB physical frames.
	MemoryFrames uint64 `flag:"memory-frames" toml:"memory_frames"`

	// DefaultPriority is the stride priority of new tasks.
	DefaultPriority uint64 `flag:"default-priority" toml:"default_priority"`

	// HaltWhenIdle stops the dispatch loop once every task has exited.
	HaltWhenIdle bool `flag:"halt-when-idle" toml:"halt_when_idle"`

	// IdleBackoffMax caps the wait between looks at an empty ready queue.
	IdleBackoffMax time.Duration `flag:"idle-backoff-max" toml:"idle_backoff_max"`

	// IdleLogEvery rate limits the idle warning.
	IdleLogEvery time.Duration `flag:"idle-log-every" toml:"idle_log_every"`

	// Apps is a comma-separated list of built-in programs to boot.
	Apps string `flag:"apps" toml:"apps"`
}

var validLogFormats = map[string]struct{}{
	"text":   {},
	"json":   {},
	"logrus": {},
}

func (c *Config) validate() error {
	if _, ok := validLogFormats[c.LogFormat]; !ok {
		return fmt.Errorf("invalid log format %q, must be 'text', 'json', or 'logrus'", c.LogFormat)
	}
	if _, ok := validLogFormats[c.DebugLogFormat]; !ok {
		return fmt.Errorf("invalid debug log format %q, must be 'text', 'json', or 'logrus'", c.DebugLogFormat)
	}
	if c.MemoryFrames == 0 {
		return fmt.Errorf("memory-frames must be positive")
	}
	if c.DefaultPriority < 2 {
		return fmt.Errorf("default-priority %d must be at least 2", c.DefaultPriority)
	}
	if c.IdleBackoffMax <= 0 {
		return fmt.Errorf("idle-backoff-max must be positive, got %v", c.IdleBackoffMax)
	}
	return nil
}

// AppList returns the names in Apps, without empty entries.
func (c *Config) AppList() []string {
	var apps []string
	for _, name := range strings.Split(c.Apps, ",") {
		if name = strings.TrimSpace(name); name != "" {
			apps = append(apps, name)
		}
	}
	return apps
}

// Copy returns a deep copy of c.
func (c *Config) Copy() *Config {
	return deepcopy.Copy(c).(*Config)
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	for _, f := range c.ToFlags() {
		log.Infof("\t%s", f)
	}
}
