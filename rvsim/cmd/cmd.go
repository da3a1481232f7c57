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

// Package cmd holds implementations of the rvsim commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"rvkernel.dev/rvkernel/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// are consumed by the caller that started rvsim.
var ErrorLogger io.Writer

// Fatalf logs to stderr and exits with a failure status code.
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warningf("FATAL ERROR: %s", msg)
	writeError(msg)
	// Return an error that is unlikely to be used by the application.
	os.Exit(128)
}

// Infof writes an informational message to stdout and the log.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func writeError(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	if ErrorLogger == nil {
		return
	}
	// Best effort; the process exits right after.
	_ = json.NewEncoder(ErrorLogger).Encode(struct {
		Msg   string    `json:"msg"`
		Level string    `json:"level"`
		Time  time.Time `json:"time"`
	}{
		Msg:   msg,
		Level: "error",
		Time:  time.Now(),
	})
}
