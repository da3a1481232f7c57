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

package metric

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"rvkernel.dev/rvkernel/pkg/prometheus"
)

func TestCounterFields(t *testing.T) {
	m := MustCreateNewUint64Metric("test_counter_fields", "A test counter.",
		NewField("op", []string{"read", "write"}),
		NewField("result", []string{"ok", "err"}))

	m.Increment("read", "ok")
	m.IncrementBy(4, "write", "err")
	m.Increment("write", "err")

	for _, tc := range []struct {
		op, result string
		want       uint64
	}{
		{"read", "ok", 1},
		{"read", "err", 0},
		{"write", "ok", 0},
		{"write", "err", 5},
	} {
		if got := m.Value(tc.op, tc.result); got != tc.want {
			t.Errorf("Value(%s, %s) = %d, want %d", tc.op, tc.result, got, tc.want)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	mapper, err := newFieldMapper(
		NewField("a", []string{"x", "y", "z"}),
		NewField("b", []string{"p", "q"}))
	if err != nil {
		t.Fatalf("newFieldMapper: %v", err)
	}
	if n := mapper.numKeys(); n != 6 {
		t.Fatalf("numKeys = %d, want 6", n)
	}
	seen := make(map[int]bool)
	for _, a := range []string{"x", "y", "z"} {
		for _, b := range []string{"p", "q"} {
			key := mapper.lookup(a, b)
			if seen[key] {
				t.Errorf("duplicate key %d", key)
			}
			seen[key] = true
			if diff := cmp.Diff(map[string]string{"a": a, "b": b}, mapper.keyToLabels(key)); diff != "" {
				t.Errorf("keyToLabels(%d) mismatch (-want +got):\n%s", key, diff)
			}
		}
	}
}

func TestRegistrationErrors(t *testing.T) {
	MustCreateNewUint64Metric("test_dup", "")
	if _, err := NewUint64Metric("test_dup", ""); err != ErrNameInUse {
		t.Errorf("duplicate name: got %v, want %v", err, ErrNameInUse)
	}
	if _, err := NewUint64Metric("test_no_values", "", NewField("f", nil)); err != ErrFieldHasNoAllowedValues {
		t.Errorf("empty field: got %v", err)
	}
	if _, err := NewUint64Metric("test_illegal", "", NewField("f", []string{`a"b`})); err != ErrFieldValueContainsIllegalChar {
		t.Errorf("illegal value: got %v", err)
	}
	many := make([]string, 100)
	for i := range many {
		many[i] = strings.Repeat("v", i+1)
	}
	if _, err := NewUint64Metric("test_too_many", "", NewField("a", many), NewField("b", many)); err != ErrTooManyFieldCombinations {
		t.Errorf("too many combinations: got %v", err)
	}
}

func TestBadFieldValuePanics(t *testing.T) {
	m := MustCreateNewUint64Metric("test_bad_value", "", NewField("f", []string{"ok"}))
	defer func() {
		if recover() == nil {
			t.Errorf("Increment with a disallowed value did not panic")
		}
	}()
	m.Increment("nope")
}

func TestGaugeDecrement(t *testing.T) {
	g := MustCreateNewUint64Gauge("test_gauge", "")
	g.IncrementBy(2)
	g.Decrement()
	g.Decrement()
	g.Decrement()
	if got := g.Value(); got != 0 {
		t.Errorf("gauge = %d, want 0", got)
	}
}

func TestSnapshotExports(t *testing.T) {
	m := MustCreateNewUint64Metric("test_snapshot", "Snapshot test.", NewField("k", []string{"a", "b"}))
	m.IncrementBy(7, "b")

	var buf bytes.Buffer
	if _, err := prometheus.Write(&buf, GetSnapshot(), prometheus.ExportOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE test_snapshot counter\n",
		`test_snapshot{k="a"} 0 `,
		`test_snapshot{k="b"} 7 `,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("snapshot output missing %q:\n%s", want, out)
		}
	}
}
