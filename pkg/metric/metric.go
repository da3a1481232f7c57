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

// Package metric provides primitives for collecting kernel metrics.
package metric

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/prometheus"
	"rvkernel.dev/rvkernel/pkg/sync"
)

var (
	// ErrNameInUse indicates that another metric is already defined for
	// the given name.
	ErrNameInUse = errors.New("metric name already in use")

	// ErrFieldValueContainsIllegalChar indicates that the value of a metric
	// field had an invalid character in it.
	ErrFieldValueContainsIllegalChar = errors.New("metric field value contains illegal character")

	// ErrFieldHasNoAllowedValues indicates that the field needs to define some
	// allowed values to be a valid and useful field.
	ErrFieldHasNoAllowedValues = errors.New("metric field does not define any allowed values")

	// ErrTooManyFieldCombinations indicates that the number of unique
	// combinations of fields is too large to support.
	ErrTooManyFieldCombinations = errors.New("metric has too many combinations of allowed field values")
)

// maxFieldCombinations bounds the counter array of a single metric.
const maxFieldCombinations = 1 << 12

// Field contains the field name and allowed values for the metric which is
// used in registration of the metric.
type Field struct {
	// name is the metric field name.
	name string

	// allowedValues is the list of allowed values for the field.
	allowedValues []string
}

// NewField defines a new Field that can be used to break down a metric.
func NewField(name string, allowedValues []string) Field {
	return Field{
		name:          name,
		allowedValues: allowedValues,
	}
}

// fieldMapper maps multi-dimensional field values to a single unique integer
// key, and back.
type fieldMapper struct {
	fields []Field
}

func newFieldMapper(fields ...Field) (fieldMapper, error) {
	n := 1
	for _, f := range fields {
		if len(f.allowedValues) == 0 {
			return fieldMapper{}, ErrFieldHasNoAllowedValues
		}
		for _, v := range f.allowedValues {
			if strings.ContainsAny(v, "\"\\\n") {
				return fieldMapper{}, ErrFieldValueContainsIllegalChar
			}
		}
		n *= len(f.allowedValues)
		if n > maxFieldCombinations {
			return fieldMapper{}, ErrTooManyFieldCombinations
		}
	}
	return fieldMapper{fields: fields}, nil
}

// numKeys returns the total number of field value combinations.
func (m fieldMapper) numKeys() int {
	n := 1
	for _, f := range m.fields {
		n *= len(f.allowedValues)
	}
	return n
}

// lookup returns the key for the given field values.
//
// Panics if the number of values does not match the number of fields, or if
// a value is not allowed.
func (m fieldMapper) lookup(values ...string) int {
	if len(values) != len(m.fields) {
		panic(fmt.Sprintf("got %d field values, want %d", len(values), len(m.fields)))
	}
	key := 0
	for i, f := range m.fields {
		idx := -1
		for j, allowed := range f.allowedValues {
			if allowed == values[i] {
				idx = j
				break
			}
		}
		if idx < 0 {
			panic(fmt.Sprintf("field %q: value %q is not allowed", f.name, values[i]))
		}
		key = key*len(f.allowedValues) + idx
	}
	return key
}

// keyToLabels reverses lookup.
func (m fieldMapper) keyToLabels(key int) map[string]string {
	if len(m.fields) == 0 {
		return nil
	}
	labels := make(map[string]string, len(m.fields))
	for i := len(m.fields) - 1; i >= 0; i-- {
		f := m.fields[i]
		labels[f.name] = f.allowedValues[key%len(f.allowedValues)]
		key /= len(f.allowedValues)
	}
	return labels
}

// Uint64Metric encapsulates a uint64 that represents some kind of metric to be
// monitored, optionally broken down by fields.
type Uint64Metric struct {
	metadata prometheus.Metric

	// fields holds one counter per field-value combination.
	fields []atomic.Uint64

	fieldMapper fieldMapper
}

// registry holds every metric created in this process.
var registry struct {
	mu      sync.Mutex
	metrics map[string]*Uint64Metric
}

// NewUint64Metric creates and registers a new cumulative metric. If fields
// are given, each combination of allowed values gets its own counter.
func NewUint64Metric(name, description string, fields ...Field) (*Uint64Metric, error) {
	return newUint64Metric(name, prometheus.TypeCounter, description, fields...)
}

// NewUint64Gauge creates and registers a new metric whose value may go down.
func NewUint64Gauge(name, description string, fields ...Field) (*Uint64Metric, error) {
	return newUint64Metric(name, prometheus.TypeGauge, description, fields...)
}

func newUint64Metric(name string, typ prometheus.Type, description string, fields ...Field) (*Uint64Metric, error) {
	mapper, err := newFieldMapper(fields...)
	if err != nil {
		return nil, err
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.metrics[name]; ok {
		return nil, ErrNameInUse
	}
	m := &Uint64Metric{
		metadata:    prometheus.Metric{Name: name, Type: typ, Help: description},
		fields:      make([]atomic.Uint64, mapper.numKeys()),
		fieldMapper: mapper,
	}
	if registry.metrics == nil {
		registry.metrics = make(map[string]*Uint64Metric)
	}
	registry.metrics[name] = m
	return m, nil
}

// MustCreateNewUint64Metric calls NewUint64Metric and panics if it returns
// an error.
func MustCreateNewUint64Metric(name, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Metric(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("Unable to create metric %q: %s", name, err))
	}
	return m
}

// MustCreateNewUint64Gauge calls NewUint64Gauge and panics if it returns an
// error.
func MustCreateNewUint64Gauge(name, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Gauge(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("Unable to create metric %q: %s", name, err))
	}
	return m
}

// Name returns the metric name.
func (m *Uint64Metric) Name() string {
	return m.metadata.Name
}

// Value returns the current value of the metric for the given set of fields.
func (m *Uint64Metric) Value(fieldValues ...string) uint64 {
	return m.fields[m.fieldMapper.lookup(fieldValues...)].Load()
}

// Increment increments the metric field by 1.
func (m *Uint64Metric) Increment(fieldValues ...string) {
	m.IncrementBy(1, fieldValues...)
}

// IncrementBy increments the metric by v.
func (m *Uint64Metric) IncrementBy(v uint64, fieldValues ...string) {
	m.fields[m.fieldMapper.lookup(fieldValues...)].Add(v)
}

// Decrement decrements a gauge by 1. It never wraps below zero.
func (m *Uint64Metric) Decrement(fieldValues ...string) {
	if m.metadata.Type != prometheus.TypeGauge {
		panic(fmt.Sprintf("Decrement on counter %q", m.metadata.Name))
	}
	c := &m.fields[m.fieldMapper.lookup(fieldValues...)]
	for {
		old := c.Load()
		if old == 0 {
			log.Warningf("Gauge %q decremented below zero", m.metadata.Name)
			return
		}
		if c.CompareAndSwap(old, old-1) {
			return
		}
	}
}

// data returns one prometheus data point per field-value combination.
func (m *Uint64Metric) data() []*prometheus.Data {
	out := make([]*prometheus.Data, 0, len(m.fields))
	for key := range m.fields {
		out = append(out, prometheus.LabeledIntData(&m.metadata, m.fieldMapper.keyToLabels(key), int64(m.fields[key].Load())))
	}
	return out
}

// GetSnapshot returns a snapshot of every registered metric, in name order.
func GetSnapshot() *prometheus.Snapshot {
	registry.mu.Lock()
	names := make([]string, 0, len(registry.metrics))
	for name := range registry.metrics {
		names = append(names, name)
	}
	metrics := make([]*Uint64Metric, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		metrics = append(metrics, registry.metrics[name])
	}
	registry.mu.Unlock()

	s := prometheus.NewSnapshot()
	for _, m := range metrics {
		s.Add(m.data()...)
	}
	return s
}
