// Package metrics reports measurements to the host's metrics pipeline.
//
// A [Meter] groups instruments. Counters only go up, up-down counters go
// both ways and histograms record a distribution. Every measurement can carry
// attributes, which travel to the host as a JSON object.
package metrics

import (
	"encoding/json"
	"fmt"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
)

// Attributes describe a single measurement, for example {"route": "/users"}.
type Attributes map[string]any

func (a Attributes) encode() ([]byte, error) {
	if len(a) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("metrics: encode attributes: %w", err)
	}
	return data, nil
}

type Meter struct {
	inst *lunatic.Instance
	id   uint64
	name string
}

func NewMeter(inst *lunatic.Instance, name string) *Meter {
	return &Meter{inst: inst, id: inst.ABI().MetricsMeter(name), name: name}
}

func (m *Meter) Name() string {
	return m.name
}

// Drop releases the meter. Instruments created from it keep working.
func (m *Meter) Drop() {
	m.inst.ABI().MetricsMeterDrop(m.id)
}

type instrumentOptions struct {
	description string
	unit        string
}

type InstrumentOpt func(o instrumentOptions) instrumentOptions

func Description(d string) InstrumentOpt {
	return func(o instrumentOptions) instrumentOptions {
		o.description = d
		return o
	}
}

// Unit sets the unit of the measurements, for example "ms" or "By".
func Unit(u string) InstrumentOpt {
	return func(o instrumentOptions) instrumentOptions {
		o.unit = u
		return o
	}
}

func buildOptions(opts []InstrumentOpt) instrumentOptions {
	var o instrumentOptions
	for _, opt := range opts {
		o = opt(o)
	}
	return o
}

// Counter is a monotonic sum.
type Counter struct {
	inst *lunatic.Instance
	id   uint64
}

func (m *Meter) Counter(name string, opts ...InstrumentOpt) *Counter {
	o := buildOptions(opts)
	return &Counter{inst: m.inst, id: m.inst.ABI().MetricsCounter(m.id, name, o.description, o.unit)}
}

// Add increments the counter by [v]. Negative values are ignored by the host.
func (c *Counter) Add(v float64, attrs Attributes) error {
	data, err := attrs.encode()
	if err != nil {
		return err
	}
	c.inst.ABI().MetricsAdd(c.id, v, data)
	return nil
}

func (c *Counter) Drop() {
	c.inst.ABI().MetricsCounterDrop(c.id)
}

// UpDownCounter is a sum that can go down, such as the length of a queue.
type UpDownCounter struct {
	inst *lunatic.Instance
	id   uint64
}

func (m *Meter) UpDownCounter(name string, opts ...InstrumentOpt) *UpDownCounter {
	o := buildOptions(opts)
	return &UpDownCounter{inst: m.inst, id: m.inst.ABI().MetricsUpDownCounter(m.id, name, o.description, o.unit)}
}

func (c *UpDownCounter) Add(v float64, attrs Attributes) error {
	data, err := attrs.encode()
	if err != nil {
		return err
	}
	c.inst.ABI().MetricsUpDownCounterAdd(c.id, v, data)
	return nil
}

func (c *UpDownCounter) Drop() {
	c.inst.ABI().MetricsUpDownCounterDrop(c.id)
}

type Histogram struct {
	inst *lunatic.Instance
	id   uint64
}

func (m *Meter) Histogram(name string, opts ...InstrumentOpt) *Histogram {
	o := buildOptions(opts)
	return &Histogram{inst: m.inst, id: m.inst.ABI().MetricsHistogram(m.id, name, o.description, o.unit)}
}

// Record adds [v] to the distribution.
func (h *Histogram) Record(v float64, attrs Attributes) error {
	data, err := attrs.encode()
	if err != nil {
		return err
	}
	h.inst.ABI().MetricsRecord(h.id, v, data)
	return nil
}

func (h *Histogram) Drop() {
	h.inst.ABI().MetricsHistogramDrop(h.id)
}
