package vm

import (
	"encoding/json"
	"fmt"
	"sync"
)

type InstrumentKind uint8

const (
	Counter InstrumentKind = iota + 1
	UpDownCounter
	Histogram
)

func (k InstrumentKind) String() string {
	switch k {
	case Counter:
		return "counter"
	case UpDownCounter:
		return "up_down_counter"
	case Histogram:
		return "histogram"
	default:
		return fmt.Sprintf("InstrumentKind(%d)", uint8(k))
	}
}

// MetricSample is the state of one instrument.
type MetricSample struct {
	Meter       string
	Name        string
	Description string
	Unit        string
	Kind        InstrumentKind
	// Sum of everything added or recorded.
	Sum float64
	// Number of adds or records.
	Count uint64
	// Attributes of the last add or record.
	Attributes map[string]any
}

type instrument struct {
	MetricSample
	dropped bool
}

// metricsTable aggregates what guests report through lunatic::metrics.
type metricsTable struct {
	mx          sync.Mutex
	nextID      uint64
	meters      map[uint64]string
	instruments map[uint64]*instrument
	order       []uint64
}

func newMetricsTable() *metricsTable {
	return &metricsTable{
		meters:      make(map[uint64]string),
		instruments: make(map[uint64]*instrument),
	}
}

func (t *metricsTable) meter(name string) uint64 {
	t.mx.Lock()
	defer t.mx.Unlock()

	t.nextID++
	t.meters[t.nextID] = name
	return t.nextID
}

func (t *metricsTable) dropMeter(id uint64) {
	t.mx.Lock()
	defer t.mx.Unlock()
	delete(t.meters, id)
}

func (t *metricsTable) instrument(meterID uint64, kind InstrumentKind, name, description, unit string) uint64 {
	t.mx.Lock()
	defer t.mx.Unlock()

	meter, ok := t.meters[meterID]
	if !ok {
		panic(fmt.Sprintf("meter id %d not found", meterID))
	}
	t.nextID++
	t.instruments[t.nextID] = &instrument{MetricSample: MetricSample{
		Meter:       meter,
		Name:        name,
		Description: description,
		Unit:        unit,
		Kind:        kind,
	}}
	t.order = append(t.order, t.nextID)
	return t.nextID
}

// dropInstrument stops updates to [id]; its last state stays visible in [VM.Metrics].
func (t *metricsTable) dropInstrument(id uint64) {
	t.mx.Lock()
	defer t.mx.Unlock()
	if ins, ok := t.instruments[id]; ok {
		ins.dropped = true
	}
}

func (t *metricsTable) record(id uint64, kind InstrumentKind, value float64, attributes []byte) {
	var attrs map[string]any
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &attrs); err != nil {
			panic(fmt.Sprintf("metrics attributes: %v", err))
		}
	}

	t.mx.Lock()
	defer t.mx.Unlock()

	ins, ok := t.instruments[id]
	if !ok || ins.dropped || ins.Kind != kind {
		panic(fmt.Sprintf("%s id %d not found", kind, id))
	}
	if kind == Counter && value < 0 {
		return
	}
	ins.Sum += value
	ins.Count++
	ins.Attributes = attrs
}

// Metrics returns every instrument created on this VM, in creation order.
func (vm *VM) Metrics() []MetricSample {
	t := vm.metrics
	t.mx.Lock()
	defer t.mx.Unlock()

	out := make([]MetricSample, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.instruments[id].MetricSample)
	}
	return out
}

// Metric returns the sample of the instrument called [name], if any.
func (vm *VM) Metric(name string) (MetricSample, bool) {
	samples := vm.Metrics()
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Name == name {
			return samples[i], true
		}
	}
	return MetricSample{}, false
}
