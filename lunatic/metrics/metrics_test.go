//go:build !integration

package metrics_test

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/metrics"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm"
)

func TestInstruments_ReportToHost(t *testing.T) {
	v := lunatictest.NewVM(t)
	var attrErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		meter := metrics.NewMeter(inst, "http")
		defer meter.Drop()

		requests := meter.Counter("requests", metrics.Description("handled requests"))
		assert.Check(t, requests.Add(1, metrics.Attributes{"route": "/users"}))
		assert.Check(t, requests.Add(2, nil))
		assert.Check(t, requests.Add(-5, nil))

		inflight := meter.UpDownCounter("inflight")
		assert.Check(t, inflight.Add(3, nil))
		assert.Check(t, inflight.Add(-1, nil))

		latency := meter.Histogram("latency", metrics.Unit("ms"))
		assert.Check(t, latency.Record(12.5, nil))
		assert.Check(t, latency.Record(7.5, metrics.Attributes{"status": 200}))

		attrErr = latency.Record(1, metrics.Attributes{"bad": func() {}})
	}, lunatictest.On(v))

	ignore := cmpopts.IgnoreFields(vm.MetricSample{}, "Attributes")
	assert.DeepEqual(t, v.Metrics(), []vm.MetricSample{
		{Meter: "http", Name: "requests", Description: "handled requests", Kind: vm.Counter, Sum: 3, Count: 2},
		{Meter: "http", Name: "inflight", Kind: vm.UpDownCounter, Sum: 2, Count: 2},
		{Meter: "http", Name: "latency", Unit: "ms", Kind: vm.Histogram, Sum: 20, Count: 2},
	}, ignore)

	requests, _ := v.Metric("requests")
	assert.Assert(t, requests.Attributes == nil)
	latency, _ := v.Metric("latency")
	assert.DeepEqual(t, latency.Attributes, map[string]any{"status": float64(200)})
	assert.ErrorContains(t, attrErr, "encode attributes")
}

func TestDroppedInstrument_KeepsLastSample(t *testing.T) {
	v := lunatictest.NewVM(t)

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		c := metrics.NewMeter(inst, "jobs").Counter("done")
		assert.Check(t, c.Add(4, metrics.Attributes{"queue": "default"}))
		c.Drop()
	}, lunatictest.On(v))

	done, ok := v.Metric("done")
	assert.Assert(t, ok)
	assert.Equal(t, done.Sum, 4.0)
	assert.DeepEqual(t, done.Attributes, map[string]any{"queue": "default"})
}
