package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewFromRegistry(reg *prometheus.Registry) *Metrics {
	return New(reg)
}

// Module wires the prometheus registry and domain counters.
var Module = fx.Module("metrics",
	fx.Provide(NewRegistry),
	fx.Provide(NewFromRegistry),
)
