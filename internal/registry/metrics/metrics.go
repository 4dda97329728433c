package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	WritesTotal        prometheus.Counter
	WriteFailuresTotal *prometheus.CounterVec
	HookFailuresTotal  prometheus.Counter
	LoadsTotal         prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		WritesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "asset_registry_writes_total",
			Help: "Total number of asset records persisted",
		}),
		WriteFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_registry_write_failures_total",
			Help: "Total number of rejected writes by failure code",
		}, []string{"code"}),
		HookFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "asset_registry_hook_failures_total",
			Help: "Total number of post-commit hook failures",
		}),
		LoadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "asset_registry_loads_total",
			Help: "Total number of record loads",
		}),
	}
}

func (m *Metrics) IncrementWrites() {
	if m != nil {
		m.WritesTotal.Inc()
	}
}

func (m *Metrics) IncrementWriteFailures(code string) {
	if m != nil {
		m.WriteFailuresTotal.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncrementHookFailures() {
	if m != nil {
		m.HookFailuresTotal.Inc()
	}
}

func (m *Metrics) IncrementLoads() {
	if m != nil {
		m.LoadsTotal.Inc()
	}
}
