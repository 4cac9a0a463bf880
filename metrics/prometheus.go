// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fluxprotocol/oracle/log"
)

const namespace = "flux_oracle"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the backend to prometheus. Calling it
// again keeps the existing registry.
func InitializePrometheusMetrics() {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := backend.(*prometheusMetrics); !ok {
		backend = newPrometheusMetrics()
	}
}

// Gatherer returns the prometheus registry, nil if prometheus is not enabled.
func Gatherer() prometheus.Gatherer {
	if p, ok := current().(*prometheusMetrics); ok {
		return p.registry
	}
	return nil
}

type prometheusMetrics struct {
	registry   *prometheus.Registry
	counters   sync.Map
	gauges     sync.Map
	histograms sync.Map
}

func newPrometheusMetrics() *prometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &prometheusMetrics{registry: registry}
}

// register adds c to the registry, or returns the collector already registered under the same name.
func (p *prometheusMetrics) register(c prometheus.Collector) prometheus.Collector {
	if err := p.registry.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		logger.Warn("unable to register metric", "err", err)
	}
	return c
}

func (p *prometheusMetrics) CounterVec(name string, labels []string) CounterVecMeter {
	if m, ok := p.counters.Load(name); ok {
		return m.(CounterVecMeter)
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
	m, _ := p.counters.LoadOrStore(name, &promCounter{p.register(vec).(*prometheus.CounterVec)})
	return m.(CounterVecMeter)
}

func (p *prometheusMetrics) GaugeVec(name string, labels []string) GaugeVecMeter {
	if m, ok := p.gauges.Load(name); ok {
		return m.(GaugeVecMeter)
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
	m, _ := p.gauges.LoadOrStore(name, &promGauge{p.register(vec).(*prometheus.GaugeVec)})
	return m.(GaugeVecMeter)
}

func (p *prometheusMetrics) HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	if m, ok := p.histograms.Load(name); ok {
		return m.(HistogramVecMeter)
	}
	floatBuckets := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		floatBuckets = append(floatBuckets, float64(b))
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: floatBuckets}, labels)
	m, _ := p.histograms.LoadOrStore(name, &promHistogram{p.register(vec).(*prometheus.HistogramVec)})
	return m.(HistogramVecMeter)
}

func (p *prometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

type promCounter struct{ vec *prometheus.CounterVec }

func (c *promCounter) AddWithLabel(n int64, labels map[string]string) {
	c.vec.With(labels).Add(float64(n))
}

type promGauge struct{ vec *prometheus.GaugeVec }

func (g *promGauge) AddWithLabel(n int64, labels map[string]string) {
	g.vec.With(labels).Add(float64(n))
}

func (g *promGauge) SetWithLabel(n int64, labels map[string]string) {
	g.vec.With(labels).Set(float64(n))
}

type promHistogram struct{ vec *prometheus.HistogramVec }

func (h *promHistogram) ObserveWithLabels(n int64, labels map[string]string) {
	h.vec.With(labels).Observe(float64(n))
}
