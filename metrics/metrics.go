// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics gives package wide access to meters. Until
// InitializePrometheusMetrics is called every meter is a no-op.
package metrics

import (
	"net/http"
	"sync"
)

var (
	mu      sync.RWMutex
	backend Metrics = noopMetrics{}
)

// Metrics is a meter backend.
type Metrics interface {
	CounterVec(name string, labels []string) CounterVecMeter
	GaugeVec(name string, labels []string) GaugeVecMeter
	HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter
	Handler() http.Handler
}

func current() Metrics {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// HTTPHandler serves the metrics of the active backend. It is nil for the no-op backend.
func HTTPHandler() http.Handler {
	return current().Handler()
}

var (
	// BucketHTTPReqs buckets request latencies in milliseconds.
	BucketHTTPReqs = []int64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}
	// BucketDelivery buckets effect delivery latencies in milliseconds.
	BucketDelivery = []int64{0, 5, 10, 50, 100, 500, 1000, 5000, 10_000, 30_000}
)

// CounterMeter only goes up.
type CounterMeter interface {
	Add(int64)
}

type CounterVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// GaugeMeter can arbitrarily go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

type GaugeVecMeter interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

func CounterVec(name string, labels []string) CounterVecMeter {
	return current().CounterVec(name, labels)
}

func GaugeVec(name string, labels []string) GaugeVecMeter {
	return current().GaugeVec(name, labels)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return current().HistogramVec(name, labels, buckets)
}

// Counter is a CounterVec without labels.
func Counter(name string) CounterMeter {
	return unlabeledCounter{CounterVec(name, nil)}
}

// Gauge is a GaugeVec without labels.
func Gauge(name string) GaugeMeter {
	return unlabeledGauge{GaugeVec(name, nil)}
}

type unlabeledCounter struct{ CounterVecMeter }

func (c unlabeledCounter) Add(n int64) { c.AddWithLabel(n, nil) }

type unlabeledGauge struct{ GaugeVecMeter }

func (g unlabeledGauge) Add(n int64) { g.AddWithLabel(n, nil) }
func (g unlabeledGauge) Set(n int64) { g.SetWithLabel(n, nil) }

// LazyLoad defers creating a meter to its first use, so package level meters
// bind to the backend chosen at startup.
func LazyLoad[T any](f func() T) func() T {
	return sync.OnceValue(f)
}

func LazyLoadCounter(name string) func() CounterMeter {
	return LazyLoad(func() CounterMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CounterVecMeter {
	return LazyLoad(func() CounterVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return GaugeVec(name, labels) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
