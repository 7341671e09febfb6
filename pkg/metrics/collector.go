// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wallet_gate"

// Collector owns a private registry and every gateway metric.
type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	tokenRefreshes   *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	signalsStored    *prometheus.CounterVec
	gateDecisions    *prometheus.CounterVec
}

// NewCollector registers all metrics on registry, or on a fresh registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Inbound requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Inbound request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound upstream calls by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound upstream call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Session token refresh attempts by result.",
		}, []string{"result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_responses_total",
			Help:      "Responses served from placeholder data by endpoint.",
		}, []string{"endpoint"}),
		signalsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_stored_total",
			Help:      "Signals accepted by category.",
		}, []string{"category"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Token gate decisions.",
		}, []string{"decision"}),
	}

	registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.upstreamRequests,
		c.upstreamDuration,
		c.tokenRefreshes,
		c.fallbacks,
		c.signalsStored,
		c.gateDecisions,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// RecordHTTP records one inbound request.
func (c *Collector) RecordHTTP(route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordUpstream implements proxy.Recorder.
func (c *Collector) RecordUpstream(upstream, outcome string, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(upstream, outcome).Inc()
	c.upstreamDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordRefresh implements auth.RefreshRecorder.
func (c *Collector) RecordRefresh(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.tokenRefreshes.WithLabelValues(result).Inc()
}

// RecordFallback counts a placeholder response.
func (c *Collector) RecordFallback(endpoint string) {
	c.fallbacks.WithLabelValues(endpoint).Inc()
}

// RecordSignal counts an accepted signal.
func (c *Collector) RecordSignal(category string) {
	c.signalsStored.WithLabelValues(category).Inc()
}

// RecordGate counts a gate decision.
func (c *Collector) RecordGate(granted bool) {
	decision := "denied"
	if granted {
		decision = "granted"
	}
	c.gateDecisions.WithLabelValues(decision).Inc()
}
