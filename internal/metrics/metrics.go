/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics instruments uses of the magicbuffer core from outside
// the core package itself. The core's factory surface is a single
// constructor taking N (magicbuffer.New); it has no Meter/Tracer fields
// to thread through, unlike the teacher's pkg/shm.Config. So instead of
// widening New's signature, this package wraps call sites: the demo
// command records around its calls to New/Close rather than the core
// recording internally.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Collectors holds the Prometheus series this package registers. Every
// method is nil-receiver safe, so callers that don't care about metrics
// can pass around a nil *Collectors instead of a no-op implementation.
type Collectors struct {
	Created        prometheus.Counter
	ActiveGauge    prometheus.Gauge
	BytesMapped    prometheus.Counter
	FailuresByKind *prometheus.CounterVec
}

// NewCollectors registers the magicbuffer series on reg and returns the
// handles used to update them. Mirrors the teacher's convention of a
// small struct of bound prometheus.Collector fields built once at
// startup (plugin-shm historically wired client_golang the same way
// through pkg/shm.Config).
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "magicbuffer",
			Name:      "buffers_created_total",
			Help:      "Number of magicbuffer.Buffer values successfully constructed.",
		}),
		ActiveGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "magicbuffer",
			Name:      "buffers_active",
			Help:      "Number of magicbuffer.Buffer values currently live (constructed, not yet closed).",
		}),
		BytesMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "magicbuffer",
			Name:      "bytes_mapped_total",
			Help:      "Cumulative 2N bytes of virtual address space mapped across all constructions.",
		}),
		FailuresByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magicbuffer",
			Name:      "construction_failures_total",
			Help:      "Failed calls to magicbuffer.New, labeled by error kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.Created, c.ActiveGauge, c.BytesMapped, c.FailuresByKind)
	return c
}

// RecordCreate updates the series for a successful construction of
// length n.
func (c *Collectors) RecordCreate(n int) {
	if c == nil {
		return
	}
	c.Created.Inc()
	c.ActiveGauge.Inc()
	c.BytesMapped.Add(float64(2 * n))
}

// RecordClose updates the series for a Close of a previously recorded
// Buffer.
func (c *Collectors) RecordClose() {
	if c == nil {
		return
	}
	c.ActiveGauge.Dec()
}

// RecordFailure records a failed construction, labeled by the error kind
// the caller passes (InvalidLength, OsAllocation, OsMapping).
func (c *Collectors) RecordFailure(kind string) {
	if c == nil {
		return
	}
	c.FailuresByKind.WithLabelValues(kind).Inc()
}

// Tracer wraps an OpenTelemetry tracer for the one span this package
// emits: a single call to magicbuffer.New. Close is not traced.
type Tracer struct {
	tracer trace.Tracer
	meter  metric.Meter
}

// NewTracer builds a Tracer bound to the given otel tracer and meter.
// A nil tracer makes StartConstruction a no-op. The meter may be nil; it
// is stored but no method records through it.
func NewTracer(tracer trace.Tracer, meter metric.Meter) *Tracer {
	return &Tracer{tracer: tracer, meter: meter}
}

// StartConstruction opens a span covering a call to magicbuffer.New. The
// caller must call the returned end function after New returns,
// regardless of outcome.
func (t *Tracer) StartConstruction(ctx context.Context, n int) (context.Context, func(err error)) {
	if t == nil || t.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, "magicbuffer.New")
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}
