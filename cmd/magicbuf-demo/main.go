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

// Command magicbuf-demo constructs one magicbuffer.Buffer, drives a
// small read/write loop against it to exercise the alias property, and
// serves Prometheus metrics plus a health/readiness endpoint while it
// runs. It is the thing that gives the library's domain dependencies
// (metrics, registry, health, retry) a concrete caller, since the core
// package itself takes none of them (spec.md §6: a single constructor
// taking N, no files, no network, no env vars, no CLI in the core).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/bytebufferpool"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	magicbuffer "github.com/sklose/magic-buffer"
	"github.com/sklose/magic-buffer/internal/metrics"
	"github.com/sklose/magic-buffer/internal/registry"
)

func main() {
	var (
		size       = flag.Int("size", magicbuffer.MinLen(), "logical capacity N of the demo buffer, in bytes")
		addr       = flag.String("addr", ":8089", "address for the metrics/health HTTP server")
		iterations = flag.Int("iterations", 0, "number of read/write loop iterations before exiting (0 = run until signaled)")
	)
	flag.Parse()

	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)
	tracer := metrics.NewTracer(nooptrace.NewTracerProvider().Tracer("magicbuf-demo"), nil)
	reg2 := registry.New()

	buf, err := constructWithRetry(*size, collectors, tracer)
	if err != nil {
		log.Fatalf("magicbuf-demo: failed to construct buffer of size %d: %v", *size, err)
	}
	id := reg2.Register(buf.Len())
	defer func() {
		collectors.RecordClose()
		reg2.Unregister(id)
		_ = buf.Close()
	}()

	health := healthcheck.NewHandler()
	health.AddReadinessCheck("buffer-mapped", func() error {
		if buf == nil {
			return fmt.Errorf("buffer not constructed")
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", health.LiveEndpoint)
	mux.HandleFunc("/readyz", health.ReadyEndpoint)
	mux.HandleFunc("/debug/buffers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reg2.Snapshot())
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("magicbuf-demo: http server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runLoop(ctx, buf, *iterations)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// constructWithRetry calls magicbuffer.New, retrying with exponential
// backoff on a transient OsAllocationError (the OS asked us to try
// again later rather than rejecting the request outright). InvalidLength
// is never retried since a retry cannot change the input.
func constructWithRetry(n int, collectors *metrics.Collectors, tracer *metrics.Tracer) (*magicbuffer.Buffer, error) {
	var buf *magicbuffer.Buffer
	op := func() error {
		_, end := tracer.StartConstruction(context.Background(), n)
		b, err := magicbuffer.New(n)
		end(err)
		if err != nil {
			var invalid *magicbuffer.InvalidLengthError
			if isInvalidLength(err, &invalid) {
				collectors.RecordFailure("InvalidLength")
				return backoff.Permanent(err)
			}
			collectors.RecordFailure(kindOf(err))
			return err
		}
		buf = b
		collectors.RecordCreate(n)
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return buf, nil
}

func isInvalidLength(err error, target **magicbuffer.InvalidLengthError) bool {
	if e, ok := err.(*magicbuffer.InvalidLengthError); ok {
		*target = e
		return true
	}
	return false
}

func kindOf(err error) string {
	switch err.(type) {
	case *magicbuffer.InvalidLengthError:
		return "InvalidLength"
	case *magicbuffer.OsAllocationError:
		return "OsAllocation"
	case *magicbuffer.OsMappingError:
		return "OsMapping"
	default:
		return "Unknown"
	}
}

// runLoop drives a read/write loop that exercises the alias property
// described in spec.md §8 scenario 1: every byte written at offset k is
// observable at offset k+N without the caller doing any split-buffer
// bookkeeping. Scratch buffers for the read side come from a
// bytebufferpool.Pool to keep the loop allocation-free in steady state.
func runLoop(ctx context.Context, buf *magicbuffer.Buffer, iterations int) {
	var pool bytebufferpool.Pool
	n := buf.Len()
	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if iterations > 0 && i >= iterations {
			return
		}

		off := i % n
		buf.SetByte(off, byte(i))

		scratch := pool.Get()
		scratch.Reset()
		_, _ = scratch.Write(buf.WindowStartingAt(off))
		pool.Put(scratch)

		i++
		if iterations == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
}
