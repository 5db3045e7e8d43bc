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

// Package registry tracks live magicbuffer.Buffer handles for leak
// diagnostics and the demo command's /debug/buffers introspection
// endpoint. It is not part of the core: the core handle is a passive
// value with no registry hook of its own (spec.md §5, "ownership is
// exclusive"), so registration is something a caller opts into, the way
// the demo command does.
package registry

import (
	"strconv"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Entry describes one live registration.
type Entry struct {
	ID        uint64
	Len       int
	CreatedAt time.Time
}

// Registry is a concurrent-safe table of live entries keyed by a
// monotonic ID string. Safe for use from multiple goroutines without
// external locking, backed by concurrent-map's sharded map.
type Registry struct {
	entries cmap.ConcurrentMap[string, Entry]
	nextID  atomic.Uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: cmap.New[Entry]()}
}

// Register records a new live handle of the given logical length and
// returns the ID it was assigned; pass this ID to Unregister on Close.
func (r *Registry) Register(length int) uint64 {
	id := r.nextID.Add(1)
	r.entries.Set(keyOf(id), Entry{ID: id, Len: length, CreatedAt: time.Now()})
	return id
}

// Unregister removes the entry for id. A no-op if id is not present
// (e.g. double Close, or an id from a different Registry).
func (r *Registry) Unregister(id uint64) {
	r.entries.Remove(keyOf(id))
}

// Len returns the number of currently-registered handles.
func (r *Registry) Len() int {
	return r.entries.Count()
}

// Snapshot returns a copy of every currently-registered entry, for the
// demo's /debug/buffers handler.
func (r *Registry) Snapshot() []Entry {
	items := r.entries.Items()
	out := make([]Entry, 0, len(items))
	for _, e := range items {
		out = append(out, e)
	}
	return out
}

func keyOf(id uint64) string {
	return strconv.FormatUint(id, 10)
}
