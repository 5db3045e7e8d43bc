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

// Package magicbuffer provides a "magic" (mirrored) ring buffer: a
// contiguous byte buffer of fixed capacity N whose backing physical pages
// are mapped twice, back to back, into the process's virtual address
// space. Offsets in [0, 2N) are all valid, and offset N+k observes the
// same byte as offset k for every k in [0, N). Any window of N contiguous
// bytes starting anywhere in [0, N) can therefore be treated as a flat
// slice, without the split-buffer bookkeeping a plain ring buffer needs.
//
// The hard part is platform-specific: constructing two virtual ranges
// that alias the same physical pages, with correct teardown on every
// failure path, on Linux, Darwin and Windows. That construction lives in
// the unexported mapDouble implementations in this package; Buffer is the
// thin, safe facade around it.
//
// Buffer owns its mapping exclusively. It is not safe to share a *Buffer
// across goroutines without external synchronization beyond what the
// aliasing itself provides: concurrent writes to the same byte are a data
// race regardless of how many virtual addresses observe it.
package magicbuffer
