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

package magicbuffer

// mapping is what a platform-specific mapDouble returns on success: a
// byte slice of length 2*n backed by the doubled virtual range (mem[k]
// and mem[k+n] alias the same physical byte for every k in [0, n)), and
// a release hook that undoes the mapping exactly once.
//
// release must be infallible from the caller's perspective: any OS error
// encountered while tearing down is reported through internal/diag and
// otherwise swallowed, because destruction happens in Buffer.Close, which
// has no meaningful way to propagate a failure.
type mapping struct {
	mem     []byte
	release func()
}

// mapDouble is implemented once per OS family: mapper_linux.go,
// mapper_darwin.go, mapper_windows.go, and mapper_unsupported.go as the
// fallback for every other GOOS. n has already passed Validate.
var mapDouble func(n int) (*mapping, error)
