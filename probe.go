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

import (
	"fmt"
	"math/bits"
)

// maxAddressableLenShift bounds a single mapping half to a quarter of the
// addressable range of a uintptr, leaving headroom for the doubled
// mapping (2N) plus whatever else the process has already reserved.
const maxAddressableLenShift = 2

// MinLen returns the minimum valid buffer length on the current OS and
// architecture: the allocation granularity where the OS distinguishes it
// from the page size (Windows), or the page size otherwise (Linux,
// Darwin). This is platformMinLen, implemented per-OS in
// probe_linux.go, probe_darwin.go, probe_windows.go and probe_other.go.
func MinLen() int {
	return platformMinLen()
}

// Validate reports whether n is an acceptable buffer length: positive,
// a multiple of MinLen(), and small enough that doubling it still fits
// comfortably inside the addressable range.
//
// Power-of-two is not required, matching spec policy: only the
// allocation-granularity multiple is mandatory. A power-of-two n does
// get a faster masked index path in Buffer (see the mask field in buffer.go).
func Validate(n int) error {
	return validateAgainst(n, MinLen())
}

// validateAgainst is Validate's policy logic parameterized on the
// allocation-granularity floor, so tests can exercise the four platform
// profiles from spec.md §4.1 (Windows/x86_64 = 65536, Linux/x86_64 =
// 4096, Darwin/x86_64 = 4096, Darwin/aarch64 = 16384) without needing to
// run on each OS/architecture.
func validateAgainst(n, min int) error {
	if n <= 0 {
		return &InvalidLengthError{Len: n, Reason: "length must be greater than 0"}
	}

	if n%min != 0 {
		return &InvalidLengthError{
			Len:    n,
			Reason: fmt.Sprintf("length must be a multiple of the platform allocation granularity (%d)", min),
		}
	}

	maxLen := 1 << (bits.UintSize - maxAddressableLenShift)
	if uint(n) > uint(maxLen) {
		return &InvalidLengthError{Len: n, Reason: "length exceeds a quarter of the addressable range"}
	}

	return nil
}
