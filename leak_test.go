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
	"os"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/require"
)

// TestLeakFreedom is invariant 4 from spec.md §8: repeatedly constructing
// and destroying a handle must not grow process virtual memory beyond a
// bounded constant. RSS is sampled with gopsutil before and after 1000+
// construct/destroy cycles; a real leak of N bytes per cycle would dwarf
// the tolerance below.
func TestLeakFreedom(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping RSS-sampling leak test in -short mode")
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	require.NoError(t, err)

	n := MinLen()

	warmup, err := proc.MemoryInfo()
	require.NoError(t, err)
	_ = warmup

	const iterations = 1000
	for i := 0; i < 50; i++ {
		buf, err := New(n)
		require.NoError(t, err)
		require.NoError(t, buf.Close())
	}

	before, err := proc.MemoryInfo()
	require.NoError(t, err)

	for i := 0; i < iterations; i++ {
		buf, err := New(n)
		require.NoError(t, err)
		buf.SetByte(0, byte(i))
		require.NoError(t, buf.Close())
	}

	after, err := proc.MemoryInfo()
	require.NoError(t, err)

	// Tolerance: ten buffer-widths of slack for allocator/runtime noise
	// unrelated to the mapping itself (GC bookkeeping, gopsutil's own
	// allocations). A genuine per-iteration leak would be ~1000*n,
	// two orders of magnitude past this.
	tolerance := uint64(10 * n)
	if after.RSS > before.RSS+tolerance {
		t.Fatalf("RSS grew by %d bytes over %d iterations of New/Close(%d), want <= %d",
			after.RSS-before.RSS, iterations, n, tolerance)
	}
}
