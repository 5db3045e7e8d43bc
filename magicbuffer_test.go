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
	"testing"
)

// TestAliasIdentity is scenario 1 from spec.md §8: writing a byte at
// offset k must be observable at offset k+N, and vice versa.
func TestAliasIdentity(t *testing.T) {
	n := MinLen()
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	buf.SetByte(0, 0xAB)
	if got := buf.Byte(n); got != 0xAB {
		t.Fatalf("Byte(%d) = %#x, want 0xAB", n, got)
	}

	buf.SetByte(2*n-1, 0xCD)
	if got := buf.Byte(n - 1); got != 0xCD {
		t.Fatalf("Byte(%d) = %#x, want 0xCD", n-1, got)
	}
}

// TestAliasIdentityAllOffsets exercises invariant 1 across every k, not
// just the boundary cases scenario 1 spells out.
func TestAliasIdentityAllOffsets(t *testing.T) {
	n := MinLen()
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	for k := 0; k < n; k++ {
		v := byte(k)
		buf.SetByte(k, v)
		if got := buf.Byte(k + n); got != v {
			t.Fatalf("offset %d: Byte(%d) = %#x, want %#x", k, k+n, got, v)
		}
	}
}

// TestSliceIdentity is scenario 2 from spec.md §8: the slice [1, N+1)
// ends with the same byte as offset 0.
func TestSliceIdentity(t *testing.T) {
	n := 65536
	if n < MinLen() {
		n = MinLen()
	}
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	buf.SetByte(0, 0x5A)
	window := buf.Slice(1, n+1)
	if got := window[len(window)-1]; got != 0x5A {
		t.Fatalf("last byte of Slice(1, %d) = %#x, want 0x5A", n+1, got)
	}
}

// TestSliceIdentityCyclicShift is invariant 2: [0, N) and [a, a+N) hold
// the same multiset of bytes, the latter a cyclic shift by a.
func TestSliceIdentityCyclicShift(t *testing.T) {
	n := MinLen()
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	for i := 0; i < n; i++ {
		buf.SetByte(i, byte(i))
	}

	a := n / 3
	shifted := buf.Slice(a, a+n)
	for i, got := range shifted {
		want := byte((a + i) % n)
		if got != want {
			t.Fatalf("shifted[%d] = %#x, want %#x", i, got, want)
		}
	}
}

// TestWindowHelpers exercises WindowStartingAt/WindowEndingAt, the
// original_source-derived RangeFrom/RangeTo equivalents.
func TestWindowHelpers(t *testing.T) {
	n := MinLen()
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	for i := 0; i < n; i++ {
		buf.SetByte(i, byte(i))
	}

	start := n - 3
	w := buf.WindowStartingAt(start)
	if len(w) != n {
		t.Fatalf("WindowStartingAt length = %d, want %d", len(w), n)
	}
	if w[0] != byte(start) {
		t.Fatalf("WindowStartingAt[0] = %#x, want %#x", w[0], byte(start))
	}
	if w[3] != 0 {
		t.Fatalf("WindowStartingAt[3] (post-wrap) = %#x, want 0x00", w[3])
	}

	end := 3
	w2 := buf.WindowEndingAt(end)
	if len(w2) != n {
		t.Fatalf("WindowEndingAt length = %d, want %d", len(w2), n)
	}
	if w2[len(w2)-1] != byte(end-1) {
		t.Fatalf("WindowEndingAt last = %#x, want %#x", w2[len(w2)-1], byte(end-1))
	}
}

// TestOverlengthSliceFatal is scenario 6: as_slice(0, 2N) must panic
// because 2N - 0 > N.
func TestOverlengthSliceFatal(t *testing.T) {
	n := MinLen()
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("Slice(0, 2N) did not panic")
		}
	}()
	_ = buf.Slice(0, 2*n)
}

func TestOutOfRangeByteFatal(t *testing.T) {
	n := MinLen()
	buf, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	defer buf.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("Byte(2N) did not panic")
		}
	}()
	_ = buf.Byte(2 * n)
}

func TestCloseIsIdempotent(t *testing.T) {
	buf, err := New(MinLen())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestUseAfterCloseFatal(t *testing.T) {
	buf, err := New(MinLen())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = buf.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("Byte after Close did not panic")
		}
	}()
	_ = buf.Byte(0)
}
