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
	"sync/atomic"
)

// Buffer is the safe facade over a platform-specific double mapping: a
// 2N-byte virtual range whose two N-byte halves alias the same physical
// pages. It owns its mapping exclusively; copying a Buffer by value would
// produce two handles racing to release the same mapping, so callers
// must pass *Buffer (mirroring the reference implementation's exclusive,
// non-reference-counted ownership — see spec.md §9).
type Buffer struct {
	mem     []byte // len(mem) == 2*length; mem[k] aliases mem[k+length]
	length  int
	mask    int  // length-1 when length is a power of two, else unused
	powTwo  bool
	release func()
	closed  atomic.Bool
}

// New allocates a Buffer of logical capacity n. n must satisfy Validate:
// positive, a multiple of MinLen(), and within the addressable range.
//
// On success the returned Buffer's virtual range is fully committed: the
// first n bytes and the second n bytes are the same physical pages. On
// failure no address-space changes remain (spec.md §4.2's atomicity
// requirement for every platform strategy).
func New(n int) (*Buffer, error) {
	if err := Validate(n); err != nil {
		return nil, err
	}

	m, err := mapDouble(n)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		mem:     m.mem,
		length:  n,
		release: m.release,
	}
	if n&(n-1) == 0 {
		b.powTwo = true
		b.mask = n - 1
	}
	return b, nil
}

// Len returns the buffer's logical capacity N.
func (b *Buffer) Len() int {
	return b.length
}

// wrap folds an arbitrary offset, negative or not, into [0, length).
func (b *Buffer) wrap(i int) int {
	if b.powTwo {
		return i & b.mask
	}
	r := i % b.length
	if r < 0 {
		r += b.length
	}
	return r
}

// Byte returns the byte at offset i, i in [0, 2N). Out-of-range i is a
// programmer error and panics, per spec.md §7 ("accessor out-of-bounds
// is a programmer error and aborts, not a recoverable error kind").
func (b *Buffer) Byte(i int) byte {
	b.checkClosed()
	if i < 0 || i >= 2*b.length {
		panic(fmt.Sprintf("magicbuffer: index %d out of range [0, %d)", i, 2*b.length))
	}
	return b.mem[i]
}

// SetByte writes v at offset i, i in [0, 2N). Out-of-range i panics.
func (b *Buffer) SetByte(i int, v byte) {
	b.checkClosed()
	if i < 0 || i >= 2*b.length {
		panic(fmt.Sprintf("magicbuffer: index %d out of range [0, %d)", i, 2*b.length))
	}
	b.mem[i] = v
}

// Slice returns a borrowed window [a, b) into the mapping. It must hold
// that 0 <= a <= b <= 2N and b-a <= N; violating either is a programmer
// error and panics (spec.md §3, §4.3, §8 scenario 6). The returned slice
// aliases the buffer's memory directly: writes through it are visible
// through the buffer and vice versa, and it is only valid for the
// buffer's lifetime.
func (b *Buffer) Slice(a, end int) []byte {
	b.checkClosed()
	if a < 0 || a > end || end > 2*b.length {
		panic(fmt.Sprintf("magicbuffer: invalid range [%d, %d) for capacity %d", a, end, 2*b.length))
	}
	if end-a > b.length {
		panic(fmt.Sprintf("magicbuffer: slice length %d exceeds buffer capacity %d", end-a, b.length))
	}
	return b.mem[a:end]
}

// WindowStartingAt returns the N-byte window beginning at start, wrapping
// start into [0, N) first. This is the Go equivalent of the reference
// implementation's RangeFrom index (original_source/src/lib.rs,
// src/win.rs): "give me a full window, wherever it starts".
func (b *Buffer) WindowStartingAt(start int) []byte {
	s := b.wrap(start)
	return b.Slice(s, s+b.length)
}

// WindowEndingAt returns the N-byte window ending at end (exclusive),
// wrapping the derived start into [0, N) first. Equivalent of the
// reference implementation's RangeTo index.
func (b *Buffer) WindowEndingAt(end int) []byte {
	start := b.wrap(end - b.length)
	return b.Slice(start, start+b.length)
}

// Bytes returns the canonical [0, N) window, equivalent to the reference
// implementation's Deref to &[u8].
func (b *Buffer) Bytes() []byte {
	return b.Slice(0, b.length)
}

// Close releases the mapping, unmapping the full 2N virtual range and
// dropping any OS handles retained during construction. It is idempotent
// and infallible from the caller's perspective — per spec.md §4.2.4 and
// §7, OS errors during release have no meaningful recovery and are
// reported only through internal/diag.
func (b *Buffer) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		b.release()
	}
	return nil
}

func (b *Buffer) checkClosed() {
	if b.closed.Load() {
		panic("magicbuffer: use of Buffer after Close")
	}
}
