//go:build linux

/*
 * Copyright 2025 SREDiag Authors
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
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sklose/magic-buffer/internal/diag"
)

func init() {
	mapDouble = mapDoubleLinux
}

// mapDoubleLinux implements the strategy from spec.md §4.2.1, mirroring
// the reference implementation's magic_buf_alloc
// (original_source/src/linux.rs) against golang.org/x/sys/unix:
//
//  1. Create an anonymous, memfd-style object of size n.
//  2. mmap 2n bytes of that object at an OS-chosen address. Only the
//     first n bytes are backed by real file content; the upper half
//     would fault (SIGBUS) if touched as-is, because the object is only
//     n bytes long.
//  3. Replace the upper half, [base+n, base+2n), with a MAP_FIXED
//     mapping of the same object at offset 0. This is now the same
//     physical pages as the lower half.
//  4. Close the object fd; both mappings keep the pages alive.
func mapDoubleLinux(n int) (*mapping, error) {
	fd, err := createAnonObject()
	if err != nil {
		return nil, &OsAllocationError{Len: n, Err: err}
	}
	closeFd := true
	defer func() {
		if closeFd {
			_ = unix.Close(fd)
		}
	}()

	if err := unix.Ftruncate(fd, int64(n)); err != nil {
		return nil, &OsAllocationError{Len: n, Err: err}
	}

	mem, err := unix.Mmap(fd, 0, 2*n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, &OsAllocationError{Len: n, Err: err}
	}

	base := uintptr(unsafe.Pointer(&mem[0]))
	if err := mmapFixed(base+uintptr(n), uintptr(n), fd); err != nil {
		_ = unix.Munmap(mem)
		return nil, &OsMappingError{Len: n, Step: "mmap upper half", Err: err}
	}

	closeFd = false
	if err := unix.Close(fd); err != nil {
		diag.ReleaseWarn("close shm fd", err)
	}

	return &mapping{
		mem: mem,
		release: func() {
			if err := unix.Munmap(mem); err != nil {
				diag.ReleaseWarn("munmap", err)
			}
		},
	}, nil
}

// mmapFixed replaces the mapping at [addr, addr+length) with a MAP_FIXED
// mapping of fd at offset 0. golang.org/x/sys/unix.Mmap never takes an
// explicit address, so the replacement step goes through the raw mmap
// syscall directly, exactly as the reference implementation calls
// libc::mmap with MAP_FIXED.
func mmapFixed(addr, length uintptr, fd int) error {
	ret, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		length,
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
		uintptr(fd),
		0,
	)
	if errno != 0 {
		return errno
	}
	if ret != addr {
		// The kernel honored MAP_FIXED but parked us somewhere else,
		// which should not happen; treat it as a mapping failure rather
		// than silently aliasing the wrong range.
		_, _, _ = unix.Syscall(unix.SYS_MUNMAP, ret, length, 0)
		return unix.EINVAL
	}
	return nil
}

// createAnonObject creates a memfd-backed anonymous object, falling back
// to a securely-created-then-unlinked temp file when memfd_create is
// unavailable (pre-3.17 kernels), per original_source/src/linux.rs.
func createAnonObject() (int, error) {
	fd, err := unix.MemfdCreate("magic-buffer", 0)
	if err == nil {
		return fd, nil
	}
	if err != unix.ENOSYS {
		return -1, err
	}

	f, err := os.CreateTemp("", "magic-buffer")
	if err != nil {
		return -1, err
	}
	defer f.Close()

	if err := unix.Unlink(f.Name()); err != nil {
		return -1, err
	}

	return unix.Dup(int(f.Fd()))
}
