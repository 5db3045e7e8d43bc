//go:build windows

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
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/sklose/magic-buffer/internal/diag"
)

// VirtualAlloc2 and MapViewOfFile3 are placeholder-aware APIs added in
// Windows 10 1803 and live in KernelBase.dll / api-ms-win-core-memory-l1-1-6.
// They are not present in every golang.org/x/sys/windows release's
// generated bindings, and are absent entirely on older Windows, so they
// are loaded dynamically per spec.md §4.2.3 rather than linked directly.
var (
	modKernelBase      = windows.NewLazySystemDLL("kernelbase.dll")
	procVirtualAlloc2  = modKernelBase.NewProc("VirtualAlloc2")
	procMapViewOfFile3 = modKernelBase.NewProc("MapViewOfFile3")
)

// Flags not always present in golang.org/x/sys/windows; values are fixed
// by the Windows ABI and mirrored from the Win32 SDK headers.
const (
	memReservePlaceholder  = 0x00040000
	memPreservePlaceholder = 0x00000002
	memReplacePlaceholder  = 0x00004000
)

func init() {
	mapDouble = mapDoubleWindows
}

// mapDoubleWindows implements the strategy from spec.md §4.2.3, a direct
// port of original_source/src/win.rs:
//
//  1. VirtualAlloc2 a MEM_RESERVE_PLACEHOLDER of size 2n.
//  2. VirtualFree the lower n bytes with MEM_RELEASE|MEM_PRESERVE_PLACEHOLDER,
//     splitting it into two adjacent n-sized placeholders.
//  3. CreateFileMapping a pagefile-backed section of size n.
//  4. MapViewOfFile3 the section into each placeholder with
//     MEM_REPLACE_PLACEHOLDER.
//  5. Close the section handle; the two views keep it alive.
//
// Every step unwinds in reverse on failure: a view that mapped
// successfully is unmapped, remaining placeholders are freed, and the
// section handle is always closed before returning.
func mapDoubleWindows(n int) (*mapping, error) {
	if err := checkProcs(); err != nil {
		return nil, &OsMappingError{Len: n, Step: "load VirtualAlloc2/MapViewOfFile3", Err: err}
	}

	placeholder, err := virtualAlloc2(0, 2*uintptr(n), windows.MEM_RESERVE|memReservePlaceholder, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, &OsAllocationError{Len: n, Err: err}
	}

	// Split the placeholder into two adjacent n-sized placeholders.
	if err := windows.VirtualFree(placeholder, uintptr(n), windows.MEM_RELEASE|memPreservePlaceholder); err != nil {
		freeWhole(placeholder)
		return nil, &OsMappingError{Len: n, Step: "split placeholder", Err: err}
	}
	lower := placeholder
	upper := placeholder + uintptr(n)

	handle, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(n), nil)
	if err != nil {
		freePlaceholder(lower)
		freePlaceholder(upper)
		return nil, &OsMappingError{Len: n, Step: "CreateFileMapping", Err: err}
	}

	view1, err := mapViewOfFile3(handle, lower, uintptr(n), memReplacePlaceholder, windows.PAGE_READWRITE)
	if err != nil {
		_ = windows.CloseHandle(handle)
		freePlaceholder(lower)
		freePlaceholder(upper)
		return nil, &OsMappingError{Len: n, Step: "MapViewOfFile3 lower", Err: err}
	}

	view2, err := mapViewOfFile3(handle, upper, uintptr(n), memReplacePlaceholder, windows.PAGE_READWRITE)
	if err != nil {
		_ = windows.UnmapViewOfFile(view1)
		_ = windows.CloseHandle(handle)
		freePlaceholder(upper)
		return nil, &OsMappingError{Len: n, Step: "MapViewOfFile3 upper", Err: err}
	}

	if err := windows.CloseHandle(handle); err != nil {
		diag.ReleaseWarn("CloseHandle section", err)
	}

	mem := unsafe.Slice((*byte)(unsafe.Pointer(view1)), 2*n)
	_ = view2 // view2 == view1+n; both views are kept alive by mem's release hook

	return &mapping{
		mem: mem,
		release: func() {
			if err := windows.UnmapViewOfFile(view1 + uintptr(n)); err != nil {
				diag.ReleaseWarn("UnmapViewOfFile upper", err)
			}
			if err := windows.UnmapViewOfFile(view1); err != nil {
				diag.ReleaseWarn("UnmapViewOfFile lower", err)
			}
		},
	}, nil
}

func checkProcs() error {
	if err := procVirtualAlloc2.Find(); err != nil {
		return fmt.Errorf("VirtualAlloc2 unavailable (requires Windows 10 1803+): %w", err)
	}
	if err := procMapViewOfFile3.Find(); err != nil {
		return fmt.Errorf("MapViewOfFile3 unavailable (requires Windows 10 1803+): %w", err)
	}
	return nil
}

func virtualAlloc2(base uintptr, size uintptr, allocType, protect uint32) (uintptr, error) {
	ret, _, err := procVirtualAlloc2.Call(
		0, // current process
		base,
		size,
		uintptr(allocType),
		uintptr(protect),
		0, // no extended parameters
		0,
	)
	if ret == 0 {
		return 0, err
	}
	return ret, nil
}

func mapViewOfFile3(handle windows.Handle, base uintptr, size uintptr, allocType, protect uint32) (uintptr, error) {
	ret, _, err := procMapViewOfFile3.Call(
		uintptr(handle),
		0, // current process
		base,
		0, // file offset
		size,
		uintptr(allocType),
		uintptr(protect),
		0,
		0,
	)
	if ret == 0 {
		return 0, err
	}
	return ret, nil
}

func freeWhole(addr uintptr) {
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		diag.ReleaseWarn("VirtualFree whole placeholder", err)
	}
}

func freePlaceholder(addr uintptr) {
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		diag.ReleaseWarn("VirtualFree placeholder", err)
	}
}
