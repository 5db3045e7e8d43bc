//go:build darwin

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

/*
#cgo LDFLAGS: -lSystem
#include <mach/mach.h>
#include <mach/mach_vm.h>
#include <stdint.h>

// mach_vm_remap's prototype differs slightly across SDK headers in its
// use of boolean_t vs int for copy and its const-ness of the inheritance
// argument; wrap it so the cgo-generated signature is stable regardless
// of which SDK this is built against.
static kern_return_t magicbuffer_vm_remap(vm_map_t target_task,
                                           mach_vm_address_t *target_address,
                                           mach_vm_size_t size,
                                           mach_vm_offset_t mask,
                                           int flags,
                                           vm_map_t src_task,
                                           mach_vm_address_t src_address,
                                           boolean_t copy,
                                           vm_prot_t *cur_protection,
                                           vm_prot_t *max_protection,
                                           vm_inherit_t inheritance) {
	return mach_vm_remap(target_task, target_address, size, mask, flags,
	                      src_task, src_address, copy,
	                      cur_protection, max_protection, inheritance);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/sklose/magic-buffer/internal/diag"
)

func init() {
	mapDouble = mapDoubleDarwin
}

// mapDoubleDarwin implements the strategy from spec.md §4.2.2, a direct
// port of original_source/src/macos.rs to cgo against the Mach VM API.
// mmap's MAP_FIXED replacement is not reliably race-free for this
// pattern on Darwin, so the mapping is built entirely from mach_vm_*
// calls instead:
//
//  1. mach_vm_allocate a placeholder 2n region (anywhere in the address
//     space) to reserve it.
//  2. mach_vm_allocate again over the lower half with VM_FLAGS_FIXED |
//     VM_FLAGS_OVERWRITE, installing the object that will be aliased.
//  3. mach_vm_remap the upper half to point at the lower half's object,
//     copy=false, VM_INHERIT_NONE, so both halves are the same pages.
func mapDoubleDarwin(n int) (*mapping, error) {
	task := C.mach_task_self_

	var addr C.mach_vm_address_t
	kr := C.mach_vm_allocate(task, &addr, C.mach_vm_size_t(2*n), C.VM_FLAGS_ANYWHERE)
	if kr != C.KERN_SUCCESS {
		return nil, &OsAllocationError{Len: n, Err: machError(kr)}
	}

	kr = C.mach_vm_allocate(task, &addr, C.mach_vm_size_t(n), C.VM_FLAGS_FIXED|C.VM_FLAGS_OVERWRITE)
	if kr != C.KERN_SUCCESS {
		deallocate(task, addr, uintptr(2*n))
		return nil, &OsMappingError{Len: n, Step: "allocate lower half", Err: machError(kr)}
	}

	upper := addr + C.mach_vm_address_t(n)
	var curProt, maxProt C.vm_prot_t
	kr = C.magicbuffer_vm_remap(
		task, &upper, C.mach_vm_size_t(n), 0,
		C.VM_FLAGS_FIXED|C.VM_FLAGS_OVERWRITE,
		task, addr, C.boolean_t(0),
		&curProt, &maxProt, C.VM_INHERIT_NONE,
	)
	if kr != C.KERN_SUCCESS {
		deallocate(task, addr, uintptr(2*n))
		return nil, &OsMappingError{Len: n, Step: "vm_remap upper half", Err: machError(kr)}
	}

	base := uintptr(addr)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(base)), 2*n)

	return &mapping{
		mem: mem,
		release: func() {
			deallocate(task, C.mach_vm_address_t(base), uintptr(2*n))
		},
	}, nil
}

func deallocate(task C.vm_map_t, addr C.mach_vm_address_t, size uintptr) {
	if kr := C.mach_vm_deallocate(task, addr, C.mach_vm_size_t(size)); kr != C.KERN_SUCCESS {
		diag.ReleaseWarn("mach_vm_deallocate", machError(kr))
	}
}

func machError(kr C.kern_return_t) error {
	return fmt.Errorf("mach kern_return_t %d", int32(kr))
}
