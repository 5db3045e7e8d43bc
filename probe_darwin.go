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

import "golang.org/x/sys/unix"

// On Darwin, vm_page_size is 4 KiB on x86_64 and 16 KiB on Apple
// Silicon (aarch64); Getpagesize reports whichever is in effect for the
// running binary, so no architecture switch is needed here.
func platformMinLen() int {
	return unix.Getpagesize()
}
