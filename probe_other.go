//go:build !linux && !darwin && !windows

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

import "os"

// No double-mapper is implemented for this platform (see
// mapper_unsupported.go); os.Getpagesize is the only portable signal
// available for reporting a minimum length, since neither
// golang.org/x/sys/unix nor golang.org/x/sys/windows target this GOOS.
func platformMinLen() int {
	return os.Getpagesize()
}
