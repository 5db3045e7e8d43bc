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

import "errors"

func init() {
	mapDouble = mapDoubleUnsupported
}

// No double-mapper exists for this OS family (spec.md §4.2 only defines
// Linux, Darwin and Windows strategies). Returning OsMapping here keeps
// New's error taxonomy intact instead of panicking or silently falling
// back to a non-aliased allocation.
func mapDoubleUnsupported(n int) (*mapping, error) {
	return nil, &OsMappingError{Len: n, Step: "platform probe", Err: errors.New("no double-mapping strategy for this OS")}
}
