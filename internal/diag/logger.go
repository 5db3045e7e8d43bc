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

// Package diag holds the one diagnostic channel the core buffer package
// is allowed to use: a leveled console logger for OS errors encountered
// while tearing down a mapping, where the caller has no way to observe
// the failure because release is infallible from its perspective.
package diag

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const (
	levelWarn = iota
	levelError
	levelSilent
)

var (
	level = levelWarn
	out   io.Writer = os.Stderr

	yellow = string([]byte{27, 91, 57, 51, 109}) // Warn
	red    = string([]byte{27, 91, 57, 49, 109}) // Error
	reset  = string([]byte{27, 91, 48, 109})
)

func init() {
	if v := os.Getenv("MAGICBUFFER_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n <= levelSilent {
			level = n
		}
	}
}

// SetOutput redirects diagnostic output, so the release-path warnings
// can be captured instead of going to stderr. A nil w restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// ReleaseWarn reports a non-fatal OS error encountered while releasing a
// mapping. It never panics and never returns an error: this is the
// terminal point for a failure the caller can no longer act on.
func ReleaseWarn(step string, err error) {
	if level > levelWarn || err == nil {
		return
	}
	var buf bytes.Buffer
	buf.WriteString(yellow)
	buf.WriteString("WARN ")
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" magicbuffer release")
	fmt.Fprintf(&buf, " step=%s err=%v", step, err)
	buf.WriteString(reset)
	buf.WriteByte('\n')
	_, _ = out.Write(buf.Bytes())
}
