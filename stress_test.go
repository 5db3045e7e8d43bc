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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/suite"
)

// StressSuite drives a bounded goroutine pool through ≥1000 concurrent
// construct/destroy cycles (spec.md §8 invariant 4's "verified ...
// over >= 1000 iterations" scenario), using ants rather than an
// unbounded goroutine-per-iteration fan-out.
type StressSuite struct {
	suite.Suite
	pool *ants.Pool
}

func (s *StressSuite) SetupSuite() {
	pool, err := ants.NewPool(32)
	s.Require().NoError(err)
	s.pool = pool
}

func (s *StressSuite) TearDownSuite() {
	s.pool.Release()
}

func (s *StressSuite) TestConcurrentConstructDestroy() {
	const iterations = 1200
	n := MinLen()

	var wg sync.WaitGroup
	var failures atomic.Int64
	wg.Add(iterations)

	for i := 0; i < iterations; i++ {
		err := s.pool.Submit(func() {
			defer wg.Done()
			buf, err := New(n)
			if err != nil {
				failures.Add(1)
				return
			}
			buf.SetByte(0, 1)
			if buf.Byte(n) != 1 {
				failures.Add(1)
			}
			if err := buf.Close(); err != nil {
				failures.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			s.FailNow("ants.Submit", err)
		}
	}

	wg.Wait()
	s.Require().Zero(failures.Load(), "construct/destroy cycle reported failures")
}

func TestStressSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrent construct/destroy stress test in -short mode")
	}
	suite.Run(t, new(StressSuite))
}
