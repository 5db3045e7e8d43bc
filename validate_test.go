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

import "testing"

// platformProfiles mirrors spec.md §4.1's table of MinLen values. These
// are exercised against validateAgainst directly so the policy logic is
// checked for all four regardless of which OS actually runs the test.
var platformProfiles = []struct {
	name string
	min  int
}{
	{"windows/amd64", 65536},
	{"linux/amd64", 4096},
	{"darwin/amd64", 4096},
	{"darwin/arm64", 16384},
}

func TestValidateAcrossPlatformProfiles(t *testing.T) {
	for _, p := range platformProfiles {
		p := p
		t.Run(p.name, func(t *testing.T) {
			cases := []struct {
				name    string
				n       int
				wantErr bool
			}{
				{"zero", 0, true},
				{"negative", -1, true},
				{"one_min", p.min, false},
				{"two_min", 2 * p.min, false},
				{"not_a_multiple", p.min + 1, true},
				{"below_min_nonzero", p.min / 2, p.min > 1},
			}
			for _, c := range cases {
				c := c
				t.Run(c.name, func(t *testing.T) {
					err := validateAgainst(c.n, p.min)
					if c.wantErr && err == nil {
						t.Fatalf("validateAgainst(%d, %d) = nil, want error", c.n, p.min)
					}
					if !c.wantErr && err != nil {
						t.Fatalf("validateAgainst(%d, %d) = %v, want nil", c.n, p.min, err)
					}
				})
			}
		})
	}
}

// TestValidateZero is scenario 3 from spec.md §8.
func TestValidateZero(t *testing.T) {
	if err := Validate(0); err == nil {
		t.Fatal("Validate(0) = nil, want InvalidLength")
	} else if _, ok := err.(*InvalidLengthError); !ok {
		t.Fatalf("Validate(0) error type = %T, want *InvalidLengthError", err)
	}
}

// TestValidateOneBelowMin is scenario 4 from spec.md §8: N=1 on a 4 KiB
// page system is not a multiple of the minimum.
func TestValidateOneBelowMin(t *testing.T) {
	if MinLen() <= 1 {
		t.Skip("platform minimum is not greater than 1")
	}
	if err := Validate(1); err == nil {
		t.Fatal("Validate(1) = nil, want InvalidLength")
	}
}

func TestValidateAcceptsExactMultiple(t *testing.T) {
	if err := Validate(MinLen()); err != nil {
		t.Fatalf("Validate(MinLen()) = %v, want nil", err)
	}
	if err := Validate(3 * MinLen()); err != nil {
		t.Fatalf("Validate(3*MinLen()) = %v, want nil", err)
	}
}

func TestNewRejectsInvalidLength(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("New(0) = nil error, want InvalidLength")
	}
	if MinLen() > 1 {
		if _, err := New(1); err == nil {
			t.Fatal("New(1) = nil error, want InvalidLength")
		}
	}
}
