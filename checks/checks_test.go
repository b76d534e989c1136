//
// Copyright 2025 the innh-demo authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package checks

import (
	"errors"
	"testing"
)

func TestCheckNonEmpty(t *testing.T) {
	if err := CheckNonEmpty("test", 1); err != nil {
		t.Errorf("CheckNonEmpty(1) got unexpected error %v", err)
	}
	for _, n := range []int{0, -1} {
		if err := CheckNonEmpty("test", n); !errors.Is(err, ErrInvalidCandidateSet) {
			t.Errorf("CheckNonEmpty(%d) got %v, want ErrInvalidCandidateSet", n, err)
		}
	}
}

func TestCheckEqualLength(t *testing.T) {
	if err := CheckEqualLength("test", 3, 3); err != nil {
		t.Errorf("CheckEqualLength(3, 3) got unexpected error %v", err)
	}
	if err := CheckEqualLength("test", 2, 3); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("CheckEqualLength(2, 3) got %v, want ErrLengthMismatch", err)
	}
}

func TestCheckCounts(t *testing.T) {
	if err := CheckCounts("test", []int64{3, 0, 7}); err != nil {
		t.Errorf("CheckCounts got unexpected error %v", err)
	}
	if err := CheckCounts("test", []int64{3, -1, 7}); err == nil {
		t.Errorf("CheckCounts with a negative count got nil error, want failure")
	}
}

func TestCheckSortedDescending(t *testing.T) {
	for _, counts := range [][]int64{{}, {5}, {5, 5, 2}, {9, 3, 0, 0}} {
		if err := CheckSortedDescending("test", counts); err != nil {
			t.Errorf("CheckSortedDescending(%v) got unexpected error %v", counts, err)
		}
	}
	if err := CheckSortedDescending("test", []int64{3, 5}); err == nil {
		t.Errorf("CheckSortedDescending of an increasing vector got nil error, want failure")
	}
}

func TestCheckIterationCap(t *testing.T) {
	if err := CheckIterationCap("test", 100); err != nil {
		t.Errorf("CheckIterationCap(100) got unexpected error %v", err)
	}
	for _, c := range []int{0, -5} {
		if err := CheckIterationCap("test", c); err == nil {
			t.Errorf("CheckIterationCap(%d) got nil error, want failure", c)
		}
	}
}
