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

// Package checks contains precondition checks for the differentially
// private histogram mechanisms, together with the sentinel errors they
// wrap. Every check runs before any randomness is consumed, so a failed
// call never spends privacy budget.
package checks

import (
	"errors"
	"fmt"
)

// Sentinel errors for the mechanism packages. Callers match them with
// errors.Is.
var (
	// ErrInvalidBudget indicates a non-positive or malformed privacy budget.
	ErrInvalidBudget = errors.New("invalid privacy budget")
	// ErrInvalidCandidateSet indicates an empty or degenerate sampling input.
	ErrInvalidCandidateSet = errors.New("invalid candidate set")
	// ErrLengthMismatch indicates vectors of different lengths were passed
	// between stages.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrArithmeticOverflow indicates a rational magnitude exceeded the
	// configured bound.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrSamplingDidNotConverge indicates the rejection sampling iteration
	// cap was exceeded.
	ErrSamplingDidNotConverge = errors.New("sampling did not converge")
	// ErrBudgetExceeded indicates a budget split policy allocated an
	// invalid share to a stage.
	ErrBudgetExceeded = errors.New("privacy budget exceeded")
)

// CheckNonEmpty returns ErrInvalidCandidateSet if n, the size of a
// candidate set, is not strictly positive.
func CheckNonEmpty(label string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s: candidate set has %d elements, must be nonempty: %w", label, n, ErrInvalidCandidateSet)
	}
	return nil
}

// CheckEqualLength returns ErrLengthMismatch if the two lengths differ.
func CheckEqualLength(label string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s: got length %d, want %d: %w", label, got, want, ErrLengthMismatch)
	}
	return nil
}

// CheckCounts returns an error if any count is negative.
func CheckCounts(label string, counts []int64) error {
	for i, c := range counts {
		if c < 0 {
			return fmt.Errorf("%s: count %d at index %d, must be nonnegative", label, c, i)
		}
	}
	return nil
}

// CheckSortedDescending returns an error if counts is not non-increasing.
func CheckSortedDescending(label string, counts []int64) error {
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[i-1] {
			return fmt.Errorf("%s: counts[%d]=%d exceeds counts[%d]=%d, vector must be non-increasing", label, i, counts[i], i-1, counts[i-1])
		}
	}
	return nil
}

// CheckIterationCap returns an error if cap is not strictly positive.
func CheckIterationCap(label string, cap int) error {
	if cap <= 0 {
		return fmt.Errorf("%s: iteration cap is %d, must be strictly positive", label, cap)
	}
	return nil
}
