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

package stattestutils

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSampleMean(t *testing.T) {
	for _, tc := range []struct {
		values []float64
		want   float64
	}{
		{[]float64{2, 4, 6}, 4},
		{[]float64{-1, 1}, 0},
		{nil, 0},
	} {
		if got := SampleMean(tc.values); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("SampleMean(%v) got %f, want %f", tc.values, got, tc.want)
		}
	}
}

func TestSampleVariance(t *testing.T) {
	if got := SampleVariance([]float64{1, 3}); math.Abs(got-1) > 1e-12 {
		t.Errorf("SampleVariance got %f, want 1", got)
	}
	if got := SampleVariance([]float64{5, 5, 5}); got != 0 {
		t.Errorf("SampleVariance of constant values got %f, want 0", got)
	}
}

func TestSampleFrequencies(t *testing.T) {
	got := SampleFrequencies([]int{0, 0, 1, 2, -1, 9}, 3)
	// Out-of-range samples count toward the denominator but no bucket.
	want := []float64{2.0 / 6, 1.0 / 6, 1.0 / 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SampleFrequencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0}, SampleFrequencies(nil, 2)); diff != "" {
		t.Errorf("SampleFrequencies of no samples mismatch (-want +got):\n%s", diff)
	}
}
