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

package partition

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grd/stat"

	"github.com/cilvento/innh-demo/checks"
	"github.com/cilvento/innh-demo/expmech"
	"github.com/cilvento/innh-demo/rand"
)

func mustEta(t *testing.T, x, y, z uint32) expmech.Eta {
	t.Helper()
	eta, err := expmech.NewEta(x, y, z)
	if err != nil {
		t.Fatalf("NewEta(%d, %d, %d) got unexpected error %v", x, y, z, err)
	}
	return eta
}

func TestGenerateInvariants(t *testing.T) {
	const trials = 200
	trueSorted := []int64{10, 5, 2}
	eta := mustEta(t, 1, 1, 3) // one unit of budget per part
	src := rand.NewSeeded(21)

	largest := make(stat.IntSlice, trials)
	for trial := 0; trial < trials; trial++ {
		got, err := Generate(trueSorted, eta, &Options{Rand: src})
		if err != nil {
			t.Fatalf("Generate got unexpected error %v", err)
		}
		if len(got) != len(trueSorted) {
			t.Fatalf("Generate got length %d, want %d", len(got), len(trueSorted))
		}
		var sum int64
		for i, v := range got {
			if v < 0 {
				t.Fatalf("Generate got negative part %d at index %d", v, i)
			}
			if i > 0 && v > got[i-1] {
				t.Fatalf("Generate got increasing parts %v", got)
			}
			sum += v
		}
		if sum > 17 {
			t.Fatalf("Generate got sum %d, want at most the true total 17", sum)
		}
		largest[trial] = got[0]
	}
	// With one unit of budget per part the largest part concentrates
	// around the true value 10.
	if mean := stat.Mean(largest); math.Abs(mean-10) > 2 {
		t.Errorf("Generate: mean largest part is %f, want within 10±2", mean)
	}
}

func TestGenerateDeterministicGivenSeed(t *testing.T) {
	trueSorted := []int64{10, 5, 2}
	eta := mustEta(t, 1, 1, 3)
	run := func() [][]int64 {
		src := rand.NewSeeded(33)
		out := make([][]int64, 50)
		for i := range out {
			got, err := Generate(trueSorted, eta, &Options{Rand: src})
			if err != nil {
				t.Fatalf("Generate got unexpected error %v", err)
			}
			out[i] = got
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("Generate: same seed produced different outputs (-first +second):\n%s", diff)
	}
}

func TestGenerateLInfDistance(t *testing.T) {
	trueSorted := []int64{8, 8, 1}
	eta := mustEta(t, 1, 1, 3)
	src := rand.NewSeeded(17)
	for trial := 0; trial < 50; trial++ {
		got, err := Generate(trueSorted, eta, &Options{Distance: LInfDistance, Rand: src})
		if err != nil {
			t.Fatalf("Generate got unexpected error %v", err)
		}
		for i := 1; i < len(got); i++ {
			if got[i] > got[i-1] {
				t.Fatalf("Generate got increasing parts %v", got)
			}
		}
	}
}

func TestGenerateDegenerateInputs(t *testing.T) {
	eta := mustEta(t, 1, 1, 3)
	got, err := Generate([]int64{}, mustEta(t, 1, 1, 1), nil)
	if err != nil {
		t.Fatalf("Generate of empty vector got unexpected error %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Generate of empty vector got %v, want empty", got)
	}

	got, err = Generate([]int64{0, 0, 0}, eta, &Options{Rand: rand.NewSeeded(2)})
	if err != nil {
		t.Fatalf("Generate of all-zero vector got unexpected error %v", err)
	}
	if diff := cmp.Diff([]int64{0, 0, 0}, got); diff != "" {
		t.Errorf("Generate of all-zero vector mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratePreconditions(t *testing.T) {
	src := rand.NewSeeded(1)
	for _, tc := range []struct {
		desc    string
		counts  []int64
		eta     expmech.Eta
		opts    *Options
		wantErr error
	}{
		{"zero-value budget", []int64{3, 1}, expmech.Eta{}, nil, checks.ErrInvalidBudget},
		{"budget with no exact per-part share", []int64{3, 2, 1}, mustEta(t, 7, 3, 1), nil, checks.ErrInvalidBudget},
		{"overflowing total", []int64{math.MaxInt64, math.MaxInt64}, mustEta(t, 1, 1, 2), nil, checks.ErrArithmeticOverflow},
	} {
		if tc.opts == nil {
			tc.opts = &Options{Rand: src}
		}
		if _, err := Generate(tc.counts, tc.eta, tc.opts); !errors.Is(err, tc.wantErr) {
			t.Errorf("Generate: when %s got error %v, want %v", tc.desc, err, tc.wantErr)
		}
	}

	if _, err := Generate([]int64{1, 3}, mustEta(t, 1, 1, 2), &Options{Rand: src}); err == nil {
		t.Errorf("Generate of an increasing vector got nil error, want failure")
	}
	if _, err := Generate([]int64{3, -1}, mustEta(t, 1, 1, 2), &Options{Rand: src}); err == nil {
		t.Errorf("Generate of a negative vector got nil error, want failure")
	}
	if _, err := Generate([]int64{3, 1}, mustEta(t, 1, 1, 2), &Options{Distance: UnrecognisedDistance, Rand: src}); err == nil {
		t.Errorf("Generate with an unrecognised distance got nil error, want failure")
	}
}

func TestParseDistance(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Distance
	}{
		{"L1", L1Distance},
		{"LInf", LInfDistance},
		{"euclidean", UnrecognisedDistance},
	} {
		if got := ParseDistance(tc.in); got != tc.want {
			t.Errorf("ParseDistance(%q) got %v, want %v", tc.in, got, tc.want)
		}
	}
}
