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

// Package partition generates differentially private integer partitions:
// sorted nonnegative integer vectors approximating a true sorted count
// vector.
//
// The selection decomposes into one exponential mechanism invocation per
// part, from the largest part downward. Part i is drawn from the
// candidates {0, ..., cap_i} where cap_i keeps the output non-increasing
// and within the public total, with utility decreasing in the distance to
// the true part. Each invocation consumes an equal share of the stage
// budget, so by basic sequential composition the total privacy loss is
// exactly the stage budget.
package partition

import (
	"fmt"

	log "github.com/golang/glog"
	"lukechampine.com/uint128"

	"github.com/cilvento/innh-demo/checks"
	"github.com/cilvento/innh-demo/exact"
	"github.com/cilvento/innh-demo/expmech"
	"github.com/cilvento/innh-demo/rand"
)

// Distance is an enum type. Its values are the supported distance metrics
// for scoring candidate parts against the true partition.
type Distance int

const (
	// L1Distance penalizes a candidate part by its absolute deviation from
	// the true part.
	L1Distance Distance = iota
	// LInfDistance penalizes a candidate part by the maximum absolute
	// deviation across the prefix of the vector chosen so far.
	LInfDistance
	// UnrecognisedDistance is not usable for generation.
	UnrecognisedDistance
)

var distanceName = map[Distance]string{
	L1Distance:           "L1",
	LInfDistance:         "LInf",
	UnrecognisedDistance: "Unrecognised",
}

func (d Distance) String() string {
	if name, ok := distanceName[d]; ok {
		return name
	}
	return fmt.Sprintf("Distance(%d)", int(d))
}

// ParseDistance converts a metric name into a Distance.
func ParseDistance(s string) Distance {
	switch s {
	case "L1":
		return L1Distance
	case "LInf":
		return LInfDistance
	}
	log.Warningf("ParseDistance: unrecognised distance %q", s)
	return UnrecognisedDistance
}

// Options configures partition generation. The zero value selects the
// defaults.
type Options struct {
	// Distance is the metric scoring candidates. Defaults to L1Distance.
	Distance Distance
	// Rand is the entropy source. Defaults to rand.Secure().
	Rand rand.Source
	// Arith bounds the exact arithmetic. Defaults to exact.NewConfig().
	Arith *exact.Config
	// IterationCap bounds rejection sampling per selection. Defaults to
	// expmech.DefaultIterationCap.
	IterationCap int
}

func (o *Options) distance() Distance {
	if o == nil {
		return L1Distance
	}
	return o.Distance
}

func (o *Options) source() rand.Source {
	if o == nil || o.Rand == nil {
		return rand.Secure()
	}
	return o.Rand
}

func (o *Options) mech() *expmech.Options {
	m := &expmech.Options{}
	if o != nil {
		m.Arith = o.Arith
		m.IterationCap = o.IterationCap
	}
	return m
}

// Generate returns a differentially private sorted partition of the same
// length as trueSorted, spending exactly the budget eta. The true vector
// must be nonnegative and non-increasing; its total N is treated as a
// public bound. Every output entry is nonnegative, the output is
// non-increasing, and the output sum lies in [0, N].
//
// A zero-length input returns an empty vector without spending budget.
// An all-zero input still runs the per-part decisions (each over the
// single candidate 0), so the budget is spent on the decision that the
// output is all zero rather than signaling emptiness for free.
func Generate(trueSorted []int64, eta expmech.Eta, opts *Options) ([]int64, error) {
	if err := eta.Valid(); err != nil {
		return nil, err
	}
	if err := checks.CheckCounts("partition.Generate", trueSorted); err != nil {
		return nil, err
	}
	if err := checks.CheckSortedDescending("partition.Generate", trueSorted); err != nil {
		return nil, err
	}
	dist := opts.distance()
	if dist != L1Distance && dist != LInfDistance {
		return nil, fmt.Errorf("partition.Generate: unusable distance metric %v", dist)
	}
	k := len(trueSorted)
	if k == 0 {
		return []int64{}, nil
	}
	total, err := sumCounts(trueSorted)
	if err != nil {
		return nil, err
	}
	stepEta, err := eta.SplitEven(k)
	if err != nil {
		return nil, err
	}

	src := opts.source()
	mechOpts := opts.mech()
	out := make([]int64, k)
	residual := total
	var prev, worst int64 // worst is the running L∞ deviation of the prefix
	for i := range out {
		bound := residual
		if i > 0 && prev < bound {
			bound = prev
		}
		utilities := make([]int64, bound+1)
		for v := int64(0); v <= bound; v++ {
			d := absDiff(v, trueSorted[i])
			if dist == LInfDistance && worst > d {
				d = worst
			}
			utilities[v] = -d
		}
		idx, err := expmech.Select(src, stepEta, utilities, mechOpts)
		if err != nil {
			return nil, err
		}
		v := int64(idx)
		out[i] = v
		prev = v
		residual -= v
		if d := absDiff(v, trueSorted[i]); d > worst {
			worst = d
		}
	}
	return out, nil
}

// sumCounts totals the vector in 128-bit arithmetic so intermediate sums
// cannot wrap, and rejects totals beyond int64 range.
func sumCounts(counts []int64) (int64, error) {
	total := uint128.Zero
	for _, c := range counts {
		total = total.Add64(uint64(c))
	}
	if total.Hi != 0 || total.Lo > uint64(1)<<63-1 {
		return 0, fmt.Errorf("partition.Generate: total count %v exceeds int64 range: %w", total, checks.ErrArithmeticOverflow)
	}
	return int64(total.Lo), nil
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
