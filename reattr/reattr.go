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

// Package reattr assigns privatized sorted counts back to their category
// labels under differential privacy.
//
// The assignment is built rank by rank: for the largest privatized count
// the exponential mechanism selects one of the not-yet-assigned labels,
// with utility decreasing in the distance between the label's true rank
// and the rank being filled; the chosen label is removed and the next
// rank repeats the selection. Sampling without replacement makes the
// output a bijection by construction, and the per-rank selections compose
// sequentially to exactly the stage budget.
package reattr

import (
	"github.com/cilvento/innh-demo/checks"
	"github.com/cilvento/innh-demo/exact"
	"github.com/cilvento/innh-demo/expmech"
	"github.com/cilvento/innh-demo/rand"
)

// Options configures re-attribution. The zero value selects the defaults.
type Options struct {
	// Rand is the entropy source. Defaults to rand.Secure().
	Rand rand.Source
	// Arith bounds the exact arithmetic. Defaults to exact.NewConfig().
	Arith *exact.Config
	// IterationCap bounds rejection sampling per selection. Defaults to
	// expmech.DefaultIterationCap.
	IterationCap int
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

// Attribute maps each privatized count, by rank, to one label. The
// ranking lists labels in true descending-count order, so ranking[i] is
// the label whose true count had rank i. The returned slice holds one
// label per privatized rank and is always a permutation of ranking.
//
// The ranking and the privatized vector must have equal length, and eta
// must be valid; both are checked before any entropy is consumed.
func Attribute(ranking []string, privatized []int64, eta expmech.Eta, opts *Options) ([]string, error) {
	if err := eta.Valid(); err != nil {
		return nil, err
	}
	if err := checks.CheckEqualLength("reattr.Attribute", len(privatized), len(ranking)); err != nil {
		return nil, err
	}
	k := len(ranking)
	if k == 0 {
		return []string{}, nil
	}
	stepEta, err := eta.SplitEven(k)
	if err != nil {
		return nil, err
	}

	src := opts.source()
	mechOpts := opts.mech()

	// remaining[i] is the true rank of the i-th unassigned label.
	remaining := make([]int, k)
	for i := range remaining {
		remaining[i] = i
	}
	out := make([]string, k)
	for target := 0; target < k; target++ {
		utilities := make([]int64, len(remaining))
		for i, trueRank := range remaining {
			d := trueRank - target
			if d < 0 {
				d = -d
			}
			utilities[i] = -int64(d)
		}
		idx, err := expmech.Select(src, stepEta, utilities, mechOpts)
		if err != nil {
			return nil, err
		}
		out[target] = ranking[remaining[idx]]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return out, nil
}
