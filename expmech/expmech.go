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

// Package expmech implements the exponential mechanism over a finite
// candidate set with exact base-2 arithmetic.
//
// A candidate with utility u is selected with probability exactly
// proportional to (x/2^y)^(z·(uMax-u)) where (x, y, z) is the base-2
// privacy parameter Eta. All weights are dyadic rationals, so selection
// reduces to drawing a uniform integer below the integer total weight:
// there is no floating-point step anywhere in the decision and hence no
// rounding bias. For integer utilities the sampled distribution matches
// the mechanism's target distribution exactly.
package expmech

import (
	"fmt"
	"math/big"

	"github.com/cilvento/innh-demo/checks"
	"github.com/cilvento/innh-demo/exact"
	"github.com/cilvento/innh-demo/rand"
)

// DefaultIterationCap bounds the rejection sampling trials of a single
// selection. Each trial succeeds with probability at least 1/2, so the
// cap is reached with probability at most 2^-1000.
const DefaultIterationCap = 1000

// Options configures a mechanism invocation. The zero value selects the
// defaults.
type Options struct {
	// Arith bounds the magnitudes of the exact arithmetic. Defaults to
	// exact.NewConfig().
	Arith *exact.Config
	// IterationCap bounds the rejection sampling trials.
	// Defaults to DefaultIterationCap.
	IterationCap int
}

func (o *Options) arith() *exact.Config {
	if o == nil || o.Arith == nil {
		return exact.NewConfig()
	}
	return o.Arith
}

func (o *Options) iterationCap() int {
	if o == nil || o.IterationCap == 0 {
		return DefaultIterationCap
	}
	return o.IterationCap
}

// Select draws one index from utilities with probability proportional to
// the exponential mechanism weight of its utility under eta. Utilities
// are integer scores where higher is better; ties in utility receive
// identical weights and are therefore broken uniformly at random, never
// by position.
//
// Select is deterministic given a fixed src stream. The candidate set
// must be nonempty and eta valid; both are checked before any entropy is
// consumed.
func Select(src rand.Source, eta Eta, utilities []int64, opts *Options) (int, error) {
	if err := checks.CheckNonEmpty("expmech.Select", len(utilities)); err != nil {
		return 0, err
	}
	if err := eta.Valid(); err != nil {
		return 0, err
	}
	cfg := opts.arith()

	uMax := utilities[0]
	for _, u := range utilities[1:] {
		if u > uMax {
			uMax = u
		}
	}

	weights := make([]exact.Dyadic, len(utilities))
	minExp := 0
	for i, u := range utilities {
		// uMax-u fits a uint64 even when the int64 subtraction would wrap.
		d := uint64(uMax) - uint64(u)
		w, err := eta.weight(cfg, d)
		if err != nil {
			return 0, err
		}
		weights[i] = w
		if e := w.Exp(); i == 0 || e < minExp {
			minExp = e
		}
	}

	// At the common scale 2^minExp every weight is a positive integer, so
	// normalization never divides: a uniform integer draw below the total
	// mantissa sum selects candidates exactly proportionally.
	mants := make([]*big.Int, len(weights))
	total := new(big.Int)
	for i, w := range weights {
		m, err := w.ScaledMant(minExp)
		if err != nil {
			return 0, err
		}
		mants[i] = m
		total.Add(total, m)
	}
	if err := cfg.Check(exact.FromBig(total, minExp)); err != nil {
		return 0, err
	}

	r, err := rand.Int(src, total, opts.iterationCap())
	if err != nil {
		return 0, err
	}
	acc := new(big.Int)
	for i, m := range mants {
		acc.Add(acc, m)
		if r.Cmp(acc) < 0 {
			return i, nil
		}
	}
	// r < total = sum of mantissas, so the scan always terminates above.
	return 0, fmt.Errorf("expmech.Select: cumulative scan overran total weight %v", total)
}
