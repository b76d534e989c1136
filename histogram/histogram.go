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

// Package histogram privatizes nonnegative integer histograms.
//
// A Privatizer runs the two-stage mechanism: the partition stage draws a
// differentially private sorted count vector, and the re-attribution
// stage maps the sorted counts back onto the category labels. The stages
// are independently randomized and run in sequence on the same data, so
// the total privacy loss is the sum of the two stage budgets.
//
// A Privatizer spends its budget exactly once: after Result has been
// called, successfully or not, the instance refuses to run again. Fixing
// an input and retrying requires a new Privatizer, which is a new budget
// by design, not a free retry.
package histogram

import (
	"fmt"
	"sort"

	"lukechampine.com/uint128"

	"github.com/cilvento/innh-demo/checks"
	"github.com/cilvento/innh-demo/exact"
	"github.com/cilvento/innh-demo/expmech"
	"github.com/cilvento/innh-demo/partition"
	"github.com/cilvento/innh-demo/rand"
	"github.com/cilvento/innh-demo/reattr"
)

// PrivatizerOptions contains the options necessary to initialize a
// Privatizer.
type PrivatizerOptions struct {
	// Budget is the total privacy budget, split evenly between the two
	// stages. Required unless Stage1 and Stage2 are both set.
	Budget expmech.Eta
	// Stage1 and Stage2 override the even split with explicit per-stage
	// budgets. Either both or neither must be set; the declared total loss
	// is then Stage1+Stage2.
	Stage1, Stage2 *expmech.Eta
	// Distance is the metric used by the partition stage.
	// Defaults to partition.L1Distance.
	Distance partition.Distance
	// Rand is the entropy source for both stages. Defaults to
	// rand.Secure(). Swap in a seeded source for reproducible tests only.
	Rand rand.Source
	// Arith bounds the exact arithmetic. Defaults to exact.NewConfig().
	Arith *exact.Config
	// IterationCap bounds rejection sampling per selection. Defaults to
	// expmech.DefaultIterationCap.
	IterationCap int
}

// Privatizer computes a differentially private histogram. It is for
// single use: one call to Result spends the whole budget.
//
// Not thread-safe.
type Privatizer struct {
	// Parameters
	stage1       expmech.Eta
	stage2       expmech.Eta
	distance     partition.Distance
	rand         rand.Source
	arith        *exact.Config
	iterationCap int

	// State variables
	state privatizerState
}

func (p *Privatizer) String() string {
	return fmt.Sprintf("&Privatizer(stage1 %v, stage2 %v, distance %v, state %v)",
		p.stage1, p.stage2, p.distance, p.state)
}

// NewPrivatizer returns a new Privatizer from opt. The budget split is
// resolved here, before any data is seen: an even split that has no exact
// base-2 representation, or an explicit split with a missing or invalid
// stage share, fails with ErrBudgetExceeded.
func NewPrivatizer(opt *PrivatizerOptions) (*Privatizer, error) {
	if opt == nil {
		opt = &PrivatizerOptions{}
	}
	var stage1, stage2 expmech.Eta
	switch {
	case opt.Stage1 != nil && opt.Stage2 != nil:
		stage1, stage2 = *opt.Stage1, *opt.Stage2
		if err := stage1.Valid(); err != nil {
			return nil, fmt.Errorf("histogram.NewPrivatizer: stage 1 share %v: %w", stage1, checks.ErrBudgetExceeded)
		}
		if err := stage2.Valid(); err != nil {
			return nil, fmt.Errorf("histogram.NewPrivatizer: stage 2 share %v: %w", stage2, checks.ErrBudgetExceeded)
		}
	case opt.Stage1 != nil || opt.Stage2 != nil:
		return nil, fmt.Errorf("histogram.NewPrivatizer: explicit split must set both stage budgets: %w", checks.ErrBudgetExceeded)
	default:
		if err := opt.Budget.Valid(); err != nil {
			return nil, err
		}
		half, err := opt.Budget.SplitEven(2)
		if err != nil {
			return nil, fmt.Errorf("histogram.NewPrivatizer: even split of %v: %w", opt.Budget, checks.ErrBudgetExceeded)
		}
		stage1, stage2 = half, half
	}

	src := opt.Rand
	if src == nil {
		src = rand.Secure()
	}
	cfg := opt.Arith
	if cfg == nil {
		cfg = exact.NewConfig()
	}
	return &Privatizer{
		stage1:       stage1,
		stage2:       stage2,
		distance:     opt.Distance,
		rand:         src,
		arith:        cfg,
		iterationCap: opt.IterationCap,
		state:        ready,
	}, nil
}

// TotalBudget returns the declared total privacy loss η₁+η₂ as a
// float64. Diagnostic only; the stages use the exact representations.
func (p *Privatizer) TotalBudget() float64 {
	return p.stage1.Value() + p.stage2.Value()
}

// Result privatizes counts, returning a histogram over exactly the same
// label set with nonnegative privatized counts. Input validation happens
// before the budget is considered spent; once the stages start, the
// budget is gone whether or not the run succeeds.
func (p *Privatizer) Result(counts map[string]int64) (map[string]int64, error) {
	if p.state != ready {
		return nil, fmt.Errorf("histogram.Result: privatizer is %v, the budget has already been spent", p.state)
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	// Descending by count with a lexicographic tie-break, so equal counts
	// order deterministically regardless of map iteration order.
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	sorted := make([]int64, len(labels))
	for i, label := range labels {
		sorted[i] = counts[label]
	}
	if err := checks.CheckCounts("histogram.Result", sorted); err != nil {
		return nil, err
	}
	if err := checkTotal(sorted); err != nil {
		return nil, err
	}

	p.state = consumed

	privatized, err := partition.Generate(sorted, p.stage1, &partition.Options{
		Distance:     p.distance,
		Rand:         p.rand,
		Arith:        p.arith,
		IterationCap: p.iterationCap,
	})
	if err != nil {
		return nil, err
	}
	attributed, err := reattr.Attribute(labels, privatized, p.stage2, &reattr.Options{
		Rand:         p.rand,
		Arith:        p.arith,
		IterationCap: p.iterationCap,
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(labels))
	for i, label := range attributed {
		out[label] = privatized[i]
	}
	return out, nil
}

// checkTotal accumulates the counts in 128-bit arithmetic so the sum
// cannot wrap, and rejects histograms whose total exceeds int64 range.
func checkTotal(counts []int64) error {
	total := uint128.Zero
	for _, c := range counts {
		total = total.Add64(uint64(c))
	}
	if total.Hi != 0 || total.Lo > uint64(1)<<63-1 {
		return fmt.Errorf("histogram.Result: total count %v exceeds int64 range: %w", total, checks.ErrArithmeticOverflow)
	}
	return nil
}
