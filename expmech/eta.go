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

package expmech

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cilvento/innh-demo/checks"
	"github.com/cilvento/innh-demo/exact"
)

// Eta is a base-2 privacy parameter η = z·(y − log₂x), constrained so that
// the exponential mechanism's weights (x/2^y)^(z·d) are exact dyadic
// rationals for every integer distance d. The corresponding ε of the
// standard exponential mechanism (probability ∝ exp(ε·u/2)) is 2·η·ln2.
//
// Validity requires x ≥ 1, y ≥ 1, z ≥ 1 and x < 2^y, which makes η
// strictly positive. The zero value is invalid.
type Eta struct {
	x, y, z uint32
}

// NewEta returns the privacy parameter η = z·(y − log₂x).
func NewEta(x, y, z uint32) (Eta, error) {
	e := Eta{x: x, y: y, z: z}
	if err := e.Valid(); err != nil {
		return Eta{}, err
	}
	return e, nil
}

// Valid returns ErrInvalidBudget if e does not describe a strictly
// positive base-2 privacy parameter.
func (e Eta) Valid() error {
	if e.x < 1 || e.y < 1 || e.z < 1 {
		return fmt.Errorf("expmech: eta (x=%d, y=%d, z=%d) components must be strictly positive: %w", e.x, e.y, e.z, checks.ErrInvalidBudget)
	}
	if e.y < 32 && uint64(e.x) >= uint64(1)<<e.y {
		return fmt.Errorf("expmech: eta requires x < 2^y, got x=%d, y=%d: %w", e.x, e.y, checks.ErrInvalidBudget)
	}
	return nil
}

// Value returns η as a float64. It is a diagnostic accessor; sampling
// decisions only ever use the exact (x, y, z) representation.
func (e Eta) Value() float64 {
	return float64(e.z) * (float64(e.y) - math.Log2(float64(e.x)))
}

func (e Eta) String() string {
	return fmt.Sprintf("Eta(x=%d, y=%d, z=%d)", e.x, e.y, e.z)
}

// Scale returns the privacy parameter m·η. Composing m sequential
// mechanism invocations at budget e yields a total loss of e.Scale(m).
func (e Eta) Scale(m uint32) (Eta, error) {
	if err := e.Valid(); err != nil {
		return Eta{}, err
	}
	if m == 0 {
		return Eta{}, fmt.Errorf("expmech: scale factor must be strictly positive: %w", checks.ErrInvalidBudget)
	}
	z := uint64(e.z) * uint64(m)
	if z > math.MaxUint32 {
		return Eta{}, fmt.Errorf("expmech: scaled z=%d overflows: %w", z, checks.ErrArithmeticOverflow)
	}
	return Eta{x: e.x, y: e.y, z: uint32(z)}, nil
}

// SplitEven returns the per-step share η/k such that k sequential
// invocations at the returned budget compose to exactly η. A share exists
// in base-2 form iff x^z has an integer k-th root and k divides y·z; when
// it does not, SplitEven fails with ErrInvalidBudget instead of
// approximating, so the declared composed loss always equals η exactly.
func (e Eta) SplitEven(k int) (Eta, error) {
	if err := e.Valid(); err != nil {
		return Eta{}, err
	}
	if k <= 0 {
		return Eta{}, fmt.Errorf("expmech: cannot split %v into %d shares: %w", e, k, checks.ErrInvalidBudget)
	}
	if k == 1 {
		return e, nil
	}
	if uint64(e.z)%uint64(k) == 0 {
		return Eta{x: e.x, y: e.y, z: e.z / uint32(k)}, nil
	}
	// General case: η = z·y − log₂(x^z), so the k-th share is
	// (z·y/k − log₂ x') with x'^k = x^z.
	yz := uint64(e.y) * uint64(e.z)
	if yz%uint64(k) != 0 {
		return Eta{}, fmt.Errorf("expmech: %v has no exact base-2 representation of a 1/%d share: %w", e, k, checks.ErrInvalidBudget)
	}
	xz := new(big.Int).Exp(big.NewInt(int64(e.x)), big.NewInt(int64(e.z)), nil)
	root, exactRoot := kthRoot(xz, k)
	if !exactRoot {
		return Eta{}, fmt.Errorf("expmech: %v has no exact base-2 representation of a 1/%d share: %w", e, k, checks.ErrInvalidBudget)
	}
	if !root.IsUint64() || root.Uint64() > math.MaxUint32 || yz/uint64(k) > math.MaxUint32 {
		return Eta{}, fmt.Errorf("expmech: 1/%d share of %v overflows: %w", k, e, checks.ErrArithmeticOverflow)
	}
	return Eta{x: uint32(root.Uint64()), y: uint32(yz / uint64(k)), z: 1}, nil
}

// kthRoot returns the integer k-th root of x and whether it is exact.
// x must be positive and k at least 1.
func kthRoot(x *big.Int, k int) (*big.Int, bool) {
	one := big.NewInt(1)
	if x.Cmp(one) == 0 {
		return one, true
	}
	bigK := big.NewInt(int64(k))
	lo := big.NewInt(1)
	hi := new(big.Int).Lsh(one, uint(x.BitLen()/k+1))
	for lo.Cmp(hi) < 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Add(mid, one).Rsh(mid, 1)
		p := new(big.Int).Exp(mid, bigK, nil)
		if p.Cmp(x) > 0 {
			hi.Sub(mid, one)
		} else {
			lo.Set(mid)
		}
	}
	p := new(big.Int).Exp(lo, bigK, nil)
	return lo, p.Cmp(x) == 0
}

// weight returns the exact dyadic weight (x/2^y)^(z·d) assigned to a
// candidate at distance d from the best utility.
func (e Eta) weight(cfg *exact.Config, d uint64) (exact.Dyadic, error) {
	if d > math.MaxUint64/uint64(e.z) {
		return exact.Dyadic{}, fmt.Errorf("expmech: distance %d overflows weight exponent: %w", d, checks.ErrArithmeticOverflow)
	}
	base := exact.New(int64(e.x), -int(e.y))
	return cfg.PowUint(base, uint64(e.z)*d)
}
