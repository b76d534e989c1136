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

// Package exact implements exact arithmetic on dyadic rationals, i.e.
// numbers of the form mant·2^exp with an arbitrary-precision integer
// mantissa.
//
// Every probability that the sampling mechanisms manipulate is a ratio of
// dyadic rationals, so this representation is closed under all the
// arithmetic the mechanisms need and no operation in this package ever
// rounds. Floating point appears only in diagnostic accessors, never in a
// value that feeds a sampling decision.
package exact

import (
	"fmt"
	"math/big"

	"github.com/cilvento/innh-demo/checks"
)

// Dyadic is an immutable dyadic rational mant·2^exp. The zero value
// represents 0. Nonzero values are kept canonical: the mantissa is odd, so
// two Dyadics are equal iff their fields are equal.
type Dyadic struct {
	mant *big.Int
	exp  int
}

// New returns the dyadic rational mant·2^exp.
func New(mant int64, exp int) Dyadic {
	return normalize(big.NewInt(mant), exp)
}

// FromBig returns the dyadic rational mant·2^exp. The mantissa is copied.
func FromBig(mant *big.Int, exp int) Dyadic {
	return normalize(new(big.Int).Set(mant), exp)
}

func normalize(mant *big.Int, exp int) Dyadic {
	if mant.Sign() == 0 {
		return Dyadic{}
	}
	if s := mant.TrailingZeroBits(); s > 0 {
		mant.Rsh(mant, s)
		exp += int(s)
	}
	return Dyadic{mant: mant, exp: exp}
}

// Mant returns a copy of the mantissa.
func (d Dyadic) Mant() *big.Int {
	if d.mant == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(d.mant)
}

// Exp returns the base-2 exponent. For the zero value the exponent is 0.
func (d Dyadic) Exp() int {
	return d.exp
}

// Sign returns -1, 0, or +1 depending on the sign of d.
func (d Dyadic) Sign() int {
	if d.mant == nil {
		return 0
	}
	return d.mant.Sign()
}

// IsZero reports whether d is 0.
func (d Dyadic) IsZero() bool {
	return d.Sign() == 0
}

// MulPow2 returns d·2^k. The operation is always exact.
func (d Dyadic) MulPow2(k int) Dyadic {
	if d.IsZero() {
		return Dyadic{}
	}
	return Dyadic{mant: d.mant, exp: d.exp + k}
}

// Cmp compares d and e, returning -1 if d < e, 0 if d == e, +1 if d > e.
// The comparison cross-scales mantissas instead of dividing, so it is
// exact for any pair of operands.
func (d Dyadic) Cmp(e Dyadic) int {
	ds, es := d.Sign(), e.Sign()
	if ds != es {
		if ds < es {
			return -1
		}
		return 1
	}
	if ds == 0 {
		return 0
	}
	// Align both mantissas at the smaller exponent.
	exp := d.exp
	if e.exp < exp {
		exp = e.exp
	}
	dm := new(big.Int).Lsh(d.mant, uint(d.exp-exp))
	em := new(big.Int).Lsh(e.mant, uint(e.exp-exp))
	return dm.Cmp(em)
}

// ScaledMant returns the integer d/2^exp, i.e. the mantissa of d rescaled
// to the exponent exp. It returns an error if d is not an integer multiple
// of 2^exp.
func (d Dyadic) ScaledMant(exp int) (*big.Int, error) {
	if d.IsZero() {
		return new(big.Int), nil
	}
	if d.exp < exp {
		return nil, fmt.Errorf("exact: %v is not an integer multiple of 2^%d", d, exp)
	}
	return new(big.Int).Lsh(d.mant, uint(d.exp-exp)), nil
}

// Float64 returns a float64 approximation of d. It exists for logging and
// test tolerances only and must never feed a sampling decision.
func (d Dyadic) Float64() float64 {
	if d.IsZero() {
		return 0
	}
	f := new(big.Float).SetInt(d.mant)
	f.SetMantExp(f, d.exp)
	v, _ := f.Float64()
	return v
}

func (d Dyadic) String() string {
	if d.IsZero() {
		return "0"
	}
	return fmt.Sprintf("%v*2^%d", d.mant, d.exp)
}

// DefaultMaxBits bounds mantissa magnitudes unless a Config overrides it.
// Weights of size 2^65536 are far beyond anything bounded utilities
// produce, so hitting the bound signals a misconfigured mechanism.
const DefaultMaxBits = 1 << 16

// Config bounds the magnitude of mantissas produced by arithmetic
// operations. Operations fail with ErrArithmeticOverflow instead of
// producing values whose cost or precision is no longer under control.
type Config struct {
	// MaxBits is the largest permitted mantissa bit length.
	// Defaults to DefaultMaxBits.
	MaxBits int
}

// NewConfig returns a Config with the default magnitude bound.
func NewConfig() *Config {
	return &Config{MaxBits: DefaultMaxBits}
}

func (c *Config) maxBits() int {
	if c == nil || c.MaxBits == 0 {
		return DefaultMaxBits
	}
	return c.MaxBits
}

// Check returns ErrArithmeticOverflow if d's mantissa bit length or
// exponent magnitude exceeds the configured bound.
func (c *Config) Check(d Dyadic) error {
	if d.IsZero() {
		return nil
	}
	max := c.maxBits()
	if got := d.mant.BitLen(); got > max {
		return fmt.Errorf("exact: mantissa has %d bits, bound is %d: %w", got, max, checks.ErrArithmeticOverflow)
	}
	if d.exp > max || d.exp < -max {
		return fmt.Errorf("exact: exponent %d exceeds the %d bound: %w", d.exp, max, checks.ErrArithmeticOverflow)
	}
	return nil
}

// Add returns a+b exactly.
func (c *Config) Add(a, b Dyadic) (Dyadic, error) {
	if a.IsZero() {
		return b, nil
	}
	if b.IsZero() {
		return a, nil
	}
	exp := a.exp
	if b.exp < exp {
		exp = b.exp
	}
	am := new(big.Int).Lsh(a.mant, uint(a.exp-exp))
	bm := new(big.Int).Lsh(b.mant, uint(b.exp-exp))
	d := normalize(am.Add(am, bm), exp)
	if err := c.Check(d); err != nil {
		return Dyadic{}, err
	}
	return d, nil
}

// Sub returns a-b exactly.
func (c *Config) Sub(a, b Dyadic) (Dyadic, error) {
	return c.Add(a, b.Neg())
}

// Neg returns -d.
func (d Dyadic) Neg() Dyadic {
	if d.IsZero() {
		return Dyadic{}
	}
	return Dyadic{mant: new(big.Int).Neg(d.mant), exp: d.exp}
}

// Mul returns a·b exactly.
func (c *Config) Mul(a, b Dyadic) (Dyadic, error) {
	if a.IsZero() || b.IsZero() {
		return Dyadic{}, nil
	}
	d := Dyadic{mant: new(big.Int).Mul(a.mant, b.mant), exp: a.exp + b.exp}
	if err := c.Check(d); err != nil {
		return Dyadic{}, err
	}
	return d, nil
}

// PowUint returns a^n exactly. a^0 is 1 for any a.
func (c *Config) PowUint(a Dyadic, n uint64) (Dyadic, error) {
	if n == 0 {
		return New(1, 0), nil
	}
	if a.IsZero() {
		return Dyadic{}, nil
	}
	// Bound the cost before paying for the exponentiation: the result's
	// bit length is at least n·(bitLen-1)+1 and its exponent is n·a.exp.
	max := uint64(c.maxBits())
	if n > max || n*uint64(a.mant.BitLen()-1) > max {
		return Dyadic{}, fmt.Errorf("exact: %v^%d exceeds the %d bit bound: %w", a, n, c.maxBits(), checks.ErrArithmeticOverflow)
	}
	if err := c.Check(a); err != nil {
		return Dyadic{}, err
	}
	m := new(big.Int).Exp(a.mant, new(big.Int).SetUint64(n), nil)
	d := Dyadic{mant: m, exp: a.exp * int(n)}
	if err := c.Check(d); err != nil {
		return Dyadic{}, err
	}
	return d, nil
}
