//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package approx implements approximations of transcendental
// functions over fixed-point values. The approximations use only the
// operators of the hal package and run a fixed number of rounds that
// does not depend on the secret inputs. Public inputs are evaluated in
// plaintext.
package approx

import (
	"math"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/hal"
)

// recipSeed is the initial Newton reciprocal guess recipSeed-2u for
// u ∈ [0.5, 1).
const recipSeed = 2.9142

// unary defines a function of one argument with its plaintext
// reference and domain.
type unary struct {
	name   string
	domain string
	valid  func(s *hal.Session, v float64) bool
	plain  func(s *hal.Session, v float64) float64
	secret func(s *hal.Session, x *hal.Value) (*hal.Value, error)
}

func (fn *unary) apply(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	if x.IsPublic() {
		return fn.public(s, x)
	}
	if s.Field().Bits() != 64 {
		return nil, env.Errorf(env.ConfigurationError, fn.name,
			"secret evaluation requires 64-bit ring, got %v", s.Field())
	}
	x, err := toFxp(s, x)
	if err != nil {
		return nil, err
	}
	return fn.secret(s, x)
}

func (fn *unary) public(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	values, err := hal.Decode(s, x)
	if err != nil {
		return nil, err
	}
	limit := math.Ldexp(1, s.Field().Bits()-s.FxpBits()-2)

	var outside int
	result := make([]float64, len(values))
	for i, v := range values {
		if !fn.valid(s, v) {
			outside++
		}
		r := fn.plain(s, v)
		switch {
		case math.IsNaN(r):
			r = 0
		case r > limit:
			r = limit
		case r < -limit:
			r = -limit
		}
		result[i] = r
	}
	if outside > 0 {
		s.Warn(fn.name, "%d of %d inputs outside domain %s",
			outside, len(values), fn.domain)
	}
	return hal.PublicFxp(s, result, x.Shape())
}

// toFxp converts integer values to fixed-point.
func toFxp(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	if x.DType() == hal.DTFxp {
		return x, nil
	}
	return hal.Mul(s, x, hal.ConstantFxp(s, 1, x.Shape()))
}

// maxFxp returns the exclusive upper bound 2^(F-1) of the normalized
// domains.
func maxFxp(s *hal.Session) float64 {
	return math.Ldexp(1, s.FxpBits()-1)
}

// minFxp returns the smallest normalized input 2^(2-F).
func minFxp(s *hal.Session) float64 {
	return math.Ldexp(1, 2-s.FxpBits())
}

func positive(s *hal.Session, v float64) bool {
	return v >= minFxp(s) && v < maxFxp(s)
}

func constant(s *hal.Session, v float64, x *hal.Value) *hal.Value {
	return hal.ConstantFxp(s, v, x.Shape())
}

func integer(s *hal.Session, v int64, x *hal.Value) *hal.Value {
	return hal.Constant(s, v, x.Shape())
}

func mulConst(s *hal.Session, x *hal.Value, v float64) (*hal.Value, error) {
	return hal.Mul(s, x, constant(s, v, x))
}

// horner evaluates the polynomial Σ coeffs[i]·x^i.
func horner(s *hal.Session, x *hal.Value, coeffs []float64) (
	*hal.Value, error) {

	r := constant(s, coeffs[len(coeffs)-1], x)
	for i := len(coeffs) - 2; i >= 0; i-- {
		var err error
		r, err = hal.Mul(s, r, x)
		if err != nil {
			return nil, err
		}
		r, err = hal.Add(s, r, constant(s, coeffs[i], x))
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// newton refines the reciprocal y of d with iters Newton steps
// y = y·(2-d·y).
func newton(s *hal.Session, d, y *hal.Value, iters int) (*hal.Value, error) {
	for i := 0; i < iters; i++ {
		dy, err := hal.Mul(s, d, y)
		if err != nil {
			return nil, err
		}
		e, err := hal.Sub(s, integer(s, 2, d), dy)
		if err != nil {
			return nil, err
		}
		y, err = hal.Mul(s, y, e)
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

// normal holds the normalization u = x·2^(F-1-p) ∈ [0.5, 1) of a
// positive value x whose fixed-point encoding has its highest set bit
// at position p.
type normal struct {
	u *hal.Value
	// factor is 2^(F-1-p).
	factor *hal.Value
	// bits are the one-hot bits of p at positions [0, 2F).
	bits []*hal.Value
}

func normalize(s *hal.Session, x *hal.Value) (*normal, error) {
	f := s.FxpBits()

	oh, err := hal.HighestBitOneHot(s, x)
	if err != nil {
		return nil, err
	}
	positions := make([]int, 2*f)
	for i := range positions {
		positions[i] = i
	}
	bits, err := hal.Bits(s, oh, positions)
	if err != nil {
		return nil, err
	}
	n := &normal{
		bits: bits,
	}
	n.factor, err = n.weighted(s, func(p int) float64 {
		return math.Ldexp(1, f-1-p)
	})
	if err != nil {
		return nil, err
	}
	n.u, err = hal.Mul(s, x, n.factor)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// weighted computes Σ bits[p]·w(p) as a fixed-point value.
func (n *normal) weighted(s *hal.Session, w func(p int) float64) (
	*hal.Value, error) {

	f := s.FxpBits()
	weights := make([]uint64, len(n.bits))
	for p := range weights {
		weights[p] = uint64(int64(math.Round(math.Ldexp(w(p), f))))
	}
	return hal.WeightedSum(s, n.bits, weights, hal.DTFxp)
}

// exponent returns p+1-F, the base-2 exponent of x/u.
func (n *normal) exponent(s *hal.Session) (*hal.Value, error) {
	f := s.FxpBits()
	return n.weighted(s, func(p int) float64 {
		return float64(p + 1 - f)
	})
}
