//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package approx

import (
	"math"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/hal"
	"github.com/markkurossi/ringmpc/semi2k"
)

// Exp2 integer part bits. Negative inputs are shifted by 2^exp2Bits.
const exp2Bits = 5

var (
	fnExp = &unary{
		name:   "exp",
		domain: "[-12,18] with pade, [-500,2.1] with taylor",
		valid: func(s *hal.Session, v float64) bool {
			if s.Config().ExpMode == env.ExpTaylor {
				return v >= -500 && v <= 2.1
			}
			return v >= -12 && v <= 18
		},
		plain: func(s *hal.Session, v float64) float64 {
			return math.Exp(v)
		},
		secret: exp,
	}
	fnExp2 = &unary{
		name:   "exp2",
		domain: "[-17,25]",
		valid: func(s *hal.Session, v float64) bool {
			return v >= -17 && v <= 25
		},
		plain: func(s *hal.Session, v float64) float64 {
			return math.Exp2(v)
		},
		secret: exp2,
	}
)

// Exp computes e^x with the configured approximation.
func Exp(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnExp.apply(s, x)
}

// Exp2 computes 2^x.
func Exp2(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnExp2.apply(s, x)
}

func exp(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	if s.Config().ExpMode == env.ExpTaylor {
		return expTaylor(s, x)
	}
	return expPade(s, x)
}

// expTaylor computes (1+x/2^n)^(2^n).
func expTaylor(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	n := s.Config().ExpIters
	y, err := hal.Trunc(s, x, n)
	if err != nil {
		return nil, err
	}
	y, err = hal.Add(s, y, integer(s, 1, x))
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		y, err = hal.Square(s, y)
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

func expPade(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	y, err := mulConst(s, x, math.Log2E)
	if err != nil {
		return nil, err
	}
	return exp2(s, y)
}

// exp2 computes 2^x as the product of the Padé approximation of the
// fraction and the powers of the integer bits. Negative inputs are
// computed as 2^(x+32)/2^32.
func exp2(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	f := s.FxpBits()

	msb, err := hal.Msb(s, x)
	if err != nil {
		return nil, err
	}
	offset, err := hal.Mul(s, msb, integer(s, 1<<exp2Bits, x))
	if err != nil {
		return nil, err
	}
	xp, err := hal.Add(s, x, offset)
	if err != nil {
		return nil, err
	}

	positions := make([]int, f+exp2Bits)
	for i := range positions {
		positions[i] = i
	}
	bits, err := hal.Bits(s, xp, positions)
	if err != nil {
		return nil, err
	}

	weights := make([]uint64, f)
	for i := range weights {
		weights[i] = 1 << i
	}
	frac, err := hal.WeightedSum(s, bits[:f], weights, hal.DTFxp)
	if err != nil {
		return nil, err
	}
	ret, err := expFraction(s, frac)
	if err != nil {
		return nil, err
	}

	for i := 0; i < exp2Bits; i++ {
		// a·(2^(2^i)-1)+1
		pow, err := hal.WeightedSum(s, bits[f+i:f+i+1],
			[]uint64{1<<(1<<i) - 1}, hal.DTInt)
		if err != nil {
			return nil, err
		}
		pow, err = hal.Add(s, pow, integer(s, 1, x))
		if err != nil {
			return nil, err
		}
		ret, err = hal.Mul(s, ret, pow)
		if err != nil {
			return nil, err
		}
	}

	recip, err := hal.TruncWithSign(s, ret, 1<<exp2Bits, semi2k.SignPositive)
	if err != nil {
		return nil, err
	}
	return hal.Select(s, msb, recip, ret)
}

// expFraction computes 2^f = e^(f·ln2) for f ∈ [0, 1) with the
// Padé[3/3] approximation of e^t.
func expFraction(s *hal.Session, f *hal.Value) (*hal.Value, error) {
	t, err := mulConst(s, f, math.Ln2)
	if err != nil {
		return nil, err
	}
	t2, err := hal.Square(s, t)
	if err != nil {
		return nil, err
	}
	t3, err := hal.Mul(s, t2, t)
	if err != nil {
		return nil, err
	}
	half, err := hal.Trunc(s, t, 1)
	if err != nil {
		return nil, err
	}
	c2, err := mulConst(s, t2, 0.1)
	if err != nil {
		return nil, err
	}
	c3, err := mulConst(s, t3, 1.0/120)
	if err != nil {
		return nil, err
	}

	// even = 1 + t²/10, odd = t/2 + t³/120
	even, err := hal.Add(s, c2, integer(s, 1, f))
	if err != nil {
		return nil, err
	}
	odd, err := hal.Add(s, half, c3)
	if err != nil {
		return nil, err
	}
	p, err := hal.Add(s, even, odd)
	if err != nil {
		return nil, err
	}
	q, err := hal.Sub(s, even, odd)
	if err != nil {
		return nil, err
	}

	// q ∈ [0.7, 1]
	q2, err := hal.Add(s, q, q)
	if err != nil {
		return nil, err
	}
	y, err := hal.Sub(s, constant(s, recipSeed, f), q2)
	if err != nil {
		return nil, err
	}
	y, err = newton(s, q, y, 3)
	if err != nil {
		return nil, err
	}
	return hal.Mul(s, p, y)
}
