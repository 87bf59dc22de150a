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
)

// Hart 2524 rational approximation of log2(u) on [0.5, 1).
var (
	hartP = []float64{
		-2.05466671951, -8.8626599391, 6.10585199015, 4.81147460989,
	}
	hartQ = []float64{
		0.353553425277, 4.54517087629, 6.42784209029, 1.0,
	}
)

const (
	// Initial reciprocal guess of hartQ(u) on [0.5, 1).
	hartQSeed  = 2 / (4.358 + 12.33)
	hartQIters = 5

	// Log1p uses the Taylor series when |x| < log1pTaylor.
	log1pTaylor = 1.0 / 16
)

var (
	fnLog = &unary{
		name:   "log",
		domain: "(0,2^(F-1))",
		valid:  positive,
		plain: func(s *hal.Session, v float64) float64 {
			return math.Log(v)
		},
		secret: ln,
	}
	fnLog2 = &unary{
		name:   "log2",
		domain: "(0,2^(F-1))",
		valid:  positive,
		plain: func(s *hal.Session, v float64) float64 {
			return math.Log2(v)
		},
		secret: log2,
	}
	fnLog1p = &unary{
		name:   "log1p",
		domain: "(-1,2^(F-1))",
		valid: func(s *hal.Session, v float64) bool {
			return v > -1 && v+1 < maxFxp(s)
		},
		plain: func(s *hal.Session, v float64) float64 {
			return math.Log1p(v)
		},
		secret: log1p,
	}
)

// Log computes the natural logarithm of x.
func Log(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnLog.apply(s, x)
}

// Log2 computes the base-2 logarithm of x.
func Log2(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnLog2.apply(s, x)
}

// Log1p computes log(1+x). Small inputs use the Taylor series.
func Log1p(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnLog1p.apply(s, x)
}

func log2(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	n, err := normalize(s, x)
	if err != nil {
		return nil, err
	}
	l, err := hart(s, n.u)
	if err != nil {
		return nil, err
	}
	e, err := n.exponent(s)
	if err != nil {
		return nil, err
	}
	return hal.Add(s, l, e)
}

// hart computes log2(u) for u ∈ [0.5, 1).
func hart(s *hal.Session, u *hal.Value) (*hal.Value, error) {
	p, err := horner(s, u, hartP)
	if err != nil {
		return nil, err
	}
	q, err := horner(s, u, hartQ)
	if err != nil {
		return nil, err
	}
	y, err := newton(s, q, constant(s, hartQSeed, u), hartQIters)
	if err != nil {
		return nil, err
	}
	return hal.Mul(s, p, y)
}

func ln(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	if s.Config().LogMode == env.LogHouseholder {
		return logHouseholder(s, x)
	}
	l, err := log2(s, x)
	if err != nil {
		return nil, err
	}
	return mulConst(s, l, math.Ln2)
}

// logHouseholder refines ln(u) of the normalized mantissa with
// Householder iterations y = y - Σ h^i/i, h = 1 - u·e^(-y).
func logHouseholder(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	config := s.Config()

	n, err := normalize(s, x)
	if err != nil {
		return nil, err
	}
	l, err := hart(s, n.u)
	if err != nil {
		return nil, err
	}
	y, err := mulConst(s, l, math.Ln2)
	if err != nil {
		return nil, err
	}
	for iter := 0; iter < config.LogIters; iter++ {
		neg, err := hal.Negate(s, y)
		if err != nil {
			return nil, err
		}
		e, err := expPade(s, neg)
		if err != nil {
			return nil, err
		}
		ue, err := hal.Mul(s, n.u, e)
		if err != nil {
			return nil, err
		}
		h, err := hal.Sub(s, integer(s, 1, x), ue)
		if err != nil {
			return nil, err
		}
		sum := h
		hp := h
		for i := 2; i <= config.LogOrders; i++ {
			hp, err = hal.Mul(s, hp, h)
			if err != nil {
				return nil, err
			}
			term, err := mulConst(s, hp, 1/float64(i))
			if err != nil {
				return nil, err
			}
			sum, err = hal.Add(s, sum, term)
			if err != nil {
				return nil, err
			}
		}
		y, err = hal.Sub(s, y, sum)
		if err != nil {
			return nil, err
		}
	}
	e, err := n.weighted(s, func(p int) float64 {
		return float64(p+1-s.FxpBits()) * math.Ln2
	})
	if err != nil {
		return nil, err
	}
	return hal.Add(s, y, e)
}

func log1p(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	// x - x²/2 + x³/3 - x⁴/4
	x2, err := hal.Square(s, x)
	if err != nil {
		return nil, err
	}
	x3, err := hal.Mul(s, x2, x)
	if err != nil {
		return nil, err
	}
	x4, err := hal.Square(s, x2)
	if err != nil {
		return nil, err
	}
	t2, err := hal.Trunc(s, x2, 1)
	if err != nil {
		return nil, err
	}
	t3, err := mulConst(s, x3, 1.0/3)
	if err != nil {
		return nil, err
	}
	t4, err := hal.Trunc(s, x4, 2)
	if err != nil {
		return nil, err
	}
	taylor, err := hal.Sub(s, x, t2)
	if err != nil {
		return nil, err
	}
	taylor, err = hal.Add(s, taylor, t3)
	if err != nil {
		return nil, err
	}
	taylor, err = hal.Sub(s, taylor, t4)
	if err != nil {
		return nil, err
	}

	x1, err := hal.Add(s, x, integer(s, 1, x))
	if err != nil {
		return nil, err
	}
	l, err := ln(s, x1)
	if err != nil {
		return nil, err
	}

	abs, err := hal.Abs(s, x)
	if err != nil {
		return nil, err
	}
	small, err := hal.Less(s, abs, constant(s, log1pTaylor, x))
	if err != nil {
		return nil, err
	}
	return hal.Select(s, small, taylor, l)
}
