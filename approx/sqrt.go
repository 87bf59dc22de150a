//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package approx

import (
	"math"

	"github.com/markkurossi/ringmpc/hal"
)

// Linear seed of the inverse square root on [0.5, 1).
const (
	rsqrtSeed0 = 1.7746
	rsqrtSeed1 = 0.8041
)

var (
	fnRsqrt = &unary{
		name:   "rsqrt",
		domain: "(2^(2-F),2^(F-1))",
		valid:  positive,
		plain: func(s *hal.Session, v float64) float64 {
			return 1 / math.Sqrt(v)
		},
		secret: rsqrt,
	}
	fnSqrt = &unary{
		name:   "sqrt",
		domain: "[0,2^(F-1))",
		valid: func(s *hal.Session, v float64) bool {
			return v >= 0 && v < maxFxp(s)
		},
		plain: func(s *hal.Session, v float64) float64 {
			return math.Sqrt(v)
		},
		secret: sqrt,
	}
	fnReciprocal = &unary{
		name:   "reciprocal",
		domain: "2^(2-F)≤|x|<2^(F-1)",
		valid: func(s *hal.Session, v float64) bool {
			return positive(s, math.Abs(v))
		},
		plain: func(s *hal.Session, v float64) float64 {
			return 1 / v
		},
		secret: func(s *hal.Session, x *hal.Value) (*hal.Value, error) {
			return reciprocal(s, x, false)
		},
	}
)

// Rsqrt computes 1/√x.
func Rsqrt(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnRsqrt.apply(s, x)
}

// Sqrt computes √x as x·Rsqrt(x).
func Sqrt(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnSqrt.apply(s, x)
}

// Reciprocal computes 1/x.
func Reciprocal(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnReciprocal.apply(s, x)
}

// Div computes x/y as x·Reciprocal(y).
func Div(s *hal.Session, x, y *hal.Value) (*hal.Value, error) {
	r, err := Reciprocal(s, y)
	if err != nil {
		return nil, err
	}
	return hal.Mul(s, x, r)
}

func rsqrt(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	n, err := normalize(s, x)
	if err != nil {
		return nil, err
	}
	y, err := mulConst(s, n.u, rsqrtSeed1)
	if err != nil {
		return nil, err
	}
	y, err = hal.Sub(s, constant(s, rsqrtSeed0, x), y)
	if err != nil {
		return nil, err
	}
	// y = y·(3-u·y²)/2
	for i := 0; i < s.Config().SqrtIters; i++ {
		y2, err := hal.Square(s, y)
		if err != nil {
			return nil, err
		}
		uy2, err := hal.Mul(s, n.u, y2)
		if err != nil {
			return nil, err
		}
		d, err := hal.Sub(s, integer(s, 3, x), uy2)
		if err != nil {
			return nil, err
		}
		y, err = hal.Mul(s, y, d)
		if err != nil {
			return nil, err
		}
		y, err = hal.Trunc(s, y, 1)
		if err != nil {
			return nil, err
		}
	}
	f := s.FxpBits()
	factor, err := n.weighted(s, func(p int) float64 {
		return math.Pow(2, float64(f-1-p)/2)
	})
	if err != nil {
		return nil, err
	}
	return hal.Mul(s, y, factor)
}

func sqrt(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	r, err := rsqrt(s, x)
	if err != nil {
		return nil, err
	}
	return hal.Mul(s, x, r)
}

// reciprocal computes 1/x with Newton iterations on the normalized
// |x|. The sign computation is skipped for inputs known to be
// positive.
func reciprocal(s *hal.Session, x *hal.Value, knownPositive bool) (
	*hal.Value, error) {

	var sign *hal.Value
	var err error

	ax := x
	if !knownPositive {
		sign, err = hal.Sign(s, x)
		if err != nil {
			return nil, err
		}
		ax, err = hal.Mul(s, sign, x)
		if err != nil {
			return nil, err
		}
	}
	n, err := normalize(s, ax)
	if err != nil {
		return nil, err
	}
	u2, err := hal.Add(s, n.u, n.u)
	if err != nil {
		return nil, err
	}
	y, err := hal.Sub(s, constant(s, recipSeed, x), u2)
	if err != nil {
		return nil, err
	}
	y, err = newton(s, n.u, y, s.Config().RecipIters)
	if err != nil {
		return nil, err
	}
	y, err = hal.Mul(s, y, n.factor)
	if err != nil {
		return nil, err
	}
	if sign != nil {
		y, err = hal.Mul(s, y, sign)
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}
