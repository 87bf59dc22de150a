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

const (
	tanhPadeClamp = 5
	tanhExpClamp  = 6
)

// Padé[7/6] coefficients of tanh(x)/x in x².
var (
	tanhNum = []int64{135135, 17325, 378, 1}
	tanhDen = []int64{135135, 62370, 3150, 28}
)

// tanhCoeffs returns the coefficients in t² for t = x/5, scaled by
// 2^-17. The scaling cancels in the quotient and keeps every
// intermediate below 2^6.
func tanhCoeffs(coeffs []int64) []float64 {
	result := make([]float64, len(coeffs))
	scale := 1.0
	for i, c := range coeffs {
		result[i] = math.Ldexp(float64(c)*scale, -17)
		scale *= tanhPadeClamp * tanhPadeClamp
	}
	return result
}

var (
	fnTanh = &unary{
		name:   "tanh",
		domain: "ℝ",
		valid: func(s *hal.Session, v float64) bool {
			return true
		},
		plain: func(s *hal.Session, v float64) float64 {
			return math.Tanh(v)
		},
		secret: tanh,
	}
	fnLogistic = &unary{
		name:   "logistic",
		domain: "ℝ",
		valid: func(s *hal.Session, v float64) bool {
			return true
		},
		plain: func(s *hal.Session, v float64) float64 {
			return 1 / (1 + math.Exp(-v))
		},
		secret: logistic,
	}
)

// Tanh computes the hyperbolic tangent of x with the configured
// approximation.
func Tanh(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnTanh.apply(s, x)
}

// Logistic computes 1/(1+e^-x) as ½+½·tanh(x/2).
func Logistic(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	return fnLogistic.apply(s, x)
}

func tanh(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	if s.Config().TanhMode == env.TanhExp {
		return tanhExp(s, x)
	}
	return tanhPade(s, x)
}

func clamp(s *hal.Session, x *hal.Value, limit float64) (*hal.Value, error) {
	return hal.Clamp(s, x, constant(s, -limit, x), constant(s, limit, x))
}

func tanhPade(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	x, err := clamp(s, x, tanhPadeClamp)
	if err != nil {
		return nil, err
	}
	t, err := mulConst(s, x, 1.0/tanhPadeClamp)
	if err != nil {
		return nil, err
	}
	t2, err := hal.Square(s, t)
	if err != nil {
		return nil, err
	}
	num, err := horner(s, t2, tanhCoeffs(tanhNum))
	if err != nil {
		return nil, err
	}
	num, err = hal.Mul(s, x, num)
	if err != nil {
		return nil, err
	}
	// den ∈ [1.03, 31.3]
	den, err := horner(s, t2, tanhCoeffs(tanhDen))
	if err != nil {
		return nil, err
	}
	r, err := reciprocal(s, den, true)
	if err != nil {
		return nil, err
	}
	r, err = hal.Mul(s, num, r)
	if err != nil {
		return nil, err
	}
	return clamp(s, r, 1)
}

// tanhExp computes tanh(x) = 1 - 2/(e^2x+1).
func tanhExp(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	x, err := clamp(s, x, tanhExpClamp)
	if err != nil {
		return nil, err
	}
	x2, err := hal.Add(s, x, x)
	if err != nil {
		return nil, err
	}
	e, err := expPade(s, x2)
	if err != nil {
		return nil, err
	}
	e, err = hal.Add(s, e, integer(s, 1, x))
	if err != nil {
		return nil, err
	}
	r, err := reciprocal(s, e, true)
	if err != nil {
		return nil, err
	}
	r, err = hal.Add(s, r, r)
	if err != nil {
		return nil, err
	}
	return hal.Sub(s, integer(s, 1, x), r)
}

func logistic(s *hal.Session, x *hal.Value) (*hal.Value, error) {
	h, err := hal.Trunc(s, x, 1)
	if err != nil {
		return nil, err
	}
	t, err := tanh(s, h)
	if err != nil {
		return nil, err
	}
	t, err = hal.Add(s, t, integer(s, 1, x))
	if err != nil {
		return nil, err
	}
	return hal.Trunc(s, t, 1)
}
