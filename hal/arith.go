//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package hal

import (
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/markkurossi/ringmpc/semi2k"
)

func checkShapes(op string, x, y *Value) error {
	if !x.shape.Equal(y.shape) {
		return env.Errorf(env.ConfigurationError, op,
			"shape mismatch: %v and %v", x.shape, y.shape)
	}
	return nil
}

// arith returns the value's arithmetic shares or plain data.
func (s *Session) arith(v *Value) (ring.Array, error) {
	if v.repr == ReprBool {
		return s.kernels.B2A(v.data, s.field.Bits())
	}
	return v.data, nil
}

// boolean returns the value's boolean shares. Public values are
// shared so that rank 0 holds the value.
func (s *Session) boolean(v *Value) (ring.Array, error) {
	switch v.repr {
	case ReprBool:
		return v.data, nil
	case ReprArith:
		return s.kernels.A2B(v.data)
	default:
		return s.kernels.P2S(v.data)
	}
}

// promote returns the arithmetic data of x and y with integer values
// scaled to fixed-point if the other operand is fixed-point.
func (s *Session) promote(x, y *Value) (xd, yd ring.Array, dtype DType,
	err error) {

	xd, err = s.arith(x)
	if err != nil {
		return
	}
	yd, err = s.arith(y)
	if err != nil {
		return
	}
	dtype = x.dtype
	if x.dtype == DTFxp && y.dtype != DTFxp {
		yd = ring.LShift(yd, s.FxpBits())
	} else if y.dtype == DTFxp && x.dtype != DTFxp {
		xd = ring.LShift(xd, s.FxpBits())
		dtype = DTFxp
	}
	return
}

func (s *Session) result(dtype DType, secret bool, shape ring.Shape,
	data ring.Array) *Value {
	if secret {
		return newValue(dtype, Secret, ReprArith, shape, data)
	}
	return newValue(dtype, Public, ReprPlain, shape, data)
}

// Add computes x+y.
func Add(s *Session, x, y *Value) (*Value, error) {
	if err := checkShapes("add", x, y); err != nil {
		return nil, err
	}
	xd, yd, dtype, err := s.promote(x, y)
	if err != nil {
		return nil, err
	}
	var z ring.Array
	switch {
	case x.IsPublic() && y.IsPublic():
		z = ring.Add(xd, yd)
	case x.IsSecret() && y.IsPublic():
		z, err = s.kernels.AddSP(xd, yd)
	case x.IsPublic() && y.IsSecret():
		z, err = s.kernels.AddSP(yd, xd)
	default:
		z, err = s.kernels.AddSS(xd, yd)
	}
	if err != nil {
		return nil, err
	}
	return s.result(dtype, x.IsSecret() || y.IsSecret(), x.shape, z), nil
}

// Sub computes x-y.
func Sub(s *Session, x, y *Value) (*Value, error) {
	if err := checkShapes("sub", x, y); err != nil {
		return nil, err
	}
	xd, yd, dtype, err := s.promote(x, y)
	if err != nil {
		return nil, err
	}
	var z ring.Array
	switch {
	case x.IsPublic() && y.IsPublic():
		z = ring.Sub(xd, yd)
	case x.IsSecret() && y.IsPublic():
		z, err = s.kernels.AddSP(xd, ring.Neg(yd))
	case x.IsPublic() && y.IsSecret():
		z, err = s.kernels.NegS(yd)
		if err == nil {
			z, err = s.kernels.AddSP(z, xd)
		}
	default:
		z, err = s.kernels.SubSS(xd, yd)
	}
	if err != nil {
		return nil, err
	}
	return s.result(dtype, x.IsSecret() || y.IsSecret(), x.shape, z), nil
}

// Negate computes -x.
func Negate(s *Session, x *Value) (*Value, error) {
	xd, err := s.arith(x)
	if err != nil {
		return nil, err
	}
	var z ring.Array
	if x.IsPublic() {
		z = ring.Neg(xd)
	} else {
		z, err = s.kernels.NegS(xd)
		if err != nil {
			return nil, err
		}
	}
	return s.result(x.dtype, x.IsSecret(), x.shape, z), nil
}

// mulType returns the result type of a product and tells if the
// product must be rescaled.
func mulType(x, y *Value) (DType, bool) {
	if x.dtype == DTFxp && y.dtype == DTFxp {
		return DTFxp, true
	}
	if x.dtype == DTFxp || y.dtype == DTFxp {
		return DTFxp, false
	}
	return x.dtype, false
}

// Mul computes x·y. The product of two fixed-point values is
// truncated by F bits.
func Mul(s *Session, x, y *Value) (*Value, error) {
	if err := checkShapes("mul", x, y); err != nil {
		return nil, err
	}
	xd, err := s.arith(x)
	if err != nil {
		return nil, err
	}
	yd, err := s.arith(y)
	if err != nil {
		return nil, err
	}
	dtype, rescale := mulType(x, y)

	var z ring.Array
	switch {
	case x.IsPublic() && y.IsPublic():
		z = ring.Mul(xd, yd)
	case x.IsSecret() && y.IsPublic():
		z, err = s.kernels.MulSP(xd, yd)
	case x.IsPublic() && y.IsSecret():
		z, err = s.kernels.MulSP(yd, xd)
	default:
		z, err = s.kernels.MulSS(xd, yd)
	}
	if err != nil {
		return nil, err
	}
	v := s.result(dtype, x.IsSecret() || y.IsSecret(), x.shape, z)
	if rescale {
		return Trunc(s, v, s.FxpBits())
	}
	return v, nil
}

// Square computes x·x.
func Square(s *Session, x *Value) (*Value, error) {
	return Mul(s, x, x)
}

// MatMul computes the matrix product of the (m×k) matrix x and the
// (k×n) matrix y.
func MatMul(s *Session, x, y *Value) (*Value, error) {
	if len(x.shape) != 2 || len(y.shape) != 2 || x.shape[1] != y.shape[0] {
		return nil, env.Errorf(env.ConfigurationError, "matmul",
			"invalid shapes %v and %v", x.shape, y.shape)
	}
	m, k, n := x.shape[0], x.shape[1], y.shape[1]

	xd, err := s.arith(x)
	if err != nil {
		return nil, err
	}
	yd, err := s.arith(y)
	if err != nil {
		return nil, err
	}
	dtype, rescale := mulType(x, y)

	var z ring.Array
	switch {
	case x.IsPublic() && y.IsPublic():
		z = ring.MatMul(xd, yd, m, k, n)
	case x.IsSecret() && y.IsPublic():
		z, err = s.kernels.MatMulSP(xd, yd, m, k, n)
	case x.IsPublic() && y.IsSecret():
		z, err = s.kernels.MatMulPS(xd, yd, m, k, n)
	default:
		z, err = s.kernels.MatMulSS(xd, yd, m, k, n)
	}
	if err != nil {
		return nil, err
	}
	v := s.result(dtype, x.IsSecret() || y.IsSecret(), ring.Shape{m, n}, z)
	if rescale {
		return Trunc(s, v, s.FxpBits())
	}
	return v, nil
}

// Trunc shifts x right arithmetically by bits. Secret values use the
// configured truncation protocol.
func Trunc(s *Session, x *Value, bits int) (*Value, error) {
	return TruncWithSign(s, x, bits, semi2k.SignUnknown)
}

// TruncWithSign truncates x whose sign is known to be sign.
func TruncWithSign(s *Session, x *Value, bits int, sign semi2k.Sign) (
	*Value, error) {

	if err := s.checkShift("trunc", bits); err != nil {
		return nil, err
	}
	xd, err := s.arith(x)
	if err != nil {
		return nil, err
	}
	if x.IsPublic() {
		return s.result(x.dtype, false, x.shape, ring.ARShift(xd, bits)), nil
	}
	var z ring.Array
	if sign == semi2k.SignUnknown {
		z, err = s.kernels.TruncA(xd, bits)
	} else {
		z, err = s.kernels.TruncASign(xd, bits, sign)
	}
	if err != nil {
		return nil, err
	}
	return s.result(x.dtype, true, x.shape, z), nil
}

// WeightedSum computes Σ weights[i]·terms[i] with public ring element
// weights. The result has the argument logical type.
func WeightedSum(s *Session, terms []*Value, weights []uint64,
	dtype DType) (*Value, error) {

	if len(terms) == 0 || len(terms) != len(weights) {
		return nil, env.Errorf(env.ConfigurationError, "weighted_sum",
			"invalid term count %d for %d weights", len(terms), len(weights))
	}
	n := terms[0].Numel()
	pub := ring.Zeros(s.field, n)
	sec := ring.Zeros(s.field, n)
	var secret bool

	for i, term := range terms {
		if err := checkShapes("weighted_sum", terms[0], term); err != nil {
			return nil, err
		}
		d, err := s.arith(term)
		if err != nil {
			return nil, err
		}
		d = ring.MulScalar(d, weights[i])
		if term.IsSecret() {
			sec = ring.Add(sec, d)
			secret = true
		} else {
			pub = ring.Add(pub, d)
		}
	}
	if !secret {
		return s.result(dtype, false, terms[0].shape, pub), nil
	}
	z, err := s.kernels.AddSP(sec, pub)
	if err != nil {
		return nil, err
	}
	return s.result(dtype, true, terms[0].shape, z), nil
}
