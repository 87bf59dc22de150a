//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package hal

import (
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
)

func checkShape(op string, shape ring.Shape, n int) (ring.Shape, error) {
	if shape == nil {
		shape = ring.Shape{n}
	}
	for _, d := range shape {
		if d < 0 {
			return nil, env.Errorf(env.ConfigurationError, op,
				"invalid shape %v", shape)
		}
	}
	if shape.Numel() != n {
		return nil, env.Errorf(env.ConfigurationError, op,
			"shape %v does not match %d elements", shape, n)
	}
	return append(ring.Shape(nil), shape...), nil
}

// Constant creates a public integer value of the argument shape with
// all elements set to v.
func Constant(s *Session, v int64, shape ring.Shape) *Value {
	data := ring.Filled(s.field, shape.Numel(), uint64(v))
	return newValue(DTInt, Public, ReprPlain,
		append(ring.Shape(nil), shape...), data)
}

// ConstantFxp creates a public fixed-point value of the argument
// shape with all elements set to v.
func ConstantFxp(s *Session, v float64, shape ring.Shape) *Value {
	enc := ring.EncodeFloat(s.field, s.FxpBits(), []float64{v})
	data := ring.Filled(s.field, shape.Numel(), enc.Data[0])
	return newValue(DTFxp, Public, ReprPlain,
		append(ring.Shape(nil), shape...), data)
}

// PublicInt creates a public integer value. A nil shape creates a
// vector.
func PublicInt(s *Session, values []int64, shape ring.Shape) (*Value, error) {
	shape, err := checkShape("public", shape, len(values))
	if err != nil {
		return nil, err
	}
	return newValue(DTInt, Public, ReprPlain, shape,
		ring.EncodeInt(s.field, values)), nil
}

// PublicFxp creates a public fixed-point value. A nil shape creates a
// vector.
func PublicFxp(s *Session, values []float64, shape ring.Shape) (
	*Value, error) {

	shape, err := checkShape("public", shape, len(values))
	if err != nil {
		return nil, err
	}
	return newValue(DTFxp, Public, ReprPlain, shape,
		ring.EncodeFloat(s.field, s.FxpBits(), values)), nil
}

// InputInt secret shares the owner's integer values. The values
// argument is ignored on other parties but the shape must be known to
// all parties.
func InputInt(s *Session, owner int, values []int64, shape ring.Shape) (
	*Value, error) {

	var data ring.Array
	if s.Rank() == owner {
		data = ring.EncodeInt(s.field, values)
	}
	return input(s, owner, DTInt, data, shape)
}

// InputFxp secret shares the owner's fixed-point values.
func InputFxp(s *Session, owner int, values []float64, shape ring.Shape) (
	*Value, error) {

	var data ring.Array
	if s.Rank() == owner {
		data = ring.EncodeFloat(s.field, s.FxpBits(), values)
	}
	return input(s, owner, DTFxp, data, shape)
}

func input(s *Session, owner int, dtype DType, data ring.Array,
	shape ring.Shape) (*Value, error) {

	if shape == nil {
		return nil, env.Errorf(env.ConfigurationError, "input",
			"input shape not specified")
	}
	shares, err := s.kernels.Input(owner, data, shape.Numel())
	if err != nil {
		return nil, err
	}
	return newValue(dtype, Secret, ReprArith,
		append(ring.Shape(nil), shape...), shares), nil
}

// Seal converts the public value into a secret value.
func Seal(s *Session, v *Value) (*Value, error) {
	if v.IsSecret() {
		return v, nil
	}
	shares, err := s.kernels.P2S(v.data)
	if err != nil {
		return nil, err
	}
	return newValue(v.dtype, Secret, ReprArith, v.shape, shares), nil
}

// Reveal opens the secret value to all parties.
func Reveal(s *Session, v *Value) (*Value, error) {
	if v.IsPublic() {
		return v, nil
	}
	var data ring.Array
	var err error
	if v.repr == ReprBool {
		data, err = s.kernels.B2P(v.data)
	} else {
		data, err = s.kernels.S2P(v.data)
	}
	if err != nil {
		return nil, err
	}
	return newValue(v.dtype, Public, ReprPlain, v.shape, data), nil
}

// DecodeInt returns the signed integer elements of the public value.
func DecodeInt(v *Value) ([]int64, error) {
	if v.IsSecret() {
		return nil, env.Errorf(env.ConfigurationError, "decode",
			"cannot decode secret value")
	}
	return ring.DecodeInt(v.data), nil
}

// Decode returns the elements of the public value as floats according
// to the value's logical type.
func Decode(s *Session, v *Value) ([]float64, error) {
	if v.IsSecret() {
		return nil, env.Errorf(env.ConfigurationError, "decode",
			"cannot decode secret value")
	}
	if v.dtype == DTFxp {
		return ring.DecodeFloat(v.data, s.FxpBits()), nil
	}
	ints := ring.DecodeInt(v.data)
	result := make([]float64, len(ints))
	for i, iv := range ints {
		result[i] = float64(iv)
	}
	return result, nil
}
