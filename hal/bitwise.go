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

func (s *Session) checkShift(op string, bits int) error {
	if bits < 0 || bits >= s.field.Bits() {
		return env.Errorf(env.ConfigurationError, op,
			"shift %d out of range for %v", bits, s.field)
	}
	return nil
}

func boolResult(x *Value, data ring.Array) *Value {
	return newValue(DTInt, Secret, ReprBool, x.shape, data)
}

func publicResult(dtype DType, x *Value, data ring.Array) *Value {
	return newValue(dtype, Public, ReprPlain, x.shape, data)
}

// ToArith converts a boolean shared value into arithmetic shares.
func ToArith(s *Session, x *Value) (*Value, error) {
	if x.repr != ReprBool {
		return x, nil
	}
	d, err := s.arith(x)
	if err != nil {
		return nil, err
	}
	return newValue(x.dtype, Secret, ReprArith, x.shape, d), nil
}

// ToBool converts a secret value into boolean shares. Public values
// are returned as is.
func ToBool(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() || x.repr == ReprBool {
		return x, nil
	}
	d, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	return newValue(x.dtype, Secret, ReprBool, x.shape, d), nil
}

type boolOp struct {
	name  string
	plain func(x, y ring.Array) ring.Array
	sp    func(k Kernels, x, y ring.Array) (ring.Array, error)
	ss    func(k Kernels, x, y ring.Array) (ring.Array, error)
}

var (
	opAnd = &boolOp{
		name:  "and",
		plain: ring.And,
		sp:    Kernels.AndBP,
		ss:    Kernels.AndBB,
	}
	opXor = &boolOp{
		name:  "xor",
		plain: ring.Xor,
		sp:    Kernels.XorBP,
		ss:    Kernels.XorBB,
	}
)

func (s *Session) bitwise(op *boolOp, x, y *Value) (*Value, error) {
	if err := checkShapes(op.name, x, y); err != nil {
		return nil, err
	}
	if x.IsPublic() && y.IsPublic() {
		return publicResult(DTInt, x, op.plain(x.data, y.data)), nil
	}
	if x.IsPublic() {
		x, y = y, x
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	var z ring.Array
	if y.IsPublic() {
		z, err = op.sp(s.kernels, xd, y.data)
	} else {
		var yd ring.Array
		yd, err = s.boolean(y)
		if err == nil {
			z, err = op.ss(s.kernels, xd, yd)
		}
	}
	if err != nil {
		return nil, err
	}
	return boolResult(x, z), nil
}

// And computes the bitwise AND of x and y.
func And(s *Session, x, y *Value) (*Value, error) {
	return s.bitwise(opAnd, x, y)
}

// Xor computes the bitwise XOR of x and y.
func Xor(s *Session, x, y *Value) (*Value, error) {
	return s.bitwise(opXor, x, y)
}

// Or computes the bitwise OR of x and y as x^y^(x&y).
func Or(s *Session, x, y *Value) (*Value, error) {
	and, err := And(s, x, y)
	if err != nil {
		return nil, err
	}
	xor, err := Xor(s, x, y)
	if err != nil {
		return nil, err
	}
	return Xor(s, xor, and)
}

// Not computes the bitwise complement of x.
func Not(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.Not(x.data)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.NotB(xd)
	if err != nil {
		return nil, err
	}
	return boolResult(x, z), nil
}

// LShift shifts x left by bits. Shifts of K or more bits are
// rejected.
func LShift(s *Session, x *Value, bits int) (*Value, error) {
	if err := s.checkShift("lshift", bits); err != nil {
		return nil, err
	}
	switch x.repr {
	case ReprPlain:
		return publicResult(x.dtype, x, ring.LShift(x.data, bits)), nil
	case ReprBool:
		z, err := s.kernels.LShiftB(x.data, bits)
		if err != nil {
			return nil, err
		}
		return newValue(x.dtype, Secret, ReprBool, x.shape, z), nil
	default:
		z, err := s.kernels.LShiftA(x.data, bits)
		if err != nil {
			return nil, err
		}
		return newValue(x.dtype, Secret, ReprArith, x.shape, z), nil
	}
}

// RShift shifts x right logically by bits. Secret values are shifted
// exactly in their boolean representation.
func RShift(s *Session, x *Value, bits int) (*Value, error) {
	if err := s.checkShift("rshift", bits); err != nil {
		return nil, err
	}
	if x.IsPublic() {
		return publicResult(x.dtype, x, ring.RShift(x.data, bits)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.RShiftB(xd, bits)
	if err != nil {
		return nil, err
	}
	return newValue(x.dtype, Secret, ReprBool, x.shape, z), nil
}

// ARShift shifts x right arithmetically by bits. Secret values are
// shifted exactly in their boolean representation.
func ARShift(s *Session, x *Value, bits int) (*Value, error) {
	if err := s.checkShift("arshift", bits); err != nil {
		return nil, err
	}
	if x.IsPublic() {
		return publicResult(x.dtype, x, ring.ARShift(x.data, bits)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.ARShiftB(xd, bits)
	if err != nil {
		return nil, err
	}
	return newValue(x.dtype, Secret, ReprBool, x.shape, z), nil
}

// Bitrev reverses the bits [start, end) of x.
func Bitrev(s *Session, x *Value, start, end int) (*Value, error) {
	if start < 0 || end < start || end > s.field.Bits() {
		return nil, env.Errorf(env.ConfigurationError, "bitrev",
			"invalid bit range [%d,%d)", start, end)
	}
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.BitRev(x.data, start, end)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.BitrevB(xd, start, end)
	if err != nil {
		return nil, err
	}
	return boolResult(x, z), nil
}

// BitDeintl moves the even bits of x to the low half and the odd bits
// to the high half.
func BitDeintl(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.BitDeintl(x.data)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.BitDeintlB(xd)
	if err != nil {
		return nil, err
	}
	return boolResult(x, z), nil
}

// BitIntl is the inverse of BitDeintl.
func BitIntl(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.BitIntl(x.data)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.BitIntlB(xd)
	if err != nil {
		return nil, err
	}
	return boolResult(x, z), nil
}

// PrefixOr sets every bit below the highest set bit of x.
func PrefixOr(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.PrefixOr(x.data)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.PrefixOrB(xd)
	if err != nil {
		return nil, err
	}
	return boolResult(x, z), nil
}

// HighestBitOneHot returns the one-hot encoding of the highest set
// bit of x.
func HighestBitOneHot(s *Session, x *Value) (*Value, error) {
	po, err := PrefixOr(s, x)
	if err != nil {
		return nil, err
	}
	shifted, err := RShift(s, po, 1)
	if err != nil {
		return nil, err
	}
	return Xor(s, po, shifted)
}

// Popcount counts the set bits of x.
func Popcount(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.Popcount(x.data)), nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.PopcountB(xd, s.field.Bits())
	if err != nil {
		return nil, err
	}
	return newValue(DTInt, Secret, ReprArith, x.shape, z), nil
}

// Bits returns the bits of x at the argument positions as integer 0/1
// values. Secret bits are arithmetic shares.
func Bits(s *Session, x *Value, positions []int) ([]*Value, error) {
	for _, pos := range positions {
		if pos < 0 || pos >= s.field.Bits() {
			return nil, env.Errorf(env.ConfigurationError, "bits",
				"invalid bit position %d", pos)
		}
	}
	var result []*Value
	if x.IsPublic() {
		for _, pos := range positions {
			result = append(result,
				publicResult(DTInt, x, ring.Bit(x.data, pos)))
		}
		return result, nil
	}
	xd, err := s.boolean(x)
	if err != nil {
		return nil, err
	}
	bits, err := s.kernels.BitsB2A(xd, positions)
	if err != nil {
		return nil, err
	}
	for _, b := range bits {
		result = append(result, newValue(DTInt, Secret, ReprArith, x.shape, b))
	}
	return result, nil
}
