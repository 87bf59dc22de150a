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

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Msb returns the sign bit of x as an integer 0/1 value.
func Msb(s *Session, x *Value) (*Value, error) {
	if x.IsPublic() {
		return publicResult(DTInt, x, ring.Msb(x.data)), nil
	}
	xd, err := s.arith(x)
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.MsbA(xd)
	if err != nil {
		return nil, err
	}
	return newValue(DTInt, Secret, ReprArith, x.shape, z), nil
}

// Less returns x<y as an integer 0/1 value. Secret comparisons
// require that x-y does not overflow.
func Less(s *Session, x, y *Value) (*Value, error) {
	if err := checkShapes("less", x, y); err != nil {
		return nil, err
	}
	if x.IsPublic() && y.IsPublic() {
		xd, yd, _, err := s.promote(x, y)
		if err != nil {
			return nil, err
		}
		z := ring.Zeros(s.field, xd.Len())
		for i := range z.Data {
			z.Data[i] = b2u(ring.SignExtend(s.field, xd.Data[i]) <
				ring.SignExtend(s.field, yd.Data[i]))
		}
		return publicResult(DTInt, x, z), nil
	}
	d, err := Sub(s, x, y)
	if err != nil {
		return nil, err
	}
	return Msb(s, d)
}

// Greater returns x>y as an integer 0/1 value.
func Greater(s *Session, x, y *Value) (*Value, error) {
	return Less(s, y, x)
}

// Equal returns x==y as an integer 0/1 value.
func Equal(s *Session, x, y *Value) (*Value, error) {
	if err := checkShapes("equal", x, y); err != nil {
		return nil, err
	}
	xd, yd, _, err := s.promote(x, y)
	if err != nil {
		return nil, err
	}
	if x.IsPublic() && y.IsPublic() {
		z := ring.Zeros(s.field, xd.Len())
		for i := range z.Data {
			z.Data[i] = b2u(xd.Data[i] == yd.Data[i])
		}
		return publicResult(DTInt, x, z), nil
	}
	if x.IsPublic() {
		xd, err = s.kernels.P2S(xd)
	} else if y.IsPublic() {
		yd, err = s.kernels.P2S(yd)
	}
	if err != nil {
		return nil, err
	}
	z, err := s.kernels.EqualAA(xd, yd)
	if err != nil {
		return nil, err
	}
	return newValue(DTInt, Secret, ReprArith, x.shape, z), nil
}

// Select returns a where pred is 1 and b where pred is 0, computed
// without branching as b + pred·(a-b). The predicate must be an
// integer 0/1 value.
func Select(s *Session, pred, a, b *Value) (*Value, error) {
	if pred.dtype != DTInt {
		return nil, env.Errorf(env.ConfigurationError, "select",
			"predicate type %v, expected %v", pred.dtype, DTInt)
	}
	diff, err := Sub(s, a, b)
	if err != nil {
		return nil, err
	}
	sel, err := Mul(s, pred, diff)
	if err != nil {
		return nil, err
	}
	return Add(s, b, sel)
}

// Clamp limits x to the range [lo, hi].
func Clamp(s *Session, x, lo, hi *Value) (*Value, error) {
	below, err := Less(s, x, lo)
	if err != nil {
		return nil, err
	}
	x, err = Select(s, below, lo, x)
	if err != nil {
		return nil, err
	}
	above, err := Greater(s, x, hi)
	if err != nil {
		return nil, err
	}
	return Select(s, above, hi, x)
}

// Sign returns -1 for negative and 1 for non-negative elements of x.
func Sign(s *Session, x *Value) (*Value, error) {
	msb, err := Msb(s, x)
	if err != nil {
		return nil, err
	}
	m2, err := LShift(s, msb, 1)
	if err != nil {
		return nil, err
	}
	return Sub(s, Constant(s, 1, x.shape), m2)
}

// Abs returns the absolute value of x.
func Abs(s *Session, x *Value) (*Value, error) {
	sign, err := Sign(s, x)
	if err != nil {
		return nil, err
	}
	return Mul(s, sign, x)
}
