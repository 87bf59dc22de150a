//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/pkg/math"
	"github.com/markkurossi/ringmpc/ring"
)

// Sign defines the known sign of a value.
type Sign int

// Known signs.
const (
	SignUnknown Sign = iota
	SignPositive
	SignNegative
)

var signNames = map[Sign]string{
	SignUnknown:  "unknown",
	SignPositive: "positive",
	SignNegative: "negative",
}

func (s Sign) String() string {
	name, ok := signNames[s]
	if ok {
		return name
	}
	return "{Sign}"
}

func (obj *Object) checkTrunc(op string, x ring.Array, bits int) error {
	if err := obj.check(op, x); err != nil {
		return err
	}
	if bits < 0 || bits > obj.field.Bits()-2 {
		return env.Errorf(env.ConfigurationError, op,
			"invalid truncation bits %d for %v", bits, obj.field)
	}
	return nil
}

// TruncA shifts the arithmetic shared value x right arithmetically
// by bits using the configured truncation variant. The result is
// exact for the exact variant. The other variants may be one larger
// than the exact shift.
func (obj *Object) TruncA(x ring.Array, bits int) (ring.Array, error) {
	if err := obj.checkTrunc("trunc_a", x, bits); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindTruncA, x.Len())
	if bits == 0 {
		return x.Copy(), nil
	}

	switch obj.config.Trunc {
	case env.TruncProbabilistic:
		return obj.truncProbabilistic(x, bits)
	case env.TruncExact:
		return obj.truncMsb(x, bits, true, true)
	default:
		return obj.truncMsb(x, bits, true, false)
	}
}

// TruncASign truncates x whose sign is known to all parties. A
// positive sign skips the range offset. A negative value is negated
// around the positive protocol.
func (obj *Object) TruncASign(x ring.Array, bits int, sign Sign) (
	ring.Array, error) {

	if err := obj.checkTrunc("trunc_a_sign", x, bits); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindTruncASign, x.Len())
	if bits == 0 {
		return x.Copy(), nil
	}
	exact := obj.config.Trunc == env.TruncExact

	switch sign {
	case SignPositive:
		if obj.config.Trunc == env.TruncProbabilistic {
			return obj.truncProbabilistic(x, bits)
		}
		return obj.truncMsb(x, bits, false, exact)

	case SignNegative:
		// floor(x/2^b) = -floor((2^b-1-x)/2^b)
		y := ring.Neg(x)
		if obj.isRank0() {
			y = ring.AddScalar(y, math.Mask(bits))
		}
		var z ring.Array
		var err error
		if obj.config.Trunc == env.TruncProbabilistic {
			z, err = obj.truncProbabilistic(y, bits)
		} else {
			z, err = obj.truncMsb(y, bits, false, exact)
		}
		if err != nil {
			return ring.Array{}, err
		}
		return ring.Neg(z), nil

	default:
		return obj.TruncA(x, bits)
	}
}

func (obj *Object) truncProbabilistic(x ring.Array, bits int) (
	ring.Array, error) {

	if obj.WorldSize() == 2 {
		if obj.isRank0() {
			return ring.ARShift(x, bits), nil
		}
		return ring.Neg(ring.ARShift(ring.Neg(x), bits)), nil
	}

	pair, err := obj.src.Trunc(obj.field, x.Len(), bits)
	if err != nil {
		return ring.Array{}, err
	}
	c, err := obj.open("trunc_a", ring.Sub(x, pair.R))
	if err != nil {
		return ring.Array{}, err
	}
	z := pair.Hi
	if obj.isRank0() {
		z = ring.Add(z, ring.ARShift(c, bits))
	}
	return z, nil
}

// truncMsb implements the truncation with the dealer pair ([r],
// [r'>>bits], [msb(r)]) where r' is the low K-1 bits of r. With
// offset, the value is moved to [0, 2^(K-1)) by adding 2^(K-2) so
// that the protocol handles negative values. With exact, the borrow
// of the low bits is computed with a carry-out circuit and
// subtracted.
func (obj *Object) truncMsb(x ring.Array, bits int, offset, exact bool) (
	ring.Array, error) {

	k := obj.field.Bits()
	n := x.Len()

	pair, err := obj.src.TruncMsb(obj.field, n, bits)
	if err != nil {
		return ring.Array{}, err
	}
	y := x
	if offset && obj.isRank0() {
		y = ring.AddScalar(x, uint64(1)<<(k-2))
	}
	c, err := obj.open("trunc_a", ring.Add(y, pair.R))
	if err != nil {
		return ring.Array{}, err
	}
	cLow := ring.AndScalar(c, math.Mask(k-1))
	cMsb := ring.Msb(c)

	// w = msb(c) XOR msb(r) as an arithmetic share.
	w := ring.Add(pair.Msb,
		ring.Mul(cMsb, ring.Neg(ring.MulScalar(pair.Msb, 2))))
	if obj.isRank0() {
		w = ring.Add(w, cMsb)
	}

	z := ring.Add(ring.Neg(pair.Hi), ring.LShift(w, k-1-bits))
	if obj.isRank0() {
		z = ring.Add(z, ring.RShift(cLow, bits))
		if offset {
			z = ring.Sub(z, ring.Filled(obj.field, n, uint64(1)<<(k-2-bits)))
		}
	}
	if !exact {
		return z, nil
	}

	// The low bits borrow iff c mod 2^b < r mod 2^b. The carry out of
	// (2·cb+1) + (2·(2^b-1-rb)+1) is set iff cb >= rb.
	cb := ring.AndScalar(cLow, math.Mask(bits))
	px := ring.AddScalar(ring.LShift(cb, 1), 1)
	py := ring.LShift(pair.LowB, 1)
	if obj.isRank0() {
		py = ring.XorScalar(ring.LShift(ring.XorScalar(pair.LowB,
			math.Mask(bits)), 1), 1)
	}
	ge, err := obj.CarryOut(obj.public(px), py, bits+1)
	if err != nil {
		return ring.Array{}, err
	}
	geA, err := obj.B2A(ge, 1)
	if err != nil {
		return ring.Array{}, err
	}
	// z - (1 - ge)
	z = ring.Add(z, geA)
	if obj.isRank0() {
		z = ring.AddScalar(z, obj.field.Mask())
	}
	return z, nil
}
