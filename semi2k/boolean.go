//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
)

// XorBB computes the XOR of two boolean shared values.
func (obj *Object) XorBB(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("xor_bb", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindXorBB, x.Len())
	return ring.Xor(x, y), nil
}

// XorBP computes the XOR of the boolean shared value x and the public
// value y.
func (obj *Object) XorBP(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("xor_bp", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindXorBP, x.Len())
	if obj.isRank0() {
		return ring.Xor(x, y), nil
	}
	return x.Copy(), nil
}

// AndBP computes the AND of the boolean shared value x and the public
// value y.
func (obj *Object) AndBP(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("and_bp", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindAndBP, x.Len())
	return ring.And(x, y), nil
}

// NotB inverts all K bits of the boolean shared value x.
func (obj *Object) NotB(x ring.Array) (ring.Array, error) {
	if err := obj.check("not_b", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindNotB, x.Len())
	if obj.isRank0() {
		return ring.Not(x), nil
	}
	return x.Copy(), nil
}

func (obj *Object) checkShift(op string, x ring.Array, bits int) error {
	if err := obj.check(op, x); err != nil {
		return err
	}
	if bits < 0 {
		return env.Errorf(env.ConfigurationError, op,
			"invalid shift %d", bits)
	}
	obj.prof.record(KindShiftB, x.Len())
	return nil
}

// LShiftB shifts the boolean shared value x left by bits.
func (obj *Object) LShiftB(x ring.Array, bits int) (ring.Array, error) {
	if err := obj.checkShift("lshift_b", x, bits); err != nil {
		return ring.Array{}, err
	}
	return ring.LShift(x, bits), nil
}

// RShiftB shifts the boolean shared value x right logically by bits.
func (obj *Object) RShiftB(x ring.Array, bits int) (ring.Array, error) {
	if err := obj.checkShift("rshift_b", x, bits); err != nil {
		return ring.Array{}, err
	}
	return ring.RShift(x, bits), nil
}

// ARShiftB shifts the boolean shared value x right arithmetically by
// bits. Sign extension commutes with XOR so the shift is local.
func (obj *Object) ARShiftB(x ring.Array, bits int) (ring.Array, error) {
	if err := obj.checkShift("arshift_b", x, bits); err != nil {
		return ring.Array{}, err
	}
	return ring.ARShift(x, bits), nil
}

// BitrevB reverses the bits [start, end) of the boolean shared value
// x.
func (obj *Object) BitrevB(x ring.Array, start, end int) (
	ring.Array, error) {

	if err := obj.check("bitrev_b", x); err != nil {
		return ring.Array{}, err
	}
	if start < 0 || end < start || end > obj.field.Bits() {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "bitrev_b",
			"invalid bit range [%d,%d)", start, end)
	}
	obj.prof.record(KindBitPermB, x.Len())
	return ring.BitRev(x, start, end), nil
}

// BitDeintlB moves the even bits of the boolean shared value x to the
// low half and the odd bits to the high half.
func (obj *Object) BitDeintlB(x ring.Array) (ring.Array, error) {
	if err := obj.check("bitdeintl_b", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindBitPermB, x.Len())
	return ring.BitDeintl(x), nil
}

// BitIntlB is the inverse of BitDeintlB.
func (obj *Object) BitIntlB(x ring.Array) (ring.Array, error) {
	if err := obj.check("bitintl_b", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindBitPermB, x.Len())
	return ring.BitIntl(x), nil
}

// AndBB computes the AND of two boolean shared values.
func (obj *Object) AndBB(x, y ring.Array) (ring.Array, error) {
	z, err := obj.AndBBVec([]ring.Array{x}, []ring.Array{y})
	if err != nil {
		return ring.Array{}, err
	}
	return z[0], nil
}

// AndBBVec computes the AND of the operand pairs xs[i], ys[i]. All
// pairs are evaluated in one round.
func (obj *Object) AndBBVec(xs, ys []ring.Array) ([]ring.Array, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, env.Errorf(env.ConfigurationError, "and_bb",
			"invalid operand counts %d/%d", len(xs), len(ys))
	}
	var lengths []int
	var n int
	for i := range xs {
		if err := obj.checkLen("and_bb", xs[i], ys[i]); err != nil {
			return nil, err
		}
		lengths = append(lengths, xs[i].Len())
		n += xs[i].Len()
	}
	obj.prof.record(KindAndBB, n)

	x := ring.Concat(xs...)
	y := ring.Concat(ys...)
	x.Field = obj.field
	y.Field = obj.field

	t, err := obj.src.And(obj.field, n)
	if err != nil {
		return nil, err
	}
	opened, err := obj.openB("and_bb",
		ring.Concat(ring.Xor(x, t.A), ring.Xor(y, t.B)))
	if err != nil {
		return nil, err
	}
	parts := opened.Split(n, n)
	d, e := parts[0], parts[1]

	z := ring.Xor(t.C, ring.Xor(ring.And(d, t.B), ring.And(e, t.A)))
	if obj.isRank0() {
		z = ring.Xor(z, ring.And(d, e))
	}
	return z.Split(lengths...), nil
}
