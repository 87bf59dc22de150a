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

// A2B converts the arithmetic shared value x into boolean shares.
func (obj *Object) A2B(x ring.Array) (ring.Array, error) {
	if err := obj.check("a2b", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindA2B, x.Len())

	ops, err := obj.reduceCSA(obj.operands(x))
	if err != nil {
		return ring.Array{}, err
	}
	return obj.AddBB(ops[0], ops[1])
}

// B2A converts the low nbits bits of the boolean shared value x into
// arithmetic shares.
func (obj *Object) B2A(x ring.Array, nbits int) (ring.Array, error) {
	if nbits < 1 || nbits > obj.field.Bits() {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "b2a",
			"invalid bit count %d for %v", nbits, obj.field)
	}
	positions := make([]int, nbits)
	for i := range positions {
		positions[i] = i
	}
	bits, err := obj.BitsB2A(x, positions)
	if err != nil {
		return ring.Array{}, err
	}
	result := ring.Zeros(obj.field, x.Len())
	for i, b := range bits {
		result = ring.Add(result, ring.LShift(b, i))
	}
	return result, nil
}

// BitsB2A converts the bits at the argument positions of the boolean
// shared value x into arithmetic 0/1 shares. The result has one array
// per position. All positions are converted in one round with daBits.
func (obj *Object) BitsB2A(x ring.Array, positions []int) (
	[]ring.Array, error) {

	if err := obj.check("b2a", x); err != nil {
		return nil, err
	}
	var mask uint64
	for _, pos := range positions {
		if pos < 0 || pos >= obj.field.Bits() {
			return nil, env.Errorf(env.ConfigurationError, "b2a",
				"invalid bit position %d for %v", pos, obj.field)
		}
		if mask&(1<<pos) != 0 {
			return nil, env.Errorf(env.ConfigurationError, "b2a",
				"duplicate bit position %d", pos)
		}
		mask |= 1 << pos
	}
	n := x.Len()
	np := len(positions)
	obj.prof.record(KindB2A, n)

	db, err := obj.src.DaBits(obj.field, n*np)
	if err != nil {
		return nil, err
	}
	// The daBit j of element i masks bit positions[j].
	packed := ring.Zeros(obj.field, n)
	for i := 0; i < n; i++ {
		for j, pos := range positions {
			packed.Data[i] |= db.B.Data[i*np+j] << pos
		}
	}
	c, err := obj.openB("b2a", ring.Xor(ring.AndScalar(x, mask), packed))
	if err != nil {
		return nil, err
	}

	result := make([]ring.Array, np)
	for j, pos := range positions {
		bit := ring.Zeros(obj.field, n)
		for i := 0; i < n; i++ {
			r := db.A.Data[i*np+j]
			if (c.Data[i]>>pos)&1 == 0 {
				bit.Data[i] = r
			} else if obj.isRank0() {
				bit.Data[i] = (1 - r) & obj.field.Mask()
			} else {
				bit.Data[i] = (-r) & obj.field.Mask()
			}
		}
		result[j] = bit
	}
	return result, nil
}

// MsbA returns the sign bit of the arithmetic shared value x as an
// arithmetic 0/1 share.
func (obj *Object) MsbA(x ring.Array) (ring.Array, error) {
	if err := obj.check("msb_a", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindMsbA, x.Len())
	k := obj.field.Bits()

	ops, err := obj.reduceCSA(obj.operands(x))
	if err != nil {
		return ring.Array{}, err
	}
	carry, err := obj.CarryOut(ops[0], ops[1], k-1)
	if err != nil {
		return ring.Array{}, err
	}
	msb := ring.Xor(ring.Bit(ring.Xor(ops[0], ops[1]), k-1), carry)

	bits, err := obj.BitsB2A(msb, []int{0})
	if err != nil {
		return ring.Array{}, err
	}
	return bits[0], nil
}

// LessAA returns the arithmetic 0/1 share of x < y for arithmetic
// shared signed values whose difference does not overflow.
func (obj *Object) LessAA(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("less_aa", x, y); err != nil {
		return ring.Array{}, err
	}
	return obj.MsbA(ring.Sub(x, y))
}

// EqualAA returns the arithmetic 0/1 share of x == y.
func (obj *Object) EqualAA(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("equal_aa", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindEqualAA, x.Len())

	var diff ring.Array
	if obj.WorldSize() == 2 {
		// x-y = 0 iff x0-y0 = y1-x1 so the parties' local values
		// are boolean shares of a value that is zero iff x == y.
		diff = ring.Sub(x, y)
		if !obj.isRank0() {
			diff = ring.Neg(diff)
		}
	} else {
		var err error
		diff, err = obj.A2B(ring.Sub(x, y))
		if err != nil {
			return ring.Array{}, err
		}
	}
	eq, err := obj.allOnes(diff)
	if err != nil {
		return ring.Array{}, err
	}
	bits, err := obj.BitsB2A(eq, []int{0})
	if err != nil {
		return ring.Array{}, err
	}
	return bits[0], nil
}

// allOnes returns in bit 0 the boolean share of whether all K bits of
// the boolean shared value x are zero.
func (obj *Object) allOnes(x ring.Array) (ring.Array, error) {
	v, err := obj.NotB(x)
	if err != nil {
		return ring.Array{}, err
	}
	for k := obj.field.Bits(); k > 1; k /= 2 {
		lo, hi := ring.BitSplit(v, k)
		v, err = obj.AndBB(lo, hi)
		if err != nil {
			return ring.Array{}, err
		}
	}
	return ring.AndScalar(v, 1), nil
}

// PrefixOrB sets every bit below the highest set bit of the boolean
// shared value x.
func (obj *Object) PrefixOrB(x ring.Array) (ring.Array, error) {
	if err := obj.check("prefix_or_b", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindPrefixOrB, x.Len())

	b := x
	for ofs := 1; ofs < obj.field.Bits(); ofs <<= 1 {
		t := ring.RShift(b, ofs)
		bt, err := obj.AndBB(b, t)
		if err != nil {
			return ring.Array{}, err
		}
		b = ring.Xor(ring.Xor(b, t), bt)
	}
	return b, nil
}

// HighestOneBit returns the boolean shares of the one-hot encoding of
// the highest set bit of x.
func (obj *Object) HighestOneBit(x ring.Array) (ring.Array, error) {
	po, err := obj.PrefixOrB(x)
	if err != nil {
		return ring.Array{}, err
	}
	return ring.Xor(po, ring.RShift(po, 1)), nil
}

// PopcountB returns the arithmetic share of the number of set bits in
// the low nbits bits of the boolean shared value x.
func (obj *Object) PopcountB(x ring.Array, nbits int) (ring.Array, error) {
	if nbits < 1 || nbits > obj.field.Bits() {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "popcount",
			"invalid bit count %d for %v", nbits, obj.field)
	}
	positions := make([]int, nbits)
	for i := range positions {
		positions[i] = i
	}
	bits, err := obj.BitsB2A(ring.AndScalar(x, math.Mask(nbits)), positions)
	if err != nil {
		return ring.Array{}, err
	}
	return ring.Sum(bits), nil
}
