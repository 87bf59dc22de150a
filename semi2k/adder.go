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

// AddBB adds two boolean shared values with the configured parallel
// prefix adder.
func (obj *Object) AddBB(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("add_bb", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindAddBB, x.Len())

	switch obj.config.Adder {
	case env.Sklansky:
		return obj.sklansky(x, y)
	default:
		return obj.koggeStone(x, y)
	}
}

// koggeStone computes the carries with the Kogge-Stone prefix
// network: at distance i every bit combines with the bit i positions
// below it.
func (obj *Object) koggeStone(x, y ring.Array) (ring.Array, error) {
	k := obj.field.Bits()

	g, err := obj.AndBB(x, y)
	if err != nil {
		return ring.Array{}, err
	}
	p := ring.Xor(x, y)

	for i := 1; i < k; i <<= 1 {
		r, err := obj.AndBBVec(
			[]ring.Array{p, p},
			[]ring.Array{ring.LShift(g, i), ring.LShift(p, i)})
		if err != nil {
			return ring.Array{}, err
		}
		g = ring.Xor(g, r[0])
		p = r[1]
	}
	return ring.Xor(ring.Xor(x, y), ring.LShift(g, 1)), nil
}

// sklansky computes the carries with the Sklansky divide-and-conquer
// prefix network. At level s the upper half of every 2s-bit block
// combines with the top bit of the lower half.
func (obj *Object) sklansky(x, y ring.Array) (ring.Array, error) {
	k := obj.field.Bits()

	g, err := obj.AndBB(x, y)
	if err != nil {
		return ring.Array{}, err
	}
	p := ring.Xor(x, y)

	for s := 1; s < k; s <<= 1 {
		up, src := sklanskyMasks(k, s)

		gb := ring.AndScalar(spread(ring.AndScalar(g, src), s), up)
		pb := ring.AndScalar(spread(ring.AndScalar(p, src), s), up)
		pu := ring.AndScalar(p, up)

		r, err := obj.AndBBVec(
			[]ring.Array{pu, pu},
			[]ring.Array{gb, pb})
		if err != nil {
			return ring.Array{}, err
		}
		g = ring.Xor(g, r[0])
		p = ring.Xor(ring.AndScalar(p, ^up), r[1])
	}
	return ring.Xor(ring.Xor(x, y), ring.LShift(g, 1)), nil
}

// sklanskyMasks returns the masks of the upper half bits of the
// 2s-bit blocks and of the top bits of the lower halves.
func sklanskyMasks(k, s int) (up, src uint64) {
	for j := 0; j < k; j++ {
		if j&s != 0 {
			up |= 1 << j
		}
		if j%(2*s) == s-1 {
			src |= 1 << j
		}
	}
	return
}

// spread copies every bit of v to the s bits above it.
func spread(v ring.Array, s int) ring.Array {
	r := ring.LShift(v, 1)
	for i := 1; i < s; i <<= 1 {
		r = ring.Xor(r, ring.LShift(r, i))
	}
	return r
}

// CarryOut computes the carry out of bit k-1 of x+y, considering only
// the low k bits of x and y. The result is a boolean share in bit 0.
func (obj *Object) CarryOut(x, y ring.Array, k int) (ring.Array, error) {
	if err := obj.checkLen("carry_out", x, y); err != nil {
		return ring.Array{}, err
	}
	if k < 1 || k > obj.field.Bits() {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "carry_out",
			"invalid bit count %d for %v", k, obj.field)
	}
	obj.prof.record(KindCarryOut, x.Len())

	mask := math.Mask(k)
	x = ring.AndScalar(x, mask)
	y = ring.AndScalar(y, mask)

	g, err := obj.AndBB(x, y)
	if err != nil {
		return ring.Array{}, err
	}
	p := ring.Xor(x, y)

	for k > 1 {
		if k%2 == 1 {
			k++
			p = ring.LShift(p, 1)
			g = ring.LShift(g, 1)
		}
		p0, p1 := ring.BitSplit(p, k)
		g0, g1 := ring.BitSplit(g, k)

		r, err := obj.AndBBVec(
			[]ring.Array{p1, p1},
			[]ring.Array{p0, g0})
		if err != nil {
			return ring.Array{}, err
		}
		p = r[0]
		g = ring.Xor(g1, r[1])
		k /= 2
	}
	return g, nil
}

// reduceCSA reduces the operands to two with carry-save adders. Every
// level reduces each group of three operands to two in one round.
func (obj *Object) reduceCSA(ops []ring.Array) ([]ring.Array, error) {
	for len(ops) > 2 {
		groups := len(ops) / 3
		var xs, ys []ring.Array
		for i := 0; i < groups; i++ {
			a, b, c := ops[3*i], ops[3*i+1], ops[3*i+2]
			xs = append(xs, ring.Xor(a, c))
			ys = append(ys, ring.Xor(b, c))
		}
		r, err := obj.AndBBVec(xs, ys)
		if err != nil {
			return nil, err
		}
		var next []ring.Array
		for i := 0; i < groups; i++ {
			a, b, c := ops[3*i], ops[3*i+1], ops[3*i+2]
			sum := ring.Xor(ring.Xor(a, b), c)
			carry := ring.LShift(ring.Xor(r[i], c), 1)
			next = append(next, sum, carry)
		}
		next = append(next, ops[3*groups:]...)
		ops = next
	}
	return ops, nil
}

// operands returns the party's boolean shares of the N operands whose
// sum is the arithmetic shared value x: operand j is the share of
// party j, held by party j alone.
func (obj *Object) operands(x ring.Array) []ring.Array {
	result := make([]ring.Array, obj.WorldSize())
	for i := range result {
		if i == obj.Rank() {
			result[i] = x.Copy()
		} else {
			result[i] = ring.Zeros(x.Field, x.Len())
		}
	}
	return result
}
