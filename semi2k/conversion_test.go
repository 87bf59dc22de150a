//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/stretchr/testify/require"
)

func TestAdders(t *testing.T) {
	rnd := rand.New(rand.NewSource(20))
	for _, adder := range []env.Adder{env.KoggeStone, env.Sklansky} {
		for _, field := range fields {
			for _, n := range []int{2, 3} {
				config := newConfig(n, field)
				config.Adder = adder

				x := randArray(rnd, field, 64)
				y := randArray(rnd, field, 64)
				x.Data[0] = field.Mask()
				y.Data[0] = 1
				xs := splitB(rnd, x, n)
				ys := splitB(rnd, y, n)

				results := run(t, config,
					func(obj *Object) ([]ring.Array, error) {
						z, err := obj.AddBB(xs[obj.Rank()], ys[obj.Rank()])
						if err != nil {
							return nil, err
						}
						p, err := obj.B2P(z)
						if err != nil {
							return nil, err
						}
						return []ring.Array{p}, nil
					})
				require.True(t, ring.Add(x, y).Equal(reveal(t, results, 0)),
					"%v: %v/%d", adder, field, n)
			}
		}
	}
}

func TestSklanskyMasks(t *testing.T) {
	up, src := sklanskyMasks(8, 2)
	require.Equal(t, uint64(0b11001100), up)
	require.Equal(t, uint64(0b00100010), src)

	x := ring.New(ring.FM64, []uint64{0b00100010})
	require.Equal(t, uint64(0b11001100), spread(x, 2).Data[0])
}

func TestCarryOut(t *testing.T) {
	rnd := rand.New(rand.NewSource(21))
	x := randArray(rnd, ring.FM64, 100)
	y := randArray(rnd, ring.FM64, 100)
	xs := splitB(rnd, x, 3)
	ys := splitB(rnd, y, 3)

	widths := []int{1, 2, 7, 18, 32, 63, 64}
	results := run(t, newConfig(3, ring.FM64),
		func(obj *Object) ([]ring.Array, error) {
			var result []ring.Array
			for _, k := range widths {
				c, err := obj.CarryOut(xs[obj.Rank()], ys[obj.Rank()], k)
				if err != nil {
					return nil, err
				}
				p, err := obj.B2P(c)
				if err != nil {
					return nil, err
				}
				result = append(result, p)
			}
			return result, nil
		})
	for i, k := range widths {
		c := reveal(t, results, i)
		for j := range x.Data {
			a := x.Data[j] & (1<<k - 1)
			b := y.Data[j] & (1<<k - 1)
			if k == 64 {
				a, b = x.Data[j], y.Data[j]
			}
			_, carry := bits.Add64(a, b, 0)
			if k < 64 {
				carry = ((a + b) >> k) & 1
			}
			require.Equal(t, carry, c.Data[j], "k=%d: %x+%x", k, a, b)
		}
	}
}

func TestConversions(t *testing.T) {
	rnd := rand.New(rand.NewSource(22))
	for _, field := range fields {
		for _, n := range []int{2, 3, 4} {
			x := randArray(rnd, field, 40)
			xs := splitA(rnd, x, n)
			b := randArray(rnd, field, 40)
			bs := splitB(rnd, b, n)

			results := run(t, newConfig(n, field),
				func(obj *Object) ([]ring.Array, error) {
					xb, err := obj.A2B(xs[obj.Rank()])
					if err != nil {
						return nil, err
					}
					pxb, err := obj.B2P(xb)
					if err != nil {
						return nil, err
					}
					xa, err := obj.B2A(xb, field.Bits())
					if err != nil {
						return nil, err
					}
					pxa, err := obj.S2P(xa)
					if err != nil {
						return nil, err
					}
					ba, err := obj.B2A(bs[obj.Rank()], 10)
					if err != nil {
						return nil, err
					}
					pba, err := obj.S2P(ba)
					if err != nil {
						return nil, err
					}
					pc, err := obj.PopcountB(bs[obj.Rank()], field.Bits())
					if err != nil {
						return nil, err
					}
					ppc, err := obj.S2P(pc)
					if err != nil {
						return nil, err
					}
					result := []ring.Array{pxb, pxa, pba, ppc}

					sel, err := obj.BitsB2A(bs[obj.Rank()], []int{0, 5, 31})
					if err != nil {
						return nil, err
					}
					for _, bit := range sel {
						p, err := obj.S2P(bit)
						if err != nil {
							return nil, err
						}
						result = append(result, p)
					}
					return result, nil
				})
			require.True(t, x.Equal(reveal(t, results, 0)), "%v/%d: a2b", field, n)
			require.True(t, x.Equal(reveal(t, results, 1)), "%v/%d: b2a", field, n)
			require.True(t, ring.AndScalar(b, 1023).Equal(reveal(t, results, 2)),
				"%v/%d: b2a low bits", field, n)
			require.True(t, ring.Popcount(b).Equal(reveal(t, results, 3)),
				"%v/%d: popcount", field, n)
			for i, pos := range []int{0, 5, 31} {
				require.True(t, ring.Bit(b, pos).Equal(reveal(t, results, 4+i)),
					"%v/%d: bit %d", field, n, pos)
			}
		}
	}
}

func TestCompare(t *testing.T) {
	rnd := rand.New(rand.NewSource(23))
	for _, field := range fields {
		for _, n := range []int{2, 3} {
			limit := int64(1) << (field.Bits() - 3)
			x := signedArray(rnd, field, 60, limit)
			y := signedArray(rnd, field, 60, limit)
			for i := 0; i < 20; i++ {
				y.Data[i] = x.Data[i]
			}
			y.Data[20] = ring.Add(ring.New(field, []uint64{x.Data[20]}),
				ring.New(field, []uint64{1})).Data[0]
			xs := splitA(rnd, x, n)
			ys := splitA(rnd, y, n)

			results := run(t, newConfig(n, field),
				func(obj *Object) ([]ring.Array, error) {
					sx, sy := xs[obj.Rank()], ys[obj.Rank()]
					var result []ring.Array
					for _, op := range []func() (ring.Array, error){
						func() (ring.Array, error) { return obj.MsbA(sx) },
						func() (ring.Array, error) { return obj.LessAA(sx, sy) },
						func() (ring.Array, error) { return obj.EqualAA(sx, sy) },
					} {
						z, err := op()
						if err != nil {
							return nil, err
						}
						p, err := obj.S2P(z)
						if err != nil {
							return nil, err
						}
						result = append(result, p)
					}
					return result, nil
				})

			msb := reveal(t, results, 0)
			less := reveal(t, results, 1)
			equal := reveal(t, results, 2)
			for i := range x.Data {
				a := ring.SignExtend(field, x.Data[i])
				b := ring.SignExtend(field, y.Data[i])
				require.Equal(t, b2u(a < 0), msb.Data[i], "%v/%d: msb(%d)",
					field, n, a)
				require.Equal(t, b2u(a < b), less.Data[i], "%v/%d: %d<%d",
					field, n, a, b)
				require.Equal(t, b2u(a == b), equal.Data[i], "%v/%d: %d==%d",
					field, n, a, b)
			}
		}
	}
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func TestPrefixOr(t *testing.T) {
	rnd := rand.New(rand.NewSource(24))
	for _, field := range fields {
		x := randArray(rnd, field, 64)
		for i := range x.Data {
			x.Data[i] >>= uint(i % field.Bits())
		}
		x.Data[0] = 0
		xs := splitB(rnd, x, 2)

		results := run(t, newConfig(2, field),
			func(obj *Object) ([]ring.Array, error) {
				po, err := obj.PrefixOrB(xs[obj.Rank()])
				if err != nil {
					return nil, err
				}
				h, err := obj.HighestOneBit(xs[obj.Rank()])
				if err != nil {
					return nil, err
				}
				var result []ring.Array
				for _, z := range []ring.Array{po, h} {
					p, err := obj.B2P(z)
					if err != nil {
						return nil, err
					}
					result = append(result, p)
				}
				return result, nil
			})
		po := reveal(t, results, 0)
		require.True(t, ring.PrefixOr(x).Equal(po), "%v", field)

		h := reveal(t, results, 1)
		for i, v := range x.Data {
			var expected uint64
			if v != 0 {
				expected = 1 << (bits.Len64(v) - 1)
			}
			require.Equal(t, expected, h.Data[i])
		}
	}
}
