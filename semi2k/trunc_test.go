//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"math/rand"
	"testing"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/stretchr/testify/require"
)

func truncate(t *testing.T, config *env.Config, x ring.Array, bits int,
	sign Sign) ring.Array {

	t.Helper()
	rnd := rand.New(rand.NewSource(int64(bits)))
	xs := splitA(rnd, x, config.NumParties)

	results := run(t, config, func(obj *Object) ([]ring.Array, error) {
		var z ring.Array
		var err error
		if sign == SignUnknown {
			z, err = obj.TruncA(xs[obj.Rank()], bits)
		} else {
			z, err = obj.TruncASign(xs[obj.Rank()], bits, sign)
		}
		if err != nil {
			return nil, err
		}
		p, err := obj.S2P(z)
		if err != nil {
			return nil, err
		}
		return []ring.Array{p}, nil
	})
	return reveal(t, results, 0)
}

func TestTrunc(t *testing.T) {
	tests := []struct {
		variant env.Trunc
		field   ring.Field
		limit   int64
		bits    int
	}{
		{env.TruncProbabilistic, ring.FM64, 1 << 32, 18},
		{env.TruncMSB, ring.FM64, 1 << 60, 18},
		{env.TruncMSB, ring.FM32, 1 << 28, 8},
		{env.TruncExact, ring.FM64, 1 << 60, 18},
		{env.TruncExact, ring.FM64, 1 << 60, 1},
		{env.TruncExact, ring.FM32, 1 << 28, 8},
		{env.TruncExact, ring.FM32, 1 << 28, 30},
	}
	rnd := rand.New(rand.NewSource(10))
	for _, test := range tests {
		for _, n := range []int{2, 3} {
			config := newConfig(n, test.field)
			config.Trunc = test.variant

			x := signedArray(rnd, test.field, 200, test.limit)
			z := truncate(t, config, x, test.bits, SignUnknown)
			expected := ring.ARShift(x, test.bits)

			for i := range x.Data {
				diff := ring.SignExtend(test.field,
					(z.Data[i]-expected.Data[i])&test.field.Mask())
				if test.variant == env.TruncExact {
					require.Zero(t, diff, "%v/%d: %v>>%d",
						test.variant, n, ring.SignExtend(test.field, x.Data[i]),
						test.bits)
				} else {
					require.True(t, diff >= -1 && diff <= 1,
						"%v/%d: %v>>%d: diff %d", test.variant, n,
						ring.SignExtend(test.field, x.Data[i]), test.bits, diff)
				}
			}
		}
	}
}

func TestTruncSign(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for _, variant := range []env.Trunc{env.TruncMSB, env.TruncExact} {
		config := newConfig(2, ring.FM64)
		config.Trunc = variant

		pos := make([]int64, 100)
		neg := make([]int64, 100)
		for i := range pos {
			pos[i] = rnd.Int63n(1 << 61)
			neg[i] = -rnd.Int63n(1<<61) - 1
		}
		for _, test := range []struct {
			values []int64
			sign   Sign
		}{
			{pos, SignPositive},
			{neg, SignNegative},
		} {
			x := ring.EncodeInt(ring.FM64, test.values)
			z := ring.DecodeInt(truncate(t, config, x, 20, test.sign))
			for i, v := range test.values {
				diff := z[i] - v>>20
				if variant == env.TruncExact {
					require.Zero(t, diff, "%v: %v: %d", variant, test.sign, v)
				} else {
					require.True(t, diff >= -1 && diff <= 1,
						"%v: %v: %d: diff %d", variant, test.sign, v, diff)
				}
			}
		}
	}
}

func TestTruncZero(t *testing.T) {
	x := ring.EncodeInt(ring.FM64, []int64{-5, 0, 7})
	z := truncate(t, newConfig(2, ring.FM64), x, 0, SignUnknown)
	require.True(t, x.Equal(z))
}
