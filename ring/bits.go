//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ring

import (
	"math/bits"

	"github.com/markkurossi/ringmpc/pkg/math"
)

// BitRev reverses the bits [start, end) of each element. Other bits
// are kept.
func BitRev(x Array, start, end int) Array {
	k := x.Field.Bits()
	if end > k {
		end = k
	}
	if start >= end {
		return x.Copy()
	}
	width := end - start
	mask := math.Mask(width) << start
	return unop(x, func(a uint64) uint64 {
		rev := bits.Reverse64((a&mask)>>start) >> (64 - width)
		return (a &^ mask) | rev<<start
	})
}

// BitSplit splits the low k bits of each element into the even bits
// (lo) and the odd bits (hi). Bit 2i goes to lo bit i and bit 2i+1 to
// hi bit i. The bit count k must be even.
func BitSplit(x Array, k int) (lo, hi Array) {
	lo = Zeros(x.Field, len(x.Data))
	hi = Zeros(x.Field, len(x.Data))
	for i, a := range x.Data {
		lo.Data[i], hi.Data[i] = split(a, k)
	}
	return
}

func split(a uint64, k int) (lo, hi uint64) {
	for i := 0; i < k; i += 2 {
		lo |= ((a >> i) & 1) << (i / 2)
		hi |= ((a >> (i + 1)) & 1) << (i / 2)
	}
	return
}

// BitDeintl deinterleaves each element: the even bits move to the low
// half and the odd bits to the high half of the K bits.
func BitDeintl(x Array) Array {
	half := x.Field.Bits() / 2
	return unop(x, func(a uint64) uint64 {
		lo, hi := split(a, 2*half)
		return lo | hi<<half
	})
}

// BitIntl interleaves each element. It is the inverse of BitDeintl.
func BitIntl(x Array) Array {
	half := x.Field.Bits() / 2
	return unop(x, func(a uint64) uint64 {
		var r uint64
		for i := 0; i < half; i++ {
			r |= ((a >> i) & 1) << (2 * i)
			r |= ((a >> (half + i)) & 1) << (2*i + 1)
		}
		return r
	})
}

// Bit returns bit i of each element as 0 or 1.
func Bit(x Array, i int) Array {
	return unop(x, func(a uint64) uint64 { return (a >> i) & 1 })
}

// Popcount returns the number of one bits in each element.
func Popcount(x Array) Array {
	return unop(x, func(a uint64) uint64 {
		return uint64(bits.OnesCount64(a))
	})
}

// PrefixOr sets every bit below the highest one bit of each element.
func PrefixOr(x Array) Array {
	return unop(x, func(a uint64) uint64 {
		if a == 0 {
			return 0
		}
		return math.Mask(bits.Len64(a))
	})
}
