//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ring

import (
	"fmt"
)

func binop(x, y Array, op func(a, b uint64) uint64) Array {
	if x.Field != y.Field || len(x.Data) != len(y.Data) {
		panic(fmt.Sprintf("ring: operand mismatch: %v[%d] vs %v[%d]",
			x.Field, len(x.Data), y.Field, len(y.Data)))
	}
	result := Zeros(x.Field, len(x.Data))
	mask := x.Field.Mask()
	for i, a := range x.Data {
		result.Data[i] = op(a, y.Data[i]) & mask
	}
	return result
}

func unop(x Array, op func(a uint64) uint64) Array {
	result := Zeros(x.Field, len(x.Data))
	mask := x.Field.Mask()
	for i, a := range x.Data {
		result.Data[i] = op(a) & mask
	}
	return result
}

// Add returns x+y.
func Add(x, y Array) Array {
	return binop(x, y, func(a, b uint64) uint64 { return a + b })
}

// Sub returns x-y.
func Sub(x, y Array) Array {
	return binop(x, y, func(a, b uint64) uint64 { return a - b })
}

// Mul returns x*y.
func Mul(x, y Array) Array {
	return binop(x, y, func(a, b uint64) uint64 { return a * b })
}

// And returns x&y.
func And(x, y Array) Array {
	return binop(x, y, func(a, b uint64) uint64 { return a & b })
}

// Xor returns x^y.
func Xor(x, y Array) Array {
	return binop(x, y, func(a, b uint64) uint64 { return a ^ b })
}

// Neg returns -x.
func Neg(x Array) Array {
	return unop(x, func(a uint64) uint64 { return -a })
}

// Not returns ^x.
func Not(x Array) Array {
	return unop(x, func(a uint64) uint64 { return ^a })
}

// AddScalar returns x+v.
func AddScalar(x Array, v uint64) Array {
	return unop(x, func(a uint64) uint64 { return a + v })
}

// MulScalar returns x*v.
func MulScalar(x Array, v uint64) Array {
	return unop(x, func(a uint64) uint64 { return a * v })
}

// AndScalar returns x&v.
func AndScalar(x Array, v uint64) Array {
	return unop(x, func(a uint64) uint64 { return a & v })
}

// XorScalar returns x^v.
func XorScalar(x Array, v uint64) Array {
	return unop(x, func(a uint64) uint64 { return a ^ v })
}

// LShift shifts elements left by bits. Shifts of K or more bits
// produce zero.
func LShift(x Array, bits int) Array {
	if bits >= x.Field.Bits() {
		return Zeros(x.Field, len(x.Data))
	}
	return unop(x, func(a uint64) uint64 { return a << bits })
}

// RShift shifts elements right logically within K bits. Shifts of K
// or more bits produce zero.
func RShift(x Array, bits int) Array {
	if bits >= x.Field.Bits() {
		return Zeros(x.Field, len(x.Data))
	}
	return unop(x, func(a uint64) uint64 { return a >> bits })
}

// ARShift shifts elements right arithmetically, replicating bit K-1.
// Shifts of K or more bits fill the elements with the sign bit.
func ARShift(x Array, bits int) Array {
	k := x.Field.Bits()
	if bits >= k {
		bits = k - 1
	}
	return unop(x, func(a uint64) uint64 {
		return uint64(SignExtend(x.Field, a) >> bits)
	})
}

// SignExtend interprets the element as a signed K-bit integer.
func SignExtend(field Field, a uint64) int64 {
	shift := 64 - field.Bits()
	return int64(a<<shift) >> shift
}

// Msb returns the bit K-1 of each element as 0 or 1.
func Msb(x Array) Array {
	k := x.Field.Bits()
	return unop(x, func(a uint64) uint64 { return (a >> (k - 1)) & 1 })
}

// MatMul computes the (m×n) product of the (m×k) matrix x and the
// (k×n) matrix y, both in row-major order.
func MatMul(x, y Array, m, k, n int) Array {
	if x.Field != y.Field || len(x.Data) != m*k || len(y.Data) != k*n {
		panic(fmt.Sprintf("ring: matmul mismatch: %v[%d]·%v[%d] for %dx%dx%d",
			x.Field, len(x.Data), y.Field, len(y.Data), m, k, n))
	}
	result := Zeros(x.Field, m*n)
	mask := x.Field.Mask()
	for i := 0; i < m; i++ {
		row := result.Data[i*n : (i+1)*n]
		for l := 0; l < k; l++ {
			a := x.Data[i*k+l]
			if a == 0 {
				continue
			}
			yrow := y.Data[l*n : (l+1)*n]
			for j, b := range yrow {
				row[j] += a * b
			}
		}
		for j := range row {
			row[j] &= mask
		}
	}
	return result
}

// Sum returns the sum of all arrays.
func Sum(arrs []Array) Array {
	result := arrs[0].Copy()
	for _, a := range arrs[1:] {
		result = Add(result, a)
	}
	return result
}

// XorSum returns the XOR of all arrays.
func XorSum(arrs []Array) Array {
	result := arrs[0].Copy()
	for _, a := range arrs[1:] {
		result = Xor(result, a)
	}
	return result
}
