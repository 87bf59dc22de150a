//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ring

import (
	gomath "math"
)

// EncodeFloat encodes real values in fixed-point with fxpBits
// fractional bits: v is stored as round(v·2^fxpBits).
func EncodeFloat(field Field, fxpBits int, values []float64) Array {
	arr := Zeros(field, len(values))
	mask := field.Mask()
	scale := gomath.Ldexp(1, fxpBits)
	for i, v := range values {
		arr.Data[i] = uint64(int64(gomath.Round(v*scale))) & mask
	}
	return arr
}

// DecodeFloat decodes fixed-point elements into real values.
func DecodeFloat(x Array, fxpBits int) []float64 {
	result := make([]float64, len(x.Data))
	for i, a := range x.Data {
		result[i] = gomath.Ldexp(float64(SignExtend(x.Field, a)), -fxpBits)
	}
	return result
}

// EncodeInt encodes signed integers.
func EncodeInt(field Field, values []int64) Array {
	arr := Zeros(field, len(values))
	mask := field.Mask()
	for i, v := range values {
		arr.Data[i] = uint64(v) & mask
	}
	return arr
}

// DecodeInt decodes elements as signed K-bit integers.
func DecodeInt(x Array) []int64 {
	result := make([]int64, len(x.Data))
	for i, a := range x.Data {
		result[i] = SignExtend(x.Field, a)
	}
	return result
}
