//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package math

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// CeilLog2 returns the smallest l for which 1<<l >= v. Values smaller
// than 2 return 0.
func CeilLog2[T constraints.Integer](v T) int {
	if v <= 1 {
		return 0
	}
	return bits.Len64(uint64(v - 1))
}

// Product returns the product of the argument values. The product of
// an empty slice is 1.
func Product[T constraints.Integer](values []T) T {
	var result T = 1
	for _, v := range values {
		result *= v
	}
	return result
}
