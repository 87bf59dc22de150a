// -*- go -*-
//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

// Package math implements integer helpers for ring widths and bit
// counts.
package math

// Maximum values of the unsigned ring element widths.
const (
	MaxUint8  = 0xff
	MaxUint16 = 0xffff
	MaxUint32 = 0xffffffff
	MaxUint64 = 0xffffffffffffffff
)

// Mask returns the mask of the low bits bits. Masks of 64 or more bits
// are all ones.
func Mask(bits int) uint64 {
	if bits <= 0 {
		return 0
	}
	if bits >= 64 {
		return MaxUint64
	}
	return 1<<bits - 1
}
