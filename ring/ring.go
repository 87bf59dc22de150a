//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ring implements plaintext arrays of K-bit ring elements.
// Elements are stored in uint64 words and always reduced modulo 2^K.
package ring

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/ringmpc/pkg/math"
)

// Field defines the ring width K in bits.
type Field int

// Supported ring widths.
const (
	FM32 Field = 32
	FM64 Field = 64
)

// Valid tests if the field is supported.
func (f Field) Valid() bool {
	return f == FM32 || f == FM64
}

// Bits returns the ring width in bits.
func (f Field) Bits() int {
	return int(f)
}

// Mask returns the element mask 2^K-1.
func (f Field) Mask() uint64 {
	return math.Mask(int(f))
}

func (f Field) String() string {
	return fmt.Sprintf("FM%d", int(f))
}

// Shape defines tensor dimensions.
type Shape []int

// Numel returns the number of elements.
func (s Shape) Numel() int {
	return math.Product(s)
}

// Equal tests if the shapes are equal.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i, d := range s {
		if d != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}

// Array holds ring elements.
type Array struct {
	Field Field
	Data  []uint64
}

// Zeros creates an array of n zero elements.
func Zeros(field Field, n int) Array {
	return Array{
		Field: field,
		Data:  make([]uint64, n),
	}
}

// Filled creates an array of n elements of value v.
func Filled(field Field, n int, v uint64) Array {
	arr := Zeros(field, n)
	v &= field.Mask()
	for i := range arr.Data {
		arr.Data[i] = v
	}
	return arr
}

// New creates an array from the argument values. The values are
// reduced to the field.
func New(field Field, values []uint64) Array {
	arr := Zeros(field, len(values))
	mask := field.Mask()
	for i, v := range values {
		arr.Data[i] = v & mask
	}
	return arr
}

// Len returns the number of elements.
func (a Array) Len() int {
	return len(a.Data)
}

// Copy returns a deep copy of the array.
func (a Array) Copy() Array {
	return New(a.Field, a.Data)
}

// Slice returns elements [from, to) as a new array sharing storage.
func (a Array) Slice(from, to int) Array {
	return Array{
		Field: a.Field,
		Data:  a.Data[from:to],
	}
}

// Equal tests if the arrays hold identical elements.
func (a Array) Equal(o Array) bool {
	if a.Field != o.Field || len(a.Data) != len(o.Data) {
		return false
	}
	for i, v := range a.Data {
		if v != o.Data[i] {
			return false
		}
	}
	return true
}

// Concat concatenates arrays of the same field.
func Concat(arrs ...Array) Array {
	var n int
	for _, a := range arrs {
		n += len(a.Data)
	}
	result := Array{
		Data: make([]uint64, 0, n),
	}
	for _, a := range arrs {
		result.Field = a.Field
		result.Data = append(result.Data, a.Data...)
	}
	return result
}

// Split splits the array into parts of the argument lengths.
func (a Array) Split(lengths ...int) []Array {
	var result []Array
	var ofs int
	for _, l := range lengths {
		result = append(result, a.Slice(ofs, ofs+l))
		ofs += l
	}
	return result
}

// Bytes encodes the elements in little-endian byte order. FM32
// elements take 4 bytes and FM64 elements 8 bytes.
func (a Array) Bytes() []byte {
	size := a.Field.Bits() / 8
	buf := make([]byte, len(a.Data)*size)
	for i, v := range a.Data {
		if size == 4 {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
		} else {
			binary.LittleEndian.PutUint64(buf[i*8:], v)
		}
	}
	return buf
}

// FromBytes decodes n elements from data.
func FromBytes(field Field, n int, data []byte) (Array, error) {
	size := field.Bits() / 8
	if len(data) != n*size {
		return Array{}, fmt.Errorf("invalid %v data: got %d bytes, expected %d",
			field, len(data), n*size)
	}
	arr := Zeros(field, n)
	for i := range arr.Data {
		if size == 4 {
			arr.Data[i] = uint64(binary.LittleEndian.Uint32(data[i*4:]))
		} else {
			arr.Data[i] = binary.LittleEndian.Uint64(data[i*8:])
		}
	}
	return arr, nil
}

// Rand creates an array of n uniformly random elements read from r.
func Rand(field Field, n int, r io.Reader) (Array, error) {
	buf := make([]byte, n*8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Array{}, err
	}
	arr := Zeros(field, n)
	mask := field.Mask()
	for i := range arr.Data {
		arr.Data[i] = binary.LittleEndian.Uint64(buf[i*8:]) & mask
	}
	return arr, nil
}
