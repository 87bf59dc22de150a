//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package beaver

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/pkg/math"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

// SeedSize defines the size of the stream seeds in bytes.
const SeedSize = chacha20.KeySize

type seed [SeedSize]byte

// TFP implements the trusted-first-party source. Each party expands
// its shares from a private seed; party 0 knows all seeds and corrects
// its own shares so that the shares sum up to valid correlations. The
// draws need no communication after the seed exchange.
type TFP struct {
	lctx   *link.Context
	rank   int
	size   int
	seeds  []seed
	draw   uint64
	used   uint64
	budget uint64
}

var _ Source = &TFP{}

// NewTFP creates a new trusted-first-party source. The parties send
// their seeds to party 0 over lctx.
func NewTFP(lctx *link.Context, config *env.Config) (*TFP, error) {
	var own seed
	if _, err := io.ReadFull(config.GetRandom(), own[:]); err != nil {
		return nil, env.Wrap(env.ConfigurationError, "tfp", err)
	}
	t := &TFP{
		lctx:   lctx,
		rank:   lctx.Rank(),
		size:   lctx.WorldSize(),
		seeds:  make([]seed, lctx.WorldSize()),
		budget: config.MaxTriples,
	}
	t.seeds[t.rank] = own

	if t.rank != 0 {
		if err := lctx.Send(0, own[:]); err != nil {
			return nil, err
		}
		return t, nil
	}
	for i := 1; i < t.size; i++ {
		data, err := lctx.Recv(i)
		if err != nil {
			return nil, err
		}
		if len(data) != SeedSize {
			return nil, env.Errorf(env.ProtocolViolation, "tfp",
				"invalid seed from peer %d: %d bytes", i, len(data))
		}
		copy(t.seeds[i][:], data)
	}
	return t, nil
}

// Fork implements Source.Fork. The child seeds are derived from the
// parent seeds and the child channel ID.
func (t *TFP) Fork(child *link.Context) (Source, error) {
	if child.Rank() != t.rank || child.WorldSize() != t.size {
		return nil, env.Errorf(env.ConfigurationError, "tfp fork",
			"child communicator %v/%d does not match party %d/%d",
			child, child.WorldSize(), t.rank, t.size)
	}
	result := &TFP{
		lctx:   child,
		rank:   t.rank,
		size:   t.size,
		seeds:  make([]seed, t.size),
		budget: t.budget,
	}
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], child.ID())

	for i := range t.seeds {
		if i != t.rank && t.rank != 0 {
			continue
		}
		h := blake3.New()
		h.Write(t.seeds[i][:])
		h.Write(id[:])
		copy(result.seeds[i][:], h.Sum(nil))
	}
	return result, nil
}

// Stats implements Source.Stats.
func (t *TFP) Stats() Stats {
	return Stats{
		Draws:    t.draw,
		Elements: t.used,
	}
}

// next allocates the next draw for count elements.
func (t *TFP) next(op string, count int) (uint64, error) {
	if count < 0 {
		return 0, env.Errorf(env.ConfigurationError, op,
			"invalid count %d", count)
	}
	if t.budget > 0 && t.used+uint64(count) > t.budget {
		return 0, env.Errorf(env.TripleExhaustion, op,
			"%d elements requested, %d of %d used", count, t.used, t.budget)
	}
	draw := t.draw
	t.draw++
	t.used += uint64(count)
	return draw, nil
}

// expand expands arrays of the argument sizes from the draw stream of
// every party whose seed is known. Party 0 gets all parties' arrays,
// other parties only their own.
func (t *TFP) expand(field ring.Field, draw uint64, sizes ...int) (
	[][]ring.Array, error) {

	result := make([][]ring.Array, t.size)
	for i := range t.seeds {
		if i != t.rank && t.rank != 0 {
			continue
		}
		var nonce [chacha20.NonceSize]byte
		binary.BigEndian.PutUint64(nonce[4:], draw)

		cipher, err := chacha20.NewUnauthenticatedCipher(t.seeds[i][:],
			nonce[:])
		if err != nil {
			return nil, err
		}
		for _, n := range sizes {
			buf := make([]byte, n*8)
			cipher.XORKeyStream(buf, buf)
			arr := ring.Zeros(field, n)
			mask := field.Mask()
			for j := range arr.Data {
				arr.Data[j] = binary.LittleEndian.Uint64(buf[j*8:]) & mask
			}
			result[i] = append(result[i], arr)
		}
	}
	return result, nil
}

// others returns component idx of all parties except party 0.
func (t *TFP) others(parts [][]ring.Array, idx int) []ring.Array {
	var result []ring.Array
	for i := 1; i < t.size; i++ {
		result = append(result, parts[i][idx])
	}
	return result
}

func (t *TFP) all(parts [][]ring.Array, idx int) []ring.Array {
	var result []ring.Array
	for i := 0; i < t.size; i++ {
		result = append(result, parts[i][idx])
	}
	return result
}

func sumExcept(field ring.Field, n int, arrs []ring.Array) ring.Array {
	if len(arrs) == 0 {
		return ring.Zeros(field, n)
	}
	return ring.Sum(arrs)
}

func xorExcept(field ring.Field, n int, arrs []ring.Array) ring.Array {
	if len(arrs) == 0 {
		return ring.Zeros(field, n)
	}
	return ring.XorSum(arrs)
}

// Mul implements Source.Mul.
func (t *TFP) Mul(field ring.Field, n int) (*Triple, error) {
	draw, err := t.next("tfp mul", n)
	if err != nil {
		return nil, err
	}
	parts, err := t.expand(field, draw, n, n, n)
	if err != nil {
		return nil, err
	}
	own := parts[t.rank]
	result := &Triple{
		Draw: draw,
		A:    own[0],
		B:    own[1],
		C:    own[2],
	}
	if t.rank == 0 {
		a := ring.Sum(t.all(parts, 0))
		b := ring.Sum(t.all(parts, 1))
		result.C = ring.Sub(ring.Mul(a, b),
			sumExcept(field, n, t.others(parts, 2)))
	}
	return result, nil
}

// Dot implements Source.Dot.
func (t *TFP) Dot(field ring.Field, m, k, n int) (*Triple, error) {
	draw, err := t.next("tfp dot", m*n)
	if err != nil {
		return nil, err
	}
	parts, err := t.expand(field, draw, m*k, k*n, m*n)
	if err != nil {
		return nil, err
	}
	own := parts[t.rank]
	result := &Triple{
		Draw: draw,
		A:    own[0],
		B:    own[1],
		C:    own[2],
	}
	if t.rank == 0 {
		a := ring.Sum(t.all(parts, 0))
		b := ring.Sum(t.all(parts, 1))
		result.C = ring.Sub(ring.MatMul(a, b, m, k, n),
			sumExcept(field, m*n, t.others(parts, 2)))
	}
	return result, nil
}

// And implements Source.And.
func (t *TFP) And(field ring.Field, n int) (*Triple, error) {
	draw, err := t.next("tfp and", n)
	if err != nil {
		return nil, err
	}
	parts, err := t.expand(field, draw, n, n, n)
	if err != nil {
		return nil, err
	}
	own := parts[t.rank]
	result := &Triple{
		Draw: draw,
		A:    own[0],
		B:    own[1],
		C:    own[2],
	}
	if t.rank == 0 {
		a := ring.XorSum(t.all(parts, 0))
		b := ring.XorSum(t.all(parts, 1))
		result.C = ring.Xor(ring.And(a, b),
			xorExcept(field, n, t.others(parts, 2)))
	}
	return result, nil
}

// Trunc implements Source.Trunc.
func (t *TFP) Trunc(field ring.Field, n, bits int) (*TruncPair, error) {
	if err := checkBits(field, bits); err != nil {
		return nil, err
	}
	draw, err := t.next("tfp trunc", n)
	if err != nil {
		return nil, err
	}
	parts, err := t.expand(field, draw, n, n)
	if err != nil {
		return nil, err
	}
	own := parts[t.rank]
	result := &TruncPair{
		Draw: draw,
		Bits: bits,
		R:    own[0],
		Hi:   own[1],
	}
	if t.rank == 0 {
		r := ring.Sum(t.all(parts, 0))
		result.Hi = ring.Sub(ring.ARShift(r, bits),
			sumExcept(field, n, t.others(parts, 1)))
	}
	return result, nil
}

// TruncMsb implements Source.TruncMsb.
func (t *TFP) TruncMsb(field ring.Field, n, bits int) (*TruncPair, error) {
	if err := checkBits(field, bits); err != nil {
		return nil, err
	}
	draw, err := t.next("tfp trunc msb", n)
	if err != nil {
		return nil, err
	}
	parts, err := t.expand(field, draw, n, n, n, n)
	if err != nil {
		return nil, err
	}
	own := parts[t.rank]
	result := &TruncPair{
		Draw: draw,
		Bits: bits,
		R:    own[0],
		Hi:   own[1],
		Msb:  own[2],
		LowB: own[3],
	}
	if t.rank == 0 {
		k := field.Bits()
		r := ring.Sum(t.all(parts, 0))
		low := ring.AndScalar(r, math.Mask(k-1))

		result.Hi = ring.Sub(ring.RShift(low, bits),
			sumExcept(field, n, t.others(parts, 1)))
		result.Msb = ring.Sub(ring.Msb(r),
			sumExcept(field, n, t.others(parts, 2)))
		result.LowB = ring.Xor(ring.AndScalar(low, math.Mask(bits)),
			xorExcept(field, n, t.others(parts, 3)))
	}
	return result, nil
}

// DaBits implements Source.DaBits.
func (t *TFP) DaBits(field ring.Field, n int) (*DaBits, error) {
	draw, err := t.next("tfp dabits", n)
	if err != nil {
		return nil, err
	}
	parts, err := t.expand(field, draw, n, n)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if p != nil {
			p[1] = ring.AndScalar(p[1], 1)
		}
	}
	own := parts[t.rank]
	result := &DaBits{
		Draw: draw,
		A:    own[0],
		B:    own[1],
	}
	if t.rank == 0 {
		b := ring.XorSum(t.all(parts, 1))
		result.A = ring.Sub(b, sumExcept(field, n, t.others(parts, 0)))
	}
	return result, nil
}

func checkBits(field ring.Field, bits int) error {
	if bits < 0 || bits > field.Bits()-2 {
		return env.Errorf(env.ConfigurationError, "tfp",
			"invalid truncation bits %d for %v", bits, field)
	}
	return nil
}

func (t *TFP) String() string {
	return fmt.Sprintf("TFP[%v draw=%d]", t.lctx, t.draw)
}
