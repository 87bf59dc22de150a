//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/ring"
)

// P2S converts the public value x into shares.
func (obj *Object) P2S(x ring.Array) (ring.Array, error) {
	if err := obj.check("p2s", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindP2S, x.Len())
	return obj.public(x), nil
}

// Input shares the owner's private value x of n elements. The
// argument x is ignored on other parties. The owner sends a random
// share to every peer and keeps the difference.
func (obj *Object) Input(owner int, x ring.Array, n int) (ring.Array, error) {
	if owner < 0 || owner >= obj.WorldSize() {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "input",
			"invalid owner %d", owner)
	}
	obj.prof.record(KindInput, n)

	if obj.Rank() != owner {
		data, err := obj.lctx.Recv(owner)
		if err != nil {
			return ring.Array{}, err
		}
		share, err := ring.FromBytes(obj.field, n, data)
		if err != nil {
			return ring.Array{}, env.Wrap(env.ProtocolViolation, "input",
				err)
		}
		return share, nil
	}
	if err := obj.check("input", x); err != nil {
		return ring.Array{}, err
	}
	if x.Len() != n {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "input",
			"input has %d elements, expected %d", x.Len(), n)
	}
	own := x.Copy()
	for i := 0; i < obj.WorldSize(); i++ {
		if i == owner {
			continue
		}
		r, err := ring.Rand(obj.field, n, obj.config.GetRandom())
		if err != nil {
			return ring.Array{}, env.Wrap(env.ConfigurationError, "input",
				err)
		}
		if err := obj.lctx.Send(i, r.Bytes()); err != nil {
			return ring.Array{}, err
		}
		own = ring.Sub(own, r)
	}
	return own, nil
}

// S2P reveals the arithmetic shared value x to all parties.
func (obj *Object) S2P(x ring.Array) (ring.Array, error) {
	if err := obj.check("s2p", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindS2P, x.Len())
	return obj.open("s2p", x)
}

// B2P reveals the boolean shared value x to all parties.
func (obj *Object) B2P(x ring.Array) (ring.Array, error) {
	if err := obj.check("b2p", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindS2P, x.Len())
	return obj.openB("b2p", x)
}

// AddSS adds two shared values.
func (obj *Object) AddSS(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("add_ss", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindAddSS, x.Len())
	return ring.Add(x, y), nil
}

// AddSP adds the public value y to the shared value x.
func (obj *Object) AddSP(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("add_sp", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindAddSP, x.Len())
	if obj.isRank0() {
		return ring.Add(x, y), nil
	}
	return x.Copy(), nil
}

// SubSS subtracts the shared value y from the shared value x.
func (obj *Object) SubSS(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("sub_ss", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindAddSS, x.Len())
	return ring.Sub(x, y), nil
}

// NegS negates the shared value x.
func (obj *Object) NegS(x ring.Array) (ring.Array, error) {
	if err := obj.check("neg_s", x); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindNegS, x.Len())
	return ring.Neg(x), nil
}

// MulSP multiplies the shared value x with the public value y.
func (obj *Object) MulSP(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("mul_sp", x, y); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindMulSP, x.Len())
	return ring.Mul(x, y), nil
}

// MulSS multiplies two shared values with Beaver triples. The masked
// differences of both operands are opened in one round.
func (obj *Object) MulSS(x, y ring.Array) (ring.Array, error) {
	if err := obj.checkLen("mul_ss", x, y); err != nil {
		return ring.Array{}, err
	}
	n := x.Len()
	obj.prof.record(KindMulSS, n)

	t, err := obj.src.Mul(obj.field, n)
	if err != nil {
		return ring.Array{}, err
	}
	opened, err := obj.open("mul_ss",
		ring.Concat(ring.Sub(x, t.A), ring.Sub(y, t.B)))
	if err != nil {
		return ring.Array{}, err
	}
	parts := opened.Split(n, n)
	d, e := parts[0], parts[1]

	z := ring.Add(t.C, ring.Add(ring.Mul(d, t.B), ring.Mul(e, t.A)))
	if obj.isRank0() {
		z = ring.Add(z, ring.Mul(d, e))
	}
	return z, nil
}

// MatMulSS multiplies the shared (m×k) matrix x with the shared (k×n)
// matrix y.
func (obj *Object) MatMulSS(x, y ring.Array, m, k, n int) (
	ring.Array, error) {

	if err := obj.checkDims("mmul_ss", x, y, m, k, n); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindMatMulSS, m*n)

	t, err := obj.src.Dot(obj.field, m, k, n)
	if err != nil {
		return ring.Array{}, err
	}
	opened, err := obj.open("mmul_ss",
		ring.Concat(ring.Sub(x, t.A), ring.Sub(y, t.B)))
	if err != nil {
		return ring.Array{}, err
	}
	parts := opened.Split(m*k, k*n)
	d, e := parts[0], parts[1]

	z := ring.Add(t.C, ring.Add(ring.MatMul(d, t.B, m, k, n),
		ring.MatMul(t.A, e, m, k, n)))
	if obj.isRank0() {
		z = ring.Add(z, ring.MatMul(d, e, m, k, n))
	}
	return z, nil
}

// MatMulSP multiplies the shared (m×k) matrix x with the public (k×n)
// matrix y.
func (obj *Object) MatMulSP(x, y ring.Array, m, k, n int) (
	ring.Array, error) {

	if err := obj.checkDims("mmul_sp", x, y, m, k, n); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindMatMulSP, m*n)
	return ring.MatMul(x, y, m, k, n), nil
}

// MatMulPS multiplies the public (m×k) matrix x with the shared (k×n)
// matrix y.
func (obj *Object) MatMulPS(x, y ring.Array, m, k, n int) (
	ring.Array, error) {

	if err := obj.checkDims("mmul_ps", x, y, m, k, n); err != nil {
		return ring.Array{}, err
	}
	obj.prof.record(KindMatMulSP, m*n)
	return ring.MatMul(x, y, m, k, n), nil
}

func (obj *Object) checkDims(op string, x, y ring.Array, m, k, n int) error {
	if err := obj.check(op, x, y); err != nil {
		return err
	}
	if m < 0 || k < 0 || n < 0 || x.Len() != m*k || y.Len() != k*n {
		return env.Errorf(env.ConfigurationError, op,
			"invalid dimensions %dx%d·%dx%d for %d·%d elements",
			m, k, k, n, x.Len(), y.Len())
	}
	return nil
}

// LShiftA shifts the arithmetic shared value x left by bits.
func (obj *Object) LShiftA(x ring.Array, bits int) (ring.Array, error) {
	if err := obj.check("lshift_a", x); err != nil {
		return ring.Array{}, err
	}
	if bits < 0 {
		return ring.Array{}, env.Errorf(env.ConfigurationError, "lshift_a",
			"invalid shift %d", bits)
	}
	obj.prof.record(KindLShiftA, x.Len())
	return ring.LShift(x, bits), nil
}
