//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package semi2k implements the semi-honest secret sharing protocol
// over the ring Z/2^K. Arithmetic values are additively shared and
// boolean values are XOR shared over K-bit words. All kernels operate
// on the calling party's share buffers and must be called by all
// parties in the same order with the same public arguments.
package semi2k

import (
	"fmt"

	"github.com/markkurossi/ringmpc/beaver"
	"github.com/markkurossi/ringmpc/cexpr"
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/ring"
)

// Object implements the protocol state of one party: the
// communicator, the triple source, and the kernel profile.
type Object struct {
	lctx   *link.Context
	src    beaver.Source
	field  ring.Field
	config *env.Config
	costs  *Costs
	prof   *Profile
}

// New creates a new protocol object for the party of lctx.
func New(lctx *link.Context, config *env.Config) (*Object, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if lctx.WorldSize() != config.NumParties {
		return nil, env.Errorf(env.ConfigurationError, "semi2k",
			"communicator has %d parties, configuration %d",
			lctx.WorldSize(), config.NumParties)
	}
	src, err := beaver.NewTFP(lctx.Fork(), config)
	if err != nil {
		return nil, err
	}
	costs := NewCosts(config)
	return &Object{
		lctx:   lctx,
		src:    src,
		field:  ring.Field(config.RingWidth),
		config: config,
		costs:  costs,
		prof:   NewProfile(costs),
	}, nil
}

// Fork creates a child object with a forked communicator and triple
// source. The child shares the profile of its parent.
func (obj *Object) Fork() (*Object, error) {
	child := obj.lctx.Fork()
	src, err := obj.src.Fork(child)
	if err != nil {
		return nil, err
	}
	return &Object{
		lctx:   child,
		src:    src,
		field:  obj.field,
		config: obj.config,
		costs:  obj.costs,
		prof:   obj.prof,
	}, nil
}

func (obj *Object) String() string {
	return fmt.Sprintf("semi2k[%v/%d %v]", obj.lctx, obj.WorldSize(),
		obj.field)
}

// Rank returns the party's rank.
func (obj *Object) Rank() int {
	return obj.lctx.Rank()
}

// WorldSize returns the number of parties.
func (obj *Object) WorldSize() int {
	return obj.lctx.WorldSize()
}

// Field returns the ring of the shares.
func (obj *Object) Field() ring.Field {
	return obj.field
}

// Config returns the session configuration.
func (obj *Object) Config() *env.Config {
	return obj.config
}

// Link returns the communicator.
func (obj *Object) Link() *link.Context {
	return obj.lctx
}

// Source returns the triple source.
func (obj *Object) Source() beaver.Source {
	return obj.src
}

// Costs returns the kernel cost table.
func (obj *Object) Costs() *Costs {
	return obj.costs
}

// Profile returns the kernel profile.
func (obj *Object) Profile() *Profile {
	return obj.prof
}

// Params returns the cost model parameters of the session.
func (obj *Object) Params() cexpr.Params {
	return cexpr.Params{
		K: obj.field.Bits(),
		N: obj.WorldSize(),
	}
}

func (obj *Object) isRank0() bool {
	return obj.lctx.Rank() == 0
}

// check verifies that the shares belong to the session ring.
func (obj *Object) check(op string, arrs ...ring.Array) error {
	for _, a := range arrs {
		if a.Field != obj.field {
			return env.Errorf(env.ConfigurationError, op,
				"share of %v in %v session", a.Field, obj.field)
		}
	}
	return nil
}

// checkLen verifies that the shares have equal lengths.
func (obj *Object) checkLen(op string, x ring.Array, arrs ...ring.Array) error {
	if err := obj.check(op, x); err != nil {
		return err
	}
	for _, a := range arrs {
		if err := obj.check(op, a); err != nil {
			return err
		}
		if a.Len() != x.Len() {
			return env.Errorf(env.ConfigurationError, op,
				"share length mismatch: %d != %d", a.Len(), x.Len())
		}
	}
	return nil
}

// exchange sends the party's share to all peers and returns all
// parties' shares, indexed by rank.
func (obj *Object) exchange(op string, x ring.Array) ([]ring.Array, error) {
	data, err := obj.lctx.AllGather(x.Bytes())
	if err != nil {
		return nil, err
	}
	result := make([]ring.Array, len(data))
	for i, d := range data {
		if i == obj.Rank() {
			result[i] = x
			continue
		}
		result[i], err = ring.FromBytes(x.Field, x.Len(), d)
		if err != nil {
			return nil, env.Wrap(env.ProtocolViolation,
				fmt.Sprintf("%s: peer %d", op, i), err)
		}
	}
	return result, nil
}

// open reveals an arithmetic shared value to all parties.
func (obj *Object) open(op string, x ring.Array) (ring.Array, error) {
	shares, err := obj.exchange(op, x)
	if err != nil {
		return ring.Array{}, err
	}
	return ring.Sum(shares), nil
}

// openB reveals a boolean shared value to all parties.
func (obj *Object) openB(op string, x ring.Array) (ring.Array, error) {
	shares, err := obj.exchange(op, x)
	if err != nil {
		return ring.Array{}, err
	}
	return ring.XorSum(shares), nil
}

// public converts a public value into the party's share. Rank 0 holds
// the value and the other parties hold zero. The same rule serves
// both arithmetic and boolean sharing.
func (obj *Object) public(x ring.Array) ring.Array {
	if obj.isRank0() {
		return x.Copy()
	}
	return ring.Zeros(x.Field, x.Len())
}
