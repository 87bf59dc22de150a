//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package hal implements typed values over the secret sharing
// protocol. Operators dispatch on the visibility of their operands:
// public operands are computed in plaintext on every party and secret
// operands run the protocol kernels. Fixed-point values encode v as
// round(v·2^F) in the ring.
package hal

import (
	"fmt"
	"sync"

	"github.com/markkurossi/ringmpc/cexpr"
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/markkurossi/ringmpc/semi2k"
)

// Kernels define the protocol kernels the operators dispatch to.
type Kernels interface {
	Rank() int
	WorldSize() int
	Field() ring.Field
	Link() *link.Context
	Profile() *semi2k.Profile
	Params() cexpr.Params
	Fork() (Kernels, error)

	P2S(x ring.Array) (ring.Array, error)
	Input(owner int, x ring.Array, n int) (ring.Array, error)
	S2P(x ring.Array) (ring.Array, error)
	B2P(x ring.Array) (ring.Array, error)

	AddSS(x, y ring.Array) (ring.Array, error)
	AddSP(x, y ring.Array) (ring.Array, error)
	SubSS(x, y ring.Array) (ring.Array, error)
	NegS(x ring.Array) (ring.Array, error)
	MulSS(x, y ring.Array) (ring.Array, error)
	MulSP(x, y ring.Array) (ring.Array, error)
	MatMulSS(x, y ring.Array, m, k, n int) (ring.Array, error)
	MatMulSP(x, y ring.Array, m, k, n int) (ring.Array, error)
	MatMulPS(x, y ring.Array, m, k, n int) (ring.Array, error)
	LShiftA(x ring.Array, bits int) (ring.Array, error)
	TruncA(x ring.Array, bits int) (ring.Array, error)
	TruncASign(x ring.Array, bits int, sign semi2k.Sign) (ring.Array, error)

	XorBB(x, y ring.Array) (ring.Array, error)
	XorBP(x, y ring.Array) (ring.Array, error)
	AndBB(x, y ring.Array) (ring.Array, error)
	AndBP(x, y ring.Array) (ring.Array, error)
	NotB(x ring.Array) (ring.Array, error)
	LShiftB(x ring.Array, bits int) (ring.Array, error)
	RShiftB(x ring.Array, bits int) (ring.Array, error)
	ARShiftB(x ring.Array, bits int) (ring.Array, error)
	BitrevB(x ring.Array, start, end int) (ring.Array, error)
	BitDeintlB(x ring.Array) (ring.Array, error)
	BitIntlB(x ring.Array) (ring.Array, error)

	A2B(x ring.Array) (ring.Array, error)
	B2A(x ring.Array, nbits int) (ring.Array, error)
	BitsB2A(x ring.Array, positions []int) ([]ring.Array, error)
	MsbA(x ring.Array) (ring.Array, error)
	EqualAA(x, y ring.Array) (ring.Array, error)
	PrefixOrB(x ring.Array) (ring.Array, error)
	PopcountB(x ring.Array, nbits int) (ring.Array, error)
}

// Factory creates the protocol kernels for a party.
type Factory func(lctx *link.Context, config *env.Config) (Kernels, error)

var (
	registryM sync.Mutex
	registry  = map[env.Protocol]Factory{
		env.Semi2k: newSemi2k,
	}
)

// Register registers the protocol factory for the protocol id.
func Register(id env.Protocol, factory Factory) {
	registryM.Lock()
	registry[id] = factory
	registryM.Unlock()
}

func lookup(id env.Protocol) (Factory, bool) {
	registryM.Lock()
	defer registryM.Unlock()
	factory, ok := registry[id]
	return factory, ok
}

type semi2kKernels struct {
	*semi2k.Object
}

func newSemi2k(lctx *link.Context, config *env.Config) (Kernels, error) {
	obj, err := semi2k.New(lctx, config)
	if err != nil {
		return nil, err
	}
	return &semi2kKernels{obj}, nil
}

func (k *semi2kKernels) Fork() (Kernels, error) {
	obj, err := k.Object.Fork()
	if err != nil {
		return nil, err
	}
	return &semi2kKernels{obj}, nil
}

// Session holds the state of one party: the configuration, the
// communicator, and the protocol kernels.
type Session struct {
	config   *env.Config
	lctx     *link.Context
	kernels  Kernels
	field    ring.Field
	m        sync.Mutex
	warnings []error
}

// NewSession creates a new session for the party of lctx. The
// protocol kernels are resolved from the configured protocol id.
func NewSession(lctx *link.Context, config *env.Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	factory, ok := lookup(config.Protocol)
	if !ok {
		return nil, env.Errorf(env.ConfigurationError, "session",
			"unknown protocol %q", config.Protocol)
	}
	kernels, err := factory(lctx, config)
	if err != nil {
		return nil, err
	}
	config.Debugf("%v: session %v K=%d F=%d N=%d\n", lctx, config.Protocol,
		config.RingWidth, config.FxpBits, config.NumParties)

	return &Session{
		config:  config,
		lctx:    lctx,
		kernels: kernels,
		field:   kernels.Field(),
	}, nil
}

// Fork creates a child session with a forked communicator and
// protocol state. The parent and the child may be used concurrently.
func (s *Session) Fork() (*Session, error) {
	kernels, err := s.kernels.Fork()
	if err != nil {
		return nil, err
	}
	return &Session{
		config:  s.config,
		lctx:    kernels.Link(),
		kernels: kernels,
		field:   s.field,
	}, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("%v", s.lctx)
}

// Config returns the session configuration.
func (s *Session) Config() *env.Config {
	return s.config
}

// Link returns the session communicator.
func (s *Session) Link() *link.Context {
	return s.lctx
}

// Kernels returns the protocol kernels.
func (s *Session) Kernels() Kernels {
	return s.kernels
}

// Rank returns the party's rank.
func (s *Session) Rank() int {
	return s.kernels.Rank()
}

// WorldSize returns the number of parties.
func (s *Session) WorldSize() int {
	return s.kernels.WorldSize()
}

// Field returns the ring of the session.
func (s *Session) Field() ring.Field {
	return s.field
}

// FxpBits returns the number of fractional bits.
func (s *Session) FxpBits() int {
	return s.config.FxpBits
}

// Warn records a domain warning.
func (s *Session) Warn(op, format string, a ...interface{}) {
	err := env.Errorf(env.DomainWarning, op, format, a...)
	s.config.Logf("%v: %v\n", s.lctx, err)

	s.m.Lock()
	s.warnings = append(s.warnings, err)
	s.m.Unlock()
}

// Warnings returns the recorded domain warnings.
func (s *Session) Warnings() []error {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]error(nil), s.warnings...)
}
