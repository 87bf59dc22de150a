//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi2k

import (
	"fmt"

	"github.com/markkurossi/ringmpc/cexpr"
	"github.com/markkurossi/ringmpc/env"
)

// Kind identifies a kernel.
type Kind int

// Kernel kinds.
const (
	KindP2S Kind = iota
	KindInput
	KindS2P
	KindAddSS
	KindAddSP
	KindNegS
	KindMulSS
	KindMulSP
	KindMatMulSS
	KindMatMulSP
	KindLShiftA
	KindTruncA
	KindTruncASign
	KindXorBB
	KindXorBP
	KindAndBB
	KindAndBP
	KindNotB
	KindShiftB
	KindBitPermB
	KindAddBB
	KindCarryOut
	KindA2B
	KindB2A
	KindMsbA
	KindEqualAA
	KindPrefixOrB
	numKinds
)

var kindNames = [numKinds]string{
	KindP2S:        "p2s",
	KindInput:      "input",
	KindS2P:        "s2p",
	KindAddSS:      "add_ss",
	KindAddSP:      "add_sp",
	KindNegS:       "neg_s",
	KindMulSS:      "mul_ss",
	KindMulSP:      "mul_sp",
	KindMatMulSS:   "mmul_ss",
	KindMatMulSP:   "mmul_sp",
	KindLShiftA:    "lshift_a",
	KindTruncA:     "trunc_a",
	KindTruncASign: "trunc_a_sign",
	KindXorBB:      "xor_bb",
	KindXorBP:      "xor_bp",
	KindAndBB:      "and_bb",
	KindAndBP:      "and_bp",
	KindNotB:       "not_b",
	KindShiftB:     "shift_b",
	KindBitPermB:   "bitperm_b",
	KindAddBB:      "add_bb",
	KindCarryOut:   "carry_out",
	KindA2B:        "a2b",
	KindB2A:        "b2a",
	KindMsbA:       "msb_a",
	KindEqualAA:    "equal_aa",
	KindPrefixOrB:  "prefix_or_b",
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("{Kind %d}", int(k))
}

// Cost defines the latency in rounds and the communication in bits
// per element of a kernel.
type Cost struct {
	Latency cexpr.Expr
	Comm    cexpr.Expr
}

var (
	cZero  = cexpr.Const(0)
	cOne   = cexpr.Const(1)
	cK     = cexpr.K()
	cLogK  = cexpr.Log(cexpr.K())
	cPeers = cexpr.Sub(cexpr.N(), cOne)
	cLocal = Cost{cZero, cZero}
	cOpen  = Cost{cOne, cexpr.Mul(cK, cPeers)}
)

// Costs defines the cost table of a protocol family. The table is
// resolved once per session.
type Costs [numKinds]Cost

// Lookup returns the cost of the kernel kind.
func (c *Costs) Lookup(kind Kind) Cost {
	return c[kind]
}

// NewCosts creates the semi2k cost table for the configuration.
func NewCosts(config *env.Config) *Costs {
	c := new(Costs)
	for i := range c {
		c[i] = cLocal
	}
	c[KindInput] = Cost{cOne, cexpr.Mul(cK, cPeers)}
	c[KindS2P] = cOpen
	c[KindMulSS] = Cost{cOne, cexpr.Mul(cexpr.Const(2), cK, cPeers)}
	c[KindMatMulSS] = Cost{cOne, cexpr.Mul(cexpr.Const(2), cK, cPeers)}
	c[KindAndBB] = Cost{cOne, cexpr.Mul(cexpr.Const(2), cK, cPeers)}

	switch config.Adder {
	case env.Sklansky:
		c[KindAddBB] = Cost{
			Latency: cexpr.Add(cLogK, cOne),
			Comm:    cexpr.Add(cexpr.Mul(cLogK, cK), cK),
		}
	default:
		c[KindAddBB] = Cost{
			Latency: cexpr.Add(cLogK, cOne),
			Comm:    cexpr.Add(cexpr.Mul(cLogK, cK, cexpr.Const(2)), cK),
		}
	}
	c[KindCarryOut] = Cost{
		Latency: cexpr.Add(cLogK, cOne),
		Comm:    cexpr.Mul(cexpr.Const(4), cK),
	}
	c[KindA2B] = Cost{
		Latency: cexpr.Add(c[KindAddBB].Latency, cexpr.Log(cexpr.N())),
		Comm:    cexpr.Mul(c[KindAddBB].Comm, cPeers),
	}
	c[KindB2A] = Cost{cOne, cexpr.Mul(cK, cPeers)}
	c[KindMsbA] = Cost{
		Latency: cexpr.Add(c[KindCarryOut].Latency, cexpr.Log(cexpr.N()), cOne),
		Comm:    cexpr.Mul(cexpr.Add(c[KindCarryOut].Comm, cK), cPeers),
	}
	c[KindEqualAA] = Cost{
		Latency: cexpr.Add(cLogK, cOne),
		Comm:    cexpr.Mul(cexpr.Const(2), cK, cPeers),
	}
	c[KindPrefixOrB] = Cost{
		Latency: cLogK,
		Comm:    cexpr.Mul(cexpr.Const(2), cLogK, cK, cPeers),
	}

	switch config.Trunc {
	case env.TruncProbabilistic:
		if config.NumParties > 2 {
			c[KindTruncA] = cOpen
		}
	case env.TruncMSB:
		c[KindTruncA] = cOpen
	case env.TruncExact:
		c[KindTruncA] = Cost{
			Latency: cexpr.Add(cOpen.Latency, c[KindCarryOut].Latency, cOne),
			Comm:    cexpr.Add(cOpen.Comm, c[KindCarryOut].Comm,
				cexpr.Mul(cK, cPeers)),
		}
	}
	c[KindTruncASign] = c[KindTruncA]
	return c
}
