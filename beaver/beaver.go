//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package beaver implements sources of correlated randomness: Beaver
// triples for arithmetic, matrix, and boolean multiplication,
// truncation pairs, and daBits.
package beaver

import (
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/ring"
)

// Triple holds one party's shares of a Beaver triple. For arithmetic
// triples C=A·B, for matrix triples C=A×B, and for boolean triples
// C=A∧B with XOR sharing.
type Triple struct {
	Draw uint64
	A    ring.Array
	B    ring.Array
	C    ring.Array
}

// TruncPair holds one party's shares of truncation randomness for a
// truncation of Bits bits. For probabilistic truncation R is random
// and Hi=R>>Bits arithmetically. For MSB-based truncation Hi is the
// logical shift of R's low K-1 bits, Msb is R's bit K-1 as an
// arithmetic share, and LowB holds the low Bits bits of R as boolean
// shares.
type TruncPair struct {
	Draw uint64
	Bits int
	R    ring.Array
	Hi   ring.Array
	Msb  ring.Array
	LowB ring.Array
}

// DaBits holds one party's shares of random bits shared both
// arithmetically (A) and as boolean shares (B, bit 0 of each word).
type DaBits struct {
	Draw uint64
	A    ring.Array
	B    ring.Array
}

// Stats describe the consumption of a source.
type Stats struct {
	Draws    uint64
	Elements uint64
}

// Source supplies correlated randomness. Every call returns fresh,
// never reused randomness. All parties must call the source in the
// same order with the same arguments.
type Source interface {
	// Mul returns an arithmetic triple of n elements.
	Mul(field ring.Field, n int) (*Triple, error)
	// Dot returns a matrix triple for (m×k)·(k×n) products.
	Dot(field ring.Field, m, k, n int) (*Triple, error)
	// And returns a boolean triple of n words.
	And(field ring.Field, n int) (*Triple, error)
	// Trunc returns probabilistic truncation pairs.
	Trunc(field ring.Field, n, bits int) (*TruncPair, error)
	// TruncMsb returns MSB-based truncation pairs.
	TruncMsb(field ring.Field, n, bits int) (*TruncPair, error)
	// DaBits returns n daBits.
	DaBits(field ring.Field, n int) (*DaBits, error)
	// Fork creates an independent source bound to the child
	// communicator.
	Fork(child *link.Context) (Source, error)
	// Stats returns the consumption statistics.
	Stats() Stats
}
