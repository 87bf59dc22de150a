//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements the session environment for the MPC system.
package env

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"time"
)

// Protocol identifies a protocol family.
type Protocol string

// Supported protocol families.
const (
	Semi2k Protocol = "semi2k"
)

// TripleSource identifies the Beaver triple generation mode.
type TripleSource string

// Triple sources.
const (
	// TFP is the trusted-first-party mode where party 0 knows all
	// generator seeds.
	TFP TripleSource = "tfp"
)

// Adder selects the parallel-prefix adder topology.
type Adder string

// Adder topologies.
const (
	KoggeStone Adder = "kogge-stone"
	Sklansky   Adder = "sklansky"
)

// Trunc selects the truncation protocol.
type Trunc string

// Truncation protocols.
const (
	TruncProbabilistic Trunc = "probabilistic"
	TruncMSB           Trunc = "msb"
	TruncExact         Trunc = "exact"
)

// ExpMode selects the exp approximation.
type ExpMode string

// Exp approximations.
const (
	ExpPade   ExpMode = "pade"
	ExpTaylor ExpMode = "taylor"
)

// LogMode selects the log approximation.
type LogMode string

// Log approximations.
const (
	LogPade        LogMode = "pade"
	LogHouseholder LogMode = "householder"
)

// TanhMode selects the tanh approximation.
type TanhMode string

// Tanh approximations.
const (
	TanhPade TanhMode = "pade"
	TanhExp  TanhMode = "exp"
)

// Config defines the session configuration for the MPC system. Config
// must not be modified after being passed to any MPC module. It is
// safe for concurrent use by multiple modules as they do not modify
// it.
type Config struct {
	Rand    io.Reader   `yaml:"-"`
	Logger  *log.Logger `yaml:"-"`
	Verbose bool        `yaml:"verbose"`

	// RingWidth is the ring width K in bits.
	RingWidth int `yaml:"ring_width"`
	// FxpBits is the number of fractional bits F.
	FxpBits int `yaml:"fxp_bits"`
	// NumParties is the party count N.
	NumParties int `yaml:"num_parties"`

	Protocol     Protocol     `yaml:"protocol"`
	TripleSource TripleSource `yaml:"triple_source"`
	Adder        Adder        `yaml:"adder"`
	Trunc        Trunc        `yaml:"trunc"`

	ExpMode    ExpMode  `yaml:"exp_mode"`
	ExpIters   int      `yaml:"exp_iters"`
	LogMode    LogMode  `yaml:"log_mode"`
	LogIters   int      `yaml:"log_iters"`
	LogOrders  int      `yaml:"log_orders"`
	TanhMode   TanhMode `yaml:"tanh_mode"`
	SqrtIters  int      `yaml:"sqrt_iters"`
	RecipIters int      `yaml:"reciprocal_iters"`

	// LinkTimeout bounds every wait for a peer message.
	LinkTimeout time.Duration `yaml:"link_timeout"`
	// MaxTriples limits the number of correlated randomness elements
	// a session may consume. Zero means unlimited.
	MaxTriples uint64 `yaml:"max_triples"`
}

// NewConfig creates a configuration with default values for the
// argument number of parties.
func NewConfig(parties int) *Config {
	config := &Config{
		NumParties: parties,
	}
	config.SetDefaults()
	return config
}

// SetDefaults sets default values for all unset fields.
func (config *Config) SetDefaults() {
	if config.RingWidth == 0 {
		config.RingWidth = 64
	}
	if config.FxpBits == 0 {
		config.FxpBits = 18
	}
	if config.NumParties == 0 {
		config.NumParties = 2
	}
	if len(config.Protocol) == 0 {
		config.Protocol = Semi2k
	}
	if len(config.TripleSource) == 0 {
		config.TripleSource = TFP
	}
	if len(config.Adder) == 0 {
		config.Adder = KoggeStone
	}
	if len(config.Trunc) == 0 {
		config.Trunc = TruncMSB
	}
	if len(config.ExpMode) == 0 {
		config.ExpMode = ExpPade
	}
	if config.ExpIters == 0 {
		config.ExpIters = 8
	}
	if len(config.LogMode) == 0 {
		config.LogMode = LogPade
	}
	if config.LogIters == 0 {
		config.LogIters = 1
	}
	if config.LogOrders == 0 {
		config.LogOrders = 8
	}
	if len(config.TanhMode) == 0 {
		config.TanhMode = TanhPade
	}
	if config.SqrtIters == 0 {
		config.SqrtIters = 3
	}
	if config.RecipIters == 0 {
		config.RecipIters = 3
	}
	if config.LinkTimeout == 0 {
		config.LinkTimeout = time.Minute
	}
}

// Validate checks that the configuration is usable. All errors are of
// kind ConfigurationError.
func (config *Config) Validate() error {
	switch config.RingWidth {
	case 32, 64:
	default:
		return config.invalid("ring width %d", config.RingWidth)
	}
	if config.FxpBits < 1 || 2*config.FxpBits+2 > config.RingWidth {
		return config.invalid("fxp bits %d for ring width %d",
			config.FxpBits, config.RingWidth)
	}
	if config.NumParties < 2 {
		return config.invalid("party count %d", config.NumParties)
	}
	if config.Protocol != Semi2k {
		return config.invalid("protocol %q", config.Protocol)
	}
	if config.TripleSource != TFP {
		return config.invalid("triple source %q", config.TripleSource)
	}
	switch config.Adder {
	case KoggeStone, Sklansky:
	default:
		return config.invalid("adder %q", config.Adder)
	}
	switch config.Trunc {
	case TruncProbabilistic, TruncMSB, TruncExact:
	default:
		return config.invalid("truncation %q", config.Trunc)
	}
	switch config.ExpMode {
	case ExpPade, ExpTaylor:
	default:
		return config.invalid("exp mode %q", config.ExpMode)
	}
	switch config.LogMode {
	case LogPade, LogHouseholder:
	default:
		return config.invalid("log mode %q", config.LogMode)
	}
	switch config.TanhMode {
	case TanhPade, TanhExp:
	default:
		return config.invalid("tanh mode %q", config.TanhMode)
	}
	if config.ExpIters < 1 || config.ExpIters > 16 {
		return config.invalid("exp iterations %d", config.ExpIters)
	}
	if config.LogIters < 0 || config.LogOrders < 1 {
		return config.invalid("log iterations %d, orders %d",
			config.LogIters, config.LogOrders)
	}
	if config.SqrtIters < 1 || config.RecipIters < 1 {
		return config.invalid("newton iterations %d/%d",
			config.SqrtIters, config.RecipIters)
	}
	if config.LinkTimeout <= 0 {
		return config.invalid("link timeout %v", config.LinkTimeout)
	}
	return nil
}

func (config *Config) invalid(format string, a ...interface{}) error {
	return &Error{
		Kind: ConfigurationError,
		Op:   "config",
		Err:  fmt.Errorf("invalid "+format, a...),
	}
}

// GetRandom returns the source of entropy for seeds and input
// sharing.
func (config *Config) GetRandom() io.Reader {
	if config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// Logf logs a message with the configured logger.
func (config *Config) Logf(format string, a ...interface{}) {
	if config.Logger != nil {
		config.Logger.Printf(format, a...)
	} else {
		log.Printf(format, a...)
	}
}

// Debugf logs a message if verbose logging is enabled.
func (config *Config) Debugf(format string, a ...interface{}) {
	if !config.Verbose {
		return
	}
	config.Logf(format, a...)
}
