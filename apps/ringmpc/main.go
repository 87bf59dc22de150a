//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/markkurossi/ringmpc/approx"
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/hal"
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/p2p"
)

var (
	verbose = false
	profile = false
	samples = 64
)

func main() {
	fConfig := flag.String("config", "", "YAML configuration file")
	fParties := flag.Int("n", 2, "Number of parties")
	fWidth := flag.Int("k", 64, "Ring width in bits")
	fFxp := flag.Int("f", 18, "Fixed-point fractional bits")
	fTrunc := flag.String("trunc", string(env.TruncMSB),
		"Truncation protocol: probabilistic, msb, exact")
	fAdder := flag.String("adder", string(env.KoggeStone),
		"Adder topology: kogge-stone, sklansky")
	fExp := flag.String("exp", string(env.ExpPade), "Exp mode: pade, taylor")
	fLog := flag.String("log", string(env.LogPade),
		"Log mode: pade, householder")
	fTanh := flag.String("tanh", string(env.TanhPade), "Tanh mode: pade, exp")
	fParty := flag.Int("i", -1, "Party ID, -1 runs all parties locally")
	fAddrs := flag.String("addrs", "", "Comma-separated party addresses")
	fFuncs := flag.String("fn", "", "Comma-separated functions to measure")
	fSamples := flag.Int("samples", samples, "Samples per function")
	fVerbose := flag.Bool("v", false, "Verbose output")
	fProfile := flag.Bool("p", false, "Print kernel profile")
	flag.Parse()

	log.SetFlags(0)
	verbose = *fVerbose
	profile = *fProfile
	samples = *fSamples

	config := new(env.Config)
	if len(*fConfig) > 0 {
		var err error
		config, err = env.LoadConfigFile(*fConfig)
		if err != nil {
			log.Fatal(err)
		}
	}

	// Flags override the configuration file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			config.NumParties = *fParties
		case "k":
			config.RingWidth = *fWidth
		case "f":
			config.FxpBits = *fFxp
		case "trunc":
			config.Trunc = env.Trunc(*fTrunc)
		case "adder":
			config.Adder = env.Adder(*fAdder)
		case "exp":
			config.ExpMode = env.ExpMode(*fExp)
		case "log":
			config.LogMode = env.LogMode(*fLog)
		case "tanh":
			config.TanhMode = env.TanhMode(*fTanh)
		}
	})
	if verbose {
		config.Verbose = true
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		log.Fatal(err)
	}

	functions, err := selectFunctions(config, *fFuncs)
	if err != nil {
		log.Fatal(err)
	}

	if *fParty < 0 {
		err = localMode(config, functions)
	} else {
		err = networkMode(config, functions, *fParty,
			strings.Split(*fAddrs, ","))
	}
	if err != nil {
		log.Fatal(err)
	}
}

func selectFunctions(config *env.Config, names string) (
	[]*approx.Function, error) {

	if len(names) == 0 {
		return approx.Functions(config), nil
	}
	var result []*approx.Function
	for _, name := range strings.Split(names, ",") {
		f, err := approx.Lookup(config, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

func localMode(config *env.Config, functions []*approx.Function) error {
	fmt.Printf("semi2k K=%d F=%d, %d local parties\n",
		config.RingWidth, config.FxpBits, config.NumParties)

	var m sync.Mutex
	return link.Simulate(config.NumParties, config.LinkTimeout,
		func(lctx *link.Context) error {
			ms, s, err := run(lctx, config, functions)
			if err != nil {
				return err
			}
			if lctx.Rank() == 0 {
				m.Lock()
				printResults(s, ms)
				m.Unlock()
			}
			return nil
		})
}

func networkMode(config *env.Config, functions []*approx.Function,
	party int, addrs []string) error {

	if len(addrs) != config.NumParties {
		return fmt.Errorf("invalid addresses %v for %d parties",
			addrs, config.NumParties)
	}
	if party >= len(addrs) {
		return fmt.Errorf("invalid party %d for %d parties", party, len(addrs))
	}
	fmt.Printf("semi2k K=%d F=%d\n", config.RingWidth, config.FxpBits)
	fmt.Printf(" - party : %d/%d\n", party, config.NumParties)
	fmt.Printf(" - addr  : %v\n", addrs[party])

	nw, err := p2p.NewNetwork(addrs[party], party)
	if err != nil {
		return err
	}
	// The network owns the peer connections of the communicator.
	defer nw.Close()

	nw.Verbose = verbose
	err = nw.Connect(addrs, config.LinkTimeout)
	if err != nil {
		return err
	}
	lctx, err := link.NewNetwork(nw, len(addrs), config.LinkTimeout)
	if err != nil {
		return err
	}
	if err := lctx.Barrier(); err != nil {
		return err
	}

	ms, s, err := run(lctx, config, functions)
	if err != nil {
		return err
	}
	printResults(s, ms)
	return nil
}

func run(lctx *link.Context, config *env.Config,
	functions []*approx.Function) ([]*approx.Measurement, *hal.Session,
	error) {

	s, err := hal.NewSession(lctx, config)
	if err != nil {
		return nil, nil, err
	}
	var result []*approx.Measurement
	for _, f := range functions {
		m, err := approx.Measure(s, f, samples)
		if err != nil {
			return nil, nil, fmt.Errorf("%v: %w", f, err)
		}
		config.Debugf("%v: %v: max error %.3e\n", s, f, m.Max)
		result = append(result, m)
	}
	return result, s, nil
}

func printResults(s *hal.Session, ms []*approx.Measurement) {
	approx.Report(os.Stdout, ms)
	for _, w := range s.Warnings() {
		fmt.Printf("warning: %v\n", w)
	}
	if profile {
		k := s.Kernels()
		k.Profile().Print(os.Stdout, k.Params(), s.Link().Stats())
	}
}
