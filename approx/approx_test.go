//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package approx

import (
	"bytes"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/hal"
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Minute
	samples = 48
)

func newConfig(parties int) *env.Config {
	config := &env.Config{
		NumParties: parties,
		Logger:     log.New(io.Discard, "", 0),
	}
	config.SetDefaults()
	return config
}

// simulate runs fn on all parties and returns the result of party 0.
func simulate[T any](t *testing.T, config *env.Config,
	fn func(s *hal.Session) (T, error)) T {

	t.Helper()
	var result T
	var m sync.Mutex
	err := link.Simulate(config.NumParties, timeout,
		func(lctx *link.Context) error {
			s, err := hal.NewSession(lctx, config)
			if err != nil {
				return err
			}
			r, err := fn(s)
			if err != nil {
				return err
			}
			if s.Rank() == 0 {
				m.Lock()
				result = r
				m.Unlock()
			}
			return nil
		})
	require.NoError(t, err)
	return result
}

func measureAll(t *testing.T, config *env.Config, names ...string) {
	t.Helper()
	var functions []*Function
	for _, f := range Functions(config) {
		if len(names) == 0 {
			functions = append(functions, f)
			continue
		}
		for _, name := range names {
			if f.Name == name {
				functions = append(functions, f)
			}
		}
	}
	require.NotEmpty(t, functions)

	ms := simulate(t, config,
		func(s *hal.Session) ([]*Measurement, error) {
			var result []*Measurement
			for _, f := range functions {
				m, err := Measure(s, f, samples)
				if err != nil {
					return nil, err
				}
				result = append(result, m)
			}
			return result, nil
		})
	require.Len(t, ms, len(functions))
	for _, m := range ms {
		require.Equal(t, samples, m.Samples)
		require.Zerof(t, m.Failures,
			"%v: max error %v, worst input %v", m.Function, m.Max, m.Worst)
	}
}

func TestAccuracy(t *testing.T) {
	measureAll(t, newConfig(2))
}

func TestAccuracyModes(t *testing.T) {
	config := newConfig(2)
	config.ExpMode = env.ExpTaylor
	config.LogMode = env.LogHouseholder
	config.TanhMode = env.TanhExp
	measureAll(t, config, "exp", "log", "log1p", "tanh", "logistic")
}

func TestAccuracyProbabilistic(t *testing.T) {
	config := newConfig(2)
	config.Trunc = env.TruncProbabilistic
	measureAll(t, config)
}

// Inputs beyond the tanh clamp produce the largest Padé intermediates.
func TestTanhLargeIntermediates(t *testing.T) {
	config := newConfig(2)
	config.Trunc = env.TruncProbabilistic

	xs := make([]float64, 512)
	for i := range xs {
		xs[i] = 7.48
		if i%2 == 1 {
			xs[i] = -7.48
		}
	}
	r := simulate(t, config, func(s *hal.Session) ([][]float64, error) {
		x, err := hal.InputFxp(s, 0, xs, ring.Shape{len(xs)})
		if err != nil {
			return nil, err
		}
		var result [][]float64
		for _, fn := range []func(*hal.Session, *hal.Value) (
			*hal.Value, error){Tanh, Logistic} {

			y, err := fn(s, x)
			if err != nil {
				return nil, err
			}
			y, err = hal.Reveal(s, y)
			if err != nil {
				return nil, err
			}
			v, err := hal.Decode(s, y)
			if err != nil {
				return nil, err
			}
			result = append(result, v)
		}
		return result, nil
	})
	for i, v := range xs {
		require.InDelta(t, math.Tanh(v), r[0][i], 5e-4, "tanh(%v)", v)
		require.InDelta(t, 1/(1+math.Exp(-v)), r[1][i], 5e-4,
			"logistic(%v)", v)
	}
}

func TestAccuracyParties(t *testing.T) {
	config := newConfig(3)
	config.Trunc = env.TruncExact
	measureAll(t, config, "exp", "log2", "reciprocal", "tanh")
}

func TestDivision(t *testing.T) {
	xs := []float64{1, -3, 7.5, 100, -0.25, 12}
	ys := []float64{-2, 0.5, 3, -1000, -0.125, 7}

	r := simulate(t, newConfig(2),
		func(s *hal.Session) ([]float64, error) {
			x, err := hal.InputFxp(s, 0, xs, ring.Shape{len(xs)})
			if err != nil {
				return nil, err
			}
			y, err := hal.InputFxp(s, 1, ys, ring.Shape{len(ys)})
			if err != nil {
				return nil, err
			}
			z, err := Div(s, x, y)
			if err != nil {
				return nil, err
			}
			z, err = hal.Reveal(s, z)
			if err != nil {
				return nil, err
			}
			return hal.Decode(s, z)
		})
	for i := range xs {
		expected := xs[i] / ys[i]
		require.InDelta(t, expected, r[i], 1e-2*math.Abs(expected)+1e-3,
			"%v/%v", xs[i], ys[i])
	}
}

func TestIntegerInput(t *testing.T) {
	r := simulate(t, newConfig(2),
		func(s *hal.Session) ([]float64, error) {
			x, err := hal.InputInt(s, 0, []int64{0, 1, 3, -2}, ring.Shape{4})
			if err != nil {
				return nil, err
			}
			y, err := Exp(s, x)
			if err != nil {
				return nil, err
			}
			if y.DType() != hal.DTFxp {
				return nil, errors.New("exp of int is not fxp")
			}
			y, err = hal.Reveal(s, y)
			if err != nil {
				return nil, err
			}
			return hal.Decode(s, y)
		})
	for i, v := range []float64{0, 1, 3, -2} {
		require.InDelta(t, math.Exp(v), r[i], 1e-3*math.Exp(v)+1e-4)
	}
}

func TestPublic(t *testing.T) {
	type result struct {
		values   [][]float64
		warnings []error
		public   bool
	}
	config := newConfig(2)
	r := simulate(t, config, func(s *hal.Session) (*result, error) {
		res := new(result)
		x, err := hal.PublicFxp(s, []float64{0.5, 2, 10}, nil)
		if err != nil {
			return nil, err
		}
		for _, fn := range []func(*hal.Session, *hal.Value) (
			*hal.Value, error){Exp, Log, Sqrt, Tanh} {

			y, err := fn(s, x)
			if err != nil {
				return nil, err
			}
			if !y.IsPublic() {
				return res, nil
			}
			v, err := hal.Decode(s, y)
			if err != nil {
				return nil, err
			}
			res.values = append(res.values, v)
		}
		res.public = true
		if len(s.Warnings()) != 0 {
			return nil, errors.New("unexpected warnings")
		}

		neg, err := hal.PublicFxp(s, []float64{-1, 0, 4}, nil)
		if err != nil {
			return nil, err
		}
		y, err := Log(s, neg)
		if err != nil {
			return nil, err
		}
		v, err := hal.Decode(s, y)
		if err != nil {
			return nil, err
		}
		res.values = append(res.values, v)
		res.warnings = s.Warnings()
		return res, nil
	})
	require.True(t, r.public)

	eps := math.Ldexp(1, -config.FxpBits)
	for i, v := range []float64{0.5, 2, 10} {
		require.InDelta(t, math.Exp(v), r.values[0][i], eps)
		require.InDelta(t, math.Log(v), r.values[1][i], eps)
		require.InDelta(t, math.Sqrt(v), r.values[2][i], eps)
		require.InDelta(t, math.Tanh(v), r.values[3][i], eps)
	}

	// log(-1) is NaN and log(0) is -Inf.
	require.Equal(t, 0.0, r.values[4][0])
	require.Less(t, r.values[4][1], -1e6)
	require.InDelta(t, math.Log(4), r.values[4][2], eps)

	require.Len(t, r.warnings, 1)
	require.True(t, errors.Is(r.warnings[0], env.ErrDomain))
	require.False(t, env.IsFatal(r.warnings[0]))
}

func TestRingWidth(t *testing.T) {
	config := &env.Config{
		NumParties: 2,
		RingWidth:  32,
		FxpBits:    10,
		Logger:     log.New(io.Discard, "", 0),
	}
	config.SetDefaults()

	err := link.Simulate(config.NumParties, timeout,
		func(lctx *link.Context) error {
			s, err := hal.NewSession(lctx, config)
			if err != nil {
				return err
			}
			p, err := hal.PublicFxp(s, []float64{1, 2}, nil)
			if err != nil {
				return err
			}
			// Public evaluation does not depend on the ring width.
			if _, err := Log(s, p); err != nil {
				return err
			}
			x, err := hal.Seal(s, p)
			if err != nil {
				return err
			}
			_, err = Log(s, x)
			return err
		})
	require.Error(t, err)
	require.True(t, errors.Is(err, env.ErrConfiguration), "%v", err)
}

func TestFunctions(t *testing.T) {
	config := newConfig(2)
	for _, f := range Functions(config) {
		require.NotNil(t, f.Eval, f.Name)
		require.NotNil(t, f.Ref, f.Name)

		xs := f.Samples(16)
		require.Len(t, xs, 16)
		for i, x := range xs {
			require.True(t, x > f.Lo && x < f.Hi, "%v: %v", f, x)
			if i > 0 {
				require.Greater(t, x, xs[i-1])
			}
		}
		g, err := Lookup(config, f.Name)
		require.NoError(t, err)
		require.Equal(t, f.Name, g.Name)
	}
	_, err := Lookup(config, "cosh")
	require.True(t, errors.Is(err, env.ErrConfiguration))

	f, err := Lookup(config, "log")
	require.NoError(t, err)
	ref, _ := f.Ref(newFloat(math.E)).Float64()
	require.InDelta(t, 1.0, ref, 1e-15)

	f, err = Lookup(config, "tanh")
	require.NoError(t, err)
	ref, _ = f.Ref(newFloat(0.5)).Float64()
	require.InDelta(t, math.Tanh(0.5), ref, 1e-15)

	f, err = Lookup(config, "logistic")
	require.NoError(t, err)
	ref, _ = f.Ref(newFloat(-1)).Float64()
	require.InDelta(t, 1/(1+math.E), ref, 1e-15)
}

func TestReport(t *testing.T) {
	config := newConfig(2)
	ms := simulate(t, config,
		func(s *hal.Session) ([]*Measurement, error) {
			var result []*Measurement
			for _, name := range []string{"exp2", "sqrt"} {
				f, err := Lookup(config, name)
				if err != nil {
					return nil, err
				}
				m, err := Measure(s, f, 8)
				if err != nil {
					return nil, err
				}
				result = append(result, m)
			}
			return result, nil
		})
	require.Len(t, ms, 2)
	for _, m := range ms {
		require.GreaterOrEqual(t, m.Max, m.Median)
		require.GreaterOrEqual(t, m.Max, m.Mean)
	}

	var buf bytes.Buffer
	Report(&buf, ms)
	out := buf.String()
	for _, s := range []string{"Function", "StdDev", "exp2", "sqrt"} {
		require.True(t, strings.Contains(out, s), "missing %q:\n%s", s, out)
	}
}
