//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package approx

import (
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/hal"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/markkurossi/tabulate"
	"github.com/montanaflynn/stats"
)

// Precision of the reference computations.
const refPrec = 128

// Function describes an approximated function with its sampling
// domain and accuracy bound. An approximation is within the bound if
// |y-ref| ≤ Rel·|ref| + Abs.
type Function struct {
	Name string
	Eval func(s *hal.Session, x *hal.Value) (*hal.Value, error)
	Ref  func(x *big.Float) *big.Float
	Lo   float64
	Hi   float64
	Rel  float64
	Abs  float64

	// Geometric sampling for positive domains spanning many
	// magnitudes.
	Geometric bool
}

func (f *Function) String() string {
	return f.Name
}

// Samples returns n sample points from the function's domain.
func (f *Function) Samples(n int) []float64 {
	result := make([]float64, n)
	for i := range result {
		t := (float64(i) + 0.5) / float64(n)
		if f.Geometric {
			result[i] = f.Lo * math.Pow(f.Hi/f.Lo, t)
		} else {
			result[i] = f.Lo + (f.Hi-f.Lo)*t
		}
	}
	return result
}

// Bound returns the permitted error for the reference value.
func (f *Function) Bound(ref float64) float64 {
	return f.Rel*math.Abs(ref) + f.Abs
}

func newFloat(v float64) *big.Float {
	return new(big.Float).SetPrec(refPrec).SetFloat64(v)
}

func refExp(x *big.Float) *big.Float {
	return bigfloat.Exp(x)
}

func refExp2(x *big.Float) *big.Float {
	return bigfloat.Pow(newFloat(2), x)
}

func refLog(x *big.Float) *big.Float {
	return bigfloat.Log(x)
}

func refLog2(x *big.Float) *big.Float {
	l := bigfloat.Log(x)
	return l.Quo(l, bigfloat.Log(newFloat(2)))
}

func refLog1p(x *big.Float) *big.Float {
	return bigfloat.Log(new(big.Float).Add(x, newFloat(1)))
}

func refSqrt(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return newFloat(0)
	}
	return new(big.Float).SetPrec(refPrec).Sqrt(x)
}

func refRsqrt(x *big.Float) *big.Float {
	return new(big.Float).Quo(newFloat(1), refSqrt(x))
}

func refReciprocal(x *big.Float) *big.Float {
	return new(big.Float).Quo(newFloat(1), x)
}

// refTanh computes (e^2x-1)/(e^2x+1).
func refTanh(x *big.Float) *big.Float {
	e := bigfloat.Exp(new(big.Float).Add(x, x))
	num := new(big.Float).Sub(e, newFloat(1))
	den := new(big.Float).Add(e, newFloat(1))
	return num.Quo(num, den)
}

func refLogistic(x *big.Float) *big.Float {
	e := bigfloat.Exp(new(big.Float).Neg(x))
	e.Add(e, newFloat(1))
	return new(big.Float).Quo(newFloat(1), e)
}

// Functions returns the approximated functions with their domains
// and bounds for the configuration.
func Functions(config *env.Config) []*Function {
	hi := math.Ldexp(1, config.FxpBits-1)
	lo := math.Ldexp(1, 2-config.FxpBits)

	expFn := &Function{
		Name: "exp",
		Eval: Exp,
		Ref:  refExp,
		Lo:   -12,
		Hi:   18,
		Rel:  1e-3,
		Abs:  math.Ldexp(1, -14),
	}
	if config.ExpMode == env.ExpTaylor {
		expFn.Lo = -500
		expFn.Hi = 2.1
		expFn.Rel = 0
		expFn.Abs = 0.1
	}
	tanhFn := &Function{
		Name: "tanh",
		Eval: Tanh,
		Ref:  refTanh,
		Lo:   -8,
		Hi:   8,
		Abs:  5e-4,
	}
	if config.TanhMode == env.TanhExp {
		tanhFn.Lo = -6
		tanhFn.Hi = 6
		tanhFn.Abs = 5e-3
	}

	return []*Function{
		expFn,
		{
			Name: "exp2",
			Eval: Exp2,
			Ref:  refExp2,
			Lo:   -17,
			Hi:   25,
			Rel:  1e-3,
			Abs:  math.Ldexp(1, -14),
		},
		{
			Name:      "log",
			Eval:      Log,
			Ref:       refLog,
			Lo:        lo,
			Hi:        hi,
			Geometric: true,
			Abs:       1e-3,
		},
		{
			Name:      "log2",
			Eval:      Log2,
			Ref:       refLog2,
			Lo:        lo,
			Hi:        hi,
			Geometric: true,
			Abs:       1e-3,
		},
		{
			Name: "log1p",
			Eval: Log1p,
			Ref:  refLog1p,
			Lo:   -0.99,
			Hi:   100,
			Abs:  1e-3,
		},
		{
			Name:      "rsqrt",
			Eval:      Rsqrt,
			Ref:       refRsqrt,
			Lo:        lo,
			Hi:        hi,
			Geometric: true,
			Rel:       1e-2,
		},
		{
			Name: "sqrt",
			Eval: Sqrt,
			Ref:  refSqrt,
			Lo:   0,
			Hi:   hi,
			Rel:  1e-2,
			Abs:  1e-2,
		},
		{
			Name:      "reciprocal",
			Eval:      Reciprocal,
			Ref:       refReciprocal,
			Lo:        lo,
			Hi:        hi,
			Geometric: true,
			Rel:       1e-2,
			Abs:       lo,
		},
		tanhFn,
		{
			Name: "logistic",
			Eval: Logistic,
			Ref:  refLogistic,
			Lo:   -20,
			Hi:   20,
			Abs:  5e-4,
		},
	}
}

// Lookup returns the function by name.
func Lookup(config *env.Config, name string) (*Function, error) {
	for _, f := range Functions(config) {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, env.Errorf(env.ConfigurationError, "lookup",
		"unknown function %q", name)
}

// Measurement holds the error statistics of one function.
type Measurement struct {
	Function *Function
	Samples  int
	Max      float64
	Mean     float64
	Median   float64
	StdDev   float64
	Failures int

	// Worst is the input with the largest error relative to the
	// bound.
	Worst float64
}

// Measure evaluates the function with n secret inputs of party 0 and
// compares the results against the reference values. All parties
// must call Measure with the same arguments.
func Measure(s *hal.Session, f *Function, n int) (*Measurement, error) {
	if n <= 0 {
		return nil, env.Errorf(env.ConfigurationError, "measure",
			"invalid sample count %d", n)
	}
	// The reference uses the fixed-point inputs.
	xs := ring.DecodeFloat(ring.EncodeFloat(s.Field(), s.FxpBits(),
		f.Samples(n)), s.FxpBits())

	x, err := hal.InputFxp(s, 0, xs, ring.Shape{n})
	if err != nil {
		return nil, err
	}
	y, err := f.Eval(s, x)
	if err != nil {
		return nil, err
	}
	y, err = hal.Reveal(s, y)
	if err != nil {
		return nil, err
	}
	ys, err := hal.Decode(s, y)
	if err != nil {
		return nil, err
	}

	m := &Measurement{
		Function: f,
		Samples:  n,
	}
	errs := make([]float64, n)
	var worst float64
	for i, v := range xs {
		ref, _ := f.Ref(newFloat(v)).Float64()
		e := math.Abs(ys[i] - ref)
		errs[i] = e

		bound := f.Bound(ref)
		if e > bound {
			m.Failures++
		}
		ratio := e / bound
		if i == 0 || ratio > worst {
			worst = ratio
			m.Worst = v
		}
	}
	m.Max, _ = stats.Max(errs)
	m.Mean, _ = stats.Mean(errs)
	m.Median, _ = stats.Median(errs)
	m.StdDev, _ = stats.StandardDeviation(errs)

	if m.Failures > 0 {
		s.Config().Debugf("%v: %v: %d of %d samples exceed bound\n",
			s, f, m.Failures, n)
	}
	return m, nil
}

// Report prints the measurements to w.
func Report(w io.Writer, measurements []*Measurement) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Function").SetAlign(tabulate.ML)
	tab.Header("Domain").SetAlign(tabulate.ML)
	tab.Header("N").SetAlign(tabulate.MR)
	tab.Header("Max").SetAlign(tabulate.MR)
	tab.Header("Mean").SetAlign(tabulate.MR)
	tab.Header("Median").SetAlign(tabulate.MR)
	tab.Header("StdDev").SetAlign(tabulate.MR)
	tab.Header("Worst x").SetAlign(tabulate.MR)
	tab.Header("Fail").SetAlign(tabulate.MR)

	for _, m := range measurements {
		row := tab.Row()
		row.Column(m.Function.Name)
		row.Column(fmt.Sprintf("[%g,%g]", m.Function.Lo, m.Function.Hi))
		row.Column(fmt.Sprintf("%d", m.Samples))
		row.Column(fmt.Sprintf("%.3e", m.Max))
		row.Column(fmt.Sprintf("%.3e", m.Mean))
		row.Column(fmt.Sprintf("%.3e", m.Median))
		row.Column(fmt.Sprintf("%.3e", m.StdDev))
		row.Column(fmt.Sprintf("%g", m.Worst))
		col := row.Column(fmt.Sprintf("%d", m.Failures))
		if m.Failures > 0 {
			col.SetFormat(tabulate.FmtBold)
		}
	}
	tab.Print(w)
}
