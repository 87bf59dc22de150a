//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package hal

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/markkurossi/ringmpc/env"
	"github.com/markkurossi/ringmpc/link"
	"github.com/markkurossi/ringmpc/ring"
	"github.com/markkurossi/ringmpc/semi2k"
	"github.com/stretchr/testify/require"
)

const timeout = 30 * time.Second

func newConfig(parties int, width int) *env.Config {
	config := &env.Config{
		NumParties: parties,
		RingWidth:  width,
	}
	if width == 32 {
		config.FxpBits = 10
	}
	config.SetDefaults()
	return config
}

// simulate runs fn on all parties and returns the results of party
// 0.
func simulate(t *testing.T, config *env.Config,
	fn func(s *Session) ([][]float64, error)) [][]float64 {

	t.Helper()
	var result [][]float64
	var m sync.Mutex
	err := link.Simulate(config.NumParties, timeout,
		func(lctx *link.Context) error {
			s, err := NewSession(lctx, config)
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

func open(s *Session, vals ...*Value) ([][]float64, error) {
	var result [][]float64
	for _, v := range vals {
		p, err := Reveal(s, v)
		if err != nil {
			return nil, err
		}
		f, err := Decode(s, p)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

// operands returns x and y with the argument visibilities.
func operands(s *Session, xs, ys []float64, xSecret, ySecret bool) (
	x, y *Value, err error) {

	x, err = PublicFxp(s, xs, nil)
	if err != nil {
		return
	}
	y, err = PublicFxp(s, ys, nil)
	if err != nil {
		return
	}
	if xSecret {
		x, err = InputFxp(s, 0, xs, x.Shape())
		if err != nil {
			return
		}
	}
	if ySecret {
		y, err = InputFxp(s, s.WorldSize()-1, ys, y.Shape())
	}
	return
}

func requireClose(t *testing.T, expected, got []float64, tolerance float64,
	msgAndArgs ...interface{}) {

	t.Helper()
	require.Equal(t, len(expected), len(got), msgAndArgs...)
	for i := range expected {
		require.InDelta(t, expected[i], got[i], tolerance, msgAndArgs...)
	}
}

func TestInputReveal(t *testing.T) {
	for _, width := range []int{32, 64} {
		for _, n := range []int{2, 3} {
			ints := []int64{0, 1, -1, 12345, -54321}
			floats := []float64{0, 0.5, -0.25, 3.75, -17.125}
			r := simulate(t, newConfig(n, width),
				func(s *Session) ([][]float64, error) {
					a, err := InputInt(s, n-1, ints, ring.Shape{5})
					if err != nil {
						return nil, err
					}
					b, err := InputFxp(s, 0, floats, ring.Shape{5})
					if err != nil {
						return nil, err
					}
					if a.DType() != DTInt || b.DType() != DTFxp ||
						!a.IsSecret() || b.Repr() != ReprArith {
						return nil, fmt.Errorf("invalid values: %v %v", a, b)
					}
					return open(s, a, b)
				})
			expected := make([]float64, len(ints))
			for i, v := range ints {
				expected[i] = float64(v)
			}
			if diff := cmp.Diff(expected, r[0]); diff != "" {
				t.Errorf("%d/%d: int mismatch (-want +got):\n%s", width, n, diff)
			}
			if diff := cmp.Diff(floats, r[1]); diff != "" {
				t.Errorf("%d/%d: fxp mismatch (-want +got):\n%s", width, n, diff)
			}
		}
	}
}

func TestArithDispatch(t *testing.T) {
	xs := []float64{1.5, -2.25, 3, 0.125, -7.5}
	ys := []float64{0.5, 4, -1.75, -0.5, -2}

	var add, sub, mul, neg, sq []float64
	for i := range xs {
		add = append(add, xs[i]+ys[i])
		sub = append(sub, xs[i]-ys[i])
		mul = append(mul, xs[i]*ys[i])
		neg = append(neg, -xs[i])
		sq = append(sq, xs[i]*xs[i])
	}
	for _, vis := range [][2]bool{
		{false, false}, {true, false}, {false, true}, {true, true},
	} {
		for _, n := range []int{2, 3} {
			r := simulate(t, newConfig(n, 64),
				func(s *Session) ([][]float64, error) {
					x, y, err := operands(s, xs, ys, vis[0], vis[1])
					if err != nil {
						return nil, err
					}
					var result []*Value
					for _, op := range []func() (*Value, error){
						func() (*Value, error) { return Add(s, x, y) },
						func() (*Value, error) { return Sub(s, x, y) },
						func() (*Value, error) { return Mul(s, x, y) },
						func() (*Value, error) { return Negate(s, x) },
						func() (*Value, error) { return Square(s, x) },
					} {
						v, err := op()
						if err != nil {
							return nil, err
						}
						if v.IsSecret() != (vis[0] || vis[1]) &&
							v.IsSecret() != vis[0] {
							return nil, fmt.Errorf("invalid visibility %v", v)
						}
						result = append(result, v)
					}
					return open(s, result...)
				})
			msg := fmt.Sprintf("%v/%d", vis, n)
			requireClose(t, add, r[0], 0, msg)
			requireClose(t, sub, r[1], 0, msg)
			requireClose(t, mul, r[2], 1e-4, msg)
			requireClose(t, neg, r[3], 0, msg)
			requireClose(t, sq, r[4], 1e-4, msg)
		}
	}
}

func TestPromotion(t *testing.T) {
	r := simulate(t, newConfig(2, 64), func(s *Session) ([][]float64, error) {
		i, err := InputInt(s, 0, []int64{3, -2}, ring.Shape{2})
		if err != nil {
			return nil, err
		}
		f, err := PublicFxp(s, []float64{0.5, 1.25}, nil)
		if err != nil {
			return nil, err
		}
		sum, err := Add(s, i, f)
		if err != nil {
			return nil, err
		}
		prod, err := Mul(s, i, f)
		if err != nil {
			return nil, err
		}
		if sum.DType() != DTFxp || prod.DType() != DTFxp {
			return nil, fmt.Errorf("invalid types %v %v", sum, prod)
		}
		return open(s, sum, prod)
	})
	requireClose(t, []float64{3.5, -0.75}, r[0], 0)
	requireClose(t, []float64{1.5, -2.5}, r[1], 0)
}

func TestMatMul(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{0.5, -1, 1.5, 2, -0.25, 0}
	r := simulate(t, newConfig(3, 64), func(s *Session) ([][]float64, error) {
		px, err := PublicFxp(s, x, ring.Shape{2, 3})
		if err != nil {
			return nil, err
		}
		py, err := PublicFxp(s, y, ring.Shape{3, 2})
		if err != nil {
			return nil, err
		}
		sx, err := Seal(s, px)
		if err != nil {
			return nil, err
		}
		sy, err := Seal(s, py)
		if err != nil {
			return nil, err
		}
		var result []*Value
		for _, pair := range [][2]*Value{
			{px, py}, {sx, py}, {px, sy}, {sx, sy},
		} {
			z, err := MatMul(s, pair[0], pair[1])
			if err != nil {
				return nil, err
			}
			if !z.Shape().Equal(ring.Shape{2, 2}) {
				return nil, fmt.Errorf("invalid shape %v", z.Shape())
			}
			result = append(result, z)
		}
		if _, err := MatMul(s, px, px); !errors.Is(err, env.ErrConfiguration) {
			return nil, fmt.Errorf("shape mismatch not detected: %v", err)
		}
		return open(s, result...)
	})
	expected := []float64{
		1*0.5 + 2*1.5 + 3*-0.25, 1*-1 + 2*2 + 3*0,
		4*0.5 + 5*1.5 + 6*-0.25, 4*-1 + 5*2 + 6*0,
	}
	for i := range r {
		requireClose(t, expected, r[i], 1e-4, "variant %d", i)
	}
}

func TestShifts(t *testing.T) {
	amounts := []int{0, 1, 2, 31, 32, 33, 64, 1000}
	for _, n := range []int{2, 3} {
		for _, width := range []int{32, 64} {
			testShifts(t, n, width, amounts)
		}
	}
}

func testShifts(t *testing.T, n, width int, amounts []int) {
	config := newConfig(n, width)
	values := []int64{-123456789, 987654321, -1, 0}
	err := link.Simulate(n, timeout, func(lctx *link.Context) error {
		s, err := NewSession(lctx, config)
		if err != nil {
			return err
		}
		x, err := InputInt(s, 0, values, ring.Shape{4})
		if err != nil {
			return err
		}
		plain := ring.EncodeInt(s.Field(), values)
		for _, bits := range amounts {
			for _, op := range []struct {
				name  string
				fn    func(*Session, *Value, int) (*Value, error)
				plain func(ring.Array, int) ring.Array
			}{
				{"lshift", LShift, ring.LShift},
				{"rshift", RShift, ring.RShift},
				{"arshift", ARShift, ring.ARShift},
			} {
				z, err := op.fn(s, x, bits)
				if bits >= width {
					if !errors.Is(err, env.ErrConfiguration) {
						return fmt.Errorf("%s %d: unexpected error: %v",
							op.name, bits, err)
					}
					continue
				}
				if err != nil {
					return err
				}
				p, err := Reveal(s, z)
				if err != nil {
					return err
				}
				if !p.Data().Equal(op.plain(plain, bits)) {
					return fmt.Errorf("%s %d: mismatch", op.name, bits)
				}
			}
		}
		return nil
	})
	require.NoError(t, err, "%d parties, width %d", n, width)
}

func TestCompare(t *testing.T) {
	xs := []float64{1.5, -2.25, 3, 0.125, -7.5, 2}
	ys := []float64{0.5, 4, -1.75, 0.125, -2, 2}

	var less, greater, equal, sel, abs, sign []float64
	for i := range xs {
		less = append(less, b2f(xs[i] < ys[i]))
		greater = append(greater, b2f(xs[i] > ys[i]))
		equal = append(equal, b2f(xs[i] == ys[i]))
		if xs[i] < ys[i] {
			sel = append(sel, xs[i])
		} else {
			sel = append(sel, ys[i])
		}
		abs = append(abs, math.Abs(xs[i]))
		if xs[i] < 0 {
			sign = append(sign, -1)
		} else {
			sign = append(sign, 1)
		}
	}
	for _, vis := range [][2]bool{{false, false}, {true, false}, {true, true}} {
		r := simulate(t, newConfig(3, 64), func(s *Session) ([][]float64, error) {
			x, y, err := operands(s, xs, ys, vis[0], vis[1])
			if err != nil {
				return nil, err
			}
			lt, err := Less(s, x, y)
			if err != nil {
				return nil, err
			}
			gt, err := Greater(s, x, y)
			if err != nil {
				return nil, err
			}
			eq, err := Equal(s, x, y)
			if err != nil {
				return nil, err
			}
			lo, err := Select(s, lt, x, y)
			if err != nil {
				return nil, err
			}
			a, err := Abs(s, x)
			if err != nil {
				return nil, err
			}
			sg, err := Sign(s, x)
			if err != nil {
				return nil, err
			}
			return open(s, lt, gt, eq, lo, a, sg)
		})
		msg := fmt.Sprintf("%v", vis)
		requireClose(t, less, r[0], 0, msg)
		requireClose(t, greater, r[1], 0, msg)
		requireClose(t, equal, r[2], 0, msg)
		requireClose(t, sel, r[3], 0, msg)
		requireClose(t, abs, r[4], 0, msg)
		requireClose(t, sign, r[5], 0, msg)
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func TestClamp(t *testing.T) {
	r := simulate(t, newConfig(2, 64), func(s *Session) ([][]float64, error) {
		x, err := InputFxp(s, 1, []float64{-10, -5, 0, 4.5, 5, 12},
			ring.Shape{6})
		if err != nil {
			return nil, err
		}
		lo := ConstantFxp(s, -5, x.Shape())
		hi := ConstantFxp(s, 5, x.Shape())
		z, err := Clamp(s, x, lo, hi)
		if err != nil {
			return nil, err
		}
		return open(s, z)
	})
	requireClose(t, []float64{-5, -5, 0, 4.5, 5, 5}, r[0], 0)
}

func TestSelectPredicate(t *testing.T) {
	r := simulate(t, newConfig(2, 64), func(s *Session) ([][]float64, error) {
		a := ConstantFxp(s, 2.5, ring.Shape{3})
		b, err := InputFxp(s, 0, []float64{-1, 0.5, 3}, ring.Shape{3})
		if err != nil {
			return nil, err
		}
		pred, err := InputInt(s, 1, []int64{1, 0, 1}, ring.Shape{3})
		if err != nil {
			return nil, err
		}
		z, err := Select(s, pred, a, b)
		if err != nil {
			return nil, err
		}

		// A fixed-point 1.0 is not a predicate.
		fxp, err := InputFxp(s, 1, []float64{1, 0, 1}, ring.Shape{3})
		if err != nil {
			return nil, err
		}
		_, err = Select(s, fxp, a, b)
		if !errors.Is(err, env.ErrConfiguration) {
			return nil, fmt.Errorf("fixed-point predicate: %v", err)
		}
		return open(s, z)
	})
	requireClose(t, []float64{2.5, 0.5, 2.5}, r[0], 0)
}

func TestBitwise(t *testing.T) {
	xs := []int64{0b1011, 0, -1, 1 << 40, 0x1234}
	ys := []int64{0b0110, 7, 0x0f0f, 3, 0x00ff}
	for _, n := range []int{2, 3} {
		config := newConfig(n, 64)
		err := link.Simulate(n, timeout, func(lctx *link.Context) error {
			s, err := NewSession(lctx, config)
			if err != nil {
				return err
			}
			px, err := PublicInt(s, xs, nil)
			if err != nil {
				return err
			}
			py, err := PublicInt(s, ys, nil)
			if err != nil {
				return err
			}
			sx, err := Seal(s, px)
			if err != nil {
				return err
			}
			sy, err := InputInt(s, 0, ys, py.Shape())
			if err != nil {
				return err
			}
			for _, op := range []struct {
				name string
				fn   func(*Session, *Value, *Value) (*Value, error)
			}{
				{"and", And},
				{"or", Or},
				{"xor", Xor},
			} {
				expected, err := op.fn(s, px, py)
				if err != nil {
					return err
				}
				for _, pair := range [][2]*Value{{sx, py}, {px, sy}, {sx, sy}} {
					z, err := op.fn(s, pair[0], pair[1])
					if err != nil {
						return err
					}
					if z.Repr() != ReprBool {
						return fmt.Errorf("%s: %v", op.name, z)
					}
					p, err := Reveal(s, z)
					if err != nil {
						return err
					}
					if !p.Data().Equal(expected.Data()) {
						return fmt.Errorf("%s: mismatch", op.name)
					}
				}
			}
			for _, op := range []struct {
				name string
				fn   func(*Session, *Value) (*Value, error)
			}{
				{"not", Not},
				{"prefix_or", PrefixOr},
				{"popcount", Popcount},
				{"bitdeintl", BitDeintl},
				{"bitintl", BitIntl},
				{"highest", HighestBitOneHot},
				{"bitrev", func(s *Session, v *Value) (*Value, error) {
					return Bitrev(s, v, 2, 20)
				}},
			} {
				expected, err := op.fn(s, px)
				if err != nil {
					return err
				}
				z, err := op.fn(s, sx)
				if err != nil {
					return err
				}
				p, err := Reveal(s, z)
				if err != nil {
					return err
				}
				if !p.Data().Equal(expected.Data()) {
					return fmt.Errorf("%s: mismatch", op.name)
				}
			}

			bits, err := Bits(s, sx, []int{0, 1, 40})
			if err != nil {
				return err
			}
			ws, err := WeightedSum(s, bits, []uint64{1, 2, 4}, DTInt)
			if err != nil {
				return err
			}
			p, err := Reveal(s, ws)
			if err != nil {
				return err
			}
			got := ring.DecodeInt(p.Data())
			for i, v := range xs {
				expected := (v & 1) + (v>>1&1)*2 + (v>>40&1)*4
				if got[i] != expected {
					return fmt.Errorf("bits: %d: got %d, expected %d",
						v, got[i], expected)
				}
			}
			return nil
		})
		require.NoError(t, err)
	}
}

func TestTruncWithSign(t *testing.T) {
	config := newConfig(2, 64)
	config.Trunc = env.TruncExact
	r := simulate(t, config, func(s *Session) ([][]float64, error) {
		pos, err := InputInt(s, 0, []int64{1000, 1 << 40}, ring.Shape{2})
		if err != nil {
			return nil, err
		}
		neg, err := InputInt(s, 1, []int64{-1000, -(1 << 40)}, ring.Shape{2})
		if err != nil {
			return nil, err
		}
		a, err := TruncWithSign(s, pos, 3, semi2k.SignPositive)
		if err != nil {
			return nil, err
		}
		b, err := TruncWithSign(s, neg, 3, semi2k.SignNegative)
		if err != nil {
			return nil, err
		}
		c, err := Trunc(s, neg, 3)
		if err != nil {
			return nil, err
		}
		return open(s, a, b, c)
	})
	requireClose(t, []float64{125, 1 << 37}, r[0], 0)
	requireClose(t, []float64{-125, -(1 << 37)}, r[1], 0)
	requireClose(t, []float64{-125, -(1 << 37)}, r[2], 0)
}

func TestValues(t *testing.T) {
	data := ring.Zeros(ring.FM64, 6)
	v, err := MakeValue(DTInvalid, Secret, ReprArith, ring.Shape{2, 3}, data)
	require.NoError(t, err)
	require.Equal(t, 6, v.Numel())
	require.NoError(t, v.SetDType(DTFxp, false))
	require.ErrorIs(t, v.SetDType(DTInt, false), env.ErrConfiguration)
	require.NoError(t, v.SetDType(DTInt, true))
	require.Equal(t, DTInt, v.DType())

	_, err = MakeValue(DTInt, Public, ReprArith, ring.Shape{6}, data)
	require.ErrorIs(t, err, env.ErrConfiguration)
	_, err = MakeValue(DTInt, Secret, ReprPlain, ring.Shape{6}, data)
	require.ErrorIs(t, err, env.ErrConfiguration)
	_, err = MakeValue(DTInt, Public, ReprPlain, ring.Shape{5}, data)
	require.ErrorIs(t, err, env.ErrConfiguration)
}

func TestSession(t *testing.T) {
	config := newConfig(2, 64)
	config.Protocol = "aby3"
	err := link.Simulate(2, timeout, func(lctx *link.Context) error {
		_, err := NewSession(lctx, config)
		return err
	})
	require.ErrorIs(t, err, env.ErrConfiguration)

	r := simulate(t, newConfig(2, 64), func(s *Session) ([][]float64, error) {
		child, err := s.Fork()
		if err != nil {
			return nil, err
		}
		x, err := InputFxp(s, 0, []float64{2, 3}, ring.Shape{2})
		if err != nil {
			return nil, err
		}
		y, err := InputFxp(child, 1, []float64{4, 5}, ring.Shape{2})
		if err != nil {
			return nil, err
		}
		z, err := Mul(child, x, y)
		if err != nil {
			return nil, err
		}
		s.Warn("test", "value %d out of domain", 42)
		if len(s.Warnings()) != 1 ||
			env.KindOf(s.Warnings()[0]) != env.DomainWarning {
			return nil, fmt.Errorf("warning not recorded")
		}
		return open(child, z)
	})
	requireClose(t, []float64{8, 15}, r[0], 1e-4)
}
