//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package cexpr implements symbolic cost expressions. The expressions
// describe protocol latency in rounds and communication in bits as
// functions of the ring width K and the party count N.
package cexpr

import (
	"fmt"
	"strings"

	"github.com/markkurossi/ringmpc/pkg/math"
)

// Params define the free variables of an expression.
type Params struct {
	K int
	N int
}

// Expr implements a cost expression.
type Expr interface {
	Eval(p Params) int64
	String() string
	prec() int
}

const (
	precAdd = iota
	precMul
	precAtom
)

type constant int64

// Const creates a constant expression.
func Const(v int64) Expr {
	return constant(v)
}

func (c constant) Eval(p Params) int64 {
	return int64(c)
}

func (c constant) String() string {
	return fmt.Sprintf("%d", int64(c))
}

func (c constant) prec() int {
	return precAtom
}

type variable byte

// K returns the ring width variable.
func K() Expr {
	return variable('K')
}

// N returns the party count variable.
func N() Expr {
	return variable('N')
}

func (v variable) Eval(p Params) int64 {
	if v == 'K' {
		return int64(p.K)
	}
	return int64(p.N)
}

func (v variable) String() string {
	return string(rune(v))
}

func (v variable) prec() int {
	return precAtom
}

type log struct {
	arg Expr
}

// Log creates the ceiling base-2 logarithm of the argument.
func Log(e Expr) Expr {
	return &log{
		arg: e,
	}
}

func (l *log) Eval(p Params) int64 {
	return int64(math.CeilLog2(l.arg.Eval(p)))
}

func (l *log) String() string {
	return fmt.Sprintf("log(%s)", l.arg)
}

func (l *log) prec() int {
	return precAtom
}

type nary struct {
	op   byte
	args []Expr
}

// Add creates the sum of the arguments.
func Add(args ...Expr) Expr {
	return &nary{
		op:   '+',
		args: args,
	}
}

// Sub creates the difference of the first argument and the rest of the
// arguments.
func Sub(args ...Expr) Expr {
	return &nary{
		op:   '-',
		args: args,
	}
}

// Mul creates the product of the arguments.
func Mul(args ...Expr) Expr {
	return &nary{
		op:   '*',
		args: args,
	}
}

func (n *nary) Eval(p Params) int64 {
	var result int64
	if n.op == '*' {
		result = 1
	}
	for idx, arg := range n.args {
		v := arg.Eval(p)
		switch {
		case n.op == '*':
			result *= v
		case n.op == '-' && idx > 0:
			result -= v
		default:
			result += v
		}
	}
	return result
}

func (n *nary) String() string {
	var sb strings.Builder
	for idx, arg := range n.args {
		if idx > 0 {
			sb.WriteByte(n.op)
		}
		if arg.prec() < n.prec() ||
			(n.op == '-' && idx > 0 && arg.prec() == precAdd) {
			sb.WriteString("(" + arg.String() + ")")
		} else {
			sb.WriteString(arg.String())
		}
	}
	return sb.String()
}

func (n *nary) prec() int {
	if n.op == '*' {
		return precMul
	}
	return precAdd
}
