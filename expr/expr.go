// Package expr builds target functions from arithmetic expressions such as
// "x0 * sin(x1)" or "x*x + y*y <= 1".
//
// Coordinates are bound to x0, x1, ... and, for regions of at most three
// dimensions, also to x, y and z. Boolean results count as 1 and 0, so a
// comparison integrates to the volume of the set where it holds.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Knetic/govaluate"

	"mc-integrator/integrator"
	"mc-integrator/region"
)

// ErrInvalidExpression is returned for expressions that do not parse, refer
// to unknown variables or evaluate to something other than a number.
var ErrInvalidExpression = errors.New("expr: invalid expression")

var aliases = []string{"x", "y", "z"}

// Expression is a compiled target function over a fixed number of dimensions.
type Expression struct {
	source string
	dims   int
	eval   *govaluate.EvaluableExpression
	index  map[string]int
}

// Compile parses source for a region with dims dimensions.
func Compile(source string, dims int) (*Expression, error) {
	if dims < 1 {
		return nil, fmt.Errorf("%w: need at least one dimension, got %d", ErrInvalidExpression, dims)
	}

	ev, err := govaluate.NewEvaluableExpressionWithFunctions(source, functions)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, source, err)
	}

	index := make(map[string]int, dims+len(aliases))
	for i := 0; i < dims; i++ {
		index["x"+strconv.Itoa(i)] = i
	}
	if dims <= len(aliases) {
		for i := 0; i < dims; i++ {
			index[aliases[i]] = i
		}
	}

	for _, v := range ev.Vars() {
		if _, ok := index[v]; !ok {
			return nil, fmt.Errorf("%w: %q: unknown variable %q for %d dimensions", ErrInvalidExpression, source, v, dims)
		}
	}

	return &Expression{source: source, dims: dims, eval: ev, index: index}, nil
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}

// Dims returns the dimensionality the expression was compiled for.
func (e *Expression) Dims() int {
	return e.dims
}

// Evaluate computes the expression at p.
func (e *Expression) Evaluate(p region.Point) (float64, error) {
	if len(p) != e.dims {
		return 0, fmt.Errorf("%w: point has %d coordinates, want %d", ErrInvalidExpression, len(p), e.dims)
	}

	out, err := e.eval.Eval(pointParameters{index: e.index, point: p})
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", e.source, err)
	}

	switch v := out.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q evaluated to %T", ErrInvalidExpression, e.source, out)
	}
}

// Func returns the expression as a target function.
func (e *Expression) Func() integrator.Func {
	return e.Evaluate
}

type pointParameters struct {
	index map[string]int
	point region.Point
}

func (p pointParameters) Get(name string) (interface{}, error) {
	i, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown variable %q", ErrInvalidExpression, name)
	}
	return p.point[i], nil
}

var functions = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"exp":  unary(math.Exp),
	"log":  unary(math.Log),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
	"pow":  binary(math.Pow),
	"min":  binary(math.Min),
	"max":  binary(math.Max),
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		x, err := numbers(1, args)
		if err != nil {
			return nil, err
		}
		return fn(x[0]), nil
	}
}

func binary(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		x, err := numbers(2, args)
		if err != nil {
			return nil, err
		}
		return fn(x[0], x[1]), nil
	}
}

func numbers(n int, args []interface{}) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: function takes %d arguments, got %d", ErrInvalidExpression, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is %T, want a number", ErrInvalidExpression, i, a)
		}
		out[i] = f
	}
	return out, nil
}
