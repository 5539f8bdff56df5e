package executor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	apperrors "github.com/deskai/deskai/internal/errors"
)

// Calculator evaluates arithmetic expressions with + - * / %, unary
// signs and parentheses.
type Calculator struct{}

func (t *Calculator) Name() string        { return "calculator" }
func (t *Calculator) Description() string { return "Evaluate an arithmetic expression" }

func (t *Calculator) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	start := time.Now()

	expr, err := required(t.Name(), params, "expression")
	if err != nil {
		return nil, err
	}

	value, err := Evaluate(expr)
	if err != nil {
		return nil, apperrors.InvalidParams(t.Name(), err.Error())
	}

	formatted := strconv.FormatFloat(value, 'f', -1, 64)
	return TimedResult(NewResult("Calculation result: "+formatted, map[string]any{
		"expression": expr,
		"value":      value,
	}), start), nil
}

// PlaceholderCalculator answers every expression with a fixed value. It
// stands in where real evaluation is not wanted.
type PlaceholderCalculator struct{}

// PlaceholderCalculation is the fixed answer of PlaceholderCalculator.
const PlaceholderCalculation = "Calculation result: 42"

func (t *PlaceholderCalculator) Name() string        { return "calculator" }
func (t *PlaceholderCalculator) Description() string { return "Evaluate an arithmetic expression (placeholder)" }

func (t *PlaceholderCalculator) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	return NewResult(PlaceholderCalculation, map[string]any{"placeholder": true}), nil
}

// Evaluate computes the value of an arithmetic expression.
func Evaluate(expr string) (float64, error) {
	p := &exprParser{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos+1)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return v, nil
}

// maxNesting bounds parenthesis depth.
const maxNesting = 64

type exprParser struct {
	src   string
	pos   int
	depth int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// expr = term { ("+" | "-") term }
func (p *exprParser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// term = unary { ("*" | "/" | "%") unary }
func (p *exprParser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Mod(left, right)
		}
	}
}

// unary = ("-" | "+") unary | primary
func (p *exprParser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.primary()
}

// primary = number | "(" expr ")"
func (p *exprParser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.depth++
		if p.depth > maxNesting {
			return 0, fmt.Errorf("expression nested too deeply")
		}
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		p.depth--
		return v, nil
	case (c >= '0' && c <= '9') || c == '.':
		return p.number()
	case c == 0:
		return 0, fmt.Errorf("unexpected end of expression")
	default:
		return 0, fmt.Errorf("unexpected %q at position %d", c, p.pos+1)
	}
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && ((p.src[p.pos] >= '0' && p.src[p.pos] <= '9') || p.src[p.pos] == '.') {
		p.pos++
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}
