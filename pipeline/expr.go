package pipeline

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	identRe      = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	arithmeticRe = regexp.MustCompile(`^[0-9+\-*/().%\s]*$`)

	errDivByZero = errors.New("division by zero")
)

// Expr is a node of a parsed arithmetic expression.
type Expr interface {
	Eval() (float64, error)
}

// Num is a literal.
type Num float64

// Unary is a negation or identity.
type Unary struct {
	Op byte
	X  Expr
}

// Binary is one of + - * / %.
type Binary struct {
	Op   byte
	L, R Expr
}

func (n Num) Eval() (float64, error) { return float64(n), nil }

func (u Unary) Eval() (float64, error) {
	x, err := u.X.Eval()
	if err != nil {
		return 0, err
	}
	if u.Op == '-' {
		return -x, nil
	}
	return x, nil
}

func (b Binary) Eval() (float64, error) {
	l, err := b.L.Eval()
	if err != nil {
		return 0, err
	}
	r, err := b.R.Eval()
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, errDivByZero
		}
		return l / r, nil
	case '%':
		if r == 0 {
			return 0, errDivByZero
		}
		return math.Mod(l, r), nil
	}
	return 0, fmt.Errorf("unknown operator %q", b.Op)
}

// ParseExpr parses an arithmetic-only expression. Anything outside digits,
// whitespace and "+-*/().%" is rejected before parsing.
func ParseExpr(src string) (Expr, error) {
	if !arithmeticRe.MatchString(src) {
		return nil, fmt.Errorf("expression %q contains non-arithmetic characters", src)
	}
	p := &exprParser{src: src}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("unexpected %q at %d", p.src[p.pos], p.pos)
	}
	return e, nil
}

// Evaluate substitutes field names in formula with the row's values and
// evaluates the result. A missing field or a failed evaluation reports false.
func Evaluate(formula string, row Row) (float64, bool) {
	missing := false
	substituted := identRe.ReplaceAllStringFunc(formula, func(name string) string {
		v, ok := row.Number(name)
		if !ok {
			missing = true
			return "0"
		}
		return "(" + strconv.FormatFloat(v, 'f', -1, 64) + ")"
	})
	if missing {
		return 0, false
	}
	e, err := ParseExpr(substituted)
	if err != nil {
		return 0, false
	}
	v, err := e.Eval()
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// exprParser is a recursive-descent parser:
//
//	expr   = term { ("+"|"-") term }
//	term   = unary { ("*"|"/"|"%") unary }
//	unary  = ("+"|"-") unary | factor
//	factor = number | "(" expr ")"
type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
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

func (p *exprParser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
}

func (p *exprParser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
}

func (p *exprParser) unary() (Expr, error) {
	if op := p.peek(); op == '-' || op == '+' {
		p.pos++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: op, X: x}, nil
	}
	return p.factor()
}

func (p *exprParser) factor() (Expr, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ) at %d", p.pos)
		}
		p.pos++
		return e, nil
	case c == '.' || (c >= '0' && c <= '9'):
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
			p.pos++
		}
		f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p.src[start:p.pos])
		}
		return Num(f), nil
	case c == 0:
		return nil, errors.New("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q at %d", c, p.pos)
}
