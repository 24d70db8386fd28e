package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	maxExprLen   = 1024
	maxExprDepth = 64
)

// Calculate evaluates an arithmetic expression and returns "Result: <value>"
// or "Calculation error: <msg>".
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | primary
//	primary = number | "(" expr ")"
//
// Identifiers and function calls are rejected by the tokenizer.
func Calculate(expression string) string {
	v, err := EvalArithmetic(expression)
	if err != nil {
		return "Calculation error: " + err.Error()
	}
	return "Result: " + formatNumber(v)
}

// EvalArithmetic parses and evaluates expression.
func EvalArithmetic(expression string) (float64, error) {
	if len(expression) > maxExprLen {
		return 0, fmt.Errorf("expression longer than %d bytes", maxExprLen)
	}
	toks, err := tokenize(expression)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, errors.New("empty expression")
	}
	p := &exprParser{toks: toks}
	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}
	if p.pos < len(p.toks) {
		return 0, fmt.Errorf("unexpected %q at offset %d", p.toks[p.pos].text, p.toks[p.pos].off)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("result out of range")
	}
	return v, nil
}

type tokKind int

const (
	tokNum tokKind = iota
	tokOp
	tokLParen
	tokRParen
)

type exprToken struct {
	kind tokKind
	text string
	num  float64
	off  int
}

func tokenize(s string) ([]exprToken, error) {
	var out []exprToken
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			out = append(out, exprToken{kind: tokOp, text: string(c), off: i})
			i++
		case c == '(':
			out = append(out, exprToken{kind: tokLParen, text: "(", off: i})
			i++
		case c == ')':
			out = append(out, exprToken{kind: tokRParen, text: ")", off: i})
			i++
		case isDigit(c) || c == '.':
			j := scanNumber(s, i)
			n, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", s[i:j])
			}
			out = append(out, exprToken{kind: tokNum, text: s[i:j], num: n, off: i})
			i = j
		default:
			return nil, fmt.Errorf("unsupported character %q at offset %d", c, i)
		}
	}
	return out, nil
}

func scanNumber(s string, i int) int {
	j := i
	for j < len(s) && (isDigit(s[j]) || s[j] == '.') {
		j++
	}
	// exponent: 1e10, 2.5E-3
	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && isDigit(s[k]) {
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			j = k
		}
	}
	return j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

type exprParser struct {
	toks []exprToken
	pos  int
}

func (p *exprParser) peek() (exprToken, bool) {
	if p.pos >= len(p.toks) {
		return exprToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) expr(depth int) (float64, error) {
	left, err := p.term(depth)
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.term(depth)
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) term(depth int) (float64, error) {
	left, err := p.unary(depth)
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.unary(depth)
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			left *= right
			continue
		}
		if right == 0 {
			return 0, errors.New("division by zero")
		}
		left /= right
	}
}

func (p *exprParser) unary(depth int) (float64, error) {
	if depth > maxExprDepth {
		return 0, errors.New("expression nested too deeply")
	}
	t, ok := p.peek()
	if ok && t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.pos++
		v, err := p.unary(depth + 1)
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.primary(depth)
}

func (p *exprParser) primary(depth int) (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, errors.New("unexpected end of expression")
	}
	switch t.kind {
	case tokNum:
		p.pos++
		return t.num, nil
	case tokLParen:
		p.pos++
		v, err := p.expr(depth + 1)
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return 0, errors.New("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}
	return 0, fmt.Errorf("unexpected %q at offset %d", t.text, t.off)
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// CalculateTool exposes Calculate through the registry.
// Inputs:
// - expression: string (required)
type CalculateTool struct{}

func (t *CalculateTool) Name() string { return "calculate" }

func (t *CalculateTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	expr, _ := inputs["expression"].(string)
	if strings.TrimSpace(expr) == "" {
		return nil, "", fmt.Errorf("missing expression")
	}
	return Calculate(expr), "", nil
}
