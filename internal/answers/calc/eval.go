package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadExpression is returned for any expression the evaluator cannot reduce
// to a number: illegal characters, unbalanced parentheses, dangling operators,
// division by zero. Callers surface it as the calculator's "Error" state.
var ErrBadExpression = errors.New("bad expression")

// Evaluate parses and evaluates an arithmetic expression restricted to digits,
// whitespace and the symbols + - * / ( ) . %. Standard operator precedence
// applies; % is binary modulo at the same precedence as * and /.
//
// The grammar is handled by a small recursive-descent parser rather than any
// form of dynamic evaluation, so input outside the grammar fails closed.
func Evaluate(expr string) (float64, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, fmt.Errorf("%w: empty expression", ErrBadExpression)
	}
	p := &parser{toks: toks}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if !p.eof() {
		return 0, fmt.Errorf("%w: unexpected %q", ErrBadExpression, p.peek().text)
	}
	return v, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.':
			start := i
			dots := 0
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				if runes[i] == '.' {
					dots++
				}
				i++
			}
			text := string(runes[start:i])
			if dots > 1 {
				return nil, fmt.Errorf("%w: malformed number %q", ErrBadExpression, text)
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed number %q", ErrBadExpression, text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, value: v})
		case strings.ContainsRune("+-*/%", r):
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		default:
			return nil, fmt.Errorf("%w: illegal character %q", ErrBadExpression, string(r))
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) acceptOp(ops string) (string, bool) {
	if p.eof() {
		return "", false
	}
	t := p.peek()
	if t.kind == tokOp && strings.Contains(ops, t.text) {
		p.next()
		return t.text, true
	}
	return "", false
}

// expr = term { ("+" | "-") term }
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.acceptOp("+-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

// term = unary { ("*" | "/" | "%") unary }
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.acceptOp("*/%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrBadExpression)
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, fmt.Errorf("%w: modulo by zero", ErrBadExpression)
			}
			left = math.Mod(left, right)
		}
	}
}

// unary = [ "+" | "-" ] factor
func (p *parser) parseUnary() (float64, error) {
	if op, ok := p.acceptOp("+-"); ok {
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parseFactor()
}

// factor = number | "(" expr ")"
func (p *parser) parseFactor() (float64, error) {
	if p.eof() {
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrBadExpression)
	}
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.value, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.eof() || p.peek().kind != tokRParen {
			return 0, fmt.Errorf("%w: missing closing parenthesis", ErrBadExpression)
		}
		p.next()
		return v, nil
	default:
		return 0, fmt.Errorf("%w: unexpected %q", ErrBadExpression, t.text)
	}
}
