package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// EvalExpr evaluates a restricted arithmetic expression and returns an int.
// Only integer literals, the operators + - * / **, unary minus, and
// parentheses are allowed; names and function calls are rejected. This lets
// prompts accept inputs like "2**8" without exposing an environment.
//
// Division is integer division. A negative exponent, an exponentiation that
// overflows int64, or division by zero is an error.
func EvalExpr(expr string) (int, error) {
	p := &exprParser{input: expr}
	val, err := p.parseExpr()
	if err != nil {
		return 0, fmt.Errorf("invalid numeric expression: %w", err)
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("invalid numeric expression: unexpected %q at position %d",
			p.input[p.pos], p.pos)
	}
	return int(val), nil
}

// exprParser is a recursive-descent parser over the expression grammar:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := '-' unary | power
//	power  := atom ('**' unary)?            right-associative
//	atom   := integer | '(' expr ')'
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

// peek returns the next non-space byte without consuming it, or 0 at the end.
func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (int64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (int64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peek() == '*' && !strings.HasPrefix(p.input[p.pos:], "**"):
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.peek() == '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (int64, error) {
	if p.peek() == '-' {
		p.pos++
		val, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -val, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (int64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if !strings.HasPrefix(p.input[p.pos:], "**") {
		return base, nil
	}
	p.pos += 2
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	if exp < 0 {
		return 0, fmt.Errorf("negative exponent %d", exp)
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			return 0, fmt.Errorf("%d**%d overflows", base, exp)
		}
		result = next
	}
	return result, nil
}

func (p *exprParser) parseAtom() (int64, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		val, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return val, nil
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
		val, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("integer %q out of range", p.input[start:p.pos])
		}
		return val, nil
	case c == 0:
		return 0, fmt.Errorf("unexpected end of expression")
	default:
		return 0, fmt.Errorf("unexpected %q at position %d", c, p.pos)
	}
}
