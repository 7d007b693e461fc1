package predicate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/comalice/hfsm"
)

// ErrInvalidExpression is returned for expressions Expr cannot parse.
var ErrInvalidExpression = errors.New("invalid expression")

type operator int

const (
	opEq operator = iota
	opNe
	opLt
	opLe
	opGt
	opGe
)

var operators = map[string]operator{
	"==": opEq,
	"!=": opNe,
	"<":  opLt,
	"<=": opLe,
	">":  opGt,
	">=": opGe,
}

type operandKind int

const (
	operandNumber operandKind = iota
	operandBool
	operandString
	operandNil
)

// expr is a parsed "key op value" comparison against a blackboard entry.
type expr struct {
	bb   *Blackboard
	key  string
	op   operator
	kind operandKind
	num  float64
	b    bool
	str  string
}

// Expr parses a "key op value" expression such as "health < 30",
// "alerted == true" or "mode != patrol". Operators are ==, !=, <, <=, >, >=;
// ordering operators need a numeric value. A missing key never matches.
func Expr(bb *Blackboard, expression string) (hfsm.Condition, error) {
	parts := strings.Fields(expression)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%q: want \"key op value\": %w", expression, ErrInvalidExpression)
	}
	key, opStr, valStr := parts[0], parts[1], parts[2]

	op, ok := operators[opStr]
	if !ok {
		return nil, fmt.Errorf("%q: unknown operator %q: %w", expression, opStr, ErrInvalidExpression)
	}

	e := expr{bb: bb, key: key, op: op}
	switch valStr {
	case "true", "false":
		e.kind = operandBool
		e.b = valStr == "true"
	case "nil":
		e.kind = operandNil
	default:
		if f, err := strconv.ParseFloat(valStr, 64); err == nil {
			e.kind = operandNumber
			e.num = f
		} else {
			e.kind = operandString
			e.str = valStr
		}
	}
	if e.kind != operandNumber && op != opEq && op != opNe {
		return nil, fmt.Errorf("%q: operator %q needs a number: %w", expression, opStr, ErrInvalidExpression)
	}
	return e, nil
}

// MustExpr is like Expr but panics on a malformed expression.
func MustExpr(bb *Blackboard, expression string) hfsm.Condition {
	c, err := Expr(bb, expression)
	if err != nil {
		panic(err)
	}
	return c
}

func (e expr) Evaluate() bool {
	v, ok := e.bb.Get(e.key)
	if !ok {
		return false
	}
	switch e.kind {
	case operandNumber:
		f, ok := toFloat(v)
		if !ok {
			return false
		}
		return compare(e.op, f, e.num)
	case operandBool:
		bv, ok := v.(bool)
		if !ok {
			return false
		}
		return (bv == e.b) == (e.op == opEq)
	case operandNil:
		return (v == nil) == (e.op == opEq)
	default:
		s, ok := v.(string)
		if !ok {
			return false
		}
		return (s == e.str) == (e.op == opEq)
	}
}

func compare(op operator, a, b float64) bool {
	switch op {
	case opEq:
		return a == b
	case opNe:
		return a != b
	case opLt:
		return a < b
	case opLe:
		return a <= b
	case opGt:
		return a > b
	default:
		return a >= b
	}
}
