package compiler

import "github.com/loxlang/loxvm/lang/token"

// precedence orders binding power from loosest to tightest, matching the
// expression grammar's operator precedence table.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the Pratt-parser rule table: for every token kind that can
// appear in an expression, the prefix parse function to call when it
// starts an expression, the infix parse function to call when it
// follows one, and the precedence of that infix use.
//
// Populated in init() rather than as a var initializer: a composite
// literal initializer here would create a package-level initialization
// cycle, since some of these parse functions transitively call back
// into parsePrecedence/ruleFor, which read rules.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:        {grouping, call, precCall},
		token.DOT:           {nil, dot, precCall},
		token.MINUS:         {unary, binary, precTerm},
		token.PLUS:          {nil, binary, precTerm},
		token.SLASH:         {nil, binary, precFactor},
		token.STAR:          {nil, binary, precFactor},
		token.BANG:          {unary, nil, precNone},
		token.BANG_EQUAL:    {nil, binary, precEquality},
		token.EQUAL_EQUAL:   {nil, binary, precEquality},
		token.GREATER:       {nil, binary, precComparison},
		token.GREATER_EQUAL: {nil, binary, precComparison},
		token.LESS:          {nil, binary, precComparison},
		token.LESS_EQUAL:    {nil, binary, precComparison},
		token.IDENT:         {variable, nil, precNone},
		token.STRING:        {stringLiteral, nil, precNone},
		token.NUMBER:        {number, nil, precNone},
		token.AND:           {nil, and_, precAnd},
		token.OR:            {nil, or_, precOr},
		token.FALSE:         {literal, nil, precNone},
		token.NIL:           {literal, nil, precNone},
		token.TRUE:          {literal, nil, precNone},
		token.THIS:          {this_, nil, precNone},
		token.SUPER:         {super_, nil, precNone},
	}
}

func ruleFor(k token.Kind) parseRule {
	if r, ok := rules[k]; ok {
		return r
	}
	return parseRule{precedence: precNone}
}

// parsePrecedence parses and compiles a single expression of at least
// minPrec binding power, the core of the Pratt parsing algorithm.
func (p *parser) parsePrecedence(minPrec precedence) {
	p.advance()
	prefix := ruleFor(p.previous.Kind).prefix
	if prefix == nil {
		p.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := minPrec <= precAssignment
	prefix(p, canAssign)

	for minPrec <= ruleFor(p.current.Kind).precedence {
		p.advance()
		infix := ruleFor(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.errorAtPrevious("Invalid assignment target.")
	}
}

func (p *parser) expression() {
	p.parsePrecedence(precAssignment)
}
