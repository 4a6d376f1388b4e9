package compiler

import (
	"strconv"

	"github.com/loxlang/loxvm/lang/machine"
	"github.com/loxlang/loxvm/lang/token"
)

func number(p *parser, canAssign bool) {
	n, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.errorAtPrevious("Invalid number literal.")
		return
	}
	p.emitConstant(machine.NumberValue(n))
}

func stringLiteral(p *parser, canAssign bool) {
	lexeme := p.previous.Lexeme
	chars := lexeme[1 : len(lexeme)-1] // strip the surrounding quotes
	p.emitConstant(machine.ObjValue(p.vm.InternString(chars)))
}

func literal(p *parser, canAssign bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitByte(byte(machine.OpFalse))
	case token.NIL:
		p.emitByte(byte(machine.OpNil))
	case token.TRUE:
		p.emitByte(byte(machine.OpTrue))
	}
}

func grouping(p *parser, canAssign bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(p *parser, canAssign bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		p.emitByte(byte(machine.OpNot))
	case token.MINUS:
		p.emitByte(byte(machine.OpNegate))
	}
}

func binary(p *parser, canAssign bool) {
	opKind := p.previous.Kind
	rule := ruleFor(opKind)
	p.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		p.emitBytes(byte(machine.OpEqual), byte(machine.OpNot))
	case token.EQUAL_EQUAL:
		p.emitByte(byte(machine.OpEqual))
	case token.GREATER:
		p.emitByte(byte(machine.OpGreater))
	case token.GREATER_EQUAL:
		p.emitBytes(byte(machine.OpLess), byte(machine.OpNot))
	case token.LESS:
		p.emitByte(byte(machine.OpLess))
	case token.LESS_EQUAL:
		p.emitBytes(byte(machine.OpGreater), byte(machine.OpNot))
	case token.PLUS:
		p.emitByte(byte(machine.OpAdd))
	case token.MINUS:
		p.emitByte(byte(machine.OpSubtract))
	case token.STAR:
		p.emitByte(byte(machine.OpMultiply))
	case token.SLASH:
		p.emitByte(byte(machine.OpDivide))
	}
}

// and_ and or_ compile short-circuiting logical operators as jumps over
// the right-hand operand rather than as opcodes of their own: "and"/"or"
// short-circuit and evaluate to one of their operands, not to a boolean.
func and_(p *parser, canAssign bool) {
	endJump := p.emitJump(byte(machine.OpJumpIfFalse))
	p.emitByte(byte(machine.OpPop))
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func or_(p *parser, canAssign bool) {
	elseJump := p.emitJump(byte(machine.OpJumpIfFalse))
	endJump := p.emitJump(byte(machine.OpJump))
	p.patchJump(elseJump)
	p.emitByte(byte(machine.OpPop))
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func call(p *parser, canAssign bool) {
	argCount := p.argumentList()
	p.emitBytes(byte(machine.OpCall), byte(argCount))
}

func (p *parser) argumentList() int {
	argCount := 0
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argCount == maxCallArgs {
				p.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return argCount
}

// dot compiles both plain property access/assignment and the fused
// method-call form: `a.b(...)` emits OP_INVOKE directly rather than
// OP_GET_PROPERTY followed by OP_CALL.
func dot(p *parser, canAssign bool) {
	p.consume(token.IDENT, "Expect property name after '.'.")
	name := p.previous.Lexeme

	switch {
	case canAssign && p.match(token.EQUAL):
		p.expression()
		p.emitNamedConstant(byte(machine.OpSetProperty), name)
	case p.match(token.LPAREN):
		argCount := p.argumentList()
		idx := p.identifierConstant(name)
		p.emitBytes(byte(machine.OpInvoke), byte(idx))
		p.emitByte(byte(argCount))
	default:
		p.emitNamedConstant(byte(machine.OpGetProperty), name)
	}
}

func variable(p *parser, canAssign bool) {
	p.namedVariable(p.previous.Lexeme, canAssign)
}

func (p *parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp machine.Opcode
	slot := resolveLocal(p, p.fc, name)
	if slot != -1 {
		getOp, setOp = machine.OpGetLocal, machine.OpSetLocal
	} else if slot = resolveUpvalue(p, p.fc, name); slot != -1 {
		getOp, setOp = machine.OpGetUpvalue, machine.OpSetUpvalue
	} else {
		slot = p.identifierConstant(name)
		getOp, setOp = machine.OpGetGlobal, machine.OpSetGlobal
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitBytes(byte(setOp), byte(slot))
		return
	}
	p.emitBytes(byte(getOp), byte(slot))
}

func this_(p *parser, canAssign bool) {
	if p.cc == nil {
		p.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	variable(p, false)
}

// super_ compiles `super.name` and the fused `super.name(...)` call form,
// threading the enclosing class's synthetic "super" local the same way
// "this" is threaded.
func super_(p *parser, canAssign bool) {
	if p.cc == nil {
		p.errorAtPrevious("Can't use 'super' outside of a class.")
	} else if !p.cc.hasSuperclass {
		p.errorAtPrevious("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENT, "Expect superclass method name.")
	name := p.previous.Lexeme
	idx := p.identifierConstant(name)

	p.namedVariable("this", false)
	if p.match(token.LPAREN) {
		argCount := p.argumentList()
		p.namedVariable("super", false)
		p.emitBytes(byte(machine.OpSuperInvoke), byte(idx))
		p.emitByte(byte(argCount))
	} else {
		p.namedVariable("super", false)
		p.emitBytes(byte(machine.OpGetSuper), byte(idx))
	}
}
