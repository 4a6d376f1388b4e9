package compiler

import (
	"github.com/loxlang/loxvm/lang/machine"
	"github.com/loxlang/loxvm/lang/token"
)

func (p *parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDecl()
	case p.match(token.FUN):
		p.funDecl()
	case p.match(token.VAR):
		p.varDecl()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

func (p *parser) parseVariable(message string) int {
	p.consume(token.IDENT, message)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.fc.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *parser) defineVariable(global int) {
	if p.fc.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(byte(machine.OpDefineGlobal), byte(global))
}

func (p *parser) varDecl() {
	global := p.parseVariable("Expect variable name.")
	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitByte(byte(machine.OpNil))
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *parser) funDecl() {
	global := p.parseVariable("Expect function name.")
	name := p.previous.Lexeme
	p.markInitialized()
	p.functionBody(funcFunction, name)
	p.defineVariable(global)
}

// functionBody compiles a parameter list and braced body into a fresh
// Function, then emits the OP_CLOSURE instruction (with its trailing
// upvalue descriptor pairs) into the enclosing function's chunk that
// wraps it into a runtime closure.
func (p *parser) functionBody(kind functionKind, name string) {
	child := newFuncCompiler(p.vm, p.fc, kind, name)
	p.fc = child

	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			child.function.Arity++
			if child.function.Arity > maxCallArgs {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	fn := p.endCompiler()

	idx := p.currentChunk().AddConstant(machine.ObjValue(fn))
	if idx >= 256 {
		p.errorAtPrevious("Too many constants in one chunk.")
		return
	}
	p.emitBytes(byte(machine.OpClosure), byte(idx))
	for _, uv := range child.upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(byte(uv.index))
	}
}

func (p *parser) classDecl() {
	p.consume(token.IDENT, "Expect class name.")
	className := p.previous.Lexeme
	nameConstant := p.identifierConstant(className)
	p.declareVariable(className)

	p.emitBytes(byte(machine.OpClass), byte(nameConstant))
	p.defineVariable(nameConstant)

	p.cc = &classCompiler{enclosing: p.cc}

	if p.match(token.LESS) {
		p.consume(token.IDENT, "Expect superclass name.")
		if p.previous.Lexeme == className {
			p.errorAtPrevious("A class can't inherit from itself.")
		}
		variable(p, false)

		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)

		p.namedVariable(className, false)
		p.emitByte(byte(machine.OpInherit))
		p.cc.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LBRACE, "Expect '{' before class body.")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")
	p.emitByte(byte(machine.OpPop))

	if p.cc.hasSuperclass {
		p.endScope()
	}
	p.cc = p.cc.enclosing
}

func (p *parser) method() {
	p.consume(token.IDENT, "Expect method name.")
	name := p.previous.Lexeme
	constant := p.identifierConstant(name)

	kind := funcMethod
	if name == "init" {
		kind = funcInitializer
	}
	p.functionBody(kind, name)
	p.emitBytes(byte(machine.OpMethod), byte(constant))
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitByte(byte(machine.OpPrint))
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitByte(byte(machine.OpPop))
}

func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(byte(machine.OpJumpIfFalse))
	p.emitByte(byte(machine.OpPop))
	p.statement()

	elseJump := p.emitJump(byte(machine.OpJump))
	p.patchJump(thenJump)
	p.emitByte(byte(machine.OpPop))

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(byte(machine.OpJumpIfFalse))
	p.emitByte(byte(machine.OpPop))
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitByte(byte(machine.OpPop))
}

func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case p.match(token.SEMICOLON):
		// no initializer clause
	case p.match(token.VAR):
		p.varDecl()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(byte(machine.OpJumpIfFalse))
		p.emitByte(byte(machine.OpPop))
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(byte(machine.OpJump))
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitByte(byte(machine.OpPop))
		p.consume(token.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitByte(byte(machine.OpPop))
	}
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.fc.kind == funcScript {
		p.errorAtPrevious("Can't return from top-level code.")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	if p.fc.kind == funcInitializer {
		p.errorAtPrevious("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitByte(byte(machine.OpReturn))
}
