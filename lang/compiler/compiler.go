package compiler

import (
	"github.com/loxlang/loxvm/lang/machine"
	"github.com/loxlang/loxvm/lang/scanner"
	"github.com/loxlang/loxvm/lang/token"
)

// parser drives the scanner one token of lookahead at a time, compiling
// directly into the active funcCompiler's chunk as each grammar
// production is recognized. There is no separate AST: a parse function
// IS the code generator for the construct it parses.
type parser struct {
	vm      *machine.VM
	scanner scanner.Scanner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    Errors

	fc *funcCompiler
	cc *classCompiler
}

// Compile compiles source into a top-level Function ready to hand to
// machine.VM.Run. On any compile error it returns a nil Function and the
// complete Errors collected across the pass (panic-mode recovery lets
// compilation continue past the first error rather than stopping there).
func Compile(vm *machine.VM, source string) (*machine.Function, Errors) {
	p := &parser{vm: vm}
	p.scanner.Init(source)
	p.fc = newFuncCompiler(vm, nil, funcScript, "")

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}

	fn := p.endCompiler()
	if p.hadError {
		return nil, p.errors
	}
	return fn, nil
}

func (p *parser) endCompiler() *machine.Function {
	p.emitReturn()
	fn := p.fc.function
	p.vm.PopCompilerRoot()
	p.fc = p.fc.enclosing
	return fn
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.Scan()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.scanner.ErrorMessage())
	}
}

func (p *parser) check(k token.Kind) bool {
	return p.current.Kind == k
}

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(k token.Kind, message string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

func (p *parser) errorAtPrevious(message string) {
	p.errorAt(p.previous, message)
}

func (p *parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	var where string
	switch {
	case tok.Kind == token.EOF:
		where = " at end"
	case tok.Kind == token.ILLEGAL:
		// scanner errors carry their own message already; no location
	default:
		where = " at '" + tok.Lexeme + "'"
	}
	p.errors = append(p.errors, &CompileError{Line: tok.Line, Where: where, Message: message})
}

// synchronize discards tokens until it reaches a point likely to be the
// start of a new statement, so one syntax error doesn't cascade into a
// run of spurious follow-on errors.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMICOLON {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
