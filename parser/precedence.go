/*
File    : go-ifj21/parser/precedence.go
*/
package parser

import (
	"github.com/gammazero/deque"

	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
)

// The bottom-up operator-precedence sub-parser. It reads tokens until the
// relation table tells it the expression ended, recording every reduction on
// a right-analysis stack that is replayed in reverse to build the AST.
//
// The sub-parser and the top-down driver re-enter each other: an identifier
// followed by "(" rewinds two tokens and hands control back to the driver on
// the function-call non-terminal, splicing the resulting subtree in as a
// ready-made reduction.

type ruleID int

const (
	ruleUnop ruleID = iota
	ruleBinop
	ruleIdent
	ruleLiteral
	ruleParentheses
	ruleFuncCall
)

// stackElement is one entry of the analysis stack: a shifted terminal or a
// reduced expression (non-terminal). The mark remembers where the current
// handle begins.
type stackElement struct {
	token   lexer.Token
	nonterm bool
	mark    bool
}

// reduction is one record of the right analysis.
type reduction struct {
	rule  ruleID
	elems []*stackElement
	call  *ast.Node // spliced subtree for ruleFuncCall
}

type elementCheck func(e *stackElement) bool

func checkNonterm(e *stackElement) bool { return e.nonterm }
func checkBinop(e *stackElement) bool   { return !e.nonterm && isBinaryOp(e.token.Kind) }
func checkUnop(e *stackElement) bool    { return !e.nonterm && isUnaryOp(e.token.Kind) }
func checkIdent(e *stackElement) bool   { return !e.nonterm && e.token.Kind == lexer.Identifier }
func checkLParen(e *stackElement) bool  { return !e.nonterm && e.token.Kind == lexer.LParen }
func checkRParen(e *stackElement) bool  { return !e.nonterm && e.token.Kind == lexer.RParen }

func checkLiteral(e *stackElement) bool {
	if e.nonterm {
		return false
	}
	switch e.token.Kind {
	case lexer.Nil, lexer.String, lexer.Integer, lexer.Number, lexer.Bool:
		return true
	}
	return false
}

// handle describes one reduction rule: the top-of-stack condition that
// selects it and the element sequence it consumes, topmost first.
type handle struct {
	rule      ruleID
	condition elementCheck
	elems     []elementCheck
}

var handles = []handle{
	{ruleUnop, checkUnop, []elementCheck{checkNonterm, checkUnop}},
	{ruleBinop, checkBinop, []elementCheck{checkNonterm, checkBinop, checkNonterm}},
	{ruleIdent, checkIdent, []elementCheck{checkIdent}},
	{ruleParentheses, checkRParen, []elementCheck{checkRParen, checkNonterm, checkLParen}},
	{ruleLiteral, checkLiteral, []elementCheck{checkLiteral}},
}

// precParser holds the state of one expression parse.
type precParser struct {
	p        *Parser
	stack    deque.Deque[*stackElement]
	output   []*reduction
	sentinel *stackElement
}

// parseExpression is the NT_EXPRESSION fallthrough of the top-down driver.
func (p *Parser) parseExpression(root **ast.Node) error {
	pp := &precParser{
		p:        p,
		sentinel: &stackElement{token: lexer.Token{Kind: lexer.EOF}},
	}
	pp.stack.PushFront(pp.sentinel)

	if err := pp.loop(); err != nil {
		return err
	}
	return pp.assemble(root)
}

// top returns the topmost terminal, skipping reduced expressions.
func (pp *precParser) top() *stackElement {
	for i := 0; i < pp.stack.Len(); i++ {
		if e := pp.stack.At(i); !e.nonterm {
			return e
		}
	}
	return nil
}

func (pp *precParser) pushNonterm() {
	pp.stack.PushFront(&stackElement{nonterm: true})
}

// next reads a token and maintains the relative parenthesis nesting level.
func (pp *precParser) next(level *int) (lexer.Token, error) {
	t, err := pp.p.lex.Next()
	if err != nil {
		return t, err
	}
	pp.p.sem.row, pp.p.sem.column = t.Row, t.Column
	if t.Kind == lexer.LParen {
		*level++
	}
	if t.Kind == lexer.RParen {
		*level--
	}
	return t, nil
}

// shift pushes the current terminal and advances.
func (pp *precParser) shift(current *lexer.Token, level *int) error {
	pp.stack.PushFront(&stackElement{token: *current})
	t, err := pp.next(level)
	if err != nil {
		return err
	}
	*current = t
	return nil
}

// reduce finds the handle selected by the top terminal and replays it.
func (pp *precParser) reduce(top *stackElement) error {
	for _, h := range handles {
		if h.condition(top) {
			return pp.execute(h)
		}
	}
	return errs.New(errs.KindSyntax, top.token.Row, top.token.Column, "ill-formed expression")
}

// execute pops the handle's elements off the stack, verifies their shape,
// records the reduction and pushes the resulting expression.
func (pp *precParser) execute(h handle) error {
	red := &reduction{rule: h.rule}
	pp.output = append(pp.output, red)

	for _, check := range h.elems {
		if pp.stack.Len() == 0 {
			return errs.New(errs.KindSyntax, 0, 0, "ill-formed expression")
		}
		e := pp.stack.Front()
		if e.mark || !check(e) {
			return errs.New(errs.KindSyntax, e.token.Row, e.token.Column, "ill-formed expression")
		}
		pp.stack.PopFront()
		red.elems = append(red.elems, e)
	}

	e := pp.stack.Front()
	if !e.mark {
		return errs.New(errs.KindSyntax, e.token.Row, e.token.Column, "ill-formed expression")
	}
	e.mark = false
	pp.pushNonterm()
	return nil
}

// returnControlAt reports whether an identifier in the current stack state
// means the expression is over and the driver should take back control.
func (pp *precParser) returnControlAt() bool {
	front := pp.stack.Front()
	if front == pp.sentinel {
		return false
	}
	if front.nonterm {
		return true
	}
	k := front.token.Kind
	return !(isBinaryOp(k) || isUnaryOp(k) || k == lexer.LParen)
}

// spliceFuncCall rewinds two tokens, re-enters the top-down driver on the
// function-call non-terminal and records the finished subtree as a
// ready-made reduction.
func (pp *precParser) spliceFuncCall(current *lexer.Token, level *int) error {
	if err := pp.p.lex.Unget(); err != nil {
		return err
	}
	if err := pp.p.lex.Unget(); err != nil {
		return err
	}

	var node *ast.Node
	if err := pp.p.parse(NTFuncCall, &node); err != nil {
		return err
	}

	t, err := pp.next(level)
	if err != nil {
		return err
	}
	*current = t

	pp.output = append(pp.output, &reduction{rule: ruleFuncCall, call: node})
	pp.pushNonterm()
	return nil
}

// loop is the shift/reduce machine.
func (pp *precParser) loop() error {
	level := 0
	returnControl := false

	current, err := pp.next(&level)
	if err != nil {
		return err
	}

	for {
		top := pp.top()
		if top == nil {
			return errs.Internal("precedence parser: empty stack")
		}

		if current.Kind == lexer.Identifier && !returnControl {
			returnControl = pp.returnControlAt()
			if !returnControl {
				lookahead, err := pp.p.lex.Next()
				if err != nil {
					return err
				}
				if lookahead.Kind == lexer.LParen {
					if err := pp.spliceFuncCall(&current, &level); err != nil {
						return err
					}
					if current.Kind == lexer.Identifier {
						returnControl = true
					}
					continue
				}
				if err := pp.p.lex.Unget(); err != nil {
					return err
				}
			}
		}

		// a ")" past the expression's own nesting ends a call argument
		if current.Kind == lexer.RParen && level == -1 && top == pp.sentinel {
			if err := pp.p.lex.Unget(); err != nil {
				return err
			}
			break
		}

		// reclassify binary minus in prefix position
		if current.Kind == lexer.Minus {
			front := pp.stack.Front()
			if !front.nonterm &&
				(front == pp.sentinel || isBinaryOp(front.token.Kind) || isUnaryOp(front.token.Kind)) {
				current.Kind = lexer.MinusUnary
			}
		}

		lookahead := current.Kind
		if !isTableTerminal(lookahead) {
			lookahead = lexer.EOF
		}

		if top == pp.sentinel && (lookahead == lexer.EOF || returnControl) {
			if err := pp.p.lex.Unget(); err != nil {
				return err
			}
			break
		}

		relation := precedenceAt(top.token.Kind, lookahead)
		if returnControl {
			relation = precGt
		}

		switch relation {
		case precEq:
			if !returnControl {
				if err := pp.shift(&current, &level); err != nil {
					return err
				}
			}
		case precLt:
			if !returnControl {
				top.mark = true
				if err := pp.shift(&current, &level); err != nil {
					return err
				}
			}
		case precGt:
			if err := pp.reduce(top); err != nil {
				return err
			}
		case precNone:
			if current.Kind != lexer.Identifier {
				return errs.New(errs.KindSemantic, current.Row, current.Column,
					"ill-formed expression near %s", current.Kind)
			}
			// a second identifier in a row ends the expression: reduce
			// what is on the stack and give control back
			if err := pp.reduce(top); err != nil {
				return err
			}
			returnControl = true
		}
	}

	if pp.top() != pp.sentinel {
		return errs.New(errs.KindSemantic, current.Row, current.Column, "ill-formed expression")
	}
	return nil
}

// assemble replays the right analysis in reverse, rebuilding the tree.
func (pp *precParser) assemble(node **ast.Node) error {
	if len(pp.output) == 0 {
		return errs.Internal("precedence parser: empty analysis")
	}
	red := pp.output[len(pp.output)-1]
	pp.output = pp.output[:len(pp.output)-1]

	switch red.rule {
	case ruleUnop:
		n := &ast.Node{Kind: ast.KindUnop, Unop: termToUnopType(red.elems[1].token.Kind)}
		*node = n
		return pp.assemble(&n.Operand)
	case ruleBinop:
		n := &ast.Node{Kind: ast.KindBinop, Binop: termToBinopType(red.elems[1].token.Kind)}
		*node = n
		if err := pp.assemble(&n.Right); err != nil {
			return err
		}
		return pp.assemble(&n.Left)
	case ruleIdent:
		*node = ast.NewSymbolNode(red.elems[0].token.Str)
		return nil
	case ruleParentheses:
		return pp.assemble(node)
	case ruleLiteral:
		t := red.elems[0].token
		switch t.Kind {
		case lexer.Integer:
			*node = &ast.Node{Kind: ast.KindInteger, Int: t.Int}
		case lexer.Number:
			*node = &ast.Node{Kind: ast.KindNumber, Num: t.Num}
		case lexer.String:
			*node = &ast.Node{Kind: ast.KindString, Str: t.Str}
		case lexer.Bool:
			*node = &ast.Node{Kind: ast.KindBoolean, Bool: t.Bool}
		case lexer.Nil:
			*node = &ast.Node{Kind: ast.KindNil}
		default:
			return errs.Internal("precedence parser: bad literal reduction")
		}
		return nil
	case ruleFuncCall:
		*node = red.call
		return nil
	}
	return errs.Internal("precedence parser: unknown reduction %d", red.rule)
}
