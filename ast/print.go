/*
File    : go-ifj21/ast/print.go
*/
package ast

import (
	"fmt"
	"io"
)

const indentSize = 4

type printer struct {
	w      io.Writer
	indent int
}

// Fprint renders the tree in the indented debug format used by the -a mode.
func Fprint(w io.Writer, root *Node) {
	p := &printer{w: w}
	p.node(root)
}

func (p *printer) line(format string, args ...any) {
	for i := 0; i < p.indent; i++ {
		fmt.Fprint(p.w, " ")
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) nested(format string, args ...any) func() {
	p.line(format, args...)
	p.indent += indentSize
	return func() { p.indent -= indentSize }
}

func (p *printer) list(list *Node) {
	for ; list != nil; list = list.Next {
		p.node(list)
	}
}

func (p *printer) node(n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindProgram:
		defer p.nested("program (require %q)", n.Require)()
		p.list(n.Statements)
	case KindBody:
		defer p.nested("body")()
		p.list(n.Statements)
	case KindFuncDecl:
		defer p.nested("func-decl %s", n.Name)()
		closeArgs := p.nested("argument-types")
		p.list(n.ArgTypes)
		closeArgs()
		closeRets := p.nested("return-types")
		p.list(n.ReturnTypes)
		closeRets()
	case KindFuncDef:
		defer p.nested("func-def %s", n.Name)()
		closeArgs := p.nested("parameters")
		p.list(n.Arguments)
		closeArgs()
		closeRets := p.nested("return-types")
		p.list(n.ReturnTypes)
		closeRets()
		p.node(n.Body)
	case KindFuncCall:
		defer p.nested("func-call %s", n.Name)()
		p.list(n.Arguments)
	case KindDeclaration:
		sym := n.Sym.Declaration()
		defer p.nested("decl %s: %s", sym.Name, sym.Type)()
		p.node(n.Assign)
	case KindAssignment:
		defer p.nested("assignment")()
		closeIds := p.nested("identifiers")
		p.list(n.Identifiers)
		closeIds()
		closeExprs := p.nested("expressions")
		p.list(n.Expressions)
		closeExprs()
	case KindIf:
		defer p.nested("if")()
		cond, body := n.Conditions, n.Bodies
		for cond != nil && body != nil {
			closeCond := p.nested("cond")
			p.node(cond)
			closeCond()
			p.node(body)
			cond, body = cond.Next, body.Next
		}
		if body != nil {
			p.node(body)
		}
	case KindWhile:
		defer p.nested("while")()
		closeCond := p.nested("cond")
		p.node(n.Condition)
		closeCond()
		p.node(n.Body)
	case KindRepeat:
		defer p.nested("repeat")()
		p.node(n.Body)
		closeCond := p.nested("until")
		p.node(n.Condition)
		closeCond()
	case KindFor:
		defer p.nested("for")()
		closeIt := p.nested("iterator")
		p.node(n.Iterator)
		closeIt()
		closeSetup := p.nested("setup")
		p.node(n.Setup)
		closeSetup()
		closeCond := p.nested("condition")
		p.node(n.Condition)
		closeCond()
		closeStep := p.nested("step")
		p.node(n.Step)
		closeStep()
		p.node(n.Body)
	case KindBreak:
		p.line("break")
	case KindReturn:
		defer p.nested("return")()
		p.list(n.Values)
	case KindBinop:
		defer p.nested("binop %s", n.Binop)()
		p.node(n.Left)
		p.node(n.Right)
	case KindUnop:
		defer p.nested("unop %s", n.Unop)()
		p.node(n.Operand)
	case KindType:
		p.line("type %s", n.Type)
	case KindSymbol:
		sym := n.Sym.Declaration()
		p.line("sym %s: %s", sym.Name, sym.Type)
	case KindInteger:
		p.line("int %d", n.Int)
	case KindNumber:
		p.line("number %g", n.Num)
	case KindBoolean:
		p.line("bool %t", n.Bool)
	case KindString:
		p.line("str %q", n.Str)
	case KindNil:
		p.line("nil")
	case KindInvalid:
		p.line("invalid")
	}
}
