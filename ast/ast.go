/*
File    : go-ifj21/ast/ast.go
*/

// Package ast defines the abstract syntax tree the parser builds, the
// semantic analyser annotates, and the optimizer and code generator walk.
//
// A node is a sum over kinds represented as one flat struct: the optimizer
// rewrites nodes in place (a folded binary operator becomes a literal), so a
// single mutable shape is used instead of one type per variant. Sibling
// sequences (statements, arguments, return values, identifier and type lists,
// if conditions/bodies) are singly linked through Next.
package ast

import "github.com/ifjlab/go-ifj21/lexer"

// Kind discriminates node variants.
type Kind int

const (
	KindInvalid Kind = iota

	KindFuncDecl
	KindFuncDef
	KindFuncCall
	KindDeclaration
	KindAssignment

	KindProgram

	KindBody

	KindIf
	KindWhile
	KindFor
	KindRepeat

	KindBreak
	KindReturn

	KindBinop
	KindUnop

	KindType

	KindSymbol
	KindInteger
	KindNumber
	KindBoolean
	KindString
	KindNil
)

func (k Kind) String() string {
	switch k {
	case KindFuncDecl:
		return "func-decl"
	case KindFuncDef:
		return "func-def"
	case KindFuncCall:
		return "func-call"
	case KindDeclaration:
		return "declaration"
	case KindAssignment:
		return "assignment"
	case KindProgram:
		return "program"
	case KindBody:
		return "body"
	case KindIf:
		return "if"
	case KindWhile:
		return "while"
	case KindFor:
		return "for"
	case KindRepeat:
		return "repeat"
	case KindBreak:
		return "break"
	case KindReturn:
		return "return"
	case KindBinop:
		return "binop"
	case KindUnop:
		return "unop"
	case KindType:
		return "type"
	case KindSymbol:
		return "symbol"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindNil:
		return "nil"
	}
	return "invalid"
}

// BinopType tags binary operators.
type BinopType int

const (
	BinopAdd BinopType = iota
	BinopSub
	BinopMul
	BinopDiv
	BinopIntDiv
	BinopMod
	BinopPower

	BinopLt
	BinopGt
	BinopLte
	BinopGte
	BinopEq
	BinopNe

	BinopAnd
	BinopOr
	BinopConcat
)

func (b BinopType) String() string {
	switch b {
	case BinopAdd:
		return "+"
	case BinopSub:
		return "-"
	case BinopMul:
		return "*"
	case BinopDiv:
		return "/"
	case BinopIntDiv:
		return "//"
	case BinopMod:
		return "%"
	case BinopPower:
		return "^"
	case BinopLt:
		return "<"
	case BinopGt:
		return ">"
	case BinopLte:
		return "<="
	case BinopGte:
		return ">="
	case BinopEq:
		return "=="
	case BinopNe:
		return "~="
	case BinopAnd:
		return "and"
	case BinopOr:
		return "or"
	case BinopConcat:
		return ".."
	}
	return "?"
}

// UnopType tags unary operators.
type UnopType int

const (
	UnopNeg UnopType = iota
	UnopLen
	UnopNot
)

func (u UnopType) String() string {
	switch u {
	case UnopNeg:
		return "-"
	case UnopLen:
		return "#"
	case UnopNot:
		return "not"
	}
	return "?"
}

// Symbol is a tagged two-state value: a declaration owning its name, type and
// data-flow flags, or a reference pointing at its declaration. A symbol with
// a nil Ref link is a declaration.
type Symbol struct {
	Name string
	Type lexer.Type
	Ref  *Symbol // nil for declarations

	// declaration-only data-flow bookkeeping
	Used      bool
	Dirty     bool  // written to after declaration
	Constant  bool  // initialised with a constant and never dirtied
	Expr      *Node // the constant initialiser, for copy propagation
	ReadCount int

	// dead-store tracking: the declaration-or-assignment target this name
	// was last written through, and how many reads that write has seen
	LastAssignment *Symbol
	CurrentRead    int
}

// IsDeclaration reports whether the symbol is a declaration.
func (s *Symbol) IsDeclaration() bool { return s.Ref == nil }

// Declaration resolves a reference to its declaration; a declaration resolves
// to itself.
func (s *Symbol) Declaration() *Symbol {
	if s.Ref != nil {
		return s.Ref
	}
	return s
}

// Node is one AST node. Only the field group matching Kind is meaningful.
type Node struct {
	Kind Kind
	Next *Node

	// literals and type nodes
	Int  int64
	Num  float64
	Bool bool
	Str  string
	Type lexer.Type

	// symbol and declaration nodes
	Sym *Symbol

	// binop / unop
	Binop   BinopType
	Unop    UnopType
	Left    *Node
	Right   *Node
	Operand *Node
	Result  lexer.Type // result type, filled by the semantic analyser

	// program
	Require    string
	Statements *Node // also the body statement list

	// functions: declaration, definition, call
	Name        string
	Arguments   *Node // definition parameters / call argument expressions
	ArgTypes    *Node // declaration argument types
	ReturnTypes *Node
	Body        *Node
	Def         *Node // cross-link to the matching definition node
	Decl        *Node // cross-link to the matching declaration node
	Used        bool

	// if
	Conditions *Node
	Bodies     *Node // one longer than Conditions when there is an else

	// while / repeat / for
	Condition *Node
	Iterator  *Node
	Setup     *Node
	Step      *Node

	// declaration / assignment
	Assign      *Node // declaration initialiser
	Identifiers *Node
	Expressions *Node

	// return
	Values  *Node
	FuncDef *Node // back-link to the enclosing definition
}

// Append walks the Next chain of *list and attaches node at the end,
// returning the slot it was stored in.
func Append(list **Node, node *Node) **Node {
	for *list != nil {
		list = &(*list).Next
	}
	*list = node
	return list
}

// Tail returns the first empty slot of a sibling list.
func Tail(list **Node) **Node {
	for *list != nil {
		list = &(*list).Next
	}
	return list
}

// Count returns the length of a sibling list.
func Count(list *Node) int {
	n := 0
	for ; list != nil; list = list.Next {
		n++
	}
	return n
}

// NewSymbolNode creates a symbol node in declaration form; the semantic
// analyser later resolves it into a reference.
func NewSymbolNode(name string) *Node {
	return &Node{Kind: KindSymbol, Sym: &Symbol{Name: name}}
}

// NewTypeNode creates a type node.
func NewTypeNode(t lexer.Type) *Node {
	return &Node{Kind: KindType, Type: t}
}

// Invalidate turns a node into an invalid node skipped by the code
// generator, preserving its position in the sibling list.
func (n *Node) Invalidate() {
	next := n.Next
	*n = Node{Kind: KindInvalid, Next: next}
}

// TypeOf computes the already-annotated type of an expression node. It
// returns false for nodes that carry no type.
func (n *Node) TypeOf() (lexer.Type, bool) {
	switch n.Kind {
	case KindType:
		return n.Type, true
	case KindSymbol:
		return n.Sym.Declaration().Type, true
	case KindInteger:
		return lexer.TypeInteger, true
	case KindNumber:
		return lexer.TypeNumber, true
	case KindString:
		return lexer.TypeString, true
	case KindBoolean:
		return lexer.TypeBool, true
	case KindNil:
		return lexer.TypeNil, true
	case KindBinop, KindUnop:
		return n.Result, true
	case KindFuncCall:
		return n.CallType(), true
	}
	return lexer.TypeNil, false
}

// CallType returns the type a call contributes to an expression: the first
// declared return type, or nil when the function returns nothing.
func (n *Node) CallType() lexer.Type {
	var returns *Node
	if n.Def != nil {
		returns = n.Def.ReturnTypes
	} else if n.Decl != nil {
		returns = n.Decl.ReturnTypes
	}
	if returns == nil {
		return lexer.TypeNil
	}
	return returns.Type
}

// CallReturns returns the full declared return type list of a call.
func (n *Node) CallReturns() *Node {
	if n.Def != nil {
		return n.Def.ReturnTypes
	}
	if n.Decl != nil {
		return n.Decl.ReturnTypes
	}
	return nil
}
