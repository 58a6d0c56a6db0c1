/*
File    : go-ifj21/parser/semantics.go
*/
package parser

import (
	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
	"github.com/ifjlab/go-ifj21/symtable"
)

// Analyzer is the semantic analyser. The top-down driver invokes Check after
// every grammar symbol of an expansion, so analysis runs incrementally while
// the AST is still being built: identifiers resolve, scopes open and close,
// types are assigned and the for loop is rewritten, all during the parse.
type Analyzer struct {
	table      *symtable.Table
	currentDef *ast.Node // definition whose body is being parsed
	builtins   map[string]*ast.Node

	// position of the most recently consumed token, for diagnostics
	row    int
	column int
}

// NewAnalyzer creates an analyser with the builtin functions pre-inserted
// into the global frame.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{table: symtable.New(), builtins: builtinFunctions()}
	for name, def := range a.builtins {
		a.table.PutGlobal(name, def)
	}
	return a
}

// Table exposes the symbol table for tests.
func (a *Analyzer) Table() *symtable.Table { return a.table }

// IsBuiltinUsed reports whether a call to the named builtin was seen.
func (a *Analyzer) IsBuiltinUsed(name string) bool {
	def, ok := a.builtins[name]
	return ok && def.Used
}

func (a *Analyzer) errorf(kind errs.Kind, format string, args ...any) error {
	return errs.New(kind, a.row, a.column, format, args...)
}

// Check is the per-symbol semantic hook. node is the AST node the driver is
// currently filling, expected the grammar symbol that was just processed.
func (a *Analyzer) Check(node *ast.Node, expected gramSym) error {
	if node == nil {
		return nil
	}

	// every matched "end" closes a lexical scope
	if !expected.isNTerm && expected.term == lexer.End {
		if err := a.table.PopScope(); err != nil {
			return errs.Internal("%v", err)
		}
	}

	switch node.Kind {
	case ast.KindProgram:
		if !expected.isNTerm && expected.term == lexer.String {
			if node.Require != "ifj21" {
				return a.errorf(errs.KindSemantic, "wrong preamble %q, expected \"ifj21\"", node.Require)
			}
		}

	case ast.KindWhile:
		if !expected.isNTerm && expected.term == lexer.Do {
			a.table.PushScope()
			if _, err := a.checkExpression(node.Condition); err != nil {
				return err
			}
		}

	case ast.KindRepeat:
		if !expected.isNTerm {
			switch expected.term {
			case lexer.Repeat:
				a.table.PushScope()
			case lexer.Until:
				if err := a.table.PopScope(); err != nil {
					return errs.Internal("%v", err)
				}
			}
		} else if expected.nterm == NTExpression {
			if _, err := a.checkExpression(node.Condition); err != nil {
				return err
			}
		}

	case ast.KindFor:
		if !expected.isNTerm && expected.term == lexer.Do {
			if err := a.desugarFor(node); err != nil {
				return err
			}
		}

	case ast.KindIf:
		if !expected.isNTerm {
			switch expected.term {
			case lexer.Elseif:
				if err := a.table.PopScope(); err != nil {
					return errs.Internal("%v", err)
				}
			case lexer.Else:
				if err := a.table.PopScope(); err != nil {
					return errs.Internal("%v", err)
				}
			}
			if expected.term == lexer.Then || expected.term == lexer.Else {
				a.table.PushScope()
			}
			if expected.term == lexer.End {
				for cond := node.Conditions; cond != nil; cond = cond.Next {
					if _, err := a.checkExpression(cond); err != nil {
						return err
					}
				}
			}
		}

	case ast.KindAssignment:
		if expected.isNTerm && expected.nterm == NTExpressionList {
			if err := a.checkAssignment(node); err != nil {
				return err
			}
		}

	case ast.KindDeclaration:
		if expected.isNTerm && expected.nterm == NTDeclaration {
			if err := a.checkDeclaration(node); err != nil {
				return err
			}
		}

	case ast.KindFuncDecl:
		if expected.isNTerm && expected.nterm == NTFuncDecl {
			if err := a.checkFunction(node, node.Name); err != nil {
				return err
			}
		}

	case ast.KindFuncDef:
		if expected.isNTerm && expected.nterm == NTFuncTypeList {
			if err := a.checkFunction(node, node.Name); err != nil {
				return err
			}
			a.currentDef = node
		}

	case ast.KindFuncCall:
		if expected.isNTerm && expected.nterm == NTGlobalStatement {
			if err := a.checkFuncCall(node, true); err != nil {
				return err
			}
		} else if expected.isNTerm && expected.nterm == NTParenExpListOrIDList2 {
			if err := a.checkFuncCall(node, false); err != nil {
				return err
			}
		}

	case ast.KindReturn:
		if expected.isNTerm && expected.nterm == NTRetExpressionList {
			if err := a.checkReturn(node); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkVariable resolves a symbol node against the symbol table, flipping it
// from declaration form to reference form and updating the data-flow flags.
func (a *Analyzer) checkVariable(node *ast.Node, read, write bool) error {
	if node.Kind != ast.KindSymbol {
		return errs.Internal("checkVariable: got %s node", node.Kind)
	}
	if !node.Sym.IsDeclaration() {
		// already resolved
		return nil
	}

	name := node.Sym.Name
	found := a.table.Find(name)
	if found == nil {
		return a.errorf(errs.KindUndef, "undefined variable %q", name)
	}
	if found.Sym == nil {
		return a.errorf(errs.KindUndef, "%q is not a variable", name)
	}
	declaration := found.Sym

	node.Sym = &ast.Symbol{Ref: declaration}

	if read {
		declaration.Used = true
		declaration.ReadCount++
		if declaration.LastAssignment != nil {
			declaration.LastAssignment.CurrentRead++
		}
	}
	if write {
		declaration.Dirty = true
		declaration.LastAssignment = node.Sym
	}
	return nil
}

// checkDeclaredVariable declares a new local: the name must be free in the
// current scope and must not collide with a global function. On success the
// stored name is mangled with the scope level.
func (a *Analyzer) checkDeclaredVariable(name string, node *ast.Node) error {
	if a.table.FindCurrent(name) != nil {
		return a.errorf(errs.KindRedef, "redeclaration of variable %q", name)
	}
	if a.table.FindGlobal(name) != nil {
		return a.errorf(errs.KindRedef, "%q already names a function", name)
	}
	a.table.Put(name, node)
	node.Sym.Name = a.table.Mangle(node.Sym.Name)
	node.Sym.LastAssignment = node.Sym
	return nil
}

// compareTypes verifies two type lists are element-wise equal.
func (a *Analyzer) compareTypes(left, right *ast.Node) error {
	for left != nil && right != nil {
		lt, ok := left.TypeOf()
		if !ok {
			return errs.Internal("compareTypes: untyped node")
		}
		rt, ok := right.TypeOf()
		if !ok {
			return errs.Internal("compareTypes: untyped node")
		}
		if lt != rt {
			return a.errorf(errs.KindSemantic, "function declaration and definition types differ: %s vs %s", lt, rt)
		}
		left, right = left.Next, right.Next
	}
	if left != nil || right != nil {
		return a.errorf(errs.KindSemantic, "function declaration and definition differ in arity")
	}
	return nil
}

// checkArgumentNames opens the function-body scope and declares the
// parameters in it.
func (a *Analyzer) checkArgumentNames(def *ast.Node) error {
	a.table.PushScope()
	for it := def.Arguments; it != nil; it = it.Next {
		if err := a.checkDeclaredVariable(it.Sym.Name, it); err != nil {
			return err
		}
	}
	return nil
}

// checkFunction handles a function declaration or definition: cross-links
// the pair, verifies their signatures agree, rejects duplicates and, for a
// definition, opens the body scope.
func (a *Analyzer) checkFunction(node *ast.Node, name string) error {
	if sym := a.table.FindGlobal(name); sym != nil {
		decl, def := funcDeclOf(sym), funcDefOf(sym)

		if node.Kind == ast.KindFuncDecl {
			if decl != nil {
				return a.errorf(errs.KindRedef, "duplicate declaration of function %q", name)
			}
			if sym.Kind == ast.KindFuncDef {
				sym.Decl = node
			}
			node.Def = def
			decl = node
		} else {
			if def != nil {
				return a.errorf(errs.KindRedef, "duplicate definition of function %q", name)
			}
			if sym.Kind == ast.KindFuncDecl {
				sym.Def = node
			}
			node.Decl = decl
			def = node
		}

		if decl != nil && def != nil {
			if err := a.compareTypes(decl.ArgTypes, def.Arguments); err != nil {
				return err
			}
			if err := a.compareTypes(decl.ReturnTypes, def.ReturnTypes); err != nil {
				return err
			}
		}
	} else {
		a.table.PutGlobal(name, node)
	}

	if node.Kind == ast.KindFuncDef {
		return a.checkArgumentNames(node)
	}
	return nil
}

// funcDeclOf returns the declaration node reachable from a global function
// entry, whichever form the entry has.
func funcDeclOf(node *ast.Node) *ast.Node {
	switch node.Kind {
	case ast.KindFuncDecl:
		return node
	case ast.KindFuncDef:
		return node.Decl
	}
	return nil
}

func funcDefOf(node *ast.Node) *ast.Node {
	switch node.Kind {
	case ast.KindFuncDef:
		return node
	case ast.KindFuncDecl:
		return node.Def
	}
	return nil
}

// checkFuncCall resolves a call against the global frame, marks the target
// used, checks argument arity and types. Calls in the main body must not
// return values. write is variadic and skips the type check entirely.
func (a *Analyzer) checkFuncCall(node *ast.Node, mainBody bool) error {
	name := node.Name

	sym := a.table.FindGlobal(name)
	if sym == nil {
		return a.errorf(errs.KindUndef, "undefined function %q", name)
	}

	def, decl := funcDefOf(sym), funcDeclOf(sym)
	node.Def = def
	node.Decl = decl
	if def != nil {
		def.Used = true
	}
	if decl != nil {
		decl.Used = true
	}

	if mainBody {
		var returns *ast.Node
		if def != nil {
			returns = def.ReturnTypes
		} else if decl != nil {
			returns = decl.ReturnTypes
		}
		if returns != nil {
			return a.errorf(errs.KindCallType, "function called in main body cannot return values")
		}
	}

	for it := node.Arguments; it != nil; it = it.Next {
		if _, err := a.checkExpression(it); err != nil {
			return err
		}
	}

	if name == "write" {
		return nil
	}

	var params *ast.Node
	if def != nil {
		params = def.Arguments
	} else {
		params = decl.ArgTypes
	}
	input := node.Arguments
	for input != nil && params != nil {
		if input.Kind == ast.KindFuncCall && input.Next == nil {
			// a trailing call contributes all of its return values
			input = input.CallReturns()
			continue
		}
		source, ok := input.TypeOf()
		if !ok {
			return errs.Internal("checkFuncCall: untyped argument")
		}
		dest, ok := params.TypeOf()
		if !ok {
			return errs.Internal("checkFuncCall: untyped parameter")
		}
		if !passCompatible(source, dest) {
			return a.errorf(errs.KindCallType,
				"cannot pass %s where %s is expected in call to %q", source, dest, name)
		}
		input, params = input.Next, params.Next
	}
	if input != nil || params != nil {
		return a.errorf(errs.KindCallType, "wrong number of arguments in call to %q", name)
	}
	return nil
}

// checkAssignment type-checks a multi-value assignment after its expression
// list finished parsing.
func (a *Analyzer) checkAssignment(node *ast.Node) error {
	for exp := node.Expressions; exp != nil; exp = exp.Next {
		if _, err := a.checkExpression(exp); err != nil {
			return err
		}
	}
	for ids := node.Identifiers; ids != nil; ids = ids.Next {
		if err := a.checkVariable(ids, false, true); err != nil {
			return err
		}
	}

	ids, exp := node.Identifiers, node.Expressions
	lastIsCall := false
	for ids != nil && exp != nil {
		if exp.Kind == ast.KindFuncCall && exp.Next == nil {
			lastIsCall = true
			exp = exp.CallReturns()
			continue
		}
		source, ok := exp.TypeOf()
		if !ok {
			return errs.Internal("checkAssignment: untyped expression")
		}
		dest := ids.Sym.Declaration().Type
		if !passCompatible(source, dest) {
			return a.errorf(errs.KindAssign, "cannot assign %s to variable of type %s", source, dest)
		}
		exp, ids = exp.Next, ids.Next
	}
	// extra expressions are evaluated and discarded; targets a trailing call
	// leaves unfilled default to nil at runtime, but with no trailing call
	// the left side must not exceed the right
	if ids != nil && !lastIsCall {
		return a.errorf(errs.KindAssign, "not enough values in assignment")
	}
	return nil
}

// checkDeclaration type-checks a local declaration and declares the name.
// The initialiser is checked before the name is visible, so
// "local x : integer = x" refers to an outer x.
func (a *Analyzer) checkDeclaration(node *ast.Node) error {
	if node.Assign != nil {
		source, err := a.checkExpression(node.Assign)
		if err != nil {
			return err
		}
		if !passCompatible(source, node.Sym.Type) {
			return a.errorf(errs.KindAssign,
				"cannot initialise variable of type %s with %s", node.Sym.Type, source)
		}
	}
	return a.checkDeclaredVariable(node.Sym.Name, node)
}

// checkReturn verifies return values against the enclosing definition's
// declared return types.
func (a *Analyzer) checkReturn(node *ast.Node) error {
	if a.currentDef == nil {
		return errs.Internal("return outside of a function definition")
	}
	node.FuncDef = a.currentDef

	for values := node.Values; values != nil; values = values.Next {
		if _, err := a.checkExpression(values); err != nil {
			return err
		}
	}

	values, types := node.Values, a.currentDef.ReturnTypes
	for values != nil && types != nil {
		if values.Kind == ast.KindFuncCall && values.Next == nil {
			if rets := values.CallReturns(); rets != nil {
				values = rets
				continue
			}
		}
		source, ok := values.TypeOf()
		if !ok {
			return errs.Internal("checkReturn: untyped value")
		}
		dest, ok := types.TypeOf()
		if !ok {
			return errs.Internal("checkReturn: untyped return type")
		}
		if !passCompatible(source, dest) {
			return a.errorf(errs.KindCallType, "cannot return %s where %s is declared", source, dest)
		}
		values, types = values.Next, types.Next
	}
	if values != nil {
		return a.errorf(errs.KindCallType, "returning more values than declared")
	}
	// missing values are padded with nil at runtime
	return nil
}

// desugarFor runs at the "do" of a numeric for: it opens the loop scope,
// declares the iterator, checks the three control expressions and rewrites
// the loop head into four synthesised declarations sharing a common type.
func (a *Analyzer) desugarFor(node *ast.Node) error {
	a.table.PushScope()

	iterator := node.Iterator
	if err := a.checkDeclaredVariable(iterator.Sym.Name, iterator); err != nil {
		return err
	}

	setupType, err := a.checkExpression(node.Setup)
	if err != nil {
		return err
	}
	condType, err := a.checkExpression(node.Condition)
	if err != nil {
		return err
	}
	stepType := lexer.TypeInteger
	if node.Step != nil {
		if stepType, err = a.checkExpression(node.Step); err != nil {
			return err
		}
	}

	if !isNumberOrInteger(setupType) {
		return a.errorf(errs.KindExprType, "for loop start must be numeric, got %s", setupType)
	}
	if !isNumberOrInteger(condType) {
		return a.errorf(errs.KindExprType, "for loop stop must be numeric, got %s", condType)
	}
	if !isNumberOrInteger(stepType) {
		return a.errorf(errs.KindExprType, "for loop step must be numeric, got %s", stepType)
	}

	forType := lexer.TypeInteger
	if setupType == lexer.TypeNumber || condType == lexer.TypeNumber || stepType == lexer.TypeNumber {
		forType = lexer.TypeNumber
	}
	iterator.Sym.Type = forType

	synthesise := func(suffix string, assign *ast.Node) *ast.Node {
		sym := *iterator.Sym
		sym.Name = iterator.Sym.Name + suffix
		sym.Type = forType
		return &ast.Node{Kind: ast.KindDeclaration, Sym: &sym, Assign: assign}
	}

	// the in-body copy keeps the iterator's own mangled name
	copySym := *iterator.Sym
	copyDecl := &ast.Node{Kind: ast.KindDeclaration, Sym: &copySym}

	step := node.Step
	if step == nil {
		if forType == lexer.TypeInteger {
			step = &ast.Node{Kind: ast.KindInteger, Int: 1}
		} else {
			step = &ast.Node{Kind: ast.KindNumber, Num: 1.0}
		}
	}

	iteratorDecl := synthesise("&", node.Setup)
	conditionDecl := synthesise("&cond", node.Condition)
	stepDecl := synthesise("&step", step)

	node.Iterator = iteratorDecl
	node.Setup = copyDecl
	node.Condition = conditionDecl
	node.Step = stepDecl
	return nil
}
