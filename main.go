/*
File    : go-ifj21/main.go
*/

// go-ifj21 compiles IFJ21 source read from standard input into IFJcode21
// assembly on standard output. Diagnostics go to standard error and the
// process exit code is the diagnostic's error class.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/codegen"
	"github.com/ifjlab/go-ifj21/errs"
	"github.com/ifjlab/go-ifj21/lexer"
	"github.com/ifjlab/go-ifj21/optimizer"
	"github.com/ifjlab/go-ifj21/parser"
	"github.com/ifjlab/go-ifj21/repl"
)

const tool = "go-ifj21"

var (
	redColor  = color.New(color.FgRed)
	cyanColor = color.New(color.FgCyan)
)

func usage() {
	cyanColor.Fprintln(os.Stderr, "usage: go-ifj21 [flags] < program.ifj > program.ifjcode")
	cyanColor.Fprintln(os.Stderr, "  -n    disable optimizations")
	cyanColor.Fprintln(os.Stderr, "  -c    annotate the output with comments")
	cyanColor.Fprintln(os.Stderr, "  -t    dump tokens to stderr and exit")
	cyanColor.Fprintln(os.Stderr, "  -a    dump the AST to stderr after semantic analysis")
	cyanColor.Fprintln(os.Stderr, "  -r    interactive mode")
}

func main() {
	optimize := true
	comments := false
	dumpTokens := false
	dumpAST := false
	interactive := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-n":
			optimize = false
		case "-c":
			comments = true
		case "-t":
			dumpTokens = true
		case "-a":
			dumpAST = true
		case "-r":
			interactive = true
		case "-h", "--help":
			usage()
			return
		default:
			redColor.Fprintf(os.Stderr, "%s: unknown flag %q\n", tool, arg)
			usage()
			os.Exit(errs.KindInternal.ExitCode())
		}
	}

	if interactive {
		repl.New(optimize).Run()
		return
	}

	os.Exit(compile(optimize, comments, dumpTokens, dumpAST))
}

func fail(err error) int {
	redColor.Fprintf(os.Stderr, "%s: %v\n", tool, err)
	return errs.KindOf(err).ExitCode()
}

func compile(optimize, comments, dumpTokens, dumpAST bool) int {
	lex := lexer.New(os.Stdin)

	if dumpTokens {
		for {
			token, err := lex.Next()
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(os.Stderr, token.Dump())
			if token.Kind == lexer.EOF {
				return 0
			}
		}
	}

	p := parser.New(lex)
	program, err := p.Parse()
	if err != nil {
		return fail(err)
	}

	if dumpAST {
		ast.Fprint(os.Stderr, program)
	}

	opt := optimizer.New(optimize, p.Analyzer().IsBuiltinUsed)
	if err := opt.Run(program); err != nil {
		return fail(err)
	}

	gen := codegen.New(os.Stdout, codegen.Options{
		Usage:       opt.Usage(),
		Optimize:    optimize,
		Comments:    comments,
		BuiltinUsed: p.Analyzer().IsBuiltinUsed,
	})
	if err := gen.Generate(program); err != nil {
		return fail(err)
	}
	return 0
}
