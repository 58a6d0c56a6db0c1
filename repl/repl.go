/*
File    : go-ifj21/repl/repl.go

Package repl implements the interactive mode of the compiler. The user
enters an IFJ21 program line by line, finishes it with an empty line, and
the generated IFJcode21 is printed immediately. The require preamble is
prepended automatically when missing, so small snippets stay small.
*/
package repl

import (
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/ifjlab/go-ifj21/codegen"
	"github.com/ifjlab/go-ifj21/lexer"
	"github.com/ifjlab/go-ifj21/optimizer"
	"github.com/ifjlab/go-ifj21/parser"
)

var (
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl is one interactive session.
type Repl struct {
	optimize bool
}

// New creates a session; optimize mirrors the compiler's -n flag.
func New(optimize bool) *Repl {
	return &Repl{optimize: optimize}
}

// Run reads programs until EOF or "exit".
func (r *Repl) Run() {
	rl, err := readline.New("ifj21 >>> ")
	if err != nil {
		redColor.Fprintf(os.Stderr, "repl: %v\n", err)
		return
	}
	defer rl.Close()

	greenColor.Println("go-ifj21 interactive mode")
	cyanColor.Println("finish a program with an empty line, exit with \"exit\"")

	var lines []string
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			lines = nil
			continue
		}
		if err == io.EOF {
			return
		}
		if strings.TrimSpace(line) == "exit" {
			return
		}

		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
			rl.SetPrompt("ifj21 ... ")
			continue
		}
		if len(lines) == 0 {
			continue
		}

		r.compile(strings.Join(lines, "\n"))
		lines = nil
		rl.SetPrompt("ifj21 >>> ")
	}
}

// compile runs the whole pipeline over one snippet and prints the result.
func (r *Repl) compile(src string) {
	if !strings.Contains(src, "require") {
		src = "require \"ifj21\"\n" + src
	}

	p := parser.New(lexer.NewString(src))
	program, err := p.Parse()
	if err != nil {
		redColor.Println(err)
		return
	}

	opt := optimizer.New(r.optimize, p.Analyzer().IsBuiltinUsed)
	if err := opt.Run(program); err != nil {
		redColor.Println(err)
		return
	}

	gen := codegen.New(os.Stdout, codegen.Options{
		Usage:       opt.Usage(),
		Optimize:    r.optimize,
		BuiltinUsed: p.Analyzer().IsBuiltinUsed,
	})
	if err := gen.Generate(program); err != nil {
		redColor.Println(err)
		return
	}
	yellowColor.Println("-- ok")
}
