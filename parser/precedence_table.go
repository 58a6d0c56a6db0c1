/*
File    : go-ifj21/parser/precedence_table.go
*/
package parser

import (
	"github.com/ifjlab/go-ifj21/ast"
	"github.com/ifjlab/go-ifj21/lexer"
)

// prec is a precedence relation between the topmost stack terminal and the
// lookahead terminal.
type prec byte

const (
	precNone prec = iota // empty cell: no relation, ill-formed expression
	precLt               // shift with a mark
	precGt               // reduce
	precEq               // shift without a mark (only "(" against ")")
)

// The 27 indexed terminals of the expression sub-grammar, in table order.
// Unary minus shares the index of "not": both sit on the unary precedence
// level.
func termToIndex(k lexer.Kind) int {
	switch k {
	case lexer.Caret:
		return 0
	case lexer.Not, lexer.MinusUnary:
		return 1
	case lexer.Asterisk:
		return 2
	case lexer.Slash:
		return 3
	case lexer.Plus:
		return 4
	case lexer.Minus:
		return 5
	case lexer.DoubleDot:
		return 6
	case lexer.Lt:
		return 7
	case lexer.Lte:
		return 8
	case lexer.Gt:
		return 9
	case lexer.Gte:
		return 10
	case lexer.DoubleEq:
		return 11
	case lexer.TildeEq:
		return 12
	case lexer.And:
		return 13
	case lexer.Or:
		return 14
	case lexer.DoubleSlash:
		return 15
	case lexer.Percent:
		return 16
	case lexer.Hash:
		return 17
	case lexer.LParen:
		return 18
	case lexer.RParen:
		return 19
	case lexer.Identifier:
		return 20
	case lexer.Integer:
		return 21
	case lexer.Number:
		return 22
	case lexer.String:
		return 23
	case lexer.Bool:
		return 24
	case lexer.Nil:
		return 25
	case lexer.EOF:
		return 26
	}
	return -1
}

// isTableTerminal reports whether the token participates in the expression
// grammar; anything else acts as the end-of-expression sentinel.
func isTableTerminal(k lexer.Kind) bool {
	return termToIndex(k) >= 0
}

func isBinaryOp(k lexer.Kind) bool {
	switch k {
	case lexer.Plus, lexer.Minus, lexer.Asterisk, lexer.Slash, lexer.DoubleSlash,
		lexer.Percent, lexer.Caret, lexer.DoubleDot, lexer.And, lexer.Or,
		lexer.Lt, lexer.Lte, lexer.Gt, lexer.Gte, lexer.DoubleEq, lexer.TildeEq:
		return true
	}
	return false
}

func isUnaryOp(k lexer.Kind) bool {
	switch k {
	case lexer.MinusUnary, lexer.Hash, lexer.Not:
		return true
	}
	return false
}

// precedenceRows encodes the 27x27 relation table, one row per stack-top
// terminal, one column per lookahead terminal: '<' shift-with-mark,
// '>' reduce, '=' shift, '.' empty.
//
// Column order: ^ not * / + - .. < <= > >= == ~= and or // % # ( ) id int num
// str bool nil eof.
var precedenceRows = [27]string{
	/* ^   */ "<>>>>>>>>>>>>>>>>><><<<<<<>",
	/* not */ "<>>>>>>>>>>>>>>>>><><<<<<<>",
	/* *   */ "<<>>>>>>>>>>>>>>>><><<<<<<>",
	/* /   */ "<<>>>>>>>>>>>>>>>><><<<<<<>",
	/* +   */ "<<<<>>>>>>>>>>>>>><><<<<<<>",
	/* -   */ "<<<<>>>>>>>>>>>>>><><<<<<<>",
	/* ..  */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* <   */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* <=  */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* >   */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* >=  */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* ==  */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* ~=  */ "<<<<<<<>>>>>>>>>>><><<<<<<>",
	/* and */ "<<<<<<<<<<<<<>>>>><><<<<<<>",
	/* or  */ "<<<<<<<<<<<<<<>>>><><<<<<<>",
	/* //  */ "<<<<<<<<<<<<<<<...<><<<<<<>",
	/* %   */ "<<<<<<<<<<<<<<<...<><<<<<<>",
	/* #   */ "<<<<<<<<<<<<<<<...<><<<<<<>",
	/* (   */ "<<<<<<<<<<<<<<<<<<<=<<<<<<.",
	/* )   */ "><>>>>>>>>>>>>>>>..>......>",
	/* id  */ ">.>>>>>>>>>>>>>>>..>......>",
	/* int */ ">.>>>>>>>>>>>>>>>..>......>",
	/* num */ ">.>>>>>>>>>>>>>>>..>......>",
	/* str */ ">.>>>>>>>>>>>>>>>..>......>",
	/* bool*/ ">.>>>>>>>>>>>>>>>..>......>",
	/* nil */ ">.>>>>>>>>>>>>>>>..>......>",
	/* eof */ "<<<<<<<<<<<<<<<<<<<.<<<<<<.",
}

// precedenceAt looks up the relation between stack-top and lookahead.
func precedenceAt(top, lookahead lexer.Kind) prec {
	row := termToIndex(top)
	col := termToIndex(lookahead)
	if row < 0 || col < 0 {
		return precNone
	}
	switch precedenceRows[row][col] {
	case '<':
		return precLt
	case '>':
		return precGt
	case '=':
		return precEq
	}
	return precNone
}

func termToBinopType(k lexer.Kind) ast.BinopType {
	switch k {
	case lexer.Plus:
		return ast.BinopAdd
	case lexer.Minus:
		return ast.BinopSub
	case lexer.Asterisk:
		return ast.BinopMul
	case lexer.Slash:
		return ast.BinopDiv
	case lexer.DoubleSlash:
		return ast.BinopIntDiv
	case lexer.Percent:
		return ast.BinopMod
	case lexer.Caret:
		return ast.BinopPower
	case lexer.DoubleDot:
		return ast.BinopConcat
	case lexer.And:
		return ast.BinopAnd
	case lexer.Or:
		return ast.BinopOr
	case lexer.Lt:
		return ast.BinopLt
	case lexer.Lte:
		return ast.BinopLte
	case lexer.Gt:
		return ast.BinopGt
	case lexer.Gte:
		return ast.BinopGte
	case lexer.DoubleEq:
		return ast.BinopEq
	}
	return ast.BinopNe
}

func termToUnopType(k lexer.Kind) ast.UnopType {
	switch k {
	case lexer.MinusUnary:
		return ast.UnopNeg
	case lexer.Hash:
		return ast.UnopLen
	}
	return ast.UnopNot
}
