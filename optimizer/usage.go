/*
File    : go-ifj21/optimizer/usage.go
*/
package optimizer

import "github.com/ifjlab/go-ifj21/ast"

// Register identifies one of the generator's optional global IM variables.
// The optimizer sets a bit for every helper the generated code will touch;
// the generator only emits a DEFVAR for set bits.
type Register int

const (
	RegOp1 Register = iota
	RegOp2
	RegType1
	RegType2
	RegStackResult
	RegString0
	RegString1
	RegLoopIterator
	RegExponent
	RegBase
	RegForIter
	RegForCondition
	RegForStep

	registerCount
)

// Name returns the emitted GF variable name.
func (r Register) Name() string {
	switch r {
	case RegOp1:
		return "op1"
	case RegOp2:
		return "op2"
	case RegType1:
		return "type1"
	case RegType2:
		return "type2"
	case RegStackResult:
		return "stackresult"
	case RegString0:
		return "string0"
	case RegString1:
		return "string1"
	case RegLoopIterator:
		return "loop_iterator"
	case RegExponent:
		return "exponent"
	case RegBase:
		return "base"
	case RegForIter:
		return "for_iter"
	case RegForCondition:
		return "for_condition"
	case RegForStep:
		return "for_step"
	}
	return "?"
}

// Registers lists every optional register in emission order.
func Registers() []Register {
	return []Register{
		RegStackResult, RegOp1, RegOp2, RegType1, RegType2,
		RegString0, RegString1, RegLoopIterator, RegExponent, RegBase,
		RegForIter, RegForCondition, RegForStep,
	}
}

// Usage is the helper-usage map shared by the optimizer and the generator.
// With optimization disabled every bit reads as set.
type Usage struct {
	bits     [registerCount]bool
	optimize bool
}

// Used reports whether the register's DEFVAR is needed.
func (u *Usage) Used(r Register) bool {
	if !u.optimize {
		return true
	}
	return u.bits[r]
}

func (u *Usage) mark(regs ...Register) {
	for _, r := range regs {
		u.bits[r] = true
	}
}

// per-helper usage sets, mirroring what each emitted subroutine touches

func (u *Usage) markNilWrite()      { u.mark(RegOp1, RegType1) }
func (u *Usage) markForConvert()    { u.mark(RegOp1, RegType1) }
func (u *Usage) markZeroStep()      { u.mark(RegOp1, RegType1) }
func (u *Usage) markNilCheck()      { u.mark(RegOp1, RegOp2) }
func (u *Usage) markIntZeroDiv()    { u.mark(RegOp1, RegOp2) }
func (u *Usage) markFloatZeroDiv()  { u.mark(RegOp2) }
func (u *Usage) markConvCheck()     { u.mark(RegOp1, RegOp2, RegType1, RegType2) }
func (u *Usage) markConvToFloat()   { u.mark(RegOp1, RegOp2, RegType1, RegType2) }
func (u *Usage) markConvToInt()     { u.mark(RegOp1, RegOp2, RegType1, RegType2) }
func (u *Usage) markCheckIfInt()    { u.mark(RegOp1, RegOp2, RegType1, RegType2) }
func (u *Usage) markShouldIJump()   { u.mark(RegForCondition, RegForStep, RegForIter) }
func (u *Usage) markEvalCondition() { u.mark(RegType1) }

func (u *Usage) markExponentiation() {
	u.mark(RegExponent, RegBase, RegType1, RegType2, RegStackResult, RegLoopIterator)
	u.markConvCheck()
}

func (u *Usage) markFor() {
	u.markForConvert()
	u.markZeroStep()
	u.markShouldIJump()
	u.mark(RegForCondition, RegForStep, RegForIter)
}

func (u *Usage) markBinop(op ast.BinopType) {
	switch op {
	case ast.BinopAdd, ast.BinopSub, ast.BinopMul,
		ast.BinopLt, ast.BinopGt, ast.BinopLte, ast.BinopGte:
		u.markNilCheck()
		u.markConvCheck()
	case ast.BinopDiv:
		u.markNilCheck()
		u.markConvToFloat()
		u.markFloatZeroDiv()
	case ast.BinopIntDiv:
		u.markNilCheck()
		u.markCheckIfInt()
		u.markIntZeroDiv()
	case ast.BinopMod:
		u.markNilCheck()
		u.markConvToInt()
		u.markIntZeroDiv()
	case ast.BinopPower:
		u.markExponentiation()
	case ast.BinopEq, ast.BinopNe:
		u.markConvCheck()
	case ast.BinopAnd, ast.BinopOr:
		// the short-circuit lowering routes both sides through
		// EVAL_CONDITION and GF@op1
		u.mark(RegOp1)
		u.markEvalCondition()
	case ast.BinopConcat:
		u.mark(RegString1, RegString0)
	}
}

func (u *Usage) markUnop(op ast.UnopType) {
	switch op {
	case ast.UnopLen, ast.UnopNot:
		u.markNilCheck()
	case ast.UnopNeg:
		u.markNilCheck()
		u.markConvCheck()
	}
}
