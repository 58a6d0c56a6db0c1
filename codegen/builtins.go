/*
File    : go-ifj21/codegen/builtins.go
*/
package codegen

// The fixed library of IM subroutines embedded at the start of every emitted
// program: the IFJ21 builtin functions (elided when unused) and the
// generator's own runtime helpers for type coercion, nil and zero-division
// checking, exponentiation, condition evaluation and numeric-for control.

func (g *Generator) emitReads() {
	g.line("LABEL $reads")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("READ LF@retval0 string")
	g.line("POPFRAME")
	g.line("RETURN")
}

func (g *Generator) emitReadi() {
	g.line("LABEL $readi")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("READ LF@retval0 int")
	g.line("POPFRAME")
	g.line("RETURN")
}

func (g *Generator) emitReadn() {
	g.line("LABEL $readn")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("READ LF@retval0 float")
	g.line("POPFRAME")
	g.line("RETURN")
}

func (g *Generator) emitTointeger() {
	g.line("LABEL $tointeger")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("DEFVAR LF@param0")
	g.line("MOVE LF@param0 LF@%0")
	g.line("JUMPIFNEQ TOINT_GOOD LF@param0 nil@nil")
	g.line("MOVE LF@retval0 nil@nil")
	g.line("POPFRAME")
	g.line("RETURN")
	g.line("LABEL TOINT_GOOD")
	g.line("FLOAT2INT LF@retval0 LF@param0")
	g.line("POPFRAME")
	g.line("RETURN")
}

func (g *Generator) emitChr() {
	g.line("LABEL $chr")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("DEFVAR LF@%param0")
	g.line("MOVE LF@%param0 LF@%0")
	g.line("JUMPIFEQ CHR_NIL LF@%param0 nil@nil")
	g.line("GT GF@result LF@%param0 int@255")
	g.line("JUMPIFEQ CHR_OUT GF@result bool@true")
	g.line("LT GF@result LF@%param0 int@0")
	g.line("JUMPIFEQ CHR_OUT GF@result bool@true")
	g.line("JUMP CHR_OK")
	g.line("LABEL CHR_OUT")
	g.line("MOVE LF@retval0 nil@nil")
	g.line("JUMP CHR_END")
	g.line("LABEL CHR_OK")
	g.line("INT2CHAR LF@retval0 LF@%param0")
	g.line("LABEL CHR_END")
	g.line("POPFRAME")
	g.line("RETURN")
	g.line("LABEL CHR_NIL")
	g.line("EXIT int@8")
}

func (g *Generator) emitOrd() {
	g.line("LABEL $ord")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("DEFVAR LF@%param0")
	g.line("DEFVAR LF@%param1")
	g.line("MOVE LF@%param0 LF@%0")
	g.line("MOVE LF@%param1 LF@%1")
	g.line("JUMPIFEQ ORD_NIL LF@%param0 nil@nil")
	g.line("JUMPIFEQ ORD_NIL LF@%param1 nil@nil")
	g.line("STRLEN GF@trash LF@%param0")
	g.line("GT GF@result LF@%param1 GF@trash")
	g.line("JUMPIFEQ ORD_OUT GF@result bool@true")
	g.line("LT GF@result LF@%param1 int@1")
	g.line("JUMPIFEQ ORD_OUT GF@result bool@true")
	g.line("SUB LF@%param1 LF@%param1 int@1")
	g.line("STRI2INT LF@retval0 LF@%param0 LF@%param1")
	g.line("JUMP ORD_END")
	g.line("LABEL ORD_OUT")
	g.line("MOVE LF@retval0 nil@nil")
	g.line("LABEL ORD_END")
	g.line("POPFRAME")
	g.line("RETURN")
	g.line("LABEL ORD_NIL")
	g.line("EXIT int@8")
}

func (g *Generator) emitSubstr() {
	g.line("LABEL $substr")
	g.line("PUSHFRAME")
	g.line("DEFVAR LF@retval0")
	g.line("MOVE LF@retval0 string@")
	g.line("DEFVAR LF@%param0")
	g.line("DEFVAR LF@%param1")
	g.line("DEFVAR LF@%param2")
	g.line("DEFVAR LF@iterator")
	g.line("DEFVAR LF@stringend")
	g.line("DEFVAR LF@letter")
	g.line("MOVE LF@%param0 LF@%0")
	g.line("MOVE LF@%param1 LF@%1")
	g.line("MOVE LF@%param2 LF@%2")
	g.line("STRLEN GF@trash LF@%param0")
	g.line("GT GF@result LF@%param1 GF@trash")
	g.line("JUMPIFEQ SUBSTR_OUT GF@result bool@true")
	g.line("LT GF@result LF@%param1 int@1")
	g.line("JUMPIFEQ SUBSTR_OUT GF@result bool@true")
	g.line("GT GF@result LF@%param2 GF@trash")
	g.line("JUMPIFEQ SUBSTR_OUT GF@result bool@true")
	g.line("LT GF@result LF@%param2 int@1")
	g.line("JUMPIFEQ SUBSTR_OUT GF@result bool@true")
	g.line("LT GF@result LF@%param2 LF@%param1")
	g.line("JUMPIFEQ SUBSTR_OUT GF@result bool@true")
	g.line("JUMPIFEQ SUBSTR_NIL LF@%param1 nil@nil")
	g.line("JUMPIFEQ SUBSTR_NIL LF@%param2 nil@nil")
	g.line("MOVE LF@iterator LF@%param1")
	g.line("SUB LF@iterator LF@iterator int@1")
	g.line("MOVE LF@stringend LF@%param2")
	g.line("SUB LF@stringend LF@stringend int@1")
	g.line("LABEL LOOP")
	g.line("GETCHAR LF@letter LF@%param0 LF@iterator")
	g.line("CONCAT LF@retval0 LF@retval0 LF@letter")
	g.line("JUMPIFEQ DONE LF@iterator LF@stringend")
	g.line("ADD LF@iterator LF@iterator int@1")
	g.line("JUMP LOOP")
	g.line("LABEL DONE")
	g.line("POPFRAME")
	g.line("RETURN")
	g.line("LABEL SUBSTR_OUT")
	g.line("MOVE LF@retval0 string@")
	g.line("POPFRAME")
	g.line("RETURN")
	g.line("LABEL SUBSTR_NIL")
	g.line("MOVE LF@retval0 nil@nil")
	g.line("POPFRAME")
	g.line("RETURN")
}

// emitIntZeroDivCheck exits with runtime error 9 when the integer divisor on
// top of the stack is zero.
func (g *Generator) emitIntZeroDivCheck() {
	g.line("LABEL int_zerodivcheck")
	g.line("POPS GF@op2")
	g.line("JUMPIFEQ $zero_division_int GF@op2 int@0")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
	g.line("LABEL $zero_division_int")
	g.line("EXIT int@9")
	g.line("RETURN")
}

func (g *Generator) emitFloatZeroDivCheck() {
	g.line("LABEL float_zerodivcheck")
	g.line("POPS GF@op2")
	g.line("JUMPIFEQ $zero_division_float GF@op2 float@0x0.0p+0")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
	g.line("LABEL $zero_division_float")
	g.line("EXIT int@9")
	g.line("RETURN")
}

// emitNilCheck pops two operands and exits with runtime error 8 when either
// is nil.
func (g *Generator) emitNilCheck() {
	g.line("LABEL NIL_CHECK")
	g.line("POPS GF@op2")
	g.line("POPS GF@op1")
	g.line("JUMPIFEQ NIL_FOUND GF@op1 nil@nil")
	g.line("JUMPIFEQ NIL_FOUND GF@op2 nil@nil")
	g.line("PUSHS GF@op1")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
	g.line("LABEL NIL_FOUND")
	g.line("EXIT int@8")
}

// emitConvCheck promotes the two top operands to a common type when one of
// them is an integer and the other a float.
func (g *Generator) emitConvCheck() {
	g.line("LABEL CONV_CHECK")
	g.line("POPS GF@op2")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("TYPE GF@type2 GF@op2")
	g.line("JUMPIFEQ TYPES_OK GF@type1 GF@type2")
	g.line("JUMPIFEQ TYPES_OK GF@type1 string@nil")
	g.line("JUMPIFEQ TYPES_OK GF@type2 string@nil")
	g.line("JUMPIFEQ FIRST_OP_INT GF@type1 string@int")
	g.line("JUMPIFEQ SEC_OP_INT GF@type2 string@int")
	g.line("LABEL FIRST_OP_INT")
	g.line("INT2FLOAT GF@op1 GF@op1")
	g.line("JUMP TYPES_OK")
	g.line("LABEL SEC_OP_INT")
	g.line("INT2FLOAT GF@op2 GF@op2")
	g.line("JUMP TYPES_OK")
	g.line("LABEL TYPES_OK")
	g.line("PUSHS GF@op1")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
}

// emitNilWrite prints the top of the stack, writing the literal text nil
// for a nil value.
func (g *Generator) emitNilWrite() {
	g.line("LABEL nil_write")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("JUMPIFEQ IS_NIL string@nil GF@type1")
	g.line("WRITE GF@op1")
	g.line("JUMP END_WRITE")
	g.line("LABEL IS_NIL")
	g.line("WRITE string@nil")
	g.line("LABEL END_WRITE")
	g.line("PUSHS GF@op1")
	g.line("RETURN")
}

// emitEvalCondition maps the top of the stack to a boolean: nil and false
// are false, every other value is true.
func (g *Generator) emitEvalCondition() {
	g.line("LABEL EVAL_CONDITION")
	g.line("POPS GF@result")
	g.line("TYPE GF@type1 GF@result")
	g.line("JUMPIFEQ IS_FALSE GF@type1 string@nil")
	g.line("JUMPIFEQ IS_BOOL GF@type1 string@bool")
	g.line("JUMP IS_TRUE")
	g.line("LABEL IS_BOOL")
	g.line("JUMPIFEQ IS_FALSE GF@result bool@false")
	g.line("JUMP IS_TRUE")
	g.line("JUMP END_EVAL_CHECK")
	g.line("LABEL IS_FALSE")
	g.line("MOVE GF@result bool@false")
	g.line("JUMP END_EVAL_CHECK")
	g.line("LABEL IS_TRUE")
	g.line("MOVE GF@result bool@true")
	g.line("JUMP END_EVAL_CHECK")
	g.line("LABEL END_EVAL_CHECK")
	g.line("PUSHS GF@result")
	g.line("RETURN")
}

// emitExponentiation computes base^exponent by looped multiplication: the
// exponent is truncated to an integer, a negative exponent takes the
// reciprocal, and 0^0 exits with runtime error 6.
func (g *Generator) emitExponentiation() {
	g.line("LABEL EXPONENTIATION")
	g.line("POPS GF@exponent")
	g.line("POPS GF@base")
	g.line("TYPE GF@type1 GF@base")
	g.line("TYPE GF@type2 GF@exponent")
	g.line("JUMPIFEQ EXPONENT_INT string@int GF@type2")
	g.line("FLOAT2INT GF@exponent GF@exponent")
	g.line("LABEL EXPONENT_INT")
	g.line("JUMPIFEQ FLOAT_BASE string@float GF@type1")
	g.line("INT2FLOAT GF@base GF@base")
	g.line("LABEL FLOAT_BASE")
	g.line("JUMPIFEQ EXP_ZERO GF@exponent int@0")
	g.line("LT GF@stackresult GF@exponent int@0")
	g.line("JUMPIFEQ POSEXPONENT GF@stackresult bool@false")
	g.line("MUL GF@exponent GF@exponent int@-1")
	g.line("LABEL POSEXPONENT")
	g.line("MOVE GF@result GF@base")
	g.line("SUB GF@exponent GF@exponent int@1")
	g.line("PUSHS GF@result")
	g.line("MOVE GF@loop_iterator int@0")
	g.line("LABEL EXP_LOOP_START")
	g.line("JUMPIFEQ EXP_LOOP_END GF@loop_iterator GF@exponent")
	g.line("PUSHS GF@base")
	g.line("CALL CONV_CHECK")
	g.line("MULS")
	g.line("ADD GF@loop_iterator GF@loop_iterator int@1")
	g.line("JUMP EXP_LOOP_START")
	g.line("LABEL EXP_LOOP_END")
	g.line("JUMPIFEQ EXIT_EXP_LOOP GF@stackresult bool@false")
	g.line("POPS GF@result")
	g.line("PUSHS float@0x1p+0")
	g.line("PUSHS GF@result")
	g.line("DIVS")
	g.line("LABEL EXIT_EXP_LOOP")
	g.line("RETURN")
	g.line("LABEL EXP_ZERO")
	g.line("JUMPIFEQ ZERO_ZERO GF@base float@0x0p+0")
	g.line("MOVE GF@result int@1")
	g.line("PUSHS GF@result")
	g.line("RETURN")
	g.line("LABEL ZERO_ZERO")
	g.line("EXIT int@6")
}

// emitCheckIfInt verifies both operands of // are integers, exiting with
// runtime error 6 otherwise.
func (g *Generator) emitCheckIfInt() {
	g.line("LABEL CHECK_IF_INT")
	g.line("POPS GF@op2")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("TYPE GF@type2 GF@op2")
	g.line("JUMPIFEQ FIRST_OP_INT_OK GF@type1 string@int")
	g.line("JUMP WRONG")
	g.line("LABEL FIRST_OP_INT_OK")
	g.line("JUMPIFEQ SEC_OP_INT_OK GF@type2 string@int")
	g.line("JUMP WRONG")
	g.line("LABEL SEC_OP_INT_OK")
	g.line("PUSHS GF@op1")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
	g.line("LABEL WRONG")
	g.line("EXIT int@6")
}

func (g *Generator) emitConvToFloat() {
	g.line("LABEL CONV_TO_FLOAT")
	g.line("POPS GF@op2")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("TYPE GF@type2 GF@op2")
	g.line("JUMPIFEQ FIRST_OP_INT_conv GF@type1 string@int")
	g.line("JUMPIFEQ SEC_OP_INT_conv GF@type2 string@int")
	g.line("JUMP FLOAT_DONE")
	g.line("LABEL FIRST_OP_INT_conv")
	g.line("INT2FLOAT GF@op1 GF@op1")
	g.line("JUMPIFEQ SEC_OP_INT_conv GF@type2 string@int")
	g.line("JUMP FLOAT_DONE")
	g.line("LABEL SEC_OP_INT_conv")
	g.line("INT2FLOAT GF@op2 GF@op2")
	g.line("JUMP FLOAT_DONE")
	g.line("LABEL FLOAT_DONE")
	g.line("PUSHS GF@op1")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
}

func (g *Generator) emitConvToInt() {
	g.line("LABEL CONV_TO_INT")
	g.line("POPS GF@op2")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("TYPE GF@type2 GF@op2")
	g.line("JUMPIFEQ FIRST_OP_FLOAT_conv GF@type1 string@float")
	g.line("JUMPIFEQ SEC_OP_FLOAT_conv GF@type2 string@float")
	g.line("JUMP INT_DONE")
	g.line("LABEL FIRST_OP_FLOAT_conv")
	g.line("FLOAT2INT GF@op1 GF@op1")
	g.line("JUMPIFEQ SEC_OP_FLOAT_conv GF@type2 string@float")
	g.line("JUMP INT_DONE")
	g.line("LABEL SEC_OP_FLOAT_conv")
	g.line("FLOAT2INT GF@op2 GF@op2")
	g.line("JUMP INT_DONE")
	g.line("LABEL INT_DONE")
	g.line("PUSHS GF@op1")
	g.line("PUSHS GF@op2")
	g.line("RETURN")
}

// emitZeroStep coerces the for step to float and exits with runtime error 6
// when it is zero.
func (g *Generator) emitZeroStep() {
	g.line("LABEL ZERO_STEP")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("JUMPIFEQ stepFIRST_OP_NIL GF@type1 string@nil")
	g.line("JUMPIFEQ stepFIRST_OP_INT_conv GF@type1 string@int")
	g.line("JUMP stepFLOAT_DONE")
	g.line("LABEL stepFIRST_OP_INT_conv")
	g.line("INT2FLOAT GF@op1 GF@op1")
	g.line("LABEL stepFLOAT_DONE")
	g.line("PUSHS GF@op1")
	g.line("JUMPIFEQ step_is_zero GF@op1 float@0x0p+0")
	g.line("RETURN")
	g.line("LABEL step_is_zero")
	g.line("EXIT int@6")
	g.line("LABEL stepFIRST_OP_NIL")
	g.line("EXIT int@7")
}

// emitForConvert coerces a for control value to float, exiting with runtime
// error 8 on nil.
func (g *Generator) emitForConvert() {
	g.line("LABEL FOR_CONVERT")
	g.line("POPS GF@op1")
	g.line("TYPE GF@type1 GF@op1")
	g.line("JUMPIFEQ forFIRST_OP_NIL GF@type1 string@nil")
	g.line("JUMPIFEQ forFIRST_OP_INT_conv GF@type1 string@int")
	g.line("JUMP forFLOAT_DONE")
	g.line("LABEL forFIRST_OP_INT_conv")
	g.line("INT2FLOAT GF@op1 GF@op1")
	g.line("LABEL forFLOAT_DONE")
	g.line("PUSHS GF@op1")
	g.line("RETURN")
	g.line("LABEL forFIRST_OP_NIL")
	g.line("EXIT int@8")
}

// emitShouldIJump pushes true when the for loop is over: a positive step
// overshot the stop value or a negative step undershot it.
func (g *Generator) emitShouldIJump() {
	g.line("LABEL SHOULD_I_JUMP")
	g.line("LT GF@result GF@for_step float@0x0p+0")
	g.line("JUMPIFEQ NEG_STEP GF@result bool@true")
	g.line("JUMP POS_STEP")
	g.line("LABEL NEG_STEP")
	g.line("LT GF@result GF@for_iter GF@for_condition")
	g.line("PUSHS GF@result")
	g.line("JUMP SHOULD_I_JUMP_END")
	g.line("LABEL POS_STEP")
	g.line("GT GF@result GF@for_iter GF@for_condition")
	g.line("PUSHS GF@result")
	g.line("LABEL SHOULD_I_JUMP_END")
	g.line("RETURN")
}

// emitBuiltins writes the builtin IFJ21 functions actually called, then the
// generator's own helpers.
func (g *Generator) emitBuiltins() {
	builtins := []struct {
		name string
		emit func()
	}{
		{"reads", g.emitReads},
		{"readi", g.emitReadi},
		{"readn", g.emitReadn},
		{"tointeger", g.emitTointeger},
		{"chr", g.emitChr},
		{"ord", g.emitOrd},
		{"substr", g.emitSubstr},
	}
	for _, b := range builtins {
		if g.builtinUsed(b.name) || !g.optimize {
			g.comment(b.name + " begin")
			b.emit()
			g.comment(b.name + " end")
			g.blank()
		}
	}

	helpers := []struct {
		name string
		emit func()
	}{
		{"int_zerodivcheck", g.emitIntZeroDivCheck},
		{"float_zerodivcheck", g.emitFloatZeroDivCheck},
		{"nil_check", g.emitNilCheck},
		{"check_for_conversion", g.emitConvCheck},
		{"check_nil_write", g.emitNilWrite},
		{"eval_condition", g.emitEvalCondition},
		{"exponentiation", g.emitExponentiation},
		{"check_if_int", g.emitCheckIfInt},
		{"conv_to_float", g.emitConvToFloat},
		{"zero_step", g.emitZeroStep},
		{"for_convert", g.emitForConvert},
		{"should_i_jump", g.emitShouldIJump},
		{"conv_to_int", g.emitConvToInt},
	}
	for _, h := range helpers {
		g.comment(h.name + " begin")
		h.emit()
		g.comment(h.name + " end")
		g.blank()
	}
}
