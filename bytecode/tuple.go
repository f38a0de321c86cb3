package bytecode

import "github.com/dantebarton/CS451/classfile"

// Tuple is one decoded instruction in a method's code array (spec.md §3). Leader is left false by
// Decode and set later by package cfg once block boundaries are known; every other field is fixed
// at decode time.
type Tuple struct {
	PC     int // Byte offset of this instruction's opcode in the method's code array.
	Op     Op
	Leader bool

	IntVal   int32             // Valid if Op.OperandKind() == OperandInt.
	LocalIdx int               // Valid if Op.OperandKind() == OperandLocal.
	Target   int               // Valid if Op.OperandKind() == OperandBranch: absolute target pc.
	Method   classfile.MethodRef // Valid if Op.OperandKind() == OperandMethod.
}

// Kind is a convenience accessor mirroring Op.OperandKind().
func (t Tuple) Kind() OperandKind {
	return t.Op.OperandKind()
}
