// Package bytecode decodes a method's raw code array (classfile.Method.Code) into the tuple stream
// spec.md §4.1 describes: one Tuple per opcode, each carrying its program counter, its decoded
// operand and (once cfg marks it) whether it is a block leader. The opcode table below follows the
// string-table-plus-classification-predicate style of KTStephano-GVM/vm/bytecode.go's Bytecode enum,
// and the scanning walk in decode.go borrows the cursor vocabulary of frontend/lexer.go's stateFunc
// scanner, adapted from a rune-at-a-time text scan to a fixed-width byte-field scan with no need for
// the teacher's channel-based token emission — decoding a single method's code array never blocks
// on I/O, so it runs synchronously and returns its tuple slice directly.
package bytecode

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Op identifies one opcode recognized by the decoder (spec.md §4.1).
type Op int

const (
	IConst0 Op = iota // Push integer literal 0.
	IConst1           // Push integer literal 1.
	Ldc               // Push the integer literal named by a 2-byte constant pool index.
	LLoad             // Push the local variable named by a 1-byte index.
	LStore            // Pop into the local variable named by a 1-byte index.
	Add
	Sub
	Mul
	Div
	Rem
	Neg // Unary negation.
	Dup
	Pop
	InvokeStatic // Call the static method named by a 2-byte constant pool index.
	IfEq         // Pop; branch to a 2-byte displacement if the popped value equals 0.
	IfNe         // Pop; branch to a 2-byte displacement if the popped value is not 0.
	IfICmpEq     // Pop b, a; branch if a == b.
	IfICmpNe     // Pop b, a; branch if a != b.
	IfICmpLt     // Pop b, a; branch if a < b.
	IfICmpLe     // Pop b, a; branch if a <= b.
	IfICmpGt     // Pop b, a; branch if a > b.
	IfICmpGe     // Pop b, a; branch if a >= b.
	Goto         // Unconditional branch to a 2-byte displacement.
	Return       // Void return.
	IReturn      // Pop and return a value.
)

// OperandKind classifies the operand a Tuple carries, if any.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandInt
	OperandLocal
	OperandBranch
	OperandMethod
)

// opInfo is one opcode's fixed metadata: its byte encoding, mnemonic and operand shape.
type opInfo struct {
	byteVal byte
	name    string
	kind    OperandKind
}

// table is indexed by Op. Byte values are chosen to leave headroom within each instruction family
// for opcodes this spec does not need, matching the teacher's practice of leaving numeric gaps
// between related IR op families in ir/lir/lir.go.
var table = [...]opInfo{
	IConst0:      {0x01, "iconst_0", OperandNone},
	IConst1:      {0x02, "iconst_1", OperandNone},
	Ldc:          {0x03, "ldc", OperandInt},
	LLoad:        {0x04, "lload", OperandLocal},
	LStore:       {0x05, "lstore", OperandLocal},
	Add:          {0x10, "iadd", OperandNone},
	Sub:          {0x11, "isub", OperandNone},
	Mul:          {0x12, "imul", OperandNone},
	Div:          {0x13, "idiv", OperandNone},
	Rem:          {0x14, "irem", OperandNone},
	Neg:          {0x15, "ineg", OperandNone},
	Dup:          {0x20, "dup", OperandNone},
	Pop:          {0x21, "pop", OperandNone},
	InvokeStatic: {0x30, "invokestatic", OperandMethod},
	IfEq:         {0x40, "ifeq", OperandBranch},
	IfNe:         {0x41, "ifne", OperandBranch},
	IfICmpEq:     {0x42, "if_icmpeq", OperandBranch},
	IfICmpNe:     {0x43, "if_icmpne", OperandBranch},
	IfICmpLt:     {0x44, "if_icmplt", OperandBranch},
	IfICmpLe:     {0x45, "if_icmple", OperandBranch},
	IfICmpGt:     {0x46, "if_icmpgt", OperandBranch},
	IfICmpGe:     {0x47, "if_icmpge", OperandBranch},
	Goto:         {0x50, "goto", OperandBranch},
	Return:       {0x60, "return", OperandNone},
	IReturn:      {0x61, "ireturn", OperandNone},
}

// byteToOp maps an encoded opcode byte back to its Op, built once at init from table.
var byteToOp map[byte]Op

func init() {
	byteToOp = make(map[byte]Op, len(table))
	for op, info := range table {
		byteToOp[info.byteVal] = Op(op)
	}
}

// Mnemonic returns an opcode's printable name.
func (o Op) Mnemonic() string {
	return table[o].name
}

// OperandKind returns the operand shape an opcode expects.
func (o Op) OperandKind() OperandKind {
	return table[o].kind
}

// IsConditionalBranch reports whether o is one of the eight conditional-branch opcodes (IfEq, IfNe
// and the six IfICmpxx comparisons) — the family spec.md §4.3 rewrites into HIR CondJump.
func (o Op) IsConditionalBranch() bool {
	switch o {
	case IfEq, IfNe, IfICmpEq, IfICmpNe, IfICmpLt, IfICmpLe, IfICmpGt, IfICmpGe:
		return true
	default:
		return false
	}
}

// IsReturn reports whether o ends a method's control flow by returning.
func (o Op) IsReturn() bool {
	return o == Return || o == IReturn
}

// String implements fmt.Stringer for diagnostics.
func (o Op) String() string {
	if int(o) < 0 || int(o) >= len(table) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return table[o].name
}
