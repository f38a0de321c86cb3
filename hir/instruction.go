// Package hir builds the SSA high-level intermediate representation for one method by symbolically
// executing its tuple stream over the CFG package produces (spec.md §4.3): a per-block locals
// vector, φ-insertion at join points, and a φ-cleanup pass once every block's exit state is known.
// Instruction follows ir/lir/lir.go's tagged-variant Value shape, generalized from the teacher's
// alloca/load/store IR (which never needs φ) into true SSA, per the Dual HIR/LIR class note in
// spec.md §9: one instruction type carrying a mnemonic-equivalent Kind tag plus a type tag, not a
// hierarchy of per-variant structs.
package hir

import "github.com/dantebarton/CS451/cfg"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind tags an Instruction's variant (spec.md §3).
type Kind int

const (
	KindLoadParam Kind = iota
	KindIntConst
	KindArithmetic
	KindJump
	KindCondJump
	KindCall
	KindReturn
	KindPhi
)

// ArithOp is one of the five binary arithmetic operators.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithRem
)

func (o ArithOp) String() string {
	switch o {
	case ArithAdd:
		return "+"
	case ArithSub:
		return "-"
	case ArithMul:
		return "*"
	case ArithDiv:
		return "/"
	case ArithRem:
		return "%"
	default:
		return "?"
	}
}

// CmpOp is one of the six signed integer comparisons a CondJump tests.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func (o CmpOp) String() string {
	switch o {
	case CmpEq:
		return "=="
	case CmpNe:
		return "!="
	case CmpLt:
		return "<"
	case CmpLe:
		return "<="
	case CmpGt:
		return ">"
	case CmpGe:
		return ">="
	default:
		return "?"
	}
}

// Instruction is one HIR value (spec.md §3). Every variant shares the same struct; only the fields
// relevant to Kind are populated. Lowered caches this instruction's LIR expansion once package lir
// has computed it (spec.md §4.4's memoization requirement) — typed as interface{} rather than a lir
// package type to avoid an import cycle (lir imports hir, not the reverse).
type Instruction struct {
	Id    int
	Kind  Kind
	Block *cfg.Block
	Type  string // "I", "V", or "" (none: Jump, CondJump).

	ParamIndex int // KindLoadParam.

	IntValue int32 // KindIntConst.

	ArithOp  ArithOp // KindArithmetic.
	Lhs, Rhs int     // KindArithmetic operand ids; KindCondJump operand ids.

	Target, FTarget int // KindJump: Target only. KindCondJump: both.
	CmpOp           CmpOp

	CallName string // KindCall.
	CallArgs []int
	IsIO     bool

	HasRetValue bool // KindReturn.
	RetValue    int

	PhiIndex int   // KindPhi: source-local index this φ merges.
	PhiArgs  []int // KindPhi: one HIR id per predecessor, declaration order.

	Lowered interface{}
}

// IsVoid reports whether this instruction produces no value.
func (in *Instruction) IsVoid() bool {
	return in.Type == "" || in.Type == "V"
}
