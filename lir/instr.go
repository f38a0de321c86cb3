// Package lir lowers HIR into the low-level IR spec.md §4.4 describes: instructions that name only
// registers (virtual and physical) and explicit loads/stores, numbered on a multiple-of-five
// spacing so the register allocator (package regalloc) has room to insert spill code later. The
// Instr shape follows ir/lir/lir.go's Value interface (an id, a reads/write register set, an
// enclosing block and a mnemonic) generalized from the teacher's alloca-based variants to the
// HIR-driven variant set spec.md §3 requires.
package lir

import (
	"github.com/dantebarton/CS451/cfg"
	"github.com/dantebarton/CS451/hir"
	"github.com/dantebarton/CS451/regs"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Op tags an Instr's variant (spec.md §3). LoadParam is listed for parity with the data model but
// never appears in a built program: spec.md §4.4 always expands a LoadParam HIR value into a
// Copy/Inc/Load triple instead of emitting a LoadParam Instr directly.
type Op int

const (
	OpLoadParam Op = iota
	OpIntConst
	OpArithmetic
	OpCopy
	OpLoad
	OpStore
	OpPush
	OpPop
	OpInc
	OpJump
	OpCondJump
	OpCall
	OpReturn
	OpRead
	OpWrite
	OpPhi
)

// Instr is one LIR instruction (spec.md §3).
type Instr struct {
	Id       int
	Op       Op
	Mnemonic string
	Block    *cfg.Block

	Reads []*regs.Register // Ordered register operands read by this instruction.
	Write *regs.Register   // Register this instruction defines, or nil.

	IntValue int32 // OpIntConst.

	ArithOp hir.ArithOp // OpArithmetic.
	CmpOp   hir.CmpOp   // OpCondJump.

	Offset int // OpLoad/OpStore/OpInc: byte offset or increment amount.

	Target, FTarget int // OpJump: Target. OpCondJump: both. Block ids, resolved to pcs by package target.

	CallName string // OpCall.
	RetType  string // OpCall.
}

// IsTerminator reports whether in ends a block's control flow.
func (in *Instr) IsTerminator() bool {
	switch in.Op {
	case OpJump, OpCondJump, OpReturn:
		return true
	default:
		return false
	}
}

// BlockLir is the LIR carried by one CFG block, parallel to hir.BlockHir the way hir.BlockHir is
// parallel to cfg.Block — the arena-addressing convention of spec.md §9 applied one stage further.
type BlockLir struct {
	Block  *cfg.Block
	Instrs []*Instr
}

// Program is the LIR for one method.
type Program struct {
	Graph     *cfg.Graph
	Hir       *hir.Program
	Blocks    []*BlockLir
	Registers map[int]*regs.Register

	nextVirtual int
	nextId      int
}

func (p *Program) newVirtual() *regs.Register {
	id := p.nextVirtual
	p.nextVirtual++
	r := &regs.Register{Kind: regs.Virtual, Id: id}
	p.Registers[id] = r
	return r
}

func (p *Program) physical(id int) *regs.Register {
	if r, ok := p.Registers[id]; ok {
		return r
	}
	r := regs.NewPhysical(id)
	p.Registers[id] = r
	return r
}
