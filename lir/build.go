package lir

import (
	"fmt"

	"github.com/dantebarton/CS451/hir"
	"github.com/dantebarton/CS451/regs"
)

// lowered is the cached result of lowering one HIR instruction, stashed on hir.Instruction.Lowered
// (spec.md §4.4's memoization requirement). For void-typed HIR values (Jump, CondJump, Return, a
// void Call, Write) dst is the emitted instruction itself, whose Write is nil.
type lowered struct {
	dst *Instr // Carries Write *regs.Register plus the Instr a later read can reference for copies.
}

// Build lowers hirProg's HIR into LIR, resolves φs into predecessor copies, and renumbers LIR ids
// to multiples of five (spec.md §4.4).
func Build(hirProg *hir.Program) (*Program, error) {
	p := &Program{
		Graph:       hirProg.Graph,
		Hir:         hirProg,
		Blocks:      make([]*BlockLir, len(hirProg.Blocks)),
		Registers:   make(map[int]*regs.Register),
		nextVirtual: regs.FirstVirtual,
	}
	for i, bh := range hirProg.Blocks {
		p.Blocks[i] = &BlockLir{Block: bh.Block}
	}

	for _, bh := range hirProg.Blocks {
		for _, in := range bh.Instrs {
			if _, err := p.lower(in); err != nil {
				return nil, err
			}
		}
	}

	p.resolvePhis()
	p.renumber()
	return p, nil
}

// append adds in to the LIR list of the block owning hi, and stamps in.Block.
func (p *Program) append(hi *hir.Instruction, in *Instr) {
	bh := p.Blocks[hi.Block.Id]
	in.Block = bh.Block
	bh.Instrs = append(bh.Instrs, in)
}

// lower returns the cached lowering of hi's HIR value, computing it on first use. The recursion
// follows operand ids wherever their defining instruction lives — possibly an earlier, dominating
// block — so cross-block SSA references resolve correctly regardless of traversal order.
func (p *Program) lower(hi *hir.Instruction) (*lowered, error) {
	if hi.Lowered != nil {
		return hi.Lowered.(*lowered), nil
	}
	lo, err := p.lowerUncached(hi)
	if err != nil {
		return nil, err
	}
	hi.Lowered = lo
	return lo, nil
}

// lowerValue lowers the HIR value named by id and returns its destination register. id is resolved
// through hirProg.HirMap first, so φ-cleanup redirection is transparent to every caller.
func (p *Program) lowerValue(id int) (*regs.Register, error) {
	hi := p.Hir.HirMap[id]
	lo, err := p.lower(hi)
	if err != nil {
		return nil, err
	}
	return lo.dst.Write, nil
}

func (p *Program) lowerUncached(hi *hir.Instruction) (*lowered, error) {
	switch hi.Kind {
	case hir.KindLoadParam:
		return p.lowerLoadParam(hi)
	case hir.KindIntConst:
		return p.lowerIntConst(hi)
	case hir.KindArithmetic:
		return p.lowerArithmetic(hi)
	case hir.KindJump:
		in := &Instr{Op: OpJump, Mnemonic: "jump", Target: hi.Target}
		p.append(hi, in)
		return &lowered{dst: in}, nil
	case hir.KindCondJump:
		return p.lowerCondJump(hi)
	case hir.KindCall:
		return p.lowerCall(hi)
	case hir.KindReturn:
		return p.lowerReturn(hi)
	case hir.KindPhi:
		dst := p.newVirtual()
		in := &Instr{Op: OpPhi, Mnemonic: "phi", Write: dst}
		in.Block = hi.Block
		return &lowered{dst: in}, nil
	default:
		return nil, fmt.Errorf("lir: unknown hir kind %d", hi.Kind)
	}
}

func (p *Program) lowerIntConst(hi *hir.Instruction) (*lowered, error) {
	dst := p.newVirtual()
	in := &Instr{Op: OpIntConst, Mnemonic: "setn", Write: dst, IntValue: hi.IntValue}
	p.append(hi, in)
	return &lowered{dst: in}, nil
}

func (p *Program) lowerArithmetic(hi *hir.Instruction) (*lowered, error) {
	lhs, err := p.lowerValue(hi.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := p.lowerValue(hi.Rhs)
	if err != nil {
		return nil, err
	}
	dst := p.newVirtual()
	in := &Instr{Op: OpArithmetic, Mnemonic: arithMnemonic(hi.ArithOp), Write: dst, Reads: []*regs.Register{lhs, rhs}, ArithOp: hi.ArithOp}
	p.append(hi, in)
	return &lowered{dst: in}, nil
}

// lowerLoadParam implements spec.md §4.4's LoadParam expansion: a scratch copy of FP, adjusted by
// -(i+3) to skip the saved RA/FP pair and the argument's own pushed position, then a load through
// that address.
func (p *Program) lowerLoadParam(hi *hir.Instruction) (*lowered, error) {
	scratch := p.newVirtual()
	copyIn := &Instr{Op: OpCopy, Mnemonic: "copy", Write: scratch, Reads: []*regs.Register{p.physical(regs.FP)}}
	p.append(hi, copyIn)
	incIn := &Instr{Op: OpInc, Mnemonic: "inc", Write: scratch, Reads: []*regs.Register{scratch}, Offset: -(hi.ParamIndex + 3)}
	p.append(hi, incIn)
	dst := p.newVirtual()
	loadIn := &Instr{Op: OpLoad, Mnemonic: "load", Write: dst, Reads: []*regs.Register{scratch}, Offset: 0}
	p.append(hi, loadIn)
	return &lowered{dst: loadIn}, nil
}

func (p *Program) lowerCondJump(hi *hir.Instruction) (*lowered, error) {
	lhs, err := p.lowerValue(hi.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := p.lowerValue(hi.Rhs)
	if err != nil {
		return nil, err
	}
	in := &Instr{
		Op: OpCondJump, Mnemonic: cmpMnemonic(hi.CmpOp), Reads: []*regs.Register{lhs, rhs},
		CmpOp: hi.CmpOp, Target: hi.Target, FTarget: hi.FTarget,
	}
	p.append(hi, in)
	return &lowered{dst: in}, nil
}

// lowerCall implements spec.md §4.4's three call shapes: the read()/write() IO intrinsics and a
// genuine static call with push/call/reclaim/copy-result plumbing.
func (p *Program) lowerCall(hi *hir.Instruction) (*lowered, error) {
	if hi.IsIO && hi.CallName == "read" {
		dst := p.newVirtual()
		in := &Instr{Op: OpRead, Mnemonic: "read", Write: dst}
		p.append(hi, in)
		return &lowered{dst: in}, nil
	}
	if hi.IsIO && hi.CallName == "write" {
		arg, err := p.lowerValue(hi.CallArgs[0])
		if err != nil {
			return nil, err
		}
		in := &Instr{Op: OpWrite, Mnemonic: "write", Reads: []*regs.Register{arg}}
		p.append(hi, in)
		return &lowered{dst: in}, nil
	}

	sp := p.physical(regs.SP)
	argRegs := make([]*regs.Register, len(hi.CallArgs))
	for k := len(hi.CallArgs) - 1; k >= 0; k-- {
		arg, err := p.lowerValue(hi.CallArgs[k])
		if err != nil {
			return nil, err
		}
		argRegs[k] = arg
		push := &Instr{Op: OpPush, Mnemonic: "push", Reads: []*regs.Register{arg, sp}}
		p.append(hi, push)
	}
	call := &Instr{Op: OpCall, Mnemonic: "call", Reads: argRegs, CallName: hi.CallName, RetType: hi.Type}
	p.append(hi, call)
	reclaim := &Instr{Op: OpInc, Mnemonic: "inc", Write: sp, Reads: []*regs.Register{sp}, Offset: -len(hi.CallArgs)}
	p.append(hi, reclaim)

	if hi.Type == "V" {
		return &lowered{dst: call}, nil
	}
	dst := p.newVirtual()
	copyRV := &Instr{Op: OpCopy, Mnemonic: "copy", Write: dst, Reads: []*regs.Register{p.physical(regs.RV)}}
	p.append(hi, copyRV)
	return &lowered{dst: copyRV}, nil
}

func (p *Program) lowerReturn(hi *hir.Instruction) (*lowered, error) {
	if !hi.HasRetValue {
		in := &Instr{Op: OpReturn, Mnemonic: "return"}
		p.append(hi, in)
		return &lowered{dst: in}, nil
	}
	v, err := p.lowerValue(hi.RetValue)
	if err != nil {
		return nil, err
	}
	rv := p.physical(regs.RV)
	copyIn := &Instr{Op: OpCopy, Mnemonic: "copy", Write: rv, Reads: []*regs.Register{v}}
	p.append(hi, copyIn)
	retIn := &Instr{Op: OpReturn, Mnemonic: "return", Reads: []*regs.Register{rv}}
	p.append(hi, retIn)
	return &lowered{dst: retIn}, nil
}

func arithMnemonic(op hir.ArithOp) string {
	switch op {
	case hir.ArithAdd:
		return "add"
	case hir.ArithSub:
		return "sub"
	case hir.ArithMul:
		return "mul"
	case hir.ArithDiv:
		return "div"
	default:
		return "rem"
	}
}

func cmpMnemonic(op hir.CmpOp) string {
	switch op {
	case hir.CmpEq:
		return "jeq"
	case hir.CmpNe:
		return "jne"
	case hir.CmpLt:
		return "jlt"
	case hir.CmpLe:
		return "jle"
	case hir.CmpGt:
		return "jgt"
	default:
		return "jge"
	}
}
