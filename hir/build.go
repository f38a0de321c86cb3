package hir

import (
	"github.com/dantebarton/CS451/bytecode"
	"github.com/dantebarton/CS451/cerr"
	"github.com/dantebarton/CS451/cfg"
	"github.com/dantebarton/CS451/classfile"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// BlockHir is the HIR carried by one CFG block: its ordered instruction list plus the symbolic
// locals state at block entry and exit, the bookkeeping spec.md §3 assigns to the "state vector
// locals[0..numLocals)" and "ordered HIR list" fields of a basic block. Kept as a structure parallel
// to cfg.Block, indexed the same way, rather than a field added to cfg.Block itself — the per-stage
// decorations of a block live beside the CFG skeleton, addressed by block id, per the arena-addressing
// note in spec.md §9.
type BlockHir struct {
	Block *cfg.Block
	Instrs []*Instruction
	Phis   []*Instruction // Subset of Instrs with Kind == KindPhi, kept for the cleanup pass.

	EntryLocals []int
	ExitLocals  []int
}

// Program is the HIR for one method: one BlockHir per cfg.Block, indexed by Block.Id, plus the
// global hirMap and id counter spec.md §3 assigns to the CFG.
type Program struct {
	Graph  *cfg.Graph
	Blocks []*BlockHir
	HirMap map[int]*Instruction

	nextId int
}

// ---------------------
// ----- Functions -----
// ---------------------

// Build runs symbolic stack execution over g to produce one method's HIR (spec.md §4.3). paramTypes
// is the method's argument type letters (from classfile.ArgTypes); numLocals is the method's
// declared max-locals count.
func Build(method string, g *cfg.Graph, numLocals int, paramTypes []byte) (*Program, error) {
	p := &Program{
		Graph:  g,
		Blocks: make([]*BlockHir, len(g.Blocks)),
		HirMap: make(map[int]*Instruction),
	}
	for i, b := range g.Blocks {
		p.Blocks[i] = &BlockHir{Block: b}
	}

	b0 := p.Blocks[g.Entry.Id]
	b0.EntryLocals = make([]int, numLocals)
	for i := range b0.EntryLocals {
		b0.EntryLocals[i] = -1
	}
	for i := range paramTypes {
		in := p.emit(b0, &Instruction{Kind: KindLoadParam, Type: "I", ParamIndex: i})
		b0.EntryLocals[i] = in.Id
	}

	visited := make(map[int]bool, len(g.Blocks))
	queue := []*cfg.Block{g.Entry}
	visited[g.Entry.Id] = true
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		bh := p.Blocks[b.Id]
		if b != g.Entry {
			p.computeEntryLocals(bh, numLocals)
		}
		if err := p.walkBlock(method, bh); err != nil {
			return nil, err
		}
		for _, s := range b.Succs {
			if !visited[s.Id] {
				visited[s.Id] = true
				queue = append(queue, s)
			}
		}
	}

	p.cleanupPhis()
	return p, nil
}

// computeEntryLocals sets bh's EntryLocals per spec.md §4.3's block-entry rule: a shallow copy of
// the sole predecessor's exit locals, or a fresh φ per local at a join point.
func (p *Program) computeEntryLocals(bh *BlockHir, numLocals int) {
	preds := bh.Block.Preds
	switch {
	case len(preds) == 1:
		predHir := p.Blocks[preds[0].Id]
		bh.EntryLocals = append([]int(nil), predHir.ExitLocals...)
	case len(preds) >= 2:
		entry := make([]int, numLocals)
		for i := 0; i < numLocals; i++ {
			phi := p.emit(bh, &Instruction{
				Kind:     KindPhi,
				Type:     "I",
				PhiIndex: i,
				PhiArgs:  make([]int, len(preds)),
			})
			for k := range phi.PhiArgs {
				phi.PhiArgs[k] = -1
			}
			bh.Phis = append(bh.Phis, phi)
			entry[i] = phi.Id
		}
		bh.EntryLocals = entry
	default:
		entry := make([]int, numLocals)
		for i := range entry {
			entry[i] = -1
		}
		bh.EntryLocals = entry
	}
}

// emit allocates the next HIR id, fills it into in, appends it to bh's instruction list and
// registers it in hirMap. A φ is appended to Instrs like any other instruction; the caller also
// records it in bh.Phis.
func (p *Program) emit(bh *BlockHir, in *Instruction) *Instruction {
	in.Id = p.nextId
	p.nextId++
	in.Block = bh.Block
	bh.Instrs = append(bh.Instrs, in)
	p.HirMap[in.Id] = in
	return in
}

// resolve follows hirMap redirection (set by φ cleanup) to the representative instruction for id.
func (p *Program) resolve(id int) *Instruction {
	return p.HirMap[id]
}

// walkBlock symbolically executes bh's tuples against a block-local operand stack, per the
// interpretation table in spec.md §4.3.
func (p *Program) walkBlock(method string, bh *BlockHir) error {
	locals := append([]int(nil), bh.EntryLocals...)
	var stack []int
	push := func(id int) { stack = append(stack, id) }
	pop := func() int {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top
	}

	for _, t := range bh.Block.Tuples {
		switch t.Op {
		case bytecode.IConst0:
			push(p.emit(bh, &Instruction{Kind: KindIntConst, Type: "I", IntValue: 0}).Id)
		case bytecode.IConst1:
			push(p.emit(bh, &Instruction{Kind: KindIntConst, Type: "I", IntValue: 1}).Id)
		case bytecode.Ldc:
			push(p.emit(bh, &Instruction{Kind: KindIntConst, Type: "I", IntValue: t.IntVal}).Id)
		case bytecode.LLoad:
			if t.LocalIdx < 0 || t.LocalIdx >= len(locals) || locals[t.LocalIdx] < 0 {
				return cerr.New(cerr.MalformedBytecode, method, "read of uninitialized local %d at pc %d", t.LocalIdx, t.PC)
			}
			push(locals[t.LocalIdx])
		case bytecode.LStore:
			id := pop()
			locals[t.LocalIdx] = p.resolve(id).Id
		case bytecode.Dup:
			top := stack[len(stack)-1]
			push(top)
		case bytecode.Pop:
			pop()
		case bytecode.Neg:
			v := pop()
			m1 := p.emit(bh, &Instruction{Kind: KindIntConst, Type: "I", IntValue: -1}).Id
			push(p.emit(bh, &Instruction{Kind: KindArithmetic, Type: "I", ArithOp: ArithMul, Lhs: m1, Rhs: v}).Id)
		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Rem:
			rhs := pop()
			lhs := pop()
			push(p.emit(bh, &Instruction{Kind: KindArithmetic, Type: "I", ArithOp: arithOpOf(t.Op), Lhs: lhs, Rhs: rhs}).Id)
		case bytecode.Goto:
			target, ok := p.Graph.BlockAtPC(t.Target)
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "goto at pc %d has no target block", t.PC)
			}
			p.emit(bh, &Instruction{Kind: KindJump, Target: target.Id})
		case bytecode.IfEq, bytecode.IfNe:
			zero := p.emit(bh, &Instruction{Kind: KindIntConst, Type: "I", IntValue: 0}).Id
			v := pop()
			target, ok := p.Graph.BlockAtPC(t.Target)
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "branch at pc %d has no target block", t.PC)
			}
			fall, ok := p.Graph.BlockAtPC(t.PC + 3)
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "branch at pc %d has no fall-through block", t.PC)
			}
			cmp := CmpEq
			if t.Op == bytecode.IfNe {
				cmp = CmpNe
			}
			p.emit(bh, &Instruction{Kind: KindCondJump, CmpOp: cmp, Lhs: v, Rhs: zero, Target: target.Id, FTarget: fall.Id})
		case bytecode.IfICmpEq, bytecode.IfICmpNe, bytecode.IfICmpLt, bytecode.IfICmpLe, bytecode.IfICmpGt, bytecode.IfICmpGe:
			rhs := pop()
			lhs := pop()
			target, ok := p.Graph.BlockAtPC(t.Target)
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "branch at pc %d has no target block", t.PC)
			}
			fall, ok := p.Graph.BlockAtPC(t.PC + 3)
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "branch at pc %d has no fall-through block", t.PC)
			}
			p.emit(bh, &Instruction{Kind: KindCondJump, CmpOp: cmpOpOf(t.Op), Lhs: lhs, Rhs: rhs, Target: target.Id, FTarget: fall.Id})
		case bytecode.InvokeStatic:
			args, ret, err := classfile.ArgTypes(t.Method.Descriptor)
			if err != nil {
				return cerr.New(cerr.MalformedBytecode, method, "%s", err)
			}
			argIds := make([]int, len(args))
			for k := len(args) - 1; k >= 0; k-- {
				argIds[k] = pop()
			}
			isIO := isIOCall(t.Method.Name, t.Method.Descriptor)
			call := p.emit(bh, &Instruction{Kind: KindCall, Type: retTypeTag(ret), CallName: t.Method.Name, CallArgs: argIds, IsIO: isIO})
			if ret != 'V' {
				push(call.Id)
			}
		case bytecode.Return:
			p.emit(bh, &Instruction{Kind: KindReturn, Type: "V"})
		case bytecode.IReturn:
			v := pop()
			p.emit(bh, &Instruction{Kind: KindReturn, Type: "I", HasRetValue: true, RetValue: v})
		}
	}
	bh.ExitLocals = locals
	return nil
}

func arithOpOf(op bytecode.Op) ArithOp {
	switch op {
	case bytecode.Add:
		return ArithAdd
	case bytecode.Sub:
		return ArithSub
	case bytecode.Mul:
		return ArithMul
	case bytecode.Div:
		return ArithDiv
	default:
		return ArithRem
	}
}

func cmpOpOf(op bytecode.Op) CmpOp {
	switch op {
	case bytecode.IfICmpEq:
		return CmpEq
	case bytecode.IfICmpNe:
		return CmpNe
	case bytecode.IfICmpLt:
		return CmpLt
	case bytecode.IfICmpLe:
		return CmpLe
	case bytecode.IfICmpGt:
		return CmpGt
	default:
		return CmpGe
	}
}

func retTypeTag(ret byte) string {
	if ret == 'V' {
		return "V"
	}
	return "I"
}

// isIOCall reports whether name/descriptor name one of the three library I/O methods that lower to
// Read/Write LIR rather than a real call (spec.md §6).
func isIOCall(name, descriptor string) bool {
	switch {
	case name == "read" && descriptor == "()I":
		return true
	case name == "write" && (descriptor == "(I)V" || descriptor == "(Z)V"):
		return true
	default:
		return false
	}
}
