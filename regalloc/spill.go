package regalloc

import (
	"github.com/dantebarton/CS451/lir"
	"github.com/dantebarton/CS451/regs"
)

// insertSpillCode implements spec.md §4.6's spill-code insertion: before every read of a spilled
// register, a Copy/Inc/Load sequence through the R11 scratch; after every write of one, a
// Copy/Inc/Store sequence. Each block's original instruction slice is snapshotted first, fixing the
// identity-indexing-while-mutating bug spec.md §9 flags in the source implementation.
func insertSpillCode(blocks []*lir.BlockLir) {
	for _, bl := range blocks {
		snapshot := make([]*lir.Instr, len(bl.Instrs))
		copy(snapshot, bl.Instrs)

		out := make([]*lir.Instr, 0, len(snapshot))
		for _, in := range snapshot {
			for _, r := range in.Reads {
				if r.Spilled {
					out = append(out, loadSequence(r)...)
				}
			}
			out = append(out, in)
			if in.Write != nil && in.Write.Spilled {
				out = append(out, storeSequence(in.Write)...)
			}
		}
		bl.Instrs = out
	}
}

// loadSequence materializes v's spill address into R11 and loads v's value back into its assigned
// physical register.
func loadSequence(v *regs.Register) []*lir.Instr {
	scratch := regs.NewPhysical(regs.R11)
	copyIn := &lir.Instr{Op: lir.OpCopy, Mnemonic: "copy", Write: scratch, Reads: []*regs.Register{regs.NewPhysical(regs.SP)}}
	incIn := &lir.Instr{Op: lir.OpInc, Mnemonic: "inc", Write: scratch, Reads: []*regs.Register{scratch}, Offset: v.Offset}
	loadIn := &lir.Instr{Op: lir.OpLoad, Mnemonic: "load", Write: regs.NewPhysical(v.Phys), Reads: []*regs.Register{scratch}, Offset: 0}
	return []*lir.Instr{copyIn, incIn, loadIn}
}

// storeSequence materializes v's spill address into R11 and stores v's physical register there.
func storeSequence(v *regs.Register) []*lir.Instr {
	scratch := regs.NewPhysical(regs.R11)
	copyIn := &lir.Instr{Op: lir.OpCopy, Mnemonic: "copy", Write: scratch, Reads: []*regs.Register{regs.NewPhysical(regs.SP)}}
	incIn := &lir.Instr{Op: lir.OpInc, Mnemonic: "inc", Write: scratch, Reads: []*regs.Register{scratch}, Offset: v.Offset}
	storeIn := &lir.Instr{Op: lir.OpStore, Mnemonic: "store", Reads: []*regs.Register{regs.NewPhysical(v.Phys), scratch}, Offset: 0}
	return []*lir.Instr{copyIn, incIn, storeIn}
}

// renumberDense reassigns strictly-increasing, gapless LIR ids in block order once spill code has
// been inserted. The multiple-of-five spacing from lir.Build served its purpose as slack for these
// inserts; spec.md §4.6 allows renumbering densely afterward.
func renumberDense(p *lir.Program) {
	id := 0
	for _, bl := range p.Blocks {
		for _, in := range bl.Instrs {
			in.Id = id
			id++
		}
	}
}
