package lir

import "github.com/dantebarton/CS451/regs"

// resolvePhis implements spec.md §4.4's φ resolution: for every surviving φ, insert a copy of each
// predecessor's argument value into that predecessor's own LIR list, immediately before its
// terminating jump if it has one, otherwise at the end.
func (p *Program) resolvePhis() {
	for _, bh := range p.Hir.Blocks {
		for _, phi := range bh.Phis {
			phiLo := phi.Lowered.(*lowered)
			for k, pred := range bh.Block.Preds {
				argReg, err := p.lowerValue(phi.PhiArgs[k])
				if err != nil {
					// Every argument was already lowered during the main forward pass, since it
					// names a value defined in a block visited before φ resolution runs.
					continue
				}
				copyIn := &Instr{Op: OpCopy, Mnemonic: "copy", Write: phiLo.dst.Write, Reads: []*regs.Register{argReg}}
				insertBeforeTerminator(p.Blocks[pred.Id], copyIn)
			}
		}
	}
}

// insertBeforeTerminator appends in to bl's instruction list, placing it immediately before a
// trailing Jump/CondJump/Return if bl ends with one.
func insertBeforeTerminator(bl *BlockLir, in *Instr) {
	in.Block = bl.Block
	n := len(bl.Instrs)
	if n > 0 && bl.Instrs[n-1].IsTerminator() {
		bl.Instrs = append(bl.Instrs, nil)
		copy(bl.Instrs[n:], bl.Instrs[n-1:n])
		bl.Instrs[n-1] = in
		return
	}
	bl.Instrs = append(bl.Instrs, in)
}

// renumber assigns LIR ids 0, 5, 10, ... across every block in CFG order, leaving gaps of four for
// spill-code insertion (spec.md §4.4).
func (p *Program) renumber() {
	const stride = RenumberGap
	id := 0
	for _, bl := range p.Blocks {
		for _, in := range bl.Instrs {
			in.Id = id
			id += stride
		}
	}
}

// RenumberGap is the fixed spacing between consecutive LIR ids after renumbering: the named
// constant spec.md §9 calls for in place of the source's unparameterized "+5" heuristic in
// addRange. Package liveness reuses it as the slack addRange tolerates when merging ranges.
const RenumberGap = 5
