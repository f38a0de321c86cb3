package hir

// cleanupPhis fills in every φ's argument list from its predecessors' final exit locals, then
// removes and redirects the redundant ones, per spec.md §4.3's φ cleanup pass. Runs once after the
// whole CFG has been walked, since a φ's argument is only known once every predecessor's exit
// locals have been computed — including predecessors reached via a back edge, visited after the φ's
// own block in the BFS walk.
func (p *Program) cleanupPhis() {
	for _, bh := range p.Blocks {
		if len(bh.Phis) == 0 {
			continue
		}
		preds := bh.Block.Preds
		for _, phi := range bh.Phis {
			for k, pred := range preds {
				phi.PhiArgs[k] = p.Blocks[pred.Id].ExitLocals[phi.PhiIndex]
			}
		}
	}
	for _, bh := range p.Blocks {
		if len(bh.Phis) == 0 {
			continue
		}
		kept := bh.Phis[:0]
		for _, phi := range bh.Phis {
			if rep, redundant := redundantPhi(bh, phi); redundant {
				p.HirMap[phi.Id] = p.HirMap[rep]
				removeInstr(bh, phi)
				continue
			}
			kept = append(kept, phi)
		}
		bh.Phis = kept
	}
}

// redundantPhi implements spec.md §4.3's redundancy test and returns the representative argument id
// to redirect to when phi is redundant.
func redundantPhi(bh *BlockHir, phi *Instruction) (rep int, redundant bool) {
	if bh.Block.Loop && len(phi.PhiArgs) >= 2 && phi.PhiArgs[1] == phi.Id {
		return phi.PhiArgs[0], true
	}
	if !bh.Block.Loop {
		first := phi.PhiArgs[0]
		for _, a := range phi.PhiArgs[1:] {
			if a != first {
				return 0, false
			}
		}
		return first, true
	}
	return 0, false
}

// removeInstr deletes in from bh's ordered instruction list.
func removeInstr(bh *BlockHir, in *Instruction) {
	kept := bh.Instrs[:0]
	for _, i := range bh.Instrs {
		if i != in {
			kept = append(kept, i)
		}
	}
	bh.Instrs = kept
}
