package regalloc

import (
	"github.com/dantebarton/CS451/cerr"
	"github.com/dantebarton/CS451/liveness"
	"github.com/dantebarton/CS451/regs"
)

// numColors is the allocatable color count of spec.md §4.6's MAX_COUNT default (11): physical
// register indices 1..numColors are available to the colorer, reserving R0 as constant zero and the
// FP/RV/RA/SP roles above it.
const numColors = regs.MaxAllocatable - 1

// Allocate runs spec.md §4.6's full pipeline for one method: simplify/spill, color by popping, then
// insert spill code and renumber the final LIR densely.
func Allocate(method string, lp *liveness.Program) error {
	g, err := buildGraph(method, lp)
	if err != nil {
		return err
	}

	order, _, err := simplify(g)
	if err != nil {
		return err
	}

	if err := color(method, lp, g, order); err != nil {
		return err
	}

	insertSpillCode(lp.Lir.Blocks)
	renumberDense(lp.Lir)
	return nil
}

// simplify implements spec.md §4.6 steps 1-3: repeatedly pop lowest-degree (< numColors) nodes onto
// a stack; when none remain, pick a spill candidate (highest cached degree, ties broken by fewest
// use positions) and push it too, flagged for optimistic-spill coloring.
func simplify(g *Graph) (order []int, spillCandidates map[int]bool, err error) {
	active := make(map[int]bool, len(g.Nodes))
	degree := make(map[int]int, len(g.Nodes))
	for id, n := range g.Nodes {
		active[id] = true
		degree[id] = len(n.neighbors)
	}
	spillCandidates = make(map[int]bool)

	remove := func(id int) {
		delete(active, id)
		order = append(order, id)
		for nb := range g.Nodes[id].neighbors {
			if active[nb] {
				degree[nb]--
			}
		}
	}

	for len(active) > 0 {
		removedAny := false
		for _, id := range g.sortedIds() {
			if !active[id] {
				continue
			}
			if degree[id] < numColors {
				remove(id)
				removedAny = true
			}
		}
		if removedAny {
			continue
		}

		var cand int = -1
		for _, id := range g.sortedIds() {
			if !active[id] {
				continue
			}
			if cand == -1 {
				cand = id
				continue
			}
			if spillWeightLess(g, degree, cand, id) {
				cand = id
			}
		}
		if cand == -1 {
			return nil, nil, cerr.New(cerr.AllocationFailure, "", "interference graph did not empty during simplify")
		}
		spillCandidates[cand] = true
		remove(cand)
	}
	return order, spillCandidates, nil
}

// spillWeightLess reports whether candidate id is a better spill choice than the current best, per
// spec.md §4.6: prefer the higher-degree node, breaking ties by the fewer use positions (lower spill
// weight, i.e. cheaper to spill).
func spillWeightLess(g *Graph, degree map[int]int, best, id int) bool {
	if degree[id] != degree[best] {
		return degree[id] > degree[best]
	}
	return len(g.Nodes[id].interval.UsePositions) < len(g.Nodes[best].interval.UsePositions)
}

// color pops the simplify stack (last pushed, first colored) and assigns each node a physical
// register not used by any already-colored neighbour, per spec.md §4.6. A node pushed as a spill
// candidate still gets an optimistic color attempt first; it is only actually spilled if none is
// free, since simplify's degree bound does not guarantee failure for a spill candidate.
func color(method string, lp *liveness.Program, g *Graph, order []int) error {
	colored := make(map[int]int, len(order))
	offset := 0

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		n, ok := lp.Lir.Registers[id]
		if !ok {
			return cerr.New(cerr.AllocationFailure, method, "interference graph references unknown register %d", id)
		}

		used := make(map[int]bool)
		for nbId := range g.Nodes[id].neighbors {
			if c, ok := colored[nbId]; ok {
				used[c] = true
			}
		}

		c := firstFreeColor(used)
		if c == 0 {
			n.Spilled = true
			n.Offset = offset
			offset += 4
			n.Phys = regs.R0
			continue
		}
		colored[id] = c
		n.Phys = c
		n.Spilled = false
	}
	return nil
}

// firstFreeColor returns the smallest color in [1, numColors] not present in used, or 0 if none is
// free.
func firstFreeColor(used map[int]bool) int {
	for c := 1; c <= numColors; c++ {
		if !used[c] {
			return c
		}
	}
	return 0
}
