package cfg

import (
	"sort"

	"github.com/dantebarton/CS451/bytecode"
	"github.com/dantebarton/CS451/cerr"
	"github.com/dantebarton/CS451/util"
)

// Build constructs the control-flow graph for one method's tuple stream (spec.md §4.2): mark
// leaders, split into blocks, link predecessor/successor edges, detect loop headers and prune
// unreachable blocks.
func Build(method string, tuples []bytecode.Tuple) (*Graph, error) {
	if len(tuples) == 0 {
		return nil, cerr.New(cerr.MalformedBytecode, method, "empty tuple stream")
	}
	if err := markLeaders(method, tuples); err != nil {
		return nil, err
	}
	g := split(tuples)
	pcToBlock := make(map[int]*Block, len(g.Blocks))
	for _, b := range g.Blocks {
		pcToBlock[b.PC()] = b
	}
	if err := link(method, g, pcToBlock); err != nil {
		return nil, err
	}
	prependEntry(g)
	detectLoops(g)
	pruneUnreachable(g)
	g.pcIndex = make(map[int]*Block, len(g.Blocks))
	for _, b := range g.Blocks {
		if len(b.Tuples) > 0 {
			g.pcIndex[b.PC()] = b
		}
	}
	return g, nil
}

// prependEntry adds the synthetic, tuple-less B0 block spec.md §4.2 requires: it has no tuples and
// its sole successor is the method's real first block, B1.
func prependEntry(g *Graph) {
	real := g.Blocks
	b0 := &Block{Id: 0, graph: g}
	for _, b := range real {
		b.Id++
	}
	g.Blocks = append([]*Block{b0}, real...)
	if len(real) > 0 {
		addEdge(b0, real[0])
	}
	g.Entry = b0
}

// markLeaders sets Tuple.Leader on the first tuple, on every branch target, and on the tuple
// immediately following a branch or return.
func markLeaders(method string, tuples []bytecode.Tuple) error {
	tuples[0].Leader = true
	pcToIdx := make(map[int]int, len(tuples))
	for i, t := range tuples {
		pcToIdx[t.PC] = i
	}
	for i, t := range tuples {
		if t.Op.IsConditionalBranch() || t.Op == bytecode.Goto {
			idx, ok := pcToIdx[t.Target]
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "branch at pc %d targets pc %d, not an instruction boundary", t.PC, t.Target)
			}
			tuples[idx].Leader = true
		}
		if (t.Op.IsConditionalBranch() || t.Op == bytecode.Goto || t.Op.IsReturn()) && i+1 < len(tuples) {
			tuples[i+1].Leader = true
		}
	}
	return nil
}

// split partitions a leader-marked tuple stream into contiguous blocks.
func split(tuples []bytecode.Tuple) *Graph {
	g := &Graph{}
	var cur *Block
	for _, t := range tuples {
		if t.Leader || cur == nil {
			cur = g.newBlock()
		}
		cur.Tuples = append(cur.Tuples, t)
	}
	return g
}

// link connects each block to its successors based on its final tuple, and builds the reverse
// predecessor edges as a side effect of addEdge.
func link(method string, g *Graph, pcToBlock map[int]*Block) error {
	ordered := make([]*Block, len(g.Blocks))
	copy(ordered, g.Blocks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PC() < ordered[j].PC() })

	for i, b := range ordered {
		last := b.Last()
		switch {
		case last.Op.IsReturn():
			// No successors.
		case last.Op == bytecode.Goto:
			target, ok := pcToBlock[last.Target]
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "goto at pc %d has no target block", last.PC)
			}
			addEdge(b, target)
		case last.Op.IsConditionalBranch():
			target, ok := pcToBlock[last.Target]
			if !ok {
				return cerr.New(cerr.UnreachableTarget, method, "branch at pc %d has no target block", last.PC)
			}
			addEdge(b, target)
			if i+1 < len(ordered) {
				addEdge(b, ordered[i+1])
			}
		default:
			if i+1 < len(ordered) {
				addEdge(b, ordered[i+1])
			}
		}
	}
	return nil
}

// detectLoops runs a DFS from the entry block, classifying an edge to a block still on the active
// path as a back edge and marking its target Loop. Walks with a util.Stack (as pruneUnreachable
// does) rather than native recursion, so deeply nested control flow cannot overflow the Go call
// stack.
func detectLoops(g *Graph) {
	visited := make(map[int]bool, len(g.Blocks))
	active := make(map[int]bool, len(g.Blocks))

	type frame struct {
		b       *Block
		succIdx int
	}
	dfs := func(b *Block) {
		visited[b.Id] = true
		active[b.Id] = true
		stack := &util.Stack[*frame]{}
		stack.Push(&frame{b: b})
		for stack.Size() > 0 {
			top := stack.Peek()
			if top.succIdx >= len(top.b.Succs) {
				stack.Pop()
				active[top.b.Id] = false
				continue
			}
			succ := top.b.Succs[top.succIdx]
			top.succIdx++
			if active[succ.Id] {
				succ.Loop = true
				top.b.Tail = true
				continue
			}
			if visited[succ.Id] {
				continue
			}
			visited[succ.Id] = true
			active[succ.Id] = true
			stack.Push(&frame{b: succ})
		}
	}
	dfs(g.Entry)
}

// pruneUnreachable removes blocks the entry block cannot reach, and renumbers the remaining blocks
// densely from 0.
func pruneUnreachable(g *Graph) {
	reachable := make(map[int]bool, len(g.Blocks))
	stack := &util.Stack[*Block]{}
	stack.Push(g.Entry)
	reachable[g.Entry.Id] = true
	for stack.Size() > 0 {
		b := stack.Pop()
		for _, s := range b.Succs {
			if !reachable[s.Id] {
				reachable[s.Id] = true
				stack.Push(s)
			}
		}
	}

	kept := g.Blocks[:0]
	for _, b := range g.Blocks {
		if reachable[b.Id] {
			kept = append(kept, b)
		} else {
			removeFromPreds(b)
		}
	}
	g.Blocks = kept
	for i, b := range g.Blocks {
		b.Id = i
	}
}

// removeFromPreds strips a pruned block from every surviving successor's predecessor list.
func removeFromPreds(b *Block) {
	for _, s := range b.Succs {
		filtered := s.Preds[:0]
		for _, p := range s.Preds {
			if p != b {
				filtered = append(filtered, p)
			}
		}
		s.Preds = filtered
	}
}
