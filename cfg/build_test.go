package cfg

import (
	"testing"

	"github.com/dantebarton/CS451/bytecode"
	"github.com/dantebarton/CS451/classfile"
)

func decode(t *testing.T, code []byte) []bytecode.Tuple {
	t.Helper()
	tuples, err := bytecode.Decode("m", code, &classfile.ConstantPool{})
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	return tuples
}

func TestBuildStraightLine(t *testing.T) {
	// iconst_0, lload 0, iadd, ireturn — no branches at all.
	tuples := decode(t, []byte{0x01, 0x04, 0x00, 0x10, 0x61})
	g, err := Build("m", tuples)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	if len(g.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (synthetic B0 plus one real block)", len(g.Blocks))
	}
	b1 := g.Blocks[1]
	if len(b1.Tuples) != len(tuples) {
		t.Errorf("got %d tuples in B1, want %d", len(b1.Tuples), len(tuples))
	}
	if len(g.Entry.Tuples) != 0 {
		t.Errorf("B0 should carry no tuples, got %d", len(g.Entry.Tuples))
	}
	if len(g.Entry.Succs) != 1 || g.Entry.Succs[0] != b1 {
		t.Errorf("B0's sole successor should be B1")
	}
}

func TestBuildIfSplitsBlocks(t *testing.T) {
	// pc0 iconst_0 (1B), pc1 ifeq +4 (3B) -> pc5, pc4 iconst_1 (1B), pc5 ireturn (1B, branch target).
	code := []byte{
		0x01,             // pc0 iconst_0
		0x40, 0x00, 0x04, // pc1 ifeq -> pc5
		0x02, // pc4 iconst_1
		0x61, // pc5 ireturn
	}
	tuples := decode(t, code)
	g, err := Build("m", tuples)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	if len(g.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4 (synthetic B0 plus three real blocks)", len(g.Blocks))
	}
	b1 := g.Blocks[1]
	if len(b1.Succs) != 2 {
		t.Fatalf("B1 has %d successors, want 2", len(b1.Succs))
	}
}

func TestBuildLoopHeaderDetected(t *testing.T) {
	// pc0: iconst_0 (loop header), pc1: goto -> pc0 (back edge).
	code := []byte{
		0x01,             // pc0 iconst_0
		0x50, 0xff, 0xff, // pc1 goto -1 -> pc0
	}
	tuples := decode(t, code)
	g, err := Build("m", tuples)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	if !g.Blocks[1].Loop {
		t.Error("expected B1 to be flagged as a loop header")
	}
}

func TestBuildLoopTailDistinctFromHead(t *testing.T) {
	// pc0 iconst_0 (loop header), pc1 ifeq -> pc8 (exit), pc4 iconst_1, pc5 goto -> pc0 (back edge,
	// loop tail), pc8 ireturn.
	code := []byte{
		0x01,             // pc0 iconst_0
		0x40, 0x00, 0x07, // pc1 ifeq +7 -> pc8
		0x02,             // pc4 iconst_1
		0x50, 0xff, 0xfb, // pc5 goto -5 -> pc0
		0x61, // pc8 ireturn
	}
	tuples := decode(t, code)
	g, err := Build("m", tuples)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	head, ok := g.BlockAtPC(0)
	if !ok {
		t.Fatal("expected a block headed at pc 0")
	}
	tail, ok := g.BlockAtPC(4)
	if !ok {
		t.Fatal("expected a block headed at pc 4")
	}
	if !head.Loop {
		t.Error("expected the block at pc 0 to be flagged as a loop header")
	}
	if head.Tail {
		t.Error("loop header is not the back edge's source, should not be flagged as the tail")
	}
	if !tail.Tail {
		t.Error("expected the block at pc 4 (source of the back edge) to be flagged as the loop tail")
	}
	if tail.Loop {
		t.Error("loop tail is not the back edge's target, should not be flagged as the header")
	}
}

func TestBuildUnreachableTarget(t *testing.T) {
	code := []byte{0x50, 0x00, 0x10} // goto to a pc that does not exist
	tuples := decode(t, code)
	if _, err := Build("m", tuples); err == nil {
		t.Fatal("expected error for branch to non-instruction-boundary pc")
	}
}
