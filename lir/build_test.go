package lir

import (
	"testing"

	"github.com/dantebarton/CS451/bytecode"
	"github.com/dantebarton/CS451/cfg"
	"github.com/dantebarton/CS451/classfile"
	"github.com/dantebarton/CS451/hir"
	"github.com/dantebarton/CS451/regs"
)

func buildLir(t *testing.T, code []byte, numLocals int, paramTypes []byte) *Program {
	t.Helper()
	tuples, err := bytecode.Decode("m", code, &classfile.ConstantPool{})
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	g, err := cfg.Build("m", tuples)
	if err != nil {
		t.Fatalf("cfg.Build: %s", err)
	}
	h, err := hir.Build("m", g, numLocals, paramTypes)
	if err != nil {
		t.Fatalf("hir.Build: %s", err)
	}
	p, err := Build(h)
	if err != nil {
		t.Fatalf("lir.Build: %s", err)
	}
	return p
}

func allInstrs(p *Program) []*Instr {
	var out []*Instr
	for _, bl := range p.Blocks {
		out = append(out, bl.Instrs...)
	}
	return out
}

func TestAddPairLoadParamOffsets(t *testing.T) {
	// int add(int a, int b) { return a + b; }
	code := []byte{
		0x04, 0x00, // lload 0
		0x04, 0x01, // lload 1
		0x10, // iadd
		0x61, // ireturn
	}
	p := buildLir(t, code, 2, []byte{'I', 'I'})

	var incOffsets []int
	var sawAdd, sawReturn bool
	for _, in := range allInstrs(p) {
		switch in.Op {
		case OpInc:
			incOffsets = append(incOffsets, in.Offset)
		case OpArithmetic:
			if in.ArithOp == hir.ArithAdd {
				sawAdd = true
			}
		case OpReturn:
			sawReturn = true
			if len(in.Reads) != 1 || in.Reads[0].Id != regs.RV {
				t.Errorf("return should read RV, got %+v", in.Reads)
			}
		}
	}
	if len(incOffsets) != 2 || incOffsets[0] != -3 || incOffsets[1] != -4 {
		t.Errorf("got inc offsets %v, want [-3 -4]", incOffsets)
	}
	if !sawAdd {
		t.Error("expected an add instruction")
	}
	if !sawReturn {
		t.Error("expected a return instruction")
	}
}

func TestLirIdsAreMultiplesOfRenumberGap(t *testing.T) {
	code := []byte{0x01, 0x02, 0x10, 0x61} // iconst_0, iconst_1, iadd, ireturn
	p := buildLir(t, code, 0, nil)
	prev := -1
	for _, in := range allInstrs(p) {
		if in.Id%RenumberGap != 0 {
			t.Errorf("instr id %d is not a multiple of %d", in.Id, RenumberGap)
		}
		if in.Id <= prev {
			t.Errorf("instr ids must be strictly increasing in block order, got %d after %d", in.Id, prev)
		}
		prev = in.Id
	}
}

func TestPhisNeverAppearInFinalLir(t *testing.T) {
	code := []byte{
		0x01,             // pc0  iconst_0
		0x05, 0x01,       // pc1  lstore 1
		0x04, 0x01,       // pc3  lload 1   <- loop head
		0x04, 0x00,       // pc5  lload 0
		0x46, 0x00, 0x0c, // pc7  if_icmpge -> pc19
		0x04, 0x01, // pc10 lload 1
		0x02,             // pc12 iconst_1
		0x10,             // pc13 iadd
		0x05, 0x01,       // pc14 lstore 1
		0x50, 0xff, 0xf3, // pc16 goto -> pc3
		0x04, 0x01, // pc19 lload 1
		0x61, // pc21 ireturn
	}
	p := buildLir(t, code, 2, []byte{'I'})
	for _, in := range allInstrs(p) {
		if in.Op == OpPhi {
			t.Fatal("a phi instruction leaked into final LIR output")
		}
	}
}
