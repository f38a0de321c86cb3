package bytecode

import (
	"testing"

	"github.com/dantebarton/CS451/classfile"
)

func mustClass(t *testing.T, doc string) classfile.Class {
	t.Helper()
	c, err := classfile.FromJSON([]byte(doc))
	if err != nil {
		t.Fatalf("FromJSON: %s", err)
	}
	return c
}

func TestDecodeSimpleAdd(t *testing.T) {
	// iconst_0, lload 0, lload 1, iadd, ireturn
	code := []byte{0x01, 0x04, 0x00, 0x04, 0x01, 0x10, 0x61}
	tuples, err := Decode("addPair", code, &classfile.ConstantPool{})
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	want := []Op{IConst0, LLoad, LLoad, Add, IReturn}
	if len(tuples) != len(want) {
		t.Fatalf("got %d tuples, want %d", len(tuples), len(want))
	}
	for i, op := range want {
		if tuples[i].Op != op {
			t.Errorf("tuple %d: got op %s, want %s", i, tuples[i].Op, op)
		}
	}
	if tuples[1].LocalIdx != 0 || tuples[2].LocalIdx != 1 {
		t.Errorf("lload operands: got %d, %d, want 0, 1", tuples[1].LocalIdx, tuples[2].LocalIdx)
	}
}

func TestDecodeBranchTarget(t *testing.T) {
	// pc0: iconst_0, pc1: ifeq +4 (-> pc5), pc4: return. Decode does not check that pc5 exists.
	code := []byte{0x01, 0x40, 0x00, 0x04, 0x60}
	tuples, err := Decode("m", code, &classfile.ConstantPool{})
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if tuples[1].Op != IfEq {
		t.Fatalf("expected IfEq at index 1, got %s", tuples[1].Op)
	}
	if want := 1 + 4; tuples[1].Target != want {
		t.Errorf("branch target: got %d, want %d", tuples[1].Target, want)
	}
}

func TestDecodeLdcFromPool(t *testing.T) {
	c := mustClass(t, `{"pool":[{"kind":"int","value":42}],"methods":[]}`)
	code := []byte{0x03, 0x00, 0x00, 0x61}
	tuples, err := Decode("m", code, &c.Pool)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if tuples[0].Op != Ldc || tuples[0].IntVal != 42 {
		t.Errorf("got op %s intval %d, want Ldc 42", tuples[0].Op, tuples[0].IntVal)
	}
}

func TestDecodeInvokeStatic(t *testing.T) {
	c := mustClass(t, `{"pool":[{"kind":"methodref","name":"helper","descriptor":"(I)I"}],"methods":[]}`)
	code := []byte{0x30, 0x00, 0x00, 0x61}
	tuples, err := Decode("m", code, &c.Pool)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if tuples[0].Op != InvokeStatic {
		t.Fatalf("got op %s, want InvokeStatic", tuples[0].Op)
	}
	if tuples[0].Method.Name != "helper" || tuples[0].Method.Descriptor != "(I)I" {
		t.Errorf("got methodref %+v", tuples[0].Method)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	code := []byte{0xff}
	if _, err := Decode("m", code, &classfile.ConstantPool{}); err == nil {
		t.Fatal("expected error for unknown opcode, got nil")
	}
}

func TestDecodeTruncatedOperand(t *testing.T) {
	code := []byte{0x04} // lload with no index byte
	if _, err := Decode("m", code, &classfile.ConstantPool{}); err == nil {
		t.Fatal("expected error for truncated operand, got nil")
	}
}
