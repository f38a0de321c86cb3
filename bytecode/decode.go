package bytecode

import (
	"encoding/binary"

	"github.com/dantebarton/CS451/cerr"
	"github.com/dantebarton/CS451/classfile"
)

// decoder walks a method's code array one opcode at a time, the same cursor-plus-input-slice shape
// as frontend/lexer.go's lexer struct, minus its channel and state-function machinery: a method's
// code array is fully in memory and never needs to suspend mid-scan.
type decoder struct {
	code   []byte
	pool   *classfile.ConstantPool
	method string
	pc     int
}

// Decode turns a method's raw code array into its tuple stream (spec.md §4.1). Returns a
// cerr.MalformedBytecode error on an unrecognized opcode, a truncated operand or an out-of-range
// constant pool index.
func Decode(method string, code []byte, pool *classfile.ConstantPool) ([]Tuple, error) {
	d := &decoder{code: code, pool: pool, method: method}
	var tuples []Tuple
	for d.pc < len(d.code) {
		t, err := d.next()
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, t)
	}
	return tuples, nil
}

// next decodes the instruction at the cursor's current pc and advances the cursor past it.
func (d *decoder) next() (Tuple, error) {
	startPC := d.pc
	b, ok := d.readByte()
	if !ok {
		return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "truncated opcode at pc %d", startPC)
	}
	op, ok := byteToOp[b]
	if !ok {
		return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "unknown opcode byte 0x%02x at pc %d", b, startPC)
	}
	t := Tuple{PC: startPC, Op: op}
	switch op.OperandKind() {
	case OperandNone:
		// No operand bytes to consume.
	case OperandInt:
		idx, ok := d.readU16()
		if !ok {
			return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "%s at pc %d: truncated pool index", op, startPC)
		}
		v, err := d.pool.Int(idx)
		if err != nil {
			return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "%s at pc %d: %s", op, startPC, err)
		}
		t.IntVal = v
	case OperandLocal:
		idx, ok := d.readByte()
		if !ok {
			return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "%s at pc %d: truncated local index", op, startPC)
		}
		t.LocalIdx = int(idx)
	case OperandBranch:
		disp, ok := d.readI16()
		if !ok {
			return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "%s at pc %d: truncated branch displacement", op, startPC)
		}
		t.Target = startPC + int(disp)
	case OperandMethod:
		idx, ok := d.readU16()
		if !ok {
			return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "%s at pc %d: truncated pool index", op, startPC)
		}
		ref, err := d.pool.MethodRef(idx)
		if err != nil {
			return Tuple{}, cerr.New(cerr.MalformedBytecode, d.method, "%s at pc %d: %s", op, startPC, err)
		}
		t.Method = ref
	}
	return t, nil
}

func (d *decoder) readByte() (byte, bool) {
	if d.pc >= len(d.code) {
		return 0, false
	}
	b := d.code[d.pc]
	d.pc++
	return b, true
}

func (d *decoder) readU16() (int, bool) {
	if d.pc+2 > len(d.code) {
		return 0, false
	}
	v := binary.BigEndian.Uint16(d.code[d.pc : d.pc+2])
	d.pc += 2
	return int(v), true
}

func (d *decoder) readI16() (int16, bool) {
	if d.pc+2 > len(d.code) {
		return 0, false
	}
	v := int16(binary.BigEndian.Uint16(d.code[d.pc : d.pc+2]))
	d.pc += 2
	return v, true
}
