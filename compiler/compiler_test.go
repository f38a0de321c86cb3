package compiler

import (
	"testing"

	"github.com/dantebarton/CS451/classfile"
	"github.com/dantebarton/CS451/util"
)

// loopClass builds the class-file view for a single method that counts a local i up from 0 while
// i < n and returns it (the same loop liveness_test.go exercises), enough to drive CompileMethod
// across several basic blocks.
func loopClass() classfile.Class {
	doc := `{
		"pool": [],
		"methods": [{
			"name": "sumTo",
			"descriptor": "(I)I",
			"maxLocals": 2,
			"code": "AQUBBAEEAEYADAQBAhAFAVD/8wQBYQ=="
		}]
	}`
	cls, err := classfile.FromJSON([]byte(doc))
	if err != nil {
		panic(err)
	}
	return cls
}

func twoMethodClass() classfile.Class {
	doc := `{
		"pool": [
			{"kind":"int","value":3},
			{"kind":"int","value":4},
			{"kind":"methodref","name":"add","descriptor":"(II)I"}
		],
		"methods": [
			{"name":"main","descriptor":"()I","maxLocals":0,"code":"AwAAAwABMAACYQ=="},
			{"name":"add","descriptor":"(II)I","maxLocals":2,"code":"BAAEARBh"}
		]
	}`
	cls, err := classfile.FromJSON([]byte(doc))
	if err != nil {
		panic(err)
	}
	return cls
}

// TestCompileMethodHandlesLoop checks that CompileMethod drives a multi-block, backward-branching
// method through the whole pipeline without error.
func TestCompileMethodHandlesLoop(t *testing.T) {
	cls := loopClass()
	tm, err := CompileMethod(cls.Methods[0], &cls.Pool, util.StrategyGraph)
	if err != nil {
		t.Fatalf("CompileMethod(sumTo): %s", err)
	}
	if len(tm.Instrs) == 0 {
		t.Fatal("expected a non-empty emitted method")
	}
}

// TestCompileMethodReturnsEmittedMethod checks that CompileMethod drives the whole pipeline to a
// non-empty, prologue-framed target.Method without error.
func TestCompileMethodReturnsEmittedMethod(t *testing.T) {
	cls := twoMethodClass()
	tm, err := CompileMethod(cls.Methods[1], &cls.Pool, util.StrategyGraph)
	if err != nil {
		t.Fatalf("CompileMethod(add): %s", err)
	}
	if len(tm.Instrs) < 4 {
		t.Fatalf("expected a framed method body, got %d instructions", len(tm.Instrs))
	}
	if tm.Instrs[0].Mnemonic != "pushr" {
		t.Errorf("first instruction = %s, want pushr (prologue)", tm.Instrs[0].Mnemonic)
	}
}

// classWithOneBrokenMethod has one method with empty bytecode sandwiched between two independent,
// well-formed methods, so CompileAll can be checked for spec.md §7's recovery policy: one method's
// failure must not prevent the others from compiling and being assembled.
func classWithOneBrokenMethod() classfile.Class {
	doc := `{
		"pool": [],
		"methods": [
			{"name": "add", "descriptor": "(II)I", "maxLocals": 2, "code": "BAAEARBh"},
			{"name": "broken", "descriptor": "()I", "maxLocals": 0, "code": ""},
			{"name": "negate", "descriptor": "(I)I", "maxLocals": 1, "code": "BAAVYQ=="}
		]
	}`
	cls, err := classfile.FromJSON([]byte(doc))
	if err != nil {
		panic(err)
	}
	return cls
}

// TestCompileAllSequentialRecoversFromOneMethodFailure checks that one method's pipeline failure
// does not abort the others' compilation or their assembly (spec.md §7), and is still surfaced
// through CompileAll's returned error.
func TestCompileAllSequentialRecoversFromOneMethodFailure(t *testing.T) {
	cls := classWithOneBrokenMethod()
	prog, err := CompileAll(cls, util.Options{Strategy: util.StrategyGraph})
	if err == nil {
		t.Fatal("expected a non-nil error reporting the broken method's failure")
	}
	if prog == nil || len(prog.Methods) != 2 {
		t.Fatalf("expected the 2 surviving methods still assembled, got %v", prog)
	}
	for _, m := range prog.Methods {
		if m.Name == "broken" {
			t.Fatal("the broken method must not appear in the assembled program")
		}
	}
}

// TestCompileAllParallelRecoversFromOneMethodFailure is the worker-pool-path counterpart of
// TestCompileAllSequentialRecoversFromOneMethodFailure.
func TestCompileAllParallelRecoversFromOneMethodFailure(t *testing.T) {
	cls := classWithOneBrokenMethod()
	prog, err := CompileAll(cls, util.Options{Strategy: util.StrategyGraph, Threads: 3})
	if err == nil {
		t.Fatal("expected a non-nil error reporting the broken method's failure")
	}
	if prog == nil || len(prog.Methods) != 2 {
		t.Fatalf("expected the 2 surviving methods still assembled, got %v", prog)
	}
}

// TestCompileAllSequential checks CompileAll's Threads<=1 path compiles every method and resolves
// cross-method calls.
func TestCompileAllSequential(t *testing.T) {
	cls := twoMethodClass()
	prog, err := CompileAll(cls, util.Options{Strategy: util.StrategyGraph})
	if err != nil {
		t.Fatalf("CompileAll: %s", err)
	}
	if len(prog.Methods) != 2 {
		t.Fatalf("expected 2 compiled methods, got %d", len(prog.Methods))
	}
}

// TestCompileAllParallel checks CompileAll's worker-pool path produces the same method count as the
// sequential path when given more threads than methods.
func TestCompileAllParallel(t *testing.T) {
	cls := twoMethodClass()
	prog, err := CompileAll(cls, util.Options{Strategy: util.StrategyGraph, Threads: 4})
	if err != nil {
		t.Fatalf("CompileAll: %s", err)
	}
	if len(prog.Methods) != 2 {
		t.Fatalf("expected 2 compiled methods, got %d", len(prog.Methods))
	}
}
