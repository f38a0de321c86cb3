// Package compiler orchestrates one method's full pipeline (spec.md §4, §9's stage list) and fans
// a whole class's independent methods out over a worker pool, grounded on main.go's run() stage
// sequencing and backend/lir/regalloc.go's AllocateRegisters chunked worker-pool pattern.
package compiler

import (
	"errors"
	"sync"

	"github.com/dantebarton/CS451/bytecode"
	"github.com/dantebarton/CS451/cerr"
	"github.com/dantebarton/CS451/cfg"
	"github.com/dantebarton/CS451/classfile"
	"github.com/dantebarton/CS451/hir"
	"github.com/dantebarton/CS451/lir"
	"github.com/dantebarton/CS451/liveness"
	"github.com/dantebarton/CS451/regalloc"
	"github.com/dantebarton/CS451/target"
	"github.com/dantebarton/CS451/util"
)

// CompileMethod runs the full decode->CFG->HIR->LIR->liveness->allocate->emit pipeline for one
// method (spec.md §4.1-§4.7). strategy selects the register-allocation stage: util.StrategyGraph
// runs the interference-graph colorer of package regalloc, util.StrategyNaive its linear-scan
// alternative.
func CompileMethod(m classfile.Method, pool *classfile.ConstantPool, strategy int) (*target.Method, error) {
	args, _, err := classfile.ArgTypes(m.Descriptor)
	if err != nil {
		return nil, cerr.New(cerr.MalformedBytecode, m.Name, "%s", err)
	}

	tuples, err := bytecode.Decode(m.Name, m.Code, pool)
	if err != nil {
		return nil, err
	}
	g, err := cfg.Build(m.Name, tuples)
	if err != nil {
		return nil, err
	}
	hirProg, err := hir.Build(m.Name, g, m.MaxLocals, args)
	if err != nil {
		return nil, err
	}
	lirProg, err := lir.Build(hirProg)
	if err != nil {
		return nil, err
	}
	lp := liveness.Compute(lirProg)

	if strategy == util.StrategyNaive {
		err = regalloc.AllocateNaive(m.Name, lp)
	} else {
		err = regalloc.Allocate(m.Name, lp)
	}
	if err != nil {
		return nil, err
	}

	return target.Emit(m.Name, m.Descriptor, lirProg)
}

// CompileAll compiles every method of cls independently and returns their resolved target.Program,
// per spec.md §5's concurrency model: methods share no mutable state, so they may compile on
// separate goroutines. Threads <= 1 compiles sequentially on the calling goroutine, mirroring
// AllocateRegisters' own sequential fallback.
//
// One method's failure never aborts the others (spec.md §7's recovery policy): a failing method
// simply contributes no target.Method, every other method still compiles, and the assembled
// Program covers whatever succeeded. The caller learns of every failure through the returned
// error, which is non-nil whenever at least one method failed, so it can still produce a final
// nonzero exit even though assembly itself succeeded.
func CompileAll(cls classfile.Class, opt util.Options) (*target.Program, error) {
	methods := make([]*target.Method, len(cls.Methods))

	if opt.Threads <= 1 {
		var errs []error
		for i, m := range cls.Methods {
			tm, err := CompileMethod(m, &cls.Pool, opt.Strategy)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			methods[i] = tm
		}
		prog, err := assembleCompiled(methods)
		if err != nil {
			errs = append(errs, err)
		}
		return prog, errors.Join(errs...)
	}

	t := opt.Threads
	l := len(cls.Methods)
	if t > l {
		t = l
	}
	n := l / t
	rem := l % t

	perr := util.NewPerror(t)
	wg := sync.WaitGroup{}
	wg.Add(t)

	start := 0
	for i1 := 0; i1 < t; i1++ {
		end := start + n
		if i1 < rem {
			end++
		}
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				tm, err := CompileMethod(cls.Methods[i], &cls.Pool, opt.Strategy)
				if err != nil {
					perr.Append(err)
					continue
				}
				methods[i] = tm
			}
		}(start, end)
		start = end
	}
	wg.Wait()

	var errs []error
	if perr.Len() > 0 {
		errs = perr.Slice()
	}
	prog, err := assembleCompiled(methods)
	if err != nil {
		errs = append(errs, err)
	}
	return prog, errors.Join(errs...)
}

// assembleCompiled filters out the failed slots CompileAll leaves nil and assembles whatever
// compiled successfully.
func assembleCompiled(methods []*target.Method) (*target.Program, error) {
	ok := methods[:0]
	for _, m := range methods {
		if m != nil {
			ok = append(ok, m)
		}
	}
	if len(ok) == 0 {
		return nil, nil
	}
	return target.Assemble(ok)
}
