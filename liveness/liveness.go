// Package liveness computes local use/def sets, the global liveIn/liveOut fixpoint and per-register
// liveness intervals over a method's LIR (spec.md §4.5). The backward scan building a working live
// set from read/write positions follows ir/lir/live.go and backend/lir/regalloc.go's
// calcLivenessFunc; this package extends it from the teacher's flat per-function live set to
// per-block bitsets, a genuine global fixpoint, and use-position-tagged intervals, none of which the
// teacher's allocator computes.
package liveness

import "github.com/dantebarton/CS451/lir"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// UseKind tags what a register's use at a given LIR position does. A position can be both a read
// and a write (an Inc instruction reads and writes the same register), so the bits compose.
type UseKind int

const (
	UseRead  UseKind = 1 << iota
	UseWrite
)

// Range is a closed liveness span [Start, Stop] over LIR ids: both ends are included, so {p, p}
// covers exactly position p.
type Range struct {
	Start, Stop int
}

func (r Range) overlaps(o Range) bool {
	return r.Start <= o.Stop && o.Start <= r.Stop
}

// Interval is one register's liveness record (spec.md §3): a list of disjoint ranges kept sorted by
// ascending Start, plus the use kind at every LIR id that touches it.
type Interval struct {
	RegisterId   int
	Ranges       []Range
	UsePositions map[int]UseKind
}

func newInterval(id int) *Interval {
	return &Interval{RegisterId: id, UsePositions: make(map[int]UseKind)}
}

// addRange is the join-with-merge operation of spec.md §4.5: a new range whose stop lands within
// lir.RenumberGap of the first existing range's start (or overlaps it outright) extends that range
// instead of creating a second one, so spill-code gaps never fragment an interval.
func (iv *Interval) addRange(start, stop int) {
	if len(iv.Ranges) == 0 {
		iv.Ranges = []Range{{start, stop}}
		return
	}
	first := &iv.Ranges[0]
	touches := stop+lir.RenumberGap >= first.Start
	if touches || first.overlaps(Range{start, stop}) {
		if start < first.Start {
			first.Start = start
		}
		if stop > first.Stop {
			first.Stop = stop
		}
		return
	}
	iv.Ranges = append([]Range{{start, stop}}, iv.Ranges...)
}

// markUse records that register iv is touched at LIR id p with kind k, composing with any existing
// kind already recorded at p.
func (iv *Interval) markUse(p int, k UseKind) {
	iv.UsePositions[p] |= k
}

// Interferes reports whether a and b's ranges share any LIR position.
func (a *Interval) Interferes(b *Interval) bool {
	for _, ra := range a.Ranges {
		for _, rb := range b.Ranges {
			if ra.overlaps(rb) {
				return true
			}
		}
	}
	return false
}

// BlockLiveness holds one block's local use/def sets and the fixpoint's liveIn/liveOut results,
// each keyed by register id (spec.md §3).
type BlockLiveness struct {
	Block   *lir.BlockLir
	LiveUse map[int]bool
	LiveDef map[int]bool
	LiveIn  map[int]bool
	LiveOut map[int]bool
}

// Program is the liveness analysis result for one method's LIR.
type Program struct {
	Lir       *lir.Program
	Blocks    []*BlockLiveness
	Intervals map[int]*Interval
}

// ---------------------
// ----- Functions -----
// ---------------------

// Compute runs the full analysis of spec.md §4.5: local sets, the global fixpoint, then intervals.
func Compute(p *lir.Program) *Program {
	prog := &Program{Lir: p, Blocks: make([]*BlockLiveness, len(p.Blocks))}
	for i, bl := range p.Blocks {
		prog.Blocks[i] = localSets(bl)
	}
	prog.fixpoint()
	prog.buildIntervals()
	return prog
}

// localSets scans bl forward once, building liveUse and liveDef per spec.md §4.5: a register is in
// liveUse if it is read before any local write defines it; every write adds to liveDef regardless of
// later liveUse membership, since this block may write a register before reading it on another path.
func localSets(bl *lir.BlockLir) *BlockLiveness {
	b := &BlockLiveness{Block: bl, LiveUse: map[int]bool{}, LiveDef: map[int]bool{}}
	for _, in := range bl.Instrs {
		for _, r := range in.Reads {
			if !b.LiveDef[r.Id] {
				b.LiveUse[r.Id] = true
			}
		}
		if in.Write != nil {
			b.LiveDef[in.Write.Id] = true
		}
	}
	return b
}

// fixpoint iterates liveIn/liveOut to a fixed point in reverse block order (spec.md §4.5).
func (p *Program) fixpoint() {
	succOf := func(b *BlockLiveness) []*BlockLiveness {
		out := make([]*BlockLiveness, 0, len(b.Block.Block.Succs))
		for _, s := range b.Block.Block.Succs {
			out = append(out, p.Blocks[s.Id])
		}
		return out
	}
	for _, b := range p.Blocks {
		b.LiveIn = map[int]bool{}
		b.LiveOut = map[int]bool{}
	}
	for changed := true; changed; {
		changed = false
		for i := len(p.Blocks) - 1; i >= 0; i-- {
			b := p.Blocks[i]
			newOut := map[int]bool{}
			for _, s := range succOf(b) {
				for r := range s.LiveIn {
					newOut[r] = true
				}
			}
			newIn := map[int]bool{}
			for r := range b.LiveUse {
				newIn[r] = true
			}
			for r := range newOut {
				if !b.LiveDef[r] {
					newIn[r] = true
				}
			}
			if !setEqual(newIn, b.LiveIn) || !setEqual(newOut, b.LiveOut) {
				changed = true
			}
			b.LiveIn = newIn
			b.LiveOut = newOut
		}
	}
}

func setEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// buildIntervals walks blocks in reverse order building one Interval per register id in the
// program, per spec.md §4.5.
func (p *Program) buildIntervals() {
	p.Intervals = make(map[int]*Interval, len(p.Lir.Registers))
	for id := range p.Lir.Registers {
		p.Intervals[id] = newInterval(id)
	}

	for i := len(p.Blocks) - 1; i >= 0; i-- {
		b := p.Blocks[i]
		if len(b.Block.Instrs) == 0 {
			continue
		}
		s := b.Block.Instrs[0].Id
		e := b.Block.Instrs[len(b.Block.Instrs)-1].Id

		for r := range b.LiveOut {
			p.Intervals[r].addRange(s, e)
		}

		for k := len(b.Block.Instrs) - 1; k >= 0; k-- {
			in := b.Block.Instrs[k]
			pos := in.Id
			if in.Write != nil {
				iv := p.Intervals[in.Write.Id]
				if len(iv.Ranges) == 0 {
					iv.Ranges = []Range{{pos, pos}}
				} else {
					iv.Ranges[0].Start = pos
				}
				iv.markUse(pos, UseWrite)
			}
			for _, r := range in.Reads {
				iv := p.Intervals[r.Id]
				iv.addRange(s, pos)
				iv.markUse(pos, UseRead)
			}
		}
	}
}
