package regalloc

import (
	"sort"

	"github.com/dantebarton/CS451/liveness"
	"github.com/dantebarton/CS451/regs"
)

// interval is one virtual register's overall liveness span, collapsed from its (possibly several)
// liveness.Range entries down to the single [start, stop] the linear-scan loop below tracks.
type interval struct {
	id           int
	start        int
	stop         int
	register     *regs.Register
	usePositions int
}

// AllocateNaive implements spec.md §6's "naive" register-allocation strategy as linear-scan register
// allocation (Poletto & Sarkar): registers are assigned in order of interval start, kept in an active
// set sorted by interval stop, and the interval with the furthest-out stop is spilled whenever the
// active set would exceed numColors. This is the standard cheaper-but-looser alternative to the
// interference-graph colorer in allocate.go, so "naive" here names a real, lesser compiler-theory
// strategy rather than a deliberately broken one.
func AllocateNaive(method string, lp *liveness.Program) error {
	ivs := collectIntervals(lp)
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })

	var active []*interval
	offset := 0

	for _, cur := range ivs {
		active = expireOld(active, cur.start)

		if len(active) < numColors {
			cur.register.Phys = firstUnusedColor(active)
			cur.register.Spilled = false
			active = insertSortedByStop(active, cur)
			continue
		}

		// Spill the active interval with the furthest stop, preferring to keep the shorter-lived one
		// in a register, per the classic linear-scan spill heuristic. A tie on stop falls back to
		// fewer use positions, same tie-break allocate.go's graph colorer uses for spill candidates.
		last := active[len(active)-1]
		if last.stop > cur.stop || (last.stop == cur.stop && last.usePositions <= cur.usePositions) {
			cur.register.Phys = last.register.Phys
			cur.register.Spilled = false
			last.register.Spilled = true
			last.register.Offset = offset
			last.register.Phys = regs.R0
			offset += 4
			active = active[:len(active)-1]
			active = insertSortedByStop(active, cur)
		} else {
			cur.register.Spilled = true
			cur.register.Offset = offset
			cur.register.Phys = regs.R0
			offset += 4
		}
	}

	insertSpillCode(lp.Lir.Blocks)
	renumberDense(lp.Lir)
	return nil
}

func collectIntervals(lp *liveness.Program) []*interval {
	ivs := make([]*interval, 0, len(lp.Intervals))
	for id, iv := range lp.Intervals {
		r, ok := lp.Lir.Registers[id]
		if !ok || r.Kind != regs.Virtual {
			continue
		}
		start, stop := iv.Ranges[0].Start, iv.Ranges[0].Stop
		for _, rg := range iv.Ranges[1:] {
			if rg.Start < start {
				start = rg.Start
			}
			if rg.Stop > stop {
				stop = rg.Stop
			}
		}
		ivs = append(ivs, &interval{id: id, start: start, stop: stop, register: r, usePositions: len(iv.UsePositions)})
	}
	return ivs
}

// expireOld drops every active interval whose stop has already passed start, freeing its color.
func expireOld(active []*interval, start int) []*interval {
	out := active[:0]
	for _, a := range active {
		if a.stop >= start {
			out = append(out, a)
		}
	}
	return out
}

// firstUnusedColor returns the smallest color in [1, numColors] not held by any active interval.
func firstUnusedColor(active []*interval) int {
	used := make(map[int]bool, len(active))
	for _, a := range active {
		used[a.register.Phys] = true
	}
	for c := 1; c <= numColors; c++ {
		if !used[c] {
			return c
		}
	}
	return 0
}

// insertSortedByStop inserts iv into active, keeping ascending order by stop.
func insertSortedByStop(active []*interval, iv *interval) []*interval {
	i := sort.Search(len(active), func(i int) bool { return active[i].stop >= iv.stop })
	active = append(active, nil)
	copy(active[i+1:], active[i:])
	active[i] = iv
	return active
}
