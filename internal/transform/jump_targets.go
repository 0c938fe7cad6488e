package transform

import (
	"slices"

	"github.com/sirkon/tapegraph/internal/cfg"
)

// JumpTargets returns the blocks control can be transferred to, each mapped
// to its predecessors in ascending order. The fallthrough successor of
// a block whose branches are all conditional counts as a target too.
func JumpTargets(fn *cfg.Function) map[int][]int {
	res := map[int][]int{}
	add := func(target, from int) {
		if !slices.Contains(res[target], from) {
			res[target] = append(res[target], from)
		}
	}

	for i, b := range fn.Blocks {
		index := i + 1
		for _, br := range b.Branches {
			if br.Kind == cfg.BranchJump {
				add(br.Target, index)
			}
		}
		if b.FallsThrough() && index < len(fn.Blocks) {
			add(index+1, index)
		}
	}

	for _, preds := range res {
		slices.Sort(preds)
	}
	return res
}
