// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package instruction

import (
	"slices"

	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/dense"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/nestedloop"
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/sparse"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type reduceParams struct {
	typ  *valuetype.Type
	fold operation.Fold
	// keep are the positions of the mapped dimensions of the operand kept
	// in the result.
	keep []int
	plan *dense.JoinReducePlan
}

var genericReduces = perType{
	cell.Double:   genericReduce[float64, cell.F64],
	cell.Float:    genericReduce[float32, cell.F32],
	cell.BFloat16: genericReduce[bfloat16, cell.BF16],
	cell.Int8:     genericReduce[int8, cell.I8],
}

// Reduce aggregates the cells of a value over some of its dimensions.
func Reduce(consts *stash.Stash, child, res *valuetype.Type, aggr operation.Aggr) interp.Instruction {
	var kept []int
	resMapped := res.MappedDimNames()
	for i, name := range child.MappedDimNames() {
		if slices.Contains(resMapped, name) {
			kept = append(kept, i)
		}
	}
	return interp.Instruction{
		Op: genericReduces.get(res.CellType()),
		Param: keep(consts, &reduceParams{
			typ:  res,
			fold: aggr.Fold(),
			keep: kept,
			plan: dense.NewJoinReducePlan(child.StripMapped(), valuetype.Double(), res.StripMapped()),
		}),
		Name: "generic_reduce",
	}
}

func genericReduce[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*reduceParams](st, param)
	child := st.Peek(0)
	in := load(st, child.Cells())
	index := child.Index()
	plan := p.plan
	add := p.fold.Add
	groups := sparse.NewMap(len(p.keep), index.Size())
	// There are at most as many groups as subspaces.
	accs := stash.Make[float64](st.Stash, index.Size()*plan.ResSize)
	members := stash.Make[float64](st.Stash, index.Size())
	key := make([]label.ID, len(p.keep))
	for s := range index.Size() {
		labels := index.Labels(s)
		for i, pos := range p.keep {
			key[i] = labels[pos]
		}
		g := groups.Lookup(key)
		if g == sparse.NPos {
			g = groups.AddMapping(key)
			fill(accs[g*plan.ResSize:(g+1)*plan.ResSize], p.fold.Init)
		}
		members[g]++
		nestedloop.Run2(s*plan.LhsSize, g*plan.ResSize, plan.LoopCnt, plan.LhsStride, plan.ResStride, func(i, o int) {
			accs[o] = add(accs[o], in[i])
		})
	}
	// Every output cell aggregates the same number of cells of each
	// subspace of its group.
	perSubspace := plan.LhsSize / plan.ResSize
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, groups.Size())
	var c C
	for g := range groups.Size() {
		out := b.AddSubspace(groups.Labels(g))
		n := int(members[g]) * perSubspace
		for i := range out {
			out[i] = c.Store(p.fold.Result(accs[g*plan.ResSize+i], n))
		}
	}
	st.PopPush(b.Build())
}

func fill(s []float64, x float64) {
	for i := range s {
		s[i] = x
	}
}
