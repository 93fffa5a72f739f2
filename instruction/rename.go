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
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type renameParams struct {
	typ *valuetype.Type
	// perm is, for each mapped dimension of the result, the position of
	// the same dimension in the operand.
	perm   []int
	plan   *dense.CopyPlan
	inSize int
}

var genericRenames = perType{
	cell.Double:   genericRename[float64, cell.F64],
	cell.Float:    genericRename[float32, cell.F32],
	cell.BFloat16: genericRename[bfloat16, cell.BF16],
	cell.Int8:     genericRename[int8, cell.I8],
}

// Rename changes the names of some dimensions of a value, reordering its
// labels and cells accordingly.
func Rename(consts *stash.Stash, child, res *valuetype.Type, from, to []string) interp.Instruction {
	childMapped := child.MappedDimNames()
	var perm []int
	for _, name := range res.MappedDimNames() {
		if k := slices.Index(to, name); k >= 0 {
			name = from[k]
		}
		perm = append(perm, slices.Index(childMapped, name))
	}
	return interp.Instruction{
		Op: genericRenames.get(res.CellType()),
		Param: keep(consts, &renameParams{
			typ:    res,
			perm:   perm,
			plan:   dense.NewCopyPlan(child, res, from, to),
			inSize: child.DenseSubspaceSize(),
		}),
		Name: "generic_rename",
	}
}

func genericRename[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*renameParams](st, param)
	child := st.Peek(0)
	in := load(st, child.Cells())
	index := child.Index()
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, index.Size())
	labels := make([]label.ID, len(p.perm))
	var c C
	for s := range index.Size() {
		src := index.Labels(s)
		for i, pos := range p.perm {
			labels[i] = src[pos]
		}
		out := b.AddSubspace(labels)
		nestedloop.Run2(s*p.inSize, 0, p.plan.LoopCnt, p.plan.InStride, p.plan.OutStride, func(i, o int) {
			out[o] = c.Store(in[i])
		})
	}
	st.PopPush(b.Build())
}

// FastRename relabels a value whose dimensions keep their order after
// renaming. The result aliases the cells and the index of the operand.
func FastRename(consts *stash.Stash, res *valuetype.Type) interp.Instruction {
	return interp.Instruction{Op: relabel, Param: keep(consts, res), Name: "fast_rename"}
}
