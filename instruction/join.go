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
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/dense"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/nestedloop"
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type joinParams struct {
	typ    *valuetype.Type
	fn     func(float64, float64) float64
	sparse *sparsePlan
	dense  *dense.JoinReducePlan
}

var genericJoins = perType{
	cell.Double:   genericJoin[float64, cell.F64],
	cell.Float:    genericJoin[float32, cell.F32],
	cell.BFloat16: genericJoin[bfloat16, cell.BF16],
	cell.Int8:     genericJoin[int8, cell.I8],
}

// Join combines the cells of two values matching on their common
// dimensions with a binary function.
func Join(consts *stash.Stash, lhs, rhs, res *valuetype.Type, fn *operation.Binary) interp.Instruction {
	return interp.Instruction{
		Op: genericJoins.get(res.CellType()),
		Param: keep(consts, &joinParams{
			typ:    res,
			fn:     fn.F,
			sparse: newSparsePlan(lhs, rhs),
			dense:  dense.NewJoinPlan(lhs, rhs),
		}),
		Name: "generic_join",
	}
}

func genericJoin[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*joinParams](st, param)
	lhs, rhs := st.Peek(1), st.Peek(0)
	l, r := load(st, lhs.Cells()), load(st, rhs.Cells())
	plan := p.dense
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, max(lhs.Index().Size(), rhs.Index().Size()))
	var c C
	p.sparse.each(lhs.Index(), rhs.Index(), func(ls, rs int, labels []label.ID) {
		out := b.AddSubspace(labels)
		nestedloop.Run3(ls*plan.LhsSize, rs*plan.RhsSize, 0, plan.LoopCnt, plan.LhsStride, plan.RhsStride, plan.ResStride, func(li, ri, o int) {
			out[o] = c.Store(p.fn(l[li], r[ri]))
		})
	})
	st.PopNPush(2, b.Build())
}

type mergeParams struct {
	typ *valuetype.Type
	fn  func(float64, float64) float64
	// dims are all the mapped dimensions of the operands.
	dims []int
}

var genericMerges = perType{
	cell.Double:   genericMerge[float64, cell.F64],
	cell.Float:    genericMerge[float32, cell.F32],
	cell.BFloat16: genericMerge[bfloat16, cell.BF16],
	cell.Int8:     genericMerge[int8, cell.I8],
}

// Merge combines two values of the same dimensions. Subspaces present in
// both operands are combined with a binary function; the other subspaces
// are copied.
func Merge(consts *stash.Stash, res *valuetype.Type, fn *operation.Binary) interp.Instruction {
	return interp.Instruction{
		Op:    genericMerges.get(res.CellType()),
		Param: keep(consts, &mergeParams{typ: res, fn: fn.F, dims: allDims(res)}),
		Name:  "generic_merge",
	}
}

func genericMerge[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*mergeParams](st, param)
	lhs, rhs := st.Peek(1), st.Peek(0)
	l, r := load(st, lhs.Cells()), load(st, rhs.Cells())
	li, ri := lhs.Index(), rhs.Index()
	lview, rview := li.CreateView(p.dims), ri.CreateView(p.dims)
	size := p.typ.DenseSubspaceSize()
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, li.Size()+ri.Size())
	var c C
	for ls := range li.Size() {
		labels := li.Labels(ls)
		out := b.AddSubspace(labels)
		lc := l[ls*size : (ls+1)*size]
		if rs := find(ri, rview, labels); rs >= 0 {
			rc := r[rs*size : (rs+1)*size]
			for i := range out {
				out[i] = c.Store(p.fn(lc[i], rc[i]))
			}
			continue
		}
		for i := range out {
			out[i] = c.Store(lc[i])
		}
	}
	for rs := range ri.Size() {
		labels := ri.Labels(rs)
		if find(li, lview, labels) >= 0 {
			continue
		}
		out := b.AddSubspace(labels)
		rc := r[rs*size : (rs+1)*size]
		for i := range out {
			out[i] = c.Store(rc[i])
		}
	}
	st.PopNPush(2, b.Build())
}
