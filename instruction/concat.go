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
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type concatParams struct {
	typ              *valuetype.Type
	sparse           *sparsePlan
	plan             *dense.ConcatPlan
	lhsSize, rhsSize int
}

var genericConcats = perType{
	cell.Double:   genericConcat[float64, cell.F64],
	cell.Float:    genericConcat[float32, cell.F32],
	cell.BFloat16: genericConcat[bfloat16, cell.BF16],
	cell.Int8:     genericConcat[int8, cell.I8],
}

// Concat appends two values along an indexed dimension.
func Concat(consts *stash.Stash, lhs, rhs, res *valuetype.Type, dimension string) interp.Instruction {
	return interp.Instruction{
		Op: genericConcats.get(res.CellType()),
		Param: keep(consts, &concatParams{
			typ:     res,
			sparse:  newSparsePlan(lhs, rhs),
			plan:    dense.NewConcatPlan(lhs, rhs, res, dimension),
			lhsSize: lhs.DenseSubspaceSize(),
			rhsSize: rhs.DenseSubspaceSize(),
		}),
		Name: "generic_concat",
	}
}

func genericConcat[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*concatParams](st, param)
	lhs, rhs := st.Peek(1), st.Peek(0)
	l, r := load(st, lhs.Cells()), load(st, rhs.Cells())
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, max(lhs.Index().Size(), rhs.Index().Size()))
	var c C
	left, right := &p.plan.Left, &p.plan.Right
	p.sparse.each(lhs.Index(), rhs.Index(), func(ls, rs int, labels []label.ID) {
		out := b.AddSubspace(labels)
		nestedloop.Run2(ls*p.lhsSize, left.OutOffset, left.LoopCnt, left.InStride, left.OutStride, func(i, o int) {
			out[o] = c.Store(l[i])
		})
		nestedloop.Run2(rs*p.rhsSize, right.OutOffset, right.LoopCnt, right.InStride, right.OutStride, func(i, o int) {
			out[o] = c.Store(r[i])
		})
	})
	st.PopNPush(2, b.Build())
}
