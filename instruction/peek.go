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
	"math"
	"strconv"

	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/dense"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/nestedloop"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// PeekDim selects a label of a dimension of the peeked value.
type PeekDim struct {
	Name string
	// Label is the label selected when Expr is negative.
	Label string
	// Expr is the position of the expression computing the label among the
	// expressions evaluated after the peeked value.
	Expr int
}

type (
	peekedLabel struct {
		expr  int
		label label.ID
	}

	peekedIndex struct {
		expr   int
		index  int
		size   int
		stride int
	}

	peekParams struct {
		typ      *valuetype.Type
		mapped   []peekedLabel
		indexed  []peekedIndex
		viewDims []int
		restDims int
		numExprs int
		inSize   int
		plan     *dense.CopyPlan
	}
)

var genericPeeks = perType{
	cell.Double:   genericPeek[float64, cell.F64],
	cell.Float:    genericPeek[float32, cell.F32],
	cell.BFloat16: genericPeek[bfloat16, cell.BF16],
	cell.Int8:     genericPeek[int8, cell.I8],
}

// Peek extracts the part of a value matching labels of some of its dimensions.
func Peek(consts *stash.Stash, child, res *valuetype.Type, dims []PeekDim) interp.Instruction {
	p := &peekParams{
		typ:    res,
		inSize: child.DenseSubspaceSize(),
		plan:   dense.NewCopyPlan(child, res, nil, nil),
	}
	indexed := child.IndexedDims()
	strides := dense.Strides(indexed)
	for i, dim := range child.MappedDims() {
		for _, pd := range dims {
			if pd.Name != dim.Name {
				continue
			}
			p.viewDims = append(p.viewDims, i)
			p.mapped = append(p.mapped, peekedLabel{expr: pd.Expr, label: label.Of(pd.Label)})
		}
	}
	for i, dim := range indexed {
		for _, pd := range dims {
			if pd.Name != dim.Name {
				continue
			}
			pi := peekedIndex{expr: pd.Expr, index: -1, size: dim.Size, stride: strides[i]}
			if pd.Expr < 0 {
				if idx, err := strconv.Atoi(pd.Label); err == nil {
					pi.index = idx
				}
			}
			p.indexed = append(p.indexed, pi)
		}
	}
	for _, pd := range dims {
		if pd.Expr >= 0 {
			p.numExprs++
		}
	}
	p.restDims = child.CountMappedDims() - len(p.mapped)
	return interp.Instruction{
		Op:    genericPeeks.get(res.CellType()),
		Param: keep(consts, p),
		Name:  "generic_peek",
	}
}

func exprLabel(v value.Value) int64 {
	return int64(math.Trunc(value.AsDouble(v)))
}

func genericPeek[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*peekParams](st, param)
	n := p.numExprs
	child := st.Peek(n)
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, 1)
	offset, valid := 0, true
	for _, d := range p.indexed {
		idx := d.index
		if d.expr >= 0 {
			idx = int(exprLabel(st.Peek(n - 1 - d.expr)))
		}
		if idx < 0 || idx >= d.size {
			valid = false
			break
		}
		offset += idx * d.stride
	}
	if valid {
		addr := make([]label.ID, len(p.mapped))
		for i, d := range p.mapped {
			addr[i] = d.label
			if d.expr >= 0 {
				addr[i] = label.Find(strconv.FormatInt(exprLabel(st.Peek(n-1-d.expr)), 10))
			}
		}
		in := load(st, child.Cells())
		view := child.Index().CreateView(p.viewDims)
		view.Lookup(addr)
		rest := make([]label.ID, p.restDims)
		var c C
		for {
			s, ok := view.Next(rest)
			if !ok {
				break
			}
			out := b.AddSubspace(rest)
			nestedloop.Run2(s*p.inSize+offset, 0, p.plan.LoopCnt, p.plan.InStride, p.plan.OutStride, func(i, o int) {
				out[o] = c.Store(in[i])
			})
		}
	}
	st.PopNPush(n+1, b.Build())
}
