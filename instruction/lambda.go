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
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type lambdaParams struct {
	typ      *valuetype.Type
	body     *interp.Program
	sizes    []int
	bindings []int
}

var genericLambdas = perType{
	cell.Double:   genericLambda[float64, cell.F64],
	cell.Float:    genericLambda[float32, cell.F32],
	cell.BFloat16: genericLambda[bfloat16, cell.BF16],
	cell.Int8:     genericLambda[int8, cell.I8],
}

// Lambda builds a dense value by running body for each cell. The
// parameters of body are the indices of the cell, as doubles, followed by
// the parameters of the enclosing program listed in bindings.
func Lambda(consts *stash.Stash, res *valuetype.Type, body *interp.Program, bindings []int) interp.Instruction {
	p := &lambdaParams{typ: res, body: body, bindings: bindings}
	for _, dim := range res.IndexedDims() {
		p.sizes = append(p.sizes, dim.Size)
	}
	return interp.Instruction{
		Op:    genericLambdas.get(res.CellType()),
		Param: keep(consts, p),
		Name:  "generic_lambda",
	}
}

func genericLambda[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*lambdaParams](st, param)
	out := stash.Make[T](st.Stash, p.typ.DenseSubspaceSize())
	nested := p.body.NewState(st.Factory, st.Stash)
	coords := make(cell.Array[float64], len(p.sizes))
	params := make([]value.Value, len(p.sizes)+len(p.bindings))
	for i := range p.sizes {
		params[i] = value.Dense(valuetype.Double(), coords[i:i+1])
	}
	for j, b := range p.bindings {
		params[len(p.sizes)+j] = st.Params[b]
	}
	var c C
	for k := range out {
		rem := k
		for i := len(p.sizes) - 1; i >= 0; i-- {
			coords[i] = float64(rem % p.sizes[i])
			rem /= p.sizes[i]
		}
		out[k] = c.Store(value.AsDouble(p.body.Run(nested, params)))
	}
	st.Push(value.Dense(p.typ, cell.Array[T](out)))
}

type mapSubspacesParams struct {
	typ     *valuetype.Type
	body    *interp.Program
	subType *valuetype.Type
}

var genericMapSubspaces = perType{
	cell.Double:   mapSubspaces[float64, cell.F64],
	cell.Float:    mapSubspaces[float32, cell.F32],
	cell.BFloat16: mapSubspaces[bfloat16, cell.BF16],
	cell.Int8:     mapSubspaces[int8, cell.I8],
}

// MapSubspaces runs body on each dense subspace of a value. The only
// parameter of body is the subspace, of the dense subspace type of child.
func MapSubspaces(consts *stash.Stash, child, res *valuetype.Type, body *interp.Program) interp.Instruction {
	return interp.Instruction{
		Op: genericMapSubspaces.get(res.CellType()),
		Param: keep(consts, &mapSubspacesParams{
			typ:     res,
			body:    body,
			subType: child.DenseSubspaceType(),
		}),
		Name: "generic_map_subspaces",
	}
}

func mapSubspaces[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*mapSubspacesParams](st, param)
	child := st.Peek(0)
	index := child.Index()
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, index.Size())
	nested := p.body.NewState(st.Factory, st.Stash)
	params := make([]value.Value, 1)
	var c C
	for s := range index.Size() {
		cells := value.Subspace(child, s)
		if cells.Type() != p.subType.CellType() {
			// Single cell subspaces are scalars, always double.
			cells = cell.Array[float64]{cells.At(0)}
		}
		params[0] = value.Dense(p.subType, cells)
		res := p.body.Run(nested, params).Cells()
		out := b.AddSubspace(index.Labels(s))
		for i := range out {
			out[i] = c.Store(res.At(i))
		}
	}
	st.PopPush(b.Build())
}
