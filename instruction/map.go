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
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type mapParams struct {
	typ *valuetype.Type
	fn  func(float64) float64
}

var genericMaps = perType{
	cell.Double:   genericMap[float64, cell.F64],
	cell.Float:    genericMap[float32, cell.F32],
	cell.BFloat16: genericMap[bfloat16, cell.BF16],
	cell.Int8:     genericMap[int8, cell.I8],
}

// Map applies a unary function to all the cells of a value.
func Map(consts *stash.Stash, res *valuetype.Type, fn *operation.Unary) interp.Instruction {
	return interp.Instruction{
		Op:    genericMaps.get(res.CellType()),
		Param: keep(consts, &mapParams{typ: res, fn: fn.F}),
		Name:  "generic_map",
	}
}

func genericMap[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*mapParams](st, param)
	child := st.Peek(0)
	in := load(st, child.Cells())
	out := stash.Make[T](st.Stash, len(in))
	var c C
	for i, x := range in {
		out[i] = c.Store(p.fn(x))
	}
	st.PopPush(value.New(p.typ, cell.Array[T](out), child.Index()))
}

// mixedMaps are indexed by the cell kinds of the operand and of the result.
var mixedMaps = [cell.NumTypes][cell.NumTypes]interp.Op{
	cell.Double:   mixedMapRow[float64, cell.F64](),
	cell.Float:    mixedMapRow[float32, cell.F32](),
	cell.BFloat16: mixedMapRow[bfloat16, cell.BF16](),
	cell.Int8:     mixedMapRow[int8, cell.I8](),
}

func mixedMapRow[I cell.Value, IC cell.Codec[I]]() [cell.NumTypes]interp.Op {
	return [cell.NumTypes]interp.Op{
		cell.Double:   mixedMap[I, float64, IC, cell.F64],
		cell.Float:    mixedMap[I, float32, IC, cell.F32],
		cell.BFloat16: mixedMap[I, bfloat16, IC, cell.BF16],
		cell.Int8:     mixedMap[I, int8, IC, cell.I8],
	}
}

var inplaceMaps = perType{
	cell.Double:   inplaceMap[float64, cell.F64],
	cell.Float:    inplaceMap[float32, cell.F32],
	cell.BFloat16: inplaceMap[bfloat16, cell.BF16],
	cell.Int8:     inplaceMap[int8, cell.I8],
}

// MixedMap applies a unary function to the cells of a non-scalar value.
// When inplace is true, the cells of the operand are overwritten: the
// operand must be a value created by the evaluation and not aliased, and
// it must have the cell kind of the result.
func MixedMap(consts *stash.Stash, child, res *valuetype.Type, fn *operation.Unary, inplace bool) interp.Instruction {
	param := keep(consts, &mapParams{typ: res, fn: fn.F})
	if inplace && child.CellType() == res.CellType() {
		return interp.Instruction{Op: inplaceMaps.get(res.CellType()), Param: param, Name: "mixed_map_inplace"}
	}
	return interp.Instruction{Op: mixedMaps[child.CellType()][res.CellType()], Param: param, Name: "mixed_map"}
}

func mixedMap[I, O cell.Value, IC cell.Codec[I], OC cell.Codec[O]](st *interp.State, param uint64) {
	p := interp.Param[*mapParams](st, param)
	child := st.Peek(0)
	in := cell.Typed[I](child.Cells())
	out := stash.Make[O](st.Stash, len(in))
	var ic IC
	var oc OC
	for i, x := range in {
		out[i] = oc.Store(p.fn(ic.Load(x)))
	}
	st.PopPush(value.New(p.typ, cell.Array[O](out), child.Index()))
}

func inplaceMap[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*mapParams](st, param)
	child := st.Peek(0)
	cells := cell.Typed[T](child.Cells())
	var c C
	for i, x := range cells {
		cells[i] = c.Store(p.fn(c.Load(x)))
	}
	st.PopPush(value.New(p.typ, child.Cells(), child.Index()))
}
