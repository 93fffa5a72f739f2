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

type castParams struct {
	typ     *valuetype.Type
	convert cell.Converter
}

// CellCast converts all the cells of a value, element by element.
func CellCast(consts *stash.Stash, child, res *valuetype.Type) interp.Instruction {
	return interp.Instruction{
		Op:    castCells,
		Param: keep(consts, &castParams{typ: res, convert: cell.Convert}),
		Name:  "generic_cell_cast",
	}
}

// CastNoop relabels a value with a type of the same cell kind.
func CastNoop(consts *stash.Stash, res *valuetype.Type) interp.Instruction {
	return interp.Instruction{
		Op:    relabel,
		Param: keep(consts, res),
		Name:  "cell_cast_noop",
	}
}

// CastBFloat16ToFloat converts bfloat16 cells to float with a batch
// routine selected for the CPU.
func CastBFloat16ToFloat(consts *stash.Stash, res *valuetype.Type) interp.Instruction {
	return interp.Instruction{
		Op:    castBFloat16ToFloat,
		Param: keep(consts, res),
		Name:  "cell_cast_bfloat16_to_float",
	}
}

// CastConvert converts cells with the converter of a pair of cell kinds
// selected at compile time.
func CastConvert(consts *stash.Stash, child, res *valuetype.Type) interp.Instruction {
	return interp.Instruction{
		Op:    castCells,
		Param: keep(consts, &castParams{typ: res, convert: cell.ConverterFor(child.CellType(), res.CellType())}),
		Name:  "cell_cast_convert",
	}
}

func castCells(st *interp.State, param uint64) {
	p := interp.Param[*castParams](st, param)
	child := st.Peek(0)
	out := stash.MakeCells(st.Stash, p.typ.CellType(), child.Cells().Len())
	p.convert(child.Cells(), out)
	st.PopPush(value.New(p.typ, out, child.Index()))
}

func castBFloat16ToFloat(st *interp.State, param uint64) {
	typ := interp.Param[*valuetype.Type](st, param)
	child := st.Peek(0)
	in := cell.Typed[bfloat16](child.Cells())
	out := stash.Make[float32](st.Stash, len(in))
	cell.ConvertBFloat16ToFloat(in, out)
	st.PopPush(value.New(typ, cell.Array[float32](out), child.Index()))
}

// relabel replaces the type of the value at the top of the stack.
// Cells and index are shared with the operand.
func relabel(st *interp.State, param uint64) {
	typ := interp.Param[*valuetype.Type](st, param)
	child := st.Peek(0)
	st.PopPush(value.New(typ, child.Cells(), child.Index()))
}
