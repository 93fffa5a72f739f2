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

// Package instruction implements the execution routines of programs.
//
// Constructors select, at compile time, the routine specialised for the
// cell kinds involved and keep its parameters in the compile-time stash.
// Routines never modify their operands: results are either fresh values
// allocated in the stash of the evaluation or views aliasing the cells
// and the index of an operand.
package instruction

import (
	"github.com/gx-org/backend/dtype"
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
)

type bfloat16 = dtype.Bfloat16T

// perType is a table of routines indexed by the cell kind of their result.
type perType [cell.NumTypes]interp.Op

func (ops *perType) get(t cell.Type) interp.Op {
	return ops[t]
}

func keep(consts *stash.Stash, params any) uint64 {
	return uint64(consts.Keep(params))
}

// load returns the cells of a value as float64 without copying double cells.
func load(st *interp.State, ref cell.Ref) []float64 {
	if ref.Type() == cell.Double {
		return cell.Typed[float64](ref)
	}
	return ref.Float64s(stash.Make[float64](st.Stash, ref.Len()))
}

// Inject pushes a parameter of the evaluation.
func Inject(index int) interp.Instruction {
	return interp.Instruction{Op: inject, Param: uint64(index), Name: "inject"}
}

func inject(st *interp.State, param uint64) {
	st.Push(st.Params[param])
}

// Const pushes a constant value.
func Const(consts *stash.Stash, v value.Value) interp.Instruction {
	return interp.Instruction{Op: pushConst, Param: keep(consts, v), Name: "const"}
}

func pushConst(st *interp.State, param uint64) {
	st.Push(interp.Param[value.Value](st, param))
}
