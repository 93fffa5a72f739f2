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

package interp

import (
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
)

// State is the execution state of a program: the parameters of the
// evaluation, the value stack and the stash in which cells are allocated.
//
// A state is used by a single goroutine.
type State struct {
	// Params are the values of the parameters of the evaluation.
	Params []value.Value
	// Stash is the arena of the evaluation.
	Stash *stash.Stash
	// Factory builds the indices of the values created by the evaluation.
	Factory value.Factory

	consts *stash.Stash
	stack  []value.Value
}

// NewState returns a state to run programs sharing the given constants.
func NewState(consts *stash.Stash, f value.Factory, arena *stash.Stash) *State {
	return &State{
		Stash:   arena,
		Factory: f,
		consts:  consts,
	}
}

// Init prepares the state for a new run. The stash is not reset.
func (st *State) Init(params []value.Value) {
	st.Params = params
	clear(st.stack)
	st.stack = st.stack[:0]
}

// Consts returns the compile-time stash of the program.
func (st *State) Consts() *stash.Stash {
	return st.consts
}

// Peek returns a value on the stack: 0 is the top of the stack.
func (st *State) Peek(i int) value.Value {
	return st.stack[len(st.stack)-1-i]
}

// Push a value on the stack.
func (st *State) Push(v value.Value) {
	st.stack = append(st.stack, v)
}

// Pop a value from the stack.
func (st *State) Pop() value.Value {
	v := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	return v
}

// PopPush replaces the value at the top of the stack.
func (st *State) PopPush(v value.Value) {
	st.stack[len(st.stack)-1] = v
}

// PopNPush replaces the n values at the top of the stack by v.
func (st *State) PopNPush(n int, v value.Value) {
	st.stack = append(st.stack[:len(st.stack)-n], v)
}

// Depth returns the number of values on the stack.
func (st *State) Depth() int {
	return len(st.stack)
}

// Param returns a parameter block kept in the compile-time stash.
func Param[T any](st *State, param uint64) T {
	return stash.Get[T](st.consts, stash.Handle(param))
}
