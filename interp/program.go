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
	"fmt"
	"strings"

	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
)

type (
	// Op is an execution routine. It reads its operands from the stack of
	// the state and replaces them with its result.
	Op func(st *State, param uint64)

	// Instruction is an execution routine and its immediate parameter.
	// The parameter is either a number or the handle of a parameter block
	// kept in the compile-time stash of the program.
	Instruction struct {
		Op    Op
		Param uint64
		// Name of the routine, used to inspect programs.
		Name string
	}

	// Program is a sequence of instructions sharing a compile-time stash.
	// Programs are immutable and can be run concurrently, each run with its
	// own state.
	Program struct {
		code   []Instruction
		consts *stash.Stash
	}
)

// NewProgram returns a program.
func NewProgram(code []Instruction, consts *stash.Stash) *Program {
	return &Program{code: code, consts: consts}
}

// Consts returns the compile-time stash of the program.
func (p *Program) Consts() *stash.Stash {
	return p.consts
}

// Instructions returns the instructions of the program.
func (p *Program) Instructions() []Instruction {
	return p.code
}

// Count returns the number of instructions running a given routine.
func (p *Program) Count(name string) int {
	n := 0
	for _, inst := range p.code {
		if inst.Name == name {
			n++
		}
	}
	return n
}

// NewState returns a state to run the program.
func (p *Program) NewState(f value.Factory, arena *stash.Stash) *State {
	return NewState(p.consts, f, arena)
}

// Run the program with a set of parameters and return its result.
func (p *Program) Run(st *State, params []value.Value) value.Value {
	st.Init(params)
	for _, inst := range p.code {
		inst.Op(st, inst.Param)
	}
	return st.Pop()
}

// String returns the list of instructions of the program.
func (p *Program) String() string {
	var s strings.Builder
	for i, inst := range p.code {
		fmt.Fprintf(&s, "%d: %s(%d)\n", i, inst.Name, inst.Param)
	}
	return s.String()
}
