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

package tree

import (
	"github.com/vespa-engine/vespa-sub064/instruction"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// Compiler lowers a typed tree into programs.
type Compiler struct {
	types    *NodeTypes
	consts   *stash.Stash
	programs []*interp.Program
}

// Compiled are the programs of a tree.
type Compiled struct {
	// Main is the program evaluating the tree.
	Main *interp.Program
	// Nested are the programs of the bodies of scopes.
	Nested []*interp.Program
}

// Count returns the number of instructions of all the programs running a
// given routine.
func (c *Compiled) Count(name string) int {
	n := c.Main.Count(name)
	for _, p := range c.Nested {
		n += p.Count(name)
	}
	return n
}

// Compile the tree into a program. The instructions of the program are
// those of a post-order walk of the tree.
func Compile(root Node, types *NodeTypes) *Compiled {
	c := &Compiler{types: types, consts: stash.New()}
	main := interp.NewProgram(c.code(root, nil), c.consts)
	return &Compiled{Main: main, Nested: c.programs}
}

func (c *Compiler) code(n Node, code []interp.Instruction) []interp.Instruction {
	for _, child := range n.Children() {
		code = c.code(*child, code)
	}
	return append(code, n.Compile(c))
}

// Type returns the type of a node.
func (c *Compiler) Type(n Node) *valuetype.Type {
	return c.types.Get(n)
}

// Consts returns the stash in which instruction parameters are kept.
func (c *Compiler) Consts() *stash.Stash {
	return c.consts
}

// Nested compiles the body of a scope into its own program.
func (c *Compiler) Nested(body Node) *interp.Program {
	p := interp.NewProgram(c.code(body, nil), c.consts)
	c.programs = append(c.programs, p)
	return p
}

// Compile returns the instruction pushing the parameter.
func (n *Inject) Compile(c *Compiler) interp.Instruction {
	return instruction.Inject(n.Param)
}

// Compile returns the instruction pushing the constant.
func (n *Const) Compile(c *Compiler) interp.Instruction {
	return instruction.Const(c.Consts(), n.Value)
}

// Compile returns the generic map instruction.
func (n *Map) Compile(c *Compiler) interp.Instruction {
	return instruction.Map(c.Consts(), c.Type(n), n.Fn)
}

// Compile returns the generic join instruction.
func (n *Join) Compile(c *Compiler) interp.Instruction {
	return instruction.Join(c.Consts(), c.Type(n.Lhs), c.Type(n.Rhs), c.Type(n), n.Fn)
}

// Compile returns the generic merge instruction.
func (n *Merge) Compile(c *Compiler) interp.Instruction {
	return instruction.Merge(c.Consts(), c.Type(n), n.Fn)
}

// Compile returns the generic reduce instruction.
func (n *Reduce) Compile(c *Compiler) interp.Instruction {
	return instruction.Reduce(c.Consts(), c.Type(n.Child), c.Type(n), n.Aggr)
}

// Compile returns the generic rename instruction.
func (n *Rename) Compile(c *Compiler) interp.Instruction {
	return instruction.Rename(c.Consts(), c.Type(n.Child), c.Type(n), n.From, n.To)
}

// Compile returns the generic concat instruction.
func (n *Concat) Compile(c *Compiler) interp.Instruction {
	return instruction.Concat(c.Consts(), c.Type(n.Lhs), c.Type(n.Rhs), c.Type(n), n.Dim)
}

// Compile returns the generic peek instruction.
func (n *Peek) Compile(c *Compiler) interp.Instruction {
	dims := make([]instruction.PeekDim, len(n.Keys))
	expr := 0
	for i, key := range n.Keys {
		dims[i] = instruction.PeekDim{Name: key.Dim, Label: key.Label, Expr: -1}
		if key.Expr != nil {
			dims[i].Expr = expr
			expr++
		}
	}
	return instruction.Peek(c.Consts(), c.Type(n.Child), c.Type(n), dims)
}

// Compile returns the generic create instruction.
func (n *Create) Compile(c *Compiler) interp.Instruction {
	addrs := make([]tensorspec.Address, len(n.Cells))
	for i, cc := range n.Cells {
		addrs[i] = cc.Address
	}
	return instruction.Create(c.Consts(), c.Type(n), addrs)
}

// Compile returns the generic lambda instruction.
func (n *Lambda) Compile(c *Compiler) interp.Instruction {
	return instruction.Lambda(c.Consts(), c.Type(n), c.Nested(n.Fn), n.Bindings)
}

// Compile returns the generic cell cast instruction.
func (n *CellCast) Compile(c *Compiler) interp.Instruction {
	return instruction.CellCast(c.Consts(), c.Type(n.Child), c.Type(n))
}

// Compile returns the generic instruction mapping subspaces.
func (n *MapSubspaces) Compile(c *Compiler) interp.Instruction {
	return instruction.MapSubspaces(c.Consts(), c.Type(n.Child), c.Type(n), c.Nested(n.Fn))
}
