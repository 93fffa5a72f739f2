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

// Package tree defines the operator trees of tensor expressions, their
// type checking and their compilation into programs.
package tree

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vespa-engine/vespa-sub064/base/stringseq"
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type (
	// Node of an operator tree.
	Node interface {
		// Children returns the slots holding the children of the node,
		// in evaluation order. Rewriting a slot replaces the child.
		Children() []*Node
		// Compile returns the instruction computing the node once the values
		// of its children are on the stack.
		Compile(c *Compiler) interp.Instruction
		// ResultIsMutable returns true if the value computed by the node is
		// created by the evaluation and not shared with any other value.
		ResultIsMutable() bool
		// String returns a description of the node without its children.
		String() string
	}

	// Scope is a node evaluating a body in its own parameter frame.
	Scope interface {
		Node
		// Body returns the slot holding the root of the body.
		Body() *Node
	}

	// Resolver is a node computing its type from the types of its children.
	// Nodes defined outside of this package implement it to be checked.
	Resolver interface {
		Node
		ResolveType(children []*valuetype.Type) *valuetype.Type
	}
)

type (
	// Inject is a parameter of the enclosing frame.
	Inject struct {
		Param int
	}

	// Const is a constant value.
	Const struct {
		Value value.Value
	}

	// Map applies a unary function to every cell.
	Map struct {
		Child Node
		Fn    *operation.Unary
	}

	// Join combines all pairs of cells agreeing on the common dimensions.
	Join struct {
		Lhs, Rhs Node
		Fn       *operation.Binary
	}

	// Merge combines two values with the same dimensions, subspace by subspace.
	Merge struct {
		Lhs, Rhs Node
		Fn       *operation.Binary
	}

	// Reduce aggregates cells over some dimensions, all if Dims is empty.
	Reduce struct {
		Child Node
		Aggr  operation.Aggr
		Dims  []string
	}

	// Rename renames the dimensions From to To.
	Rename struct {
		Child    Node
		From, To []string
	}

	// Concat appends two values along a dimension.
	Concat struct {
		Lhs, Rhs Node
		Dim      string
	}

	// PeekKey selects a label of a dimension, either a constant or computed
	// by an expression.
	PeekKey struct {
		Dim   string
		Label string
		// Expr computes the label if not nil.
		Expr Node
	}

	// Peek extracts the part of a value matching labels of some dimensions.
	Peek struct {
		Child Node
		Keys  []PeekKey
	}

	// CreateCell is a cell of a created value.
	CreateCell struct {
		Address tensorspec.Address
		Child   Node
	}

	// Create builds a value of a given type from scalar expressions.
	Create struct {
		Type  *valuetype.Type
		Cells []CreateCell
	}

	// Lambda builds a dense value by evaluating Fn for every cell.
	// Fn is evaluated in a frame made of the cell indices followed by the
	// parameters of the enclosing frame listed in Bindings.
	Lambda struct {
		Type     *valuetype.Type
		Bindings []int
		Fn       Node
	}

	// CellCast converts the cells to another kind.
	CellCast struct {
		Child Node
		To    cell.Type
	}

	// MapSubspaces evaluates Fn on each dense subspace.
	// Fn is evaluated in a frame made of the subspace only.
	MapSubspaces struct {
		Child Node
		Fn    Node
	}
)

var (
	_ Node  = (*Inject)(nil)
	_ Node  = (*Const)(nil)
	_ Node  = (*Map)(nil)
	_ Node  = (*Join)(nil)
	_ Node  = (*Merge)(nil)
	_ Node  = (*Reduce)(nil)
	_ Node  = (*Rename)(nil)
	_ Node  = (*Concat)(nil)
	_ Node  = (*Peek)(nil)
	_ Node  = (*Create)(nil)
	_ Scope = (*Lambda)(nil)
	_ Node  = (*CellCast)(nil)
	_ Scope = (*MapSubspaces)(nil)
)

// Children of the node.
func (n *Inject) Children() []*Node { return nil }

// ResultIsMutable returns false: parameters belong to the caller.
func (n *Inject) ResultIsMutable() bool { return false }

func (n *Inject) String() string { return fmt.Sprintf("inject(%d)", n.Param) }

// Children of the node.
func (n *Const) Children() []*Node { return nil }

// ResultIsMutable returns false: constants are shared by all evaluations.
func (n *Const) ResultIsMutable() bool { return false }

func (n *Const) String() string { return fmt.Sprintf("const(%s)", n.Value) }

// Children of the node.
func (n *Map) Children() []*Node { return []*Node{&n.Child} }

// ResultIsMutable returns true.
func (n *Map) ResultIsMutable() bool { return true }

func (n *Map) String() string { return fmt.Sprintf("map(%s)", n.Fn) }

// Children of the node.
func (n *Join) Children() []*Node { return []*Node{&n.Lhs, &n.Rhs} }

// ResultIsMutable returns true.
func (n *Join) ResultIsMutable() bool { return true }

func (n *Join) String() string { return fmt.Sprintf("join(%s)", n.Fn) }

// Children of the node.
func (n *Merge) Children() []*Node { return []*Node{&n.Lhs, &n.Rhs} }

// ResultIsMutable returns true.
func (n *Merge) ResultIsMutable() bool { return true }

func (n *Merge) String() string { return fmt.Sprintf("merge(%s)", n.Fn) }

// Children of the node.
func (n *Reduce) Children() []*Node { return []*Node{&n.Child} }

// ResultIsMutable returns true.
func (n *Reduce) ResultIsMutable() bool { return true }

func (n *Reduce) String() string {
	if len(n.Dims) == 0 {
		return fmt.Sprintf("reduce(%s)", n.Aggr)
	}
	return fmt.Sprintf("reduce(%s,%s)", n.Aggr, strings.Join(n.Dims, ","))
}

// Children of the node.
func (n *Rename) Children() []*Node { return []*Node{&n.Child} }

// ResultIsMutable returns true.
func (n *Rename) ResultIsMutable() bool { return true }

func (n *Rename) String() string {
	return fmt.Sprintf("rename(%s->%s)", strings.Join(n.From, ","), strings.Join(n.To, ","))
}

// Children of the node.
func (n *Concat) Children() []*Node { return []*Node{&n.Lhs, &n.Rhs} }

// ResultIsMutable returns true.
func (n *Concat) ResultIsMutable() bool { return true }

func (n *Concat) String() string { return fmt.Sprintf("concat(%s)", n.Dim) }

// Children returns the peeked value followed by the label expressions.
func (n *Peek) Children() []*Node {
	children := []*Node{&n.Child}
	for i := range n.Keys {
		if n.Keys[i].Expr != nil {
			children = append(children, &n.Keys[i].Expr)
		}
	}
	return children
}

// ResultIsMutable returns true.
func (n *Peek) ResultIsMutable() bool { return true }

func (n *Peek) String() string {
	return fmt.Sprintf("peek(%s)", stringseq.Join(slices.Values(n.Keys), ",", PeekKey.String))
}

func (k PeekKey) String() string {
	if k.Expr != nil {
		return k.Dim + ":(" + k.Expr.String() + ")"
	}
	return k.Dim + ":" + k.Label
}

// Children returns the expressions of the cells.
func (n *Create) Children() []*Node {
	children := make([]*Node, len(n.Cells))
	for i := range n.Cells {
		children[i] = &n.Cells[i].Child
	}
	return children
}

// ResultIsMutable returns true.
func (n *Create) ResultIsMutable() bool { return true }

func (n *Create) String() string { return fmt.Sprintf("create(%s)", n.Type) }

// Children returns nil: the body is evaluated in its own frame.
func (n *Lambda) Children() []*Node { return nil }

// Body of the lambda.
func (n *Lambda) Body() *Node { return &n.Fn }

// ResultIsMutable returns true.
func (n *Lambda) ResultIsMutable() bool { return true }

func (n *Lambda) String() string { return fmt.Sprintf("lambda(%s,%v)", n.Type, n.Bindings) }

// Children of the node.
func (n *CellCast) Children() []*Node { return []*Node{&n.Child} }

// ResultIsMutable returns true.
func (n *CellCast) ResultIsMutable() bool { return true }

func (n *CellCast) String() string { return fmt.Sprintf("cell_cast(%s)", n.To) }

// Children returns the mapped value.
func (n *MapSubspaces) Children() []*Node { return []*Node{&n.Child} }

// Body evaluated on each subspace.
func (n *MapSubspaces) Body() *Node { return &n.Fn }

// ResultIsMutable returns true.
func (n *MapSubspaces) ResultIsMutable() bool { return true }

func (n *MapSubspaces) String() string { return "map_subspaces" }

// Mutable memoizes the mutability of the result of a node.
// Nodes returning views on the value of a child use it to compute their
// mutability once, when first asked.
type Mutable struct {
	once    sync.Once
	mutable bool
}

// Of returns the mutability of the result of n, computed on the first call.
func (m *Mutable) Of(n Node) bool {
	m.once.Do(func() {
		m.mutable = n.ResultIsMutable()
	})
	return m.mutable
}
