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

package optimize

import (
	"fmt"

	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/instruction"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/tree"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type (
	// L2Distance is the sum of the squared differences of two dense values
	// with the same cells.
	L2Distance struct {
		Lhs, Rhs tree.Node
	}

	// SparseDotProduct is the sum of the products of the cells of two
	// sparse values with the same type.
	SparseDotProduct struct {
		Lhs, Rhs tree.Node
	}

	// MixedWeightedSum reduces the product of a mixed value and dense
	// weights over the dimensions of the weights.
	MixedWeightedSum struct {
		Weights, Mixed tree.Node
		// WeightsFirst is true if the weights are the left operand.
		WeightsFirst bool
	}

	// SparseJoin joins two sparse values either with the same dimensions or
	// without any common dimension.
	SparseJoin struct {
		Lhs, Rhs    tree.Node
		Fn          *operation.Binary
		FullOverlap bool
	}

	// MixedMap maps the cells of a non-scalar value, overwriting the cells of
	// its operand when Inplace is true.
	MixedMap struct {
		Child   tree.Node
		Fn      *operation.Unary
		Inplace bool
	}

	// FastRename renames dimensions without moving any cell.
	FastRename struct {
		Child    tree.Node
		From, To []string

		mutable tree.Mutable
	}

	// SparseSingleDimLookup peeks into a value with a single mapped
	// dimension.
	SparseSingleDimLookup struct {
		Child, Key tree.Node
	}

	// FastCellCast converts cells with a routine selected for the pair of
	// cell kinds.
	FastCellCast struct {
		Child tree.Node
		To    cell.Type
		// Noop is true if the operand already has cells of kind To.
		Noop bool

		mutable tree.Mutable
	}
)

var (
	_ tree.Resolver = (*L2Distance)(nil)
	_ tree.Resolver = (*SparseDotProduct)(nil)
	_ tree.Resolver = (*MixedWeightedSum)(nil)
	_ tree.Resolver = (*SparseJoin)(nil)
	_ tree.Resolver = (*MixedMap)(nil)
	_ tree.Resolver = (*FastRename)(nil)
	_ tree.Resolver = (*SparseSingleDimLookup)(nil)
	_ tree.Resolver = (*FastCellCast)(nil)
)

// Children of the node.
func (n *L2Distance) Children() []*tree.Node { return []*tree.Node{&n.Lhs, &n.Rhs} }

// ResolveType returns double for dense operands with the same cells.
func (n *L2Distance) ResolveType(children []*valuetype.Type) *valuetype.Type {
	lhs, rhs := children[0], children[1]
	if !lhs.IsDense() || !sameDenseCells(lhs, rhs) {
		return valuetype.Error()
	}
	return valuetype.Double()
}

// Compile returns the specialised instruction.
func (n *L2Distance) Compile(c *tree.Compiler) interp.Instruction {
	inst, _ := instruction.L2Distance(c.Type(n.Lhs).CellType())
	return inst
}

// ResultIsMutable returns true.
func (n *L2Distance) ResultIsMutable() bool { return true }

func (n *L2Distance) String() string { return "l2_distance" }

// Children of the node.
func (n *SparseDotProduct) Children() []*tree.Node { return []*tree.Node{&n.Lhs, &n.Rhs} }

// ResolveType returns double for sparse operands of the same type.
func (n *SparseDotProduct) ResolveType(children []*valuetype.Type) *valuetype.Type {
	if !children[0].IsSparse() || !children[0].Equal(children[1]) {
		return valuetype.Error()
	}
	return valuetype.Double()
}

// Compile returns the specialised instruction.
func (n *SparseDotProduct) Compile(c *tree.Compiler) interp.Instruction {
	return instruction.SparseDotProduct(c.Consts(), c.Type(n.Lhs))
}

// ResultIsMutable returns true.
func (n *SparseDotProduct) ResultIsMutable() bool { return true }

func (n *SparseDotProduct) String() string { return "sparse_dot_product" }

// Children returns the operands in evaluation order.
func (n *MixedWeightedSum) Children() []*tree.Node {
	if n.WeightsFirst {
		return []*tree.Node{&n.Weights, &n.Mixed}
	}
	return []*tree.Node{&n.Mixed, &n.Weights}
}

// ResolveType returns the type of the reduced product.
func (n *MixedWeightedSum) ResolveType(children []*valuetype.Type) *valuetype.Type {
	w, m := children[1], children[0]
	if n.WeightsFirst {
		w, m = m, w
	}
	return valuetype.Reduce(valuetype.Join(w, m), w.DimensionNames())
}

// Compile returns the specialised instruction.
func (n *MixedWeightedSum) Compile(c *tree.Compiler) interp.Instruction {
	inst, _ := instruction.MixedWeightedSum(c.Consts(), c.Type(n.Weights), c.Type(n.Mixed), c.Type(n), n.WeightsFirst)
	return inst
}

// ResultIsMutable returns true.
func (n *MixedWeightedSum) ResultIsMutable() bool { return true }

func (n *MixedWeightedSum) String() string { return "mixed_weighted_sum" }

// Children of the node.
func (n *SparseJoin) Children() []*tree.Node { return []*tree.Node{&n.Lhs, &n.Rhs} }

// ResolveType returns the type of the join.
func (n *SparseJoin) ResolveType(children []*valuetype.Type) *valuetype.Type {
	return valuetype.Join(children[0], children[1])
}

// Compile returns the specialised instruction.
func (n *SparseJoin) Compile(c *tree.Compiler) interp.Instruction {
	lhs, rhs, res := c.Type(n.Lhs), c.Type(n.Rhs), c.Type(n)
	if n.FullOverlap {
		return instruction.SparseFullOverlapJoin(c.Consts(), lhs, rhs, res, n.Fn.F)
	}
	return instruction.SparseNoOverlapJoin(c.Consts(), lhs, rhs, res, n.Fn.F)
}

// ResultIsMutable returns true.
func (n *SparseJoin) ResultIsMutable() bool { return true }

func (n *SparseJoin) String() string {
	if n.FullOverlap {
		return fmt.Sprintf("sparse_full_overlap_join(%s)", n.Fn)
	}
	return fmt.Sprintf("sparse_no_overlap_join(%s)", n.Fn)
}

// Children of the node.
func (n *MixedMap) Children() []*tree.Node { return []*tree.Node{&n.Child} }

// ResolveType returns the type of the mapped value.
func (n *MixedMap) ResolveType(children []*valuetype.Type) *valuetype.Type {
	return valuetype.Map(children[0])
}

// Compile returns the specialised instruction.
func (n *MixedMap) Compile(c *tree.Compiler) interp.Instruction {
	return instruction.MixedMap(c.Consts(), c.Type(n.Child), c.Type(n), n.Fn, n.Inplace)
}

// ResultIsMutable returns true.
func (n *MixedMap) ResultIsMutable() bool { return true }

func (n *MixedMap) String() string {
	if n.Inplace {
		return fmt.Sprintf("mixed_map_inplace(%s)", n.Fn)
	}
	return fmt.Sprintf("mixed_map(%s)", n.Fn)
}

// Children of the node.
func (n *FastRename) Children() []*tree.Node { return []*tree.Node{&n.Child} }

// ResolveType returns the type of the renamed value.
func (n *FastRename) ResolveType(children []*valuetype.Type) *valuetype.Type {
	return valuetype.Rename(children[0], n.From, n.To)
}

// Compile returns the specialised instruction.
func (n *FastRename) Compile(c *tree.Compiler) interp.Instruction {
	return instruction.FastRename(c.Consts(), c.Type(n))
}

// ResultIsMutable returns the mutability of the operand: the result is a
// view on it.
func (n *FastRename) ResultIsMutable() bool { return n.mutable.Of(n.Child) }

func (n *FastRename) String() string { return "fast_rename" }

// Children returns the peeked value and the key.
func (n *SparseSingleDimLookup) Children() []*tree.Node { return []*tree.Node{&n.Child, &n.Key} }

// ResolveType returns double.
func (n *SparseSingleDimLookup) ResolveType(children []*valuetype.Type) *valuetype.Type {
	if !isSingleMapped(children[0]) || !children[1].IsDouble() {
		return valuetype.Error()
	}
	return valuetype.Double()
}

// Compile returns the specialised instruction.
func (n *SparseSingleDimLookup) Compile(c *tree.Compiler) interp.Instruction {
	return instruction.SparseSingleDimLookup()
}

// ResultIsMutable returns true.
func (n *SparseSingleDimLookup) ResultIsMutable() bool { return true }

func (n *SparseSingleDimLookup) String() string { return "sparse_single_dim_lookup" }

// Children of the node.
func (n *FastCellCast) Children() []*tree.Node { return []*tree.Node{&n.Child} }

// ResolveType returns the type of the converted value.
func (n *FastCellCast) ResolveType(children []*valuetype.Type) *valuetype.Type {
	return valuetype.CellCast(children[0], n.To)
}

// Compile returns the instruction specialised for the pair of cell kinds.
func (n *FastCellCast) Compile(c *tree.Compiler) interp.Instruction {
	from, res := c.Type(n.Child), c.Type(n)
	switch {
	case n.Noop:
		return instruction.CastNoop(c.Consts(), res)
	case from.CellType() == cell.BFloat16 && n.To == cell.Float:
		return instruction.CastBFloat16ToFloat(c.Consts(), res)
	}
	return instruction.CastConvert(c.Consts(), from, res)
}

// ResultIsMutable returns true unless the cast is a view on its operand.
func (n *FastCellCast) ResultIsMutable() bool {
	if n.Noop {
		return n.mutable.Of(n.Child)
	}
	return true
}

func (n *FastCellCast) String() string { return fmt.Sprintf("fast_cell_cast(%s)", n.To) }
