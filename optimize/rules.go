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
	"slices"

	"github.com/vespa-engine/vespa-sub064/instruction"
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/tree"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// asJoin matches joins, generic or sparse.
func asJoin(n tree.Node) (lhs, rhs tree.Node, fn *operation.Binary, ok bool) {
	switch nT := n.(type) {
	case *tree.Join:
		return nT.Lhs, nT.Rhs, nT.Fn, true
	case *SparseJoin:
		return nT.Lhs, nT.Rhs, nT.Fn, true
	}
	return nil, nil, nil, false
}

// asMap matches maps, generic or mixed.
func asMap(n tree.Node) (child tree.Node, fn *operation.Unary, ok bool) {
	switch nT := n.(type) {
	case *tree.Map:
		return nT.Child, nT.Fn, true
	case *MixedMap:
		return nT.Child, nT.Fn, true
	}
	return nil, nil, false
}

// fullSum returns the operand of a sum over all dimensions.
func fullSum(n tree.Node, types *tree.NodeTypes) (tree.Node, bool) {
	reduce, ok := n.(*tree.Reduce)
	if !ok || reduce.Aggr != operation.Sum || !types.Get(n).IsDouble() {
		return nil, false
	}
	return reduce.Child, true
}

func sameDenseCells(a, b *valuetype.Type) bool {
	return a.CellType() == b.CellType() &&
		slices.Equal(a.NontrivialIndexedDims(), b.NontrivialIndexedDims())
}

func isSingleMapped(t *valuetype.Type) bool {
	return t.NumDims() == 1 && t.CountMappedDims() == 1
}

func l2Distance(n tree.Node, types *tree.NodeTypes) tree.Node {
	child, ok := fullSum(n, types)
	if !ok {
		return nil
	}
	diff, fn, ok := asMap(child)
	if !ok || fn != operation.Square {
		return nil
	}
	lhs, rhs, op, ok := asJoin(diff)
	if !ok || op != operation.Sub {
		return nil
	}
	lt, rt := types.Get(lhs), types.Get(rhs)
	if !lt.IsDense() || !rt.IsDense() || !sameDenseCells(lt, rt) {
		return nil
	}
	if _, ok := instruction.L2Distance(lt.CellType()); !ok {
		return nil
	}
	return &L2Distance{Lhs: lhs, Rhs: rhs}
}

func sparseDotProduct(n tree.Node, types *tree.NodeTypes) tree.Node {
	child, ok := fullSum(n, types)
	if !ok {
		return nil
	}
	lhs, rhs, op, ok := asJoin(child)
	if !ok || op != operation.Mul {
		return nil
	}
	lt, rt := types.Get(lhs), types.Get(rhs)
	if !lt.IsSparse() || !lt.Equal(rt) {
		return nil
	}
	return &SparseDotProduct{Lhs: lhs, Rhs: rhs}
}

func mixedWeightedSum(n tree.Node, types *tree.NodeTypes) tree.Node {
	reduce, ok := n.(*tree.Reduce)
	if !ok || reduce.Aggr != operation.Sum {
		return nil
	}
	join, ok := reduce.Child.(*tree.Join)
	if !ok || join.Fn != operation.Mul {
		return nil
	}
	weights, mixed, weightsFirst := join.Lhs, join.Rhs, true
	if types.Get(mixed).IsDense() {
		weights, mixed, weightsFirst = mixed, weights, false
	}
	wt, mt := types.Get(weights), types.Get(mixed)
	if !wt.IsDense() || !mt.IsMixed() || wt.CellType() != mt.CellType() {
		return nil
	}
	wDims, mDims := wt.Dims(), mt.IndexedDims()
	if len(wDims) > len(mDims) || !slices.Equal(wDims, mDims[len(mDims)-len(wDims):]) {
		return nil
	}
	names := wt.DimensionNames()
	if len(reduce.Dims) != len(names) {
		return nil
	}
	for _, dim := range reduce.Dims {
		if !slices.Contains(names, dim) {
			return nil
		}
	}
	if !instruction.SupportsMixedWeightedSum(types.Get(n).CellType()) {
		return nil
	}
	return &MixedWeightedSum{Weights: weights, Mixed: mixed, WeightsFirst: weightsFirst}
}

func sparseJoinOperands(n tree.Node, types *tree.NodeTypes) (*tree.Join, []string, []string, bool) {
	join, ok := n.(*tree.Join)
	if !ok {
		return nil, nil, nil, false
	}
	lt, rt := types.Get(join.Lhs), types.Get(join.Rhs)
	if !lt.IsSparse() || !rt.IsSparse() {
		return nil, nil, nil, false
	}
	return join, lt.DimensionNames(), rt.DimensionNames(), true
}

func sparseFullOverlapJoin(n tree.Node, types *tree.NodeTypes) tree.Node {
	join, lhs, rhs, ok := sparseJoinOperands(n, types)
	if !ok || !slices.Equal(lhs, rhs) {
		return nil
	}
	return &SparseJoin{Lhs: join.Lhs, Rhs: join.Rhs, Fn: join.Fn, FullOverlap: true}
}

func sparseNoOverlapJoin(n tree.Node, types *tree.NodeTypes) tree.Node {
	join, lhs, rhs, ok := sparseJoinOperands(n, types)
	if !ok || slices.ContainsFunc(lhs, func(name string) bool { return slices.Contains(rhs, name) }) {
		return nil
	}
	return &SparseJoin{Lhs: join.Lhs, Rhs: join.Rhs, Fn: join.Fn}
}

func mixedMap(n tree.Node, types *tree.NodeTypes) tree.Node {
	m, ok := n.(*tree.Map)
	if !ok {
		return nil
	}
	ct := types.Get(m.Child)
	if !ct.HasDimensions() {
		return nil
	}
	return &MixedMap{
		Child:   m.Child,
		Fn:      m.Fn,
		Inplace: m.Child.ResultIsMutable() && ct.CellType() == types.Get(n).CellType(),
	}
}

// renamedInOrder returns true if renaming the dimensions names keeps them
// sorted in the same order as in want.
func renamedInOrder(names, want, from, to []string) bool {
	renamed := slices.Clone(names)
	for i, name := range renamed {
		if k := slices.Index(from, name); k >= 0 {
			renamed[i] = to[k]
		}
	}
	return slices.Equal(renamed, want)
}

func indexedNames(t *valuetype.Type) []string {
	var names []string
	for _, dim := range t.IndexedDims() {
		names = append(names, dim.Name)
	}
	return names
}

func fastRename(n tree.Node, types *tree.NodeTypes) tree.Node {
	rename, ok := n.(*tree.Rename)
	if !ok {
		return nil
	}
	ct, rt := types.Get(rename.Child), types.Get(n)
	if !renamedInOrder(ct.MappedDimNames(), rt.MappedDimNames(), rename.From, rename.To) ||
		!renamedInOrder(indexedNames(ct), indexedNames(rt), rename.From, rename.To) {
		return nil
	}
	return &FastRename{Child: rename.Child, From: rename.From, To: rename.To}
}

func sparseSingleDimLookup(n tree.Node, types *tree.NodeTypes) tree.Node {
	peek, ok := n.(*tree.Peek)
	if !ok || len(peek.Keys) != 1 || peek.Keys[0].Expr == nil {
		return nil
	}
	if !isSingleMapped(types.Get(peek.Child)) {
		return nil
	}
	return &SparseSingleDimLookup{Child: peek.Child, Key: peek.Keys[0].Expr}
}

func cellCast(n tree.Node, types *tree.NodeTypes) tree.Node {
	cast, ok := n.(*tree.CellCast)
	if !ok {
		return nil
	}
	return &FastCellCast{
		Child: cast.Child,
		To:    cast.To,
		Noop:  types.Get(cast.Child).CellType() == cast.To,
	}
}
