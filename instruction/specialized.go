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
	"golang.org/x/exp/constraints"

	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type (
	// numeric are the cell kinds on which Go arithmetic operates directly.
	numeric interface {
		cell.Value
		constraints.Float | ~int8
	}

	floating interface {
		cell.Value
		constraints.Float
	}
)

var l2Distances = perType{
	cell.Double: l2Distance[float64],
	cell.Float:  l2Distance[float32],
	cell.Int8:   l2Distance[int8],
}

// L2Distance computes the sum of the squared differences of the cells of
// two dense values with the same cells. It returns false for cell kinds
// without a specialised routine.
func L2Distance(ct cell.Type) (interp.Instruction, bool) {
	op := l2Distances.get(ct)
	return interp.Instruction{Op: op, Name: "l2_distance"}, op != nil
}

func l2Distance[T numeric](st *interp.State, _ uint64) {
	a, b := cell.Typed[T](st.Peek(1).Cells()), cell.Typed[T](st.Peek(0).Cells())
	var sum float64
	for i, x := range a {
		d := float64(x) - float64(b[i])
		sum += d * d
	}
	st.PopNPush(2, value.Scalar(sum))
}

var sparseDotProducts = perType{
	cell.Double:   sparseDotProduct[float64, cell.F64],
	cell.Float:    sparseDotProduct[float32, cell.F32],
	cell.BFloat16: sparseDotProduct[bfloat16, cell.BF16],
	cell.Int8:     sparseDotProduct[int8, cell.I8],
}

// SparseDotProduct computes the sum of the products of the cells of two
// sparse values with the same dimensions and cell kind.
func SparseDotProduct(consts *stash.Stash, operands *valuetype.Type) interp.Instruction {
	return interp.Instruction{
		Op:    sparseDotProducts.get(operands.CellType()),
		Param: keep(consts, allDims(operands)),
		Name:  "sparse_dot_product",
	}
}

func sparseDotProduct[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	dims := interp.Param[[]int](st, param)
	small, large := st.Peek(1), st.Peek(0)
	if small.Index().Size() > large.Index().Size() {
		small, large = large, small
	}
	sc, lc := cell.Typed[T](small.Cells()), cell.Typed[T](large.Cells())
	si, li := small.Index(), large.Index()
	view := li.CreateView(dims)
	var c C
	var sum float64
	for s := range si.Size() {
		if l := find(li, view, si.Labels(s)); l >= 0 {
			sum += c.Load(sc[s]) * c.Load(lc[l])
		}
	}
	st.PopNPush(2, value.Scalar(sum))
}

type weightedSumParams struct {
	typ *valuetype.Type
	// inner is the number of weights.
	inner int
	// weightsFirst is true if the weights are below the mixed operand on
	// the stack.
	weightsFirst bool
}

var weightedSums = perType{
	cell.Double: mixedWeightedSum[float64],
	cell.Float:  mixedWeightedSum[float32],
}

// SupportsMixedWeightedSum returns true if weighted sums of cells of kind
// ct have a specialised routine.
func SupportsMixedWeightedSum(ct cell.Type) bool {
	return weightedSums.get(ct) != nil
}

// MixedWeightedSum computes the weighted sums of the innermost dense cells
// of a mixed value, without materializing the product of the operands.
// It returns false for cell kinds without a specialised routine.
func MixedWeightedSum(consts *stash.Stash, weights, mixed, res *valuetype.Type, weightsFirst bool) (interp.Instruction, bool) {
	if !SupportsMixedWeightedSum(res.CellType()) {
		return interp.Instruction{}, false
	}
	return interp.Instruction{
		Op: weightedSums.get(res.CellType()),
		Param: keep(consts, &weightedSumParams{
			typ:          res,
			inner:        weights.DenseSubspaceSize(),
			weightsFirst: weightsFirst,
		}),
		Name: "mixed_weighted_sum",
	}, true
}

func mixedWeightedSum[T floating](st *interp.State, param uint64) {
	p := interp.Param[*weightedSumParams](st, param)
	weights, mixed := st.Peek(0), st.Peek(1)
	if p.weightsFirst {
		weights, mixed = mixed, weights
	}
	w, m := cell.Typed[T](weights.Cells()), cell.Typed[T](mixed.Cells())
	out := stash.Make[T](st.Stash, len(m)/p.inner)
	for k := range out {
		var sum T
		for i, x := range m[k*p.inner : (k+1)*p.inner] {
			sum += x * w[i]
		}
		out[k] = sum
	}
	st.PopNPush(2, value.New(p.typ, cell.Array[T](out), mixed.Index()))
}

type sparseJoinParams struct {
	typ    *valuetype.Type
	fn     func(float64, float64) float64
	sparse *sparsePlan
	dims   []int
}

var fullOverlapJoins = perType{
	cell.Double:   fullOverlapJoin[float64, cell.F64],
	cell.Float:    fullOverlapJoin[float32, cell.F32],
	cell.BFloat16: fullOverlapJoin[bfloat16, cell.BF16],
	cell.Int8:     fullOverlapJoin[int8, cell.I8],
}

// SparseFullOverlapJoin joins two sparse values with the same dimensions
// by looking up each subspace of the left operand in the right one.
func SparseFullOverlapJoin(consts *stash.Stash, lhs, rhs, res *valuetype.Type, fn func(float64, float64) float64) interp.Instruction {
	return interp.Instruction{
		Op:    fullOverlapJoins.get(res.CellType()),
		Param: keep(consts, &sparseJoinParams{typ: res, fn: fn, dims: allDims(rhs)}),
		Name:  "sparse_full_overlap_join",
	}
}

func fullOverlapJoin[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*sparseJoinParams](st, param)
	lhs, rhs := st.Peek(1), st.Peek(0)
	li, ri := lhs.Index(), rhs.Index()
	lc, rc := lhs.Cells(), rhs.Cells()
	view := ri.CreateView(p.dims)
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, min(li.Size(), ri.Size()))
	var c C
	for l := range li.Size() {
		labels := li.Labels(l)
		if r := find(ri, view, labels); r >= 0 {
			b.AddSubspace(labels)[0] = c.Store(p.fn(lc.At(l), rc.At(r)))
		}
	}
	st.PopNPush(2, b.Build())
}

var noOverlapJoins = perType{
	cell.Double:   noOverlapJoin[float64, cell.F64],
	cell.Float:    noOverlapJoin[float32, cell.F32],
	cell.BFloat16: noOverlapJoin[bfloat16, cell.BF16],
	cell.Int8:     noOverlapJoin[int8, cell.I8],
}

// SparseNoOverlapJoin joins two sparse values without common dimensions:
// the result has a subspace for every pair of subspaces of the operands.
func SparseNoOverlapJoin(consts *stash.Stash, lhs, rhs, res *valuetype.Type, fn func(float64, float64) float64) interp.Instruction {
	return interp.Instruction{
		Op:    noOverlapJoins.get(res.CellType()),
		Param: keep(consts, &sparseJoinParams{typ: res, fn: fn, sparse: newSparsePlan(lhs, rhs)}),
		Name:  "sparse_no_overlap_join",
	}
}

func noOverlapJoin[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*sparseJoinParams](st, param)
	lhs, rhs := st.Peek(1), st.Peek(0)
	li, ri := lhs.Index(), rhs.Index()
	lc, rc := lhs.Cells(), rhs.Cells()
	labels := make([]label.ID, len(p.sparse.sources))
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, li.Size()*ri.Size())
	var c C
	for l := range li.Size() {
		ll := li.Labels(l)
		x := lc.At(l)
		for r := range ri.Size() {
			rl := ri.Labels(r)
			for i, src := range p.sparse.sources {
				if src.fromRhs {
					labels[i] = rl[src.pos]
				} else {
					labels[i] = ll[src.pos]
				}
			}
			b.AddSubspace(labels)[0] = c.Store(p.fn(x, rc.At(r)))
		}
	}
	st.PopNPush(2, b.Build())
}
