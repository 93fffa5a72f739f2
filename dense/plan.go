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

// Package dense plans the loop nests combining the dense subspaces of
// tensors without materializing intermediate results.
package dense

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// Strides returns the stride of each dimension of a row-major block
// whose axes are the given dimensions.
func Strides(dims []valuetype.Dimension) []int {
	strides := make([]int, len(dims))
	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= dims[i].Size
	}
	return strides
}

// strideOf returns the stride of a dimension in a block or 0 if the block
// does not have the dimension.
func strideOf(dims []valuetype.Dimension, strides []int, name string) int {
	for i, dim := range dims {
		if dim.Name == name {
			return strides[i]
		}
	}
	return 0
}

// unionDims returns the nontrivial indexed dimensions of a and b sorted by
// name. Dimensions in both keep the smallest size.
func unionDims(a, b *valuetype.Type) []valuetype.Dimension {
	dims := slices.Clone(a.NontrivialIndexedDims())
	for _, dim := range b.NontrivialIndexedDims() {
		i := slices.IndexFunc(dims, func(d valuetype.Dimension) bool { return d.Name == dim.Name })
		if i < 0 {
			dims = append(dims, dim)
			continue
		}
		dims[i].Size = min(dims[i].Size, dim.Size)
	}
	slices.SortFunc(dims, func(x, y valuetype.Dimension) int {
		return strings.Compare(x.Name, y.Name)
	})
	return dims
}

// JoinReducePlan is a loop nest combining the dense subspaces of two
// operands into a result. Each level of the nest has an iteration count
// and a stride for each operand and for the result.
type JoinReducePlan struct {
	LhsSize, RhsSize, ResSize int

	LoopCnt   []int
	LhsStride []int
	RhsStride []int
	ResStride []int
}

// NewJoinReducePlan returns the plan combining the dense subspaces of lhs
// and rhs into the dense subspace of res. Dimensions of lhs or rhs absent
// from res are reduced.
func NewJoinReducePlan(lhs, rhs, res *valuetype.Type) *JoinReducePlan {
	p := &JoinReducePlan{
		LhsSize: lhs.DenseSubspaceSize(),
		RhsSize: rhs.DenseSubspaceSize(),
		ResSize: res.DenseSubspaceSize(),
	}
	lhsDims, rhsDims, resDims := lhs.IndexedDims(), rhs.IndexedDims(), res.IndexedDims()
	lhsStrides, rhsStrides, resStrides := Strides(lhsDims), Strides(rhsDims), Strides(resDims)
	for _, dim := range unionDims(lhs, rhs) {
		p.add(dim.Size,
			strideOf(lhsDims, lhsStrides, dim.Name),
			strideOf(rhsDims, rhsStrides, dim.Name),
			strideOf(resDims, resStrides, dim.Name))
	}
	return p
}

// NewJoinPlan returns the plan joining the dense subspaces of lhs and rhs.
func NewJoinPlan(lhs, rhs *valuetype.Type) *JoinReducePlan {
	return NewJoinReducePlan(lhs, rhs, valuetype.Join(lhs.StripMapped(), rhs.StripMapped()))
}

// add appends a loop level, merging it into the previous level when the
// previous level strides are those of the new level scaled by its count.
func (p *JoinReducePlan) add(cnt, lhs, rhs, res int) {
	if n := len(p.LoopCnt); n > 0 &&
		p.LhsStride[n-1] == lhs*cnt &&
		p.RhsStride[n-1] == rhs*cnt &&
		p.ResStride[n-1] == res*cnt {
		p.LoopCnt[n-1] *= cnt
		p.LhsStride[n-1] = lhs
		p.RhsStride[n-1] = rhs
		p.ResStride[n-1] = res
		return
	}
	p.LoopCnt = append(p.LoopCnt, cnt)
	p.LhsStride = append(p.LhsStride, lhs)
	p.RhsStride = append(p.RhsStride, rhs)
	p.ResStride = append(p.ResStride, res)
}

// DistinctResult returns true if every iteration of the nest writes a
// different result cell, that is if no dimension is reduced.
func (p *JoinReducePlan) DistinctResult() bool {
	return !slices.Contains(p.ResStride, 0)
}

// String returns a description of the plan for debugging.
func (p *JoinReducePlan) String() string {
	return fmt.Sprintf("loop:%v lhs:%v rhs:%v res:%v", p.LoopCnt, p.LhsStride, p.RhsStride, p.ResStride)
}
