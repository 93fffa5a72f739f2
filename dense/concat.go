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

package dense

import (
	"slices"

	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// CopyPlan is a loop nest copying a dense block into a larger one.
type CopyPlan struct {
	LoopCnt   []int
	InStride  []int
	OutStride []int
	// OutOffset is the position of the first copied cell in the output.
	OutOffset int
}

func (p *CopyPlan) add(cnt, in, out int) {
	if cnt == 1 {
		return
	}
	if n := len(p.LoopCnt); n > 0 &&
		p.InStride[n-1] == in*cnt &&
		p.OutStride[n-1] == out*cnt {
		p.LoopCnt[n-1] *= cnt
		p.InStride[n-1] = in
		p.OutStride[n-1] = out
		return
	}
	p.LoopCnt = append(p.LoopCnt, cnt)
	p.InStride = append(p.InStride, in)
	p.OutStride = append(p.OutStride, out)
}

// ConcatPlan copies the dense subspaces of two operands into the dense
// subspace of their concatenation.
type ConcatPlan struct {
	Left, Right CopyPlan
}

func newCopyPlan(in, res *valuetype.Type, dimension string, concatSize int) CopyPlan {
	var p CopyPlan
	inDims, resDims := in.IndexedDims(), res.IndexedDims()
	inStrides, resStrides := Strides(inDims), Strides(resDims)
	for i, dim := range resDims {
		cnt := dim.Size
		if dim.Name == dimension {
			cnt = concatSize
		} else if d, ok := in.Dimension(dim.Name); ok {
			cnt = min(cnt, d.Size)
		}
		p.add(cnt, strideOf(inDims, inStrides, dim.Name), resStrides[i])
	}
	return p
}

// NewConcatPlan returns the plan concatenating the dense subspaces of lhs
// and rhs along a dimension into the dense subspace of res.
func NewConcatPlan(lhs, rhs, res *valuetype.Type, dimension string) *ConcatPlan {
	sizeOf := func(t *valuetype.Type) int {
		if dim, ok := t.Dimension(dimension); ok {
			return dim.Size
		}
		return 1
	}
	lhsSize := sizeOf(lhs)
	p := &ConcatPlan{
		Left:  newCopyPlan(lhs, res, dimension, lhsSize),
		Right: newCopyPlan(rhs, res, dimension, sizeOf(rhs)),
	}
	resDims := res.IndexedDims()
	p.Right.OutOffset = lhsSize * strideOf(resDims, Strides(resDims), dimension)
	return p
}

// NewCopyPlan returns the plan copying the cells of the dense subspace of
// in addressed by the indexed dimensions of res. The dimension from[i] of
// in is named to[i] in res. Dimensions of in missing from res must be
// fixed by the caller through the input offset.
func NewCopyPlan(in, res *valuetype.Type, from, to []string) *CopyPlan {
	var p CopyPlan
	inDims, resDims := in.IndexedDims(), res.IndexedDims()
	inStrides, resStrides := Strides(inDims), Strides(resDims)
	for i, dim := range resDims {
		name := dim.Name
		if k := slices.Index(to, name); k >= 0 {
			name = from[k]
		}
		p.add(dim.Size, strideOf(inDims, inStrides, name), resStrides[i])
	}
	return &p
}
