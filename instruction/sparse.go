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
	"slices"

	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// source locates a mapped dimension of a result in one of two operands.
type source struct {
	fromRhs bool
	pos     int
}

// sparsePlan pairs the subspaces of two operands agreeing on the labels of
// their common mapped dimensions.
type sparsePlan struct {
	lhsOverlap []int
	rhsOverlap []int
	rhsRest    int
	sources    []source
}

func newSparsePlan(lhs, rhs *valuetype.Type) *sparsePlan {
	lhsDims, rhsDims := lhs.MappedDimNames(), rhs.MappedDimNames()
	p := &sparsePlan{}
	for i, name := range lhsDims {
		if j := slices.Index(rhsDims, name); j >= 0 {
			p.lhsOverlap = append(p.lhsOverlap, i)
			p.rhsOverlap = append(p.rhsOverlap, j)
		}
	}
	names := slices.Clone(lhsDims)
	for _, name := range rhsDims {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		if i := slices.Index(lhsDims, name); i >= 0 {
			p.sources = append(p.sources, source{pos: i})
			continue
		}
		p.sources = append(p.sources, source{fromRhs: true, pos: slices.Index(rhsDims, name)})
	}
	p.rhsRest = len(rhsDims) - len(p.rhsOverlap)
	return p
}

// fullOverlap returns true if both operands have the same mapped dimensions.
func (p *sparsePlan) fullOverlap() bool {
	return len(p.lhsOverlap) == len(p.sources)
}

// each calls f for every pair of matching subspaces with the labels of
// the result subspace. labels is reused between calls.
func (p *sparsePlan) each(lhs, rhs value.Index, f func(lhsSub, rhsSub int, labels []label.ID)) {
	view := rhs.CreateView(p.rhsOverlap)
	addr := make([]label.ID, len(p.lhsOverlap))
	labels := make([]label.ID, len(p.sources))
	rest := make([]label.ID, p.rhsRest)
	for ls := range lhs.Size() {
		lhsLabels := lhs.Labels(ls)
		for i, pos := range p.lhsOverlap {
			addr[i] = lhsLabels[pos]
		}
		view.Lookup(addr)
		for {
			rs, ok := view.Next(rest)
			if !ok {
				break
			}
			rhsLabels := rhs.Labels(rs)
			for i, src := range p.sources {
				if src.fromRhs {
					labels[i] = rhsLabels[src.pos]
				} else {
					labels[i] = lhsLabels[src.pos]
				}
			}
			f(ls, rs, labels)
		}
	}
}

// find returns the subspace of index with the given labels or -1.
// All the mapped dimensions of the index must be given.
func find(index value.Index, view value.View, labels []label.ID) int {
	if fast, ok := index.(*value.FastIndex); ok {
		return fast.Lookup(labels)
	}
	view.Lookup(labels)
	if sub, ok := view.Next(nil); ok {
		return sub
	}
	return -1
}

func allDims(t *valuetype.Type) []int {
	dims := make([]int, t.CountMappedDims())
	for i := range dims {
		dims[i] = i
	}
	return dims
}
