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

package value

import (
	"encoding/binary"

	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/sparse"
)

type (
	// Factory creates the indices of the values built during evaluations.
	Factory interface {
		// NewIndexBuilder returns a builder for an index over numDims mapped
		// dimensions expecting a given number of subspaces.
		NewIndexBuilder(numDims, expected int) IndexBuilder
	}

	// IndexBuilder assigns subspaces to label tuples in insertion order.
	IndexBuilder interface {
		// Lookup returns the subspace of a tuple already added or -1.
		Lookup(labels []label.ID) int
		// Add a new tuple and return its subspace.
		Add(labels []label.ID) int
		// Build returns the index. The builder cannot be used afterwards.
		Build() Index
	}
)

type trivialBuilder struct {
	added bool
}

func (b *trivialBuilder) Lookup([]label.ID) int {
	if b.added {
		return 0
	}
	return -1
}

func (b *trivialBuilder) Add([]label.ID) int {
	b.added = true
	return 0
}

func (b *trivialBuilder) Build() Index {
	return TrivialIndex()
}

// Simple is a factory of indices built on Go maps.
// It is used by reference evaluations.
var Simple Factory = simpleFactory{}

type simpleFactory struct{}

func (simpleFactory) NewIndexBuilder(numDims, expected int) IndexBuilder {
	if numDims == 0 {
		return &trivialBuilder{}
	}
	return &simpleIndex{dims: numDims, subspaces: make(map[string]int, expected)}
}

type simpleIndex struct {
	dims      int
	labels    [][]label.ID
	subspaces map[string]int
}

var _ labeled = (*simpleIndex)(nil)

func tupleKey(labels []label.ID) string {
	buf := make([]byte, 0, 4*len(labels))
	for _, l := range labels {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(l))
	}
	return string(buf)
}

func (x *simpleIndex) Lookup(labels []label.ID) int {
	return x.find(labels)
}

func (x *simpleIndex) Add(labels []label.ID) int {
	subspace := len(x.labels)
	x.labels = append(x.labels, append([]label.ID(nil), labels...))
	x.subspaces[tupleKey(labels)] = subspace
	return subspace
}

func (x *simpleIndex) Build() Index {
	return x
}

func (x *simpleIndex) Size() int {
	return len(x.labels)
}

func (x *simpleIndex) Labels(subspace int) []label.ID {
	return x.labels[subspace]
}

func (x *simpleIndex) CreateView(dims []int) View {
	return newScanView(x, dims)
}

func (x *simpleIndex) numDims() int {
	return x.dims
}

func (x *simpleIndex) find(labels []label.ID) int {
	subspace, ok := x.subspaces[tupleKey(labels)]
	if !ok {
		return -1
	}
	return subspace
}

// Fast is a factory of indices built on sparse.Map.
var Fast Factory = fastFactory{}

type fastFactory struct{}

func (fastFactory) NewIndexBuilder(numDims, expected int) IndexBuilder {
	if numDims == 0 {
		return &trivialBuilder{}
	}
	return &FastIndex{m: sparse.NewMap(numDims, expected)}
}

// FastIndex is an index backed by a sparse.Map.
// Optimized instructions use the map directly for hashed lookups.
type FastIndex struct {
	m *sparse.Map
}

var _ labeled = (*FastIndex)(nil)

// Map returns the sparse map backing the index.
func (x *FastIndex) Map() *sparse.Map {
	return x.m
}

// Lookup returns the subspace of a tuple or -1.
func (x *FastIndex) Lookup(labels []label.ID) int {
	return x.m.Lookup(labels)
}

// Add a new tuple to the index.
func (x *FastIndex) Add(labels []label.ID) int {
	return x.m.AddMapping(labels)
}

// Build returns the index itself.
func (x *FastIndex) Build() Index {
	return x
}

// Size returns the number of subspaces.
func (x *FastIndex) Size() int {
	return x.m.Size()
}

// Labels returns the labels of a subspace.
func (x *FastIndex) Labels(subspace int) []label.ID {
	return x.m.Labels(subspace)
}

// CreateView returns a view over some mapped dimensions.
func (x *FastIndex) CreateView(dims []int) View {
	return newScanView(x, dims)
}

func (x *FastIndex) numDims() int {
	return x.m.NumDims()
}

func (x *FastIndex) find(labels []label.ID) int {
	return x.m.Lookup(labels)
}
