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
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// Builder builds a value subspace by subspace.
// Cells are allocated in the arena of the builder if it has one.
type Builder[T cell.Value] struct {
	typ   *valuetype.Type
	index IndexBuilder
	arena *stash.Stash
	size  int
	cells []T
}

// NewBuilder returns a builder of values of type typ.
// T must be the Go type storing cells of the kind of typ.
// arena may be nil, in which case cells are allocated on the heap.
func NewBuilder[T cell.Value](f Factory, arena *stash.Stash, typ *valuetype.Type, expected int) *Builder[T] {
	b := &Builder[T]{
		typ:   typ,
		index: f.NewIndexBuilder(typ.CountMappedDims(), expected),
		arena: arena,
		size:  typ.DenseSubspaceSize(),
	}
	b.cells = b.alloc(b.size * max(expected, 1))[:0]
	return b
}

func (b *Builder[T]) alloc(n int) []T {
	if b.arena == nil {
		return make([]T, n)
	}
	return stash.Make[T](b.arena, n)
}

// AddSubspace adds a new subspace given the labels of the mapped
// dimensions and returns its zeroed cells.
// The cells are valid until the next subspace is added.
func (b *Builder[T]) AddSubspace(labels []label.ID) []T {
	b.index.Add(labels)
	n := len(b.cells)
	if n+b.size > cap(b.cells) {
		grown := b.alloc(max(2*cap(b.cells), n+b.size))[:n]
		copy(grown, b.cells)
		b.cells = grown
	}
	b.cells = b.cells[:n+b.size]
	return b.cells[n : n+b.size : n+b.size]
}

// Subspace returns the cells of the subspace with the given labels,
// adding the subspace if needed. added is true if the subspace is new.
// The cells are valid until the next subspace is added.
func (b *Builder[T]) Subspace(labels []label.ID) (cells []T, added bool) {
	if subspace := b.index.Lookup(labels); subspace >= 0 {
		from := subspace * b.size
		return b.cells[from : from+b.size : from+b.size], false
	}
	return b.AddSubspace(labels), true
}

// Build returns the value.
// Values without mapped dimensions always have one subspace.
func (b *Builder[T]) Build() Value {
	if b.typ.CountMappedDims() == 0 && len(b.cells) == 0 {
		b.AddSubspace(nil)
	}
	return New(b.typ, cell.Array[T](b.cells), b.index.Build())
}
