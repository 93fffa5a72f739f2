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

package valuetype

import (
	"slices"

	"github.com/vespa-engine/vespa-sub064/cell"
)

// joinDims merges the dimensions of two sorted dimension lists.
// A dimension present in both lists must be mapped in both or indexed in
// both; indexed dimensions keep the smallest size.
func joinDims(a, b []Dimension) ([]Dimension, bool) {
	var dims []Dimension
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Name < b[j].Name:
			dims = append(dims, a[i])
			i++
		case a[i].Name > b[j].Name:
			dims = append(dims, b[j])
			j++
		default:
			if a[i].IsMapped() != b[j].IsMapped() {
				return nil, false
			}
			dims = append(dims, Dimension{Name: a[i].Name, Size: min(a[i].Size, b[j].Size)})
			i++
			j++
		}
	}
	dims = append(dims, a[i:]...)
	dims = append(dims, b[j:]...)
	return dims, true
}

// Join returns the type of the join of a and b.
func Join(a, b *Type) *Type {
	if a.err || b.err {
		return Error()
	}
	dims, ok := joinDims(a.dims, b.dims)
	if !ok {
		return Error()
	}
	return makeType(cell.Join(a.CellMeta(), b.CellMeta()), dims)
}

// Merge returns the type of the merge of a and b.
// Both types must have the same dimensions.
func Merge(a, b *Type) *Type {
	if a.err || b.err || !slices.Equal(a.dims, b.dims) {
		return Error()
	}
	return makeType(cell.Merge(a.CellMeta(), b.CellMeta()), a.dims)
}

// Concat returns the type of the concatenation of a and b along a dimension.
// The dimension is indexed in the result, with a size equal to the sum of
// the sizes of the dimension in a and b (1 if absent).
func Concat(a, b *Type, dimension string) *Type {
	if a.err || b.err || !validName(dimension) {
		return Error()
	}
	sizeOf := func(t *Type) (int, []Dimension, bool) {
		dim, ok := t.Dimension(dimension)
		if !ok {
			return 1, t.dims, true
		}
		if dim.IsMapped() {
			return 0, nil, false
		}
		return dim.Size, slices.DeleteFunc(slices.Clone(t.dims), func(d Dimension) bool {
			return d.Name == dimension
		}), true
	}
	aSize, aDims, aOk := sizeOf(a)
	bSize, bDims, bOk := sizeOf(b)
	if !aOk || !bOk {
		return Error()
	}
	dims, ok := joinDims(aDims, bDims)
	if !ok {
		return Error()
	}
	dims = append(dims, Indexed(dimension, aSize+bSize))
	return Make(cell.Concat(a.CellMeta(), b.CellMeta()).Type, dims)
}

// Reduce returns the type of the reduction of t over some dimensions.
// All dimensions are reduced if none is given.
func Reduce(t *Type, dimensions []string) *Type {
	if t.err {
		return Error()
	}
	if len(dimensions) == 0 {
		return Double()
	}
	for _, name := range dimensions {
		if t.DimensionIndex(name) < 0 {
			return Error()
		}
	}
	dims := t.filter(func(d Dimension) bool {
		return !slices.Contains(dimensions, d.Name)
	})
	return makeType(t.CellMeta().Reduce(len(dims) == 0), dims)
}

// Rename returns the type of t with the dimensions from renamed to the dimensions to.
func Rename(t *Type, from, to []string) *Type {
	if t.err || len(from) == 0 || len(from) != len(to) {
		return Error()
	}
	dims := slices.Clone(t.dims)
	renamed := make([]bool, len(dims))
	for i, name := range from {
		idx := t.DimensionIndex(name)
		if idx < 0 || renamed[idx] {
			return Error()
		}
		renamed[idx] = true
		dims[idx].Name = to[i]
	}
	return Make(t.CellMeta().Rename().Type, dims)
}

// Peek returns the type of the result of peeking into some dimensions of t.
func Peek(t *Type, dimensions []string) *Type {
	if t.err || len(dimensions) == 0 {
		return Error()
	}
	for i, name := range dimensions {
		if t.DimensionIndex(name) < 0 || slices.Contains(dimensions[:i], name) {
			return Error()
		}
	}
	dims := t.filter(func(d Dimension) bool {
		return !slices.Contains(dimensions, d.Name)
	})
	return makeType(t.CellMeta().Peek(len(dims) == 0), dims)
}

// Map returns the type of the result of applying a unary function to the cells of t.
func Map(t *Type) *Type {
	if t.err {
		return Error()
	}
	return makeType(t.CellMeta().Map(), t.dims)
}

// CellCast returns t with cells of another kind.
// Scalars can only be cast to double.
func CellCast(t *Type, ct cell.Type) *Type {
	if t.err {
		return Error()
	}
	return Make(ct, t.dims)
}

// MapSubspaces returns the type of the result of applying, to each dense
// subspace of t, a function returning values of type inner.
//
// The result has the mapped dimensions of t followed by the dimensions of
// inner, which must be dense. When inner is a scalar, the cells of the
// result keep the cell kind of t, otherwise the cell kind of inner decays.
func MapSubspaces(t, inner *Type) *Type {
	if t.err || inner.err || inner.CountMappedDims() > 0 {
		return Error()
	}
	dims := append(t.MappedDims(), inner.dims...)
	if inner.IsDouble() {
		return makeType(t.CellMeta(), dims)
	}
	return makeType(inner.CellMeta().Decay(), dims)
}
