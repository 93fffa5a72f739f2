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

// Package valuetype defines the type of tensor values: a sorted set of
// named dimensions, each mapped or indexed, and a cell kind.
package valuetype

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gx-org/backend/shape"
	"github.com/vespa-engine/vespa-sub064/base/stringseq"
	"github.com/vespa-engine/vespa-sub064/cell"
)

// Dimension of a tensor type.
// A dimension with a size of 0 is mapped, otherwise it is indexed.
type Dimension struct {
	Name string
	Size int
}

// Mapped returns a mapped dimension.
func Mapped(name string) Dimension {
	return Dimension{Name: name}
}

// Indexed returns an indexed dimension of a given size.
func Indexed(name string, size int) Dimension {
	return Dimension{Name: name, Size: size}
}

// IsMapped returns true if the dimension is mapped.
func (d Dimension) IsMapped() bool { return d.Size == 0 }

// IsIndexed returns true if the dimension is indexed.
func (d Dimension) IsIndexed() bool { return d.Size > 0 }

// IsTrivial returns true if the dimension is indexed with a single element.
func (d Dimension) IsTrivial() bool { return d.Size == 1 }

// String returns the specification of the dimension.
func (d Dimension) String() string {
	if d.IsMapped() {
		return d.Name + "{}"
	}
	return fmt.Sprintf("%s[%d]", d.Name, d.Size)
}

// Type of a tensor value.
// Types are immutable once built.
type Type struct {
	err   bool
	cells cell.Type
	dims  []Dimension
}

var (
	errorType  = &Type{err: true}
	doubleType = &Type{cells: cell.Double}
)

// Error returns the error type.
// The error type is the result of any invalid type computation.
func Error() *Type {
	return errorType
}

// Double returns the type of a scalar.
func Double() *Type {
	return doubleType
}

// Make returns a type given a cell kind and a list of dimensions.
// The dimensions are sorted by name. The error type is returned if
// a dimension name is duplicated, if a dimension has an invalid size,
// or if a scalar is requested with a cell kind other than double.
func Make(ct cell.Type, dims []Dimension) *Type {
	if len(dims) == 0 {
		if ct != cell.Double {
			return Error()
		}
		return Double()
	}
	sorted := slices.Clone(dims)
	slices.SortFunc(sorted, func(a, b Dimension) int {
		return strings.Compare(a.Name, b.Name)
	})
	for i, dim := range sorted {
		if dim.Size < 0 || !validName(dim.Name) {
			return Error()
		}
		if i > 0 && sorted[i-1].Name == dim.Name {
			return Error()
		}
	}
	return &Type{cells: ct, dims: sorted}
}

func makeType(meta cell.Meta, dims []Dimension) *Type {
	if len(dims) == 0 {
		return Double()
	}
	return Make(meta.Type, dims)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// IsError returns true for the error type.
func (t *Type) IsError() bool { return t.err }

// IsDouble returns true if the type is a scalar.
func (t *Type) IsDouble() bool { return !t.err && len(t.dims) == 0 }

// IsScalar returns true if the type is a scalar.
func (t *Type) IsScalar() bool { return t.IsDouble() }

// HasDimensions returns true if the type is a tensor with at least one dimension.
func (t *Type) HasDimensions() bool { return !t.err && len(t.dims) > 0 }

// CellType returns the kind of the cells.
func (t *Type) CellType() cell.Type { return t.cells }

// CellMeta returns the cell meta of values of this type.
func (t *Type) CellMeta() cell.Meta {
	return cell.Meta{Type: t.cells, IsScalar: t.IsDouble()}
}

// Dims returns the dimensions of the type sorted by name.
// The returned slice must not be modified.
func (t *Type) Dims() []Dimension { return t.dims }

// NumDims returns the number of dimensions.
func (t *Type) NumDims() int { return len(t.dims) }

func (t *Type) filter(keep func(Dimension) bool) []Dimension {
	var dims []Dimension
	for _, dim := range t.dims {
		if keep(dim) {
			dims = append(dims, dim)
		}
	}
	return dims
}

// MappedDims returns the mapped dimensions of the type.
func (t *Type) MappedDims() []Dimension {
	return t.filter(Dimension.IsMapped)
}

// IndexedDims returns the indexed dimensions of the type.
func (t *Type) IndexedDims() []Dimension {
	return t.filter(Dimension.IsIndexed)
}

// NontrivialIndexedDims returns the indexed dimensions with more than one element.
func (t *Type) NontrivialIndexedDims() []Dimension {
	return t.filter(func(d Dimension) bool { return d.Size > 1 })
}

// CountMappedDims returns the number of mapped dimensions.
func (t *Type) CountMappedDims() int {
	n := 0
	for _, dim := range t.dims {
		if dim.IsMapped() {
			n++
		}
	}
	return n
}

// CountIndexedDims returns the number of indexed dimensions.
func (t *Type) CountIndexedDims() int {
	return len(t.dims) - t.CountMappedDims()
}

// IsSparse returns true if the type has dimensions and all of them are mapped.
func (t *Type) IsSparse() bool {
	return t.HasDimensions() && t.CountIndexedDims() == 0
}

// IsDense returns true if the type has dimensions and all of them are indexed.
func (t *Type) IsDense() bool {
	return t.HasDimensions() && t.CountMappedDims() == 0
}

// IsMixed returns true if the type has both mapped and indexed dimensions.
func (t *Type) IsMixed() bool {
	return t.CountMappedDims() > 0 && t.CountIndexedDims() > 0
}

// DenseSubspaceSize returns the number of cells in a dense subspace.
func (t *Type) DenseSubspaceSize() int {
	size := 1
	for _, dim := range t.dims {
		if dim.IsIndexed() {
			size *= dim.Size
		}
	}
	return size
}

// DenseShape returns the shape of a dense subspace.
func (t *Type) DenseShape() shape.Shape {
	var axes []int
	for _, dim := range t.IndexedDims() {
		axes = append(axes, dim.Size)
	}
	return shape.Shape{DType: t.cells.DType(), AxisLengths: axes}
}

// DimensionIndex returns the position of a dimension or -1 if the type
// does not have a dimension with that name.
func (t *Type) DimensionIndex(name string) int {
	for i, dim := range t.dims {
		if dim.Name == name {
			return i
		}
	}
	return -1
}

// Dimension returns a dimension given its name.
func (t *Type) Dimension(name string) (Dimension, bool) {
	i := t.DimensionIndex(name)
	if i < 0 {
		return Dimension{}, false
	}
	return t.dims[i], true
}

// DimensionNames returns the names of all the dimensions.
func (t *Type) DimensionNames() []string {
	names := make([]string, len(t.dims))
	for i, dim := range t.dims {
		names[i] = dim.Name
	}
	return names
}

// MappedDimNames returns the names of the mapped dimensions.
func (t *Type) MappedDimNames() []string {
	var names []string
	for _, dim := range t.MappedDims() {
		names = append(names, dim.Name)
	}
	return names
}

// StripMapped returns the type of a dense subspace of t.
func (t *Type) StripMapped() *Type {
	if t.err {
		return t
	}
	return makeType(t.CellMeta(), t.IndexedDims())
}

// DenseSubspaceType returns the type of the values passed to the lambda
// of a map_subspaces. It is the same as StripMapped.
func (t *Type) DenseSubspaceType() *Type {
	return t.StripMapped()
}

// StripIndexed returns the type of t without its indexed dimensions.
func (t *Type) StripIndexed() *Type {
	if t.err {
		return t
	}
	return makeType(t.CellMeta(), t.MappedDims())
}

// Equal returns true if two types are the same.
func (t *Type) Equal(o *Type) bool {
	if t.err || o.err {
		return t.err == o.err
	}
	return t.cells == o.cells && slices.Equal(t.dims, o.dims)
}

// String returns the specification of the type.
func (t *Type) String() string {
	if t.err {
		return "error"
	}
	if len(t.dims) == 0 {
		return "double"
	}
	var s strings.Builder
	s.WriteString("tensor")
	if t.cells != cell.Double {
		s.WriteString("<" + t.cells.String() + ">")
	}
	s.WriteString("(")
	stringseq.Append(&s, slices.Values(t.dims), ",", Dimension.String)
	s.WriteString(")")
	return s.String()
}
