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

// Package value implements tensor values: a type, a flat array of dense
// cells and an index mapping the labels of mapped dimensions to dense
// subspaces.
package value

import (
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// Value is an immutable tensor value.
//
// The cells of subspace i are Cells().Sub(i*n, (i+1)*n) where n is the
// dense subspace size of the type.
type Value interface {
	// Type of the value.
	Type() *valuetype.Type
	// Cells returns all the cells of the value.
	Cells() cell.Ref
	// Index returns the index of the mapped dimensions.
	Index() Index
}

type tensor struct {
	typ   *valuetype.Type
	cells cell.Ref
	index Index
}

var _ Value = (*tensor)(nil)

// New returns a value given its parts.
// The value aliases the cells and the index.
func New(typ *valuetype.Type, cells cell.Ref, index Index) Value {
	return &tensor{typ: typ, cells: cells, index: index}
}

// Dense returns a value without mapped dimensions.
func Dense(typ *valuetype.Type, cells cell.Ref) Value {
	return New(typ, cells, TrivialIndex())
}

// Scalar returns a double value.
func Scalar(x float64) Value {
	return Dense(valuetype.Double(), cell.Array[float64]{x})
}

func (t *tensor) Type() *valuetype.Type {
	return t.typ
}

func (t *tensor) Cells() cell.Ref {
	return t.cells
}

func (t *tensor) Index() Index {
	return t.index
}

// String returns the value as a tensor literal.
func (t *tensor) String() string {
	return ToSpec(t).String()
}

// AsDouble returns the value of the first cell or 0 if the value is empty.
func AsDouble(v Value) float64 {
	if v.Cells().Len() == 0 {
		return 0
	}
	return v.Cells().At(0)
}

// Subspace returns the cells of a subspace.
func Subspace(v Value, subspace int) cell.Ref {
	n := v.Type().DenseSubspaceSize()
	return v.Cells().Sub(subspace*n, (subspace+1)*n)
}
