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

// Package cell defines the numeric kinds of tensor cells, the rules
// deciding the cell kind of an operation result, and the per-kind
// routines converting cells between kinds.
package cell

import (
	"github.com/gx-org/backend/dtype"
)

// Type is the numeric representation of a single tensor cell.
type Type uint8

// Cell kinds supported by the engine.
const (
	Double Type = iota
	Float
	BFloat16
	Int8

	// NumTypes is the number of supported cell kinds.
	// It is used to size dispatch tables indexed by Type.
	NumTypes = int(Int8) + 1
)

// Types returns all the supported cell kinds.
func Types() []Type {
	return []Type{Double, Float, BFloat16, Int8}
}

// String returns the name of the cell kind as used in type specifications.
func (t Type) String() string {
	switch t {
	case Double:
		return "double"
	case Float:
		return "float"
	case BFloat16:
		return "bfloat16"
	case Int8:
		return "int8"
	}
	return "invalid"
}

// FromString returns a cell kind given its name.
func FromString(s string) (Type, bool) {
	switch s {
	case "double":
		return Double, true
	case "float":
		return Float, true
	case "bfloat16":
		return BFloat16, true
	case "int8":
		return Int8, true
	}
	return Double, false
}

// Size returns the number of bytes used to store a cell.
func (t Type) Size() int {
	switch t {
	case Double:
		return 8
	case Float:
		return 4
	case BFloat16:
		return 2
	}
	return 1
}

// DType returns the backend data type storing cells of that kind.
// Int8 cells have no backend equivalent and return dtype.Invalid.
func (t Type) DType() dtype.DataType {
	switch t {
	case Double:
		return dtype.Float64
	case Float:
		return dtype.Float32
	case BFloat16:
		return dtype.Bfloat16
	}
	return dtype.Invalid
}

// FromDType returns the cell kind storing values of a backend data type.
func FromDType(dt dtype.DataType) (Type, bool) {
	switch dt {
	case dtype.Float64:
		return Double, true
	case dtype.Float32:
		return Float, true
	case dtype.Bfloat16:
		return BFloat16, true
	}
	return Double, false
}

// unify returns the cell kind able to represent both a and b.
func unify(a, b Type) Type {
	if a == b {
		return a
	}
	if a == Double || b == Double {
		return Double
	}
	return Float
}

// Meta is the cell kind of a value together with the fact that the value
// is a scalar. Scalars are always stored as doubles.
type Meta struct {
	Type     Type
	IsScalar bool
}

// ScalarMeta returns the meta of a scalar.
func ScalarMeta() Meta {
	return Meta{Type: Double, IsScalar: true}
}

// Normalize forces scalars to double.
func (m Meta) Normalize() Meta {
	if m.IsScalar {
		return ScalarMeta()
	}
	return m
}

// Decay returns the cell meta of the result of a numeric computation
// over cells of kind m: reduced precision kinds decay to float.
func (m Meta) Decay() Meta {
	if m.IsScalar {
		return ScalarMeta()
	}
	if m.Type == BFloat16 || m.Type == Int8 {
		return Meta{Type: Float}
	}
	return m
}

// Unify returns the meta able to represent values of both a and b.
func Unify(a, b Meta) Meta {
	if a.IsScalar {
		return b.Normalize()
	}
	if b.IsScalar {
		return a
	}
	return Meta{Type: unify(a.Type, b.Type)}
}

// Map returns the cell meta of the result of a unary map.
func (m Meta) Map() Meta {
	return m.Decay()
}

// Reduce returns the cell meta of the result of a reduction.
func (m Meta) Reduce(toScalar bool) Meta {
	if toScalar {
		return ScalarMeta()
	}
	return m.Decay()
}

// Rename returns the cell meta of the result of a rename.
func (m Meta) Rename() Meta {
	return m
}

// Peek returns the cell meta of the result of a peek.
func (m Meta) Peek(toScalar bool) Meta {
	if toScalar {
		return ScalarMeta()
	}
	return m
}

// Join returns the cell meta of the result of a join.
func Join(a, b Meta) Meta {
	return Unify(a, b).Decay()
}

// Merge returns the cell meta of the result of a merge.
func Merge(a, b Meta) Meta {
	return Unify(a, b).Decay()
}

// Concat returns the cell meta of the result of a concatenation.
// The result of a concatenation is never a scalar.
func Concat(a, b Meta) Meta {
	m := Unify(a, b)
	m.IsScalar = false
	return m
}
