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

package cell

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
)

type (
	// Value is the set of Go types storing tensor cells.
	Value interface {
		float64 | float32 | dtype.Bfloat16T | int8
	}

	// Codec converts a cell value from and to float64.
	// Codecs are zero-size types used as type parameters so that each
	// kernel instantiation is specialised for one cell kind.
	Codec[T Value] interface {
		Load(T) float64
		Store(float64) T
	}

	// F64 is the codec of double cells.
	F64 struct{}
	// F32 is the codec of float cells.
	F32 struct{}
	// BF16 is the codec of bfloat16 cells.
	BF16 struct{}
	// I8 is the codec of int8 cells.
	I8 struct{}
)

// Load a double cell.
func (F64) Load(x float64) float64 { return x }

// Store a double cell.
func (F64) Store(x float64) float64 { return x }

// Load a float cell.
func (F32) Load(x float32) float64 { return float64(x) }

// Store a float cell.
func (F32) Store(x float64) float32 { return float32(x) }

// Load a bfloat16 cell.
func (BF16) Load(x dtype.Bfloat16T) float64 { return float64(x.Float32()) }

// Store a bfloat16 cell.
func (BF16) Store(x float64) dtype.Bfloat16T { return dtype.BFloat16FromFloat64(x) }

// Load an int8 cell.
func (I8) Load(x int8) float64 { return float64(x) }

// Store an int8 cell. Values are truncated toward zero.
func (I8) Store(x float64) int8 { return int8(x) }

// TypeOf returns the cell kind stored by the Go type T.
func TypeOf[T Value]() Type {
	var zero T
	switch any(zero).(type) {
	case float64:
		return Double
	case float32:
		return Float
	case dtype.Bfloat16T:
		return BFloat16
	case int8:
		return Int8
	}
	panic(fmt.Sprintf("%T is not a cell type", zero))
}

type (
	// Ref is a flat, typed array of cells.
	Ref interface {
		// Type returns the kind of the cells.
		Type() Type
		// Len returns the number of cells.
		Len() int
		// Sub returns the cells in [from, to) without copying.
		Sub(from, to int) Ref
		// Float64s returns the cells as float64. Double cells are returned
		// without copying, other kinds are converted into buf which is
		// grown if too small.
		Float64s(buf []float64) []float64
		// At returns a single cell as float64.
		At(i int) float64
	}

	// Array is a Ref over a Go slice.
	Array[T Value] []T
)

var _ Ref = Array[float64](nil)

// Type of the cells.
func (a Array[T]) Type() Type {
	return TypeOf[T]()
}

// Len returns the number of cells.
func (a Array[T]) Len() int {
	return len(a)
}

// Sub returns a slice of the cells.
func (a Array[T]) Sub(from, to int) Ref {
	return a[from:to]
}

// At returns the cell i as a float64.
func (a Array[T]) At(i int) float64 {
	switch x := any(a[i]).(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case dtype.Bfloat16T:
		return float64(x.Float32())
	case int8:
		return float64(x)
	}
	return 0
}

// Float64s returns the cells converted to float64.
func (a Array[T]) Float64s(buf []float64) []float64 {
	switch src := any(a).(type) {
	case Array[float64]:
		return src
	case Array[float32]:
		return load[float32, F32](src, grow(buf, len(a)))
	case Array[dtype.Bfloat16T]:
		return load[dtype.Bfloat16T, BF16](src, grow(buf, len(a)))
	case Array[int8]:
		return load[int8, I8](src, grow(buf, len(a)))
	}
	return nil
}

func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

func load[T Value, C Codec[T]](src []T, dst []float64) []float64 {
	var c C
	for i, x := range src {
		dst[i] = c.Load(x)
	}
	return dst
}

// Typed returns the Go slice backing a Ref.
// It panics if the cells are not stored with type T.
func Typed[T Value](r Ref) []T {
	return r.(Array[T])
}

// Make allocates n zero cells of kind t.
func Make(t Type, n int) Ref {
	switch t {
	case Float:
		return make(Array[float32], n)
	case BFloat16:
		return make(Array[dtype.Bfloat16T], n)
	case Int8:
		return make(Array[int8], n)
	}
	return make(Array[float64], n)
}

// FromFloat64s returns cells of kind t holding the values of src.
func FromFloat64s(t Type, src []float64) Ref {
	dst := Make(t, len(src))
	Convert(Array[float64](src), dst)
	return dst
}
