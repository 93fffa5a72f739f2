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

// Package fmtarray formats dense blocks of tensor cells into strings.
package fmtarray

import (
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
	"github.com/vespa-engine/vespa-sub064/cell"
)

// Number returns the shortest representation of a cell value.
func Number(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func toValue[T cell.Value](x T) string {
	switch v := any(x).(type) {
	case float64:
		return Number(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case dtype.Bfloat16T:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case int8:
		return strconv.Itoa(int(v))
	}
	return "?"
}

type builder[T cell.Value] struct {
	w       *strings.Builder
	data    []T
	axes    []int
	strides []int
	indent  bool
}

func newBuilder[T cell.Value](data []T, axes []int, indent bool) (*builder[T], error) {
	b := &builder[T]{
		w:       &strings.Builder{},
		data:    data,
		axes:    axes,
		strides: axesStrides(axes),
		indent:  indent,
	}
	total := 1
	for _, size := range axes {
		total *= size
	}
	if total != len(data) {
		return b, errors.Errorf("len(data)=%d does not match axes %v=%d", len(data), axes, total)
	}
	return b, nil
}

func axesStrides(axes []int) []int {
	strides := make([]int, len(axes))
	stride := 1
	for i := len(axes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= axes[i]
	}
	return strides
}

func (b *builder[T]) printVector(offset int) {
	b.w.WriteString("[")
	last := len(b.axes) - 1
	for i := range b.axes[last] {
		if i > 0 {
			b.w.WriteString(b.separator())
		}
		b.w.WriteString(toValue(b.data[offset+i*b.strides[last]]))
	}
	b.w.WriteString("]")
}

func (b *builder[T]) separator() string {
	if b.indent {
		return ", "
	}
	return ","
}

const tab = "\t"

func (b *builder[T]) printRec(indent string, axis, offset int) {
	if axis == len(b.axes)-1 {
		b.printVector(offset)
		return
	}
	b.w.WriteString("[")
	for i := range b.axes[axis] {
		if b.indent {
			b.w.WriteString("\n" + indent + tab)
		} else if i > 0 {
			b.w.WriteString(",")
		}
		b.printRec(indent+tab, axis+1, offset+i*b.strides[axis])
		if b.indent {
			b.w.WriteString(",")
		}
	}
	if b.indent {
		b.w.WriteString("\n" + indent)
	}
	b.w.WriteString("]")
}

func (b *builder[T]) print() string {
	if len(b.axes) == 0 {
		b.w.WriteString(toValue(b.data[0]))
	} else {
		b.printRec("", 0, 0)
	}
	return b.w.String()
}

// Sprint returns the compact representation of a dense block of cells,
// as used in tensor literals: [[1,2],[3,4]].
// A block without axes is printed as a single number.
func Sprint[T cell.Value](data []T, axes []int) string {
	b, err := newBuilder(data, axes, false)
	if err != nil {
		return err.Error()
	}
	return b.print()
}

// Indented returns a multi-line representation of a dense block of cells
// with one line per innermost vector.
func Indented[T cell.Value](data []T, axes []int) string {
	b, err := newBuilder(data, axes, true)
	if err != nil {
		return err.Error()
	}
	return b.print()
}

// SprintRef formats cells of any kind.
func SprintRef(ref cell.Ref, axes []int) string {
	switch cells := ref.(type) {
	case cell.Array[float64]:
		return Sprint(cells, axes)
	case cell.Array[float32]:
		return Sprint(cells, axes)
	case cell.Array[dtype.Bfloat16T]:
		return Sprint(cells, axes)
	case cell.Array[int8]:
		return Sprint(cells, axes)
	}
	return Sprint(ref.Float64s(nil), axes)
}
