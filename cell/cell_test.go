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

package cell_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/vespa-engine/vespa-sub064/cell"
)

func TestMetaRules(t *testing.T) {
	scalar := cell.ScalarMeta()
	dbl := cell.Meta{Type: cell.Double}
	flt := cell.Meta{Type: cell.Float}
	bf16 := cell.Meta{Type: cell.BFloat16}
	i8 := cell.Meta{Type: cell.Int8}
	tests := []struct {
		name string
		got  cell.Meta
		want cell.Meta
	}{
		{"unify scalar scalar", cell.Unify(scalar, scalar), scalar},
		{"unify scalar bf16", cell.Unify(scalar, bf16), bf16},
		{"unify bf16 scalar", cell.Unify(bf16, scalar), bf16},
		{"unify bf16 bf16", cell.Unify(bf16, bf16), bf16},
		{"unify bf16 i8", cell.Unify(bf16, i8), flt},
		{"unify float double", cell.Unify(flt, dbl), dbl},
		{"join bf16 bf16", cell.Join(bf16, bf16), flt},
		{"join i8 scalar", cell.Join(i8, scalar), flt},
		{"join scalar scalar", cell.Join(scalar, scalar), scalar},
		{"merge float float", cell.Merge(flt, flt), flt},
		{"concat scalar scalar", cell.Concat(scalar, scalar), dbl},
		{"concat bf16 bf16", cell.Concat(bf16, bf16), bf16},
		{"map i8", i8.Map(), flt},
		{"map scalar", scalar.Map(), scalar},
		{"reduce to scalar", bf16.Reduce(true), scalar},
		{"reduce partial", bf16.Reduce(false), flt},
		{"peek partial", bf16.Peek(false), bf16},
		{"peek full", bf16.Peek(true), scalar},
		{"rename", i8.Rename(), i8},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("%s: got %+v but want %+v", test.name, test.got, test.want)
		}
	}
}

func TestTypeNames(t *testing.T) {
	for _, ct := range cell.Types() {
		got, ok := cell.FromString(ct.String())
		if !ok || got != ct {
			t.Errorf("cell type %s: got %s, %v", ct, got, ok)
		}
	}
	if _, ok := cell.FromString("int32"); ok {
		t.Errorf("int32 should not be a valid cell type")
	}
	if got := cell.BFloat16.DType(); got != dtype.Bfloat16 {
		t.Errorf("bfloat16 maps to %s", got)
	}
	if ct, ok := cell.FromDType(dtype.Float32); !ok || ct != cell.Float {
		t.Errorf("float32 maps to %s, %v", ct, ok)
	}
}

func TestConvert(t *testing.T) {
	src := []float64{1, -2, 3.5, 0.25, 100, -7.75, 12, 0.5, 1.5, -1}
	for _, from := range cell.Types() {
		for _, to := range cell.Types() {
			in := cell.FromFloat64s(from, src)
			out := cell.Make(to, len(src))
			cell.ConverterFor(from, to)(in, out)
			want := cell.FromFloat64s(to, in.Float64s(nil)).Float64s(nil)
			if diff := cmp.Diff(want, out.Float64s(nil)); diff != "" {
				t.Errorf("convert %s to %s: unexpected cells:\n%s", from, to, diff)
			}
		}
	}
}

func TestInt8Truncates(t *testing.T) {
	got := cell.FromFloat64s(cell.Int8, []float64{1.9, -1.9, 0.4}).Float64s(nil)
	want := []float64{1, -1, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected int8 cells:\n%s", diff)
	}
}

func TestBFloat16ToFloat(t *testing.T) {
	var src []dtype.Bfloat16T
	var want []float32
	for i := range 19 {
		x := float64(i) - 4.5
		src = append(src, dtype.BFloat16FromFloat64(x))
		want = append(want, float32(x))
	}
	got := make([]float32, len(src))
	cell.ConvertBFloat16ToFloat(src, got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected conversion (accelerated: %v):\n%s", cell.Accelerated(), diff)
	}
}

func TestBFloat16ToFloatBatch(t *testing.T) {
	if binary.NativeEndian.Uint16([]byte{1, 0}) != 1 {
		t.Skip("batched conversion requires a little endian host")
	}
	values := []float32{0, float32(math.Copysign(0, -1)), 1, -2.5, 3e38, -1e-38, float32(math.Inf(1)), float32(math.Inf(-1)), 0.15625}
	for n := range 2*len(values) + 1 {
		src := make([]dtype.Bfloat16T, n)
		want := make([]uint32, n)
		for i := range src {
			src[i] = dtype.BFloat16FromFloat32(values[(i*5)%len(values)])
			want[i] = math.Float32bits(src[i].Float32())
		}
		dst := make([]float32, n+1)
		dst[n] = 42
		cell.BFloat16ToFloatBatch(src, dst)
		got := make([]uint32, n)
		for i := range got {
			got[i] = math.Float32bits(dst[i])
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("test %d: unexpected bits:\n%s", n, diff)
		}
		if dst[n] != 42 {
			t.Errorf("test %d: batch conversion wrote past the end of the source", n)
		}
	}
}

func TestSub(t *testing.T) {
	cells := cell.FromFloat64s(cell.Float, []float64{1, 2, 3, 4})
	sub := cells.Sub(1, 3)
	if sub.Len() != 2 || sub.At(0) != 2 || sub.At(1) != 3 {
		t.Errorf("unexpected sub-array %v", sub.Float64s(nil))
	}
	if sub.Type() != cell.Float {
		t.Errorf("sub-array has type %s", sub.Type())
	}
}
