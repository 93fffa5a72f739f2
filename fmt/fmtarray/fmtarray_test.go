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

package fmtarray_test

import (
	"strings"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/fmt/fmtarray"
)

func buildData(axes []int) []float64 {
	total := 1
	for _, axisSize := range axes {
		total *= axisSize
	}
	data := make([]float64, total)
	for i := range total {
		data[i] = float64(i)
	}
	return data
}

func TestSprint(t *testing.T) {
	tests := []struct {
		data []float64
		axes []int
		want string
	}{
		{
			data: []float64{42.5},
			want: "42.5",
		},
		{
			data: []float64{1, 2, 3, 0.25, -5, 6},
			axes: []int{6},
			want: "[1,2,3,0.25,-5,6]",
		},
		{
			axes: []int{2, 3},
			want: "[[0,1,2],[3,4,5]]",
		},
		{
			axes: []int{2, 1, 2},
			want: "[[[0,1]],[[2,3]]]",
		},
		{
			data: []float64{1, 2},
			axes: []int{3},
			want: "len(data)=2 does not match axes [3]=3",
		},
	}
	for i, test := range tests {
		if test.data == nil {
			test.data = buildData(test.axes)
		}
		got := fmtarray.Sprint(test.data, test.axes)
		if got != test.want {
			t.Errorf("test %d: incorrect array formatting:\naxes: %v\ndata: %v\ngot:  %s\nwant: %s", i, test.axes, test.data, got, test.want)
		}
	}
}

func TestIndented(t *testing.T) {
	tests := []struct {
		axes []int
		want string
	}{
		{
			axes: []int{4},
			want: "[0, 1, 2, 3]",
		},
		{
			axes: []int{2, 3},
			want: `
[
	[0, 1, 2],
	[3, 4, 5],
]
`,
		},
		{
			axes: []int{2, 2, 2},
			want: `
[
	[
		[0, 1],
		[2, 3],
	],
	[
		[4, 5],
		[6, 7],
	],
]
`,
		},
	}
	for i, test := range tests {
		test.want = strings.TrimSpace(test.want)
		got := fmtarray.Indented(buildData(test.axes), test.axes)
		if got != test.want {
			t.Errorf("test %d: incorrect array formatting:\naxes: %v\ngot:\n%s\nwant:\n%s", i, test.axes, got, test.want)
		}
	}
}

func TestSprintRef(t *testing.T) {
	tests := []struct {
		ref  cell.Ref
		want string
	}{
		{ref: cell.Array[float32]{0.5, 1.25}, want: "[0.5,1.25]"},
		{ref: cell.Array[dtype.Bfloat16T]{dtype.BFloat16FromFloat64(2), dtype.BFloat16FromFloat64(-0.5)}, want: "[2,-0.5]"},
		{ref: cell.Array[int8]{-3, 7}, want: "[-3,7]"},
	}
	for i, test := range tests {
		if got := fmtarray.SprintRef(test.ref, []int{2}); got != test.want {
			t.Errorf("test %d: got %s but want %s", i, got, test.want)
		}
	}
}
