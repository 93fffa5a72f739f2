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

package dense_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vespa-engine/vespa-sub064/dense"
	"github.com/vespa-engine/vespa-sub064/nestedloop"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

func TestComplexJoinReducePlan(t *testing.T) {
	lhs := valuetype.FromSpec("tensor(a{},b[6],c[5],e[3],f[2],g{})")
	rhs := valuetype.FromSpec("tensor(a{},b[6],c[5],d[4],h{})")
	res := valuetype.FromSpec("tensor(a{},b[6],c[5],d[4],e[3])")
	got := dense.NewJoinReducePlan(lhs, rhs, res)
	want := &dense.JoinReducePlan{
		LhsSize:   180,
		RhsSize:   120,
		ResSize:   360,
		LoopCnt:   []int{30, 4, 3, 2},
		LhsStride: []int{6, 0, 2, 1},
		RhsStride: []int{4, 1, 0, 0},
		ResStride: []int{12, 3, 1, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected plan (-want +got):\n%s", diff)
	}
	if got.DistinctResult() {
		t.Errorf("plan reducing f should not have a distinct result")
	}
}

func TestSimpleJoinReducePlans(t *testing.T) {
	tests := []struct {
		lhs, rhs, res string
		want          dense.JoinReducePlan
		distinct      bool
	}{
		{
			lhs: "double", rhs: "double", res: "double",
			want:     dense.JoinReducePlan{LhsSize: 1, RhsSize: 1, ResSize: 1},
			distinct: true,
		},
		{
			lhs: "tensor(x[5])", rhs: "tensor(x[5])", res: "double",
			want: dense.JoinReducePlan{
				LhsSize: 5, RhsSize: 5, ResSize: 1,
				LoopCnt: []int{5}, LhsStride: []int{1}, RhsStride: []int{1}, ResStride: []int{0},
			},
		},
		{
			lhs: "tensor(x[2],y[1])", rhs: "tensor(x[2],z[1])", res: "tensor(x[2],y[1],z[1])",
			want: dense.JoinReducePlan{
				LhsSize: 2, RhsSize: 2, ResSize: 2,
				LoopCnt: []int{2}, LhsStride: []int{1}, RhsStride: []int{1}, ResStride: []int{1},
			},
			distinct: true,
		},
		{
			lhs: "tensor(x[3])", rhs: "tensor(y[4])", res: "tensor(x[3],y[4])",
			want: dense.JoinReducePlan{
				LhsSize: 3, RhsSize: 4, ResSize: 12,
				LoopCnt: []int{3, 4}, LhsStride: []int{1, 0}, RhsStride: []int{0, 1}, ResStride: []int{4, 1},
			},
			distinct: true,
		},
		{
			lhs: "tensor(x[3],y[4])", rhs: "double", res: "tensor(x[3],y[4])",
			want: dense.JoinReducePlan{
				LhsSize: 12, RhsSize: 1, ResSize: 12,
				LoopCnt: []int{12}, LhsStride: []int{1}, RhsStride: []int{0}, ResStride: []int{1},
			},
			distinct: true,
		},
	}
	for i, test := range tests {
		got := dense.NewJoinReducePlan(valuetype.FromSpec(test.lhs), valuetype.FromSpec(test.rhs), valuetype.FromSpec(test.res))
		if diff := cmp.Diff(&test.want, got); diff != "" {
			t.Errorf("test %d: unexpected plan (-want +got):\n%s", i, diff)
		}
		if got.DistinctResult() != test.distinct {
			t.Errorf("test %d: distinct result is %v", i, got.DistinctResult())
		}
	}
}

type offsets struct{ lhs, rhs, res int }

// bruteForce enumerates every assignment of the indexed dimensions of lhs
// and rhs and returns the offsets of the cells combined by the assignment.
func bruteForce(lhs, rhs, res *valuetype.Type) []offsets {
	joined := valuetype.Join(lhs.StripMapped(), rhs.StripMapped())
	dims := joined.IndexedDims()
	offsetOf := func(t *valuetype.Type, pos map[string]int) int {
		offset := 0
		for _, dim := range t.IndexedDims() {
			offset = offset*dim.Size + pos[dim.Name]
		}
		return offset
	}
	var out []offsets
	pos := make(map[string]int)
	var rec func(int)
	rec = func(i int) {
		if i == len(dims) {
			out = append(out, offsets{offsetOf(lhs, pos), offsetOf(rhs, pos), offsetOf(res, pos)})
			return
		}
		for j := range dims[i].Size {
			pos[dims[i].Name] = j
			rec(i + 1)
		}
	}
	rec(0)
	return out
}

func TestPlanInvariants(t *testing.T) {
	tests := []struct {
		lhs, rhs, res string
	}{
		{"tensor(x[3])", "tensor(x[3])", "tensor(x[3])"},
		{"tensor(x[3],y[2])", "tensor(y[2],z[4])", "tensor(x[3],y[2],z[4])"},
		{"tensor(x[3],y[2])", "tensor(y[2],z[4])", "tensor(x[3],z[4])"},
		{"tensor(x[3],y[2])", "tensor(y[2],z[4])", "double"},
		{"tensor(a[2],b[3],c[4])", "tensor(b[3])", "tensor(a[2],c[4])"},
		{"tensor(x{},a[2],b[1],c[3])", "tensor(y{},c[3],d[2])", "tensor(a[2],c[3],d[2])"},
		{"tensor(x[5])", "tensor(x[3])", "tensor(x[3])"},
		{"tensor(a[2],b[2],c[2],d[2],e[2])", "tensor(a[2],c[2],e[2])", "tensor(a[2],b[2],d[2],e[2])"},
	}
	for i, test := range tests {
		lhs, rhs, res := valuetype.FromSpec(test.lhs), valuetype.FromSpec(test.rhs), valuetype.FromSpec(test.res)
		plan := dense.NewJoinReducePlan(lhs, rhs, res)
		var got []offsets
		nestedloop.Run3(0, 0, 0, plan.LoopCnt, plan.LhsStride, plan.RhsStride, plan.ResStride, func(l, r, o int) {
			got = append(got, offsets{l, r, o})
		})
		if diff := cmp.Diff(bruteForce(lhs, rhs, res), got, cmp.AllowUnexported(offsets{})); diff != "" {
			t.Errorf("test %d: %s: unexpected iterations (-want +got):\n%s", i, plan, diff)
		}
		for j, cnt := range plan.LoopCnt {
			if cnt < 1 {
				t.Errorf("test %d: loop level %d has %d iterations", i, j, cnt)
			}
		}
		seen := make(map[[2]int]bool)
		for _, o := range got {
			key := [2]int{o.lhs, o.rhs}
			if seen[key] {
				t.Errorf("test %d: pair %v visited twice", i, key)
			}
			seen[key] = true
		}
		if !plan.DistinctResult() {
			continue
		}
		product := 1
		for _, cnt := range plan.LoopCnt {
			product *= cnt
		}
		if product != plan.ResSize {
			t.Errorf("test %d: %d iterations for a result of size %d", i, product, plan.ResSize)
		}
	}
}

func TestJoinPlan(t *testing.T) {
	plan := dense.NewJoinPlan(valuetype.FromSpec("tensor(x{},y[3])"), valuetype.FromSpec("tensor(y[3],z[2])"))
	if !plan.DistinctResult() || plan.ResSize != 6 {
		t.Errorf("unexpected join plan %s", plan)
	}
}

func TestStrides(t *testing.T) {
	got := dense.Strides(valuetype.FromSpec("tensor(a[2],b[3],c[4])").IndexedDims())
	if want := []int{12, 4, 1}; !cmp.Equal(got, want) {
		t.Errorf("got strides %v but want %v", got, want)
	}
}

func concat(plan *dense.ConcatPlan, lhs, rhs []float64, resSize int) []float64 {
	res := make([]float64, resSize)
	for _, p := range []struct {
		plan dense.CopyPlan
		in   []float64
	}{{plan.Left, lhs}, {plan.Right, rhs}} {
		nestedloop.Run2(0, p.plan.OutOffset, p.plan.LoopCnt, p.plan.InStride, p.plan.OutStride, func(in, out int) {
			res[out] = p.in[in]
		})
	}
	return res
}

func TestConcatPlan(t *testing.T) {
	tests := []struct {
		lhs, rhs string
		dim      string
		lhsCells []float64
		rhsCells []float64
		want     []float64
	}{
		{
			lhs: "tensor(x[2])", rhs: "tensor(x[3])", dim: "x",
			lhsCells: []float64{1, 2},
			rhsCells: []float64{3, 4, 5},
			want:     []float64{1, 2, 3, 4, 5},
		},
		{
			lhs: "double", rhs: "tensor(x[2])", dim: "x",
			lhsCells: []float64{1},
			rhsCells: []float64{2, 3},
			want:     []float64{1, 2, 3},
		},
		{
			lhs: "tensor(x[2],y[2])", rhs: "tensor(x[1],y[2])", dim: "x",
			lhsCells: []float64{1, 2, 3, 4},
			rhsCells: []float64{5, 6},
			want:     []float64{1, 2, 3, 4, 5, 6},
		},
		{
			lhs: "tensor(x[2],y[2])", rhs: "tensor(x[2])", dim: "y",
			lhsCells: []float64{1, 2, 3, 4},
			rhsCells: []float64{5, 6},
			want:     []float64{1, 2, 5, 3, 4, 6},
		},
		{
			lhs: "tensor(y[2])", rhs: "tensor(x[2],y[2])", dim: "x",
			lhsCells: []float64{1, 2},
			rhsCells: []float64{3, 4, 5, 6},
			want:     []float64{1, 2, 3, 4, 5, 6},
		},
	}
	for i, test := range tests {
		lhs, rhs := valuetype.FromSpec(test.lhs), valuetype.FromSpec(test.rhs)
		res := valuetype.Concat(lhs, rhs, test.dim)
		plan := dense.NewConcatPlan(lhs, rhs, res, test.dim)
		got := concat(plan, test.lhsCells, test.rhsCells, res.DenseSubspaceSize())
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: %s: unexpected cells (-want +got):\n%s", i, res, diff)
		}
	}
}

func TestCopyPlan(t *testing.T) {
	tests := []struct {
		in, res  string
		from, to []string
		want     dense.CopyPlan
	}{
		{
			in: "tensor(x[2],y[3])", res: "tensor(x[3],y[2])",
			from: []string{"x", "y"}, to: []string{"y", "x"},
			want: dense.CopyPlan{LoopCnt: []int{3, 2}, InStride: []int{1, 3}, OutStride: []int{2, 1}},
		},
		{
			in: "tensor(x[2],y[3])", res: "tensor(y[3])",
			want: dense.CopyPlan{LoopCnt: []int{3}, InStride: []int{1}, OutStride: []int{1}},
		},
		{
			in: "tensor(x[2],y[3])", res: "tensor(x[2],z[3])",
			from: []string{"y"}, to: []string{"z"},
			want: dense.CopyPlan{LoopCnt: []int{6}, InStride: []int{1}, OutStride: []int{1}},
		},
	}
	for i, test := range tests {
		got := dense.NewCopyPlan(valuetype.FromSpec(test.in), valuetype.FromSpec(test.res), test.from, test.to)
		if diff := cmp.Diff(&test.want, got); diff != "" {
			t.Errorf("test %d: unexpected plan (-want +got):\n%s", i, diff)
		}
	}
}
