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

package instruction_test

import (
	"testing"

	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/instruction"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/operation"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

var factories = []struct {
	name string
	f    value.Factory
}{
	{"simple", value.Simple},
	{"fast", value.Fast},
}

// program returns the instructions run after the parameters have been
// pushed on the stack.
type program func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction

type routineTest struct {
	params []string
	prog   program
	want   string
}

func eval(f value.Factory, prog program, params []string) (value.Value, []value.Value) {
	consts := stash.New()
	var values []value.Value
	var types []*valuetype.Type
	var code []interp.Instruction
	for i, src := range params {
		v := value.MustFromSpec(f, tensorspec.MustParse(src))
		values = append(values, v)
		types = append(types, v.Type())
		code = append(code, instruction.Inject(i))
	}
	code = append(code, prog(consts, types)...)
	p := interp.NewProgram(code, consts)
	return p.Run(p.NewState(f, stash.New()), values), values
}

func runTests(t *testing.T, tests []routineTest) {
	for _, fac := range factories {
		for i, test := range tests {
			got, params := eval(fac.f, test.prog, test.params)
			want := tensorspec.MustParse(test.want)
			if gotSpec := value.ToSpec(got); !gotSpec.Approx(want, 1e-6) {
				t.Errorf("%s test %d: got %s but want %s", fac.name, i, gotSpec, want)
			}
			for j, param := range params {
				if orig := tensorspec.MustParse(test.params[j]); !value.ToSpec(param).Equal(orig) {
					t.Errorf("%s test %d: parameter %d modified: %s", fac.name, i, j, param)
				}
			}
		}
	}
}

func join(fn *operation.Binary) program {
	return func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
		lhs, rhs := types[len(types)-2], types[len(types)-1]
		return []interp.Instruction{instruction.Join(consts, lhs, rhs, valuetype.Join(lhs, rhs), fn)}
	}
}

func reduce(aggr operation.Aggr, dims ...string) program {
	return func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
		return []interp.Instruction{instruction.Reduce(consts, types[0], valuetype.Reduce(types[0], dims), aggr)}
	}
}

func peek(dims ...instruction.PeekDim) program {
	return func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
		var names []string
		for _, d := range dims {
			names = append(names, d.Name)
		}
		return []interp.Instruction{instruction.Peek(consts, types[0], valuetype.Peek(types[0], names), dims)}
	}
}

func at(name, lbl string) instruction.PeekDim {
	return instruction.PeekDim{Name: name, Label: lbl, Expr: -1}
}

func TestGenericRoutines(t *testing.T) {
	runTests(t, []routineTest{
		{
			params: []string{"tensor<float>(x[2]):[1,2]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.Map(consts, valuetype.Map(types[0]), operation.Neg)}
			},
			want: "tensor<float>(x[2]):[-1,-2]",
		},
		{
			params: []string{"tensor(x{},y[2]):{a:[1,2],b:[3,4]}", "tensor(y[2]):[10,100]"},
			prog:   join(operation.Mul),
			want:   "tensor(x{},y[2]):{a:[10,200],b:[30,400]}",
		},
		{
			params: []string{
				"tensor(x{},y{}):{{x:a,y:1}:1,{x:b,y:2}:2}",
				"tensor(y{},z{}):{{y:1,z:c}:10,{y:1,z:d}:20,{y:3,z:e}:30}",
			},
			prog: join(operation.Add),
			want: "tensor(x{},y{},z{}):{{x:a,y:1,z:c}:11,{x:a,y:1,z:d}:21}",
		},
		{
			params: []string{"double:2", "tensor(x[3]):[1,2,3]"},
			prog:   join(operation.Mul),
			want:   "tensor(x[3]):[2,4,6]",
		},
		{
			params: []string{"tensor(x[2]):[1,2]", "tensor(x[3]):[10,20,30]"},
			prog:   join(operation.Add),
			want:   "tensor(x[2]):[11,22]",
		},
		{
			params: []string{"tensor(x{}):{a:1,b:2}", "tensor(x{}):{b:3,c:4}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.Merge(consts, valuetype.Merge(types[0], types[1]), operation.Add)}
			},
			want: "tensor(x{}):{a:1,b:5,c:4}",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   reduce(operation.Sum, "y"),
			want:   "tensor(x{}):{a:6,b:15}",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   reduce(operation.MaxAggr, "x"),
			want:   "tensor(y[3]):[4,5,6]",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   reduce(operation.Sum),
			want:   "double:21",
		},
		{
			params: []string{"tensor(x{}):{}"},
			prog:   reduce(operation.Avg),
			want:   "double:0",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   reduce(operation.Avg),
			want:   "double:3.5",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   reduce(operation.Avg, "x"),
			want:   "tensor(y[3]):[2.5,3.5,4.5]",
		},
		{
			params: []string{"tensor(x{},y{},z[2]):{{x:a,y:p,z:0}:1,{x:a,y:p,z:1}:2,{x:a,y:q,z:0}:3,{x:a,y:q,z:1}:4,{x:b,y:p,z:0}:5,{x:b,y:p,z:1}:6}"},
			prog:   reduce(operation.Count, "y", "z"),
			want:   "tensor(x{}):{a:4,b:2}",
		},
		{
			params: []string{"tensor(x[3]):[-5,-2,-9]"},
			prog:   reduce(operation.MaxAggr),
			want:   "double:-2",
		},
		{
			params: []string{"tensor(x[2],y[3]):[[1,2,3],[4,5,6]]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				from, to := []string{"x", "y"}, []string{"y", "x"}
				return []interp.Instruction{instruction.Rename(consts, types[0], valuetype.Rename(types[0], from, to), from, to)}
			},
			want: "tensor(x[3],y[2]):[[1,4],[2,5],[3,6]]",
		},
		{
			params: []string{"tensor(a{},b{}):{{a:x,b:y}:1,{a:z,b:w}:2}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				from, to := []string{"a"}, []string{"c"}
				return []interp.Instruction{instruction.Rename(consts, types[0], valuetype.Rename(types[0], from, to), from, to)}
			},
			want: "tensor(b{},c{}):{{b:y,c:x}:1,{b:w,c:z}:2}",
		},
		{
			params: []string{"tensor(x[2]):[1,2]", "tensor(x[3]):[3,4,5]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.Concat(consts, types[0], types[1], valuetype.Concat(types[0], types[1], "x"), "x")}
			},
			want: "tensor(x[5]):[1,2,3,4,5]",
		},
		{
			params: []string{"tensor(x{},y[1]):{a:[1],b:[2]}", "tensor(x{},y[1]):{a:[3]}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.Concat(consts, types[0], types[1], valuetype.Concat(types[0], types[1], "y"), "y")}
			},
			want: "tensor(x{},y[2]):{a:[1,3]}",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   peek(at("y", "1")),
			want:   "tensor(x{}):{a:2,b:5}",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   peek(at("x", "b")),
			want:   "tensor(y[3]):[4,5,6]",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}"},
			prog:   peek(at("x", "a"), at("y", "2")),
			want:   "double:3",
		},
		{
			params: []string{"tensor(x{},y[3]):{a:[1,2,3],b:[4,5,6]}", "double:2.7"},
			prog:   peek(instruction.PeekDim{Name: "y", Expr: 0}),
			want:   "tensor(x{}):{a:3,b:6}",
		},
		{
			params: []string{"tensor(x[2],y[3]):[[1,2,3],[4,5,6]]"},
			prog:   peek(at("y", "5")),
			want:   "tensor(x[2]):[0,0]",
		},
		{
			params: []string{"tensor(x{}):{a:1}"},
			prog:   peek(at("x", "missing")),
			want:   "double:0",
		},
		{
			params: []string{"double:1", "double:2"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				addrs := []tensorspec.Address{
					{"x": tensorspec.Lbl("a"), "y": tensorspec.Idx(1)},
					{"x": tensorspec.Lbl("b"), "y": tensorspec.Idx(0)},
				}
				return []interp.Instruction{instruction.Create(consts, valuetype.FromSpec("tensor(x{},y[2])"), addrs)}
			},
			want: "tensor(x{},y[2]):{a:[0,1],b:[2,0]}",
		},
		{
			params: []string{"tensor(x[2]):[1.5,-2]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.CellCast(consts, types[0], valuetype.CellCast(types[0], cell.Int8))}
			},
			want: "tensor<int8>(x[2]):[1,-2]",
		},
		{
			params: []string{"double:10"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				d := valuetype.Double()
				body := interp.NewProgram([]interp.Instruction{
					instruction.Inject(0),
					instruction.Inject(1),
					instruction.Join(consts, d, d, d, operation.Add),
					instruction.Inject(2),
					instruction.Join(consts, d, d, d, operation.Add),
				}, consts)
				return []interp.Instruction{instruction.Lambda(consts, valuetype.FromSpec("tensor<float>(x[2],y[3])"), body, []int{0})}
			},
			want: "tensor<float>(x[2],y[3]):[[10,11,12],[11,12,13]]",
		},
		{
			params: []string{"tensor<float>(x{}):{a:1,b:2}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				d := valuetype.Double()
				body := interp.NewProgram([]interp.Instruction{
					instruction.Inject(0),
					instruction.Map(consts, d, operation.Square),
				}, consts)
				return []interp.Instruction{instruction.MapSubspaces(consts, types[0], valuetype.MapSubspaces(types[0], d), body)}
			},
			want: "tensor<float>(x{}):{a:1,b:4}",
		},
	})
}

func TestSpecializedRoutines(t *testing.T) {
	runTests(t, []routineTest{
		{
			params: []string{"tensor<float>(x[3]):[1,2,3]", "tensor<float>(x[3]):[2,4,6]"},
			prog: func(*stash.Stash, []*valuetype.Type) []interp.Instruction {
				inst, _ := instruction.L2Distance(cell.Float)
				return []interp.Instruction{inst}
			},
			want: "double:14",
		},
		{
			params: []string{"tensor(x{}):{a:1,b:2,c:3}", "tensor(x{}):{b:10,c:100,d:1000}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.SparseDotProduct(consts, types[0])}
			},
			want: "double:320",
		},
		{
			params: []string{"tensor(y[2]):[1,10]", "tensor(x{},y[2]):{a:[1,2],b:[3,4]}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				res := valuetype.Reduce(valuetype.Join(types[0], types[1]), []string{"y"})
				inst, _ := instruction.MixedWeightedSum(consts, types[0], types[1], res, true)
				return []interp.Instruction{inst}
			},
			want: "tensor(x{}):{a:21,b:43}",
		},
		{
			params: []string{"tensor(x{}):{a:1,b:2}", "tensor(x{}):{b:3,c:4}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				res := valuetype.Join(types[0], types[1])
				return []interp.Instruction{instruction.SparseFullOverlapJoin(consts, types[0], types[1], res, operation.Mul.F)}
			},
			want: "tensor(x{}):{b:6}",
		},
		{
			params: []string{"tensor(x{}):{a:1,b:2}", "tensor(y{}):{c:10}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				res := valuetype.Join(types[0], types[1])
				return []interp.Instruction{instruction.SparseNoOverlapJoin(consts, types[0], types[1], res, operation.Add.F)}
			},
			want: "tensor(x{},y{}):{{x:a,y:c}:11,{x:b,y:c}:12}",
		},
		{
			params: []string{"tensor(x{}):{1:5,2:7}", "double:2"},
			prog: func(*stash.Stash, []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.SparseSingleDimLookup()}
			},
			want: "double:7",
		},
		{
			params: []string{"tensor(x{}):{1:5,2:7}", "double:3"},
			prog: func(*stash.Stash, []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.SparseSingleDimLookup()}
			},
			want: "double:0",
		},
		{
			params: []string{"tensor(x[2]):[1,-3]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{
					instruction.Map(consts, types[0], operation.Neg),
					instruction.MixedMap(consts, types[0], types[0], operation.Square, true),
				}
			},
			want: "tensor(x[2]):[1,9]",
		},
		{
			params: []string{"tensor<int8>(x[2]):[1,-3]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.MixedMap(consts, types[0], valuetype.Map(types[0]), operation.Neg, false)}
			},
			want: "tensor<float>(x[2]):[-1,3]",
		},
		{
			params: []string{"tensor(x{},y[2]):{a:[1,2]}"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.FastRename(consts, valuetype.Rename(types[0], []string{"x"}, []string{"z"}))}
			},
			want: "tensor(y[2],z{}):{a:[1,2]}",
		},
		{
			params: []string{"tensor<bfloat16>(x[2]):[1,2.5]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.CastBFloat16ToFloat(consts, valuetype.CellCast(types[0], cell.Float))}
			},
			want: "tensor<float>(x[2]):[1,2.5]",
		},
		{
			params: []string{"tensor<float>(x[2]):[1,2.5]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.CastConvert(consts, types[0], valuetype.CellCast(types[0], cell.Double))}
			},
			want: "tensor(x[2]):[1,2.5]",
		},
		{
			params: []string{"tensor<float>(x[2]):[1,2.5]"},
			prog: func(consts *stash.Stash, types []*valuetype.Type) []interp.Instruction {
				return []interp.Instruction{instruction.CastNoop(consts, types[0])}
			},
			want: "tensor<float>(x[2]):[1,2.5]",
		},
	})
}

func TestUnsupportedKinds(t *testing.T) {
	if _, ok := instruction.L2Distance(cell.BFloat16); ok {
		t.Errorf("l2_distance available for bfloat16 cells")
	}
	res := valuetype.FromSpec("tensor<int8>(x{})")
	if _, ok := instruction.MixedWeightedSum(stash.New(), valuetype.FromSpec("tensor<int8>(y[2])"), valuetype.FromSpec("tensor<int8>(x{},y[2])"), res, false); ok {
		t.Errorf("mixed_weighted_sum available for int8 cells")
	}
}
