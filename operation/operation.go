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

// Package operation defines the scalar functions applied to tensor cells
// and the aggregators used by reductions.
//
// Functions are compared by identity: the optimizer recognizes a pattern
// by checking that a node applies, for example, Sub.
package operation

import (
	"math"
)

type (
	// Unary is a function of one cell.
	Unary struct {
		Name string
		F    func(float64) float64
	}

	// Binary is a function of two cells.
	Binary struct {
		Name string
		F    func(float64, float64) float64
	}
)

func (f *Unary) String() string { return f.Name }

func (f *Binary) String() string { return f.Name }

func boolean(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Binary functions.
var (
	Add = &Binary{Name: "add", F: func(a, b float64) float64 { return a + b }}
	Sub = &Binary{Name: "sub", F: func(a, b float64) float64 { return a - b }}
	Mul = &Binary{Name: "mul", F: func(a, b float64) float64 { return a * b }}
	Div = &Binary{Name: "div", F: func(a, b float64) float64 { return a / b }}
	Mod = &Binary{Name: "mod", F: math.Mod}
	Pow = &Binary{Name: "pow", F: math.Pow}
	Max = &Binary{Name: "max", F: math.Max}
	Min = &Binary{Name: "min", F: math.Min}

	Equal   = &Binary{Name: "equal", F: func(a, b float64) float64 { return boolean(a == b) }}
	Less    = &Binary{Name: "less", F: func(a, b float64) float64 { return boolean(a < b) }}
	Greater = &Binary{Name: "greater", F: func(a, b float64) float64 { return boolean(a > b) }}
)

// Unary functions.
var (
	Neg     = &Unary{Name: "neg", F: func(x float64) float64 { return -x }}
	Square  = &Unary{Name: "square", F: func(x float64) float64 { return x * x }}
	Cube    = &Unary{Name: "cube", F: func(x float64) float64 { return x * x * x }}
	Inv     = &Unary{Name: "inv", F: func(x float64) float64 { return 1 / x }}
	Abs     = &Unary{Name: "abs", F: math.Abs}
	Exp     = &Unary{Name: "exp", F: math.Exp}
	Log     = &Unary{Name: "log", F: math.Log}
	Sqrt    = &Unary{Name: "sqrt", F: math.Sqrt}
	Floor   = &Unary{Name: "floor", F: math.Floor}
	Ceil    = &Unary{Name: "ceil", F: math.Ceil}
	Tanh    = &Unary{Name: "tanh", F: math.Tanh}
	Relu    = &Unary{Name: "relu", F: func(x float64) float64 { return max(x, 0) }}
	Sigmoid = &Unary{Name: "sigmoid", F: func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }}
)

var (
	unaries  = []*Unary{Neg, Square, Cube, Inv, Abs, Exp, Log, Sqrt, Floor, Ceil, Tanh, Relu, Sigmoid}
	binaries = []*Binary{Add, Sub, Mul, Div, Mod, Pow, Max, Min, Equal, Less, Greater}
)

// UnaryByName returns a unary function given its name.
func UnaryByName(name string) (*Unary, bool) {
	for _, f := range unaries {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// BinaryByName returns a binary function given its name.
func BinaryByName(name string) (*Binary, bool) {
	for _, f := range binaries {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
