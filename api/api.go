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

// Package api compiles expression trees into functions evaluating tensors.
//
// A Function is immutable once compiled and can be evaluated concurrently.
// Each goroutine evaluating a function uses its own Context.
package api

import (
	"strings"

	"github.com/pkg/errors"
	basefmt "github.com/vespa-engine/vespa-sub064/base/fmt"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"github.com/vespa-engine/vespa-sub064/tree"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// Function is a compiled expression.
type Function struct {
	root    tree.Node
	types   *tree.NodeTypes
	params  []*valuetype.Type
	prog    *tree.Compiled
	factory value.Factory
}

// Compile type checks, optimizes, and compiles a tree for a given list of
// parameter types. The optimizer rewrites the tree in place: a tree is
// owned by the function compiled from it.
func Compile(root tree.Node, params []*valuetype.Type, opts ...Option) (*Function, error) {
	cfg, err := processOptions(opts)
	if err != nil {
		return nil, err
	}
	types := tree.Check(root, params)
	if err := types.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot compile %s", root)
	}
	if cfg.rules != nil {
		root = cfg.rules.Optimize(root, types, cfg.tracer())
		types = types.Export(root)
	}
	return &Function{
		root:    root,
		types:   types,
		params:  params,
		prog:    tree.Compile(root, types),
		factory: cfg.factory,
	}, nil
}

// Reference compiles a tree without optimization, building values with the
// simple factory. Its results are used to check optimized functions.
func Reference(root tree.Node, params []*valuetype.Type) (*Function, error) {
	return Compile(root, params, WithoutOptimizer(), WithFactory(value.Simple))
}

// Root returns the root of the optimized tree.
func (f *Function) Root() tree.Node {
	return f.root
}

// Types returns the types of the nodes of the optimized tree.
func (f *Function) Types() *tree.NodeTypes {
	return f.types
}

// Type returns the type of the result of the function.
func (f *Function) Type() *valuetype.Type {
	return f.types.Get(f.root)
}

// Count returns the number of instructions running a given routine.
func (f *Function) Count(name string) int {
	return f.prog.Count(name)
}

// NewContext returns a context to evaluate the function.
func (f *Function) NewContext() *Context {
	arena := stash.New()
	return &Context{
		fn:    f,
		arena: arena,
		state: f.prog.Main.NewState(f.factory, arena),
	}
}

// Eval evaluates the function in a new context.
func (f *Function) Eval(params ...value.Value) value.Value {
	return f.NewContext().Eval(params...)
}

// EvalSpec evaluates the function on tensor specs.
func (f *Function) EvalSpec(params ...*tensorspec.Spec) *tensorspec.Spec {
	return f.NewContext().EvalSpec(params...)
}

// String returns the optimized tree followed by the numbered instructions of
// the main program.
func (f *Function) String() string {
	var s strings.Builder
	s.WriteString(tree.Dump(f.root))
	s.WriteString("program:\n")
	s.WriteString(basefmt.Number(f.prog.Main.String()))
	return s.String()
}

// Context holds the memory of the evaluations of a function.
// A context is used by a single goroutine.
type Context struct {
	fn    *Function
	arena *stash.Stash
	state *interp.State
}

// Eval evaluates the function. The result is valid until the next
// evaluation in the same context.
func (c *Context) Eval(params ...value.Value) value.Value {
	want := c.fn.params
	if len(params) != len(want) {
		panic(errors.Errorf("got %d parameters but want %d", len(params), len(want)))
	}
	for i, p := range params {
		if !p.Type().Equal(want[i]) {
			panic(errors.Errorf("parameter %d: got type %s but want %s", i, p.Type(), want[i]))
		}
	}
	c.arena.Reset()
	return c.fn.prog.Main.Run(c.state, params)
}

// EvalSpec evaluates the function on tensor specs.
func (c *Context) EvalSpec(params ...*tensorspec.Spec) *tensorspec.Spec {
	values := make([]value.Value, len(params))
	for i, p := range params {
		values[i] = value.MustFromSpec(c.fn.factory, p)
	}
	return value.ToSpec(c.Eval(values...))
}
