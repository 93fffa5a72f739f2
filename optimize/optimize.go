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

// Package optimize rewrites operator trees to use specialised routines.
//
// Rules are tried in registration order on each node of a tree, children
// before parents. The first rule returning a replacement wins; the
// replacement takes the type of the node it replaces.
package optimize

import (
	"github.com/pkg/errors"

	"github.com/vespa-engine/vespa-sub064/base/ordered"
	"github.com/vespa-engine/vespa-sub064/tree"
)

type (
	// Rule returns a replacement for a node or nil if it does not apply.
	Rule struct {
		Name  string
		Apply func(n tree.Node, types *tree.NodeTypes) tree.Node
	}

	// Tracer is notified of each rewrite.
	Tracer interface {
		Rewrite(rule string, before, after tree.Node)
	}

	// Rules is an ordered set of rules.
	Rules struct {
		rules *ordered.Map[string, Rule]
	}
)

// NewRules returns a set of rules, applied in the given order.
func NewRules(rules ...Rule) *Rules {
	r := &Rules{rules: ordered.NewMap[string, Rule]()}
	for _, rule := range rules {
		r.rules.Store(rule.Name, rule)
	}
	return r
}

// Standard returns all the rules of the package.
func Standard() *Rules {
	return NewRules(
		Rule{Name: "l2_distance", Apply: l2Distance},
		Rule{Name: "sparse_dot_product", Apply: sparseDotProduct},
		Rule{Name: "mixed_weighted_sum", Apply: mixedWeightedSum},
		Rule{Name: "sparse_full_overlap_join", Apply: sparseFullOverlapJoin},
		Rule{Name: "sparse_no_overlap_join", Apply: sparseNoOverlapJoin},
		Rule{Name: "mixed_map", Apply: mixedMap},
		Rule{Name: "fast_rename", Apply: fastRename},
		Rule{Name: "sparse_single_dim_lookup", Apply: sparseSingleDimLookup},
		Rule{Name: "cell_cast", Apply: cellCast},
	)
}

// Names returns the names of the rules in order.
func (r *Rules) Names() []string {
	return r.rules.Keys()
}

// Select returns the rules with the given names, keeping their order.
func (r *Rules) Select(names ...string) (*Rules, error) {
	selected := make(map[string]bool)
	for _, name := range names {
		if _, ok := r.rules.Load(name); !ok {
			return nil, errors.Errorf("unknown optimizer rule %q", name)
		}
		selected[name] = true
	}
	return &Rules{rules: r.rules.Filter(func(name string, _ Rule) bool {
		return selected[name]
	})}, nil
}

// Optimize rewrites a tree and returns its new root. types is updated
// with the types of the replacement nodes. tracer may be nil.
func (r *Rules) Optimize(root tree.Node, types *tree.NodeTypes, tracer Tracer) tree.Node {
	o := optimizer{rules: r.rules.Values(), types: types, tracer: tracer}
	o.rewrite(&root)
	return root
}

type optimizer struct {
	rules  []Rule
	types  *tree.NodeTypes
	tracer Tracer
}

func (o *optimizer) rewrite(slot *tree.Node) {
	n := *slot
	for _, child := range n.Children() {
		o.rewrite(child)
	}
	if scope, ok := n.(tree.Scope); ok {
		o.rewrite(scope.Body())
	}
	for _, rule := range o.rules {
		repl := rule.Apply(n, o.types)
		if repl == nil {
			continue
		}
		o.types.Replace(n, repl)
		if o.tracer != nil {
			o.tracer.Rewrite(rule.Name, n, repl)
		}
		*slot = repl
		return
	}
}
