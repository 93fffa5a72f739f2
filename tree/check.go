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

package tree

import (
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// NodeTypes binds the nodes of a tree to their types.
type NodeTypes struct {
	types map[Node]*valuetype.Type
	errs  error
}

func newNodeTypes() *NodeTypes {
	return &NodeTypes{types: make(map[Node]*valuetype.Type)}
}

// Get returns the type of a node or the error type if the node is unknown.
func (nt *NodeTypes) Get(n Node) *valuetype.Type {
	if t, ok := nt.types[n]; ok {
		return t
	}
	return valuetype.Error()
}

// Errors returns the type errors found while checking.
func (nt *NodeTypes) Errors() []error {
	return multierr.Errors(nt.errs)
}

// Err returns the type errors as a single error or nil if there is none.
func (nt *NodeTypes) Err() error {
	return nt.errs
}

// Len returns the number of typed nodes.
func (nt *NodeTypes) Len() int {
	return len(nt.types)
}

// Export returns the types of the nodes of a subtree, bodies included.
// Errors are not exported.
func (nt *NodeTypes) Export(root Node) *NodeTypes {
	r := newNodeTypes()
	Walk(root, func(n Node) {
		if t, ok := nt.types[n]; ok {
			r.types[n] = t
		}
	})
	return r
}

// Replace binds the type of old to n and forgets old.
func (nt *NodeTypes) Replace(old, n Node) {
	t, ok := nt.types[old]
	if !ok {
		return
	}
	delete(nt.types, old)
	nt.types[n] = t
}

// Equal returns true if both bind the same nodes to equal types.
func (nt *NodeTypes) Equal(o *NodeTypes) bool {
	if len(nt.types) != len(o.types) {
		return false
	}
	for n, t := range nt.types {
		ot, ok := o.types[n]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}

type checker struct {
	types  *NodeTypes
	frames [][]*valuetype.Type
}

// Check computes the types of all the nodes of a tree, given the types of
// its parameters. A node with an invalid operation has the error type and
// reports an error. A node with an operand of the error type has the error
// type without reporting a new error.
func Check(root Node, params []*valuetype.Type) *NodeTypes {
	c := &checker{
		types:  newNodeTypes(),
		frames: [][]*valuetype.Type{params},
	}
	c.check(root)
	return c.types
}

func (c *checker) frame() []*valuetype.Type {
	return c.frames[len(c.frames)-1]
}

func (c *checker) errorf(n Node, format string, a ...any) *valuetype.Type {
	err := errors.Errorf("%s: "+format, append([]any{n}, a...)...)
	c.types.errs = multierr.Append(c.types.errs, err)
	return valuetype.Error()
}

func (c *checker) inFrame(frame []*valuetype.Type, body Node) *valuetype.Type {
	c.frames = append(c.frames, frame)
	defer func() { c.frames = c.frames[:len(c.frames)-1] }()
	return c.check(body)
}

func (c *checker) check(n Node) *valuetype.Type {
	if n == nil {
		c.types.errs = multierr.Append(c.types.errs, errors.Errorf("missing node"))
		return valuetype.Error()
	}
	var children []*valuetype.Type
	poisoned := false
	for _, child := range n.Children() {
		t := c.check(*child)
		poisoned = poisoned || t.IsError()
		children = append(children, t)
	}
	var t *valuetype.Type
	if poisoned {
		t = valuetype.Error()
	} else {
		t = c.resolve(n, children)
	}
	c.types.types[n] = t
	return t
}

func (c *checker) resolve(n Node, children []*valuetype.Type) *valuetype.Type {
	var t *valuetype.Type
	switch nT := n.(type) {
	case *Inject:
		frame := c.frame()
		if nT.Param < 0 || nT.Param >= len(frame) {
			return c.errorf(n, "parameter %d out of range [0,%d)", nT.Param, len(frame))
		}
		t = frame[nT.Param]
	case *Const:
		t = nT.Value.Type()
	case *Map:
		t = valuetype.Map(children[0])
	case *Join:
		t = valuetype.Join(children[0], children[1])
	case *Merge:
		t = valuetype.Merge(children[0], children[1])
	case *Reduce:
		t = valuetype.Reduce(children[0], nT.Dims)
	case *Rename:
		t = valuetype.Rename(children[0], nT.From, nT.To)
	case *Concat:
		t = valuetype.Concat(children[0], children[1], nT.Dim)
	case *Peek:
		return c.resolvePeek(nT, children)
	case *Create:
		return c.resolveCreate(nT, children)
	case *Lambda:
		return c.resolveLambda(nT)
	case *CellCast:
		t = valuetype.CellCast(children[0], nT.To)
	case *MapSubspaces:
		inner := c.inFrame([]*valuetype.Type{children[0].DenseSubspaceType()}, nT.Fn)
		if inner.IsError() {
			return inner
		}
		t = valuetype.MapSubspaces(children[0], inner)
	case Resolver:
		t = nT.ResolveType(children)
	default:
		return c.errorf(n, "node type %T not supported", n)
	}
	if t.IsError() {
		return c.errorf(n, "invalid operand types %v", children)
	}
	return t
}

func (c *checker) resolvePeek(n *Peek, children []*valuetype.Type) *valuetype.Type {
	child := children[0]
	dims := make([]string, len(n.Keys))
	expr := 1
	for i, key := range n.Keys {
		dims[i] = key.Dim
		if key.Expr != nil {
			if t := children[expr]; !t.IsDouble() {
				return c.errorf(n, "label of dimension %s computed as %s instead of a double", key.Dim, t)
			}
			expr++
			continue
		}
		dim, ok := child.Dimension(key.Dim)
		if ok && dim.IsIndexed() {
			if _, err := strconv.Atoi(key.Label); err != nil {
				return c.errorf(n, "label %q of indexed dimension %s is not an index", key.Label, key.Dim)
			}
		}
	}
	t := valuetype.Peek(child, dims)
	if t.IsError() {
		return c.errorf(n, "cannot peek dimensions %v of %s", dims, child)
	}
	return t
}

func (c *checker) resolveCreate(n *Create, children []*valuetype.Type) *valuetype.Type {
	if n.Type == nil || n.Type.IsError() {
		return c.errorf(n, "invalid type")
	}
	for i, cc := range n.Cells {
		if !children[i].IsDouble() {
			return c.errorf(n, "cell %s computed as %s instead of a double", cc.Address, children[i])
		}
		if len(cc.Address) != n.Type.NumDims() {
			return c.errorf(n, "address %s does not match %s", cc.Address, n.Type)
		}
		for _, dim := range n.Type.Dims() {
			lbl, ok := cc.Address[dim.Name]
			switch {
			case !ok:
				return c.errorf(n, "address %s misses dimension %s", cc.Address, dim.Name)
			case dim.IsMapped() != lbl.IsMapped():
				return c.errorf(n, "address %s has an invalid label for dimension %s", cc.Address, dim)
			case dim.IsIndexed() && (lbl.Index < 0 || lbl.Index >= dim.Size):
				return c.errorf(n, "address %s out of the range of dimension %s", cc.Address, dim)
			}
		}
	}
	return n.Type
}

func (c *checker) resolveLambda(n *Lambda) *valuetype.Type {
	if n.Type == nil || n.Type.IsError() || n.Type.CountMappedDims() > 0 {
		return c.errorf(n, "lambda must create a dense value")
	}
	outer := c.frame()
	var frame []*valuetype.Type
	for range n.Type.IndexedDims() {
		frame = append(frame, valuetype.Double())
	}
	for _, b := range n.Bindings {
		if b < 0 || b >= len(outer) {
			return c.errorf(n, "binding %d out of range [0,%d)", b, len(outer))
		}
		frame = append(frame, outer[b])
	}
	body := c.inFrame(frame, n.Fn)
	if body.IsError() {
		return body
	}
	if !body.IsDouble() {
		return c.errorf(n, "body computes %s instead of a double", body)
	}
	return n.Type
}
