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

// Package tensorspec implements TensorSpec: a literal, label-keyed
// description of a tensor used as the human readable form of values
// and as the target of reference evaluations.
package tensorspec

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/vespa-engine/vespa-sub064/fmt/fmtarray"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// Label of a cell along a dimension: a name for a mapped dimension or an
// index for an indexed dimension.
type Label struct {
	Name  string
	Index int
}

const noIndex = -1

// Idx returns the label at position i of an indexed dimension.
func Idx(i int) Label {
	return Label{Index: i}
}

// Lbl returns a label of a mapped dimension.
func Lbl(name string) Label {
	return Label{Name: name, Index: noIndex}
}

// IsMapped returns true if the label belongs to a mapped dimension.
func (l Label) IsMapped() bool {
	return l.Index == noIndex
}

func compareLabels(a, b Label) int {
	if a.IsMapped() != b.IsMapped() {
		if a.IsMapped() {
			return 1
		}
		return -1
	}
	if a.IsMapped() {
		return strings.Compare(a.Name, b.Name)
	}
	return cmp.Compare(a.Index, b.Index)
}

func isBareLabel(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isLabelRune(r) {
			return false
		}
	}
	return true
}

func isLabelRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == '.', r == '/':
		return true
	}
	return false
}

// String returns the label as written in tensor literals.
func (l Label) String() string {
	if !l.IsMapped() {
		return strconv.Itoa(l.Index)
	}
	if isBareLabel(l.Name) {
		return l.Name
	}
	return strconv.Quote(l.Name)
}

// Address of a cell: a label for each dimension of the tensor.
type Address map[string]Label

func (a Address) dims() []string {
	dims := make([]string, 0, len(a))
	for dim := range a {
		dims = append(dims, dim)
	}
	slices.Sort(dims)
	return dims
}

// String returns the address as written in tensor literals: {x:foo,y:0}.
func (a Address) String() string {
	var s strings.Builder
	s.WriteString("{")
	for i, dim := range a.dims() {
		if i > 0 {
			s.WriteString(",")
		}
		s.WriteString(dim)
		s.WriteString(":")
		s.WriteString(a[dim].String())
	}
	s.WriteString("}")
	return s.String()
}

func compareAddresses(a, b Address) int {
	dims := a.dims()
	if c := slices.Compare(dims, b.dims()); c != 0 {
		return c
	}
	for _, dim := range dims {
		if c := compareLabels(a[dim], b[dim]); c != 0 {
			return c
		}
	}
	return 0
}

// Cell of a tensor.
type Cell struct {
	Address Address
	Value   float64
}

// Spec is a tensor given by its type and the value of its cells.
// Cells absent from a spec are zero.
type Spec struct {
	typ   string
	cells map[string]Cell
}

// New returns a tensor spec without any cell.
func New(typ string) *Spec {
	return &Spec{typ: typ, cells: make(map[string]Cell)}
}

// Type returns the type of the tensor.
func (s *Spec) Type() string {
	return s.typ
}

// Add sets the value of a cell. It returns the spec to chain calls.
func (s *Spec) Add(addr Address, v float64) *Spec {
	s.cells[addr.String()] = Cell{Address: addr, Value: v}
	return s
}

// Lookup returns the value of a cell.
func (s *Spec) Lookup(addr Address) (float64, bool) {
	c, ok := s.cells[addr.String()]
	return c.Value, ok
}

// Len returns the number of cells in the spec.
func (s *Spec) Len() int {
	return len(s.cells)
}

// Cells returns the cells of the spec sorted by address.
func (s *Spec) Cells() []Cell {
	cells := make([]Cell, 0, len(s.cells))
	for _, c := range s.cells {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		return compareAddresses(a.Address, b.Address)
	})
	return cells
}

// Normalize returns a spec where the type is written in its canonical
// form and where all the cells of the dense subspaces present in s exist.
// Missing cells are set to zero.
func (s *Spec) Normalize() *Spec {
	typ := valuetype.FromSpec(s.typ)
	r := New(typ.String())
	if typ.IsError() {
		for _, c := range s.cells {
			r.Add(c.Address, c.Value)
		}
		return r
	}
	indexed := typ.IndexedDims()
	for _, c := range s.cells {
		r.Add(c.Address, c.Value)
	}
	subspaces := map[string]Address{}
	if typ.CountMappedDims() == 0 {
		subspaces["{}"] = Address{}
	}
	for _, c := range s.cells {
		mapped := Address{}
		for _, dim := range typ.MappedDims() {
			mapped[dim.Name] = c.Address[dim.Name]
		}
		subspaces[mapped.String()] = mapped
	}
	for _, mapped := range subspaces {
		eachDenseAddress(indexed, func(dense []int) {
			addr := Address{}
			for k, v := range mapped {
				addr[k] = v
			}
			for i, dim := range indexed {
				addr[dim.Name] = Idx(dense[i])
			}
			if _, ok := r.Lookup(addr); !ok {
				r.Add(addr, 0)
			}
		})
	}
	return r
}

func eachDenseAddress(dims []valuetype.Dimension, f func([]int)) {
	pos := make([]int, len(dims))
	for {
		f(pos)
		i := len(dims) - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < dims[i].Size {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// Equal returns true if two specs have the same type and the same cells.
func (s *Spec) Equal(o *Spec) bool {
	return s.Approx(o, 0)
}

// Approx returns true if two specs have the same type and cells with values
// equal up to a relative tolerance. Both specs are normalized first.
func (s *Spec) Approx(o *Spec, tolerance float64) bool {
	a, b := s.Normalize(), o.Normalize()
	if a.typ != b.typ || len(a.cells) != len(b.cells) {
		return false
	}
	for key, ca := range a.cells {
		cb, ok := b.cells[key]
		if !ok || !approxEqual(ca.Value, cb.Value, tolerance) {
			return false
		}
	}
	return true
}

func approxEqual(a, b, tolerance float64) bool {
	if a == b || (math.IsNaN(a) && math.IsNaN(b)) {
		return true
	}
	diff := math.Abs(a - b)
	scale := max(math.Abs(a), math.Abs(b), 1)
	return diff <= tolerance*scale
}

// String returns the spec as a tensor literal.
// The shortest literal form supported by the type is used.
func (s *Spec) String() string {
	typ := valuetype.FromSpec(s.typ)
	var body string
	switch {
	case typ.IsError():
		body = s.verbose()
	case typ.IsDouble():
		v, _ := s.Lookup(Address{})
		return "double:" + fmtarray.Number(v)
	case typ.IsDense():
		body = s.denseBlock(typ, Address{})
	case typ.CountMappedDims() == 1:
		body = s.singleMapped(typ)
	default:
		body = s.verbose()
	}
	return typ.String() + ":" + body
}

func (s *Spec) verbose() string {
	var b strings.Builder
	b.WriteString("{")
	for i, c := range s.Cells() {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Address.String())
		b.WriteString(":")
		b.WriteString(fmtarray.Number(c.Value))
	}
	b.WriteString("}")
	return b.String()
}

func (s *Spec) denseBlock(typ *valuetype.Type, mapped Address) string {
	indexed := typ.IndexedDims()
	data := make([]float64, 0, typ.DenseSubspaceSize())
	eachDenseAddress(indexed, func(pos []int) {
		addr := Address{}
		for k, v := range mapped {
			addr[k] = v
		}
		for i, dim := range indexed {
			addr[dim.Name] = Idx(pos[i])
		}
		v, _ := s.Lookup(addr)
		data = append(data, v)
	})
	return fmtarray.Sprint(data, typ.DenseShape().AxisLengths)
}

func (s *Spec) singleMapped(typ *valuetype.Type) string {
	dim := typ.MappedDims()[0].Name
	unique := map[string]Label{}
	for _, c := range s.cells {
		l := c.Address[dim]
		unique[l.String()] = l
	}
	labels := make([]Label, 0, len(unique))
	for _, l := range unique {
		labels = append(labels, l)
	}
	slices.SortFunc(labels, compareLabels)
	var b strings.Builder
	b.WriteString("{")
	for i, l := range labels {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(l.String())
		b.WriteString(":")
		if typ.IsSparse() {
			v, _ := s.Lookup(Address{dim: l})
			b.WriteString(fmtarray.Number(v))
		} else {
			b.WriteString(s.denseBlock(typ, Address{dim: l}))
		}
	}
	b.WriteString("}")
	return b.String()
}
