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

package value

import (
	"github.com/pkg/errors"
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

// denseOffset returns the position of a cell in its dense subspace.
func denseOffset(indexed []valuetype.Dimension, addr tensorspec.Address) int {
	offset := 0
	for _, dim := range indexed {
		offset = offset*dim.Size + addr[dim.Name].Index
	}
	return offset
}

// FromSpec builds a value from a spec.
// Cells missing from the spec are zero.
func FromSpec(f Factory, spec *tensorspec.Spec) (Value, error) {
	typ, err := valuetype.Parse(spec.Type())
	if err != nil {
		return nil, err
	}
	if typ.IsError() {
		return nil, errors.Errorf("cannot build a value of the error type")
	}
	mapped := typ.MappedDims()
	indexed := typ.IndexedDims()
	size := typ.DenseSubspaceSize()
	index := f.NewIndexBuilder(len(mapped), spec.Len())
	var data []float64
	if len(mapped) == 0 {
		index.Add(nil)
		data = make([]float64, size)
	}
	labels := make([]label.ID, len(mapped))
	for _, c := range spec.Cells() {
		for i, dim := range mapped {
			l, ok := c.Address[dim.Name]
			if !ok || !l.IsMapped() {
				return nil, errors.Errorf("cell %s does not have a label for mapped dimension %s", c.Address, dim.Name)
			}
			labels[i] = label.Of(l.Name)
		}
		for _, dim := range indexed {
			l, ok := c.Address[dim.Name]
			if !ok || l.IsMapped() || l.Index >= dim.Size {
				return nil, errors.Errorf("cell %s has an invalid index for dimension %s", c.Address, dim)
			}
		}
		subspace := index.Lookup(labels)
		if subspace < 0 {
			subspace = index.Add(labels)
			data = append(data, make([]float64, size)...)
		}
		data[subspace*size+denseOffset(indexed, c.Address)] = c.Value
	}
	return New(typ, cell.FromFloat64s(typ.CellType(), data), index.Build()), nil
}

// MustFromSpec builds a value from a spec and panics on error.
func MustFromSpec(f Factory, spec *tensorspec.Spec) Value {
	v, err := FromSpec(f, spec)
	if err != nil {
		panic(err)
	}
	return v
}

// ToSpec returns the spec of a value.
func ToSpec(v Value) *tensorspec.Spec {
	typ := v.Type()
	spec := tensorspec.New(typ.String())
	mapped := typ.MappedDimNames()
	indexed := typ.IndexedDims()
	size := typ.DenseSubspaceSize()
	cells := v.Cells().Float64s(nil)
	index := v.Index()
	pos := make([]int, len(indexed))
	for subspace := range index.Size() {
		labels := index.Labels(subspace)
		for j := range size {
			rem := j
			for k := len(indexed) - 1; k >= 0; k-- {
				pos[k] = rem % indexed[k].Size
				rem /= indexed[k].Size
			}
			addr := make(tensorspec.Address, typ.NumDims())
			for i, name := range mapped {
				addr[name] = tensorspec.Lbl(labels[i].String())
			}
			for k, dim := range indexed {
				addr[dim.Name] = tensorspec.Idx(pos[k])
			}
			spec.Add(addr, cells[subspace*size+j])
		}
	}
	return spec
}
