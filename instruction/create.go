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

package instruction

import (
	"github.com/vespa-engine/vespa-sub064/cell"
	"github.com/vespa-engine/vespa-sub064/dense"
	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/stash"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"github.com/vespa-engine/vespa-sub064/value"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type (
	createdCell struct {
		labels []label.ID
		offset int
	}

	createParams struct {
		typ   *valuetype.Type
		cells []createdCell
	}
)

var genericCreates = perType{
	cell.Double:   genericCreate[float64, cell.F64],
	cell.Float:    genericCreate[float32, cell.F32],
	cell.BFloat16: genericCreate[bfloat16, cell.BF16],
	cell.Int8:     genericCreate[int8, cell.I8],
}

// Create builds a value from scalars, one per cell address.
// The scalars are evaluated before the instruction, in the order of the
// addresses. Cells without an address are 0.
func Create(consts *stash.Stash, res *valuetype.Type, addrs []tensorspec.Address) interp.Instruction {
	p := &createParams{typ: res}
	mapped, indexed := res.MappedDims(), res.IndexedDims()
	strides := dense.Strides(indexed)
	for _, addr := range addrs {
		var c createdCell
		for _, dim := range mapped {
			c.labels = append(c.labels, label.Of(addr[dim.Name].Name))
		}
		for i, dim := range indexed {
			c.offset += addr[dim.Name].Index * strides[i]
		}
		p.cells = append(p.cells, c)
	}
	return interp.Instruction{
		Op:    genericCreates.get(res.CellType()),
		Param: keep(consts, p),
		Name:  "generic_create",
	}
}

func genericCreate[T cell.Value, C cell.Codec[T]](st *interp.State, param uint64) {
	p := interp.Param[*createParams](st, param)
	n := len(p.cells)
	b := value.NewBuilder[T](st.Factory, st.Stash, p.typ, n)
	var c C
	for k, cc := range p.cells {
		out, _ := b.Subspace(cc.labels)
		out[cc.offset] = c.Store(value.AsDouble(st.Peek(n - 1 - k)))
	}
	st.PopNPush(n, b.Build())
}
