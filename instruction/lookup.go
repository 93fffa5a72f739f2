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
	"strconv"

	"github.com/vespa-engine/vespa-sub064/interp"
	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/sparse"
	"github.com/vespa-engine/vespa-sub064/value"
)

// SparseSingleDimLookup peeks into a value with a single mapped dimension
// with a label computed by an expression. Values indexed by a sparse map
// are looked up by name, without interning the label.
func SparseSingleDimLookup() interp.Instruction {
	return interp.Instruction{Op: sparseSingleDimLookup, Name: "sparse_single_dim_lookup"}
}

func sparseSingleDimLookup(st *interp.State, _ uint64) {
	child, key := st.Peek(1), st.Peek(0)
	name := label.Name(strconv.FormatInt(exprLabel(key), 10))
	var subspace int
	if fast, ok := child.Index().(*value.FastIndex); ok {
		subspace = sparse.Lookup(fast.Map(), []label.Name{name})
	} else {
		view := child.Index().CreateView([]int{0})
		view.Lookup([]label.ID{name.ID()})
		var found bool
		if subspace, found = view.Next(nil); !found {
			subspace = sparse.NPos
		}
	}
	res := 0.0
	if subspace != sparse.NPos {
		res = child.Cells().At(subspace)
	}
	st.PopNPush(2, value.Scalar(res))
}
