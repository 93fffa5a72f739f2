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
	"github.com/vespa-engine/vespa-sub064/label"
)

type (
	// Index maps the labels of the mapped dimensions of a value to
	// subspaces numbered from 0 to Size()-1.
	Index interface {
		// Size returns the number of subspaces.
		Size() int
		// Labels returns the labels of a subspace, one per mapped dimension.
		// The returned slice must not be modified.
		Labels(subspace int) []label.ID
		// CreateView returns a view looking up subspaces given the labels of
		// some of the mapped dimensions, identified by their position.
		CreateView(dims []int) View
	}

	// View enumerates the subspaces matching a partial address.
	View interface {
		// Lookup starts the enumeration of the subspaces matching addr.
		// addr has one label per dimension of the view.
		Lookup(addr []label.ID)
		// Next returns the next matching subspace and writes the labels of
		// the dimensions not in the view into out.
		Next(out []label.ID) (int, bool)
	}
)

type trivialIndex struct{}

// TrivialIndex returns the index of values without mapped dimensions:
// a single subspace without labels.
func TrivialIndex() Index {
	return trivialIndex{}
}

func (trivialIndex) Size() int { return 1 }

func (trivialIndex) Labels(int) []label.ID { return nil }

func (trivialIndex) CreateView([]int) View { return &trivialView{} }

type trivialView struct {
	done bool
}

func (v *trivialView) Lookup([]label.ID) { v.done = false }

func (v *trivialView) Next([]label.ID) (int, bool) {
	if v.done {
		return 0, false
	}
	v.done = true
	return 0, true
}

// labeled is an index which can resolve complete addresses directly.
type labeled interface {
	Index
	numDims() int
	find(addr []label.ID) int
}

// scanView enumerates subspaces of an index. Complete addresses are
// resolved with the index; partial addresses are scanned.
type scanView struct {
	index labeled
	dims  []int
	other []int
	addr  []label.ID
	full  []label.ID
	pos   int
	found int
}

func newScanView(index labeled, dims []int) *scanView {
	v := &scanView{
		index: index,
		dims:  dims,
		addr:  make([]label.ID, len(dims)),
		full:  make([]label.ID, index.numDims()),
	}
	inView := make([]bool, index.numDims())
	for _, d := range dims {
		inView[d] = true
	}
	for d, in := range inView {
		if !in {
			v.other = append(v.other, d)
		}
	}
	return v
}

func (v *scanView) complete() bool {
	return len(v.other) == 0
}

func (v *scanView) Lookup(addr []label.ID) {
	copy(v.addr, addr)
	v.pos = 0
	v.found = -1
	if v.complete() {
		for i, d := range v.dims {
			v.full[d] = addr[i]
		}
		v.found = v.index.find(v.full)
	}
}

func (v *scanView) Next(out []label.ID) (int, bool) {
	if v.complete() {
		subspace := v.found
		v.found = -1
		return subspace, subspace >= 0
	}
	for v.pos < v.index.Size() {
		subspace := v.pos
		v.pos++
		labels := v.index.Labels(subspace)
		if !v.matches(labels) {
			continue
		}
		for i, d := range v.other {
			out[i] = labels[d]
		}
		return subspace, true
	}
	return 0, false
}

func (v *scanView) matches(labels []label.ID) bool {
	for i, d := range v.dims {
		if labels[d] != v.addr[i] {
			return false
		}
	}
	return true
}
