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

package sparse_test

import (
	"fmt"
	"testing"

	"github.com/vespa-engine/vespa-sub064/label"
	"github.com/vespa-engine/vespa-sub064/sparse"
)

func tuple(i int) []string {
	return []string{fmt.Sprintf("a%d", i%7), fmt.Sprintf("b%d", i), "c"}
}

func TestAddAndLookup(t *testing.T) {
	const n = 1000
	m := sparse.NewMap(3, 4)
	for i := range n {
		ids := label.OfAll(tuple(i)...)
		if got := m.AddMapping(ids); got != i {
			t.Fatalf("tuple %d: added as subspace %d", i, got)
		}
	}
	if m.Size() != n {
		t.Errorf("map has %d subspaces but want %d", m.Size(), n)
	}
	for i := range n {
		strs := tuple(i)
		ids := label.OfAll(strs...)
		refs := []*label.ID{&ids[0], &ids[1], &ids[2]}
		names := []label.Name{label.Name(strs[0]), label.Name(strs[1]), label.Name(strs[2])}
		byID := m.Lookup(ids)
		byRef := sparse.Lookup(m, refs)
		byName := sparse.Lookup(m, names)
		if byID != i || byRef != i || byName != i {
			t.Errorf("tuple %d: lookup by id=%d, by ref=%d, by name=%d", i, byID, byRef, byName)
		}
		if got := label.Strings(m.Labels(i)); fmt.Sprint(got) != fmt.Sprint(strs) {
			t.Errorf("subspace %d: got labels %v but want %v", i, got, strs)
		}
	}
}

func TestLookupMissing(t *testing.T) {
	m := sparse.NewMap(2, 0)
	m.AddMapping(label.OfAll("x", "y"))
	tests := [][]label.Name{
		{"y", "x"},
		{"x", "sparse_test_never_interned"},
		{"x", ""},
	}
	for i, test := range tests {
		if got := sparse.Lookup(m, test); got != m.NPos() {
			t.Errorf("test %d: tuple %v found at %d", i, test, got)
		}
	}
}

func TestZeroDims(t *testing.T) {
	m := sparse.NewMap(0, 1)
	if got := m.Lookup(nil); got != sparse.NPos {
		t.Errorf("empty map: got subspace %d", got)
	}
	if got := m.AddMapping(nil); got != 0 {
		t.Errorf("zero-dim tuple added as %d", got)
	}
	if got := m.Lookup([]label.ID{}); got != 0 {
		t.Errorf("zero-dim tuple found at %d", got)
	}
}

func TestEach(t *testing.T) {
	m := sparse.NewMap(1, 0)
	for _, s := range []string{"c", "a", "b"} {
		m.AddMapping(label.OfAll(s))
	}
	var got []string
	m.Each(func(subspace int, labels []label.ID) {
		got = append(got, fmt.Sprintf("%d:%s", subspace, labels[0]))
	})
	if want := "[0:c 1:a 2:b]"; fmt.Sprint(got) != want {
		t.Errorf("got %v but want %s", got, want)
	}
}
