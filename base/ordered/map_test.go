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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vespa-engine/vespa-sub064/base/ordered"
)

type entry struct {
	K string
	V int
}

func collect(m *ordered.Map[string, int]) []entry {
	var got []entry
	for k, v := range m.All() {
		got = append(got, entry{k, v})
	}
	return got
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		want    []entry
	}{
		{
			entries: []entry{{"a", 1}, {"b", 2}, {"c", 3}},
			want:    []entry{{"a", 1}, {"b", 2}, {"c", 3}},
		},
		{
			entries: []entry{{"a", 1}, {"b", 2}, {"a", 3}},
			want:    []entry{{"a", 3}, {"b", 2}},
		},
		{
			entries: []entry{{"a", 1}, {"a", 2}, {"a", 3}, {"a", 4}},
			want:    []entry{{"a", 4}},
		},
	}
	for i, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, e := range test.entries {
			m.Store(e.K, e.V)
		}
		if diff := cmp.Diff(test.want, collect(m)); diff != "" {
			t.Errorf("test %d: unexpected entries (-want +got):\n%s", i, diff)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", i, m.Size(), len(test.want))
		}
		for j, k := range m.Keys() {
			if v, ok := m.Load(k); !ok || v != test.want[j].V || m.Values()[j] != v {
				t.Errorf("test %d: got %s->%d but want %v", i, k, v, test.want[j])
			}
		}
	}
}

func TestFilter(t *testing.T) {
	m := ordered.NewMap[string, int]()
	for i, k := range []string{"d", "c", "b", "a"} {
		m.Store(k, i)
	}
	odd := m.Filter(func(_ string, v int) bool { return v%2 == 1 })
	if diff := cmp.Diff([]entry{{"c", 1}, {"a", 3}}, collect(odd)); diff != "" {
		t.Errorf("unexpected entries (-want +got):\n%s", diff)
	}
	if m.Size() != 4 {
		t.Errorf("filter modified the original map")
	}
}
