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

package stringseq_test

import (
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/vespa-engine/vespa-sub064/base/stringseq"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		seq  []int
		want string
	}{
		{seq: nil, want: ""},
		{seq: []int{1}, want: "1"},
		{seq: []int{1, 2, 3}, want: "1, 2, 3"},
	}
	for i, test := range tests {
		if got := stringseq.Join(slices.Values(test.seq), ", ", strconv.Itoa); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}

func TestAppend(t *testing.T) {
	var b strings.Builder
	b.WriteString("(")
	dims := []valuetype.Dimension{valuetype.Mapped("x"), valuetype.Indexed("y", 3)}
	stringseq.Append(&b, slices.Values(dims), ",", valuetype.Dimension.String)
	b.WriteString(")")
	if got, want := b.String(), "(x{},y[3])"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if got, want := stringseq.JoinStringer(slices.Values(dims), ";"), "x{};y[3]"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
