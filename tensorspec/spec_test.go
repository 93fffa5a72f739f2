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

package tensorspec_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/vespa-engine/vespa-sub064/tensorspec"
	"gopkg.in/yaml.v3"
)

func TestLiteralRoundTrip(t *testing.T) {
	tests := []string{
		"double:2.5",
		"tensor(x[3]):[1,2,3]",
		"tensor<float>(x[2],y[3]):[[1,2,3],[4,5,6]]",
		"tensor(x{}):{a:1,b:-2}",
		"tensor(x{},y[3]):{bar:[4,5,6],foo:[1,2,3]}",
		"tensor(a[2],x{}):{bar:[3,4],foo:[1,2]}",
		"tensor(x{},y{}):{{x:a,y:b}:1,{x:a,y:c}:2}",
		"tensor(x{}):{\"a b\":1}",
		"tensor(x{}):{}",
	}
	for i, test := range tests {
		spec, err := tensorspec.Parse(test)
		if err != nil {
			t.Errorf("test %d: cannot parse %q: %v", i, test, err)
			continue
		}
		if got := spec.String(); got != test {
			t.Errorf("test %d: got %s but want %s", i, got, test)
		}
	}
}

func TestLiteralForms(t *testing.T) {
	want := tensorspec.New("tensor(x{},y[2])").
		Add(tensorspec.Address{"x": tensorspec.Lbl("foo"), "y": tensorspec.Idx(0)}, 3).
		Add(tensorspec.Address{"x": tensorspec.Lbl("foo"), "y": tensorspec.Idx(1)}, 5)
	tests := []string{
		"tensor(x{},y[2]):{foo:[3,5]}",
		"tensor(x{},y[2]):{{x:foo,y:0}:3,{x:foo,y:1}:5}",
		"tensor(y[2],x{}):{ {y:1, x:'foo'}: 5, {x:\"foo\",y:0}: 3 }",
	}
	for i, test := range tests {
		got, err := tensorspec.Parse(test)
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("test %d: got %s but want %s", i, got, want)
		}
	}
}

func TestInvalidLiterals(t *testing.T) {
	tests := []string{
		"[1,2]",
		"tensor(x[2]):[1,2,3]",
		"tensor(x[2]):[1]",
		"tensor(x[2]):{{x:2}:1}",
		"tensor(x{}):{{y:a}:1}",
		"tensor(x{},y{}):{a:1}",
		"tensor(x{}):{a:one}",
		"tensor(x{}):{a:1} extra",
		"error:1",
	}
	for i, test := range tests {
		if _, err := tensorspec.Parse(test); err == nil {
			t.Errorf("test %d: %q: expected an error", i, test)
		}
	}
}

func TestNormalize(t *testing.T) {
	spec := tensorspec.New("tensor(y[2],x{})").
		Add(tensorspec.Address{"x": tensorspec.Lbl("a"), "y": tensorspec.Idx(1)}, 1)
	got := spec.Normalize()
	if got.Type() != "tensor(x{},y[2])" {
		t.Errorf("type not normalized: %s", got.Type())
	}
	want := []tensorspec.Cell{
		{Address: tensorspec.Address{"x": tensorspec.Lbl("a"), "y": tensorspec.Idx(0)}, Value: 0},
		{Address: tensorspec.Address{"x": tensorspec.Lbl("a"), "y": tensorspec.Idx(1)}, Value: 1},
	}
	if diff := cmp.Diff(want, got.Cells()); diff != "" {
		t.Errorf("unexpected cells (-want +got):\n%s", diff)
	}
	if empty := tensorspec.New("tensor(x[2])").Normalize(); empty.Len() != 2 {
		t.Errorf("dense tensor without cells normalized to %s", empty)
	}
}

func TestApprox(t *testing.T) {
	a := tensorspec.MustParse("tensor(x[3]):[1,2,3]")
	tests := []struct {
		b    string
		tol  float64
		want bool
	}{
		{b: "tensor(x[3]):[1,2,3]", want: true},
		{b: "tensor(x[3]):[1,2,3.0000001]", tol: 1e-6, want: true},
		{b: "tensor(x[3]):[1,2,3.0000001]", want: false},
		{b: "tensor(x[3]):[1,2,4]", tol: 1e-6, want: false},
		{b: "tensor<float>(x[3]):[1,2,3]", tol: 1e-6, want: false},
		{b: "tensor(x{}):{a:1}", tol: 1e-6, want: false},
	}
	for i, test := range tests {
		b := tensorspec.MustParse(test.b)
		if got := a.Approx(b, test.tol); got != test.want {
			t.Errorf("test %d: %s ~ %s = %v but want %v", i, a, b, got, test.want)
		}
	}
	nan := tensorspec.New("double").Add(tensorspec.Address{}, math.NaN())
	if !nan.Equal(nan) {
		t.Errorf("NaN cells should compare equal")
	}
}

func TestFixtures(t *testing.T) {
	fixtures, err := tensorspec.LoadFixtures("testdata/tensors.yaml")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"scalar": "double:2.5",
		"dense":  "tensor<float>(x[2],y[3]):[[1,2,3],[4,5,6]]",
		"sparse": "tensor(x{}):{a:1,b:-2}",
		"mixed":  "tensor(x{},y[2]):{bar:[9,11],foo:[3,5]}",
	}
	got := make(map[string]string)
	for name, spec := range fixtures {
		got[name] = spec.String()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected fixtures (-want +got):\n%s", diff)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	spec := tensorspec.MustParse("tensor(x{},y[2]):{bar:[9,11],foo:[3,5.5]}")
	data, err := yaml.Marshal(spec)
	if err != nil {
		t.Fatal(err)
	}
	var got tensorspec.Spec
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("cannot decode:\n%s\n%v", data, err)
	}
	if !got.Equal(spec) {
		t.Errorf("got %s but want %s", &got, spec)
	}
	if diff := cmp.Diff(spec.Cells(), got.Cells(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("unexpected cells (-want +got):\n%s", diff)
	}
}
