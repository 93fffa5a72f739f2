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

package label_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/vespa-engine/vespa-sub064/label"
)

func TestIntern(t *testing.T) {
	a := label.Of("label_test_a")
	if got := label.Of("label_test_a"); got != a {
		t.Errorf("interning twice gave %d and %d", a, got)
	}
	if got := label.Find("label_test_a"); got != a {
		t.Errorf("find returned %d but want %d", got, a)
	}
	if got := label.Name("label_test_a").ID(); got != a {
		t.Errorf("name returned %d but want %d", got, a)
	}
	if got := a.String(); got != "label_test_a" {
		t.Errorf("got label %q", got)
	}
	if got := label.Find("label_test_never_interned"); got != label.Invalid {
		t.Errorf("unknown label found as %d", got)
	}
	if got := label.OfInt(-12).String(); got != "-12" {
		t.Errorf("integer label is %q", got)
	}
	if got := label.Empty.String(); got != "" {
		t.Errorf("empty label is %q", got)
	}
}

func TestConcurrentIntern(t *testing.T) {
	const numWorkers = 8
	const numLabels = 200
	results := make([][]label.ID, numWorkers)
	var wg sync.WaitGroup
	for w := range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range numLabels {
				results[w] = append(results[w], label.Of(fmt.Sprintf("label_test_concurrent_%d", i)))
			}
		}()
	}
	wg.Wait()
	for w := 1; w < numWorkers; w++ {
		for i := range numLabels {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d label %d: got id %d but worker 0 got %d", w, i, results[w][i], results[0][i])
			}
		}
	}
	for i, id := range results[0] {
		if want := fmt.Sprintf("label_test_concurrent_%d", i); id.String() != want {
			t.Errorf("label %d: got %q but want %q", i, id.String(), want)
		}
	}
}
