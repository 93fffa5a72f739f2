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

// Package fmt provides helpers to build multi-line string representations.
package fmt

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Number adds a line number prefix to all lines in a string.
func Number(x string) string {
	lines := slices.Collect(strings.Lines(x))
	numDigits := int(math.Log10(float64(max(len(lines), 1)))) + 1
	format := fmt.Sprintf("%%0%dd %%s", numDigits)
	var s strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&s, format, i+1, line)
	}
	return s.String()
}

// IndentSkip prefixes all lines but the first skip lines with a tab.
func IndentSkip(skip int, x string) string {
	var s strings.Builder
	n := 0
	for line := range strings.Lines(x) {
		if n >= skip {
			s.WriteString("\t")
		}
		s.WriteString(line)
		n++
	}
	return s.String()
}

// Indent prefixes all lines with a tab.
func Indent(x string) string {
	return IndentSkip(0, x)
}
