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

package tree

import (
	"strings"

	basefmt "github.com/vespa-engine/vespa-sub064/base/fmt"
)

// Walk calls f on all the nodes of a tree in post-order.
// The body of a scope is walked before the scope itself.
func Walk(root Node, f func(Node)) {
	for _, child := range root.Children() {
		Walk(*child, f)
	}
	if scope, ok := root.(Scope); ok && *scope.Body() != nil {
		Walk(*scope.Body(), f)
	}
	f(root)
}

// Dump returns a multi-line description of a tree, one node per line.
// Children are indented below their parent.
func Dump(root Node) string {
	var s strings.Builder
	s.WriteString(root.String())
	s.WriteString("\n")
	for _, child := range root.Children() {
		s.WriteString(basefmt.Indent(Dump(*child)))
	}
	if scope, ok := root.(Scope); ok && *scope.Body() != nil {
		s.WriteString(basefmt.Indent("body:\n" + basefmt.Indent(Dump(*scope.Body()))))
	}
	return s.String()
}
