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

// Package label interns the labels of mapped dimensions.
//
// Labels are process-wide: a label string is assigned an ID the first
// time it is seen and keeps it for the lifetime of the process. The pool
// is append-only and safe for concurrent lookup and insertion.
package label

import (
	"math"
	"strconv"
	gosync "sync"

	"github.com/vespa-engine/vespa-sub064/base/sync"
)

// ID identifies an interned label.
type ID uint32

// Invalid is returned when looking up a label that has never been interned.
const Invalid = ID(math.MaxUint32)

// Name is a label given as a string.
// Looking up a Name never interns it.
type Name string

type pool struct {
	ids   sync.Map[string, ID]
	mut   gosync.RWMutex
	names []string
}

var labels = newPool()

func newPool() *pool {
	p := &pool{}
	p.intern("")
	return p
}

func (p *pool) intern(s string) ID {
	if id, ok := p.ids.Load(s); ok {
		return id
	}
	p.mut.Lock()
	defer p.mut.Unlock()
	if id, ok := p.ids.Load(s); ok {
		return id
	}
	id := ID(len(p.names))
	p.names = append(p.names, s)
	p.ids.LoadOrStore(s, id)
	return id
}

func (p *pool) name(id ID) string {
	p.mut.RLock()
	defer p.mut.RUnlock()
	if int(id) >= len(p.names) {
		return ""
	}
	return p.names[id]
}

// Of returns the ID of a label, interning it if needed.
func Of(s string) ID {
	return labels.intern(s)
}

// OfInt returns the ID of the label representing an integer.
func OfInt(i int64) ID {
	return labels.intern(strconv.FormatInt(i, 10))
}

// Find returns the ID of a label without interning it.
// Invalid is returned if the label is unknown.
func Find(s string) ID {
	if id, ok := labels.ids.Load(s); ok {
		return id
	}
	return Invalid
}

// Count returns the number of labels interned so far.
func Count() int {
	return labels.ids.Len()
}

// Empty is the ID of the empty label.
var Empty = Of("")

// ID returns the label ID itself.
func (id ID) ID() ID {
	return id
}

// String returns the label.
func (id ID) String() string {
	return labels.name(id)
}

// ID returns the ID of the label or Invalid if it has never been interned.
func (n Name) ID() ID {
	return Find(string(n))
}

// OfAll interns a list of labels.
func OfAll(ss ...string) []ID {
	ids := make([]ID, len(ss))
	for i, s := range ss {
		ids[i] = Of(s)
	}
	return ids
}

// Strings returns the labels of a list of IDs.
func Strings(ids []ID) []string {
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = id.String()
	}
	return ss
}
