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

// Package sparse maps the label tuples of mapped dimensions to subspaces.
package sparse

import (
	"github.com/vespa-engine/vespa-sub064/label"
)

// NPos is the subspace returned when a label tuple is not in the map.
const NPos = -1

// Key is a label given either as an ID, a pointer to an ID, or a label.Name.
type Key interface {
	ID() label.ID
}

// Map assigns dense subspace indices to label tuples in insertion order.
// Tuples are stored once in a flat array and indexed by an open addressing
// hash table using linear probing.
type Map struct {
	numDims int
	labels  []label.ID
	hashes  []uint32
	// table stores subspace+1 so that 0 marks an empty slot.
	table []uint32
	mask  uint32
}

// NewMap returns an empty map for tuples of numDims labels.
// expected is the expected number of subspaces.
func NewMap(numDims, expected int) *Map {
	m := &Map{
		numDims: numDims,
		labels:  make([]label.ID, 0, numDims*expected),
		hashes:  make([]uint32, 0, expected),
	}
	m.resize(tableSize(expected))
	return m
}

func tableSize(n int) int {
	size := 8
	for size < 2*n {
		size *= 2
	}
	return size
}

func (m *Map) resize(size int) {
	m.table = make([]uint32, size)
	m.mask = uint32(size - 1)
	for subspace, h := range m.hashes {
		m.insert(h, subspace)
	}
}

func (m *Map) insert(h uint32, subspace int) {
	for slot := h & m.mask; ; slot = (slot + 1) & m.mask {
		if m.table[slot] == 0 {
			m.table[slot] = uint32(subspace + 1)
			return
		}
	}
}

func combine(h uint32, id label.ID) uint32 {
	h ^= uint32(id) + 0x9e3779b9 + (h << 6) + (h >> 2)
	return h
}

// Hash returns the hash of a label tuple.
func Hash[K Key](labels []K) uint32 {
	h := uint32(len(labels))
	for _, l := range labels {
		h = combine(h, l.ID())
	}
	return h
}

// NumDims returns the number of labels in each tuple.
func (m *Map) NumDims() int {
	return m.numDims
}

// Size returns the number of subspaces in the map.
func (m *Map) Size() int {
	return len(m.hashes)
}

// NPos returns the subspace returned when a tuple cannot be found.
func (m *Map) NPos() int {
	return NPos
}

// Labels returns the labels of a subspace.
// The returned slice must not be modified.
func (m *Map) Labels(subspace int) []label.ID {
	return m.labels[subspace*m.numDims : (subspace+1)*m.numDims : (subspace+1)*m.numDims]
}

// AddMapping appends a new subspace for a label tuple and returns its index.
// The caller must make sure the tuple is not already in the map.
func (m *Map) AddMapping(labels []label.ID) int {
	subspace := len(m.hashes)
	h := Hash(labels)
	m.labels = append(m.labels, labels...)
	m.hashes = append(m.hashes, h)
	if 2*len(m.hashes) > len(m.table) {
		m.resize(2 * len(m.table))
	} else {
		m.insert(h, subspace)
	}
	return subspace
}

// Lookup returns the subspace of a tuple or NPos.
func (m *Map) Lookup(labels []label.ID) int {
	return Lookup(m, labels)
}

// Lookup returns the subspace of a tuple or NPos.
// Tuples given as IDs, pointers to IDs, or names give the same result.
func Lookup[K Key](m *Map, labels []K) int {
	if m.numDims == 0 {
		if len(m.hashes) > 0 {
			return 0
		}
		return NPos
	}
	h := Hash(labels)
	for slot := h & m.mask; ; slot = (slot + 1) & m.mask {
		entry := m.table[slot]
		if entry == 0 {
			return NPos
		}
		subspace := int(entry - 1)
		if m.hashes[subspace] == h && equal(m.Labels(subspace), labels) {
			return subspace
		}
	}
}

func equal[K Key](stored []label.ID, labels []K) bool {
	if len(stored) != len(labels) {
		return false
	}
	for i, l := range labels {
		if stored[i] != l.ID() {
			return false
		}
	}
	return true
}

// Each calls f for every subspace in insertion order.
func (m *Map) Each(f func(subspace int, labels []label.ID)) {
	for subspace := range m.hashes {
		f(subspace, m.Labels(subspace))
	}
}
