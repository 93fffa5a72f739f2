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

// Package stash implements the arena in which programs keep their
// compile-time parameters and evaluations allocate their cells.
//
// A stash is not safe for concurrent use. Memory returned by a stash is
// valid until the stash is reset.
package stash

import (
	"github.com/gx-org/backend/dtype"
	"github.com/vespa-engine/vespa-sub064/cell"
)

type bfloat16 = dtype.Bfloat16T

// Handle refers to an object kept in a stash.
// Handles fit in the immediate parameter of an instruction.
type Handle uint64

const minChunkSize = 256

type arena[T cell.Value] struct {
	chunks [][]T
	used   int
}

func (a *arena[T]) alloc(n int) []T {
	if len(a.chunks) > 0 {
		last := a.chunks[len(a.chunks)-1]
		if a.used+n <= len(last) {
			s := last[a.used : a.used+n : a.used+n]
			a.used += n
			clear(s)
			return s
		}
	}
	size := minChunkSize
	if len(a.chunks) > 0 {
		size = 2 * len(a.chunks[len(a.chunks)-1])
	}
	size = max(size, n)
	a.chunks = append(a.chunks, make([]T, size))
	a.used = n
	return a.chunks[len(a.chunks)-1][:n:n]
}

// reset keeps the largest chunk for the next round of allocations.
func (a *arena[T]) reset() {
	if len(a.chunks) > 1 {
		a.chunks = a.chunks[len(a.chunks)-1:]
	}
	a.used = 0
}

// Stash is an arena of objects and cells.
type Stash struct {
	objects []any

	f64  arena[float64]
	f32  arena[float32]
	bf16 arena[bfloat16]
	i8   arena[int8]
}

// New returns a new empty stash.
func New() *Stash {
	return &Stash{}
}

// Keep an object in the stash and return its handle.
func (s *Stash) Keep(obj any) Handle {
	s.objects = append(s.objects, obj)
	return Handle(len(s.objects) - 1)
}

// Len returns the number of objects kept in the stash.
func (s *Stash) Len() int {
	return len(s.objects)
}

// Get returns an object kept in a stash.
// It panics if the object is not of type T.
func Get[T any](s *Stash, h Handle) T {
	return s.objects[h].(T)
}

// Make allocates n zero cells in the stash.
func Make[T cell.Value](s *Stash, n int) []T {
	var zero T
	var a any
	switch any(zero).(type) {
	case float64:
		a = &s.f64
	case float32:
		a = &s.f32
	case bfloat16:
		a = &s.bf16
	case int8:
		a = &s.i8
	}
	return a.(*arena[T]).alloc(n)
}

// MakeCells allocates n zero cells of kind t in the stash.
func MakeCells(s *Stash, t cell.Type, n int) cell.Ref {
	switch t {
	case cell.Float:
		return cell.Array[float32](Make[float32](s, n))
	case cell.BFloat16:
		return cell.Array[bfloat16](Make[bfloat16](s, n))
	case cell.Int8:
		return cell.Array[int8](Make[int8](s, n))
	}
	return cell.Array[float64](Make[float64](s, n))
}

// Reset releases all the objects and cells of the stash.
// Previously allocated cells will be reused by later allocations.
func (s *Stash) Reset() {
	clear(s.objects)
	s.objects = s.objects[:0]
	s.f64.reset()
	s.f32.reset()
	s.bf16.reset()
	s.i8.reset()
}
