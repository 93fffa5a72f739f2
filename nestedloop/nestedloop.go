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

// Package nestedloop runs loop nests planned by the dense package.
//
// Each loop level has an iteration count and one stride per index. Nests
// of up to three levels are unrolled; deeper nests recurse level by level
// until three levels remain. Every level must iterate at least once.
package nestedloop

// Run1 calls f with the index of every iteration of a loop nest.
func Run1(idx int, loop, stride []int, f func(int)) {
	switch len(loop) {
	case 0:
		f(idx)
	case 1:
		loop1(idx, loop, stride, f)
	case 2:
		loop2(idx, loop, stride, f)
	case 3:
		loop3(idx, loop, stride, f)
	default:
		loopN(idx, loop, stride, f)
	}
}

func loop1(idx int, loop, stride []int, f func(int)) {
	for range loop[0] {
		f(idx)
		idx += stride[0]
	}
}

func loop2(idx int, loop, stride []int, f func(int)) {
	for range loop[0] {
		loop1(idx, loop[1:], stride[1:], f)
		idx += stride[0]
	}
}

func loop3(idx int, loop, stride []int, f func(int)) {
	for range loop[0] {
		loop2(idx, loop[1:], stride[1:], f)
		idx += stride[0]
	}
}

func loopN(idx int, loop, stride []int, f func(int)) {
	for range loop[0] {
		if len(loop) == 4 {
			loop3(idx, loop[1:], stride[1:], f)
		} else {
			loopN(idx, loop[1:], stride[1:], f)
		}
		idx += stride[0]
	}
}

// Run2 calls f with two indices advancing in lockstep under the same
// loop counts.
func Run2(idx1, idx2 int, loop, stride1, stride2 []int, f func(int, int)) {
	switch len(loop) {
	case 0:
		f(idx1, idx2)
	case 1:
		loop1x2(idx1, idx2, loop, stride1, stride2, f)
	case 2:
		loop2x2(idx1, idx2, loop, stride1, stride2, f)
	case 3:
		loop3x2(idx1, idx2, loop, stride1, stride2, f)
	default:
		loopNx2(idx1, idx2, loop, stride1, stride2, f)
	}
}

func loop1x2(idx1, idx2 int, loop, stride1, stride2 []int, f func(int, int)) {
	for range loop[0] {
		f(idx1, idx2)
		idx1 += stride1[0]
		idx2 += stride2[0]
	}
}

func loop2x2(idx1, idx2 int, loop, stride1, stride2 []int, f func(int, int)) {
	for range loop[0] {
		loop1x2(idx1, idx2, loop[1:], stride1[1:], stride2[1:], f)
		idx1 += stride1[0]
		idx2 += stride2[0]
	}
}

func loop3x2(idx1, idx2 int, loop, stride1, stride2 []int, f func(int, int)) {
	for range loop[0] {
		loop2x2(idx1, idx2, loop[1:], stride1[1:], stride2[1:], f)
		idx1 += stride1[0]
		idx2 += stride2[0]
	}
}

func loopNx2(idx1, idx2 int, loop, stride1, stride2 []int, f func(int, int)) {
	for range loop[0] {
		if len(loop) == 4 {
			loop3x2(idx1, idx2, loop[1:], stride1[1:], stride2[1:], f)
		} else {
			loopNx2(idx1, idx2, loop[1:], stride1[1:], stride2[1:], f)
		}
		idx1 += stride1[0]
		idx2 += stride2[0]
	}
}

// Run3 calls f with three indices advancing in lockstep under the same
// loop counts. It is used to walk the operands and the result of a join.
func Run3(idx1, idx2, idx3 int, loop, stride1, stride2, stride3 []int, f func(int, int, int)) {
	switch len(loop) {
	case 0:
		f(idx1, idx2, idx3)
	case 1:
		loop1x3(idx1, idx2, idx3, loop, stride1, stride2, stride3, f)
	case 2:
		loop2x3(idx1, idx2, idx3, loop, stride1, stride2, stride3, f)
	case 3:
		loop3x3(idx1, idx2, idx3, loop, stride1, stride2, stride3, f)
	default:
		loopNx3(idx1, idx2, idx3, loop, stride1, stride2, stride3, f)
	}
}

func loop1x3(idx1, idx2, idx3 int, loop, stride1, stride2, stride3 []int, f func(int, int, int)) {
	for range loop[0] {
		f(idx1, idx2, idx3)
		idx1 += stride1[0]
		idx2 += stride2[0]
		idx3 += stride3[0]
	}
}

func loop2x3(idx1, idx2, idx3 int, loop, stride1, stride2, stride3 []int, f func(int, int, int)) {
	for range loop[0] {
		loop1x3(idx1, idx2, idx3, loop[1:], stride1[1:], stride2[1:], stride3[1:], f)
		idx1 += stride1[0]
		idx2 += stride2[0]
		idx3 += stride3[0]
	}
}

func loop3x3(idx1, idx2, idx3 int, loop, stride1, stride2, stride3 []int, f func(int, int, int)) {
	for range loop[0] {
		loop2x3(idx1, idx2, idx3, loop[1:], stride1[1:], stride2[1:], stride3[1:], f)
		idx1 += stride1[0]
		idx2 += stride2[0]
		idx3 += stride3[0]
	}
}

func loopNx3(idx1, idx2, idx3 int, loop, stride1, stride2, stride3 []int, f func(int, int, int)) {
	for range loop[0] {
		if len(loop) == 4 {
			loop3x3(idx1, idx2, idx3, loop[1:], stride1[1:], stride2[1:], stride3[1:], f)
		} else {
			loopNx3(idx1, idx2, idx3, loop[1:], stride1[1:], stride2[1:], stride3[1:], f)
		}
		idx1 += stride1[0]
		idx2 += stride2[0]
		idx3 += stride3[0]
	}
}
