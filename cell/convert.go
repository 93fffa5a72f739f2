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

package cell

import (
	"encoding/binary"
	"unsafe"

	"github.com/gx-org/backend/dtype"
	"golang.org/x/sys/cpu"
)

// Converter copies the cells of src into dst, converting them to the kind of dst.
// src and dst must have the same length.
type Converter func(src, dst Ref)

var converters = [NumTypes][NumTypes]Converter{
	Double:   converterRow[float64, F64](),
	Float:    converterRow[float32, F32](),
	BFloat16: converterRow[dtype.Bfloat16T, BF16](),
	Int8:     converterRow[int8, I8](),
}

func init() {
	converters[Double][Double] = copyCells[float64]
	converters[Float][Float] = copyCells[float32]
	converters[BFloat16][BFloat16] = copyCells[dtype.Bfloat16T]
	converters[Int8][Int8] = copyCells[int8]
	converters[BFloat16][Float] = func(src, dst Ref) {
		ConvertBFloat16ToFloat(Typed[dtype.Bfloat16T](src), Typed[float32](dst))
	}
}

func converterRow[I Value, IC Codec[I]]() [NumTypes]Converter {
	return [NumTypes]Converter{
		Double:   convert[I, float64, IC, F64],
		Float:    convert[I, float32, IC, F32],
		BFloat16: convert[I, dtype.Bfloat16T, IC, BF16],
		Int8:     convert[I, int8, IC, I8],
	}
}

func convert[I, O Value, IC Codec[I], OC Codec[O]](src, dst Ref) {
	var ic IC
	var oc OC
	in, out := Typed[I](src), Typed[O](dst)
	for i, x := range in {
		out[i] = oc.Store(ic.Load(x))
	}
}

func copyCells[T Value](src, dst Ref) {
	copy(Typed[T](dst), Typed[T](src))
}

// ConverterFor returns the routine converting cells from one kind to another.
// The routine is selected once and can then be applied to any number of arrays.
func ConverterFor(from, to Type) Converter {
	return converters[from][to]
}

// Convert copies src into dst, converting cells to the kind of dst.
func Convert(src, dst Ref) {
	converters[src.Type()][dst.Type()](src, dst)
}

var bf16ToFloat = selectBFloat16ToFloat()

// Accelerated reports if bfloat16 to float conversions use the batched routine.
// Only little endian hosts with vector units are accelerated.
func Accelerated() bool {
	return cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD
}

func selectBFloat16ToFloat() func([]dtype.Bfloat16T, []float32) {
	if Accelerated() {
		return bfloat16ToFloatBatch
	}
	return bfloat16ToFloat
}

// ConvertBFloat16ToFloat converts a batch of bfloat16 cells to float.
func ConvertBFloat16ToFloat(src []dtype.Bfloat16T, dst []float32) {
	bf16ToFloat(src, dst)
}

func bfloat16ToFloat(src []dtype.Bfloat16T, dst []float32) {
	for i, x := range src {
		dst[i] = x.Float32()
	}
}

// bfloat16ToFloatBatch widens four cells per 64-bit word. A bfloat16 is
// the upper half of a float32, so each cell is shifted into place without
// being decoded. The host must be little endian.
func bfloat16ToFloatBatch(src []dtype.Bfloat16T, dst []float32) {
	dst = dst[:len(src)]
	n := len(src) &^ 3
	if n > 0 {
		in := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(src))), 2*n)
		out := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(dst))), 4*n)
		for i := 0; i < n; i += 4 {
			w := binary.LittleEndian.Uint64(in[2*i:])
			binary.LittleEndian.PutUint64(out[4*i:], (w&0xffff)<<16|(w&0xffff0000)<<32)
			w >>= 32
			binary.LittleEndian.PutUint64(out[4*i+8:], (w&0xffff)<<16|(w&0xffff0000)<<32)
		}
	}
	bfloat16ToFloat(src[n:], dst[n:])
}
