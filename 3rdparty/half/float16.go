/*

 go-float16 - IEEE 754 binary16 half precision format
 Written in 2013 by h2so5 <mail@h2so5.net>

 To the extent possible under law, the author(s) have dedicated all copyright and
 related and neighboring rights to this software to the public domain worldwide.
 This software is distributed without any warranty.
 You should have received a copy of the CC0 Public Domain Dedication along with this software.
 If not, see <http://creativecommons.org/publicdomain/zero/1.0/>.

*/

// Package half is an IEEE 754 binary16 half precision format.
//
// Values are kept as raw bits. Converting through float32 and back is lossy
// for subnormals (NewFloat16 flushes them to zero), so codecs that need a
// bit-exact round trip must carry Float16 values as they were read.
package half

import (
	"encoding/binary"
	"math"
)

// Size of one encoded Float16 in bytes.
const Size = 2

// A Float16 represents a 16-bit floating point number.
type Float16 uint16

// NewFloat16 allocates and returns a new Float16 set to f.
func NewFloat16(f float32) Float16 {
	i := math.Float32bits(f)
	sign := uint16((i >> 31) & 0x1)
	exp := (i >> 23) & 0xff
	exp16 := int16(exp) - 127 + 15
	frac := uint16(i>>13) & 0x3ff
	if exp == 0 {
		exp16 = 0
	} else if exp == 0xff {
		exp16 = 0x1f
	} else {
		if exp16 > 0x1e {
			exp16 = 0x1f
			frac = 0
		} else if exp16 < 0x01 {
			exp16 = 0
			frac = 0
		}
	}
	f16 := (sign << 15) | uint16(exp16<<10) | frac
	return Float16(f16)
}

// Float32 returns the float32 representation of f.
func (f Float16) Float32() float32 {
	sign := uint32((f >> 15) & 0x1)
	exp := (f >> 10) & 0x1f
	exp32 := uint32(exp) + 127 - 15
	if exp == 0 {
		exp32 = 0
	} else if exp == 0x1f {
		exp32 = 0xff
	}
	frac := uint32(f & 0x3ff)
	i := (sign << 31) | (exp32 << 23) | (frac << 13)
	return math.Float32frombits(i)
}

// Bits returns the raw binary16 encoding of f.
func (f Float16) Bits() uint16 {
	return uint16(f)
}

// ToFloat32s converts a slice of halfs to float32 values.
func ToFloat32s(src []Float16) []float32 {
	out := make([]float32, len(src))
	for i, f := range src {
		out[i] = f.Float32()
	}
	return out
}

// FromFloat32s converts float32 values to halfs.
func FromFloat32s(src []float32) []Float16 {
	out := make([]Float16, len(src))
	for i, f := range src {
		out[i] = NewFloat16(f)
	}
	return out
}

// DecodeLE reads len(raw)/Size little-endian halfs.
func DecodeLE(raw []byte) []Float16 {
	out := make([]Float16, len(raw)/Size)
	for i := range out {
		out[i] = Float16(binary.LittleEndian.Uint16(raw[i*Size:]))
	}
	return out
}

// AppendLE appends the little-endian encoding of src to dst.
func AppendLE(dst []byte, src []Float16) []byte {
	var buf [Size]byte
	for _, f := range src {
		binary.LittleEndian.PutUint16(buf[:], uint16(f))
		dst = append(dst, buf[:]...)
	}
	return dst
}
