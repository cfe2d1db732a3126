package tmm

import "math"

// RawFloat holds the exact bits of a reserved 32-bit field that usually
// looks like a float. Some of these fields carry NaN payloads, so documents
// store the bits and Float32 gives the float view.
type RawFloat uint32

func NewRawFloat(f float32) RawFloat {
	return RawFloat(math.Float32bits(f))
}

func (r RawFloat) Float32() float32 {
	return math.Float32frombits(uint32(r))
}
