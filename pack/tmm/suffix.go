package tmm

import "math"

// SuffixData is an opaque block some models carry after the footer.
type SuffixData struct {
	Tag       uint16
	ByteCount uint32
	Data      []uint32
}

// NewSuffixData builds a suffix block with the tag and byte count filled in
// the way the decoder would return them.
func NewSuffixData(data []uint32) *SuffixData {
	return &SuffixData{Tag: SuffixTag, ByteCount: uint32(len(data) * 4), Data: data}
}

func decodeSuffixData(d *decoder) SuffixData {
	var s SuffixData

	off := d.offset()
	s.Tag = d.u16()
	expectValue(d, off, SuffixTag, s.Tag)

	off = d.offset()
	s.ByteCount = d.u32()
	if !d.failed() && s.ByteCount%4 != 0 {
		d.fail(&InvariantError{Owner: d.owner(), Offset: off, Expected: "multiple of 4", Actual: s.ByteCount})
	}
	s.Data = d.u32Slice(int(s.ByteCount / 4))
	return s
}

// encode writes the literal tag and recomputes the byte count from Data.
func (s *SuffixData) encode(e *encoder) {
	if uint64(len(s.Data))*4 > math.MaxUint32 {
		e.precondition("SuffixData", "Data", "%d words do not fit in a 32-bit byte count", len(s.Data))
		return
	}
	e.u16(SuffixTag)
	e.u32(uint32(len(s.Data) * 4))
	e.u32s(s.Data)
}
