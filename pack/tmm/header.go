package tmm

import "bytes"

// TmmHeader starts every file. Model names come in the same order as the
// ModelInfo records that follow the header.
type TmmHeader struct {
	MagicId        string
	Unknown1       uint32 // always 34
	Unknown2       uint16 // always 22
	DataOffset     uint32
	ModelNames     []string
	HeaderEndBytes uint16 // always 2024
}

// ModelCount is the number of models the header declares.
func (h *TmmHeader) ModelCount() int {
	return len(h.ModelNames)
}

func decodeHeader(d *decoder) TmmHeader {
	var h TmmHeader

	avail := d.bs.Remaining()
	if avail > len(Magic) {
		avail = len(Magic)
	}
	magic := d.read(avail)
	if !bytes.Equal(magic, []byte(Magic[:avail])) {
		d.fail(&BadMagicError{Magic: append([]byte(nil), magic...)})
		return h
	}
	d.need(len(Magic) - avail)
	h.MagicId = string(magic)

	h.Unknown1 = d.u32()
	h.Unknown2 = d.u16()
	h.DataOffset = d.u32()
	modelCount := d.u32()
	h.ModelNames = decodeArray(d, "ModelName", modelCount, 4, (*decoder).tmString)
	h.HeaderEndBytes = d.u16()
	return h
}

// encode always writes the literal magic; MagicId is informational.
func (h *TmmHeader) encode(e *encoder) {
	e.write([]byte(Magic))
	e.u32(h.Unknown1)
	e.u16(h.Unknown2)
	e.u32(h.DataOffset)
	e.i32(e.count("TmmHeader", "ModelNames", len(h.ModelNames)))
	encodeArray(e, "ModelName", h.ModelNames, func(s *string, e *encoder) {
		e.tmString("TmmHeader", "ModelNames", *s)
	})
	e.u16(h.HeaderEndBytes)
}
