package tmm

const (
	attachPointFloatCount = 0x60 / 4
	attachPointMinSize    = 8 + 4 + 4 + 0x60 + 8 + 4 + 3*4
)

var attachPointTerminator = []uint32{0xffffffff, 0, 0}

// TmmAttachPoint is a named socket on the model.
type TmmAttachPoint struct {
	Flags int32
	Name1 string
	// Name2 is usually the same as Name1 when present, but may be empty.
	Name2   string
	Floats1 [attachPointFloatCount]RawFloat
}

func decodeAttachPoint(d *decoder) TmmAttachPoint {
	var ap TmmAttachPoint

	off := d.offset()
	expectValue(d, off, uint64(0), d.u64())
	ap.Flags = d.i32()
	ap.Name1 = d.tmString()
	d.bs.SetName(ap.Name1)
	d.rawFloats(ap.Floats1[:])

	off = d.offset()
	expectValue(d, off, uint64(0), d.u64())
	ap.Name2 = d.tmString()

	off = d.offset()
	var tail [3]uint32
	d.u32Array(tail[:])
	expectValues(d, off, attachPointTerminator, tail[:])
	return ap
}

func (ap *TmmAttachPoint) encode(e *encoder) {
	e.u64(0)
	e.i32(ap.Flags)
	e.tmString("TmmAttachPoint", "Name1", ap.Name1)
	e.rawFloats(ap.Floats1[:])
	e.u64(0)
	e.tmString("TmmAttachPoint", "Name2", ap.Name2)
	e.u32s(attachPointTerminator)
}
