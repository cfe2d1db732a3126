package tmm

// Size of the fixed part from Unknown1 through Unknown6 plus the no-bones
// filler, footer, padding and suffix flag. Used to reject absurd model counts.
const modelInfoMinSize = 4*2 + 29*2 + 8*4 + 6*4 + 4*4 + 2*4 + 1 + 13*4 + 4*4 + 4 + 4 + 3 + 1

// ModelInfo describes one model of the companion .tmm.data file.
type ModelInfo struct {
	Unknown1 [4]uint16 // always 2, 2, 6, 14 / 7, 2, 16, 17
	Unknown2 [29]uint16

	// SomeCount1 == 2 means Unknown7 is present.
	SomeCount1   int32
	UnknownCount uint32
	VertexCount  uint32
	IndexCount   uint32

	VertexOffset uint32 // normally 0
	IndexOffset  uint32
	IndexOffset2 uint32 // same as IndexOffset in every known file
	Unknown3     uint32

	BoneWeightsOffset    uint32
	BoneWeightsByteCount uint32
	Unknown4             [4]uint32
	MaskDataOffset       uint32
	MaskDataByteCount    uint32

	Unknown5     [13]RawFloat
	AttachPoints []TmmAttachPoint
	// Mostly zero, some values do not look like floats.
	Unknown6 [4]uint32
	Unknown7 *[6]uint32

	Materials []string
	// Always seems to be "default".
	Submaterials []string

	Bones []Bone
	// Present iff Bones is not empty.
	BoneFloatData *BoneFloats
	Suffix        *SuffixData
}

func (m *ModelInfo) MaterialCount() int    { return len(m.Materials) }
func (m *ModelInfo) SubmaterialCount() int { return len(m.Submaterials) }
func (m *ModelInfo) BoneCount() int        { return len(m.Bones) }
func (m *ModelInfo) AttachPointCount() int { return len(m.AttachPoints) }

func decodeModelInfo(d *decoder) ModelInfo {
	var m ModelInfo

	d.u16Array(m.Unknown1[:])
	d.u16Array(m.Unknown2[:])
	m.SomeCount1 = d.i32()
	materialCount := d.u32()
	submaterialCount := d.u32()
	boneCount := d.u32()
	m.UnknownCount = d.u32()
	attachPointCount := d.u32()
	m.VertexCount = d.u32()
	m.IndexCount = d.u32()
	m.VertexOffset = d.u32()
	m.IndexOffset = d.u32()
	m.IndexOffset2 = d.u32()
	m.Unknown3 = d.u32()
	m.BoneWeightsOffset = d.u32()
	m.BoneWeightsByteCount = d.u32()
	d.u32Array(m.Unknown4[:])
	m.MaskDataOffset = d.u32()
	m.MaskDataByteCount = d.u32()

	// alignment
	d.skip(1)
	d.rawFloats(m.Unknown5[:])

	m.AttachPoints = decodeArray(d, "TmmAttachPoint", attachPointCount, attachPointMinSize, decodeAttachPoint)

	d.u32Array(m.Unknown6[:])
	if m.SomeCount1 == 2 {
		var unk7 [6]uint32
		d.u32Array(unk7[:])
		m.Unknown7 = &unk7
	}

	m.Materials = decodeArray(d, "Material", materialCount, 4, (*decoder).tmString)
	m.Submaterials = decodeArray(d, "Submaterial", submaterialCount, 4, (*decoder).tmString)

	m.Bones = decodeArray(d, "Bone", boneCount, boneMinSize, decodeBone)
	if boneCount > 0 {
		bf := decodeStruct(d, "BoneFloats", decodeBoneFloats)
		m.BoneFloatData = &bf
	} else {
		d.skip(4)
	}

	off := d.offset()
	expectValue(d, off, ModelInfoFooter, d.u32())
	d.skip(3)

	if d.flag() {
		s := decodeStruct(d, "SuffixData", decodeSuffixData)
		m.Suffix = &s
	}
	return m
}

func (m *ModelInfo) encode(e *encoder) {
	const owner = "ModelInfo"

	if (len(m.Bones) > 0) != (m.BoneFloatData != nil) {
		e.precondition(owner, "BoneFloatData", "present=%v with %d bones", m.BoneFloatData != nil, len(m.Bones))
		return
	}
	if (m.SomeCount1 == 2) != (m.Unknown7 != nil) {
		e.precondition(owner, "Unknown7", "present=%v with SomeCount1=%d", m.Unknown7 != nil, m.SomeCount1)
		return
	}

	e.u16s(m.Unknown1[:])
	e.u16s(m.Unknown2[:])
	e.i32(m.SomeCount1)
	e.i32(e.count(owner, "Materials", len(m.Materials)))
	e.i32(e.count(owner, "Submaterials", len(m.Submaterials)))
	e.i32(e.count(owner, "Bones", len(m.Bones)))
	e.u32(m.UnknownCount)
	e.i32(e.count(owner, "AttachPoints", len(m.AttachPoints)))
	e.u32(m.VertexCount)
	e.u32(m.IndexCount)
	e.u32(m.VertexOffset)
	e.u32(m.IndexOffset)
	e.u32(m.IndexOffset2)
	e.u32(m.Unknown3)
	e.u32(m.BoneWeightsOffset)
	e.u32(m.BoneWeightsByteCount)
	e.u32s(m.Unknown4[:])
	e.u32(m.MaskDataOffset)
	e.u32(m.MaskDataByteCount)

	e.zeros(1)
	e.rawFloats(m.Unknown5[:])

	encodeArray(e, "TmmAttachPoint", m.AttachPoints, (*TmmAttachPoint).encode)

	e.u32s(m.Unknown6[:])
	if m.Unknown7 != nil {
		e.u32s(m.Unknown7[:])
	}

	encodeArray(e, "Material", m.Materials, func(s *string, e *encoder) {
		e.tmString(owner, "Materials", *s)
	})
	encodeArray(e, "Submaterial", m.Submaterials, func(s *string, e *encoder) {
		e.tmString(owner, "Submaterials", *s)
	})

	encodeArray(e, "Bone", m.Bones, (*Bone).encode)
	if m.BoneFloatData != nil {
		m.BoneFloatData.encode(e)
	} else {
		e.zeros(4)
	}

	e.u32(ModelInfoFooter)
	e.zeros(3)

	e.flag(m.Suffix != nil)
	if m.Suffix != nil {
		m.Suffix.encode(e)
	}
}
