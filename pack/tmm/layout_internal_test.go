package tmm

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/tmmtools/tmm_browser/3rdparty/half"
)

// raw assembles little-endian test input by hand, independent of encoder.
type raw struct {
	bytes.Buffer
}

func (r *raw) put(v ...interface{}) *raw {
	for _, x := range v {
		if err := binary.Write(&r.Buffer, binary.LittleEndian, x); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *raw) str(s string) *raw {
	r.put(uint32(len(s)))
	r.WriteString(s)
	return r
}

func (r *raw) zeros(n int) *raw {
	r.Write(make([]byte, n))
	return r
}

type rawModel struct {
	someCount1  int32
	materials   []string
	submaterial []string
	attach      int
	suffix      []uint32
	hasSuffix   bool
}

func (r *raw) header(names ...string) *raw {
	r.WriteString("BTMM")
	r.put(uint32(34), uint16(22), uint32(0x1000), uint32(len(names)))
	for _, n := range names {
		r.str(n)
	}
	r.put(uint16(2024))
	return r
}

func (r *raw) attachPoint(name string) *raw {
	r.put(uint64(0), int32(1))
	r.str(name)
	for i := 0; i < attachPointFloatCount; i++ {
		r.put(float32(i))
	}
	r.put(uint64(0))
	r.str(name)
	r.put(uint32(0xffffffff), uint32(0), uint32(0))
	return r
}

// model writes a bone-less ModelInfo.
func (r *raw) model(m rawModel) *raw {
	r.put([4]uint16{2, 2, 6, 14})
	for i := 0; i < 29; i++ {
		r.put(uint16(i))
	}
	r.put(m.someCount1)
	r.put(uint32(len(m.materials)), uint32(len(m.submaterial)), uint32(0), uint32(3), uint32(m.attach))
	r.put(uint32(100), uint32(300))
	// VertexOffset .. MaskDataByteCount
	for i := 0; i < 12; i++ {
		r.put(uint32(i * 16))
	}
	r.zeros(1)
	for i := 0; i < 13; i++ {
		r.put(float32(i) / 2)
	}
	for i := 0; i < m.attach; i++ {
		r.attachPoint("socket")
	}
	r.put([4]uint32{7, 0, 0, 0})
	if m.someCount1 == 2 {
		r.put([6]uint32{1, 2, 3, 4, 5, 6})
	}
	for _, s := range m.materials {
		r.str(s)
	}
	for _, s := range m.submaterial {
		r.str(s)
	}
	r.zeros(4)
	r.put(ModelInfoFooter)
	r.zeros(3)
	if m.hasSuffix {
		r.put(uint8(1), SuffixTag, uint32(len(m.suffix)*4))
		r.put(m.suffix)
	} else {
		r.put(uint8(0))
	}
	return r
}

func minimalFile() []byte {
	var r raw
	r.header("crate")
	r.model(rawModel{someCount1: 1, materials: []string{"wood"}, submaterial: []string{"default"}})
	return r.Bytes()
}

func TestMinimalFileIsByteIdentical(t *testing.T) {
	in := minimalFile()

	f, err := Decode(in)
	require.NoError(t, err)
	require.Len(t, f.ModelInfos, 1)

	m := f.ModelInfos[0]
	assert.Equal(t, []string{"crate"}, f.Header.ModelNames)
	assert.Equal(t, []string{"wood"}, m.Materials)
	assert.Equal(t, []string{"default"}, m.Submaterials)
	assert.Equal(t, uint32(100), m.VertexCount)
	assert.Equal(t, uint32(300), m.IndexCount)
	assert.Equal(t, uint32(16), m.IndexOffset)
	assert.Equal(t, uint32(32), m.IndexOffset2)
	assert.Equal(t, [4]uint32{7, 0, 0, 0}, m.Unknown6)
	assert.Nil(t, m.Unknown7)
	assert.Nil(t, m.Bones)
	assert.Nil(t, m.BoneFloatData)
	assert.Nil(t, m.Suffix)

	out, err := f.Encode()
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestBadMagic(t *testing.T) {
	in := minimalFile()
	copy(in, "MTTB")

	_, err := Decode(in)
	var bad *BadMagicError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, []byte("MTTB"), bad.Magic)

	// two bytes that already differ are reported as bad magic, not truncation
	_, err = Decode([]byte("XY"))
	require.ErrorAs(t, err, &bad)

	_, err = Decode([]byte("BT"))
	var trunc *TruncationError
	require.ErrorAs(t, err, &trunc)
}

func TestTruncatedFile(t *testing.T) {
	in := minimalFile()
	for _, cut := range []int{1, 4, 12, len(in) - 20} {
		_, err := Decode(in[:len(in)-cut])
		var trunc *TruncationError
		require.ErrorAs(t, err, &trunc, "cut %d", cut)
		assert.LessOrEqual(t, trunc.Have, trunc.Need)
	}
}

func TestTrailingData(t *testing.T) {
	in := append(minimalFile(), 0xAA, 0xBB)

	_, err := Decode(in)
	var trailing *TrailingDataError
	require.ErrorAs(t, err, &trailing)
	assert.Equal(t, 2, trailing.Remaining)
	assert.Equal(t, len(in)-2, trailing.Offset)
}

func TestHugeCountFailsBeforeAllocation(t *testing.T) {
	var r raw
	r.WriteString("BTMM")
	r.put(uint32(34), uint16(22), uint32(0), uint32(0xffffffff))

	_, err := Decode(r.Bytes())
	var trunc *TruncationError
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, "TmmHeader", trunc.Owner)
}

func TestFooterCatchesShiftedLayout(t *testing.T) {
	in := minimalFile()
	modelStart := 4 + 4 + 2 + 4 + 4 + (4 + len("crate")) + 2
	materialCountOffset := modelStart + 8 + 29*2 + 4

	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(in[materialCountOffset:]))
	binary.LittleEndian.PutUint32(in[materialCountOffset:], 0)

	_, err := Decode(in)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "ModelInfo", inv.Owner)
	assert.Equal(t, ModelInfoFooter, inv.Expected)
}

func TestNoBonesWritesFourZeroBytes(t *testing.T) {
	out, err := (&TmmFile{
		Header: TmmHeader{ModelNames: []string{"a"}},
		ModelInfos: []ModelInfo{{
			Materials: []string{"m"},
		}},
	}).Encode()
	require.NoError(t, err)

	n := len(out)
	// ... filler(4) footer(4) padding(3) flag(1)
	assert.Equal(t, []byte{0, 0, 0, 0}, out[n-12:n-8])
	assert.Equal(t, ModelInfoFooter, binary.LittleEndian.Uint32(out[n-8:]))
	assert.Equal(t, []byte{0, 0, 0, 0}, out[n-4:])
}

func TestUnknown7Presence(t *testing.T) {
	for _, tc := range []struct {
		someCount1 int32
		present    bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{3, false},
		{-2, false},
	} {
		var r raw
		r.header("m")
		r.model(rawModel{someCount1: tc.someCount1})
		in := r.Bytes()

		f, err := Decode(in)
		require.NoError(t, err, "SomeCount1=%d", tc.someCount1)
		m := f.ModelInfos[0]
		if tc.present {
			require.NotNil(t, m.Unknown7)
			assert.Equal(t, [6]uint32{1, 2, 3, 4, 5, 6}, *m.Unknown7)
		} else {
			assert.Nil(t, m.Unknown7)
		}

		out, err := f.Encode()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestAttachPoints(t *testing.T) {
	var r raw
	r.header("m")
	r.model(rawModel{someCount1: 1, attach: 2})
	in := r.Bytes()

	f, err := Decode(in)
	require.NoError(t, err)
	aps := f.ModelInfos[0].AttachPoints
	require.Len(t, aps, 2)
	assert.Equal(t, "socket", aps[0].Name1)
	assert.Equal(t, "socket", aps[1].Name2)
	assert.Equal(t, int32(1), aps[1].Flags)
	assert.Equal(t, float32(23), aps[0].Floats1[23].Float32())

	out, err := f.Encode()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAttachPointTerminator(t *testing.T) {
	var r raw
	r.header("m")
	r.model(rawModel{someCount1: 1, attach: 1})
	in := r.Bytes()

	termOffset := bytes.Index(in, []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0, 0, 0})
	require.True(t, termOffset > 0)
	in[termOffset+4] = 1

	_, err := Decode(in)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "TmmAttachPoint", inv.Owner)
	assert.Equal(t, termOffset, inv.Offset)
	assert.Equal(t, []uint32{0xffffffff, 0, 0}, inv.Expected)
	assert.Equal(t, []uint32{0xffffffff, 1, 0}, inv.Actual)
	assert.Contains(t, err.Error(), "TmmAttachPoint[0]")
}

func TestAttachPointReservedBlock(t *testing.T) {
	var r raw
	r.header("m")
	r.model(rawModel{someCount1: 1, attach: 1})
	in := r.Bytes()

	// first byte of the first reserved u64
	apOffset := 4 + 4 + 2 + 4 + 4 + 5 + 2 + 8 + 58 + 32 + 48 + 1 + 52
	in[apOffset] = 9

	_, err := Decode(in)
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, apOffset, inv.Offset)
	assert.Equal(t, uint64(0), inv.Expected)
	assert.Equal(t, uint64(9), inv.Actual)
}

func TestSuffixData(t *testing.T) {
	var r raw
	r.header("m")
	r.model(rawModel{someCount1: 1, hasSuffix: true, suffix: []uint32{0xdead, 0xbeef}})
	in := r.Bytes()

	f, err := Decode(in)
	require.NoError(t, err)
	s := f.ModelInfos[0].Suffix
	require.NotNil(t, s)
	assert.Equal(t, SuffixTag, s.Tag)
	assert.Equal(t, uint32(8), s.ByteCount)
	assert.Equal(t, []uint32{0xdead, 0xbeef}, s.Data)

	// stale byte count is recomputed
	s.ByteCount = 100
	out, err := f.Encode()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	t.Run("bad tag", func(t *testing.T) {
		bad := append([]byte(nil), in...)
		tagOffset := len(bad) - 8 - 4 - 2
		binary.LittleEndian.PutUint16(bad[tagOffset:], 0x1234)

		_, err := Decode(bad)
		var inv *InvariantError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, "SuffixData", inv.Owner)
		assert.Equal(t, tagOffset, inv.Offset)
		assert.Equal(t, SuffixTag, inv.Expected)
	})

	t.Run("byte count not multiple of 4", func(t *testing.T) {
		bad := append([]byte(nil), in...)
		countOffset := len(bad) - 8 - 4
		binary.LittleEndian.PutUint32(bad[countOffset:], 6)

		_, err := Decode(bad)
		var inv *InvariantError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, countOffset, inv.Offset)
		assert.Equal(t, uint32(6), inv.Actual)
	})
}

func TestBoneFloatsStrides(t *testing.T) {
	counts := [4]uint16{2, 3, 1, 1}
	var r raw
	r.put(counts)
	for i, c := range counts {
		for j := 0; j < int(c)*BoneFloatStrides[i]; j++ {
			r.put(half.NewFloat16(float32(j)))
		}
	}
	in := r.Bytes()

	d := newDecoder("BoneFloats", in, charmap.Windows1252)
	bf := decodeBoneFloats(d)
	d.expectEOF()
	require.NoError(t, d.Err())

	for i, slot := range bf.slots() {
		assert.Equal(t, int(counts[i])*BoneFloatStrides[i], len(*slot), "slot %d", i)
		assert.Equal(t, int(counts[i]), bf.Count(i))
	}
	assert.Equal(t, float32(15), bf.Data2[15].Float32())

	e := newEncoder(charmap.Windows1252)
	bf.encode(e)
	require.NoError(t, e.Err())
	assert.Equal(t, in, e.Bytes())
}

func TestEncodePreconditions(t *testing.T) {
	bone := Bone{Name: "root", BoneParent: -1}

	for name, tc := range map[string]struct {
		f     TmmFile
		field string
	}{
		"model names mismatch": {
			f:     TmmFile{Header: TmmHeader{ModelNames: []string{"a", "b"}}, ModelInfos: []ModelInfo{{}}},
			field: "ModelInfos",
		},
		"bones without weights": {
			f:     TmmFile{Header: TmmHeader{ModelNames: []string{"a"}}, ModelInfos: []ModelInfo{{Bones: []Bone{bone}}}},
			field: "BoneFloatData",
		},
		"weights without bones": {
			f:     TmmFile{Header: TmmHeader{ModelNames: []string{"a"}}, ModelInfos: []ModelInfo{{BoneFloatData: &BoneFloats{}}}},
			field: "BoneFloatData",
		},
		"unknown7 without SomeCount1": {
			f:     TmmFile{Header: TmmHeader{ModelNames: []string{"a"}}, ModelInfos: []ModelInfo{{Unknown7: &[6]uint32{}}}},
			field: "Unknown7",
		},
		"SomeCount1 without unknown7": {
			f:     TmmFile{Header: TmmHeader{ModelNames: []string{"a"}}, ModelInfos: []ModelInfo{{SomeCount1: 2}}},
			field: "Unknown7",
		},
		"bad stride": {
			f: TmmFile{Header: TmmHeader{ModelNames: []string{"a"}}, ModelInfos: []ModelInfo{{
				Bones:         []Bone{bone},
				BoneFloatData: &BoneFloats{Data3: make([]half.Float16, 20)},
			}}},
			field: "Data3",
		},
		"unencodable name": {
			f:     TmmFile{Header: TmmHeader{ModelNames: []string{"模型"}}, ModelInfos: []ModelInfo{{}}},
			field: "ModelNames",
		},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := tc.f.Encode()
			var pre *PreconditionError
			require.ErrorAs(t, err, &pre)
			assert.Equal(t, tc.field, pre.Field)
			assert.Nil(t, out)

			var w bytes.Buffer
			require.Error(t, tc.f.MarshalTo(&w, charmap.Windows1252))
			assert.Zero(t, w.Len())
		})
	}
}

func TestTextEncoding(t *testing.T) {
	f := TmmFile{
		Header:     TmmHeader{ModelNames: []string{"Привет"}},
		ModelInfos: []ModelInfo{{}},
	}
	out, err := f.EncodeWithEncoding(charmap.Windows1251)
	require.NoError(t, err)

	// one byte per cyrillic letter in cp1251
	nameLen := binary.LittleEndian.Uint32(out[18:])
	assert.Equal(t, uint32(6), nameLen)

	back, err := DecodeWithEncoding(out, charmap.Windows1251)
	require.NoError(t, err)
	assert.Equal(t, []string{"Привет"}, back.Header.ModelNames)
}

func TestDecoderStickyError(t *testing.T) {
	d := newDecoder("Test", []byte{1, 2, 3}, charmap.Windows1252)
	assert.Equal(t, uint16(0x0201), d.u16())
	assert.Equal(t, uint32(0), d.u32())
	assert.Equal(t, uint8(0), d.u8())

	var trunc *TruncationError
	require.ErrorAs(t, d.Err(), &trunc)
	assert.Equal(t, TruncationError{Owner: "Test", Offset: 2, Need: 4, Have: 1}, *trunc)
}

func TestNaNPayloadSurvivesDocuments(t *testing.T) {
	in := minimalFile()
	modelStart := 4 + 4 + 2 + 4 + 4 + (4 + len("crate")) + 2
	unknown5Offset := modelStart + 8 + 29*2 + 8*4 + 12*4 + 1
	binary.LittleEndian.PutUint32(in[unknown5Offset:], 0x7fc00123)

	f, err := Decode(in)
	require.NoError(t, err)
	assert.Equal(t, RawFloat(0x7fc00123), f.ModelInfos[0].Unknown5[0])
	assert.True(t, math.IsNaN(float64(f.ModelInfos[0].Unknown5[0].Float32())))

	_, err = json.Marshal(f.Marshal("crate.tmm"))
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		doc, err := json.Marshal(f)
		require.NoError(t, err)
		var back TmmFile
		require.NoError(t, json.Unmarshal(doc, &back))
		out, err := back.Encode()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("yaml", func(t *testing.T) {
		doc, err := yaml.Marshal(f)
		require.NoError(t, err)
		var back TmmFile
		require.NoError(t, yaml.Unmarshal(doc, &back))
		out, err := back.Encode()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

// Every count shifts what follows it. Depending on where the cursor lands the
// decoder either runs out of bytes before reaching the footer or reads a
// wrong footer value.
func TestCorruptedCounts(t *testing.T) {
	var r raw
	r.header("crate")
	r.model(rawModel{someCount1: 1, materials: []string{"wood"}, submaterial: []string{"default"}, attach: 1})
	in := r.Bytes()

	countsOffset := 4 + 4 + 2 + 4 + 4 + (4 + len("crate")) + 2 + 8 + 29*2
	for _, tc := range []struct {
		field  string
		offset int
		want   interface{}
	}{
		// Unknown7 swallows the strings, the material length comes from the footer
		{"SomeCount1", 0, &TruncationError{}},
		// "default" becomes a material, the filler an empty submaterial
		{"MaterialCount", 4, &InvariantError{}},
		{"SubmaterialCount", 8, &InvariantError{}},
		// a bone needs more bytes than the model has left
		{"BoneCount", 12, &TruncationError{}},
		{"UnknownCount", 16, nil},
		{"AttachPointCount", 20, &TruncationError{}},
	} {
		bad := append([]byte(nil), in...)
		at := countsOffset + tc.offset
		binary.LittleEndian.PutUint32(bad[at:], binary.LittleEndian.Uint32(bad[at:])+1)

		_, err := Decode(bad)
		switch want := tc.want.(type) {
		case nil:
			assert.NoError(t, err, tc.field)
		case *TruncationError:
			assert.ErrorAs(t, err, &want, tc.field)
		case *InvariantError:
			if assert.ErrorAs(t, err, &want, tc.field) {
				assert.Equal(t, ModelInfoFooter, want.Expected, tc.field)
			}
		}
	}
}
