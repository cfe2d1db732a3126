// Package tmmtest builds random but well-formed tmm documents for tests and
// for "tmmtool gen".
package tmmtest

import (
	"math/rand"

	"github.com/tmmtools/tmm_browser/3rdparty/half"
	"github.com/tmmtools/tmm_browser/pack/tmm"
	"github.com/tmmtools/tmm_browser/utils"
)

// ModelOptions sets the shape of one generated model. Zero value is a bare
// model with no arrays and no optional blocks.
type ModelOptions struct {
	Materials    int
	Submaterials int
	Bones        int
	AttachPoints int
	// BoneWeights are element counts of the four BoneFloats slots. Ignored
	// when Bones is 0.
	BoneWeights [4]int
	// ExtraUnknown7 sets SomeCount1 to 2 and fills Unknown7.
	ExtraUnknown7 bool
	// SuffixWords < 0 means no suffix block.
	SuffixWords int
}

// Skinned is a typical character model.
var Skinned = ModelOptions{
	Materials:    2,
	Submaterials: 1,
	Bones:        5,
	AttachPoints: 2,
	BoneWeights:  [4]int{3, 2, 1, 1},
	SuffixWords:  -1,
}

// Static is a typical prop without a skeleton.
var Static = ModelOptions{
	Materials:    1,
	Submaterials: 1,
	SuffixWords:  -1,
}

type Generator struct {
	rnd   *rand.Rand
	names *utils.RandomNameGenerator
}

// New returns a generator whose output depends only on seed.
func New(seed int64) *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		names: utils.NewRandomNameGenerator(seed),
	}
}

func (g *Generator) float() float32 {
	return float32(g.rnd.Intn(2000)-1000) / 8
}

func (g *Generator) floats(dst []tmm.RawFloat) {
	for i := range dst {
		dst[i] = tmm.NewRawFloat(g.float())
	}
}

func (g *Generator) u32s(dst []uint32) {
	for i := range dst {
		dst[i] = g.rnd.Uint32()
	}
}

func (g *Generator) halfs(n int) []half.Float16 {
	if n == 0 {
		return nil
	}
	fs := make([]float32, n)
	for i := range fs {
		fs[i] = g.float()
	}
	return half.FromFloat32s(fs)
}

func (g *Generator) nameList(n int, gen func() string) []string {
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = gen()
	}
	return out
}

func (g *Generator) AttachPoint() tmm.TmmAttachPoint {
	ap := tmm.TmmAttachPoint{
		Flags: int32(g.rnd.Intn(4)),
		Name1: "attach_" + g.names.RandomName(),
	}
	if g.rnd.Intn(2) == 0 {
		ap.Name2 = ap.Name1
	}
	g.floats(ap.Floats1[:])
	return ap
}

// Bones builds a chain-and-branch skeleton: bone 0 is the root with parent
// -1, every other bone points at an earlier one.
func (g *Generator) Bones(n int) []tmm.Bone {
	if n == 0 {
		return nil
	}
	bones := make([]tmm.Bone, n)
	for i := range bones {
		bones[i].Name = g.names.RandomBoneName("bip01")
		if i == 0 {
			bones[i].BoneParent = -1
		} else {
			bones[i].BoneParent = int32(g.rnd.Intn(i))
		}
		g.floats(bones[i].Unknown2[:])
	}
	return bones
}

func (g *Generator) BoneFloats(counts [4]int) *tmm.BoneFloats {
	return &tmm.BoneFloats{
		Data0: g.halfs(counts[0] * tmm.BoneFloatStrides[0]),
		Data1: g.halfs(counts[1] * tmm.BoneFloatStrides[1]),
		Data2: g.halfs(counts[2] * tmm.BoneFloatStrides[2]),
		Data3: g.halfs(counts[3] * tmm.BoneFloatStrides[3]),
	}
}

func (g *Generator) ModelInfo(opts ModelOptions) tmm.ModelInfo {
	m := tmm.ModelInfo{
		Unknown1:     [4]uint16{2, 2, 6, 14},
		SomeCount1:   1,
		UnknownCount: uint32(g.rnd.Intn(8)),
		VertexCount:  uint32(g.rnd.Intn(5000)),
		IndexCount:   uint32(g.rnd.Intn(15000)),
	}
	for i := range m.Unknown2 {
		m.Unknown2[i] = uint16(g.rnd.Intn(0x10000))
	}
	m.IndexOffset = m.VertexCount * 32
	m.IndexOffset2 = m.IndexOffset
	m.Unknown3 = g.rnd.Uint32()
	if opts.Bones > 0 {
		m.BoneWeightsOffset = m.IndexOffset + m.IndexCount*2
		m.BoneWeightsByteCount = m.VertexCount * 8
	}
	g.u32s(m.Unknown4[:])
	m.MaskDataOffset = g.rnd.Uint32()
	m.MaskDataByteCount = g.rnd.Uint32()
	g.floats(m.Unknown5[:])

	if opts.AttachPoints > 0 {
		m.AttachPoints = make([]tmm.TmmAttachPoint, opts.AttachPoints)
		for i := range m.AttachPoints {
			m.AttachPoints[i] = g.AttachPoint()
		}
	}

	m.Unknown6[0] = g.rnd.Uint32()
	if opts.ExtraUnknown7 {
		m.SomeCount1 = 2
		var unk7 [6]uint32
		g.u32s(unk7[:])
		m.Unknown7 = &unk7
	}

	m.Materials = g.nameList(opts.Materials, func() string { return "mat_" + g.names.RandomName() })
	m.Submaterials = g.nameList(opts.Submaterials, func() string { return "default" })

	m.Bones = g.Bones(opts.Bones)
	if opts.Bones > 0 {
		m.BoneFloatData = g.BoneFloats(opts.BoneWeights)
	}

	if opts.SuffixWords >= 0 {
		var data []uint32
		if opts.SuffixWords > 0 {
			data = make([]uint32, opts.SuffixWords)
			g.u32s(data)
		}
		m.Suffix = tmm.NewSuffixData(data)
	}
	return m
}

// File builds a document with one model per entry of models.
func (g *Generator) File(models ...ModelOptions) *tmm.TmmFile {
	f := &tmm.TmmFile{
		Header: tmm.TmmHeader{
			MagicId:        tmm.Magic,
			Unknown1:       34,
			Unknown2:       22,
			DataOffset:     g.rnd.Uint32(),
			HeaderEndBytes: 2024,
		},
	}
	if len(models) == 0 {
		return f
	}
	f.Header.ModelNames = make([]string, len(models))
	f.ModelInfos = make([]tmm.ModelInfo, len(models))
	for i, opts := range models {
		f.Header.ModelNames[i] = g.names.RandomName()
		f.ModelInfos[i] = g.ModelInfo(opts)
	}
	return f
}

// NewFile is New(seed).File(models...).
func NewFile(seed int64, models ...ModelOptions) *tmm.TmmFile {
	return New(seed).File(models...)
}
