package tmm

// ModelSummary is the read-only view of one model that the browser shows
// next to the raw document.
type ModelSummary struct {
	Index            int
	Name             string
	Materials        int
	Submaterials     int
	Bones            int
	AttachPoints     int
	Vertices         uint32
	Indices          uint32
	RootBones        []int
	HasBoneWeights   bool
	HasSuffix        bool
	HasExtraUnknown7 bool
}

type Ajax struct {
	Name     string
	DataFile string
	Models   []ModelSummary
	File     *TmmFile
}

// RootBones lists bones whose parent index does not point at another bone.
func (m *ModelInfo) RootBones() []int {
	roots := make([]int, 0, 1)
	for i := range m.Bones {
		if !m.Bones[i].HasParent(i, len(m.Bones)) {
			roots = append(roots, i)
		}
	}
	return roots
}

func (m *ModelInfo) Summary(index int, name string) ModelSummary {
	return ModelSummary{
		Index:            index,
		Name:             name,
		Materials:        m.MaterialCount(),
		Submaterials:     m.SubmaterialCount(),
		Bones:            m.BoneCount(),
		AttachPoints:     m.AttachPointCount(),
		Vertices:         m.VertexCount,
		Indices:          m.IndexCount,
		RootBones:        m.RootBones(),
		HasBoneWeights:   m.BoneFloatData != nil,
		HasSuffix:        m.Suffix != nil,
		HasExtraUnknown7: m.Unknown7 != nil,
	}
}

// Marshal builds the browser view of a file named fileName.
func (f *TmmFile) Marshal(fileName string) *Ajax {
	res := &Ajax{
		Name:     fileName,
		DataFile: fileName + DataFileSuffix,
		Models:   make([]ModelSummary, len(f.ModelInfos)),
		File:     f,
	}
	for i := range f.ModelInfos {
		name := ""
		if i < len(f.Header.ModelNames) {
			name = f.Header.ModelNames[i]
		}
		res.Models[i] = f.ModelInfos[i].Summary(i, name)
	}
	return res
}
