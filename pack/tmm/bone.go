package tmm

const (
	boneUnknownCount = 0xD0 / 4
	boneMinSize      = 4 + 4 + 0xD0
)

// Bone is one skeleton joint.
type Bone struct {
	Name string
	// BoneParent is not validated. Roots have been seen with -1; see HasParent.
	BoneParent int32
	Unknown2   [boneUnknownCount]RawFloat
}

// HasParent reports whether BoneParent points at another bone of a
// skeleton with boneCount joints.
func (b *Bone) HasParent(self, boneCount int) bool {
	return b.BoneParent >= 0 && int(b.BoneParent) < boneCount && int(b.BoneParent) != self
}

func decodeBone(d *decoder) Bone {
	var b Bone
	b.Name = d.tmString()
	d.bs.SetName(b.Name)
	b.BoneParent = d.i32()
	d.rawFloats(b.Unknown2[:])
	return b
}

func (b *Bone) encode(e *encoder) {
	e.tmString("Bone", "Name", b.Name)
	e.i32(b.BoneParent)
	e.rawFloats(b.Unknown2[:])
}
