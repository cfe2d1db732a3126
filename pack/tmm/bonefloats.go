package tmm

import (
	"math"

	"github.com/tmmtools/tmm_browser/3rdparty/half"
)

// BoneFloatStrides is the number of halfs per counted element of each
// BoneFloats slot.
var BoneFloatStrides = [4]int{4, 1, 16, 21}

const boneFloatsMinSize = 4 * 2

// BoneFloats is the bone weight block that follows the bones of a skinned model.
// Values are kept as raw binary16 bits.
type BoneFloats struct {
	Data0 []half.Float16
	Data1 []half.Float16
	Data2 []half.Float16
	Data3 []half.Float16
}

func (bf *BoneFloats) slots() [4]*[]half.Float16 {
	return [4]*[]half.Float16{&bf.Data0, &bf.Data1, &bf.Data2, &bf.Data3}
}

// Count is the stored element count of a slot (0..3).
func (bf *BoneFloats) Count(slot int) int {
	return len(*bf.slots()[slot]) / BoneFloatStrides[slot]
}

func decodeBoneFloats(d *decoder) BoneFloats {
	var bf BoneFloats
	var counts [4]uint16
	d.u16Array(counts[:])
	for i, slot := range bf.slots() {
		*slot = d.halfArray(int(counts[i]) * BoneFloatStrides[i])
	}
	return bf
}

func (bf *BoneFloats) encode(e *encoder) {
	var counts [4]uint16
	for i, slot := range bf.slots() {
		n, stride := len(*slot), BoneFloatStrides[i]
		if n%stride != 0 {
			e.precondition("BoneFloats", slotName(i), "length %d is not a multiple of %d", n, stride)
			return
		}
		if n/stride > math.MaxUint16 {
			e.precondition("BoneFloats", slotName(i), "%d elements do not fit in a 16-bit count", n/stride)
			return
		}
		counts[i] = uint16(n / stride)
	}
	e.u16s(counts[:])
	for _, slot := range bf.slots() {
		e.halfs(*slot)
	}
}

func slotName(i int) string {
	return [...]string{"Data0", "Data1", "Data2", "Data3"}[i]
}
