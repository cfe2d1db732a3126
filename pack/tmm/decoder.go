package tmm

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/tmmtools/tmm_browser/3rdparty/half"
	"github.com/tmmtools/tmm_browser/utils"
)

// decodeState is shared by a decoder and all of its child spans.
// The first error sticks; every read after it is a no-op returning zero.
type decodeState struct {
	err error
	cm  *charmap.Charmap
}

type decoder struct {
	bs *utils.BufStack
	st *decodeState
}

func newDecoder(kind string, b []byte, cm *charmap.Charmap) *decoder {
	return &decoder{
		bs: utils.NewBufStack(kind, b),
		st: &decodeState{cm: cm},
	}
}

func (d *decoder) Err() error {
	return d.st.err
}

func (d *decoder) failed() bool {
	return d.st.err != nil
}

func (d *decoder) fail(err error) {
	if d.st.err == nil {
		d.st.err = err
	}
}

func (d *decoder) owner() string {
	return d.bs.Kind()
}

func (d *decoder) offset() int {
	return d.bs.AbsolutePos()
}

// open starts a child span for a nested structure at the cursor.
func (d *decoder) open(kind string) *decoder {
	return &decoder{bs: d.bs.SubBuf(kind, d.bs.Pos()), st: d.st}
}

// close ends a span opened with open and moves the parent past it.
func (d *decoder) close() {
	d.bs.Close()
}

func (d *decoder) need(n int) bool {
	if d.failed() {
		return false
	}
	if n < 0 || d.bs.Remaining() < n {
		d.fail(&TruncationError{Owner: d.owner(), Offset: d.offset(), Need: n, Have: d.bs.Remaining()})
		return false
	}
	return true
}

func (d *decoder) read(n int) []byte {
	if !d.need(n) {
		return nil
	}
	return d.bs.Read(n)
}

func (d *decoder) skip(n int) {
	if d.need(n) {
		d.bs.Skip(n)
	}
}

func (d *decoder) u8() uint8 {
	if !d.need(1) {
		return 0
	}
	return d.bs.ReadByte()
}

func (d *decoder) flag() bool {
	return d.u8() != 0
}

func (d *decoder) u16() uint16 {
	if !d.need(2) {
		return 0
	}
	return d.bs.ReadLU16()
}

func (d *decoder) u32() uint32 {
	if !d.need(4) {
		return 0
	}
	return d.bs.ReadLU32()
}

func (d *decoder) i32() int32 {
	return int32(d.u32())
}

func (d *decoder) u64() uint64 {
	if !d.need(8) {
		return 0
	}
	return d.bs.ReadLU64()
}

// u16Array fills dst; dst length is the fixed element count.
func (d *decoder) u16Array(dst []uint16) {
	if !d.need(len(dst) * 2) {
		return
	}
	for i := range dst {
		dst[i] = d.bs.ReadLU16()
	}
}

func (d *decoder) u32Array(dst []uint32) {
	if !d.need(len(dst) * 4) {
		return
	}
	for i := range dst {
		dst[i] = d.bs.ReadLU32()
	}
}

func (d *decoder) rawFloats(dst []RawFloat) {
	if !d.need(len(dst) * 4) {
		return
	}
	for i := range dst {
		dst[i] = RawFloat(d.bs.ReadLU32())
	}
}

// u32Slice reads a count-driven array. Zero count yields nil.
func (d *decoder) u32Slice(count int) []uint32 {
	if count == 0 || !d.need(count*4) {
		return nil
	}
	out := make([]uint32, count)
	d.u32Array(out)
	return out
}

// halfArray reads count binary16 values as raw bits. Zero count yields nil.
func (d *decoder) halfArray(count int) []half.Float16 {
	if count == 0 {
		return nil
	}
	raw := d.read(count * half.Size)
	if raw == nil {
		return nil
	}
	return half.DecodeLE(raw)
}

// tmString reads a TmString: uint32 byte length, then the text bytes.
func (d *decoder) tmString() string {
	start := d.offset()
	length := d.u32()
	if d.failed() || length == 0 {
		return ""
	}
	if uint64(length) > uint64(d.bs.Remaining()) {
		d.fail(&TruncationError{Owner: d.owner(), Offset: d.offset(), Need: int(length), Have: d.bs.Remaining()})
		return ""
	}
	s, err := utils.BytesToString(d.st.cm, d.bs.Read(int(length)))
	if err != nil {
		d.fail(errors.Wrapf(err, "%s: text at 0x%x", d.owner(), start))
		return ""
	}
	return s
}

func (d *decoder) expectEOF() {
	if d.failed() {
		return
	}
	if r := d.bs.Remaining(); r != 0 {
		d.fail(&TrailingDataError{Offset: d.offset(), Remaining: r})
	}
}

func expectValue[T comparable](d *decoder, offset int, expected, actual T) {
	if d.failed() {
		return
	}
	if err := expectEqual(d.owner(), offset, expected, actual); err != nil {
		d.fail(err)
	}
}

func expectValues[T comparable](d *decoder, offset int, expected, actual []T) {
	if d.failed() {
		return
	}
	if err := expectEqualSequence(d.owner(), offset, expected, actual); err != nil {
		d.fail(err)
	}
}

// decodeStruct decodes one nested structure in its own span.
func decodeStruct[T any](d *decoder, kind string, fn func(*decoder) T) T {
	sub := d.open(kind)
	v := fn(sub)
	sub.close()
	return v
}

// decodeArray calls fn exactly count times, each element in its own span.
// minSize is the smallest possible encoding of one element; a count that
// cannot fit in the remaining bytes fails before anything is allocated.
func decodeArray[T any](d *decoder, kind string, count uint32, minSize int, fn func(*decoder) T) []T {
	if d.failed() || count == 0 {
		return nil
	}
	if need := uint64(count) * uint64(minSize); need > uint64(d.bs.Remaining()) {
		if need > math.MaxInt32 {
			need = math.MaxInt32
		}
		d.fail(&TruncationError{Owner: d.owner(), Offset: d.offset(), Need: int(need), Have: d.bs.Remaining()})
		return nil
	}
	out := make([]T, count)
	for i := range out {
		out[i] = decodeStruct(d, kind, fn)
		if d.failed() {
			d.st.err = errors.Wrapf(d.st.err, "%s[%d]", kind, i)
			return nil
		}
	}
	return out
}
