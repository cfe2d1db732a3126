package tmm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/tmmtools/tmm_browser/3rdparty/half"
	"github.com/tmmtools/tmm_browser/utils"
)

// encoder mirrors decoder: every read has an exact-width write here.
// Like decoder the first error sticks and later writes are dropped.
type encoder struct {
	buf bytes.Buffer
	cm  *charmap.Charmap
	err error
}

func newEncoder(cm *charmap.Charmap) *encoder {
	return &encoder{cm: cm}
}

func (e *encoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *encoder) Err() error {
	return e.err
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) precondition(owner, field, format string, a ...interface{}) {
	e.fail(&PreconditionError{Owner: owner, Field: field, Reason: fmt.Sprintf(format, a...)})
}

func (e *encoder) write(b []byte) {
	if e.err == nil {
		e.buf.Write(b)
	}
}

func (e *encoder) zeros(n int) {
	e.write(make([]byte, n))
}

func (e *encoder) u8(v uint8) {
	e.write([]byte{v})
}

func (e *encoder) flag(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	e.write(buf[:])
}

func (e *encoder) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	e.write(buf[:])
}

func (e *encoder) i32(v int32) {
	e.u32(uint32(v))
}

func (e *encoder) u64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	e.write(buf[:])
}

func (e *encoder) u16s(v []uint16) {
	for _, x := range v {
		e.u16(x)
	}
}

func (e *encoder) u32s(v []uint32) {
	for _, x := range v {
		e.u32(x)
	}
}

func (e *encoder) rawFloats(v []RawFloat) {
	for _, x := range v {
		e.u32(uint32(x))
	}
}

func (e *encoder) halfs(v []half.Float16) {
	e.write(half.AppendLE(nil, v))
}

// count converts a slice length into a stored int32 count.
func (e *encoder) count(owner, field string, n int) int32 {
	if n > math.MaxInt32 {
		e.precondition(owner, field, "%d elements do not fit in a 32-bit count", n)
		return 0
	}
	return int32(n)
}

func (e *encoder) tmString(owner, field, s string) {
	raw, err := utils.StringToBytes(e.cm, s)
	if err != nil {
		e.fail(&PreconditionError{Owner: owner, Field: field, Reason: err.Error()})
		return
	}
	if uint64(len(raw)) > math.MaxUint32 {
		e.precondition(owner, field, "text of %d bytes is too long", len(raw))
		return
	}
	e.u32(uint32(len(raw)))
	e.write(raw)
}

// encodeArray writes every element in order; the first failing element
// stops encoding and is reported with its index.
func encodeArray[T any](e *encoder, kind string, items []T, fn func(*T, *encoder)) {
	for i := range items {
		if e.err != nil {
			return
		}
		fn(&items[i], e)
		if e.err != nil {
			e.err = errors.Wrapf(e.err, "%s[%d]", kind, i)
		}
	}
}
