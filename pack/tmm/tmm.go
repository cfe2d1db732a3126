// Package tmm reads and writes BTMM model metadata files.
//
// A .tmm file holds a header with one name per model followed by one
// ModelInfo per model: geometry counts and offsets into the companion
// "<file>.data" blob, attach points, material names, bones and bone weights.
// Most fields are not understood; they are kept as fixed-size arrays and
// written back unchanged so that decode followed by encode reproduces the
// input byte for byte.
//
// Counts that duplicate an array length are not stored in the decoded
// structures. They are taken from len() when encoding.
package tmm

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/tmmtools/tmm_browser/config"
	"github.com/tmmtools/tmm_browser/pack"
	"github.com/tmmtools/tmm_browser/utils"
)

const (
	Magic = "BTMM"

	// ModelInfoFooter closes every ModelInfo. A wrong count anywhere before
	// it shifts the cursor, so this check catches most layout mistakes.
	ModelInfoFooter uint32 = 0x01585600

	SuffixTag uint16 = 0x5356

	// DataFileSuffix is appended to a .tmm path to find its geometry blob.
	DataFileSuffix = ".data"
)

// TmmFile is a whole decoded .tmm document.
type TmmFile struct {
	Header     TmmHeader
	ModelInfos []ModelInfo
}

// Decode parses a complete file using the default code page for text.
func Decode(b []byte) (*TmmFile, error) {
	return DecodeWithEncoding(b, config.DefaultEncoding)
}

func DecodeWithEncoding(b []byte, cm *charmap.Charmap) (*TmmFile, error) {
	f, _, err := decodeFile(b, cm)
	return f, err
}

// DecodeLayout decodes b and returns the byte span tree of every structure
// that was read. On failure the tree covers what was read before the error.
func DecodeLayout(b []byte, cm *charmap.Charmap) (string, error) {
	_, bs, err := decodeFile(b, cm)
	return bs.StringTree(), err
}

func decodeFile(b []byte, cm *charmap.Charmap) (*TmmFile, *utils.BufStack, error) {
	d := newDecoder("TmmFile", b, cm)

	f := &TmmFile{}
	f.Header = decodeStruct(d, "TmmHeader", decodeHeader)
	f.ModelInfos = decodeArray(d, "ModelInfo", uint32(len(f.Header.ModelNames)), modelInfoMinSize, decodeModelInfo)
	d.expectEOF()

	if err := d.Err(); err != nil {
		return nil, d.bs, err
	}
	return f, d.bs, nil
}

func (f *TmmFile) Encode() ([]byte, error) {
	return f.EncodeWithEncoding(config.DefaultEncoding)
}

// EncodeWithEncoding serializes the document into a fresh buffer. The
// buffer is only returned when every structure was written.
func (f *TmmFile) EncodeWithEncoding(cm *charmap.Charmap) ([]byte, error) {
	e := newEncoder(cm)
	f.encode(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// MarshalTo encodes f and writes it to w. Nothing is written when encoding fails.
func (f *TmmFile) MarshalTo(w io.Writer, cm *charmap.Charmap) error {
	raw, err := f.EncodeWithEncoding(cm)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return errors.Wrapf(err, "Failed to write %d bytes", len(raw))
	}
	return nil
}

func (f *TmmFile) encode(e *encoder) {
	if len(f.ModelInfos) != len(f.Header.ModelNames) {
		e.precondition("TmmFile", "ModelInfos", "%d models but %d model names in header",
			len(f.ModelInfos), len(f.Header.ModelNames))
		return
	}
	f.Header.encode(e)
	encodeArray(e, "ModelInfo", f.ModelInfos, (*ModelInfo).encode)
}

func init() {
	pack.SetHandler(".TMM", func(src utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
		raw, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read %q", src.Name())
		}
		return DecodeWithEncoding(raw, config.GetEncoding())
	})
}
