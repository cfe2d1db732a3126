package utils

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// BytesToString decodes raw game text with the given code page.
func BytesToString(cm *charmap.Charmap, bs []byte) (string, error) {
	if len(bs) == 0 {
		return "", nil
	}
	s, _, err := transform.Bytes(cm.NewDecoder(), bs)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode %d bytes as %v", len(bs), cm)
	}
	return string(s), nil
}

// StringToBytes encodes text with the given code page. Runes that the code
// page cannot represent produce an error.
func StringToBytes(cm *charmap.Charmap, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	bs, _, err := transform.Bytes(cm.NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode %q as %v", s, cm)
	}
	return bs, nil
}

// DumpToOneLineString renders bytes as printable ascii with \x escapes.
func DumpToOneLineString(buf []byte) string {
	var out bytes.Buffer

	for _, b := range buf {
		if b >= 0x20 && b < 0x7f {
			out.WriteRune(rune(b))
		} else {
			out.WriteString(fmt.Sprintf("\\x%.2x", b))
		}
	}

	return out.String()
}
