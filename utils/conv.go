package utils

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// BytesToString trims bs at the first NUL and decodes the rest.
// With a nil charmap only 7-bit ASCII is accepted.
func BytesToString(bs []byte, cm *charmap.Charmap) (string, error) {
	bs = bs[:BytesStringLength(bs)]

	if cm == nil {
		for i, b := range bs {
			if b >= utf8.RuneSelf {
				return "", errors.Errorf("non-ascii byte 0x%.2x at %d in %q", b, i, DumpToOneLineString(bs))
			}
		}
		return string(bs), nil
	}

	s, _, err := transform.Bytes(cm.NewDecoder(), bs)
	if err != nil {
		return "", errors.Wrapf(err, "decoding %q as %v", DumpToOneLineString(bs), cm)
	}
	if bytes.ContainsRune(s, utf8.RuneError) {
		return "", errors.Errorf("%q has bytes undefined in %v", DumpToOneLineString(bs), cm)
	}
	return string(s), nil
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}
