package config

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// EncodingASCII selects strict 7-bit name decoding.
const EncodingASCII = "ascii"

// LookupEncoding resolves a charmap by its x/text name.
// Empty name and EncodingASCII both return nil, meaning strict ASCII.
func LookupEncoding(name string) (*charmap.Charmap, error) {
	if name == "" || strings.EqualFold(name, EncodingASCII) {
		return nil, nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				return cm, nil
			}
		}
	}
	return nil, errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := []string{EncodingASCII}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}
