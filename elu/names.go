package elu

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/zlabs/elu_browser/utils"
)

// Biped exporter naming: "Bip01 L Forearm", "Bip01 R Finger02", "Bip01 HeadNub".
var bipRegex = regexp.MustCompile(`^Bip\d{2,}\s*(?P<side>L|R)?\s*(?P<name>[a-zA-Z]+)?(?P<index>\d+)?(?P<nub>[a-zA-Z]+)?$`)

var (
	bipSide  = bipRegex.SubexpIndex("side")
	bipName  = bipRegex.SubexpIndex("name")
	bipIndex = bipRegex.SubexpIndex("index")
	bipNub   = bipRegex.SubexpIndex("nub")
)

// Classify maps a biped bone name to the scene naming convention.
// Names that are not biped bones are returned unchanged.
func Classify(name string) (string, bool) {
	m := bipRegex.FindStringSubmatchIndex(name)
	if m == nil {
		return name, false
	}
	group := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return name[m[2*i]:m[2*i+1]], true
	}

	var sb strings.Builder
	sb.WriteString("ZBip_")
	if n, ok := group(bipName); ok {
		sb.WriteString(n)
	} else {
		sb.WriteString("Root")
	}
	if nub, ok := group(bipNub); ok {
		sb.WriteString("_")
		sb.WriteString(nub)
	}
	if side, ok := group(bipSide); ok {
		sb.WriteString(".")
		sb.WriteString(side)
	}
	if index, ok := group(bipIndex); ok {
		sb.WriteString(bipIndexSuffix(index))
	}
	return sb.String(), true
}

// "05" -> ".1005", "00" -> ".1000", "5" -> ".005", "12" -> ".012", "0" -> ""
func bipIndexSuffix(index string) string {
	significant := strings.TrimLeft(index, "0")
	switch {
	case len(index) > 1 && len(significant) <= 1:
		return ".1" + padZero(index, 3)
	case significant != "":
		return "." + padZero(index, 3)
	default:
		return ""
	}
}

func padZero(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func (d *decoder) decodeName(raw []byte, at int) (string, error) {
	s, err := utils.BytesToString(raw, d.opts.Encoding)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedNameEncoding, "at 0x%.8x: %v", at, err)
	}
	return s, nil
}

func (d *decoder) readFixedName(length int) (string, error) {
	at := d.bs.Pos()
	raw, err := d.bs.Read(length)
	if err != nil {
		return "", err
	}
	return d.decodeName(raw, at)
}

func (d *decoder) readLengthPrefixedName() (string, error) {
	length, err := d.bs.ReadCount(1)
	if err != nil {
		return "", err
	}
	at := d.bs.Pos()
	raw, err := d.bs.Read(length)
	if err != nil {
		return "", err
	}
	return d.decodeName(raw, at)
}
