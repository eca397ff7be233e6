package elu

import "fmt"

// Version is the revision tag stored right after the magic.
// Structural differences are gated by ranges, so tags compare numerically.
type Version uint32

const (
	// GunZ: The Duel
	Version11   Version = 0x11
	Version5001 Version = 0x5001
	Version5002 Version = 0x5002
	Version5003 Version = 0x5003
	Version5004 Version = 0x5004
	Version5005 Version = 0x5005
	Version5006 Version = 0x5006
	Version5007 Version = 0x5007
	// GunZ: The Second Duel, RaiderZ
	Version5008 Version = 0x5008
	Version500A Version = 0x500A
	Version500B Version = 0x500B
	Version500C Version = 0x500C
	Version500E Version = 0x500E
	Version500F Version = 0x500F
	Version5010 Version = 0x5010
	Version5011 Version = 0x5011
)

var supportedVersions = []Version{
	Version11,
	Version5001, Version5002, Version5003, Version5004,
	Version5005, Version5006, Version5007,
	Version5008, Version500A, Version500B, Version500C,
	Version500E, Version500F, Version5010, Version5011,
}

// SupportedVersions returns the recognised tags in ascending order.
func SupportedVersions() []Version {
	r := make([]Version, len(supportedVersions))
	copy(r, supportedVersions)
	return r
}

func (v Version) IsSupported() bool {
	for _, sv := range supportedVersions {
		if sv == v {
			return true
		}
	}
	return false
}

func (v Version) String() string {
	return fmt.Sprintf("0x%x", uint32(v))
}

// Format selects the mesh decoder family.
type Format int

const (
	FormatA Format = iota // GunZ: The Duel, fixed names, per-face uvs
	FormatB               // indexed vertex pools
)

func (f Format) String() string {
	switch f {
	case FormatA:
		return "A"
	case FormatB:
		return "B"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func (v Version) Format() Format {
	if v < Version5008 {
		return FormatA
	}
	return FormatB
}
