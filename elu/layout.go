package elu

// Field presence and sizes per version range.
// Decoders never compare versions themselves, they ask these.

const (
	Magic = 0x0107F060

	NameLength = 40
	PathLength = 256

	FaceVertexCount    = 3
	BoneInfluenceCount = 4
	SmoothGroupCount   = 32

	NoParentIndex = 0xFFFFFFFF
)

// Format A material section

func textureNameLength(v Version) int {
	if v <= Version5006 {
		return NameLength
	}
	return PathLength
}

func hasTwoSided(v Version) bool     { return v > Version5001 }
func hasAdditive(v Version) bool     { return v > Version5003 }
func hasAlphaPercent(v Version) bool { return v > Version5006 }

// Format A mesh

func hasScale(v Version) bool         { return v > Version11 }
func hasPivot(v Version) bool         { return v > Version5002 }
func hasSmoothGroups(v Version) bool  { return v > Version5001 }
func hasNormals(v Version) bool       { return v > Version5004 }
func hasVertexColors(v Version) bool  { return v > Version5004 }
func faceNormalsSize(faces int) int   { return faces * 12 }
func cornerNormalsSize(faces int) int { return faces * 12 * FaceVertexCount }

// per influence group: names, weights, parent indices, weight count, offsets
const (
	influenceParentsSize = 4 * BoneInfluenceCount
	influenceCountSize   = 4
	influenceOffsetsSize = 12 * BoneInfluenceCount
)

// Format B mesh

type vertexLayout int

const (
	// five u16: position, normal, texcoord, reserved0, reserved1
	vertexPacked16 vertexLayout = iota
	// u16 position, u16 normal, u32 reserved1, u16 reserved0, u16 texcoord
	vertexSwapped500E
	// u16 position, u16 normal, u32 texcoord, u16 reserved0, u16 reserved1
	vertexWide
)

func (l vertexLayout) stride() int {
	if l == vertexPacked16 {
		return 10
	}
	return 12
}

type formatBLayout struct {
	headerReserved      int
	matrixReserved      int
	reservedPoolStride  int
	secondPoolMustBeNil bool
	extraTexcoordPool   bool
	groupHeader         bool // grouping table has an 8-byte header and per-group sub-counts
	groupEntrySize      int
	groupLegacySize     int
	blendTables         bool // blend and matrix tables are expected only from 0x500E on
	vertices            vertexLayout
	faceIndexCount      bool // faces counted by index count / 3 instead of the grouping count
	trailerReserved     int
	bindTexcoords       bool
}

func formatBLayoutFor(v Version) formatBLayout {
	l := formatBLayout{
		headerReserved:     8,
		reservedPoolStride: 12,
		groupEntrySize:     10,
		groupLegacySize:    32,
		vertices:           vertexPacked16,
	}

	if v == Version5008 {
		l.headerReserved = 20
	}

	switch {
	case v >= Version500E && v <= Version5010:
		l.matrixReserved = 12
	case v > Version5008:
		l.matrixReserved = 4
	}

	if v > Version500E {
		l.reservedPoolStride = 16
		l.secondPoolMustBeNil = true
	}

	l.extraTexcoordPool = v >= Version500E && v != Version5010
	l.groupHeader = v > Version500A
	l.faceIndexCount = v > Version500A
	l.bindTexcoords = v >= Version500B

	if v >= Version500E {
		l.groupEntrySize = 12
		l.blendTables = true
		l.trailerReserved = 24
	}

	switch {
	case v == Version500E:
		l.vertices = vertexSwapped500E
	case v > Version500E:
		l.vertices = vertexWide
	}

	return l
}
