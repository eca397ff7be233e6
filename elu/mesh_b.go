package elu

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type indexedVertex struct {
	Position  int
	Normal    int
	TexCoord  int
	Reserved0 int
	Reserved1 int
}

func (d *decoder) readIndexedVertex(layout vertexLayout) (indexedVertex, error) {
	var v indexedVertex
	if err := d.bs.Need(1, layout.stride()); err != nil {
		return v, err
	}

	type field struct {
		dst  *int
		wide bool // u32 instead of u16
	}
	var fields []field
	switch layout {
	case vertexPacked16:
		fields = []field{{&v.Position, false}, {&v.Normal, false}, {&v.TexCoord, false}, {&v.Reserved0, false}, {&v.Reserved1, false}}
	case vertexSwapped500E:
		fields = []field{{&v.Position, false}, {&v.Normal, false}, {&v.Reserved1, true}, {&v.Reserved0, false}, {&v.TexCoord, false}}
	case vertexWide:
		fields = []field{{&v.Position, false}, {&v.Normal, false}, {&v.TexCoord, true}, {&v.Reserved0, false}, {&v.Reserved1, false}}
	}

	for _, f := range fields {
		if f.wide {
			x, err := d.bs.ReadLU32()
			if err != nil {
				return v, err
			}
			*f.dst = int(x)
			continue
		}
		x, err := d.bs.ReadLU16()
		if err != nil {
			return v, err
		}
		*f.dst = int(x)
	}
	return v, nil
}

// readReservedCount reads a count that must be zero for this version.
// A nonzero value means the stream drifted, it is reported and treated as zero.
func (d *decoder) readReservedCount(mustBeZero bool, what string) (int, error) {
	at := d.bs.Pos()
	count, err := d.bs.ReadLU32()
	if err != nil {
		return 0, err
	}
	if mustBeZero && count != 0 {
		d.warn(WarnStructuralAnomaly, at, "%s count %d forced to 0 for version %v", what, count, d.version)
		return 0, nil
	}
	return int(count), nil
}

func (d *decoder) readMeshB(index int) (*Mesh, error) {
	l := formatBLayoutFor(d.version)
	m := newMesh(index, FormatB, d.bs.Pos())

	var err error
	if m.RawName, err = d.readLengthPrefixedName(); err != nil {
		return nil, err
	}
	if m.RawParentName, err = d.readLengthPrefixedName(); err != nil {
		return nil, err
	}
	m.Name, _ = Classify(m.RawName)
	m.ParentName, _ = Classify(m.RawParentName)

	if m.ParentIndex, err = d.bs.ReadLU32(); err != nil {
		return nil, err
	}

	if err := d.bs.Skip(l.headerReserved); err != nil {
		return nil, err
	}
	if m.Local, err = d.bs.ReadMat4(); err != nil {
		return nil, err
	}
	if err := d.bs.Skip(l.matrixReserved); err != nil {
		return nil, err
	}

	if m.Positions, err = d.bs.ReadVec3Array(); err != nil {
		return nil, err
	}
	if m.Normals, err = d.bs.ReadVec3Array(); err != nil {
		return nil, err
	}

	if err := d.skipPool(l.reservedPoolStride); err != nil {
		return nil, err
	}
	second, err := d.readReservedCount(l.secondPoolMustBeNil, "second reserved pool")
	if err != nil {
		return nil, err
	}
	if err := d.bs.SkipN(second, 12); err != nil {
		return nil, err
	}

	uvw, err := d.bs.ReadVec3Array()
	if err != nil {
		return nil, err
	}
	m.TexCoords = make([]mgl32.Vec2, len(uvw))
	for i, t := range uvw {
		m.TexCoords[i] = mgl32.Vec2{t[0], 1 - t[1]}
	}

	if l.extraTexcoordPool {
		if err := d.skipPool(12); err != nil {
			return nil, err
		}
	}

	groupCount, err := d.skipGroups(l)
	if err != nil {
		return nil, err
	}

	if err := d.skipPool(12); err != nil {
		return nil, err
	}
	if err := d.bs.Skip(4); err != nil {
		return nil, err
	}

	if err := d.readBlendVerticesB(m, l); err != nil {
		return nil, err
	}

	matrices, err := d.readReservedCount(!l.blendTables, "bone matrix table")
	if err != nil {
		return nil, err
	}
	if err := d.bs.SkipN(matrices, 64); err != nil {
		return nil, err
	}
	if err := d.bs.SkipN(matrices, 2); err != nil {
		return nil, err
	}

	vertexCount, err := d.bs.ReadCount(l.vertices.stride())
	if err != nil {
		return nil, err
	}
	vertices := make([]indexedVertex, vertexCount)
	for i := range vertices {
		if vertices[i], err = d.readIndexedVertex(l.vertices); err != nil {
			return nil, err
		}
	}

	faceCount := groupCount
	if l.faceIndexCount {
		if err := d.bs.Skip(4); err != nil {
			return nil, err
		}
		indexCount, err := d.bs.ReadLU32()
		if err != nil {
			return nil, err
		}
		faceCount = int(indexCount / FaceVertexCount)
	}

	if err := d.readFacesB(m, l, vertices, faceCount); err != nil {
		return nil, err
	}

	if err := d.skipPool(12); err != nil {
		return nil, err
	}
	if err := d.bs.Skip(l.trailerReserved); err != nil {
		return nil, err
	}

	if len(m.Positions) == 0 || len(m.Faces) == 0 {
		m.makeJointPlaceholder()
	}
	return m, nil
}

// skipPool skips a u32 count of fixed size records.
func (d *decoder) skipPool(stride int) error {
	count, err := d.bs.ReadCount(stride)
	if err != nil {
		return err
	}
	return d.bs.SkipN(count, stride)
}

// skipGroups skips the grouping table and returns its count,
// which is the face count for versions up to 0x500A.
func (d *decoder) skipGroups(l formatBLayout) (int, error) {
	count, err := d.bs.ReadLU32()
	if err != nil {
		return 0, err
	}

	if !l.groupHeader {
		if err := d.bs.SkipN(int(count), l.groupLegacySize); err != nil {
			return 0, err
		}
		return int(count), nil
	}

	if count == 0 {
		return 0, nil
	}
	if err := d.bs.Skip(8); err != nil {
		return 0, err
	}
	for i := uint32(0); i < count; i++ {
		entries, err := d.bs.ReadLU32()
		if err != nil {
			return 0, err
		}
		if err := d.bs.SkipN(int(entries), l.groupEntrySize); err != nil {
			return 0, err
		}
		if err := d.bs.Skip(2); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

func (d *decoder) readBlendVerticesB(m *Mesh, l formatBLayout) error {
	count, err := d.readReservedCount(!l.blendTables, "blend vertex table")
	if err != nil {
		return err
	}

	wg := newWeightGroups(true)
	for i := 0; i < count; i++ {
		influences, err := d.bs.ReadCount(8)
		if err != nil {
			return err
		}
		for j := 0; j < influences; j++ {
			if err := d.bs.Skip(2); err != nil {
				return err
			}
			bone, err := d.bs.ReadLU16()
			if err != nil {
				return err
			}
			weight, err := d.bs.ReadLF()
			if err != nil {
				return err
			}
			if weight > 0 {
				wg.add(strconv.Itoa(int(bone)), int(bone), weight, i)
			}
		}
	}
	m.Weights = wg.result()
	return nil
}

func (d *decoder) readFacesB(m *Mesh, l formatBLayout, vertices []indexedVertex, count int) error {
	if err := d.bs.Need(count, 3*2); err != nil {
		return err
	}

	m.Faces = make([]Face, 0, count)
	for i := 0; i < count; i++ {
		at := d.bs.Pos()

		f := Face{Normals: noIndices(), TexCoords: noIndices()}
		valid := true
		for j := 0; j < FaceVertexCount; j++ {
			vi, err := d.bs.ReadLU16()
			if err != nil {
				return err
			}
			if int(vi) >= len(vertices) {
				return errors.Wrapf(ErrIndexOutOfRange, "face %d at 0x%.8x: vertex %d of %d", i, at, vi, len(vertices))
			}
			v := vertices[vi]

			f.Positions[j] = v.Position
			if v.Position >= len(m.Positions) {
				valid = false
			}
			if len(m.Normals) != 0 {
				f.Normals[j] = v.Normal
				if v.Normal >= len(m.Normals) {
					valid = false
				}
			}
			if l.bindTexcoords && len(m.TexCoords) != 0 {
				f.TexCoords[j] = v.TexCoord
				if v.TexCoord >= len(m.TexCoords) {
					valid = false
				}
			}
		}

		if !valid {
			d.warn(WarnInvalidFace, at, "face %d %+v outside of pools (%d positions, %d normals, %d texcoords)",
				i, f, len(m.Positions), len(m.Normals), len(m.TexCoords))
			continue
		}
		m.Faces = append(m.Faces, f)
	}
	return nil
}
