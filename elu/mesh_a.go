package elu

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zlabs/elu_browser/utils"
)

// source stores rows 1 and 2 of every column swapped
var formatAAxisPerm = [4]int{0, 2, 1, 3}

func (d *decoder) readMatrixA() (mgl32.Mat4, error) {
	var m mgl32.Mat4
	f, err := d.bs.ReadLFs(16)
	if err != nil {
		return m, err
	}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[c*4+r] = f[c*4+formatAAxisPerm[r]]
		}
	}
	return m, nil
}

// readAxisAngleA reads (x, y, z, angle) with y and z swapped.
func (d *decoder) readAxisAngleA() (mgl32.Mat4, error) {
	v, err := d.bs.ReadVec4()
	if err != nil {
		return mgl32.Ident4(), err
	}
	axis := utils.SwapYZ(v.Vec3())
	if axis.Len() == 0 {
		return mgl32.Ident4(), nil
	}
	return mgl32.HomogRotate3D(v[3], axis.Normalize()), nil
}

func (d *decoder) readMeshA(index int) (*Mesh, error) {
	m := newMesh(index, FormatA, d.bs.Pos())

	var err error
	if m.RawName, err = d.readFixedName(NameLength); err != nil {
		return nil, err
	}
	if m.RawParentName, err = d.readFixedName(NameLength); err != nil {
		return nil, err
	}
	m.Name, m.IsBone = Classify(m.RawName)
	m.ParentName, _ = Classify(m.RawParentName)

	if m.World, err = d.readMatrixA(); err != nil {
		return nil, err
	}

	if hasScale(d.version) {
		scale, err := d.bs.ReadVec3()
		if err != nil {
			return nil, err
		}
		m.Scale = utils.SwapYZ(scale)
	}

	if hasPivot(d.version) {
		if m.Rotation, err = d.readAxisAngleA(); err != nil {
			return nil, err
		}
		if m.PivotRotation, err = d.readAxisAngleA(); err != nil {
			return nil, err
		}
		if m.Pivot, err = d.readMatrixA(); err != nil {
			return nil, err
		}
	}

	if m.Positions, err = d.bs.ReadVec3Array(); err != nil {
		return nil, err
	}
	if err := d.readFacesA(m); err != nil {
		return nil, err
	}

	faceCount := len(m.Faces)
	if hasNormals(d.version) {
		// normals are recomputed by consumers
		if err := d.bs.Skip(faceNormalsSize(d.rawFaceCount)); err != nil {
			return nil, err
		}
		if err := d.bs.Skip(cornerNormalsSize(d.rawFaceCount)); err != nil {
			return nil, err
		}
	}

	if hasVertexColors(d.version) {
		colors, err := d.bs.ReadVec3Array()
		if err != nil {
			return nil, err
		}
		m.ClothHints = make([]ClothHint, len(colors))
		for i, c := range colors {
			m.ClothHints[i] = ClothHint{Pin: c[0], Collision: c[1], Stiffness: c[2]}
		}
	}

	materialIndex, err := d.bs.ReadLU32()
	if err != nil {
		return nil, err
	}
	m.MaterialIndex = int(materialIndex)

	if err := d.readInfluencesA(m); err != nil {
		return nil, err
	}

	if len(m.Positions) == 0 || faceCount == 0 {
		m.Kind = MeshEmpty
	}
	return m, nil
}

func (d *decoder) readFacesA(m *Mesh) error {
	stride := 3*4 + FaceVertexCount*12 + 4
	if hasSmoothGroups(d.version) {
		stride += 4
	}
	count, err := d.bs.ReadCount(stride)
	if err != nil {
		return err
	}
	d.rawFaceCount = count

	m.Faces = make([]Face, 0, count)
	m.TexCoords = make([]mgl32.Vec2, 0, count*FaceVertexCount)

	for i := 0; i < count; i++ {
		at := d.bs.Pos()

		var idx [FaceVertexCount]int
		for j := range idx {
			v, err := d.bs.ReadLU32()
			if err != nil {
				return err
			}
			idx[j] = int(v)
		}

		var uvs [FaceVertexCount]mgl32.Vec2
		for j := range uvs {
			uvw, err := d.bs.ReadVec3()
			if err != nil {
				return err
			}
			uvs[j] = mgl32.Vec2{uvw[0], 1 - uvw[1]}
		}

		// per-face material index, binding is per mesh
		if err := d.bs.Skip(4); err != nil {
			return err
		}

		smoothGroup := -1
		if hasSmoothGroups(d.version) {
			sg, err := d.bs.ReadLU32()
			if err != nil {
				return err
			}
			if sg < SmoothGroupCount {
				smoothGroup = int(sg)
			} else {
				d.warn(WarnInvalidSmoothGroup, at, "face %d smooth group %d", i, sg)
			}
		}

		valid := true
		for _, v := range idx {
			if v >= len(m.Positions) {
				valid = false
			}
		}
		if !valid {
			d.warn(WarnInvalidFace, at, "face %d %v outside of %d positions", i, idx, len(m.Positions))
			continue
		}

		if smoothGroup >= 0 {
			m.SmoothGroups[smoothGroup] = append(m.SmoothGroups[smoothGroup], idx[0], idx[1], idx[2])
		}

		// exporter writes faces starting with vertex 0 at the end
		if idx[2] == 0 {
			idx = [FaceVertexCount]int{idx[2], idx[0], idx[1]}
			uvs = [FaceVertexCount]mgl32.Vec2{uvs[2], uvs[0], uvs[1]}
		}

		base := len(m.TexCoords)
		m.TexCoords = append(m.TexCoords, uvs[:]...)
		m.Faces = append(m.Faces, Face{
			Positions: idx,
			Normals:   noIndices(),
			TexCoords: [FaceVertexCount]int{base, base + 1, base + 2},
		})
	}
	return nil
}

func (d *decoder) readInfluencesA(m *Mesh) error {
	stride := BoneInfluenceCount*NameLength + BoneInfluenceCount*4 +
		influenceParentsSize + influenceCountSize + influenceOffsetsSize
	count, err := d.bs.ReadCount(stride)
	if err != nil {
		return err
	}

	wg := newWeightGroups(false)
	for i := 0; i < count; i++ {
		at := d.bs.Pos()

		bones := make([]string, 0, BoneInfluenceCount)
		for j := 0; j < BoneInfluenceCount; j++ {
			raw, err := d.readFixedName(NameLength)
			if err != nil {
				return err
			}
			if name, _ := Classify(raw); name != "" {
				bones = append(bones, name)
			}
		}

		weights, err := d.bs.ReadLFs(BoneInfluenceCount)
		if err != nil {
			return err
		}

		if err := d.bs.Skip(influenceParentsSize + influenceCountSize + influenceOffsetsSize); err != nil {
			return err
		}

		j := 0
		for _, w := range weights {
			if w <= 0 {
				continue
			}
			if j >= len(bones) {
				d.warn(WarnOrphanWeight, at, "vertex %d weight %v has no bone", i, w)
				continue
			}
			wg.add(bones[j], -1, w, i)
			j++
		}
	}
	m.Weights = wg.result()
	return nil
}
