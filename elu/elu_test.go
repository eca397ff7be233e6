package elu

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestHeaderAcceptsSupportedVersions(t *testing.T) {
	require.Len(t, SupportedVersions(), 16)
	for _, v := range SupportedVersions() {
		var w eluWriter
		w.header(v, 0, 0)
		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)
		assert.Equal(t, v, s.Version)
		assert.Empty(t, s.Meshes)
		assert.Nil(t, s.Skeleton)
	}
}

func TestHeaderRejectsUnsupportedVersions(t *testing.T) {
	candidates := []uint32{0, 1, 0x10, 0x12, 0x5000, 0x5009, 0x500D, 0x5012, 0x6000, 0xFFFFFFFF}
	for v := uint32(0x4FF0); v < 0x5020; v++ {
		candidates = append(candidates, v)
	}
	for _, v := range candidates {
		if Version(v).IsSupported() {
			continue
		}
		var w eluWriter
		w.header(Version(v), 0, 0)
		_, err := Decode(w.Bytes(), nil)
		assert.True(t, errors.Is(err, ErrUnsupportedVersion), "version 0x%x: %v", v, err)
	}
}

func TestHeaderBadMagic(t *testing.T) {
	versions := append(SupportedVersions(), 0x1234)
	for _, v := range versions {
		var w eluWriter
		w.u32(0x0107F061, uint32(v), 0, 0)
		_, err := Decode(w.Bytes(), nil)
		assert.True(t, errors.Is(err, ErrBadMagic), "version %v: %v", v, err)
	}
}

func TestTruncatedInput(t *testing.T) {
	var w eluWriter
	w.header(Version5007, 0, 1)
	w.meshA(Version5007, meshA{name: "Box01", world: identity})
	full := w.Bytes()

	for _, cut := range []int{2, 6, 12, 20, len(full) - 1} {
		_, err := Decode(full[:cut], nil)
		assert.True(t, errors.Is(err, ErrTruncatedInput), "cut %d: %v", cut, err)
	}
}

func thighMesh() meshA {
	return meshA{
		name:      "Bip01 L Thigh",
		parent:    "",
		world:     identity,
		positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		faces: []faceA{{
			idx: [3]uint32{1, 2, 0},
			uv:  [3][2]float32{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}},
		}},
	}
}

func TestFormatAFaceRotationAndName(t *testing.T) {
	for _, v := range []Version{Version11, Version5001, Version5003, Version5005, Version5007} {
		var w eluWriter
		w.header(v, 0, 1)
		w.meshA(v, thighMesh())

		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)
		require.Len(t, s.Meshes, 1)

		m := s.Meshes[0]
		assert.Equal(t, "ZBip_Thigh.L", m.Name)
		assert.Equal(t, "Bip01 L Thigh", m.RawName)
		assert.True(t, m.IsBone)
		assert.Equal(t, MeshGeometry, m.Kind)
		require.Len(t, m.Faces, 1)

		f := m.Faces[0]
		assert.Equal(t, [3]int{0, 1, 2}, f.Positions)
		assert.Equal(t, [3]int{-1, -1, -1}, f.Normals)

		uv := func(i int) mgl32.Vec2 { return m.TexCoords[f.TexCoords[i]] }
		assert.InDelta(t, 0.5, uv(0)[0], 1e-6)
		assert.InDelta(t, 0.4, uv(0)[1], 1e-6)
		assert.InDelta(t, 0.1, uv(1)[0], 1e-6)
		assert.InDelta(t, 0.8, uv(1)[1], 1e-6)
		assert.InDelta(t, 0.3, uv(2)[0], 1e-6)
		assert.InDelta(t, 0.6, uv(2)[1], 1e-6)
		assert.Empty(t, s.Warnings)
	}
}

func TestFormatAFaceWithoutZeroKeepsOrder(t *testing.T) {
	m := thighMesh()
	m.faces[0].idx = [3]uint32{0, 2, 1}

	var w eluWriter
	w.header(Version5005, 0, 1)
	w.meshA(Version5005, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, [3]int{0, 2, 1}, s.Meshes[0].Faces[0].Positions)
}

func TestFormatAWorldMatrixAxisSwap(t *testing.T) {
	m := thighMesh()
	m.name = "Box01"
	m.world = [16]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}

	var w eluWriter
	w.header(Version5007, 0, 1)
	w.meshA(Version5007, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	world := s.Meshes[0].World
	assert.Equal(t, mgl32.Vec4{1, 3, 2, 4}, world.Col(0))
	assert.Equal(t, mgl32.Vec4{13, 15, 14, 16}, world.Col(3))
	assert.Equal(t, world, s.Meshes[0].Local)
	assert.Equal(t, mgl32.Vec3{13, 15, 14}, s.Meshes[0].WorldTranslation())
}

func TestFormatASmoothGroupsAndCloth(t *testing.T) {
	m := thighMesh()
	m.faces[0].smooth = 3
	m.colors = [][3]float32{{1, 0, 1}, {0, 1, 0.25}, {0, 0, 0.25}}

	var w eluWriter
	w.header(Version5005, 0, 1)
	w.meshA(Version5005, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	mesh := s.Meshes[0]
	assert.Equal(t, []int{1, 2, 0}, mesh.SmoothGroups[3])
	require.Len(t, mesh.ClothHints, 3)

	cloth := mesh.Cloth()
	assert.Equal(t, []int{0}, cloth.Pinned)
	assert.Equal(t, []int{1}, cloth.Colliding)
	require.Len(t, cloth.Stiffness, 1)
	assert.Equal(t, float32(0.75), cloth.Stiffness[0].Weight)
	assert.Equal(t, []int{1, 2}, cloth.Stiffness[0].Vertices)
}

func TestMeshVertexGroups(t *testing.T) {
	m := thighMesh()
	m.faces[0].smooth = 3
	m.colors = [][3]float32{{1, 0, 1}, {0, 1, 0.25}, {0, 0, 0.25}}

	var w eluWriter
	w.header(Version5005, 0, 1)
	w.meshA(Version5005, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	mesh := s.Meshes[0]
	assert.True(t, mesh.HasCloth())
	groups := mesh.VertexGroups()
	require.Len(t, groups, 4)
	assert.Equal(t, ClothPinGroup, groups[0].Name)
	assert.Equal(t, ClothCollisionGroup, groups[1].Name)
	assert.Equal(t, ClothStiffnessGroup, groups[2].Name)
	assert.Equal(t, "z_smooth.003", groups[3].Name)
	assert.Equal(t, map[int]float32{0: 1}, groups[0].Weights())
	assert.Equal(t, map[int]float32{1: 0.75, 2: 0.75}, groups[2].Weights())
	assert.Equal(t, map[int]float32{0: 1, 1: 1, 2: 1}, groups[3].Weights())

	plain := &Mesh{}
	assert.False(t, plain.HasCloth())
	assert.Empty(t, plain.VertexGroups())
}

func TestFormatAInvalidSmoothGroupAndFace(t *testing.T) {
	m := thighMesh()
	m.faces[0].smooth = 40
	m.faces = append(m.faces, faceA{idx: [3]uint32{0, 1, 7}})

	var w eluWriter
	w.header(Version5005, 0, 1)
	w.meshA(Version5005, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	mesh := s.Meshes[0]
	assert.Len(t, mesh.Faces, 1)
	require.Len(t, s.Warnings, 2)
	assert.Equal(t, WarnInvalidSmoothGroup, s.Warnings[0].Kind)
	assert.Equal(t, WarnInvalidFace, s.Warnings[1].Kind)
	assert.Equal(t, 0, s.Warnings[1].Mesh)
}

func TestFormatAInfluences(t *testing.T) {
	m := thighMesh()
	m.name = "Body"
	m.influences = []influenceA{
		{bones: [4]string{"Bip01 Spine", "", "Bip01 L Thigh"}, weights: [4]float32{0.5, 0.5, 0, 0}},
		{bones: [4]string{"Bip01 Spine"}, weights: [4]float32{0.5, 0, 0, 0}},
		{bones: [4]string{"Bip01 Spine"}, weights: [4]float32{1, 0.2, 0, 0}},
	}

	var w eluWriter
	w.header(Version5007, 0, 1)
	w.meshA(Version5007, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	mesh := s.Meshes[0]
	assert.False(t, mesh.IsBone)
	require.Len(t, mesh.Weights, 2)

	spine, ok := mesh.WeightGroup("ZBip_Spine")
	require.True(t, ok)
	assert.Equal(t, -1, spine.BoneIndex)
	assert.Equal(t, []WeightBucket{
		{Weight: 0.5, Vertices: []int{0, 1}},
		{Weight: 1, Vertices: []int{2}},
	}, spine.Buckets)

	thigh, ok := mesh.WeightGroup("ZBip_Thigh.L")
	require.True(t, ok)
	assert.Equal(t, []WeightBucket{{Weight: 0.5, Vertices: []int{0}}}, thigh.Buckets)

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnOrphanWeight, s.Warnings[0].Kind)
}

func TestFormatAEmptyMesh(t *testing.T) {
	var w eluWriter
	w.header(Version5004, 0, 2)
	w.meshA(Version5004, meshA{name: "Bip01", world: translation(1, 2, 3)})
	child := thighMesh()
	child.name = "Box01"
	child.parent = "Bip01"
	w.meshA(Version5004, child)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, s.Meshes, 2)

	root := s.Meshes[0]
	assert.Equal(t, MeshEmpty, root.Kind)
	assert.True(t, root.IsBone)
	assert.Equal(t, []int{1}, root.Children)
	assert.Equal(t, 0, s.Meshes[1].Parent)

	// empties keep their slot but are not joints
	assert.Nil(t, s.Skeleton)
}

func TestFormatAParentByName(t *testing.T) {
	var w eluWriter
	w.header(Version5007, 0, 3)

	root := thighMesh()
	root.name = "Bip01 Pelvis"
	root.world = translation(0, 0, 5)
	w.meshA(Version5007, root)

	child := thighMesh()
	child.parent = "Bip01 Pelvis"
	child.world = translation(0, 0, 7)
	w.meshA(Version5007, child)

	orphan := thighMesh()
	orphan.name = "Box01"
	orphan.parent = "Missing"
	w.meshA(Version5007, orphan)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	assert.Equal(t, -1, s.Meshes[0].Parent)
	assert.Equal(t, 0, s.Meshes[1].Parent)
	assert.Equal(t, -1, s.Meshes[2].Parent)
	assert.Equal(t, []int{1}, s.Meshes[0].Children)

	// worlds carry the row swap, the local offset is back in stored axes
	assert.Equal(t, mgl32.Vec3{0, 7, 0}, s.Meshes[1].WorldTranslation())
	assert.Equal(t, mgl32.Vec3{0, 0, 2}, s.Meshes[1].Local.Col(3).Vec3())

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnUnresolvedParent, s.Warnings[0].Kind)
	assert.Equal(t, 2, s.Warnings[0].Mesh)

	require.NotNil(t, s.Skeleton)
	assert.Equal(t, "ZBip_Pelvis", s.Skeleton.Joints[0].Name)
	assert.Equal(t, "ZBip_Thigh.L", s.Skeleton.Joints[1].Name)
	assert.Equal(t, []int{2}, s.Skeleton.Skinned)
	assert.True(t, s.Meshes[2].AttachedToSkeleton)
}

func TestFormatBBlendWeights(t *testing.T) {
	m := triangleB("Body", NoParentIndex, identity)
	m.blend = [][]influenceB{
		{{bone: 3, weight: 0}},
		{{bone: 4, weight: 0}, {bone: 5, weight: 0.6}},
		{{bone: 5, weight: 0.6}, {bone: 5, weight: 0.6}},
	}

	for _, v := range []Version{Version500E, Version500F, Version5010, Version5011} {
		var w eluWriter
		w.header(v, 0, 1)
		w.meshB(v, m)

		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)

		mesh := s.Meshes[0]
		assert.Equal(t, []WeightGroup{{
			Bone:      "5",
			BoneIndex: 5,
			Buckets:   []WeightBucket{{Weight: 0.6, Vertices: []int{1, 2}}},
		}}, mesh.Weights, "version %v", v)
		assert.Empty(t, s.Warnings)
	}
}

func TestFormatBBlendTableAnomaly(t *testing.T) {
	m := triangleB("Body", NoParentIndex, identity)
	m.blend = [][]influenceB{{{bone: 1, weight: 1}}}

	var w eluWriter
	w.header(Version500C, 0, 1)
	w.meshB(Version500C, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	assert.Empty(t, s.Meshes[0].Weights)
	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnStructuralAnomaly, s.Warnings[0].Kind)
}

func TestFormatBSecondReservedAnomaly(t *testing.T) {
	m := triangleB("Body", NoParentIndex, identity)
	m.secondReserved = 5

	for _, v := range []Version{Version500F, Version5010, Version5011} {
		var w eluWriter
		w.header(v, 0, 1)
		w.meshB(v, m)

		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)

		mesh := s.Meshes[0]
		assert.Equal(t, MeshGeometry, mesh.Kind)
		assert.Len(t, mesh.TexCoords, 3)
		assert.Len(t, mesh.Faces, 1)
		require.Len(t, s.Warnings, 1)
		assert.Equal(t, WarnStructuralAnomaly, s.Warnings[0].Kind)
	}
}

func TestFormatBSecondReservedReadBeforeAnomalyRange(t *testing.T) {
	m := triangleB("Body", NoParentIndex, identity)
	m.secondReserved = 2

	var w eluWriter
	w.header(Version500E, 0, 1)
	w.meshB(Version500E, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	assert.Len(t, s.Meshes[0].Faces, 1)
	assert.Empty(t, s.Warnings)
}

func TestFormatBAllVersions(t *testing.T) {
	for _, v := range SupportedVersions() {
		if v.Format() != FormatB {
			continue
		}
		m := triangleB("Box01", NoParentIndex, translation(1, 2, 3))
		m.reserved = 2
		m.vertices[1][2] = 2
		m.vertices[2][2] = 1

		var w eluWriter
		w.header(v, 0, 1)
		w.meshB(v, m)

		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)
		require.Len(t, s.Meshes, 1)

		mesh := s.Meshes[0]
		assert.Equal(t, MeshGeometry, mesh.Kind, "version %v", v)
		assert.False(t, mesh.IsBone)
		require.Len(t, mesh.Faces, 1, "version %v", v)

		f := mesh.Faces[0]
		assert.Equal(t, [3]int{0, 1, 2}, f.Positions)
		assert.Equal(t, [3]int{0, 0, 0}, f.Normals)
		if v >= Version500B {
			assert.Equal(t, [3]int{0, 2, 1}, f.TexCoords, "version %v", v)
		} else {
			assert.Equal(t, [3]int{-1, -1, -1}, f.TexCoords, "version %v", v)
		}
		assert.Equal(t, mgl32.Vec2{1, 1}, mesh.TexCoords[1])
		assert.Equal(t, mgl32.Vec3{1, 2, 3}, mesh.WorldTranslation())
		assert.Empty(t, s.Warnings)
	}
}

func TestFormatBGroupsAndPools(t *testing.T) {
	for _, v := range SupportedVersions() {
		if v.Format() != FormatB {
			continue
		}
		m := triangleB("Box01", NoParentIndex, translation(1, 2, 3))
		m.groups = []uint32{2, 0, 3}
		m.extraTexcoords = 2
		m.pool = 3
		m.trailing = 2

		var w eluWriter
		w.header(v, 0, 2)
		w.meshB(v, m)
		// misaligned skips would garble the next mesh
		w.meshB(v, triangleB("Box02", 0, translation(0, 0, 1)))

		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)
		require.Len(t, s.Meshes, 2, "version %v", v)

		for i, name := range []string{"Box01", "Box02"} {
			mesh := s.Meshes[i]
			assert.Equal(t, name, mesh.Name, "version %v", v)
			assert.Equal(t, MeshGeometry, mesh.Kind, "version %v", v)
			require.Len(t, mesh.Faces, 1, "version %v", v)
			assert.Equal(t, [3]int{0, 1, 2}, mesh.Faces[0].Positions)
		}
		assert.Equal(t, 0, s.Meshes[1].Parent, "version %v", v)
		assert.Equal(t, mgl32.Vec3{1, 2, 4}, s.Meshes[1].WorldTranslation(), "version %v", v)
		assert.Empty(t, s.Warnings, "version %v", v)
	}
}

func TestFormatBGroupEntrySize(t *testing.T) {
	// one group of four entries, 40 bytes before 0x500E and 48 from it on
	for v, size := range map[Version]int{Version500B: 40, Version500C: 40, Version500E: 48, Version5011: 48} {
		m := triangleB("Box01", NoParentIndex, identity)
		m.groups = []uint32{4}

		var with, without eluWriter
		with.meshB(v, m)
		m.groups = nil
		without.meshB(v, m)

		// u32 entries, the 8 byte header and the 2 byte trailer
		assert.Equal(t, size+4+8+2, with.Len()-without.Len(), "version %v", v)

		var w eluWriter
		w.header(v, 0, 1)
		m.groups = []uint32{4}
		w.meshB(v, m)
		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)
		require.Len(t, s.Meshes[0].Faces, 1, "version %v", v)
	}
}

func TestFormatBPlaceholder(t *testing.T) {
	noFaces := triangleB("Bone", NoParentIndex, identity)
	noFaces.faces = nil

	for _, v := range []Version{Version5008, Version500B, Version500E, Version5011} {
		var w eluWriter
		w.header(v, 0, 2)
		w.meshB(v, jointB("Bip01", NoParentIndex, identity))
		w.meshB(v, noFaces)

		s, err := Decode(w.Bytes(), nil)
		require.NoError(t, err, "version %v", v)

		for _, m := range s.Meshes {
			assert.Equal(t, MeshJointPlaceholder, m.Kind)
			assert.True(t, m.IsBone)
			assert.Len(t, m.Positions, 8)
			assert.Len(t, m.Edges, 12)
			assert.Empty(t, m.Faces)
		}
	}
}

func TestFormatBParentByIndex(t *testing.T) {
	v := Version5011
	var w eluWriter
	w.header(v, 0, 3)
	w.meshB(v, triangleB("first", NoParentIndex, translation(1, 0, 0)))
	w.meshB(v, triangleB("second", 0, translation(0, 1, 0)))
	w.meshB(v, triangleB("third", 7, identity))

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, s.Meshes, 3)

	assert.Equal(t, "first", s.Meshes[0].Name)
	assert.Equal(t, "second", s.Meshes[1].Name)
	assert.Equal(t, "third", s.Meshes[2].Name)

	assert.Equal(t, -1, s.Meshes[0].Parent)
	assert.Equal(t, 0, s.Meshes[1].Parent)
	assert.Equal(t, -1, s.Meshes[2].Parent)
	assert.Equal(t, []int{1}, s.Meshes[0].Children)
	assert.Equal(t, []int{0, 2}, s.Roots())

	assert.Equal(t, mgl32.Vec3{1, 1, 0}, s.Meshes[1].WorldTranslation())

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnUnresolvedParent, s.Warnings[0].Kind)
}

func TestFormatBIndexOutOfRange(t *testing.T) {
	m := triangleB("Body", NoParentIndex, identity)
	m.faces = [][3]uint16{{0, 1, 9}}

	var w eluWriter
	w.header(Version5011, 0, 1)
	w.meshB(Version5011, m)

	s, err := Decode(w.Bytes(), nil)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange), "%v", err)
}

func TestFormatBInvalidFaceDropped(t *testing.T) {
	m := triangleB("Body", NoParentIndex, identity)
	m.vertices = append(m.vertices, [5]uint32{42, 0, 0, 0, 0})
	m.faces = append(m.faces, [3]uint16{0, 1, 3})

	var w eluWriter
	w.header(Version5011, 0, 1)
	w.meshB(Version5011, m)

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	assert.Len(t, s.Meshes[0].Faces, 1)
	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnInvalidFace, s.Warnings[0].Kind)
}

func TestSkeletonFormatB(t *testing.T) {
	v := Version5011
	var w eluWriter
	w.header(v, 0, 5)
	w.meshB(v, jointB("Bip01", NoParentIndex, translation(0, 0, 1)))
	w.meshB(v, jointB("Bip01 Spine", 0, translation(0, 0, 2)))
	w.meshB(v, jointB("Bip01 L Thigh", 1, translation(1, 0, 0)))
	w.meshB(v, jointB("Bip01 R Thigh", 1, translation(-1, 0, 0)))
	w.meshB(v, triangleB("Body", NoParentIndex, identity))

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)

	sk := s.Skeleton
	require.NotNil(t, sk)
	require.Len(t, sk.Joints, 4)

	names := []string{}
	for _, j := range sk.Joints {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"0", "1", "2", "3"}, names)

	root, spine := sk.Joints[0], sk.Joints[1]
	assert.Equal(t, -1, root.Parent)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, root.Head)
	// single bone child, tail snaps to it
	assert.Equal(t, spine.Head, root.Tail)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, spine.Head)
	// two bone children keep the synthetic tail
	assert.Equal(t, mgl32.Vec3{0, 0.5, 3}, spine.Tail)
	assert.Equal(t, []int{2, 3}, spine.Children)
	assert.Equal(t, mgl32.Vec3{1, 0, 3}, sk.Joints[2].Head)

	assert.Equal(t, []int{0}, sk.Roots())
	assert.Equal(t, []int{4}, sk.Skinned)
	assert.True(t, s.Meshes[4].AttachedToSkeleton)

	j, ok := sk.JointOf(2)
	assert.True(t, ok)
	assert.Equal(t, 2, j)
	_, ok = sk.JointOf(4)
	assert.False(t, ok)
}

func TestSkeletonBoneTailOption(t *testing.T) {
	v := Version5008
	var w eluWriter
	w.header(v, 0, 1)
	w.meshB(v, jointB("Bip01", NoParentIndex, translation(0, 0, 1)))

	s, err := Decode(w.Bytes(), &Options{BoneTail: mgl32.Vec3{0, 0, 2}})
	require.NoError(t, err)
	require.NotNil(t, s.Skeleton)
	assert.Equal(t, "ZBip_Root", s.Skeleton.Joints[0].Name)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, s.Skeleton.Joints[0].Tail)
}

func TestDuplicateMeshNames(t *testing.T) {
	v := Version5011
	var w eluWriter
	w.header(v, 0, 2)
	w.meshB(v, triangleB("Box", NoParentIndex, identity))
	w.meshB(v, triangleB("Box", NoParentIndex, identity))

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnDuplicateName, s.Warnings[0].Kind)

	m, ok := s.Mesh("Box")
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestMalformedNameEncoding(t *testing.T) {
	m := thighMesh()
	m.name = "Caf\xe9"

	var w eluWriter
	w.header(Version5007, 0, 1)
	w.meshA(Version5007, m)

	_, err := Decode(w.Bytes(), nil)
	assert.True(t, errors.Is(err, ErrMalformedNameEncoding), "%v", err)

	s, err := Decode(w.Bytes(), &Options{Encoding: charmap.Windows1252})
	require.NoError(t, err)
	assert.Equal(t, "Café", s.Meshes[0].Name)
}

func TestFormatBIgnoresMaterialCount(t *testing.T) {
	v := Version5011
	var w eluWriter
	w.header(v, 3, 1)
	w.meshB(v, triangleB("Box", NoParentIndex, identity))

	s, err := Decode(w.Bytes(), nil)
	require.NoError(t, err)
	assert.Empty(t, s.Materials)
	assert.Len(t, s.Meshes, 1)
}

func TestWarningKindText(t *testing.T) {
	for k := WarnStructuralAnomaly; k <= WarnDuplicateName; k++ {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var back WarningKind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
	var k WarningKind
	assert.Error(t, k.UnmarshalText([]byte("nope")))
}

func TestDecodeFileAndReader(t *testing.T) {
	var w eluWriter
	w.header(Version5011, 0, 1)
	w.meshB(Version5011, triangleB("Box01", NoParentIndex, identity))

	path := filepath.Join(t.TempDir(), "box.elu")
	require.NoError(t, os.WriteFile(path, w.Bytes(), 0644))

	s, err := DecodeFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "box.elu", s.Name)
	require.Len(t, s.Meshes, 1)

	s, err = DecodeReader(bytes.NewReader(w.Bytes()), &Options{Name: "stream"})
	require.NoError(t, err)
	assert.Equal(t, "stream", s.Name)
	assert.Equal(t, "Box01", s.Meshes[0].Name)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.elu"), nil)
	assert.Error(t, err)
}
