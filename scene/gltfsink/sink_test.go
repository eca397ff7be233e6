package gltfsink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/scene"
)

func skinnedScene() *elu.Scene {
	body := &elu.Mesh{
		Index: 2, Name: "Body", Kind: elu.MeshGeometry, Parent: -1, MaterialIndex: 0,
		AttachedToSkeleton: true,
		World:              mgl32.Translate3D(0, 0, 1),
		Local:              mgl32.Translate3D(0, 0, 1),
		Positions:          []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:            []mgl32.Vec3{{0, 0, 1}},
		TexCoords:          []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Faces: []elu.Face{
			{Positions: [3]int{0, 1, 2}, Normals: [3]int{0, 0, 0}, TexCoords: [3]int{0, 1, 2}},
		},
		Weights: []elu.WeightGroup{
			{Bone: "ZBip_Root", BoneIndex: -1, Buckets: []elu.WeightBucket{{Weight: 0.25, Vertices: []int{0}}}},
			{Bone: "ZBip_Spine", BoneIndex: -1, Buckets: []elu.WeightBucket{{Weight: 0.75, Vertices: []int{0, 1}}}},
		},
	}
	root := &elu.Mesh{Index: 0, Name: "ZBip_Root", Kind: elu.MeshJointPlaceholder, IsBone: true, Parent: -1,
		MaterialIndex: -1, World: mgl32.Ident4(), Local: mgl32.Ident4(),
		Positions: []mgl32.Vec3{{-1, -1, -1}, {1, 1, 1}}, Edges: [][2]int{{0, 1}}}
	spine := &elu.Mesh{Index: 1, Name: "ZBip_Spine", Kind: elu.MeshEmpty, IsBone: true, Parent: 0,
		MaterialIndex: -1, World: mgl32.Translate3D(0, 0, 2), Local: mgl32.Translate3D(0, 0, 2)}

	return &elu.Scene{
		Name:     "skinned.elu",
		Textures: []*elu.Texture{{Name: "skin", File: "skin.png"}},
		Materials: []*elu.Material{
			{Name: "z_material.000", Texture: 0, Diffuse: mgl32.Vec4{0.5, 0.25, 1, 1}, TwoSided: true, AlphaPercent: 50},
		},
		Meshes: []*elu.Mesh{root, spine, body},
		Skeleton: &elu.Skeleton{
			Joints: []elu.Joint{
				{Name: "ZBip_Root", Mesh: 0, Parent: -1, Tail: mgl32.Vec3{0, 0, 2}},
				{Name: "ZBip_Spine", Mesh: 1, Parent: 0, Head: mgl32.Vec3{0, 0, 2}, Tail: mgl32.Vec3{0, 0.5, 2}},
			},
			Skinned: []int{2},
		},
	}
}

func build(t *testing.T, opts Options) (*Sink, *gltf.Document) {
	sink := New(opts)
	_, err := scene.Materialize(skinnedScene(), sink, scene.Options{BaseDir: "/models"})
	require.NoError(t, err)
	doc, err := sink.Document()
	require.NoError(t, err)
	return sink, doc
}

func nodeByName(doc *gltf.Document, name string) (uint32, *gltf.Node) {
	for i, n := range doc.Nodes {
		if n.Name == name {
			return uint32(i), n
		}
	}
	return 0, nil
}

func TestDocumentStructure(t *testing.T) {
	_, doc := build(t, Options{Exists: func(p string) bool { return p == filepath.FromSlash("/models/skin.png") }})

	require.Len(t, doc.Scenes[0].Nodes, 1)
	root := doc.Nodes[doc.Scenes[0].Nodes[0]]
	assert.Equal(t, "root", root.Name)

	armatureIndex, armature := nodeByName(doc, scene.DefaultSkeletonName)
	require.NotNil(t, armature)
	meshRoot, _ := nodeByName(doc, "ZBip_Root")
	assert.Contains(t, root.Children, armatureIndex)
	assert.Contains(t, root.Children, meshRoot)

	bodyIndex, body := nodeByName(doc, "Body")
	require.NotNil(t, body)
	assert.Contains(t, armature.Children, bodyIndex)

	require.Len(t, doc.Skins, 1)
	assert.Len(t, doc.Skins[0].Joints, 2)
	require.NotNil(t, body.Skin)
	assert.Equal(t, uint32(0), *body.Skin)

	require.Len(t, doc.Meshes, 2, "empty mesh has no geometry")
	prim := doc.Meshes[*body.Mesh].Primitives[0]
	for _, attr := range []string{"POSITION", "NORMAL", "TEXCOORD_0", "JOINTS_0", "WEIGHTS_0"} {
		assert.Contains(t, prim.Attributes, attr)
	}
	assert.Equal(t, uint32(3), doc.Accessors[prim.Attributes["POSITION"]].Count)

	_, placeholder := nodeByName(doc, "ZBip_Root")
	lines := doc.Meshes[*placeholder.Mesh].Primitives[0]
	assert.Equal(t, gltf.PrimitiveLines, lines.Mode)
	assert.Nil(t, lines.Material)

	require.Len(t, doc.Materials, 1)
	mat := doc.Materials[0]
	assert.True(t, mat.DoubleSided)
	assert.Equal(t, gltf.AlphaBlend, mat.AlphaMode)
	assert.Equal(t, [4]float32{0.5, 0.25, 1, 0.5}, *mat.PBRMetallicRoughness.BaseColorFactor)
	require.NotNil(t, mat.PBRMetallicRoughness.BaseColorTexture)
	require.Len(t, doc.Images, 1)
	assert.Equal(t, "/models/skin.png", doc.Images[0].URI)
}

func TestJointTransforms(t *testing.T) {
	_, doc := build(t, Options{})

	spineJoint := doc.Nodes[doc.Skins[0].Joints[1]]
	assert.Equal(t, "ZBip_Spine", spineJoint.Name)
	assert.Equal(t, [3]float32{0, 0, 2}, spineJoint.Translation)
	rootJoint := doc.Nodes[doc.Skins[0].Joints[0]]
	assert.Contains(t, rootJoint.Children, doc.Skins[0].Joints[1])
}

func TestMissingTextureLeavesMaterialUntextured(t *testing.T) {
	_, doc := build(t, Options{Exists: func(string) bool { return false }})
	assert.Empty(t, doc.Images)
	assert.Nil(t, doc.Materials[0].PBRMetallicRoughness.BaseColorTexture)
}

func TestRelativeImageURI(t *testing.T) {
	_, doc := build(t, Options{RelativeTo: "/models", Exists: func(string) bool { return true }})
	require.Len(t, doc.Images, 1)
	assert.Equal(t, "skin.png", doc.Images[0].URI)
}

func TestEmbeddedImage(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "skin.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n"), 0644))

	sink := New(Options{EmbedImages: true})
	_, err := scene.Materialize(skinnedScene(), sink, scene.Options{BaseDir: dir})
	require.NoError(t, err)
	doc, err := sink.Document()
	require.NoError(t, err)

	require.Len(t, doc.Images, 1)
	assert.Empty(t, doc.Images[0].URI)
	assert.NotNil(t, doc.Images[0].BufferView)
	assert.Equal(t, "image/png", doc.Images[0].MimeType)
}

func TestSkinWeightsNormalized(t *testing.T) {
	sink := New(Options{})
	g := &geometry{source: []int{0, 1, 2}}
	sk := &entity{kind: scene.KindSkeleton, joints: []scene.Handle{10, 11}}
	joints, weights := sink.skinAttributes(g, sk, []scene.JointWeights{
		{Joint: 10, Buckets: []elu.WeightBucket{{Weight: 0.25, Vertices: []int{0}}}},
		{Joint: 11, Buckets: []elu.WeightBucket{{Weight: 0.75, Vertices: []int{0, 1}}}},
		{Joint: scene.NoHandle, Buckets: []elu.WeightBucket{{Weight: 1, Vertices: []int{2}}}},
	}, 3)

	assert.Equal(t, [4]uint16{1, 0, 0, 0}, joints[0])
	assert.Equal(t, [4]float32{0.75, 0.25, 0, 0}, weights[0])
	assert.Equal(t, [4]float32{1, 0, 0, 0}, weights[1])
	assert.Equal(t, [4]uint16{1, 0, 0, 0}, joints[1])
	assert.Equal(t, [4]float32{1, 0, 0, 0}, weights[2], "unweighted vertex goes to the first joint")
}

func TestLinkParentTwice(t *testing.T) {
	sink := New(Options{})
	a, err := sink.CreateSkeleton("a")
	require.NoError(t, err)
	b, err := sink.CreateSkeleton("b")
	require.NoError(t, err)
	c, err := sink.CreateSkeleton("c")
	require.NoError(t, err)

	require.NoError(t, sink.LinkParent(a, b))
	assert.Error(t, sink.LinkParent(a, c))
	assert.Error(t, sink.LinkParent(a, scene.Handle(99)))

	h, ok := sink.Lookup(scene.KindSkeleton, "b")
	assert.True(t, ok)
	assert.Equal(t, b, h)
}

func TestWriteBinaryDecodes(t *testing.T) {
	sink, _ := build(t, Options{Exists: func(string) bool { return false }})

	var buf bytes.Buffer
	require.NoError(t, sink.WriteBinary(&buf))

	var doc gltf.Document
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&doc))
	assert.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Skins, 1)
}

func TestClothAndSmoothGroupAttributes(t *testing.T) {
	cape := &elu.Mesh{
		Index: 0, Name: "Cape", Kind: elu.MeshGeometry, Parent: -1, MaterialIndex: -1,
		World: mgl32.Ident4(), Local: mgl32.Ident4(),
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces: []elu.Face{
			{Positions: [3]int{0, 1, 2}, Normals: [3]int{-1, -1, -1}, TexCoords: [3]int{-1, -1, -1}},
		},
		ClothHints: []elu.ClothHint{{Pin: 1, Stiffness: 1}, {Stiffness: 1}, {Stiffness: 0.5}},
	}
	cape.SmoothGroups[2] = []int{0, 1, 2}

	sink := New(Options{})
	_, err := scene.Materialize(&elu.Scene{Name: "cape.elu", Meshes: []*elu.Mesh{cape}}, sink, scene.Options{})
	require.NoError(t, err)
	doc, err := sink.Document()
	require.NoError(t, err)

	require.Len(t, doc.Meshes, 1)
	extras, ok := doc.Meshes[0].Extras.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, extras["cloth"])
	assert.Equal(t, []string{elu.ClothPinGroup, elu.ClothStiffnessGroup, "z_smooth.002"}, extras["vertex_groups"])

	prim := doc.Meshes[0].Primitives[0]
	want := map[string][]float32{
		"_Z_CLOTH_PIN":   {1, 0, 0},
		"_Z_CLOTH_STIFF": {0, 0, 0.5},
		"_Z_SMOOTH_002":  {1, 1, 1},
	}
	for attr, values := range want {
		require.Contains(t, prim.Attributes, attr)
		data, err := modeler.ReadAccessor(doc, doc.Accessors[prim.Attributes[attr]], nil)
		require.NoError(t, err)
		assert.Equal(t, values, data, attr)
	}
	assert.NotContains(t, prim.Attributes, "_Z_CLOTH_COLLISION")
}

func TestGroupAttribute(t *testing.T) {
	assert.Equal(t, "_Z_SMOOTH_031", GroupAttribute("z_smooth.031"))
	assert.Equal(t, "_Z_CLOTH_PIN", GroupAttribute(elu.ClothPinGroup))
}
