package gltfsink

import (
	"io"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/utils/gltfutils"
)

// glTF keeps at most four influences per vertex
const maxInfluences = 4

// geometry is a mesh unrolled to one vertex per face corner.
type geometry struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint32
	// unrolled vertex -> source position
	source []int
	mode   gltf.PrimitiveMode
}

func unrollFaces(m *elu.Mesh) *geometry {
	g := &geometry{mode: gltf.PrimitiveTriangles}

	withNormals := len(m.Normals) != 0
	withUVs := len(m.TexCoords) != 0
	for _, f := range m.Faces {
		for k := 0; k < elu.FaceVertexCount; k++ {
			if f.Normals[k] < 0 {
				withNormals = false
			}
			if f.TexCoords[k] < 0 {
				withUVs = false
			}
		}
	}

	for _, f := range m.Faces {
		for k := 0; k < elu.FaceVertexCount; k++ {
			g.indices = append(g.indices, uint32(len(g.positions)))
			g.source = append(g.source, f.Positions[k])
			g.positions = append(g.positions, m.Positions[f.Positions[k]])
			if withNormals {
				g.normals = append(g.normals, m.Normals[f.Normals[k]])
			}
			if withUVs {
				uv := m.TexCoords[f.TexCoords[k]]
				// glTF uv origin is top left
				g.uvs = append(g.uvs, [2]float32{uv[0], 1 - uv[1]})
			}
		}
	}
	return g
}

func placeholderLines(m *elu.Mesh) *geometry {
	g := &geometry{mode: gltf.PrimitiveLines}
	for i, p := range m.Positions {
		g.positions = append(g.positions, p)
		g.source = append(g.source, i)
	}
	for _, e := range m.Edges {
		g.indices = append(g.indices, uint32(e[0]), uint32(e[1]))
	}
	return g
}

// toArmatureSpace bakes the mesh world transform into the vertices.
// Skinned mesh node transforms are ignored by glTF.
func (g *geometry) toArmatureSpace(world mgl32.Mat4) {
	normal := world.Mat3().Inv().Transpose()
	for i, p := range g.positions {
		g.positions[i] = world.Mul4x1(mgl32.Vec3(p).Vec4(1)).Vec3()
	}
	for i, n := range g.normals {
		v := normal.Mul3x1(mgl32.Vec3(n))
		if v.Len() > 0 {
			v = v.Normalize()
		}
		g.normals[i] = v
	}
}

type influence struct {
	joint  uint16
	weight float32
}

// skinAttributes keeps the strongest influences of every source vertex.
// Vertices nobody weights are bound fully to the first joint.
func (s *Sink) skinAttributes(g *geometry, sk *entity, weights []scene.JointWeights, vertexCount int) ([][4]uint16, [][4]float32) {
	jointSlot := make(map[scene.Handle]uint16, len(sk.joints))
	for i, h := range sk.joints {
		jointSlot[h] = uint16(i)
	}

	perVertex := make([][]influence, vertexCount)
	for _, jw := range weights {
		slot, ok := jointSlot[jw.Joint]
		if !ok {
			continue
		}
		for _, b := range jw.Buckets {
			for _, v := range b.Vertices {
				if v >= 0 && v < vertexCount && b.Weight > 0 {
					perVertex[v] = append(perVertex[v], influence{slot, b.Weight})
				}
			}
		}
	}

	joints := make([][4]uint16, len(g.source))
	wts := make([][4]float32, len(g.source))
	for i, src := range g.source {
		inf := perVertex[src]
		if len(inf) == 0 {
			wts[i][0] = 1
			continue
		}
		sort.SliceStable(inf, func(a, b int) bool { return inf[a].weight > inf[b].weight })
		if len(inf) > maxInfluences {
			inf = inf[:maxInfluences]
		}
		var total float32
		for _, x := range inf {
			total += x.weight
		}
		for k, x := range inf {
			joints[i][k] = x.joint
			wts[i][k] = x.weight / total
		}
	}
	return joints, wts
}

// GroupAttribute names the custom attribute carrying a vertex group,
// "z_smooth.003" becomes "_Z_SMOOTH_003".
func GroupAttribute(group string) string {
	return "_" + strings.ToUpper(strings.NewReplacer(".", "_", " ", "_").Replace(group))
}

// groupAttributes writes one float weight per unrolled vertex for every
// cloth and smoothing group and returns the mesh extras listing them.
func (s *Sink) groupAttributes(g *geometry, m *elu.Mesh, attributes map[string]uint32) map[string]interface{} {
	groups := m.VertexGroups()
	extras := make(map[string]interface{})
	if m.HasCloth() {
		extras["cloth"] = true
	}
	if len(groups) == 0 {
		return extras
	}
	names := make([]string, 0, len(groups))
	for i := range groups {
		weights := groups[i].Weights()
		data := make([]float32, len(g.source))
		for k, src := range g.source {
			data[k] = weights[src]
		}
		attributes[GroupAttribute(groups[i].Name)] = modeler.WriteAccessor(s.doc, gltf.TargetArrayBuffer, data)
		names = append(names, groups[i].Name)
	}
	extras["vertex_groups"] = names
	return extras
}

func (s *Sink) writeMesh(e *entity, skins map[scene.Handle]uint32) error {
	var g *geometry
	switch e.mesh.Kind {
	case elu.MeshGeometry:
		if len(e.mesh.Faces) == 0 {
			return nil
		}
		g = unrollFaces(e.mesh)
	case elu.MeshJointPlaceholder:
		g = placeholderLines(e.mesh)
	default:
		return nil
	}

	var skin *entity
	if e.skin != nil {
		if _, ok := skins[e.skin.skeleton]; ok {
			skin = s.entities[e.skin.skeleton]
			g.toArmatureSpace(e.mesh.World)
		}
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(s.doc, g.positions),
	}
	if len(g.normals) != 0 {
		attributes["NORMAL"] = modeler.WriteNormal(s.doc, g.normals)
	}
	if len(g.uvs) != 0 {
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(s.doc, g.uvs)
	}
	if skin != nil {
		joints, weights := s.skinAttributes(g, skin, e.skin.weights, len(e.mesh.Positions))
		attributes["JOINTS_0"] = modeler.WriteJoints(s.doc, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(s.doc, weights)
	}

	var extras map[string]interface{}
	if e.mesh.Kind == elu.MeshGeometry {
		extras = s.groupAttributes(g, e.mesh, attributes)
	}

	indices := modeler.WriteIndices(s.doc, g.indices)
	primitive := &gltf.Primitive{
		Indices:    &indices,
		Attributes: attributes,
		Mode:       g.mode,
	}
	if e.material != scene.NoHandle {
		primitive.Material = gltf.Index(s.entities[e.material].index)
	}

	gm := &gltf.Mesh{
		Name:       e.name,
		Primitives: []*gltf.Primitive{primitive},
	}
	if len(extras) != 0 {
		gm.Extras = extras
	}
	s.doc.Meshes = append(s.doc.Meshes, gm)
	node := s.doc.Nodes[e.index]
	node.Mesh = gltf.Index(uint32(len(s.doc.Meshes) - 1))
	if skin != nil {
		node.Skin = gltf.Index(skins[e.skin.skeleton])
	}
	return nil
}

func (s *Sink) WriteBinary(w io.Writer) error {
	doc, err := s.Document()
	if err != nil {
		return errors.Wrapf(err, "Failed to build document")
	}
	return gltfutils.ExportBinary(w, doc)
}

func (s *Sink) WriteJSON(w io.Writer) error {
	doc, err := s.Document()
	if err != nil {
		return errors.Wrapf(err, "Failed to build document")
	}
	return gltfutils.ExportEmbedded(w, doc)
}
