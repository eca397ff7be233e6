package fbxsink

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/utils/fbxbuilder"
)

func layerElement(layer *fbx.Node, typ string) {
	layer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type(typ),
			bfbx73.TypedIndex(0),
		),
	)
}

// meshGeometry keeps positions as control points. Normals and uvs are
// mapped per polygon vertex, the pools are indexed independently.
func meshGeometry(id int64, m *elu.Mesh, withMaterial bool) *fbx.Node {
	vertices := make([]float64, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
	}

	haveNorm := len(m.Normals) != 0
	haveUV := len(m.TexCoords) != 0
	for _, f := range m.Faces {
		for k := 0; k < elu.FaceVertexCount; k++ {
			haveNorm = haveNorm && f.Normals[k] >= 0
			haveUV = haveUV && f.TexCoords[k] >= 0
		}
	}

	indexes := make([]int32, 0, len(m.Faces)*elu.FaceVertexCount)
	uvindexes := make([]int32, 0, len(m.Faces)*elu.FaceVertexCount)
	normals := make([]float64, 0)
	for _, f := range m.Faces {
		// last polygon vertex is stored as -(i)-1
		indexes = append(indexes,
			int32(f.Positions[0]), int32(f.Positions[1]), -int32(f.Positions[2])-1)
		for k := 0; k < elu.FaceVertexCount; k++ {
			if haveNorm {
				n := m.Normals[f.Normals[k]]
				normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
			}
			if haveUV {
				uvindexes = append(uvindexes, int32(f.TexCoords[k]))
			}
		}
	}

	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometry := bfbx73.Geometry(id, m.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
	)

	if haveNorm {
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		layerElement(geometryLayer, "LayerElementNormal")
	}

	if haveUV {
		uv := make([]float64, 0, len(m.TexCoords)*2)
		for _, t := range m.TexCoords {
			uv = append(uv, float64(t[0]), float64(t[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		layerElement(geometryLayer, "LayerElementUV")
	}

	if withMaterial {
		geometry.AddNode(
			bfbx73.LayerElementMaterial(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("AllSame"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.Materials([]int32{0}),
			),
		)
		layerElement(geometryLayer, "LayerElementMaterial")
	}

	geometry.AddNode(geometryLayer)
	return geometry
}

func matrixArray(m mgl32.Mat4) []float64 {
	r := make([]float64, 16)
	for i, v := range m {
		r[i] = float64(v)
	}
	return r
}

// writeSkin adds a skin deformer with one cluster per joint that weights
// at least one control point.
func (s *Sink) writeSkin(e *entity) {
	skinId := s.f.GenerateId()
	s.f.AddObjects(
		fbxbuilder.RawNode("Deformer", skinId, e.name+"\x00\x01Deformer", "Skin").AddNodes(
			bfbx73.Version(101),
			fbxbuilder.RawNode("Link_DeformAcuracy", float64(50)),
		),
	)
	s.f.AddConnections(bfbx73.C("OO", skinId, e.geometryId))

	for _, jw := range e.skin {
		if jw.Joint == scene.NoHandle {
			continue
		}
		joint := s.entities[jw.Joint]

		var indexes []int32
		var weights []float64
		for _, b := range jw.Buckets {
			for _, v := range b.Vertices {
				if v >= 0 && v < len(e.mesh.Positions) {
					indexes = append(indexes, int32(v))
					weights = append(weights, float64(b.Weight))
				}
			}
		}
		if len(indexes) == 0 {
			continue
		}

		clusterId := s.f.GenerateId()
		s.f.AddObjects(
			fbxbuilder.RawNode("Deformer", clusterId, joint.name+"\x00\x01SubDeformer", "Cluster").AddNodes(
				bfbx73.Version(100),
				fbxbuilder.RawNode("UserData", "", ""),
				fbxbuilder.RawNode("Indexes", indexes),
				fbxbuilder.RawNode("Weights", weights),
				fbxbuilder.RawNode("Transform", matrixArray(joint.world.Inv().Mul4(e.mesh.World))),
				fbxbuilder.RawNode("TransformLink", matrixArray(joint.world)),
			),
		)
		s.f.AddConnections(
			bfbx73.C("OO", clusterId, skinId),
			bfbx73.C("OO", joint.id, clusterId),
		)
	}
}
