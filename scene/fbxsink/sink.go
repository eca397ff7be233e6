package fbxsink

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/utils"
	"github.com/zlabs/elu_browser/utils/fbxbuilder"
)

type Options struct {
	// document url stored in the header
	FileName string
	// defaults to reading the file from disk
	ReadFile func(path string) ([]byte, error)
	Logger   *zap.Logger
}

type entity struct {
	kind scene.Kind
	name string
	id   int64

	mesh       *elu.Mesh
	geometryId int64
	skin       []scene.JointWeights

	head  mgl32.Vec3
	world mgl32.Mat4
}

// Sink builds a binary fbx 7.4 document. Texture files are carried
// next to it by WriteZip.
type Sink struct {
	opts Options
	log  *zap.Logger
	f    *fbxbuilder.FBXBuilder

	entities []*entity
	parented map[int64]bool
	done     bool
}

var _ scene.Sink = (*Sink)(nil)

func New(opts Options) *Sink {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		opts:     opts,
		log:      log,
		f:        fbxbuilder.NewFBXBuilder(opts.FileName),
		parented: make(map[int64]bool),
	}
}

func (s *Sink) Builder() *fbxbuilder.FBXBuilder { return s.f }

func cacheKey(kind scene.Kind, name string) string {
	return kind.String() + ":" + name
}

func (s *Sink) add(e *entity) scene.Handle {
	h := scene.Handle(len(s.entities))
	s.entities = append(s.entities, e)
	s.f.AddCache(cacheKey(e.kind, e.name), h)
	return h
}

func (s *Sink) entity(h scene.Handle, kinds ...scene.Kind) (*entity, error) {
	if h < 0 || int(h) >= len(s.entities) {
		return nil, errors.Errorf("Unknown handle %d", h)
	}
	e := s.entities[h]
	for _, k := range kinds {
		if e.kind == k {
			return e, nil
		}
	}
	return nil, errors.Errorf("Handle %d is a %v, not %v", h, e.kind, kinds)
}

func (s *Sink) Lookup(kind scene.Kind, name string) (scene.Handle, bool) {
	if v, ok := s.f.GetCached(cacheKey(kind, name)); ok {
		return v.(scene.Handle), true
	}
	return scene.NoHandle, false
}

func (s *Sink) ResolveTexture(name string, candidates []string) (scene.Handle, bool) {
	for _, path := range candidates {
		data, err := s.opts.ReadFile(path)
		if err != nil {
			continue
		}

		fileName := filepath.Base(path)
		s.f.AddExportFile(fileName, data)

		videoId := s.f.GenerateId()
		video := fbxbuilder.RawNode("Video", videoId, name+"\x00\x01Video", "Clip").AddNodes(
			fbxbuilder.RawNode("Type", "Clip"),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("Path", "KString", "XRefUrl", "", fileName),
			),
			fbxbuilder.RawNode("UseMipMap", int32(0)),
			fbxbuilder.RawNode("Filename", fileName),
			fbxbuilder.RawNode("RelativeFilename", fileName),
		)

		textureId := s.f.GenerateId()
		texture := fbxbuilder.RawNode("Texture", textureId, name+"\x00\x01Texture", "").AddNodes(
			bfbx73.Type("TextureVideoClip"),
			bfbx73.Version(202),
			fbxbuilder.RawNode("TextureName", name+"\x00\x01Texture"),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("UseMaterial", "bool", "", "", int32(1)),
			),
			fbxbuilder.RawNode("Media", name+"\x00\x01Video"),
			fbxbuilder.RawNode("FileName", fileName),
			fbxbuilder.RawNode("RelativeFilename", fileName),
		)

		s.f.AddObjects(video, texture)
		s.f.AddConnections(bfbx73.C("OO", videoId, textureId))
		return s.add(&entity{kind: scene.KindTexture, name: name, id: textureId}), true
	}
	return scene.NoHandle, false
}

func (s *Sink) CreateMaterial(name string, mat *elu.Material, image scene.Handle) (scene.Handle, error) {
	diffuse := mgl32.Vec4{1, 1, 1, 1}
	ambient := mgl32.Vec4{}
	specular := mgl32.Vec4{}
	var shininess float32
	if mat != nil {
		diffuse, ambient, specular = mat.Diffuse, mat.Ambient, mat.Specular
		shininess = mat.SpecularPower
		diffuse[3] = 1
		if mat.AlphaPercent > 0 && mat.AlphaPercent < 100 {
			diffuse[3] = float32(mat.AlphaPercent) / 100
		}
	}

	id := s.f.GenerateId()
	material := bfbx73.Material(id, name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("phong"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(ambient[0]), float64(ambient[1]), float64(ambient[2])),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(diffuse[0]), float64(diffuse[1]), float64(diffuse[2])),
			bfbx73.P("SpecularColor", "Color", "", "A", float64(specular[0]), float64(specular[1]), float64(specular[2])),
			bfbx73.P("Shininess", "double", "Number", "", float64(shininess)),
			bfbx73.P("Ambient", "Vector3D", "Vector", "", float64(ambient[0]), float64(ambient[1]), float64(ambient[2])),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(diffuse[0]), float64(diffuse[1]), float64(diffuse[2])),
			bfbx73.P("Opacity", "double", "Number", "", float64(diffuse[3])),
		),
	)
	s.f.AddObjects(material)

	if image != scene.NoHandle {
		tex, err := s.entity(image, scene.KindTexture)
		if err != nil {
			return scene.NoHandle, errors.Wrapf(err, "material %q", name)
		}
		s.f.AddConnections(bfbx73.C("OP", tex.id, id, "DiffuseColor"))
	}

	return s.add(&entity{kind: scene.KindMaterial, name: name, id: id}), nil
}

func transformProperties(m mgl32.Mat4) []*fbx.Node {
	t, r, sc := utils.DecomposeMat4(m)
	rot := utils.QuatToEuler(r).Mul(180.0 / math.Pi)
	return []*fbx.Node{
		bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
			float64(t[0]), float64(t[1]), float64(t[2])),
		bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
			float64(rot[0]), float64(rot[1]), float64(rot[2])),
		bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
			float64(sc[0]), float64(sc[1]), float64(sc[2])),
	}
}

// groupProperties stores cloth and smoothing groups as user properties,
// each a space separated list of vertex:weight pairs.
func groupProperties(m *elu.Mesh) []*fbx.Node {
	var props []*fbx.Node
	if m.HasCloth() {
		props = append(props, bfbx73.P("cloth", "bool", "", "U", int32(1)))
	}
	for _, g := range m.VertexGroups() {
		var sb strings.Builder
		for _, b := range g.Buckets {
			for _, v := range b.Vertices {
				if sb.Len() != 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%d:%g", v, b.Weight)
			}
		}
		props = append(props, bfbx73.P(g.Name, "KString", "", "U", sb.String()))
	}
	return props
}

func (s *Sink) model(id int64, name, class string, local mgl32.Mat4, user ...*fbx.Node) *fbx.Node {
	props := []*fbx.Node{
		bfbx73.P("InheritType", "enum", "", "", int32(1)),
		bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
	}
	props = append(props, transformProperties(local)...)
	return bfbx73.Model(id, name+"\x00\x01Model", class).AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(append(props, user...)...),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
}

func (s *Sink) CreateMesh(name string, mesh *elu.Mesh, material scene.Handle) (scene.Handle, error) {
	e := &entity{kind: scene.KindMesh, name: name, id: s.f.GenerateId(), mesh: mesh}

	if mesh.Kind != elu.MeshGeometry || len(mesh.Faces) == 0 {
		// placeholders and empties stay transform-only
		s.f.AddObjects(s.model(e.id, name, "Null", mesh.Local), s.nullAttribute(e.id, name, "Null", "Null"))
		return s.add(e), nil
	}

	e.geometryId = s.f.GenerateId()
	geometry := meshGeometry(e.geometryId, mesh, material != scene.NoHandle)
	s.f.AddObjects(s.model(e.id, name, "Mesh", mesh.Local, groupProperties(mesh)...), geometry)
	s.f.AddConnections(bfbx73.C("OO", e.geometryId, e.id))

	if material != scene.NoHandle {
		mat, err := s.entity(material, scene.KindMaterial)
		if err != nil {
			return scene.NoHandle, errors.Wrapf(err, "mesh %q", name)
		}
		s.f.AddConnections(bfbx73.C("OO", mat.id, e.id))
	}
	return s.add(e), nil
}

func (s *Sink) nullAttribute(modelId int64, name, class, flags string) *fbx.Node {
	id := s.f.GenerateId()
	s.f.AddConnections(bfbx73.C("OO", id, modelId))
	return bfbx73.NodeAttribute(id, name+"\x00\x01NodeAttribute", class).AddNodes(
		bfbx73.TypeFlags(flags),
	)
}

func (s *Sink) LinkParent(child, parent scene.Handle) error {
	c, err := s.entity(child, scene.KindMesh, scene.KindJoint, scene.KindSkeleton)
	if err != nil {
		return err
	}
	p, err := s.entity(parent, scene.KindMesh, scene.KindJoint, scene.KindSkeleton)
	if err != nil {
		return err
	}
	if s.parented[c.id] {
		return errors.Errorf("Model %q already has a parent", c.name)
	}
	s.parented[c.id] = true
	s.f.AddConnections(bfbx73.C("OO", c.id, p.id))
	return nil
}

func (s *Sink) CreateSkeleton(name string) (scene.Handle, error) {
	id := s.f.GenerateId()
	s.f.AddObjects(s.model(id, name, "Null", mgl32.Ident4()), s.nullAttribute(id, name, "Null", "Null"))
	return s.add(&entity{kind: scene.KindSkeleton, name: name, id: id, world: mgl32.Ident4()}), nil
}

func (s *Sink) CreateJoint(skeleton scene.Handle, joint *elu.Joint, parent scene.Handle) (scene.Handle, error) {
	sk, err := s.entity(skeleton, scene.KindSkeleton)
	if err != nil {
		return scene.NoHandle, err
	}
	parentEntity := sk
	local := joint.Head
	if parent != scene.NoHandle {
		if parentEntity, err = s.entity(parent, scene.KindJoint); err != nil {
			return scene.NoHandle, errors.Wrapf(err, "joint %q", joint.Name)
		}
		local = joint.Head.Sub(parentEntity.head)
	}

	id := s.f.GenerateId()
	s.f.AddObjects(
		s.model(id, joint.Name, "LimbNode", mgl32.Translate3D(local[0], local[1], local[2])),
		s.nullAttribute(id, joint.Name, "LimbNode", "Skeleton"),
	)
	s.f.AddConnections(bfbx73.C("OO", id, parentEntity.id))
	s.parented[id] = true

	return s.add(&entity{
		kind:  scene.KindJoint,
		name:  joint.Name,
		id:    id,
		head:  joint.Head,
		world: mgl32.Translate3D(joint.Head[0], joint.Head[1], joint.Head[2]),
	}), nil
}

// BindSkin defers the deformer until the document is written,
// joints created later are still allowed to take part.
func (s *Sink) BindSkin(mesh, skeleton scene.Handle, weights []scene.JointWeights) error {
	m, err := s.entity(mesh, scene.KindMesh)
	if err != nil {
		return err
	}
	if _, err := s.entity(skeleton, scene.KindSkeleton); err != nil {
		return err
	}
	if m.geometryId == 0 {
		s.log.Debug("skin on mesh without geometry", zap.String("mesh", m.name))
		return nil
	}
	if m.skin != nil {
		return errors.Errorf("Mesh %q is already skinned", m.name)
	}
	m.skin = weights
	if m.skin == nil {
		m.skin = []scene.JointWeights{}
	}
	return nil
}

func (s *Sink) finalize() {
	if s.done {
		return
	}
	s.done = true

	for _, e := range s.entities {
		if e.kind == scene.KindMesh && e.skin != nil {
			s.writeSkin(e)
		}
	}
	for _, e := range s.entities {
		switch e.kind {
		case scene.KindMesh, scene.KindSkeleton, scene.KindJoint:
			if !s.parented[e.id] {
				s.f.AddConnections(bfbx73.C("OO", e.id, int64(0)))
			}
		}
	}
}

func (s *Sink) Write(w io.Writer) error {
	s.finalize()
	return s.f.Write(w)
}

// WriteZip packs the fbx as name together with the texture files.
func (s *Sink) WriteZip(w io.Writer, name string) error {
	s.finalize()
	return s.f.WriteZip(w, name)
}

func (s *Sink) String() string {
	return fmt.Sprintf("fbx sink: %d entities", len(s.entities))
}
