package gltfsink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/utils"
	"github.com/zlabs/elu_browser/utils/gltfutils"
)

type Options struct {
	// embed png and jpeg images into the buffer instead of referencing them
	EmbedImages bool
	// image uris are made relative to this directory when set
	RelativeTo string
	// defaults to a stat of the path
	Exists func(path string) bool
	// reads embedded images, defaults to the filesystem
	ReadFile func(path string) ([]byte, error)
	Logger   *zap.Logger
}

type entity struct {
	kind  scene.Kind
	name  string
	index uint32 // texture, material or node index depending on kind

	// mesh nodes
	mesh     *elu.Mesh
	material scene.Handle
	skin     *skinBinding

	// skeletons
	joints []scene.Handle

	// joints
	skeleton scene.Handle
	head     mgl32.Vec3
}

type skinBinding struct {
	skeleton scene.Handle
	weights  []scene.JointWeights
}

// Sink builds a glTF document. Geometry is written once the scene is
// complete, so skinned meshes can be moved into armature space.
type Sink struct {
	opts   Options
	log    *zap.Logger
	cacher *gltfutils.GLTFCacher
	doc    *gltf.Document

	entities []*entity
	parented map[uint32]bool
	sampler  *uint32
	done     bool
}

var _ scene.Sink = (*Sink)(nil)

func New(opts Options) *Sink {
	if opts.Exists == nil {
		opts.Exists = func(path string) bool {
			st, err := os.Stat(path)
			return err == nil && !st.IsDir()
		}
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cacher := gltfutils.NewCacher()
	return &Sink{
		opts:     opts,
		log:      log,
		cacher:   cacher,
		doc:      cacher.Doc,
		parented: make(map[uint32]bool),
	}
}

func cacheKey(kind scene.Kind, name string) string {
	return kind.String() + ":" + name
}

func (s *Sink) add(e *entity) scene.Handle {
	h := scene.Handle(len(s.entities))
	s.entities = append(s.entities, e)
	s.cacher.AddCache(cacheKey(e.kind, e.name), h)
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
	if v, ok := s.cacher.GetCached(cacheKey(kind, name)); ok {
		return v.(scene.Handle), true
	}
	return scene.NoHandle, false
}

func imageMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return ""
}

func (s *Sink) defaultSampler() *uint32 {
	if s.sampler == nil {
		s.sampler = gltf.Index(uint32(len(s.doc.Samplers)))
		s.doc.Samplers = append(s.doc.Samplers, &gltf.Sampler{
			Name:      "default_sampler",
			MinFilter: gltf.MinLinear,
			MagFilter: gltf.MagLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		})
	}
	return s.sampler
}

func (s *Sink) writeImage(name, path string) (uint32, error) {
	mime := imageMimeType(path)
	if s.opts.EmbedImages && mime != "" {
		data, err := s.opts.ReadFile(path)
		if err != nil {
			return 0, errors.Wrapf(err, "Failed to read image %q", path)
		}
		return modeler.WriteImage(s.doc, name+"_image", mime, bytes.NewReader(data))
	}

	uri := path
	if s.opts.RelativeTo != "" {
		if rel, err := filepath.Rel(s.opts.RelativeTo, path); err == nil {
			uri = rel
		}
	}
	s.doc.Images = append(s.doc.Images, &gltf.Image{
		Name:     name + "_image",
		URI:      filepath.ToSlash(uri),
		MimeType: mime,
	})
	return uint32(len(s.doc.Images) - 1), nil
}

func (s *Sink) ResolveTexture(name string, candidates []string) (scene.Handle, bool) {
	for _, path := range candidates {
		if !s.opts.Exists(path) {
			continue
		}
		image, err := s.writeImage(name, path)
		if err != nil {
			s.log.Warn("failed to add image", zap.String("path", path), zap.Error(err))
			continue
		}
		s.doc.Textures = append(s.doc.Textures, &gltf.Texture{
			Name:    name,
			Sampler: s.defaultSampler(),
			Source:  gltf.Index(image),
		})
		return s.add(&entity{
			kind:  scene.KindTexture,
			name:  name,
			index: uint32(len(s.doc.Textures) - 1),
		}), true
	}
	return scene.NoHandle, false
}

func (s *Sink) CreateMaterial(name string, mat *elu.Material, image scene.Handle) (scene.Handle, error) {
	color := [4]float32{1, 1, 1, 1}
	metallic := float32(0)
	roughness := float32(1)
	gm := &gltf.Material{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}

	if mat != nil {
		copy(color[:3], mat.Diffuse[:3])
		gm.DoubleSided = mat.TwoSided
		if mat.SpecularPower > 0 {
			roughness = 1 - mgl32.Clamp(mat.SpecularPower/100, 0, 1)
		}
		if mat.AlphaPercent > 0 && mat.AlphaPercent < 100 {
			color[3] = float32(mat.AlphaPercent) / 100
			gm.AlphaMode = gltf.AlphaBlend
		}
		if mat.Additive {
			gm.AlphaMode = gltf.AlphaBlend
		}
	}

	if image != scene.NoHandle {
		tex, err := s.entity(image, scene.KindTexture)
		if err != nil {
			return scene.NoHandle, errors.Wrapf(err, "material %q", name)
		}
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex.index}
	}

	s.doc.Materials = append(s.doc.Materials, gm)
	return s.add(&entity{
		kind:  scene.KindMaterial,
		name:  name,
		index: uint32(len(s.doc.Materials) - 1),
	}), nil
}

func (s *Sink) addNode(node *gltf.Node) uint32 {
	if node.Rotation == [4]float32{} {
		node.Rotation = [4]float32{0, 0, 0, 1}
	}
	if node.Scale == [3]float32{} {
		node.Scale = [3]float32{1, 1, 1}
	}
	s.doc.Nodes = append(s.doc.Nodes, node)
	return uint32(len(s.doc.Nodes) - 1)
}

func (s *Sink) CreateMesh(name string, mesh *elu.Mesh, material scene.Handle) (scene.Handle, error) {
	if material != scene.NoHandle {
		if _, err := s.entity(material, scene.KindMaterial); err != nil {
			return scene.NoHandle, errors.Wrapf(err, "mesh %q", name)
		}
	}

	t, r, sc := utils.DecomposeMat4(mesh.Local)
	node := &gltf.Node{
		Name:        name,
		Translation: t,
		Rotation:    r.V.Vec4(r.W),
		Scale:       sc,
	}

	return s.add(&entity{
		kind:     scene.KindMesh,
		name:     name,
		index:    s.addNode(node),
		mesh:     mesh,
		material: material,
	}), nil
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
	if s.parented[c.index] {
		return errors.Errorf("Node %q already has a parent", c.name)
	}
	s.parented[c.index] = true
	pn := s.doc.Nodes[p.index]
	pn.Children = append(pn.Children, c.index)
	return nil
}

func (s *Sink) CreateSkeleton(name string) (scene.Handle, error) {
	return s.add(&entity{
		kind:  scene.KindSkeleton,
		name:  name,
		index: s.addNode(&gltf.Node{Name: name}),
	}), nil
}

// CreateJoint places the joint at its head, relative to the parent joint head.
func (s *Sink) CreateJoint(skeleton scene.Handle, joint *elu.Joint, parent scene.Handle) (scene.Handle, error) {
	sk, err := s.entity(skeleton, scene.KindSkeleton)
	if err != nil {
		return scene.NoHandle, err
	}

	translation := joint.Head
	parentNode := sk.index
	if parent != scene.NoHandle {
		pj, err := s.entity(parent, scene.KindJoint)
		if err != nil {
			return scene.NoHandle, errors.Wrapf(err, "joint %q", joint.Name)
		}
		translation = joint.Head.Sub(pj.head)
		parentNode = pj.index
	}

	index := s.addNode(&gltf.Node{
		Name:        joint.Name,
		Translation: translation,
		Extras: map[string]interface{}{
			"tail": [3]float32(joint.Tail),
		},
	})
	h := s.add(&entity{
		kind:     scene.KindJoint,
		name:     joint.Name,
		index:    index,
		skeleton: skeleton,
		head:     joint.Head,
	})
	s.parented[index] = true
	s.doc.Nodes[parentNode].Children = append(s.doc.Nodes[parentNode].Children, index)
	sk.joints = append(sk.joints, h)
	return h, nil
}

func (s *Sink) BindSkin(mesh, skeleton scene.Handle, weights []scene.JointWeights) error {
	m, err := s.entity(mesh, scene.KindMesh)
	if err != nil {
		return err
	}
	if _, err := s.entity(skeleton, scene.KindSkeleton); err != nil {
		return err
	}
	if m.skin != nil {
		return errors.Errorf("Mesh %q is already skinned", m.name)
	}
	m.skin = &skinBinding{skeleton: skeleton, weights: weights}
	return nil
}

// Document completes the geometry, skins and scene roots. Later calls
// return the same document.
func (s *Sink) Document() (*gltf.Document, error) {
	if s.done {
		return s.doc, nil
	}
	s.done = true

	skins := make(map[scene.Handle]uint32)
	for h, e := range s.entities {
		if e.kind == scene.KindSkeleton && len(e.joints) != 0 {
			skins[scene.Handle(h)] = s.writeSkin(e)
		}
	}

	for _, e := range s.entities {
		if e.kind != scene.KindMesh {
			continue
		}
		if err := s.writeMesh(e, skins); err != nil {
			return nil, errors.Wrapf(err, "mesh %q", e.name)
		}
	}

	// decoded data is z-up
	q := mgl32.QuatRotate(-mgl32.DegToRad(90), mgl32.Vec3{1, 0, 0})
	root := &gltf.Node{
		Name:     "root",
		Rotation: q.V.Vec4(q.W),
	}
	for i := range s.doc.Nodes {
		if !s.parented[uint32(i)] {
			root.Children = append(root.Children, uint32(i))
		}
	}
	rootIndex := s.addNode(root)
	s.doc.Scenes[0].Nodes = append(s.doc.Scenes[0].Nodes, rootIndex)

	return s.doc, nil
}

func (s *Sink) writeSkin(sk *entity) uint32 {
	skin := &gltf.Skin{
		Name:     sk.name,
		Skeleton: gltf.Index(sk.index),
	}
	ibm := make([][4][4]float32, len(sk.joints))
	for i, h := range sk.joints {
		j := s.entities[h]
		skin.Joints = append(skin.Joints, j.index)
		m := mgl32.Translate3D(-j.head[0], -j.head[1], -j.head[2])
		for c := 0; c < 4; c++ {
			ibm[i][c] = [4]float32(m.Col(c))
		}
	}
	skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(s.doc, gltf.TargetNone, ibm))
	s.doc.Skins = append(s.doc.Skins, skin)
	return uint32(len(s.doc.Skins) - 1)
}

func (s *Sink) String() string {
	return fmt.Sprintf("gltf sink: %d entities, %d nodes", len(s.entities), len(s.doc.Nodes))
}
