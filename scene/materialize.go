package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/elu"
)

const DefaultSkeletonName = "Armature"

type Options struct {
	// directory of the model file, searched for textures first
	BaseDir     string
	TextureDirs []string
	// defaults to DefaultSkeletonName
	SkeletonName string
	Logger       *zap.Logger
}

// Result maps decoded entities to sink handles.
type Result struct {
	Materials map[string]Handle
	Meshes    []Handle
	Skeleton  Handle
	Joints    []Handle
}

type materializer struct {
	s      *elu.Scene
	sink   Sink
	opts   Options
	log    *zap.Logger
	reg    *Registry
	result *Result
}

// Materialize hands a decoded scene to sink: materials with their textures,
// meshes with parent links, the skeleton with its joints, skin bindings and
// finally the attachment of unparented skinned meshes to the skeleton.
func Materialize(s *elu.Scene, sink Sink, opts Options) (*Result, error) {
	if s == nil {
		return nil, errors.New("nil scene")
	}
	if opts.SkeletonName == "" {
		opts.SkeletonName = DefaultSkeletonName
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := &materializer{
		s:    s,
		sink: sink,
		opts: opts,
		log:  log.With(zap.String("scene", s.Name)),
		reg:  NewRegistry(sink),
		result: &Result{
			Materials: make(map[string]Handle),
			Meshes:    make([]Handle, len(s.Meshes)),
			Skeleton:  NoHandle,
		},
	}

	if err := m.materials(); err != nil {
		return nil, errors.Wrapf(err, "materials")
	}
	if err := m.meshes(); err != nil {
		return nil, errors.Wrapf(err, "meshes")
	}
	if s.Skeleton != nil {
		if err := m.skeleton(); err != nil {
			return nil, errors.Wrapf(err, "skeleton")
		}
	}
	return m.result, nil
}

func (m *materializer) texture(tex *elu.Texture) Handle {
	if h, ok := m.reg.Get(KindTexture, tex.Name); ok {
		return h
	}
	candidates := tex.Candidates(m.opts.BaseDir, m.opts.TextureDirs)
	h, ok := m.sink.ResolveTexture(tex.Name, candidates)
	if !ok {
		m.log.Warn("texture not found",
			zap.String("texture", tex.File),
			zap.Strings("candidates", candidates))
		return NoHandle
	}
	return m.reg.Put(KindTexture, tex.Name, h)
}

func (m *materializer) materials() error {
	for _, mat := range m.s.Materials {
		if h, ok := m.reg.Get(KindMaterial, mat.Name); ok {
			m.result.Materials[mat.Name] = h
			continue
		}

		image := NoHandle
		if mat.Texture >= 0 {
			image = m.texture(m.s.Textures[mat.Texture])
		}

		h, err := m.sink.CreateMaterial(mat.Name, mat, image)
		if err != nil {
			return errors.Wrapf(err, "material %q", mat.Name)
		}
		m.result.Materials[mat.Name] = m.reg.Put(KindMaterial, mat.Name, h)
	}
	return nil
}

func (m *materializer) meshes() error {
	for i, mesh := range m.s.Meshes {
		material := NoHandle
		if name := mesh.MaterialName(); name != "" {
			if h, ok := m.reg.Get(KindMaterial, name); ok {
				material = h
			}
		}

		h, err := m.sink.CreateMesh(mesh.Name, mesh, material)
		if err != nil {
			return errors.Wrapf(err, "mesh %d %q", i, mesh.Name)
		}
		m.result.Meshes[i] = h
		m.reg.Put(KindMesh, mesh.Name, h)

		if mesh.Parent >= 0 {
			if err := m.sink.LinkParent(h, m.result.Meshes[mesh.Parent]); err != nil {
				return errors.Wrapf(err, "mesh %d %q parent", i, mesh.Name)
			}
		}
	}
	return nil
}

func (m *materializer) skeleton() error {
	sk := m.s.Skeleton

	skh, err := m.sink.CreateSkeleton(m.opts.SkeletonName)
	if err != nil {
		return err
	}
	m.result.Skeleton = skh
	m.reg.Put(KindSkeleton, m.opts.SkeletonName, skh)

	m.result.Joints = make([]Handle, len(sk.Joints))
	for i := range sk.Joints {
		j := &sk.Joints[i]
		parent := NoHandle
		if j.Parent >= 0 {
			parent = m.result.Joints[j.Parent]
		}
		h, err := m.sink.CreateJoint(skh, j, parent)
		if err != nil {
			return errors.Wrapf(err, "joint %q", j.Name)
		}
		m.result.Joints[i] = h
		m.reg.Put(KindJoint, j.Name, h)
	}

	for _, mi := range sk.Skinned {
		mesh := m.s.Meshes[mi]
		weights := m.jointWeights(mesh)
		if err := m.sink.BindSkin(m.result.Meshes[mi], skh, weights); err != nil {
			return errors.Wrapf(err, "skin of %q", mesh.Name)
		}
	}

	for _, mi := range sk.Skinned {
		if m.s.Meshes[mi].AttachedToSkeleton {
			if err := m.sink.LinkParent(m.result.Meshes[mi], skh); err != nil {
				return errors.Wrapf(err, "attach %q", m.s.Meshes[mi].Name)
			}
		}
	}
	return nil
}

func (m *materializer) jointWeights(mesh *elu.Mesh) []JointWeights {
	sk := m.s.Skeleton
	weights := make([]JointWeights, 0, len(mesh.Weights))
	for _, g := range mesh.Weights {
		jw := JointWeights{Joint: NoHandle, Bone: g.Bone, Buckets: g.Buckets}
		if ji, ok := sk.JointByName(g.Bone); ok {
			jw.Joint = m.result.Joints[ji]
		} else {
			m.log.Debug("weight group without joint",
				zap.String("mesh", mesh.Name),
				zap.String("bone", g.Bone))
		}
		weights = append(weights, jw)
	}
	return weights
}
