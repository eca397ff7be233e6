package elu

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/zlabs/elu_browser/utils"
)

var DefaultBoneTail = mgl32.Vec3{0, 0.5, 0}

type Options struct {
	// Name of the decoded file, used in diagnostics only
	Name string
	// nil means strict ascii
	Encoding *charmap.Charmap
	Logger   *zap.Logger
	Trace    *utils.Logger
	// zero value means DefaultBoneTail
	BoneTail mgl32.Vec3
}

func (o *Options) boneTail() mgl32.Vec3 {
	if o.BoneTail == (mgl32.Vec3{}) {
		return DefaultBoneTail
	}
	return o.BoneTail
}

type Scene struct {
	Name      string
	Version   Version
	Format    Format
	Materials []*Material
	Textures  []*Texture
	// file order, positional index is the mesh identity
	Meshes   []*Mesh
	Skeleton *Skeleton
	Warnings []Warning

	materialByName map[string]int
	textureByName  map[string]int
	meshByName     map[string]int
}

func newScene(name string) *Scene {
	return &Scene{
		Name:           name,
		materialByName: make(map[string]int),
		textureByName:  make(map[string]int),
		meshByName:     make(map[string]int),
	}
}

// Material returns the material with the derived name.
func (s *Scene) Material(name string) (*Material, bool) {
	if i, ok := s.materialByName[name]; ok {
		return s.Materials[i], true
	}
	return nil, false
}

// Mesh returns the first mesh with the display name.
func (s *Scene) Mesh(name string) (*Mesh, bool) {
	if i, ok := s.meshByName[name]; ok {
		return s.Meshes[i], true
	}
	return nil, false
}

func (s *Scene) Roots() []int {
	var roots []int
	for i, m := range s.Meshes {
		if m.Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// MeshTexture returns the texture bound through the mesh material.
func (s *Scene) MeshTexture(m *Mesh) *Texture {
	mat, ok := s.Material(m.MaterialName())
	if !ok || mat.Texture < 0 {
		return nil
	}
	return s.Textures[mat.Texture]
}

func (s *Scene) HasWarnings() bool {
	return len(s.Warnings) != 0
}

type decoder struct {
	bs      *utils.BufStack
	opts    *Options
	log     *zap.Logger
	trace   *utils.Logger
	version Version
	scene   *Scene
	mesh    int

	// faces stored by the current Format A mesh, dropped ones included
	rawFaceCount int
}

func (d *decoder) warn(kind WarningKind, offset int, format string, args ...interface{}) {
	w := Warning{
		Kind:    kind,
		Mesh:    d.mesh,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
	d.scene.Warnings = append(d.scene.Warnings, w)
	d.log.Warn(w.Message,
		zap.Stringer("kind", kind),
		zap.Int("mesh", w.Mesh),
		zap.Int("offset", offset))
	d.trace.Printf("0x%.8x warning %v", offset, w)
}

func (d *decoder) readHeader() error {
	magic, err := d.bs.ReadLU32()
	if err != nil {
		return errors.Wrapf(err, "magic")
	}
	if magic != Magic {
		return errors.Wrapf(ErrBadMagic, "got 0x%.8x, want 0x%.8x", magic, Magic)
	}

	v, err := d.bs.ReadLU32()
	if err != nil {
		return errors.Wrapf(err, "version")
	}
	d.version = Version(v)
	if !d.version.IsSupported() {
		return errors.Wrapf(ErrUnsupportedVersion, "%v", d.version)
	}

	d.scene.Version = d.version
	d.scene.Format = d.version.Format()
	d.trace.Printf("0x%.8x header version %v format %v", 0, d.version, d.scene.Format)
	return nil
}

func (d *decoder) readMaterials(count uint32) error {
	for i := uint32(0); i < count; i++ {
		at := d.bs.Pos()
		mat, tex, err := d.readTexturedMaterial()
		if err != nil {
			return errors.Wrapf(err, "material %d at 0x%.8x", i, at)
		}
		d.trace.Printf("0x%.8x material %d %q texture %v", at, i, mat.Name, tex)
		d.addMaterial(mat, tex)
	}
	return nil
}

func (d *decoder) readMeshes(count uint32) error {
	format := d.version.Format()
	for i := 0; uint32(i) < count; i++ {
		d.mesh = i
		at := d.bs.Pos()

		var m *Mesh
		var err error
		if format == FormatA {
			m, err = d.readMeshA(i)
		} else {
			m, err = d.readMeshB(i)
		}
		if err != nil {
			return errors.Wrapf(err, "mesh %d at 0x%.8x", i, at)
		}

		d.trace.Printf("0x%.8x mesh %d %q (%q) parent %q kind %v vertices %d faces %d",
			at, i, m.Name, m.RawName, m.ParentName, m.Kind, len(m.Positions), len(m.Faces))
		d.log.Debug("mesh decoded",
			zap.Int("index", i),
			zap.String("name", m.Name),
			zap.Stringer("kind", m.Kind),
			zap.Int("positions", len(m.Positions)),
			zap.Int("faces", len(m.Faces)))

		d.scene.Meshes = append(d.scene.Meshes, m)
	}
	d.mesh = -1
	return nil
}

func (d *decoder) decode() (*Scene, error) {
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	materialCount, err := d.bs.ReadLU32()
	if err != nil {
		return nil, errors.Wrapf(err, "material count")
	}
	meshCount, err := d.bs.ReadLU32()
	if err != nil {
		return nil, errors.Wrapf(err, "mesh count")
	}

	if d.version.Format() == FormatA {
		if err := d.readMaterials(materialCount); err != nil {
			return nil, err
		}
	}

	if err := d.readMeshes(meshCount); err != nil {
		return nil, err
	}

	d.resolveParents()
	d.buildSkeleton()

	if d.bs.Remaining() != 0 {
		d.trace.Printf("0x%.8x %d trailing bytes", d.bs.Pos(), d.bs.Remaining())
	}
	return d.scene, nil
}

// Decode parses a whole ELU file. On error no scene is returned.
func Decode(b []byte, opts *Options) (*Scene, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("file", opts.Name))

	d := &decoder{
		bs:    utils.NewBufStack("elu", b).SetName(opts.Name),
		opts:  opts,
		log:   log,
		trace: opts.Trace,
		scene: newScene(opts.Name),
		mesh:  -1,
	}

	s, err := d.decode()
	if err != nil {
		if opts.Name != "" {
			err = errors.Wrapf(err, "%s", opts.Name)
		}
		return nil, err
	}
	return s, nil
}

func DecodeReader(r io.Reader, opts *Options) (*Scene, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read elu")
	}
	return Decode(b, opts)
}

func DecodeFile(path string, opts *Options) (*Scene, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", path)
	}
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.Name == "" {
		o.Name = filepath.Base(path)
	}
	return Decode(b, &o)
}
