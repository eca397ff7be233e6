package elu

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type Material struct {
	Name          string
	Index         uint32
	SubIndex      uint32
	Ambient       mgl32.Vec4
	Diffuse       mgl32.Vec4
	Specular      mgl32.Vec4
	SpecularPower float32

	Texture      int // index into Scene.Textures, -1 when untextured
	TwoSided     bool
	Additive     bool
	AlphaPercent uint32
}

type Texture struct {
	Name          string // file name without extension, used for dedup
	File          string
	AlternateFile string
}

func MaterialName(index uint32) string {
	return fmt.Sprintf("z_material.%03d", index)
}

func (t *Texture) Ext() string {
	return filepath.Ext(t.slashFile())
}

func (t *Texture) slashFile() string {
	return strings.Replace(t.File, `\`, "/", -1)
}

// Candidates lists the paths an image may be found at, in lookup order.
// The exporter stored source names, the shipped files are often converted to dds.
func (t *Texture) Candidates(modelDir string, searchDirs []string) []string {
	file := t.slashFile()
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)

	dirs := make([]string, 0, len(searchDirs)+1)
	dirs = append(dirs, modelDir)
	dirs = append(dirs, searchDirs...)

	exts := []string{ext, ".dds", ext + ".dds"}
	result := make([]string, 0, len(exts)*len(dirs))
	for _, e := range exts {
		for _, dir := range dirs {
			result = append(result, filepath.Join(filepath.Clean(dir), filepath.FromSlash(base+e)))
		}
	}
	return result
}

func (d *decoder) readMaterial() (*Material, error) {
	mat := &Material{Texture: -1}

	var err error
	if mat.Index, err = d.bs.ReadLU32(); err != nil {
		return nil, err
	}
	if mat.SubIndex, err = d.bs.ReadLU32(); err != nil {
		return nil, err
	}
	if mat.Ambient, err = d.bs.ReadVec4(); err != nil {
		return nil, err
	}
	if mat.Diffuse, err = d.bs.ReadVec4(); err != nil {
		return nil, err
	}
	if mat.Specular, err = d.bs.ReadVec4(); err != nil {
		return nil, err
	}
	if mat.SpecularPower, err = d.bs.ReadLF(); err != nil {
		return nil, err
	}
	if err := d.bs.Skip(4); err != nil {
		return nil, err
	}

	mat.Name = MaterialName(mat.Index)
	return mat, nil
}

// readTexture returns nil when no image is referenced.
func (d *decoder) readTexture() (*Texture, error) {
	length := textureNameLength(d.version)

	file, err := d.readFixedName(length)
	if err != nil {
		return nil, err
	}
	alternate, err := d.readFixedName(length)
	if err != nil {
		return nil, err
	}

	if file == "" {
		return nil, nil
	}
	t := &Texture{File: file, AlternateFile: alternate}
	t.Name = strings.TrimSuffix(file, t.Ext())
	return t, nil
}

func (d *decoder) readTexturedMaterial() (*Material, *Texture, error) {
	mat, err := d.readMaterial()
	if err != nil {
		return nil, nil, err
	}
	tex, err := d.readTexture()
	if err != nil {
		return nil, nil, err
	}

	if hasTwoSided(d.version) {
		v, err := d.bs.ReadLU32()
		if err != nil {
			return nil, nil, err
		}
		mat.TwoSided = v != 0
	}
	if hasAdditive(d.version) {
		v, err := d.bs.ReadLU32()
		if err != nil {
			return nil, nil, err
		}
		mat.Additive = v != 0
	}
	if hasAlphaPercent(d.version) {
		if mat.AlphaPercent, err = d.bs.ReadLU32(); err != nil {
			return nil, nil, err
		}
	}
	return mat, tex, nil
}

// addMaterial registers a decoded material. The first material with a derived
// name wins, later ones were consumed from the stream and are dropped here.
func (d *decoder) addMaterial(mat *Material, tex *Texture) {
	s := d.scene
	if _, exists := s.materialByName[mat.Name]; exists {
		d.log.Debug("duplicate material ignored", zap.String("material", mat.Name))
		return
	}

	if tex != nil {
		if ti, ok := s.textureByName[tex.Name]; ok {
			mat.Texture = ti
		} else {
			mat.Texture = len(s.Textures)
			s.textureByName[tex.Name] = mat.Texture
			s.Textures = append(s.Textures, tex)
		}
	}

	s.materialByName[mat.Name] = len(s.Materials)
	s.Materials = append(s.Materials, mat)
}
