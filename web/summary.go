package web

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/pack"
)

type MeshSummary struct {
	Index      int
	Name       string
	RawName    string
	Kind       string
	IsBone     bool
	Parent     int
	ParentName string
	Children   []int
	Material   string `json:",omitempty"`
	Skinned    bool
	Vertices   int
	Faces      int
	Influences int
	Position   mgl32.Vec3

	Cloth         bool
	ClothVertices int
	SmoothGroups  int
	VertexGroups  []string `json:",omitempty"`
}

type JointSummary struct {
	Name   string
	Mesh   int
	Parent int
	Head   mgl32.Vec3
	Tail   mgl32.Vec3
}

type TextureSummary struct {
	Name       string
	File       string
	Candidates []string
	Found      string `json:",omitempty"`
}

// ModelSummary is what the browser shows for one model file.
type ModelSummary struct {
	Name      string
	Size      int64
	Version   string
	Format    string
	TookMs    float64
	Materials []*elu.Material
	Textures  []TextureSummary
	Meshes    []MeshSummary
	Joints    []JointSummary
	Warnings  []elu.Warning
}

func (s *Server) summary(inst *pack.Instance) *ModelSummary {
	sc := inst.Scene
	sum := &ModelSummary{
		Name:      inst.Name,
		Size:      inst.Size,
		Version:   sc.Version.String(),
		Format:    sc.Format.String(),
		TookMs:    float64(inst.Took.Microseconds()) / 1000,
		Materials: sc.Materials,
		Meshes:    make([]MeshSummary, 0, len(sc.Meshes)),
		Warnings:  sc.Warnings,
	}

	opts := s.pack.SceneOptions(inst.Name)
	for _, t := range sc.Textures {
		ts := TextureSummary{
			Name:       t.Name,
			File:       t.File,
			Candidates: t.Candidates(opts.BaseDir, opts.TextureDirs),
		}
		for _, c := range ts.Candidates {
			if s.pack.TextureExists(c) {
				ts.Found = c
				break
			}
		}
		sum.Textures = append(sum.Textures, ts)
	}

	for _, m := range sc.Meshes {
		ms := MeshSummary{
			Index:      m.Index,
			Name:       m.Name,
			RawName:    m.RawName,
			Kind:       m.Kind.String(),
			IsBone:     m.IsBone,
			Parent:     m.Parent,
			ParentName: m.ParentName,
			Children:   m.Children,
			Material:   m.MaterialName(),
			Skinned:    m.AttachedToSkeleton,
			Vertices:   len(m.Positions),
			Faces:      len(m.Faces),
			Influences: len(m.Weights),
			Position:   m.WorldTranslation(),

			Cloth:         m.HasCloth(),
			ClothVertices: len(m.ClothHints),
		}
		for _, group := range m.SmoothGroups {
			if len(group) != 0 {
				ms.SmoothGroups++
			}
		}
		for _, g := range m.VertexGroups() {
			ms.VertexGroups = append(ms.VertexGroups, g.Name)
		}
		sum.Meshes = append(sum.Meshes, ms)
	}

	if sc.Skeleton != nil {
		for _, j := range sc.Skeleton.Joints {
			sum.Joints = append(sum.Joints, JointSummary{
				Name:   j.Name,
				Mesh:   j.Mesh,
				Parent: j.Parent,
				Head:   j.Head,
				Tail:   j.Tail,
			})
		}
	}
	return sum
}
