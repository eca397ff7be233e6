package elu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type MeshKind int

const (
	// mesh with positions and faces
	MeshGeometry MeshKind = iota
	// Format A entry without geometry, kept as a transform-only node
	MeshEmpty
	// Format B entry without geometry, replaced by a wireframe cube standing in for a joint
	MeshJointPlaceholder
)

func (k MeshKind) String() string {
	switch k {
	case MeshGeometry:
		return "geometry"
	case MeshEmpty:
		return "empty"
	case MeshJointPlaceholder:
		return "joint"
	default:
		return fmt.Sprintf("MeshKind(%d)", int(k))
	}
}

func (k MeshKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Face indexes the mesh pools independently. -1 means the pool is not bound.
type Face struct {
	Positions [FaceVertexCount]int
	Normals   [FaceVertexCount]int
	TexCoords [FaceVertexCount]int
}

func noIndices() [FaceVertexCount]int {
	return [FaceVertexCount]int{-1, -1, -1}
}

type WeightBucket struct {
	Weight   float32
	Vertices []int
}

// WeightGroup lists the vertices one bone affects, grouped by weight.
type WeightGroup struct {
	Bone      string
	BoneIndex int // -1 when the bone is referenced by name
	Buckets   []WeightBucket
}

// ClothHint is a vertex color reinterpreted by the exporter as cloth simulation input.
type ClothHint struct {
	Pin       float32
	Collision float32
	Stiffness float32
}

type ClothGroups struct {
	Pinned    []int
	Colliding []int
	Stiffness []WeightBucket
}

type Mesh struct {
	Index  int
	Format Format
	Kind   MeshKind

	Name          string
	RawName       string
	IsBone        bool
	ParentName    string
	RawParentName string
	ParentIndex   uint32 // Format B only, NoParentIndex when absent

	// resolved after all meshes are decoded
	Parent             int
	Children           []int
	AttachedToSkeleton bool

	World mgl32.Mat4
	Local mgl32.Mat4

	// Format A extras, decoded but not composed into World
	Scale         mgl32.Vec3
	Rotation      mgl32.Mat4
	PivotRotation mgl32.Mat4
	Pivot         mgl32.Mat4

	Positions    []mgl32.Vec3
	Normals      []mgl32.Vec3
	TexCoords    []mgl32.Vec2
	Faces        []Face
	Edges        [][2]int
	SmoothGroups [SmoothGroupCount][]int
	ClothHints   []ClothHint

	MaterialIndex int // Format A only, -1 otherwise
	Weights       []WeightGroup

	Offset int
}

func newMesh(index int, format Format, offset int) *Mesh {
	return &Mesh{
		Index:         index,
		Format:        format,
		Parent:        -1,
		ParentIndex:   NoParentIndex,
		World:         mgl32.Ident4(),
		Local:         mgl32.Ident4(),
		Scale:         mgl32.Vec3{1, 1, 1},
		Rotation:      mgl32.Ident4(),
		PivotRotation: mgl32.Ident4(),
		Pivot:         mgl32.Ident4(),
		MaterialIndex: -1,
		Offset:        offset,
	}
}

func (m *Mesh) HasGeometry() bool {
	return m.Kind == MeshGeometry
}

// MaterialName is the derived name of the material bound by index.
func (m *Mesh) MaterialName() string {
	if m.MaterialIndex < 0 {
		return ""
	}
	return MaterialName(uint32(m.MaterialIndex))
}

func (m *Mesh) ScaleMatrix() mgl32.Mat4 {
	return mgl32.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
}

func (m *Mesh) WorldTranslation() mgl32.Vec3 {
	return m.World.Col(3).Vec3()
}

// Cloth groups vertex hints the way the exporter meant them:
// pinned and colliding sets, and stiffness weights of 1 - b.
func (m *Mesh) Cloth() ClothGroups {
	var cg ClothGroups
	stiff := make(map[float32]int)
	for i, h := range m.ClothHints {
		if h.Pin > 0 {
			cg.Pinned = append(cg.Pinned, i)
		}
		if h.Collision > 0 {
			cg.Colliding = append(cg.Colliding, i)
		}
		w := 1 - h.Stiffness
		if w > 0 {
			bi, ok := stiff[w]
			if !ok {
				bi = len(cg.Stiffness)
				stiff[w] = bi
				cg.Stiffness = append(cg.Stiffness, WeightBucket{Weight: w})
			}
			cg.Stiffness[bi].Vertices = append(cg.Stiffness[bi].Vertices, i)
		}
	}
	return cg
}

// Vertex group names used by the exporter's tooling.
const (
	ClothPinGroup       = "z_cloth_pin"
	ClothCollisionGroup = "z_cloth_collision"
	ClothStiffnessGroup = "z_cloth_stiff"
)

func SmoothGroupName(index int) string {
	return fmt.Sprintf("z_smooth.%03d", index)
}

// VertexGroup is a named selection of positions with per bucket weights.
type VertexGroup struct {
	Name    string
	Buckets []WeightBucket
}

// VertexGroups returns the cloth selections followed by the smoothing
// groups in index order. Empty selections are left out.
func (m *Mesh) VertexGroups() []VertexGroup {
	var groups []VertexGroup
	cloth := m.Cloth()
	if len(cloth.Pinned) != 0 {
		groups = append(groups, VertexGroup{
			Name:    ClothPinGroup,
			Buckets: []WeightBucket{{Weight: 1, Vertices: cloth.Pinned}},
		})
	}
	if len(cloth.Colliding) != 0 {
		groups = append(groups, VertexGroup{
			Name:    ClothCollisionGroup,
			Buckets: []WeightBucket{{Weight: 1, Vertices: cloth.Colliding}},
		})
	}
	if len(cloth.Stiffness) != 0 {
		groups = append(groups, VertexGroup{Name: ClothStiffnessGroup, Buckets: cloth.Stiffness})
	}
	for i, vertices := range m.SmoothGroups {
		if len(vertices) != 0 {
			groups = append(groups, VertexGroup{
				Name:    SmoothGroupName(i),
				Buckets: []WeightBucket{{Weight: 1, Vertices: vertices}},
			})
		}
	}
	return groups
}

// HasCloth reports whether the exporter stored cloth hints for the mesh.
func (m *Mesh) HasCloth() bool {
	return len(m.ClothHints) != 0
}

// Weights maps every grouped position to its weight.
func (g *VertexGroup) Weights() map[int]float32 {
	r := make(map[int]float32)
	for _, b := range g.Buckets {
		for _, v := range b.Vertices {
			r[v] = b.Weight
		}
	}
	return r
}

// WeightGroup returns the group of a bone by name.
func (m *Mesh) WeightGroup(bone string) (*WeightGroup, bool) {
	for i := range m.Weights {
		if m.Weights[i].Bone == bone {
			return &m.Weights[i], true
		}
	}
	return nil, false
}

// Unit cube with edges only. Format B has no bone record, joints are stored as empty meshes.
var (
	placeholderCorners = []mgl32.Vec3{
		{-0.5, 0.5, -0.5},
		{-0.5, 0.5, 0.5},
		{0.5, 0.5, 0.5},
		{0.5, 0.5, -0.5},
		{-0.5, -0.5, -0.5},
		{-0.5, -0.5, 0.5},
		{0.5, -0.5, 0.5},
		{0.5, -0.5, -0.5},
	}
	placeholderEdges = [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
)

func (m *Mesh) makeJointPlaceholder() {
	m.Kind = MeshJointPlaceholder
	m.IsBone = true
	m.Positions = append([]mgl32.Vec3(nil), placeholderCorners...)
	m.Edges = append([][2]int(nil), placeholderEdges...)
	m.Normals = nil
	m.TexCoords = nil
	m.Faces = nil
}

// weightGroups keeps bone -> weight -> vertices in first occurrence order.
type weightGroups struct {
	groups  []WeightGroup
	bones   map[string]int
	buckets []map[float32]int
	dedup   bool
}

func newWeightGroups(dedup bool) *weightGroups {
	return &weightGroups{
		bones: make(map[string]int),
		dedup: dedup,
	}
}

func (wg *weightGroups) add(bone string, boneIndex int, weight float32, vertex int) {
	gi, ok := wg.bones[bone]
	if !ok {
		gi = len(wg.groups)
		wg.bones[bone] = gi
		wg.groups = append(wg.groups, WeightGroup{Bone: bone, BoneIndex: boneIndex})
		wg.buckets = append(wg.buckets, make(map[float32]int))
	}
	g := &wg.groups[gi]

	bi, ok := wg.buckets[gi][weight]
	if !ok {
		bi = len(g.Buckets)
		wg.buckets[gi][weight] = bi
		g.Buckets = append(g.Buckets, WeightBucket{Weight: weight})
	}
	b := &g.Buckets[bi]

	// vertices arrive in ascending order, so a repeat can only be the last one
	if wg.dedup && len(b.Vertices) != 0 && b.Vertices[len(b.Vertices)-1] == vertex {
		return
	}
	b.Vertices = append(b.Vertices, vertex)
}

func (wg *weightGroups) result() []WeightGroup {
	return wg.groups
}
