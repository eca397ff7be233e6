package elu

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

type Joint struct {
	Name     string
	Mesh     int
	Parent   int // joint index, -1 for roots
	Children []int
	Head     mgl32.Vec3
	Tail     mgl32.Vec3
}

// Skeleton is built from the bone meshes of a scene.
type Skeleton struct {
	Joints []Joint
	// regular geometry meshes deformed by the skeleton
	Skinned []int

	jointByMesh map[int]int
}

// JointOf returns the joint standing for a mesh.
func (sk *Skeleton) JointOf(mesh int) (int, bool) {
	j, ok := sk.jointByMesh[mesh]
	return j, ok
}

func (sk *Skeleton) Roots() []int {
	var roots []int
	for i := range sk.Joints {
		if sk.Joints[i].Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// JointByName resolves a weight group bone name to a joint.
func (sk *Skeleton) JointByName(name string) (int, bool) {
	for i := range sk.Joints {
		if sk.Joints[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// resolveParents links every mesh to an earlier mesh. Format A refers
// to parents by name, Format B by positional index.
func (d *decoder) resolveParents() {
	s := d.scene
	for i, m := range s.Meshes {
		d.mesh = i

		parent := -1
		switch m.Format {
		case FormatA:
			if m.ParentName != "" {
				if p, ok := s.meshByName[m.ParentName]; ok {
					parent = p
				} else {
					d.warn(WarnUnresolvedParent, m.Offset, "parent %q of %q not found", m.ParentName, m.Name)
				}
			}
		case FormatB:
			if m.ParentIndex != NoParentIndex {
				if int64(m.ParentIndex) < int64(i) {
					parent = int(m.ParentIndex)
				} else {
					d.warn(WarnUnresolvedParent, m.Offset, "parent index %d of %q is not an earlier mesh", m.ParentIndex, m.Name)
				}
			}
		}

		if parent >= 0 {
			m.Parent = parent
			s.Meshes[parent].Children = append(s.Meshes[parent].Children, i)
		}

		switch {
		case m.Format == FormatA && parent >= 0:
			m.Local = s.Meshes[parent].World.Inv().Mul4(m.World)
		case m.Format == FormatA:
			m.Local = m.World
		case parent >= 0:
			m.World = s.Meshes[parent].World.Mul4(m.Local)
		default:
			m.World = m.Local
		}

		if _, dup := s.meshByName[m.Name]; dup {
			d.warn(WarnDuplicateName, m.Offset, "mesh name %q already used", m.Name)
		} else {
			s.meshByName[m.Name] = i
		}
	}
	d.mesh = -1
}

func isJointMesh(m *Mesh) bool {
	return m.IsBone && m.Kind != MeshEmpty
}

func (d *decoder) jointName(m *Mesh) string {
	if d.version < Version500E {
		return m.Name
	}
	return strconv.Itoa(m.Index)
}

// buildSkeleton turns bone meshes into joints and lists the meshes they deform.
func (d *decoder) buildSkeleton() {
	s := d.scene
	sk := &Skeleton{jointByMesh: make(map[int]int)}
	tail := d.opts.boneTail()

	for i, m := range s.Meshes {
		if !isJointMesh(m) {
			continue
		}
		head := m.WorldTranslation()
		j := Joint{
			Name:   d.jointName(m),
			Mesh:   i,
			Parent: -1,
			Head:   head,
			Tail:   head.Add(tail),
		}
		ji := len(sk.Joints)

		if m.Parent >= 0 {
			if pj, ok := sk.jointByMesh[m.Parent]; ok {
				j.Parent = pj
				sk.Joints[pj].Children = append(sk.Joints[pj].Children, ji)
				if boneChildren(s, m.Parent) == 1 {
					sk.Joints[pj].Tail = head
				}
			}
		}

		sk.jointByMesh[i] = ji
		sk.Joints = append(sk.Joints, j)
	}

	if len(sk.Joints) == 0 {
		return
	}

	for i, m := range s.Meshes {
		if m.Kind != MeshGeometry || m.IsBone {
			continue
		}
		sk.Skinned = append(sk.Skinned, i)
		if m.Parent < 0 {
			m.AttachedToSkeleton = true
		}
	}

	d.trace.Printf("skeleton: %d joints, %d skinned meshes", len(sk.Joints), len(sk.Skinned))
	s.Skeleton = sk
}

func boneChildren(s *Scene, mesh int) int {
	n := 0
	for _, c := range s.Meshes[mesh].Children {
		if isJointMesh(s.Meshes[c]) {
			n++
		}
	}
	return n
}
