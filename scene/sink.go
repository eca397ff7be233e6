package scene

import (
	"fmt"

	"github.com/zlabs/elu_browser/elu"
)

// Handle is an opaque entity reference issued by a Sink.
type Handle int

const NoHandle Handle = -1

type Kind int

const (
	KindTexture Kind = iota
	KindMaterial
	KindMesh
	KindSkeleton
	KindJoint
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindMaterial:
		return "material"
	case KindMesh:
		return "mesh"
	case KindSkeleton:
		return "skeleton"
	case KindJoint:
		return "joint"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// JointWeights is one weight group resolved against the created joints.
// Joint is NoHandle when the bone is not part of the skeleton.
type JointWeights struct {
	Joint   Handle
	Bone    string
	Buckets []elu.WeightBucket
}

// Sink builds a host scene from decoded data.
// Materialize calls it in mesh file order and reads nothing back except Lookup.
type Sink interface {
	// Lookup reports an entity created earlier under the derived name.
	Lookup(kind Kind, name string) (Handle, bool)
	// ResolveTexture picks the first usable path, ok is false when no image was found.
	ResolveTexture(name string, candidates []string) (h Handle, ok bool)
	CreateMaterial(name string, mat *elu.Material, image Handle) (Handle, error)
	// CreateMesh gets placeholders and empties too, see elu.Mesh.Kind.
	CreateMesh(name string, mesh *elu.Mesh, material Handle) (Handle, error)
	LinkParent(child, parent Handle) error
	CreateSkeleton(name string) (Handle, error)
	CreateJoint(skeleton Handle, joint *elu.Joint, parent Handle) (Handle, error)
	BindSkin(mesh, skeleton Handle, weights []JointWeights) error
}
