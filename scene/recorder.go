package scene

import (
	"fmt"
	"strings"

	"github.com/zlabs/elu_browser/elu"
)

// Call is one recorded sink invocation.
type Call struct {
	Method string
	Name   string
	Handle Handle
	Args   []Handle
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(int(a))
	}
	return fmt.Sprintf("%s(%q %s) = %d", c.Method, c.Name, strings.Join(args, " "), int(c.Handle))
}

// Recorder is a Sink that only remembers what it was asked to do.
// Texture paths for which Exists returns true are resolved, all of them when Exists is nil.
type Recorder struct {
	Calls  []Call
	Exists func(path string) bool
	// texture handle -> resolved path
	Images map[Handle]string

	next  Handle
	names map[Kind]map[string]Handle
}

func NewRecorder() *Recorder {
	return &Recorder{
		Images: make(map[Handle]string),
		names:  make(map[Kind]map[string]Handle),
	}
}

func (r *Recorder) add(kind Kind, method, name string, args ...Handle) Handle {
	h := r.next
	r.next++
	r.Calls = append(r.Calls, Call{Method: method, Name: name, Handle: h, Args: args})
	if _, ok := r.names[kind]; !ok {
		r.names[kind] = make(map[string]Handle)
	}
	if _, ok := r.names[kind][name]; !ok {
		r.names[kind][name] = h
	}
	return h
}

func (r *Recorder) Lookup(kind Kind, name string) (Handle, bool) {
	h, ok := r.names[kind][name]
	return h, ok
}

func (r *Recorder) ResolveTexture(name string, candidates []string) (Handle, bool) {
	for _, c := range candidates {
		if r.Exists == nil || r.Exists(c) {
			h := r.add(KindTexture, "ResolveTexture", name)
			r.Images[h] = c
			return h, true
		}
	}
	return NoHandle, false
}

func (r *Recorder) CreateMaterial(name string, mat *elu.Material, image Handle) (Handle, error) {
	return r.add(KindMaterial, "CreateMaterial", name, image), nil
}

func (r *Recorder) CreateMesh(name string, mesh *elu.Mesh, material Handle) (Handle, error) {
	return r.add(KindMesh, "CreateMesh", name, material), nil
}

func (r *Recorder) LinkParent(child, parent Handle) error {
	r.Calls = append(r.Calls, Call{Method: "LinkParent", Handle: NoHandle, Args: []Handle{child, parent}})
	return nil
}

func (r *Recorder) CreateSkeleton(name string) (Handle, error) {
	return r.add(KindSkeleton, "CreateSkeleton", name), nil
}

func (r *Recorder) CreateJoint(skeleton Handle, joint *elu.Joint, parent Handle) (Handle, error) {
	return r.add(KindJoint, "CreateJoint", joint.Name, skeleton, parent), nil
}

func (r *Recorder) BindSkin(mesh, skeleton Handle, weights []JointWeights) error {
	args := []Handle{mesh, skeleton}
	for _, w := range weights {
		args = append(args, w.Joint)
	}
	r.Calls = append(r.Calls, Call{Method: "BindSkin", Handle: NoHandle, Args: args})
	return nil
}

// Methods lists recorded method names in call order.
func (r *Recorder) Methods() []string {
	m := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		m[i] = c.Method
	}
	return m
}
