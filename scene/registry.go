package scene

// Registry deduplicates entities by derived name for one Materialize call.
// Entities the sink already holds win over new ones.
type Registry struct {
	sink    Sink
	handles map[Kind]map[string]Handle
}

func NewRegistry(sink Sink) *Registry {
	return &Registry{
		sink:    sink,
		handles: make(map[Kind]map[string]Handle),
	}
}

func (r *Registry) Get(kind Kind, name string) (Handle, bool) {
	if h, ok := r.handles[kind][name]; ok {
		return h, true
	}
	if r.sink != nil {
		if h, ok := r.sink.Lookup(kind, name); ok {
			r.put(kind, name, h)
			return h, true
		}
	}
	return NoHandle, false
}

// Put records h unless the name is taken, and returns the handle that owns the name.
func (r *Registry) Put(kind Kind, name string, h Handle) Handle {
	if existing, ok := r.handles[kind][name]; ok {
		return existing
	}
	r.put(kind, name, h)
	return h
}

func (r *Registry) put(kind Kind, name string, h Handle) {
	m, ok := r.handles[kind]
	if !ok {
		m = make(map[string]Handle)
		r.handles[kind] = m
	}
	m[name] = h
}

func (r *Registry) Len(kind Kind) int {
	return len(r.handles[kind])
}
