package session

// Entry is one registered peer.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Registry maps peer ids to display names in registration order.
type Registry struct {
	entries []Entry
	index   map[int]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[int]int)}
}

// Put registers a peer. Registering an id again renames it in place.
func (r *Registry) Put(id int, name string) {
	if i, ok := r.index[id]; ok {
		r.entries[i].Name = name
		return
	}
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, Entry{ID: id, Name: name})
}

// Remove drops a peer and reports whether it was registered.
func (r *Registry) Remove(id int) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].ID] = j
	}
	return true
}

func (r *Registry) Name(id int) (string, bool) {
	i, ok := r.index[id]
	if !ok {
		return "", false
	}
	return r.entries[i].Name, true
}

func (r *Registry) Len() int { return len(r.entries) }

// Entries returns the peers in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns display names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

func (r *Registry) Clear() {
	r.entries = nil
	r.index = make(map[int]int)
}
