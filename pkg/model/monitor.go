package model

// MonitorLink associates a thread with a monitor at a given frame index.
// Links are identified by thread only.
type MonitorLink struct {
	Monitor    *MonitorState
	Thread     *ThreadRecord
	FrameIndex int
	Kind       FrameKind
}

// LinkSet is an insertion-ordered set of links keyed by thread identity.
type LinkSet struct {
	links []*MonitorLink
	index map[*ThreadRecord]int
}

func newLinkSet() *LinkSet {
	return &LinkSet{index: make(map[*ThreadRecord]int)}
}

// Add inserts the link unless a link for the same thread is already present.
// It reports whether the link was inserted.
func (s *LinkSet) Add(link *MonitorLink) bool {
	if _, ok := s.index[link.Thread]; ok {
		return false
	}
	s.index[link.Thread] = len(s.links)
	s.links = append(s.links, link)
	return true
}

// Contains reports whether the set holds a link for the thread.
func (s *LinkSet) Contains(thread *ThreadRecord) bool {
	_, ok := s.index[thread]
	return ok
}

// Get returns the link for the thread, if any.
func (s *LinkSet) Get(thread *ThreadRecord) (*MonitorLink, bool) {
	i, ok := s.index[thread]
	if !ok {
		return nil, false
	}
	return s.links[i], true
}

// Links returns the links in insertion order.
func (s *LinkSet) Links() []*MonitorLink {
	return s.links
}

// Len returns the number of links.
func (s *LinkSet) Len() int {
	return len(s.links)
}

// MonitorState records which threads own and wait on one monitor.
type MonitorState struct {
	ID      string
	Owners  *LinkSet
	Waiters *LinkSet
}

// NewMonitorState creates an empty monitor state.
func NewMonitorState(id string) *MonitorState {
	return &MonitorState{
		ID:      id,
		Owners:  newLinkSet(),
		Waiters: newLinkSet(),
	}
}

// References reports whether the thread owns or waits on the monitor.
func (m *MonitorState) References(thread *ThreadRecord) bool {
	return m.Owners.Contains(thread) || m.Waiters.Contains(thread)
}

// IsContended reports whether some thread waits on the monitor while another owns it.
func (m *MonitorState) IsContended() bool {
	if m.Owners.Len() == 0 || m.Waiters.Len() == 0 {
		return false
	}
	for _, w := range m.Waiters.Links() {
		for _, o := range m.Owners.Links() {
			if o.Thread != w.Thread {
				return true
			}
		}
	}
	return false
}

// MonitorRegistry maps monitor ids to their state, keeping first-seen order.
type MonitorRegistry struct {
	monitors map[string]*MonitorState
	order    []string
}

// NewMonitorRegistry creates an empty registry.
func NewMonitorRegistry() *MonitorRegistry {
	return &MonitorRegistry{monitors: make(map[string]*MonitorState)}
}

// BuildMonitorRegistry walks threads in order, and each thread's frames in
// stack order, recording an owner link for every lock frame and a waiter
// link for every wait frame.
func BuildMonitorRegistry(threads []*ThreadRecord) *MonitorRegistry {
	r := NewMonitorRegistry()
	for _, t := range threads {
		r.addThread(t)
	}
	return r
}

func (r *MonitorRegistry) addThread(t *ThreadRecord) {
	for i, f := range t.Frames {
		if !f.IsMonitor() {
			continue
		}
		m := r.getOrCreate(f.MonitorID)
		link := &MonitorLink{Monitor: m, Thread: t, FrameIndex: i, Kind: f.Kind}
		if f.Kind == FrameKindLock {
			m.Owners.Add(link)
		} else {
			m.Waiters.Add(link)
		}
	}
}

func (r *MonitorRegistry) getOrCreate(id string) *MonitorState {
	if m, ok := r.monitors[id]; ok {
		return m
	}
	m := NewMonitorState(id)
	r.monitors[id] = m
	r.order = append(r.order, id)
	return m
}

// Get returns the monitor with the given id.
func (r *MonitorRegistry) Get(id string) (*MonitorState, bool) {
	m, ok := r.monitors[id]
	return m, ok
}

// Monitors returns all monitors in first-seen order.
func (r *MonitorRegistry) Monitors() []*MonitorState {
	out := make([]*MonitorState, len(r.order))
	for i, id := range r.order {
		out[i] = r.monitors[id]
	}
	return out
}

// Len returns the number of monitors.
func (r *MonitorRegistry) Len() int {
	return len(r.order)
}
