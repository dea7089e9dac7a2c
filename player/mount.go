package player

import "sync"

// MountHandle is the reference a view attaches its mount point to before a
// session can be created.
type MountHandle struct {
	mu    sync.RWMutex
	mount Mount
}

// Attach sets the mount point.
func (h *MountHandle) Attach(m Mount) {
	h.mu.Lock()
	h.mount = m
	h.mu.Unlock()
}

// Detach clears the mount point.
func (h *MountHandle) Detach() {
	h.Attach(nil)
}

// Current returns the attached mount point, or nil.
func (h *MountHandle) Current() Mount {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mount
}

// Slot is a child node of a SlotMount.
type Slot struct {
	Mount string
	Seq   int
}

// SlotMount is an in-process mount for hosts without a document, such as a
// player window. It only tracks which child is current.
type SlotMount struct {
	name string

	mu       sync.Mutex
	seq      int
	children []*Slot
}

// NewSlotMount returns an empty mount called name.
func NewSlotMount(name string) *SlotMount {
	return &SlotMount{name: name}
}

func (m *SlotMount) Clear() {
	m.mu.Lock()
	m.children = nil
	m.mu.Unlock()
}

func (m *SlotMount) AppendChild() Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	slot := &Slot{Mount: m.name, Seq: m.seq}
	m.children = append(m.children, slot)
	return slot
}

// Children returns the attached children.
func (m *SlotMount) Children() []*Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Slot(nil), m.children...)
}
