package surface

import "sync"

// Mutation describes one change to a mount's children.
type Mutation struct {
	Added   []Element
	Removed []Element
	// Size is the number of children after the change.
	Size int
}

// Mount is the rendering surface a preview engine draws into.
type Mount interface {
	// Append adds children at the end.
	Append(els ...Element)
	// Replace swaps all children for els in a single mutation.
	Replace(els ...Element)
	// Clear removes all children.
	Clear()
	// Children returns a snapshot of the current children.
	Children() []Element
	// Observe registers fn for every later mutation. The returned function
	// disconnects the observer and may be called more than once.
	Observe(fn func(Mutation)) (disconnect func())
	// HTML renders the current children.
	HTML() string
}

// Node is an in-memory Mount. It is safe for concurrent use; observers are
// invoked outside the node's lock, in mutation order per caller.
type Node struct {
	mu        sync.Mutex
	children  []Element
	observers map[uint64]func(Mutation)
	nextID    uint64
}

// NewNode returns an empty mount node.
func NewNode() *Node {
	return &Node{observers: make(map[uint64]func(Mutation))}
}

func (n *Node) Append(els ...Element) {
	if len(els) == 0 {
		return
	}
	n.mu.Lock()
	n.children = append(n.children, els...)
	m := Mutation{Added: append([]Element(nil), els...), Size: len(n.children)}
	obs := n.snapshotObservers()
	n.mu.Unlock()

	notify(obs, m)
}

func (n *Node) Replace(els ...Element) {
	n.mu.Lock()
	removed := n.children
	n.children = append([]Element(nil), els...)
	m := Mutation{Added: append([]Element(nil), els...), Removed: removed, Size: len(n.children)}
	obs := n.snapshotObservers()
	n.mu.Unlock()

	if len(removed) == 0 && len(els) == 0 {
		return
	}
	notify(obs, m)
}

func (n *Node) Clear() {
	n.Replace()
}

func (n *Node) Children() []Element {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Element(nil), n.children...)
}

func (n *Node) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.children)
}

func (n *Node) Observe(fn func(Mutation)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.observers[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.observers, id)
			n.mu.Unlock()
		})
	}
}

// Observers returns the number of connected observers.
func (n *Node) Observers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.observers)
}

func (n *Node) HTML() string {
	return RenderAll(n.Children())
}

func (n *Node) snapshotObservers() []func(Mutation) {
	obs := make([]func(Mutation), 0, len(n.observers))
	for _, fn := range n.observers {
		obs = append(obs, fn)
	}
	return obs
}

func notify(obs []func(Mutation), m Mutation) {
	for _, fn := range obs {
		fn(m)
	}
}
