package sb3

import "strconv"

// NodeID is an opaque block identifier. Scratch only requires IDs to be
// unique strings within one target's blocks map; nothing about their shape
// is meaningful, and nothing about them is guaranteed stable across
// recompilations (spec Non-goals).
type NodeID int

func (id NodeID) String() string {
	return strconv.Itoa(int(id))
}

// IDFactory mints NodeIDs unique within one target. Reset between targets —
// IDs never need to be unique across the whole project, only within the
// sprite currently being emitted (spec 4.1).
type IDFactory struct {
	next NodeID
}

func NewIDFactory() *IDFactory {
	return &IDFactory{}
}

// New mints the next unique ID for the current target.
func (f *IDFactory) New() NodeID {
	id := f.next
	f.next++
	return id
}

// Reset rewinds the factory for a new target frame.
func (f *IDFactory) Reset() {
	f.next = 0
}
