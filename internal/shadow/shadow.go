// Package shadow simulates the applier's view of the arena while the differ
// is still emitting patches (§4.5): a structure-only mirror of the old
// document that the emitter mutates in lockstep with every patch it writes,
// so that Path and Slot node references and slot numbers can be computed
// correctly without running the real applier.
package shadow

import (
	"github.com/bearcove/hotmeal/internal/arena"
	"github.com/bearcove/hotmeal/internal/names"
	"github.com/bearcove/hotmeal/internal/patch"
)

// Shadow mirrors the old document's shape in a private arena, plus the
// slot table the emitter populates as it displaces nodes out of the way.
type Shadow struct {
	tree     *arena.Arena
	root     arena.NodeId
	slots    map[int]arena.NodeId
	nextSlot int
}

// New builds a Shadow whose structure mirrors doc exactly: one shadow node
// per real node, same parent/child/sibling shape and cached indices. Only
// structure is copied — payload (tag, text, attrs) is irrelevant to the
// emitter, which only ever asks the shadow "where is this node now".
func New(doc *arena.Document) *Shadow {
	src := doc.Arena
	n := src.Len()
	dst := arena.New()
	ids := make([]arena.NodeId, n)
	for i := 0; i < n; i++ {
		ids[i] = dst.AllocElement(names.QualName{})
	}

	var walk func(srcParent arena.NodeId)
	walk = func(srcParent arena.NodeId) {
		for _, c := range src.Children(srcParent) {
			dst.Append(ids[srcParent], ids[c])
			walk(c)
		}
	}
	walk(doc.Root)

	return &Shadow{tree: dst, root: ids[doc.Root], slots: make(map[int]arena.NodeId)}
}

// Root returns the shadow id of the document root.
func (s *Shadow) Root() arena.NodeId { return s.root }

// NewNode allocates a fresh, detached shadow node standing in for content
// the differ is about to insert.
func (s *Shadow) NewNode() arena.NodeId {
	return s.tree.AllocElement(names.QualName{})
}

// ChildCount mirrors arena.Arena.ChildCount for the shadow tree.
func (s *Shadow) ChildCount(parent arena.NodeId) int {
	return s.tree.ChildCount(parent)
}

// ChildAt mirrors arena.Arena.ChildAt for the shadow tree.
func (s *Shadow) ChildAt(parent arena.NodeId, i int) (arena.NodeId, bool) {
	return s.tree.ChildAt(parent, i)
}

// Position mirrors arena.Arena.Position for the shadow tree.
func (s *Shadow) Position(node arena.NodeId) int {
	return s.tree.Position(node)
}

// ParentOf returns the shadow node's current parent, or arena.NoNode if it
// is detached (either freshly allocated or parked in a slot).
func (s *Shadow) ParentOf(node arena.NodeId) arena.NodeId {
	return s.tree.Node(node).Parent
}

// Detach removes node from its current parent, mirroring what the real
// applier will do when a Move patch's source resolves to it.
func (s *Shadow) Detach(node arena.NodeId) {
	s.tree.Detach(node)
}

// InsertAt places node as parent's index'th child, mirroring the
// applier's non-displacing insertAt: it pushes whatever currently occupies
// that slot (and everyone after it) one position later rather than losing
// it.
func (s *Shadow) InsertAt(parent arena.NodeId, index int, node arena.NodeId) {
	if existing, ok := s.tree.ChildAt(parent, index); ok {
		s.tree.InsertBefore(existing, node)
	} else {
		s.tree.Append(parent, node)
	}
}

// Displace detaches the current occupant of (parent, index), if any, parks
// it in a freshly allocated slot, and reports that slot number. The
// emitter's common path never calls this (see the differ package doc), but
// it is kept so the shadow model stays faithful to the full patch
// vocabulary the applier must support.
func (s *Shadow) Displace(parent arena.NodeId, index int) (int, bool) {
	occ, ok := s.tree.ChildAt(parent, index)
	if !ok {
		return 0, false
	}
	s.tree.Detach(occ)
	slot := s.nextSlot
	s.nextSlot++
	s.slots[slot] = occ
	return slot, true
}

// ConsumeSlot clears slot n's bookkeeping entry once the emitter has
// written a Move whose source names it directly.
func (s *Shadow) ConsumeSlot(n int) {
	delete(s.slots, n)
}

// RefFor computes the patch.NodeRef that currently addresses node: a Path
// if it is reachable from the shadow root, or a Slot ref rooted at whatever
// parked subtree it currently sits under.
func (s *Shadow) RefFor(node arena.NodeId) patch.NodeRef {
	var rev []int
	cur := node
	for {
		p := s.tree.Node(cur).Parent
		if p == arena.NoNode {
			break
		}
		rev = append(rev, s.tree.Position(cur))
		cur = p
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	if cur == s.root {
		return patch.PathRef(rev...)
	}
	for slotNum, id := range s.slots {
		if id == cur {
			return patch.SlotRef(slotNum, rev...)
		}
	}
	// cur is detached but not (yet) slot-tracked — a freshly allocated
	// node the emitter hasn't attached anywhere yet. Callers never ask
	// for a ref in that state; this is a defensive fallback only.
	return patch.PathRef(rev...)
}
