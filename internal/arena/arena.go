package arena

import "github.com/bearcove/hotmeal/internal/names"

// Arena owns all nodes of one document in a single flat vector. Nodes are
// never moved once allocated; NodeId is stable for the node's lifetime.
// A detached node's slot may be tombstoned and reused by a later Alloc
// call — this is an implementation choice, not an observable guarantee.
type Arena struct {
	nodes []Node
	free  []NodeId
}

// New creates an empty Arena.
func New() *Arena {
	return &Arena{nodes: make([]Node, 0, 64)}
}

// Document owns an Arena and the NodeId of its document root.
type Document struct {
	Arena *Arena
	Root  NodeId
}

// NewDocument creates a Document whose arena contains only a fresh Document
// root node.
func NewDocument() *Document {
	a := New()
	root := a.alloc(Node{Kind: KindDocument})
	return &Document{Arena: a, Root: root}
}

func (a *Arena) alloc(n Node) NodeId {
	n.Parent = NoNode
	n.FirstChild = NoNode
	n.LastChild = NoNode
	n.PrevSibling = NoNode
	n.NextSibling = NoNode
	if len(a.free) > 0 {
		id := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		a.nodes[id] = n
		return id
	}
	a.nodes = append(a.nodes, n)
	return NodeId(len(a.nodes) - 1)
}

// Len returns the number of node slots allocated in the arena (including
// tombstoned ones), used to size auxiliary per-node arrays.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Node returns a pointer to the node stored at id. The pointer is only
// valid until the next Alloc-triggering call on this Arena (append growth
// may move the backing array); callers needing to hold a reference across
// mutations should re-fetch by id.
func (a *Arena) Node(id NodeId) *Node {
	return &a.nodes[id]
}

// AllocElement creates a detached element node.
func (a *Arena) AllocElement(tag names.QualName) NodeId {
	return a.alloc(Node{Kind: KindElement, Tag: tag})
}

// AllocText creates a detached text node.
func (a *Arena) AllocText(s names.Stem) NodeId {
	return a.alloc(Node{Kind: KindText, Text: s})
}

// AllocComment creates a detached comment node.
func (a *Arena) AllocComment(s names.Stem) NodeId {
	return a.alloc(Node{Kind: KindComment, Text: s})
}

// AllocDoctype creates a detached doctype node.
func (a *Arena) AllocDoctype(name, publicID, systemID names.Stem) NodeId {
	return a.alloc(Node{Kind: KindDoctype, DoctypeName: name, PublicID: publicID, SystemID: systemID})
}

// AllocPI creates a detached processing-instruction node.
func (a *Arena) AllocPI(target, data names.Stem) NodeId {
	return a.alloc(Node{Kind: KindPI, PITarget: target, PIData: data})
}

// Append attaches child as the last child of parent. child must currently
// be parentless. O(1); updates child's cached index.
func (a *Arena) Append(parent, child NodeId) {
	p := a.Node(parent)
	c := a.Node(child)
	if c.Parent != NoNode {
		panic("arena: Append of a node that already has a parent")
	}
	c.Parent = parent
	c.PrevSibling = p.LastChild
	c.NextSibling = NoNode
	if p.LastChild != NoNode {
		a.Node(p.LastChild).NextSibling = child
		c.ChildIndex = a.Node(p.LastChild).ChildIndex + 1
	} else {
		p.FirstChild = child
		c.ChildIndex = 0
	}
	p.LastChild = child
}

// InsertBefore attaches new as the immediate predecessor of anchor within
// anchor's parent. new must currently be parentless; anchor must have a
// parent. Shifts the cached child-index of anchor and every later sibling.
func (a *Arena) InsertBefore(anchor, newNode NodeId) {
	anc := a.Node(anchor)
	parent := anc.Parent
	if parent == NoNode {
		panic("arena: InsertBefore anchor has no parent")
	}
	n := a.Node(newNode)
	if n.Parent != NoNode {
		panic("arena: InsertBefore of a node that already has a parent")
	}

	prev := anc.PrevSibling
	n.Parent = parent
	n.PrevSibling = prev
	n.NextSibling = anchor
	if prev != NoNode {
		a.Node(prev).NextSibling = newNode
	} else {
		a.Node(parent).FirstChild = newNode
	}
	anc.PrevSibling = newNode
	n.ChildIndex = anc.ChildIndex

	// shift anchor and everyone after it
	for cur := anchor; cur != NoNode; cur = a.Node(cur).NextSibling {
		a.Node(cur).ChildIndex++
	}
}

// Detach removes node from its parent's child list; node's own subtree is
// left intact, merely parentless. Splices siblings and fixes up the cached
// index of every sibling that followed it.
func (a *Arena) Detach(node NodeId) {
	n := a.Node(node)
	if n.Parent == NoNode {
		return
	}
	parent := a.Node(n.Parent)
	if n.PrevSibling != NoNode {
		a.Node(n.PrevSibling).NextSibling = n.NextSibling
	} else {
		parent.FirstChild = n.NextSibling
	}
	if n.NextSibling != NoNode {
		a.Node(n.NextSibling).PrevSibling = n.PrevSibling
	} else {
		parent.LastChild = n.PrevSibling
	}

	for cur := n.NextSibling; cur != NoNode; cur = a.Node(cur).NextSibling {
		a.Node(cur).ChildIndex--
	}

	n.Parent = NoNode
	n.PrevSibling = NoNode
	n.NextSibling = NoNode
	n.ChildIndex = 0
}

// Children returns node's children in order. O(k) in child count.
func (a *Arena) Children(node NodeId) []NodeId {
	var out []NodeId
	for c := a.Node(node).FirstChild; c != NoNode; c = a.Node(c).NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildCount returns the number of children of node. O(k).
func (a *Arena) ChildCount(node NodeId) int {
	n := 0
	for c := a.Node(node).FirstChild; c != NoNode; c = a.Node(c).NextSibling {
		n++
	}
	return n
}

// ChildAt returns the i'th child of node by sibling walk. O(i); most call
// sites should prefer Position on an already-held NodeId instead.
func (a *Arena) ChildAt(node NodeId, i int) (NodeId, bool) {
	c := a.Node(node).FirstChild
	for ; c != NoNode && i > 0; i-- {
		c = a.Node(c).NextSibling
	}
	if c == NoNode {
		return NoNode, false
	}
	return c, true
}

// Position returns node's cached rank among its parent's children. O(1).
func (a *Arena) Position(node NodeId) int {
	return a.Node(node).ChildIndex
}

// SetText replaces a text or comment node's contents in place, preserving
// identity.
func (a *Arena) SetText(node NodeId, s names.Stem) {
	n := a.Node(node)
	if n.Kind != KindText && n.Kind != KindComment {
		panic("arena: SetText on a node that is neither text nor comment")
	}
	n.Text = s
}

// AppendText merges a text fragment into an existing text node in place —
// the operation the tree-sink adapter uses to coalesce adjacent text
// tokens without a new allocation per fragment.
func (a *Arena) AppendText(node NodeId, frag string) {
	n := a.Node(node)
	if n.Kind != KindText {
		panic("arena: AppendText on a non-text node")
	}
	n.Text.Append(frag)
}

// GetAttr looks up an attribute by qualified name. Linear in attribute
// count, which the spec allows given typical element attribute counts.
func (a *Arena) GetAttr(node NodeId, name names.QualName) (names.Stem, bool) {
	n := a.Node(node)
	for i := range n.Attrs {
		if n.Attrs[i].Name.Equal(name) {
			return n.Attrs[i].Value, true
		}
	}
	return names.Stem{}, false
}

// SetAttr inserts name=value at the end of node's attribute list if absent,
// or replaces the value in place (preserving position) if present.
func (a *Arena) SetAttr(node NodeId, name names.QualName, value names.Stem) {
	n := a.Node(node)
	for i := range n.Attrs {
		if n.Attrs[i].Name.Equal(name) {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr removes every binding matching name (normally at most one,
// since SetAttr replaces in place and the sink adapter and applier skip
// duplicate names when building an element).
func (a *Arena) RemoveAttr(node NodeId, name names.QualName) {
	n := a.Node(node)
	out := n.Attrs[:0]
	for _, at := range n.Attrs {
		if !at.Name.Equal(name) {
			out = append(out, at)
		}
	}
	n.Attrs = out
}

// CloneDocument returns a deep, independent copy of doc: same tree shape,
// same payload on every node, but backed by its own Arena so mutating the
// clone (e.g. via Apply) never touches the original.
func CloneDocument(doc *Document) *Document {
	src := doc.Arena
	dst := New()
	ids := make([]NodeId, src.Len())
	for i := range ids {
		n := src.Node(NodeId(i))
		cp := *n
		cp.Parent, cp.FirstChild, cp.LastChild, cp.PrevSibling, cp.NextSibling = NoNode, NoNode, NoNode, NoNode, NoNode
		cp.ChildIndex = 0
		if n.Attrs != nil {
			cp.Attrs = append([]Attr(nil), n.Attrs...)
		}
		ids[i] = dst.alloc(cp)
	}
	var walk func(srcParent NodeId)
	walk = func(srcParent NodeId) {
		for _, c := range src.Children(srcParent) {
			dst.Append(ids[srcParent], ids[c])
			walk(c)
		}
	}
	walk(doc.Root)
	return &Document{Arena: dst, Root: ids[doc.Root]}
}

// Free tombstones node's slot for reuse. Callers must ensure node has
// already been detached and its subtree is no longer referenced.
func (a *Arena) Free(node NodeId) {
	n := a.Node(node)
	n.reset()
	a.free = append(a.free, node)
}
