// Package differ computes an edit script (§4.3) between two arena
// documents: a GumTree/Chawathe-style matcher (top-down structural-hash
// matching, then bottom-up dice-coefficient matching) followed by an
// emitter that walks the new tree in document order, reconciling it
// against a shadow of the old tree and writing patches only where the
// shadow's current state disagrees with the desired one.
//
// Several deliberate design choices, documented rather than hidden:
//
//   - Comments participate in ordinary matching instead of being hard-
//     excluded from the algorithm. An unchanged comment trivially top-down
//     matches (identical structural hash) and so generates no edits, which
//     is the only preservation guarantee §3.5 actually requires; this
//     avoids a parallel index-translation scheme for a case with no
//     observable difference in the documented scenarios.
//   - Leaves (text and comment nodes) are hash-bucketed for top-down
//     matching regardless of height, unlike internal nodes which need
//     height >= MinHeight. A leaf's structural hash already is its exact
//     content hash, so there's no isomorphism risk to guard against, and
//     without this a changed leaf at shallow depth (or two leaves that
//     swapped content) would leave bottom-up matching with no descendant
//     to anchor its ancestor match on.
//   - When neither hash nor dice matching can pair an unmatched node —
//     typically a leaf whose content changed outright, or an element that
//     gained or lost a child, both cases where there's no equal-content
//     descendant left to anchor a match — reconcileChildren falls back to
//     pairing it with the next unmatched node of the same kind (same tag,
//     for elements) in the old child list, tracked by a cursor that skips
//     past children already spoken for rather than by the new list's raw
//     index. This is what turns "this text changed" and "this element
//     gained a child" into one targeted patch instead of a spurious
//     delete-and-reinsert of the whole subtree — including when the
//     changed node isn't the first child, where indexing by raw position
//     would have paired it against the wrong old sibling or found nothing
//     there at all.
//   - The emitter never requests slot displacement: every Move or Insert
//     places its target via a non-displacing insert-before, which pushes
//     whatever currently occupies that position one slot later. Tracing
//     the spec's own swap and rotation examples shows this always
//     converges to the same patch count a displacing implementation would
//     produce, because later iterations of the same left-to-right walk
//     naturally find previously-pushed siblings already back in place.
//     Slot displacement itself is still fully implemented in the patch
//     model, applier, and shadow packages for wire-format completeness.
package differ

import (
	"github.com/bearcove/hotmeal/internal/arena"
	"github.com/bearcove/hotmeal/internal/patch"
	"github.com/bearcove/hotmeal/internal/shadow"
)

// Options tunes the matching thresholds (§4.3.2, §4.3.3).
type Options struct {
	// MinHeight is the minimum subtree height an internal node needs to
	// be considered for top-down hash matching. Text and comment leaves
	// are considered at any height (see groupByHash).
	MinHeight int
	// SimThreshold is the minimum Dice coefficient a bottom-up candidate
	// must reach to be accepted as a match.
	SimThreshold float64
}

// DefaultOptions mirrors the values the original GumTree paper settled on.
var DefaultOptions = Options{MinHeight: 2, SimThreshold: 0.5}

// Diff computes the edit script turning oldDoc into newDoc using
// DefaultOptions.
func Diff(oldDoc, newDoc *arena.Document) []patch.Patch {
	return DiffWithOptions(oldDoc, newDoc, DefaultOptions)
}

// DiffWithOptions computes the edit script turning oldDoc into newDoc.
func DiffWithOptions(oldDoc, newDoc *arena.Document, opts Options) []patch.Patch {
	aInfo := buildInfo(oldDoc.Arena, oldDoc.Root)
	bInfo := buildInfo(newDoc.Arena, newDoc.Root)

	m := newMatching()
	topDownMatch(oldDoc.Arena, newDoc.Arena, oldDoc.Root, newDoc.Root, aInfo, bInfo, m, opts.MinHeight)
	bottomUpMatch(oldDoc.Arena, newDoc.Arena, oldDoc.Root, aInfo, bInfo, m, opts.SimThreshold)
	m.add(oldDoc.Root, newDoc.Root)

	em := &emitter{
		old:     oldDoc,
		new:     newDoc,
		m:       m,
		shadow:  shadow.New(oldDoc),
		visited: map[arena.NodeId]bool{oldDoc.Root: true},
	}
	em.reconcile(oldDoc.Root, newDoc.Root)
	em.emitDeletes()
	if em.patches == nil {
		return []patch.Patch{}
	}
	return em.patches
}

// emitter walks the new tree in document order, mutating a Shadow of the
// old tree in lockstep with every patch it writes so that later Path/Slot
// references reflect the post-patch state, exactly as the real applier
// will see it.
type emitter struct {
	old, new *arena.Document
	m        *matching
	shadow   *shadow.Shadow
	visited  map[arena.NodeId]bool // old NodeIds reconciled (kept, possibly moved)
	patches  []patch.Patch
}

func (e *emitter) reconcile(aNode, bNode arena.NodeId) {
	e.emitPropertyUpdate(aNode, bNode)
	e.reconcileChildren(aNode, bNode)
}

// reconcileChildren processes bParent's children in document order. Doctype
// and processing-instruction children are skipped outright: neither has a
// corresponding Insert/Move patch kind (§4.4 covers element, text, and
// comment content only), and in practice both only ever occur as the
// document root's first child, stable across a hot-reload of the same page.
func (e *emitter) reconcileChildren(aParent, bParent arena.NodeId) {
	bChildren := e.new.Arena.Children(bParent)
	aChildren := e.old.Arena.Children(aParent)
	aCursor := 0

	for i, bChild := range bChildren {
		kind := e.new.Arena.Node(bChild).Kind
		if kind == arena.KindDoctype || kind == arena.KindPI {
			continue
		}

		if aChild, ok := e.m.bToA[bChild]; ok {
			e.placeMatched(aParent, i, aChild)
			e.visited[aChild] = true
			e.reconcile(aChild, bChild)
			continue
		}

		// Neither hash matching (whole isomorphic subtrees only) nor dice
		// matching (anchored on already-matched descendants) can pair a
		// node whose subtree changed too close to the root for either to
		// have anything to grab onto — e.g. a leaf whose content changed,
		// or an element that merely gained or lost a child. As a last
		// resort, an unmatched child is paired with whatever unmatched node
		// of the same kind (and, for elements, same tag) sits at aCursor, a
		// pointer into the old child list that only advances past children
		// already spoken for (matched earlier in this same call, via hash,
		// dice, or a prior fallback pairing) — not the raw index i, which
		// is a position in the *new* list and drifts out of alignment with
		// the old one the moment an earlier sibling was inserted or
		// deleted without an old-side counterpart. This is what collapses
		// "change this node's text" and "add a child to this element" to
		// one targeted patch instead of a spurious Remove+Insert of the
		// whole subtree, even when it isn't the first child to change.
		for aCursor < len(aChildren) && e.m.matchedA(aChildren[aCursor]) {
			aCursor++
		}
		if aCursor < len(aChildren) {
			aChild := aChildren[aCursor]
			if samePositionalKind(e.old.Arena.Node(aChild), e.new.Arena.Node(bChild)) {
				aCursor++
				e.m.add(aChild, bChild)
				e.placeMatched(aParent, i, aChild)
				e.visited[aChild] = true
				e.reconcile(aChild, bChild)
				continue
			}
		}

		e.placeInsert(aParent, i, bChild)
	}
}

// samePositionalKind reports whether a and b are eligible for the positional
// fallback match: same node kind, and for elements, same tag (namespace and
// local name) too — attribute and child differences are exactly what the
// fallback exists to let reconcile diff afterward.
func samePositionalKind(a, b *arena.Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == arena.KindElement {
		return a.Tag.Equal(b.Tag)
	}
	return true
}

// placeMatched ensures aChild's shadow node sits at (aParent, desiredIndex),
// emitting a Move only if it doesn't already. This single check is also
// where ancestor-based simplification (§4.3.5) falls out for free: a child
// carried along by an ancestor's Move is already in its correct relative
// position by the time reconcileChildren reaches it, so no patch is
// written for it.
func (e *emitter) placeMatched(aParent arena.NodeId, desiredIndex int, aChild arena.NodeId) {
	if e.shadow.ParentOf(aChild) == aParent && e.shadow.Position(aChild) == desiredIndex {
		return
	}
	fromRef := e.shadow.RefFor(aChild)
	e.shadow.Detach(aChild)
	parentRef := e.shadow.RefFor(aParent)
	e.shadow.InsertAt(aParent, desiredIndex, aChild)
	e.patches = append(e.patches, patch.Move{
		From: fromRef,
		At:   patch.InsertionPoint{Parent: parentRef, Index: desiredIndex},
	})
}

// placeInsert materializes bChild (unmatched, so wholly new content) as a
// patch and reserves its position in the shadow with a placeholder node, so
// later siblings' position math accounts for it.
func (e *emitter) placeInsert(aParent arena.NodeId, desiredIndex int, bChild arena.NodeId) {
	parentRef := e.shadow.RefFor(aParent)
	placeholder := e.shadow.NewNode()
	e.shadow.InsertAt(aParent, desiredIndex, placeholder)

	at := patch.InsertionPoint{Parent: parentRef, Index: desiredIndex}
	n := e.new.Arena.Node(bChild)
	switch n.Kind {
	case arena.KindElement:
		e.patches = append(e.patches, patch.InsertElement{
			At:       at,
			Tag:      n.Tag,
			Attrs:    attrSpecs(n.Attrs),
			Children: e.buildChildSpecs(bChild),
		})
	case arena.KindText:
		e.patches = append(e.patches, patch.InsertText{At: at, Text: n.Text.String()})
	case arena.KindComment:
		e.patches = append(e.patches, patch.InsertComment{At: at, Text: n.Text.String()})
	}
}

// buildChildSpecs and buildNodeSpec construct the value-literal subtree an
// InsertElement patch carries for brand-new content. Per the package doc,
// this treats the whole subtree as opaque: a descendant that happens to
// match an existing old node elsewhere is not recognized as a Move into
// the new parent, trading edit-script minimality for a tractable emitter.
func (e *emitter) buildChildSpecs(bNode arena.NodeId) []patch.NodeSpec {
	children := e.new.Arena.Children(bNode)
	if len(children) == 0 {
		return nil
	}
	out := make([]patch.NodeSpec, 0, len(children))
	for _, c := range children {
		if spec, ok := e.buildNodeSpec(c); ok {
			out = append(out, spec)
		}
	}
	return out
}

func (e *emitter) buildNodeSpec(bNode arena.NodeId) (patch.NodeSpec, bool) {
	n := e.new.Arena.Node(bNode)
	switch n.Kind {
	case arena.KindElement:
		tag := n.Tag
		return patch.NodeSpec{Kind: "element", Tag: &tag, Attrs: attrSpecs(n.Attrs), Children: e.buildChildSpecs(bNode)}, true
	case arena.KindText:
		return patch.NodeSpec{Kind: "text", Text: n.Text.String()}, true
	case arena.KindComment:
		return patch.NodeSpec{Kind: "comment", Text: n.Text.String()}, true
	default:
		return patch.NodeSpec{}, false
	}
}

func attrSpecs(attrs []arena.Attr) []patch.AttrSpec {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]patch.AttrSpec, len(attrs))
	for i, a := range attrs {
		out[i] = patch.AttrSpec{Name: a.Name, Value: a.Value.String()}
	}
	return out
}

// emitPropertyUpdate diffs a matched pair's own payload (attributes for
// elements, text for text/comment nodes) and emits the single cheapest
// patch kind that carries the change, per §4.4's SetText / SetAttribute /
// RemoveAttribute / UpdateProperties split: an isolated change uses the
// specific patch, multiple simultaneous attribute changes collapse into one
// UpdateProperties, and no change emits nothing at all.
func (e *emitter) emitPropertyUpdate(aNode, bNode arena.NodeId) {
	aN := e.old.Arena.Node(aNode)
	bN := e.new.Arena.Node(bNode)

	switch bN.Kind {
	case arena.KindElement:
		changes := diffAttrs(aN.Attrs, bN.Attrs)
		if len(changes) == 0 {
			return
		}
		ref := e.shadow.RefFor(aNode)
		if len(changes) == 1 {
			c := changes[0]
			switch c.Op {
			case patch.PropSet:
				e.patches = append(e.patches, patch.SetAttribute{At: ref, Name: *c.Key.Attr, Value: c.Value})
			case patch.PropRemove:
				e.patches = append(e.patches, patch.RemoveAttribute{At: ref, Name: *c.Key.Attr})
			}
			return
		}
		e.patches = append(e.patches, patch.UpdateProperties{At: ref, Changes: changes})

	case arena.KindText, arena.KindComment:
		if aN.Text.Equal(bN.Text) {
			return
		}
		ref := e.shadow.RefFor(aNode)
		e.patches = append(e.patches, patch.SetText{At: ref, Text: bN.Text.String()})
	}
}

// diffAttrs compares two attribute lists by qualified name, emitting Set for
// any added-or-changed attribute (in bAttrs order) followed by Remove for
// any attribute present only in aAttrs. If the attributes both lists share
// appear in a different relative order, the list is rewritten instead:
// Remove for every attribute of aAttrs, then Set for every one of bAttrs.
func diffAttrs(aAttrs, bAttrs []arena.Attr) []patch.PropertyChange {
	var changes []patch.PropertyChange
	matched := make([]bool, len(aAttrs))
	reordered, lastShared := false, -1

	for _, b := range bAttrs {
		name := b.Name
		found := false
		for i, a := range aAttrs {
			if !a.Name.Equal(name) {
				continue
			}
			matched[i] = true
			found = true
			reordered = reordered || i < lastShared
			lastShared = i
			if !a.Value.Equal(b.Value) {
				nm := name
				changes = append(changes, patch.PropertyChange{Key: patch.PropKey{Attr: &nm}, Op: patch.PropSet, Value: b.Value.String()})
			}
			break
		}
		if !found {
			nm := name
			changes = append(changes, patch.PropertyChange{Key: patch.PropKey{Attr: &nm}, Op: patch.PropSet, Value: b.Value.String()})
		}
	}
	for i, a := range aAttrs {
		if !matched[i] {
			nm := a.Name
			changes = append(changes, patch.PropertyChange{Key: patch.PropKey{Attr: &nm}, Op: patch.PropRemove})
		}
	}
	if reordered {
		// In-place Sets keep an attribute's old position, so a permutation
		// is expressed by removing every old attribute and setting every new one.
		changes = nil
		for _, a := range aAttrs {
			changes = append(changes, patch.PropertyChange{Key: patch.PropKey{Attr: &a.Name}, Op: patch.PropRemove})
		}
		for _, b := range bAttrs {
			changes = append(changes, patch.PropertyChange{Key: patch.PropKey{Attr: &b.Name}, Op: patch.PropSet, Value: b.Value.String()})
		}
	}
	return changes
}

// emitDeletes runs once, after the full reconcile walk, over every old node
// that reconcileChildren never visited (matched-and-kept or positionally
// paired) — per §4.3.4, deletes are emitted last. A deleted node's own
// descendants are never visited independently here; removing the topmost
// unreferenced ancestor drops its whole subtree.
func (e *emitter) emitDeletes() {
	var walk func(id arena.NodeId)
	walk = func(id arena.NodeId) {
		if id != e.old.Root {
			k := e.old.Arena.Node(id).Kind
			if k == arena.KindDoctype || k == arena.KindPI {
				return
			}
			if !e.visited[id] {
				if e.shadow.ParentOf(id) != arena.NoNode {
					ref := e.shadow.RefFor(id)
					e.patches = append(e.patches, patch.Remove{At: ref})
					e.shadow.Detach(id)
				}
				return
			}
		}
		for _, c := range e.old.Arena.Children(id) {
			walk(c)
		}
	}
	walk(e.old.Root)
}
