// Package applier executes a patch stream (§4.4) against a live arena,
// managing the slot table used to park and retrieve displaced subtrees and
// preserving the ordering and cached-index invariants the arena maintains.
package applier

import (
	"fmt"

	"github.com/bearcove/hotmeal/internal/arena"
	"github.com/bearcove/hotmeal/internal/names"
	"github.com/bearcove/hotmeal/internal/patch"
)

// Apply executes patches against doc in order. Each patch fully completes
// before the next begins. On error the arena is left partially applied;
// per §7 the caller is expected to discard and re-parse rather than retry.
func Apply(doc *arena.Document, patches []patch.Patch) error {
	slots := make(map[int]arena.NodeId)

	for _, p := range patches {
		if err := applyOne(doc, slots, p); err != nil {
			return err
		}
	}

	if len(slots) > 0 {
		leaked := make([]int, 0, len(slots))
		for n := range slots {
			leaked = append(leaked, n)
		}
		return SlotLeakedError{Slots: leaked}
	}
	return nil
}

func applyOne(doc *arena.Document, slots map[int]arena.NodeId, p patch.Patch) error {
	a := doc.Arena
	switch v := p.(type) {

	case patch.SetText:
		target, err := resolveRef(doc, slots, v.At)
		if err != nil {
			return err
		}
		if k := a.Node(target).Kind; k != arena.KindText && k != arena.KindComment {
			return InvalidOperationError{Reason: fmt.Sprintf("SetText on non-text, non-comment node %s", v.At)}
		}
		a.SetText(target, names.NewStem(v.Text))
		return nil

	case patch.SetAttribute:
		target, err := resolveRef(doc, slots, v.At)
		if err != nil {
			return err
		}
		if a.Node(target).Kind != arena.KindElement {
			return InvalidOperationError{Reason: fmt.Sprintf("SetAttribute on non-element node %s", v.At)}
		}
		a.SetAttr(target, v.Name, names.NewStem(v.Value))
		return nil

	case patch.RemoveAttribute:
		target, err := resolveRef(doc, slots, v.At)
		if err != nil {
			return err
		}
		if a.Node(target).Kind != arena.KindElement {
			return InvalidOperationError{Reason: fmt.Sprintf("RemoveAttribute on non-element node %s", v.At)}
		}
		a.RemoveAttr(target, v.Name)
		return nil

	case patch.UpdateProperties:
		target, err := resolveRef(doc, slots, v.At)
		if err != nil {
			return err
		}
		return applyPropertyChanges(a, target, v.Changes)

	case patch.InsertElement:
		return applyInsertElement(doc, slots, v)

	case patch.InsertText:
		id := a.AllocText(names.NewStem(v.Text))
		return applyInsertion(doc, slots, v.At, v.Displace, id)

	case patch.InsertComment:
		id := a.AllocComment(names.NewStem(v.Text))
		return applyInsertion(doc, slots, v.At, v.Displace, id)

	case patch.Remove:
		target, err := resolveRef(doc, slots, v.At)
		if err != nil {
			return err
		}
		a.Detach(target)
		return nil

	case patch.Move:
		return applyMove(doc, slots, v)

	default:
		return InvalidOperationError{Reason: fmt.Sprintf("unknown patch type %T", p)}
	}
}

func applyPropertyChanges(a *arena.Arena, target arena.NodeId, changes []patch.PropertyChange) error {
	for _, ch := range changes {
		if ch.Key.Text {
			if a.Node(target).Kind != arena.KindText {
				return InvalidOperationError{Reason: "text property change on non-text node"}
			}
			switch ch.Op {
			case patch.PropSame:
			case patch.PropSet:
				a.SetText(target, names.NewStem(ch.Value))
			case patch.PropRemove:
				a.SetText(target, names.NewStem(""))
			default:
				return InvalidOperationError{Reason: fmt.Sprintf("unknown property op %q", ch.Op)}
			}
			continue
		}

		if ch.Key.Attr == nil {
			return InvalidOperationError{Reason: "attribute property change missing attr key"}
		}
		if a.Node(target).Kind != arena.KindElement {
			return InvalidOperationError{Reason: "attribute property change on non-element node"}
		}
		switch ch.Op {
		case patch.PropSame:
		case patch.PropSet:
			a.SetAttr(target, *ch.Key.Attr, names.NewStem(ch.Value))
		case patch.PropRemove:
			a.RemoveAttr(target, *ch.Key.Attr)
		default:
			return InvalidOperationError{Reason: fmt.Sprintf("unknown property op %q", ch.Op)}
		}
	}
	return nil
}

func applyInsertElement(doc *arena.Document, slots map[int]arena.NodeId, v patch.InsertElement) error {
	a := doc.Arena
	id := a.AllocElement(v.Tag)
	seen := make(map[names.QualName]bool, len(v.Attrs))
	for _, at := range v.Attrs {
		if seen[at.Name] {
			continue
		}
		seen[at.Name] = true
		a.SetAttr(id, at.Name, names.NewStem(at.Value))
	}
	for _, c := range v.Children {
		child, err := buildSpecNode(a, c)
		if err != nil {
			return err
		}
		a.Append(id, child)
	}
	return applyInsertion(doc, slots, v.At, v.Displace, id)
}

func buildSpecNode(a *arena.Arena, spec patch.NodeSpec) (arena.NodeId, error) {
	switch spec.Kind {
	case "element":
		if spec.Tag == nil {
			return arena.NoNode, InvalidOperationError{Reason: "element NodeSpec missing tag"}
		}
		id := a.AllocElement(*spec.Tag)
		seen := make(map[names.QualName]bool, len(spec.Attrs))
		for _, at := range spec.Attrs {
			if seen[at.Name] {
				continue
			}
			seen[at.Name] = true
			a.SetAttr(id, at.Name, names.NewStem(at.Value))
		}
		for _, c := range spec.Children {
			child, err := buildSpecNode(a, c)
			if err != nil {
				return arena.NoNode, err
			}
			a.Append(id, child)
		}
		return id, nil
	case "text":
		return a.AllocText(names.NewStem(spec.Text)), nil
	case "comment":
		return a.AllocComment(names.NewStem(spec.Text)), nil
	default:
		return arena.NoNode, InvalidOperationError{Reason: fmt.Sprintf("unknown node spec kind %q", spec.Kind)}
	}
}

// applyInsertion resolves an insertion point, displaces any occupant to
// displaceTo if requested, and inserts node at the target position.
func applyInsertion(doc *arena.Document, slots map[int]arena.NodeId, at patch.InsertionPoint, displaceTo *int, node arena.NodeId) error {
	parent, err := resolveRef(doc, slots, at.Parent)
	if err != nil {
		return err
	}
	if err := displace(doc, slots, parent, at.Index, displaceTo); err != nil {
		return err
	}
	insertAt(doc, parent, at.Index, node)
	return nil
}

func applyMove(doc *arena.Document, slots map[int]arena.NodeId, v patch.Move) error {
	source, err := resolveMoveSource(doc, slots, v.From)
	if err != nil {
		return err
	}
	doc.Arena.Detach(source)
	return applyInsertion(doc, slots, v.At, v.Displace, source)
}

// displace detaches the current occupant of (parent, index), if any, into
// slot *slotNum. A nil slotNum means the patch did not request displacement
// — per §4.6, the occupant is then left alone and the new node is inserted
// before it.
func displace(doc *arena.Document, slots map[int]arena.NodeId, parent arena.NodeId, index int, slotNum *int) error {
	if slotNum == nil {
		return nil
	}
	occupant, ok := doc.Arena.ChildAt(parent, index)
	if !ok {
		return nil
	}
	doc.Arena.Detach(occupant)
	slots[*slotNum] = occupant
	return nil
}

func insertAt(doc *arena.Document, parent arena.NodeId, index int, node arena.NodeId) {
	if existing, ok := doc.Arena.ChildAt(parent, index); ok {
		doc.Arena.InsertBefore(existing, node)
	} else {
		doc.Arena.Append(parent, node)
	}
}

// resolveRef walks a NodeRef against the current arena state without
// consuming any slot — used for every reference that merely locates a
// node rather than takes ownership of it.
func resolveRef(doc *arena.Document, slots map[int]arena.NodeId, ref patch.NodeRef) (arena.NodeId, error) {
	var cur arena.NodeId
	if ref.Kind == patch.RefPath {
		cur = doc.Root
	} else {
		id, ok := slots[ref.Slot]
		if !ok {
			return arena.NoNode, SlotMissingError{Slot: ref.Slot}
		}
		cur = id
	}
	for depth, idx := range ref.Path {
		child, ok := doc.Arena.ChildAt(cur, idx)
		if !ok {
			return arena.NoNode, PathOutOfBoundsError{Ref: ref, Depth: depth}
		}
		cur = child
	}
	return cur, nil
}

// resolveMoveSource resolves a Move's source reference and, when that
// reference names a slot's root directly (empty remaining path), consumes
// the slot: the parked subtree is being permanently reattached, so its
// slot number must never be referenced again. A Slot ref with a non-empty
// path takes a descendant out of a still-parked subtree and leaves the
// slot itself populated.
func resolveMoveSource(doc *arena.Document, slots map[int]arena.NodeId, ref patch.NodeRef) (arena.NodeId, error) {
	id, err := resolveRef(doc, slots, ref)
	if err != nil {
		return arena.NoNode, err
	}
	if ref.Kind == patch.RefSlot && len(ref.Path) == 0 {
		delete(slots, ref.Slot)
	}
	return id, nil
}
