// Package patch defines the patch language Hotmeal emits from a diff and
// applies against a live arena: compact operations targeting nodes by a
// stable Path from the document root or a transient Slot holding a
// detached subtree, per §4.4.
package patch

import (
	"encoding/json"
	"fmt"
)

// RefKind discriminates the two ways a patch can name a node.
type RefKind uint8

const (
	RefPath RefKind = iota
	RefSlot
)

// NodeRef targets a node either by descending from the document root by
// child index (Path) or by descending from a parked subtree (Slot).
type NodeRef struct {
	Kind RefKind
	Slot int // meaningful only when Kind == RefSlot
	Path []int
}

// PathRef builds a Path node reference.
func PathRef(indices ...int) NodeRef {
	if indices == nil {
		indices = []int{}
	}
	return NodeRef{Kind: RefPath, Path: indices}
}

// SlotRef builds a Slot node reference rooted at parked subtree n.
func SlotRef(n int, indices ...int) NodeRef {
	if indices == nil {
		indices = []int{}
	}
	return NodeRef{Kind: RefSlot, Slot: n, Path: indices}
}

// MarshalJSON implements the wire shapes {"Path":[...]} and
// {"Slot":[n,[...]]}.
func (r NodeRef) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefPath:
		return json.Marshal(map[string][]int{"Path": r.Path})
	case RefSlot:
		return json.Marshal(map[string][]interface{}{"Slot": {r.Slot, r.Path}})
	default:
		return nil, fmt.Errorf("patch: invalid NodeRef kind %d", r.Kind)
	}
}

// UnmarshalJSON parses either wire shape.
func (r *NodeRef) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if p, ok := raw["Path"]; ok {
		var path []int
		if err := json.Unmarshal(p, &path); err != nil {
			return err
		}
		*r = NodeRef{Kind: RefPath, Path: path}
		return nil
	}
	if s, ok := raw["Slot"]; ok {
		var tuple []json.RawMessage
		if err := json.Unmarshal(s, &tuple); err != nil {
			return err
		}
		if len(tuple) != 2 {
			return fmt.Errorf("patch: Slot ref must have 2 elements, got %d", len(tuple))
		}
		var n int
		if err := json.Unmarshal(tuple[0], &n); err != nil {
			return err
		}
		var path []int
		if err := json.Unmarshal(tuple[1], &path); err != nil {
			return err
		}
		*r = NodeRef{Kind: RefSlot, Slot: n, Path: path}
		return nil
	}
	return fmt.Errorf("patch: NodeRef JSON has neither Path nor Slot key")
}

// String renders a debug form, e.g. "Path[0 1 0]" or "Slot(3)[0]".
func (r NodeRef) String() string {
	if r.Kind == RefSlot {
		return fmt.Sprintf("Slot(%d)%v", r.Slot, r.Path)
	}
	return fmt.Sprintf("Path%v", r.Path)
}
