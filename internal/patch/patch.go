package patch

import (
	"encoding/json"
	"fmt"

	"github.com/bearcove/hotmeal/internal/names"
)

// Patch is one step of an edit script. The concrete types below are the
// complete set from §4.4; Kind returns the JSON tag name used on the wire.
type Patch interface {
	Kind() string
}

// InsertionPoint names where a new or moved node lands: the index'th child
// of Parent.
type InsertionPoint struct {
	Parent NodeRef `json:"parent"`
	Index  int     `json:"index"`
}

// AttrSpec is one attribute binding used when specifying a new element's
// initial attributes.
type AttrSpec struct {
	Name  names.QualName `json:"name"`
	Value string         `json:"value"`
}

// NodeSpec describes a node to materialize — used for InsertElement's
// initial children, recursively.
type NodeSpec struct {
	Kind     string          `json:"kind"` // "element" | "text" | "comment"
	Tag      *names.QualName `json:"tag,omitempty"`
	Attrs    []AttrSpec      `json:"attrs,omitempty"`
	Text     string          `json:"text,omitempty"`
	Children []NodeSpec      `json:"children,omitempty"`
}

// PropOp is the verb a single PropertyChange performs.
type PropOp string

const (
	PropSame   PropOp = "Same"
	PropSet    PropOp = "Set"
	PropRemove PropOp = "Remove"
)

// PropKey names the property a PropertyChange targets: either the text
// payload of a text node, or a named attribute.
type PropKey struct {
	Text bool            `json:"text,omitempty"`
	Attr *names.QualName `json:"attr,omitempty"`
}

// PropertyChange is one entry of an UpdateProperties patch. A patch must
// never contain only PropSame entries — see differ's no-op suppression.
type PropertyChange struct {
	Key   PropKey `json:"key"`
	Op    PropOp  `json:"op"`
	Value string  `json:"value,omitempty"`
}

// ---- concrete patch kinds -------------------------------------------------

type SetText struct {
	At   NodeRef `json:"at"`
	Text string  `json:"text"`
}

func (SetText) Kind() string { return "SetText" }

type SetAttribute struct {
	At    NodeRef        `json:"at"`
	Name  names.QualName `json:"name"`
	Value string         `json:"value"`
}

func (SetAttribute) Kind() string { return "SetAttribute" }

type RemoveAttribute struct {
	At   NodeRef        `json:"at"`
	Name names.QualName `json:"name"`
}

func (RemoveAttribute) Kind() string { return "RemoveAttribute" }

type UpdateProperties struct {
	At      NodeRef          `json:"at"`
	Changes []PropertyChange `json:"changes"`
}

func (UpdateProperties) Kind() string { return "UpdateProperties" }

type InsertElement struct {
	At       InsertionPoint `json:"at"`
	Tag      names.QualName `json:"tag"`
	Attrs    []AttrSpec     `json:"attrs,omitempty"`
	Children []NodeSpec     `json:"children,omitempty"`
	Displace *int           `json:"displace,omitempty"`
}

func (InsertElement) Kind() string { return "InsertElement" }

type InsertText struct {
	At       InsertionPoint `json:"at"`
	Text     string         `json:"text"`
	Displace *int           `json:"displace,omitempty"`
}

func (InsertText) Kind() string { return "InsertText" }

type InsertComment struct {
	At       InsertionPoint `json:"at"`
	Text     string         `json:"text"`
	Displace *int           `json:"displace,omitempty"`
}

func (InsertComment) Kind() string { return "InsertComment" }

type Remove struct {
	At NodeRef `json:"at"`
}

func (Remove) Kind() string { return "Remove" }

type Move struct {
	From     NodeRef        `json:"from"`
	At       InsertionPoint `json:"at"`
	Displace *int           `json:"displace,omitempty"`
}

func (Move) Kind() string { return "Move" }

// ---- JSON tagged-union marshaling -----------------------------------------
//
// Each patch is a JSON object with a single key naming the kind and an
// object value, e.g. {"SetText":{"at":{"Path":[0,1,0]},"text":"hello"}}.
// Every concrete type's MarshalJSON wraps itself via a type alias (to avoid
// infinite recursion through the same method set) under its Kind() name.

func (p SetText) MarshalJSON() ([]byte, error) {
	type alias SetText
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p SetAttribute) MarshalJSON() ([]byte, error) {
	type alias SetAttribute
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p RemoveAttribute) MarshalJSON() ([]byte, error) {
	type alias RemoveAttribute
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p UpdateProperties) MarshalJSON() ([]byte, error) {
	type alias UpdateProperties
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p InsertElement) MarshalJSON() ([]byte, error) {
	type alias InsertElement
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p InsertText) MarshalJSON() ([]byte, error) {
	type alias InsertText
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p InsertComment) MarshalJSON() ([]byte, error) {
	type alias InsertComment
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p Remove) MarshalJSON() ([]byte, error) {
	type alias Remove
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

func (p Move) MarshalJSON() ([]byte, error) {
	type alias Move
	return json.Marshal(map[string]alias{p.Kind(): alias(p)})
}

// MarshalPatches encodes an ordered patch list to its wire JSON array form.
func MarshalPatches(patches []Patch) ([]byte, error) {
	return json.Marshal(patches)
}

// UnmarshalPatches decodes a wire JSON array into an ordered patch list.
func UnmarshalPatches(data []byte) ([]Patch, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Patch, 0, len(raw))
	for _, r := range raw {
		p, err := UnmarshalPatch(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UnmarshalPatch decodes a single tagged-union patch object.
func UnmarshalPatch(data []byte) (Patch, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if len(probe) != 1 {
		return nil, fmt.Errorf("patch: expected exactly one key, got %d", len(probe))
	}
	for kind, body := range probe {
		switch kind {
		case "SetText":
			var p SetText
			return p, json.Unmarshal(body, &p)
		case "SetAttribute":
			var p SetAttribute
			return p, json.Unmarshal(body, &p)
		case "RemoveAttribute":
			var p RemoveAttribute
			return p, json.Unmarshal(body, &p)
		case "UpdateProperties":
			var p UpdateProperties
			return p, json.Unmarshal(body, &p)
		case "InsertElement":
			var p InsertElement
			return p, json.Unmarshal(body, &p)
		case "InsertText":
			var p InsertText
			return p, json.Unmarshal(body, &p)
		case "InsertComment":
			var p InsertComment
			return p, json.Unmarshal(body, &p)
		case "Remove":
			var p Remove
			return p, json.Unmarshal(body, &p)
		case "Move":
			var p Move
			return p, json.Unmarshal(body, &p)
		default:
			return nil, fmt.Errorf("patch: unknown patch kind %q", kind)
		}
	}
	panic("unreachable")
}
