// Package arena implements the flat, cache-friendly DOM storage Hotmeal
// diffs and patches operate over: a single node vector per document, with
// doubly-linked sibling lists and a cached child-index maintained by every
// mutation.
package arena

import "github.com/bearcove/hotmeal/internal/names"

// NodeId is a dense index into an Arena's node vector.
type NodeId int32

// NoNode is the sentinel meaning "no node" (absent parent, sibling, etc).
// It is -1, not the zero NodeId, which is a valid index.
const NoNode NodeId = -1

// Kind tags the variant a Node holds.
type Kind uint8

const (
	KindDocument Kind = iota
	KindDoctype
	KindElement
	KindText
	KindComment
	KindPI
	tombstoneKind // internal: slot has been freed
)

// Attr is one ordered (name, value) binding on an element.
type Attr struct {
	Name  names.QualName
	Value names.Stem
}

// Node is a tagged-union DOM node stored by value in the Arena's vector.
// Only the fields relevant to Kind are meaningful; the rest are zero.
type Node struct {
	Kind Kind

	// Element
	Tag   names.QualName // NS + Local meaningful; Prefix unused for tags
	Attrs []Attr         // ordered; lookup is linear, see arena.GetAttr

	// Text / Comment
	Text names.Stem

	// Doctype
	DoctypeName, PublicID, SystemID names.Stem

	// ProcessingInstruction
	PITarget, PIData names.Stem

	// tree links
	Parent, FirstChild, LastChild, PrevSibling, NextSibling NodeId

	// cached position among Parent's children; kept in sync by every
	// mutation that changes a child's rank. See Arena.Position.
	ChildIndex int
}

func (n *Node) reset() {
	*n = Node{Kind: tombstoneKind, Parent: NoNode, FirstChild: NoNode, LastChild: NoNode, PrevSibling: NoNode, NextSibling: NoNode}
}
