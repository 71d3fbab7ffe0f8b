// Package hotmeal is the public entry point for the diff/patch engine a
// hot-reload development server drives on every source change: parse a
// document, diff two revisions of it, apply the resulting patches to a
// live copy, and serialize back to HTML.
package hotmeal

import (
	"github.com/bearcove/hotmeal/internal/applier"
	"github.com/bearcove/hotmeal/internal/arena"
	"github.com/bearcove/hotmeal/internal/differ"
	"github.com/bearcove/hotmeal/internal/patch"
	"github.com/bearcove/hotmeal/internal/sink"
)

// Document is a parsed, mutable HTML tree. The zero value is not usable;
// obtain one via Parse or ParseFragment.
type Document struct {
	doc *arena.Document
}

// Patch is one step of an edit script, as produced by Diff and consumed by
// Apply. Its concrete shape is private; callers that need to transport it
// across a process boundary should use MarshalPatches / UnmarshalPatches.
type Patch = patch.Patch

// Options tunes the differ's matching thresholds. The zero value is not
// valid; use DefaultOptions or a value derived from it.
type Options = differ.Options

// DefaultOptions mirrors the thresholds the reference GumTree matcher uses.
var DefaultOptions = differ.DefaultOptions

// Parse parses a complete HTML document.
func Parse(htmlBytes []byte) (*Document, error) {
	d, err := sink.ParseDocument(htmlBytes)
	if err != nil {
		return nil, err
	}
	return &Document{doc: d}, nil
}

// ParseFragment parses an HTML fragment as it would appear inside <body>.
func ParseFragment(htmlBytes []byte) (*Document, error) {
	d, err := sink.ParseFragment(htmlBytes)
	if err != nil {
		return nil, err
	}
	return &Document{doc: d}, nil
}

// Clone returns a deep, independent copy of doc, suitable for Apply-ing
// patches to without disturbing the original (Diff's old-document argument
// is never mutated, but Apply's target document always is).
func (d *Document) Clone() *Document {
	return &Document{doc: arena.CloneDocument(d.doc)}
}

// Diff computes the edit script that turns oldDoc into newDoc using
// DefaultOptions. Neither document is mutated.
func Diff(oldDoc, newDoc *Document) []Patch {
	return differ.DiffWithOptions(oldDoc.doc, newDoc.doc, DefaultOptions)
}

// DiffWithOptions computes the edit script that turns oldDoc into newDoc.
func DiffWithOptions(oldDoc, newDoc *Document, opts Options) []Patch {
	return differ.DiffWithOptions(oldDoc.doc, newDoc.doc, opts)
}

// Apply executes patches against doc in place.
func Apply(doc *Document, patches []Patch) error {
	return applier.Apply(doc.doc, patches)
}

// Serialize renders doc back to HTML.
func Serialize(doc *Document) string {
	return arena.Serialize(doc.doc)
}

// MarshalPatches encodes an edit script to its wire JSON form.
func MarshalPatches(patches []Patch) ([]byte, error) {
	return patch.MarshalPatches(patches)
}

// UnmarshalPatches decodes an edit script from its wire JSON form.
func UnmarshalPatches(data []byte) ([]Patch, error) {
	return patch.UnmarshalPatches(data)
}
