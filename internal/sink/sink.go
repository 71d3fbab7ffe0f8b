// Package sink bridges golang.org/x/net/html's finished parse tree into the
// arena DOM. x/net/html performs full HTML5 tokenization, tree construction,
// and error recovery itself and does not expose a token-level tree-sink
// callback interface (the way some other HTML5 parser implementations do);
// ParseDocument and ParseFragment instead convert the tree it hands back
// in a single recursive pass,
// which gives the same observable contract §4.1 describes: interning,
// Stem-wrapped attribute values, first-attribute-wins, and in-place
// adjacent-text merging.
package sink

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/bearcove/hotmeal/internal/arena"
	"github.com/bearcove/hotmeal/internal/names"
)

// ParseDocument parses a complete HTML document per HTML5 tree construction
// and converts it into a fresh arena Document. Always succeeds; malformed
// input is recovered per the HTML5 spec, matching §7's "never raised".
func ParseDocument(htmlBytes []byte) (*arena.Document, error) {
	root, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, fmt.Errorf("sink: parse: %w", err)
	}
	doc := arena.NewDocument()
	buildChildren(doc.Arena, doc.Root, root)
	return doc, nil
}

// ParseFragment parses an HTML fragment (no implicit html/body wrapper) in
// a body context and converts the resulting node list into a fresh arena
// Document whose root holds the fragment's top-level nodes as children.
func ParseFragment(htmlBytes []byte) (*arena.Document, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(htmlBytes), context)
	if err != nil {
		return nil, fmt.Errorf("sink: parse fragment: %w", err)
	}
	doc := arena.NewDocument()
	for _, n := range nodes {
		appendConverted(doc.Arena, doc.Root, n)
	}
	return doc, nil
}

func buildChildren(a *arena.Arena, parent arena.NodeId, htmlParent *html.Node) {
	for c := htmlParent.FirstChild; c != nil; c = c.NextSibling {
		appendConverted(a, parent, c)
	}
}

// appendConverted converts a single x/net/html node (and, for elements, its
// subtree) and attaches it as the next child of parent, merging into an
// existing trailing text child when the new node is also text.
func appendConverted(a *arena.Arena, parent arena.NodeId, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if last := a.Node(parent).LastChild; last != arena.NoNode && a.Node(last).Kind == arena.KindText {
			a.AppendText(last, n.Data)
			return
		}
		id := a.AllocText(names.NewStem(n.Data))
		a.Append(parent, id)

	case html.CommentNode:
		id := a.AllocComment(names.NewStem(n.Data))
		a.Append(parent, id)

	case html.DoctypeNode:
		pub, sys := doctypeIDs(n)
		id := a.AllocDoctype(names.NewStem(n.Data), pub, sys)
		a.Append(parent, id)

	case html.ElementNode:
		tag := names.QualName{NS: elemNS(n.Namespace), Local: names.Intern(n.Data)}
		id := a.AllocElement(tag)
		seen := make(map[names.QualName]bool, len(n.Attr))
		for _, at := range n.Attr {
			qn := attrQualName(at)
			if seen[qn] {
				continue // first binding for a given qualified name wins
			}
			seen[qn] = true
			a.SetAttr(id, qn, names.NewStem(at.Val))
		}
		a.Append(parent, id)
		buildChildren(a, id, n)

	default:
		// html.DocumentNode / html.ErrorNode nested inside a fragment:
		// no payload of our own, just descend.
		buildChildren(a, parent, n)
	}
}

func doctypeIDs(n *html.Node) (public, system names.Stem) {
	for _, at := range n.Attr {
		switch at.Key {
		case "public":
			public = names.NewStem(at.Val)
		case "system":
			system = names.NewStem(at.Val)
		}
	}
	return public, system
}

func elemNS(ns string) names.Namespace {
	switch ns {
	case "svg":
		return names.NSSVG
	case "math":
		return names.NSMathML
	default:
		return names.NSHTML
	}
}

func attrQualName(at html.Attribute) names.QualName {
	switch at.Namespace {
	case "xlink":
		return names.QualName{Prefix: names.Intern("xlink"), NS: names.NSXLink, Local: names.Intern(at.Key)}
	case "xml":
		return names.QualName{Prefix: names.Intern("xml"), NS: names.NSXML, Local: names.Intern(at.Key)}
	case "xmlns":
		if at.Key == "xmlns" {
			return names.QualName{NS: names.NSXMLNS, Local: names.Intern("xmlns")}
		}
		return names.QualName{Prefix: names.Intern("xmlns"), NS: names.NSXMLNS, Local: names.Intern(at.Key)}
	default:
		return names.QualName{NS: names.NSHTML, Local: names.Intern(at.Key)}
	}
}
