package applier

import (
	"testing"

	"github.com/bearcove/hotmeal/internal/arena"
	"github.com/bearcove/hotmeal/internal/names"
	"github.com/bearcove/hotmeal/internal/patch"
)

func tag(local string) names.QualName {
	return names.QualName{NS: names.NSHTML, Local: names.Intern(local)}
}

func attr(local string) names.QualName {
	return names.QualName{NS: names.NSHTML, Local: names.Intern(local)}
}

// buildDoc makes root -> div[class="a"] -> text("hi").
func buildDoc() *arena.Document {
	doc := arena.NewDocument()
	a := doc.Arena
	div := a.AllocElement(tag("div"))
	a.SetAttr(div, attr("class"), names.NewStem("a"))
	a.Append(doc.Root, div)
	txt := a.AllocText(names.NewStem("hi"))
	a.Append(div, txt)
	return doc
}

func TestApplySetText(t *testing.T) {
	doc := buildDoc()
	err := Apply(doc, []patch.Patch{
		patch.SetText{At: patch.PathRef(0, 0), Text: "bye"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	txt, _ := doc.Arena.ChildAt(doc.Root, 0)
	txt, _ = doc.Arena.ChildAt(txt, 0)
	if got := doc.Arena.Node(txt).Text.String(); got != "bye" {
		t.Fatalf("text = %q, want %q", got, "bye")
	}
}

func TestApplySetTextOnComment(t *testing.T) {
	doc := arena.NewDocument()
	a := doc.Arena
	c := a.AllocComment(names.NewStem("old"))
	a.Append(doc.Root, c)

	if err := Apply(doc, []patch.Patch{patch.SetText{At: patch.PathRef(0), Text: "new"}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := a.Node(c).Text.String(); got != "new" {
		t.Fatalf("comment text = %q, want %q", got, "new")
	}
}

func TestApplySetAttributeAndRemoveAttribute(t *testing.T) {
	doc := buildDoc()
	err := Apply(doc, []patch.Patch{
		patch.SetAttribute{At: patch.PathRef(0), Name: attr("class"), Value: "b"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	div, _ := doc.Arena.ChildAt(doc.Root, 0)
	if v, _ := doc.Arena.GetAttr(div, attr("class")); v.String() != "b" {
		t.Fatalf("class = %q, want %q", v.String(), "b")
	}

	if err := Apply(doc, []patch.Patch{patch.RemoveAttribute{At: patch.PathRef(0), Name: attr("class")}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := doc.Arena.GetAttr(div, attr("class")); ok {
		t.Fatalf("class attr should be gone")
	}
}

func TestApplyUpdateProperties(t *testing.T) {
	doc := buildDoc()
	idAttr := attr("id")
	classAttrRef := attr("class")
	err := Apply(doc, []patch.Patch{
		patch.UpdateProperties{
			At: patch.PathRef(0),
			Changes: []patch.PropertyChange{
				{Key: patch.PropKey{Attr: &idAttr}, Op: patch.PropSet, Value: "x1"},
				{Key: patch.PropKey{Attr: &classAttrRef}, Op: patch.PropRemove},
			},
		},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	div, _ := doc.Arena.ChildAt(doc.Root, 0)
	if v, ok := doc.Arena.GetAttr(div, idAttr); !ok || v.String() != "x1" {
		t.Fatalf("id attr = (%q, %v), want (\"x1\", true)", v.String(), ok)
	}
	if _, ok := doc.Arena.GetAttr(div, classAttrRef); ok {
		t.Fatalf("class attr should have been removed")
	}
}

func TestApplyInsertElementWithChildren(t *testing.T) {
	doc := buildDoc()
	spanTag := tag("span")
	err := Apply(doc, []patch.Patch{
		patch.InsertElement{
			At:    patch.InsertionPoint{Parent: patch.PathRef(0), Index: 1},
			Tag:   spanTag,
			Attrs: []patch.AttrSpec{{Name: attr("id"), Value: "new"}},
			Children: []patch.NodeSpec{
				{Kind: "text", Text: "inserted"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	div, _ := doc.Arena.ChildAt(doc.Root, 0)
	span, ok := doc.Arena.ChildAt(div, 1)
	if !ok || doc.Arena.Node(span).Tag.Local.String() != "span" {
		t.Fatalf("expected inserted <span> at index 1")
	}
	child, ok := doc.Arena.ChildAt(span, 0)
	if !ok || doc.Arena.Node(child).Text.String() != "inserted" {
		t.Fatalf("inserted span missing its text child")
	}
}

func TestApplyRemove(t *testing.T) {
	doc := buildDoc()
	if err := Apply(doc, []patch.Patch{patch.Remove{At: patch.PathRef(0)}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if doc.Arena.ChildCount(doc.Root) != 0 {
		t.Fatalf("expected root to have no children after Remove")
	}
}

func TestApplyMoveNonDisplacing(t *testing.T) {
	doc := arena.NewDocument()
	a := doc.Arena
	first := a.AllocElement(tag("p"))
	a.Append(doc.Root, first)
	second := a.AllocElement(tag("p"))
	a.Append(doc.Root, second)

	// swap: move the second <p> to index 0, pushing first to index 1
	err := Apply(doc, []patch.Patch{
		patch.Move{From: patch.PathRef(1), At: patch.InsertionPoint{Parent: patch.PathRef(), Index: 0}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	kids := a.Children(doc.Root)
	if len(kids) != 2 || kids[0] != second || kids[1] != first {
		t.Fatalf("expected swapped order [second, first], got %v (second=%d first=%d)", kids, second, first)
	}
}

func TestApplyMoveWithDisplacementIntoSlot(t *testing.T) {
	doc := arena.NewDocument()
	a := doc.Arena
	occupant := a.AllocElement(tag("p"))
	a.Append(doc.Root, occupant)
	mover := a.AllocElement(tag("span"))
	a.Append(doc.Root, mover)

	slot := 7
	err := Apply(doc, []patch.Patch{
		patch.Move{From: patch.PathRef(1), At: patch.InsertionPoint{Parent: patch.PathRef(), Index: 0}, Displace: &slot},
		patch.Move{From: patch.SlotRef(7), At: patch.InsertionPoint{Parent: patch.PathRef(), Index: 1}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	kids := a.Children(doc.Root)
	if len(kids) != 2 || kids[0] != mover || kids[1] != occupant {
		t.Fatalf("expected [mover, occupant] after displace-then-reattach, got %v", kids)
	}
}

func TestApplyPathOutOfBounds(t *testing.T) {
	doc := buildDoc()
	err := Apply(doc, []patch.Patch{patch.SetAttribute{At: patch.PathRef(5), Name: attr("class"), Value: "x"}})
	if _, ok := err.(PathOutOfBoundsError); !ok {
		t.Fatalf("expected PathOutOfBoundsError, got %v (%T)", err, err)
	}
}

func TestApplySlotMissing(t *testing.T) {
	doc := buildDoc()
	err := Apply(doc, []patch.Patch{patch.Remove{At: patch.SlotRef(9)}})
	if _, ok := err.(SlotMissingError); !ok {
		t.Fatalf("expected SlotMissingError, got %v (%T)", err, err)
	}
}

func TestApplySlotLeaked(t *testing.T) {
	doc := arena.NewDocument()
	a := doc.Arena
	occupant := a.AllocElement(tag("p"))
	a.Append(doc.Root, occupant)
	mover := a.AllocElement(tag("span"))
	a.Append(doc.Root, mover)

	slot := 1
	err := Apply(doc, []patch.Patch{
		patch.Move{From: patch.PathRef(1), At: patch.InsertionPoint{Parent: patch.PathRef(), Index: 0}, Displace: &slot},
	})
	if _, ok := err.(SlotLeakedError); !ok {
		t.Fatalf("expected SlotLeakedError when a slot is never consumed, got %v (%T)", err, err)
	}
}

func TestApplySetAttributeOnNonElementIsInvalidOperation(t *testing.T) {
	doc := buildDoc()
	div, _ := doc.Arena.ChildAt(doc.Root, 0)
	txt, _ := doc.Arena.ChildAt(div, 0)
	_ = txt
	err := Apply(doc, []patch.Patch{patch.SetAttribute{At: patch.PathRef(0, 0), Name: attr("class"), Value: "x"}})
	if _, ok := err.(InvalidOperationError); !ok {
		t.Fatalf("expected InvalidOperationError setting an attribute on a text node, got %v (%T)", err, err)
	}
}
