package arena

import (
	"strings"

	"github.com/bearcove/hotmeal/internal/names"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var rawTextElements = map[string]bool{
	"script": true, "style": true, "textarea": true, "title": true,
	"pre": true, "noscript": true, "xmp": true, "iframe": true,
	"noframes": true, "noembed": true,
}

// Serialize walks doc's arena and emits HTML. The result round-trips: Parse
// of Serialize(doc) re-serializes to exactly the same bytes.
func Serialize(doc *Document) string {
	var b strings.Builder
	a := doc.Arena
	for c := a.Node(doc.Root).FirstChild; c != NoNode; c = a.Node(c).NextSibling {
		serializeNode(&b, a, c, false)
	}
	return b.String()
}

func serializeNode(b *strings.Builder, a *Arena, id NodeId, parentIsRaw bool) {
	n := a.Node(id)
	switch n.Kind {
	case KindDoctype:
		serializeDoctype(b, n)
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Text.String())
		b.WriteString("-->")
	case KindPI:
		b.WriteString("<?")
		b.WriteString(n.PITarget.String())
		b.WriteByte(' ')
		b.WriteString(n.PIData.String())
		b.WriteString("?>")
	case KindText:
		if parentIsRaw {
			b.WriteString(n.Text.String())
		} else {
			escapeText(b, n.Text.String())
		}
	case KindElement:
		serializeElement(b, a, id, n)
	}
}

func serializeElement(b *strings.Builder, a *Arena, id NodeId, n *Node) {
	local := n.Tag.Local.String()
	b.WriteByte('<')
	b.WriteString(local)
	for _, at := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(attrName(at.Name))
		b.WriteString(`="`)
		escapeAttrValue(b, at.Value.String())
		b.WriteByte('"')
	}
	b.WriteByte('>')

	if voidElements[local] && n.Tag.NS == names.NSHTML {
		return
	}

	raw := rawTextElements[local] && n.Tag.NS == names.NSHTML
	for c := n.FirstChild; c != NoNode; c = a.Node(c).NextSibling {
		serializeNode(b, a, c, raw)
	}

	b.WriteString("</")
	b.WriteString(local)
	b.WriteByte('>')
}

func attrName(q names.QualName) string {
	if q.Prefix != nil {
		return q.Prefix.String() + ":" + q.Local.String()
	}
	return q.Local.String()
}

func serializeDoctype(b *strings.Builder, n *Node) {
	b.WriteString("<!DOCTYPE ")
	b.WriteString(n.DoctypeName.String())
	if !n.PublicID.IsZero() {
		b.WriteString(` PUBLIC "`)
		b.WriteString(n.PublicID.String())
		b.WriteByte('"')
	}
	if !n.SystemID.IsZero() {
		b.WriteString(` SYSTEM "`)
		b.WriteString(n.SystemID.String())
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

func escapeText(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
}

func escapeAttrValue(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
}
