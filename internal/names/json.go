package names

import (
	"encoding/json"
	"fmt"
)

// ParseNamespace parses the wire string form of a Namespace.
func ParseNamespace(s string) (Namespace, bool) {
	switch s {
	case "html":
		return NSHTML, true
	case "svg":
		return NSSVG, true
	case "mathml":
		return NSMathML, true
	case "xlink":
		return NSXLink, true
	case "xml":
		return NSXML, true
	case "xmlns":
		return NSXMLNS, true
	}
	return 0, false
}

type qualNameWire struct {
	Prefix *string `json:"prefix"`
	NS     string  `json:"ns"`
	Local  string  `json:"local"`
}

// MarshalJSON implements the stable wire shape
// {"prefix":string|null,"ns":string,"local":string}.
func (q QualName) MarshalJSON() ([]byte, error) {
	var prefix *string
	if q.Prefix != nil {
		s := q.Prefix.String()
		prefix = &s
	}
	return json.Marshal(qualNameWire{Prefix: prefix, NS: q.NS.String(), Local: q.Local.String()})
}

// UnmarshalJSON parses the wire shape and interns Prefix/Local.
func (q *QualName) UnmarshalJSON(data []byte) error {
	var w qualNameWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ns, ok := ParseNamespace(w.NS)
	if !ok {
		return fmt.Errorf("names: unknown namespace %q", w.NS)
	}
	var prefix *LocalName
	if w.Prefix != nil {
		prefix = Intern(*w.Prefix)
	}
	*q = QualName{Prefix: prefix, NS: ns, Local: Intern(w.Local)}
	return nil
}
