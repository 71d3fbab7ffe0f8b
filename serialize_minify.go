package hotmeal

import (
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	return m
}

// SerializeMinified renders doc to HTML and minifies the result — the mode
// hotmealsrv's production-preview flag uses, trading readability for
// payload size on the initial page load (patches pushed afterward are
// unaffected; they carry only the changed fragments).
func SerializeMinified(doc *Document) (string, error) {
	full := Serialize(doc)
	var out strings.Builder
	if err := minifier.Minify("text/html", &out, strings.NewReader(full)); err != nil {
		return "", err
	}
	return out.String(), nil
}
