package lodclient

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// EmbeddedScript is one inline RDF <script> body discovered in an
// HTML document.
type EmbeddedScript struct {
	MimeType string
	Body     string
}

// Signposting is what discoverViaHTML needs from one HTML document:
// every <link rel="describedby"> href and every embedded RDF <script>
// body, in document order.
type Signposting struct {
	Links   []string
	Scripts []EmbeddedScript
}

// parseSignposting tokenizes r, a streaming scan per the spec's
// "streaming parser" requirement (no DOM is built).
//
// Grounded on travharv/web_discovery.py's LODAwareHTMLParser, ported
// from Python's html.parser callbacks to golang.org/x/net/html's
// pull-style Tokenizer.
func parseSignposting(r io.Reader) (*Signposting, error) {
	z := html.NewTokenizer(r)
	sp := &Signposting{}

	var inScript bool
	var scriptType string

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return sp, err
			}
			return sp, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)

			switch tag {
			case "link":
				attrs := collectAttrs(z, hasAttr)
				if attrs["rel"] == "describedby" {
					if href, ok := attrs["href"]; ok {
						sp.Links = append(sp.Links, href)
					}
				}
			case "script":
				attrs := collectAttrs(z, hasAttr)
				if t := attrs["type"]; t == "application/ld+json" || t == "text/turtle" {
					inScript = true
					scriptType = t
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "script" {
				inScript = false
				scriptType = ""
			}

		case html.TextToken:
			if inScript {
				sp.Scripts = append(sp.Scripts, EmbeddedScript{
					MimeType: scriptType,
					Body:     strings.TrimSpace(string(z.Text())),
				})
			}
		}
	}
}

func collectAttrs(z *html.Tokenizer, hasAttr bool) map[string]string {
	attrs := make(map[string]string)
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs[string(key)] = string(val)
	}
	return attrs
}
