package lodclient

import (
	"strings"
	"testing"
)

func TestParseSignpostingLinksAndScripts(t *testing.T) {
	doc := `<!DOCTYPE html>
<html><head>
<link rel="describedby" href="https://example.org/describe.ttl" />
<link rel="stylesheet" href="/style.css" />
<script type="application/ld+json">{"@id": "https://example.org/x"}</script>
</head><body></body></html>`

	sp, err := parseSignposting(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sp.Links) != 1 || sp.Links[0] != "https://example.org/describe.ttl" {
		t.Errorf("got links %v", sp.Links)
	}
	if len(sp.Scripts) != 1 || sp.Scripts[0].MimeType != "application/ld+json" {
		t.Errorf("got scripts %+v", sp.Scripts)
	}
}

func TestParseSignpostingNoSignposting(t *testing.T) {
	sp, err := parseSignposting(strings.NewReader(`<html><head></head><body>hi</body></html>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sp.Links) != 0 || len(sp.Scripts) != 0 {
		t.Errorf("expected no signposting, got %+v", sp)
	}
}
