package store

import (
	"testing"

	"github.com/pithecene-io/travharv/internal/model"
)

func TestBuildTrajectorySelect(t *testing.T) {
	q := buildTrajectorySelect("https://example.org/r/1",
		[]string{"https://example.org/ns#isPartOf", "https://example.org/ns#geo"}, "", 1)
	want := "SELECT ?o WHERE { <https://example.org/r/1> <https://example.org/ns#isPartOf>/<https://example.org/ns#geo> ?o . } LIMIT 1"
	if q != want {
		t.Errorf("got %q", q)
	}
}

func TestParseSelectWithPrefixes(t *testing.T) {
	q := "PREFIX ex: <https://example.org/ns#>\nSELECT ?s WHERE { ?s ex:isPartOf ?o . }"
	ps, err := parseSelect(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ps.patterns) != 1 {
		t.Fatalf("want 1 pattern, got %d", len(ps.patterns))
	}
	if ps.patterns[0].predicate[0] != "https://example.org/ns#isPartOf" {
		t.Errorf("prefix not expanded: %+v", ps.patterns[0])
	}
}

func TestParseSelectRejectsUnboundPrefix(t *testing.T) {
	_, err := parseSelect("SELECT ?s WHERE { ?s ex:isPartOf ?o . }")
	if err == nil {
		t.Fatal("expected error for unbound prefix")
	}
}

func TestBatchLinesRespectsMaxSize(t *testing.T) {
	lines := []string{"<a> <b> <c> .", "<d> <e> <f> .", "<g> <h> <i> ."}
	batches, err := batchLines("urn:test:graph", lines, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) < 2 {
		t.Fatalf("expected multiple batches at size 30, got %d", len(batches))
	}
	for _, b := range batches {
		total := 0
		for _, l := range b {
			total += len(l) + 1
		}
		if total > 30 {
			t.Errorf("batch exceeds max size: %d > 30", total)
		}
	}
}

func TestBatchLinesRejectsOversizeLine(t *testing.T) {
	_, err := batchLines("urn:test:graph", []string{"this line is far too long for the configured batch size limit"}, 10)
	if err == nil {
		t.Fatal("expected error for oversize line")
	}
	if _, ok := err.(*model.ConfigError); !ok {
		t.Fatalf("expected *model.ConfigError, got %T (%v)", err, err)
	}
}
