package reportgraph_test

import (
	"testing"

	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/reportgraph"
)

func TestRenderProducesAssertionAndGraphAddedTriples(t *testing.T) {
	graphAdded := model.NewGraphAdditionRecord("https://marineregions.org/mrgid/63523", "text/turtle", 42)
	assertion := model.NewAssertionRecord(
		"http://marineregions.org/mrgid/3293",
		"<http://marineregions.org/ns/ontology#isPartOf>",
		1, true, "Assertion successful",
		[]model.GraphAdditionRecord{graphAdded},
	)
	task := model.NewTaskReport([]model.AssertionRecord{assertion})
	report := model.NewExecutionReport("demo", []model.TaskReport{task})

	g := reportgraph.Render(report)

	var sawSubject, sawContentURL, sawTripleCount bool
	ch := g.IterTriples()
	for tr := range ch {
		switch tr.Predicate.RawValue() {
		case reportgraph.Vocab + "subject":
			if tr.Object.RawValue() == assertion.Subject {
				sawSubject = true
			}
		case "https://schema.org/contentUrl":
			if tr.Object.RawValue() == graphAdded.URL {
				sawContentURL = true
			}
		case "http://rdfs.org/ns/void#triples":
			if tr.Object.RawValue() == "42" {
				sawTripleCount = true
			}
		}
	}

	if !sawSubject {
		t.Error("expected an assertion triple carrying the subject IRI")
	}
	if !sawContentURL {
		t.Error("expected a schema:contentUrl triple for the harvested graph")
	}
	if !sawTripleCount {
		t.Error("expected a void:triples literal matching the harvested triple count")
	}
}

func TestRenderDescribesReportWithNoTasks(t *testing.T) {
	report := model.NewExecutionReport("empty", nil)
	g := reportgraph.Render(report)
	count := 0
	for range g.IterTriples() {
		count++
	}
	if count == 0 {
		t.Error("expected at least the report's own descriptive triples")
	}
}
