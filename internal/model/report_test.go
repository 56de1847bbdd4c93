package model_test

import (
	"testing"

	"github.com/pithecene-io/travharv/internal/model"
)

func TestHasAssertions(t *testing.T) {
	empty := []model.TaskReport{model.NewTaskReport(nil)}
	if model.HasAssertions(empty) {
		t.Fatal("expected no assertions")
	}

	nonEmpty := []model.TaskReport{
		model.NewTaskReport([]model.AssertionRecord{
			model.NewAssertionRecord("https://example.org/1", "<https://example.org/ns#p>", 1, true, "ok", nil),
		}),
	}
	if !model.HasAssertions(nonEmpty) {
		t.Fatal("expected assertions present")
	}
}

func TestNewRecordsStampIDs(t *testing.T) {
	a := model.NewAssertionRecord("https://example.org/1", "", 0, false, "failed", nil)
	if a.ID == "" {
		t.Error("expected non-empty assertion id")
	}

	g := model.NewGraphAdditionRecord("https://example.org/doc", "text/turtle", 42)
	if g.ID == "" {
		t.Error("expected non-empty graph addition id")
	}
	if g.TripleCount != 42 {
		t.Errorf("got %d", g.TripleCount)
	}

	tr := model.NewTaskReport([]model.AssertionRecord{a})
	if tr.ID == "" || len(tr.Assertions) != 1 {
		t.Errorf("got %+v", tr)
	}

	er := model.NewExecutionReport("demo", []model.TaskReport{tr})
	if er.ID == "" || er.ConfigName != "demo" {
		t.Errorf("got %+v", er)
	}
}
