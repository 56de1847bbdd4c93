package model_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/travharv/internal/model"
)

func timeAt(t *testing.T, rfc3339 string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		t.Fatalf("parse time %q: %v", rfc3339, err)
	}
	return ts
}

func TestPropertyPathSubPath(t *testing.T) {
	p := model.PropertyPath{"a", "b", "c"}
	cases := []struct {
		depth int
		want  model.PropertyPath
	}{
		{0, model.PropertyPath{"a", "b", "c"}},
		{1, model.PropertyPath{"a", "b"}},
		{2, model.PropertyPath{"a"}},
		{3, model.PropertyPath{}},
	}
	for _, c := range cases {
		got := p.SubPath(c.depth)
		if len(got) != len(c.want) {
			t.Errorf("depth %d: got %v, want %v", c.depth, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("depth %d: got %v, want %v", c.depth, got, c.want)
			}
		}
	}
}

func TestPropertyPathString(t *testing.T) {
	p := model.PropertyPath{"https://example.org/a", "https://example.org/b"}
	want := "<https://example.org/a> / <https://example.org/b>"
	if got := p.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

type stubSelector struct {
	result []string
	err    error
}

func (s stubSelector) SelectSubjects(context.Context, string) ([]string, error) {
	return s.result, s.err
}

func TestLiteralSubjectDefinition(t *testing.T) {
	d := model.LiteralSubjectDefinition{IRIs: []string{"https://example.org/1"}}
	got, err := d.Subjects(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "https://example.org/1" {
		t.Errorf("got %v", got)
	}
}

func TestSPARQLSubjectDefinitionDelegatesToSelector(t *testing.T) {
	sel := stubSelector{result: []string{"https://example.org/a", "https://example.org/b"}}
	d := model.SPARQLSubjectDefinition{Query: "SELECT ?subject WHERE { ?subject a <https://example.org/Thing> }"}
	got, err := d.Subjects(context.Background(), sel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %v", got)
	}
}

func TestSPARQLSubjectDefinitionRequiresSelector(t *testing.T) {
	d := model.SPARQLSubjectDefinition{Query: "SELECT ?subject WHERE { ?subject a <https://example.org/Thing> }"}
	if _, err := d.Subjects(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil selector")
	}
}

func TestConfigSnoozeDeadline(t *testing.T) {
	c := model.Config{SnoozeMinutes: 30}
	now := timeAt(t, "2026-07-30T12:00:00Z")
	deadline := c.SnoozeDeadline(now)
	want := timeAt(t, "2026-07-30T11:30:00Z")
	if !deadline.Equal(want) {
		t.Errorf("got %v, want %v", deadline, want)
	}
}

func TestInvalidSubjectError(t *testing.T) {
	err := &model.InvalidSubjectError{Subject: "not-a-uri"}
	var target *model.InvalidSubjectError
	if !errors.As(error(err), &target) {
		t.Fatal("expected errors.As to match")
	}
}
