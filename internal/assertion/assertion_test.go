package assertion_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deiu/rdf2go"

	"github.com/pithecene-io/travharv/internal/assertion"
	"github.com/pithecene-io/travharv/internal/lodclient"
	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/store"
	"github.com/pithecene-io/travharv/internal/urikit"
)

func path(steps ...string) model.PropertyPath { return model.PropertyPath(steps) }

func TestRunInvalidSubjectSkipped(t *testing.T) {
	deps := assertion.Deps{
		Facade: store.NewFacade(store.NewMemoryBackend(), ""),
		Client: lodclient.New(),
	}
	rec, err := assertion.Run(context.Background(), deps, "c", "not-a-uri", path("https://example.org/ns#p"), urikit.NewNamespaceManager())
	if rec != nil {
		t.Fatalf("expected no record, got %+v", rec)
	}
	if _, ok := err.(*model.InvalidSubjectError); !ok {
		t.Fatalf("expected *model.InvalidSubjectError, got %T (%v)", err, err)
	}
}

// TestRunFullPathAlreadyResolved covers the case where subject/path is
// already fully present in the store: the first verify at depth 0
// succeeds immediately. The endpoint is still harvested (the source
// always harvests the resolved endpoint, win or bounce), but here the
// endpoint server serves nothing new, so the assertion still reports
// success with the full path text and no added graphs.
func TestRunFullPathAlreadyResolved(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := store.NewFacade(store.NewMemoryBackend(), "")
	ctx := context.Background()

	g := rdf2go.NewGraph("")
	g.AddTriple(
		rdf2go.NewResource("https://example.org/r/1"),
		rdf2go.NewResource("https://example.org/ns#isPartOf"),
		rdf2go.NewResource(ts.URL),
	)
	if err := f.InsertForConfig(ctx, g, "c"); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	deps := assertion.Deps{Facade: f, Client: lodclient.New()}
	rec, err := assertion.Run(ctx, deps, "c", "https://example.org/r/1",
		path("https://example.org/ns#isPartOf"), urikit.NewNamespaceManager())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rec.Result {
		t.Fatalf("expected result=true, got record %+v", rec)
	}
	if rec.DepthSucceeded != 1 {
		t.Fatalf("expected DepthSucceeded=1 (full one-step path), got %d", rec.DepthSucceeded)
	}
	if len(rec.GraphsAdded) != 0 {
		t.Fatalf("expected no graphs added when the endpoint serves nothing new, got %v", rec.GraphsAdded)
	}
}

// TestRunHarvestsSubjectWhenPathUnresolvedEverywhere mirrors the
// "HTTP exhaustion/no RDF contributes nothing" edge case: every prefix
// of a two-step path fails to verify, the subject itself is harvested
// once the path is exhausted, and that harvest serves no RDF, so the
// assertion reports failure with an empty GraphsAdded.
func TestRunHarvestsSubjectWhenPathUnresolvedEverywhere(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := store.NewFacade(store.NewMemoryBackend(), "")
	deps := assertion.Deps{Facade: f, Client: lodclient.New()}

	rec, err := assertion.Run(context.Background(), deps, "c", ts.URL,
		path("https://example.org/ns#a", "https://example.org/ns#b"), urikit.NewNamespaceManager())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Result {
		t.Fatalf("expected result=false, got %+v", rec)
	}
	if rec.DepthSucceeded != 0 {
		t.Fatalf("expected DepthSucceeded=0, got %d", rec.DepthSucceeded)
	}
	if len(rec.GraphsAdded) != 0 {
		t.Fatalf("expected no graphs added, got %v", rec.GraphsAdded)
	}
}

// TestRunHarvestsEndpointWhenPrefixResolves covers the partial-prefix
// bounce: subject/firstStep resolves to an endpoint the store doesn't
// yet describe, the endpoint gets harvested, and because the second
// step is still unresolved on the full-path retry, the final record
// still carries the harvested graph even though result is false.
func TestRunHarvestsEndpointWhenPrefixResolves(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = w.Write([]byte(`<https://example.org/r/0> <https://example.org/ns#label> "root" .`))
	}))
	defer ts.Close()

	f := store.NewFacade(store.NewMemoryBackend(), "")
	ctx := context.Background()
	g := rdf2go.NewGraph("")
	g.AddTriple(
		rdf2go.NewResource("https://example.org/r/1"),
		rdf2go.NewResource("https://example.org/ns#isPartOf"),
		rdf2go.NewResource(ts.URL),
	)
	if err := f.InsertForConfig(ctx, g, "c"); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	deps := assertion.Deps{Facade: f, Client: lodclient.New()}
	rec, err := assertion.Run(ctx, deps, "c", "https://example.org/r/1",
		path("https://example.org/ns#isPartOf", "https://example.org/ns#geo"), urikit.NewNamespaceManager())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Result {
		t.Fatalf("expected result=false (second step never resolves), got %+v", rec)
	}
	if len(rec.GraphsAdded) != 1 {
		t.Fatalf("expected one harvested graph from the resolved prefix's endpoint, got %v", rec.GraphsAdded)
	}

	res, err := f.AllTriples(ctx)
	if err != nil {
		t.Fatalf("AllTriples: %v", err)
	}
	found := false
	for _, row := range res.Rows {
		if row["s"].Value == "https://example.org/r/0" && row["o"].Value == "root" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected harvested triple about https://example.org/r/0 in the store, rows: %+v", res.Rows)
	}
}

func TestRunIsIdempotentOnRerun(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := store.NewFacade(store.NewMemoryBackend(), "")
	ctx := context.Background()
	g := rdf2go.NewGraph("")
	g.AddTriple(
		rdf2go.NewResource("https://example.org/r/1"),
		rdf2go.NewResource("https://example.org/ns#isPartOf"),
		rdf2go.NewResource(ts.URL),
	)
	if err := f.InsertForConfig(ctx, g, "c"); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	deps := assertion.Deps{Facade: f, Client: lodclient.New()}
	p := path("https://example.org/ns#isPartOf")
	nsm := urikit.NewNamespaceManager()

	first, err := assertion.Run(ctx, deps, "c", "https://example.org/r/1", p, nsm)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := assertion.Run(ctx, deps, "c", "https://example.org/r/1", p, nsm)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !first.Result || !second.Result {
		t.Fatalf("expected both runs to succeed, got %+v and %+v", first, second)
	}
}
