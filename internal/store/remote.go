package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/retry"
)

// RemoteBackend talks to an external SPARQL 1.1 Protocol endpoint
// (Query + Update services) over plain HTTP.
//
// Grounded on kahefi-ontograph's BlazegraphStore (raw fmt.Sprintf
// SPARQL strings, net/http POST, encoding/json decode of
// application/sparql-results+json) and on quarry's
// adapter/webhook.Adapter.Publish for the retry/backoff loop shape.
type RemoteBackend struct {
	queryEndpoint  string
	updateEndpoint string
	client         *http.Client
	base           string
}

// NewRemoteBackend targets a SPARQL 1.1 endpoint pair. base is the
// named-graph URN prefix, used to recognize the admin graph.
func NewRemoteBackend(queryEndpoint, updateEndpoint, base string) *RemoteBackend {
	return &RemoteBackend{
		queryEndpoint:  queryEndpoint,
		updateEndpoint: updateEndpoint,
		client:         &http.Client{Timeout: 30 * time.Second},
		base:           base,
	}
}

type sparqlJSONResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Select POSTs sparql to the query endpoint and decodes a standard
// SPARQL 1.1 JSON results document.
func (r *RemoteBackend) Select(ctx context.Context, sparql string) (Result, error) {
	body, err := r.post(ctx, r.queryEndpoint, "query", sparql, "application/sparql-results+json", "select")
	if err != nil {
		return Result{}, err
	}
	var parsed sparqlJSONResults
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &QueryError{Query: sparql, Err: fmt.Errorf("decode SPARQL JSON results: %w", err)}
	}
	res := Result{Vars: parsed.Head.Vars}
	for _, binding := range parsed.Results.Bindings {
		row := make(map[string]Binding, len(binding))
		for v, b := range binding {
			row[v] = Binding{Value: b.Value, IsIRI: b.Type == "uri"}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// Insert serializes g as N-Triples, splits it into batches no longer
// than MaxStrSize, and issues one `INSERT DATA { GRAPH <ng> { ... } }`
// update per batch, then stamps namedGraph's lastmod in the admin
// graph. A single triple line longer than MaxStrSize is a fatal
// ConfigError-shaped failure rather than a silently dropped triple.
func (r *RemoteBackend) Insert(ctx context.Context, g *rdf2go.Graph, namedGraph string) error {
	lines, err := ntripleLines(g)
	if err != nil {
		return err
	}
	batches, err := batchLines(namedGraph, lines, MaxStrSize)
	if err != nil {
		return err
	}
	for _, batch := range batches {
		update := fmt.Sprintf("INSERT DATA { GRAPH <%s> { %s } }", namedGraph, strings.Join(batch, " "))
		if _, err := r.post(ctx, r.updateEndpoint, "update", update, "", "insert"); err != nil {
			return err
		}
	}
	return r.stampLastMod(ctx, namedGraph, time.Now().UTC())
}

func (r *RemoteBackend) adminGraph() string { return r.base + AdminSuffix }

func (r *RemoteBackend) stampLastMod(ctx context.Context, namedGraph string, ts time.Time) error {
	admin := r.adminGraph()
	update := fmt.Sprintf(
		`DELETE WHERE { GRAPH <%s> { <%s> <%slastmod> ?o . } } ; `+
			`INSERT DATA { GRAPH <%s> { <%s> <%slastmod> "%s"^^<http://www.w3.org/2001/XMLSchema#dateTime> . } }`,
		admin, namedGraph, r.base, admin, namedGraph, r.base, ts.Format(time.RFC3339),
	)
	_, err := r.post(ctx, r.updateEndpoint, "update", update, "", "stamp-lastmod")
	return err
}

// LastModTS queries the admin graph for namedGraph's tracked lastmod.
func (r *RemoteBackend) LastModTS(ctx context.Context, namedGraph string) (*time.Time, error) {
	admin := r.adminGraph()
	q := fmt.Sprintf(
		`SELECT ?o WHERE { GRAPH <%s> { <%s> <%slastmod> ?o . } }`,
		admin, namedGraph, r.base,
	)
	res, err := r.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	b, ok := res.Rows[0]["o"]
	if !ok {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, b.Value)
	if err != nil {
		return nil, &QueryError{Query: q, Err: fmt.Errorf("parse lastmod literal %q: %w", b.Value, err)}
	}
	return &ts, nil
}

// DropGraph issues `DROP SILENT GRAPH <ng>`.
func (r *RemoteBackend) DropGraph(ctx context.Context, namedGraph string) error {
	update := fmt.Sprintf("DROP SILENT GRAPH <%s>", namedGraph)
	_, err := r.post(ctx, r.updateEndpoint, "update", update, "", "drop-graph")
	return err
}

// ForgetGraph is local bookkeeping only; RemoteBackend has no local
// state to forget beyond what the admin graph already tracks, so this
// is a no-op left for interface symmetry with MemoryBackend.
func (r *RemoteBackend) ForgetGraph(string) {}

// NamedGraphs asks the endpoint which graphs currently hold triples.
// The Backend interface has no context-carrying variant of this method
// (it is only ever called from CLI/report code with no inbound
// cancellation to propagate), so a background context is used here.
func (r *RemoteBackend) NamedGraphs() []string {
	res, err := r.Select(context.Background(), "SELECT DISTINCT ?g WHERE { GRAPH ?g { ?s ?p ?o . } }")
	if err != nil {
		return nil
	}
	var out []string
	for _, b := range res.Column("g") {
		out = append(out, b.Value)
	}
	return out
}

// post executes an HTTP POST against a SPARQL 1.1 Protocol endpoint
// with the fixed exponential backoff retry policy, retried only on
// retry.RetryableStatus.
func (r *RemoteBackend) post(ctx context.Context, endpoint, param, payload, accept, op string) ([]byte, error) {
	form := url.Values{}
	form.Set(param, payload)
	encoded := form.Encode()

	var lastErr error
	for attempt := 1; attempt <= retry.Default.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = &TransportError{Err: err}
			if !retry.Default.Sleep(ctx, attempt) {
				return nil, lastErr
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &TransportError{Err: readErr}
			if !retry.Default.Sleep(ctx, attempt) {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		be := &BackendError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
		if !retry.RetryableStatus[resp.StatusCode] {
			return nil, be
		}
		lastErr = be
		if !retry.Default.Sleep(ctx, attempt) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// ntripleLines serializes g as one N-Triples text line per triple.
func ntripleLines(g *rdf2go.Graph) ([]string, error) {
	var lines []string
	for _, t := range iterTriples(g) {
		lines = append(lines, fmt.Sprintf("%s %s %s .", t.Subject.String(), t.Predicate.String(), t.Object.String()))
	}
	return lines, nil
}

// batchLines groups lines into batches whose joined text stays within
// maxSize bytes. A single line already longer than maxSize is a fatal
// configuration error, not a query-execution failure: the system never
// silently truncates a triple.
func batchLines(namedGraph string, lines []string, maxSize int) ([][]string, error) {
	var batches [][]string
	var current []string
	currentSize := 0
	for _, line := range lines {
		if len(line) > maxSize {
			return nil, &model.ConfigError{ConfigName: namedGraph, Err: fmt.Errorf("triple line exceeds max batch size %d bytes", maxSize)}
		}
		add := len(line) + 1
		if currentSize+add > maxSize && len(current) > 0 {
			batches = append(batches, current)
			current = nil
			currentSize = 0
		}
		current = append(current, line)
		currentSize += add
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}
