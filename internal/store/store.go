// Package store implements the uniform query/insert/age-tracking facade
// over either an in-memory RDF graph or a remote SPARQL 1.1 endpoint,
// with per-configuration named-graph isolation.
//
// Grounded on travharv/store.py (RDFStoreAccess decorating a pluggable
// RDFStore) and, for the remote HTTP shape, on
// _examples/other_examples's kahefi-ontograph BlazegraphStore.
package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/deiu/rdf2go"
)

// DefaultBase is the default named-graph URN base.
const DefaultBase = "urn:traversal-harvesting:"

// AdminSuffix names the admin graph (under Base) that tracks lastmod
// timestamps for the remote backend.
const AdminSuffix = "ADMIN"

// MaxStrSize bounds the textual length of a single remote INSERT DATA
// batch. A single N-Triple line longer than this is a fatal
// configuration error (ConfigError), never silently dropped.
const MaxStrSize = 4096

// Binding is one SPARQL result-set cell.
type Binding struct {
	Value string
	IsIRI bool
}

// Result is a SPARQL SELECT result set: an ordered variable list plus
// rows of var -> Binding.
type Result struct {
	Vars []string
	Rows []map[string]Binding
}

// Column returns the bindings of the named variable across all rows,
// in row order.
func (r Result) Column(name string) []Binding {
	out := make([]Binding, 0, len(r.Rows))
	for _, row := range r.Rows {
		if b, ok := row[name]; ok {
			out = append(out, b)
		}
	}
	return out
}

// QueryError wraps a malformed-SPARQL failure. Fatal for the task that
// issued the query.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store: query error: %v (query: %s)", e.Err, e.Query)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TransportError wraps a network failure talking to a remote backend.
// Recoverable by callers per the propagation policy.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("store: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// BackendError wraps a non-2xx response from a remote backend that
// manifests on insert (fatal) or select (Facade.Select degrades a
// 4xx-class one to an empty result set).
type BackendError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("store: backend error on %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Backend is the pluggable triple-store contract. MemoryBackend and
// RemoteBackend are the two concrete variants; dispatch is by which one
// the caller constructs, never by reflection.
type Backend interface {
	// Select runs a SPARQL SELECT query. A non-2xx backend response is
	// returned as a *BackendError; Facade.Select, not the backend, turns
	// a 4xx-class one into an empty Result.
	Select(ctx context.Context, sparql string) (Result, error)
	// Insert adds every triple in g to namedGraph, updating that
	// graph's lastmod atomically with the write.
	Insert(ctx context.Context, g *rdf2go.Graph, namedGraph string) error
	// LastModTS returns the last successful insert time for
	// namedGraph, or nil if it has never been written to.
	LastModTS(ctx context.Context, namedGraph string) (*time.Time, error)
	// DropGraph deletes the contents of namedGraph.
	DropGraph(ctx context.Context, namedGraph string) error
	// ForgetGraph stops tracking namedGraph's name, independent of
	// whether its contents were dropped.
	ForgetGraph(namedGraph string)
	// NamedGraphs lists the graphs this backend is tracking.
	NamedGraphs() []string
}

// Facade is the uniform access point used by the rest of travharv. It
// adds config-name <-> named-graph mapping on top of a Backend.
type Facade struct {
	backend Backend
	base    string
}

// NewFacade wraps backend with named-graph helpers rooted at base.
// base defaults to DefaultBase when empty.
func NewFacade(backend Backend, base string) *Facade {
	if base == "" {
		base = DefaultBase
	}
	return &Facade{backend: backend, base: base}
}

// Base returns the named-graph URN base this facade is rooted at.
func (f *Facade) Base() string { return f.base }

// EncodeGraphName derives a config's named-graph URI: base plus the
// percent-encoded config name.
func EncodeGraphName(base, configName string) string {
	return base + url.QueryEscape(configName)
}

// DecodeGraphName recovers a config name from a named-graph URI that
// starts with base. ok is false if ng is not under base.
func DecodeGraphName(base, ng string) (name string, ok bool) {
	if len(ng) <= len(base) || ng[:len(base)] != base {
		return "", false
	}
	decoded, err := url.QueryUnescape(ng[len(base):])
	if err != nil {
		return "", false
	}
	return decoded, true
}

func (f *Facade) graphFor(configName string) string {
	return EncodeGraphName(f.base, configName)
}

func (f *Facade) adminGraph() string {
	return f.base + AdminSuffix
}

// Select issues sparql against the backend. Per the propagation policy,
// a 4xx-class BackendError degrades to an empty Result rather than
// being returned as an error, whatever its response body.
func (f *Facade) Select(ctx context.Context, sparql string) (Result, error) {
	res, err := f.backend.Select(ctx, sparql)
	if err != nil {
		var be *BackendError
		if isBackendClientError(err, &be) {
			return Result{}, nil
		}
		return Result{}, err
	}
	return res, nil
}

func isBackendClientError(err error, target **BackendError) bool {
	be, ok := err.(*BackendError)
	if !ok {
		return false
	}
	*target = be
	return be.StatusCode >= 400 && be.StatusCode < 500
}

// SelectSubjects projects the first column of sparql's result into a
// list of subject IRIs, dropping any binding that isn't an IRI (Open
// Question #4: non-IRI SPARQL subject bindings are filtered, not
// passed through).
func (f *Facade) SelectSubjects(ctx context.Context, sparql string) ([]string, error) {
	res, err := f.Select(ctx, sparql)
	if err != nil {
		return nil, err
	}
	if len(res.Vars) == 0 {
		return nil, nil
	}
	var out []string
	for _, b := range res.Column(res.Vars[0]) {
		if b.IsIRI {
			out = append(out, b.Value)
		}
	}
	return out, nil
}

// VerifyPath reports whether subject step1/.../stepN ?o has at least
// one binding in the store.
func (f *Facade) VerifyPath(ctx context.Context, subject string, path []string, prefixHeader string) (bool, error) {
	q := buildTrajectorySelect(subject, path, prefixHeader, 1)
	res, err := f.Select(ctx, q)
	if err != nil {
		return false, err
	}
	return len(res.Rows) > 0, nil
}

// EndpointObject resolves the first ?o binding of
// subject step1/.../stepN ?o, the endpoint that PathAssertion harvests
// next. ok is false if the path has no binding.
func (f *Facade) EndpointObject(ctx context.Context, subject string, path []string, prefixHeader string) (value string, ok bool, err error) {
	q := buildTrajectorySelect(subject, path, prefixHeader, 1)
	res, err := f.Select(ctx, q)
	if err != nil {
		return "", false, err
	}
	if len(res.Rows) == 0 {
		return "", false, nil
	}
	b, present := res.Rows[0]["o"]
	if !present {
		return "", false, nil
	}
	return b.Value, true, nil
}

// Insert adds g's triples to namedGraph.
func (f *Facade) Insert(ctx context.Context, g *rdf2go.Graph, namedGraph string) error {
	return f.backend.Insert(ctx, g, namedGraph)
}

// InsertForConfig maps configName to its named graph and inserts g
// there. A nil or empty graph is a no-op.
func (f *Facade) InsertForConfig(ctx context.Context, g *rdf2go.Graph, configName string) error {
	if g == nil || g.Len() == 0 {
		return nil
	}
	return f.Insert(ctx, g, f.graphFor(configName))
}

// LastModTS returns namedGraph's last successful insert time.
func (f *Facade) LastModTS(ctx context.Context, namedGraph string) (*time.Time, error) {
	return f.backend.LastModTS(ctx, namedGraph)
}

// LastModTSForConfig is LastModTS for configName's named graph.
func (f *Facade) LastModTSForConfig(ctx context.Context, configName string) (*time.Time, error) {
	return f.LastModTS(ctx, f.graphFor(configName))
}

// VerifyMaxAge reports whether namedGraph's lastmod is within minutes
// of now.
func (f *Facade) VerifyMaxAge(ctx context.Context, namedGraph string, minutes int) (bool, error) {
	ts, err := f.LastModTS(ctx, namedGraph)
	if err != nil {
		return false, err
	}
	if ts == nil {
		return false, nil
	}
	return time.Since(*ts) <= time.Duration(minutes)*time.Minute, nil
}

// VerifyMaxAgeForConfig is VerifyMaxAge for configName's named graph.
func (f *Facade) VerifyMaxAgeForConfig(ctx context.Context, configName string, minutes int) (bool, error) {
	return f.VerifyMaxAge(ctx, f.graphFor(configName), minutes)
}

// DropGraph deletes namedGraph's contents.
func (f *Facade) DropGraph(ctx context.Context, namedGraph string) error {
	return f.backend.DropGraph(ctx, namedGraph)
}

// DropGraphForConfig drops configName's named graph.
func (f *Facade) DropGraphForConfig(ctx context.Context, configName string) error {
	return f.DropGraph(ctx, f.graphFor(configName))
}

// ForgetGraph stops tracking namedGraph's name.
func (f *Facade) ForgetGraph(namedGraph string) { f.backend.ForgetGraph(namedGraph) }

// ForgetGraphForConfig is ForgetGraph for configName's named graph.
func (f *Facade) ForgetGraphForConfig(configName string) {
	f.ForgetGraph(f.graphFor(configName))
}

// NamedGraphs lists the graphs managed under this facade's base,
// excluding the admin graph.
func (f *Facade) NamedGraphs() []string {
	admin := f.adminGraph()
	var out []string
	for _, ng := range f.backend.NamedGraphs() {
		if ng == admin {
			continue
		}
		if len(ng) < len(f.base) || ng[:len(f.base)] != f.base {
			continue
		}
		out = append(out, ng)
	}
	return out
}

// AllTriples selects every triple currently in the store.
func (f *Facade) AllTriples(ctx context.Context) (Result, error) {
	return f.Select(ctx, "SELECT ?s ?p ?o WHERE { ?s ?p ?o }")
}
