package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deiu/rdf2go"
)

// MemoryBackend holds one rdf2go.Graph per named graph and answers
// SELECT queries with the package's minimal BGP evaluator. It is the
// default backend: no external triple store required.
//
// Grounded on travharv/store.py's in-process RDFStore variant, adapted
// to rdf2go's graph model instead of rdflib's.
type MemoryBackend struct {
	mu      sync.RWMutex
	graphs  map[string]*rdf2go.Graph
	lastmod map[string]time.Time
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		graphs:  make(map[string]*rdf2go.Graph),
		lastmod: make(map[string]time.Time),
	}
}

func (m *MemoryBackend) allTriplesLocked() []*rdf2go.Triple {
	var out []*rdf2go.Triple
	for _, g := range m.graphs {
		out = append(out, iterTriples(g)...)
	}
	return out
}

// Select evaluates sparql against the union of every named graph this
// backend holds.
func (m *MemoryBackend) Select(_ context.Context, sparql string) (Result, error) {
	ps, err := parseSelect(sparql)
	if err != nil {
		return Result{}, &QueryError{Query: sparql, Err: err}
	}
	m.mu.RLock()
	triples := m.allTriplesLocked()
	m.mu.RUnlock()
	return evalSelect(ps, triples), nil
}

// Insert adds g's triples to namedGraph and stamps its lastmod.
func (m *MemoryBackend) Insert(_ context.Context, g *rdf2go.Graph, namedGraph string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.graphs[namedGraph]
	if !ok {
		target = rdf2go.NewGraph(namedGraph)
		m.graphs[namedGraph] = target
	}
	for _, t := range iterTriples(g) {
		target.AddTriple(t.Subject, t.Predicate, t.Object)
	}
	m.lastmod[namedGraph] = time.Now().UTC()
	return nil
}

// LastModTS returns namedGraph's tracked lastmod, if any.
func (m *MemoryBackend) LastModTS(_ context.Context, namedGraph string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.lastmod[namedGraph]
	if !ok {
		return nil, nil
	}
	out := ts
	return &out, nil
}

// DropGraph replaces namedGraph's contents with an empty graph,
// keeping its lastmod tracking intact.
func (m *MemoryBackend) DropGraph(_ context.Context, namedGraph string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.graphs[namedGraph]; ok {
		m.graphs[namedGraph] = rdf2go.NewGraph(namedGraph)
	}
	return nil
}

// ForgetGraph removes namedGraph and its lastmod entirely.
func (m *MemoryBackend) ForgetGraph(namedGraph string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.graphs, namedGraph)
	delete(m.lastmod, namedGraph)
}

// NamedGraphs lists every graph name this backend currently tracks.
func (m *MemoryBackend) NamedGraphs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.graphs))
	for ng := range m.graphs {
		out = append(out, ng)
	}
	sort.Strings(out)
	return out
}
