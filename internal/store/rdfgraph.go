package store

import "github.com/deiu/rdf2go"

// This file holds the store package's small rdf2go.Graph/Term helpers.
// The evaluator, the backends and their Insert paths also use rdf2go
// types directly.

// iterTriples drains g's triple set into a slice. rdf2go.Graph exposes
// an unordered set; callers that need determinism sort afterwards.
func iterTriples(g *rdf2go.Graph) []*rdf2go.Triple {
	ch := g.IterTriples()
	var out []*rdf2go.Triple
	for t := range ch {
		out = append(out, t)
	}
	return out
}

// termBinding converts an rdf2go.Term into the store's wire-agnostic
// Binding representation.
func termBinding(t rdf2go.Term) Binding {
	switch v := t.(type) {
	case *rdf2go.Resource:
		return Binding{Value: v.URI, IsIRI: true}
	case *rdf2go.BlankNode:
		return Binding{Value: "_:" + v.ID, IsIRI: false}
	case *rdf2go.Literal:
		return Binding{Value: v.Value, IsIRI: false}
	default:
		return Binding{Value: t.RawValue(), IsIRI: false}
	}
}

// termForIRI wraps an IRI string as an rdf2go Resource term.
func termForIRI(iri string) rdf2go.Term {
	return rdf2go.NewResource(iri)
}

func termForLiteral(value string) rdf2go.Term {
	return rdf2go.NewLiteral(value)
}

// matchPosition reports whether term satisfies pattern (subject or
// object position): a "?var" pattern always matches and is returned as
// bind, and a resolved IRI pattern requires an exact IRI match.
func matchPosition(pattern string, term rdf2go.Term) (bind string, ok bool) {
	if pattern == "" {
		return "", true
	}
	if len(pattern) > 0 && pattern[0] == '?' {
		return pattern, true
	}
	res, isRes := term.(*rdf2go.Resource)
	if !isRes {
		return "", false
	}
	return "", res.URI == pattern
}
