package store

import "github.com/deiu/rdf2go"

// evalSelect runs a parsedSelect's BGP against triples (already
// restricted to whichever graphs the caller wants queried) via
// left-to-right nested-loop joins. This is the complete join algorithm
// MemoryBackend needs for the three query shapes travharv generates:
// a single property-path chain, a short conjunction of single-hop
// patterns sharing a subject variable, and the unconstrained
// ?s ?p ?o dump.
func evalSelect(ps *parsedSelect, triples []*rdf2go.Triple) Result {
	envs := []map[string]Binding{{}}
	for _, pat := range ps.patterns {
		var next []map[string]Binding
		for _, env := range envs {
			next = append(next, extendEnv(env, pat, triples)...)
		}
		envs = next
		if len(envs) == 0 {
			break
		}
	}

	res := Result{Vars: ps.vars}
	for _, env := range envs {
		row := make(map[string]Binding, len(ps.vars))
		for _, v := range ps.vars {
			if b, ok := env["?"+v]; ok {
				row[v] = b
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if ps.limit > 0 && len(res.Rows) > ps.limit {
		res.Rows = res.Rows[:ps.limit]
	}
	return res
}

// extendEnv produces every env' consistent with env that additionally
// satisfies pat against triples.
func extendEnv(env map[string]Binding, pat triplePattern, triples []*rdf2go.Triple) []map[string]Binding {
	if len(pat.predicate) == 1 {
		return extendSingleHop(env, pat, triples)
	}
	return extendChain(env, pat, triples)
}

func extendSingleHop(env map[string]Binding, pat triplePattern, triples []*rdf2go.Triple) []map[string]Binding {
	pred := pat.predicate[0]
	predIsVar := pred != "" && pred[0] == '?'
	var out []map[string]Binding
	for _, t := range triples {
		if !predIsVar && !termIsIRIEqual(t.Predicate, pred) {
			continue
		}
		joined := cloneEnv(env)
		if predIsVar && !unify(joined, pred, termBinding(t.Predicate)) {
			continue
		}
		if !unify(joined, pat.subject, termBinding(t.Subject)) {
			continue
		}
		if !unify(joined, pat.object, termBinding(t.Object)) {
			continue
		}
		out = append(out, joined)
	}
	return out
}

func extendChain(env map[string]Binding, pat triplePattern, triples []*rdf2go.Triple) []map[string]Binding {
	var starts []string
	if iri, bound := resolvedIRI(env, pat.subject); bound {
		starts = []string{iri}
	} else {
		starts = distinctSubjectIRIs(triples)
	}

	var out []map[string]Binding
	for _, start := range starts {
		for _, end := range walkChain(triples, start, pat.predicate) {
			joined, ok := tryJoin(env, pat.subject, Binding{Value: start, IsIRI: true}, pat.object, end)
			if ok {
				out = append(out, joined)
			}
		}
	}
	return out
}

// tryJoin checks subject/object pattern terms against candidate
// bindings, consistent with any existing env binding, returning the
// extended env on success.
func tryJoin(env map[string]Binding, subjPat string, subjVal Binding, objPat string, objVal Binding) (map[string]Binding, bool) {
	joined := cloneEnv(env)
	if !unify(joined, subjPat, subjVal) {
		return nil, false
	}
	if !unify(joined, objPat, objVal) {
		return nil, false
	}
	return joined, true
}

func unify(env map[string]Binding, pat string, val Binding) bool {
	if pat == "" {
		return true
	}
	if pat[0] == '?' {
		if existing, bound := env[pat]; bound {
			return existing.Value == val.Value && existing.IsIRI == val.IsIRI
		}
		env[pat] = val
		return true
	}
	return val.IsIRI && val.Value == pat
}

func cloneEnv(env map[string]Binding) map[string]Binding {
	out := make(map[string]Binding, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	return out
}

func resolvedIRI(env map[string]Binding, pat string) (string, bool) {
	if pat == "" {
		return "", false
	}
	if pat[0] != '?' {
		return pat, true
	}
	b, ok := env[pat]
	if !ok || !b.IsIRI {
		return "", false
	}
	return b.Value, true
}

func termIsIRIEqual(t rdf2go.Term, iri string) bool {
	res, ok := t.(*rdf2go.Resource)
	return ok && res.URI == iri
}

func distinctSubjectIRIs(triples []*rdf2go.Triple) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range triples {
		res, ok := t.Subject.(*rdf2go.Resource)
		if !ok || seen[res.URI] {
			continue
		}
		seen[res.URI] = true
		out = append(out, res.URI)
	}
	return out
}

// walkChain follows preds hop by hop from startIRI through triples,
// returning the bindings reachable at the end of the chain.
func walkChain(triples []*rdf2go.Triple, startIRI string, preds []string) []Binding {
	frontier := []string{startIRI}
	var lastHop []Binding
	for hop, pred := range preds {
		isLast := hop == len(preds)-1
		var nextFrontier []string
		lastHop = nil
		for _, subj := range frontier {
			for _, t := range triples {
				if !termIsIRIEqual(t.Predicate, pred) {
					continue
				}
				sres, ok := t.Subject.(*rdf2go.Resource)
				if !ok || sres.URI != subj {
					continue
				}
				if isLast {
					lastHop = append(lastHop, termBinding(t.Object))
				} else if ores, ok := t.Object.(*rdf2go.Resource); ok {
					nextFrontier = append(nextFrontier, ores.URI)
				}
			}
		}
		frontier = nextFrontier
	}
	return lastHop
}
