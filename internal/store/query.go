package store

import (
	"fmt"
	"strings"

	"github.com/pithecene-io/travharv/internal/urikit"
)

// buildTrajectorySelect renders the single-chain property-path query
// PathAssertion and VerifyPath issue: subject step1/.../stepN ?o. limit
// 0 means unbounded.
func buildTrajectorySelect(subject string, path []string, prefixHeader string, limit int) string {
	var b strings.Builder
	if prefixHeader != "" {
		b.WriteString(prefixHeader)
	}
	b.WriteString("SELECT ?o WHERE { <")
	b.WriteString(subject)
	b.WriteString("> ")
	for i, step := range path {
		if i > 0 {
			b.WriteString("/")
		}
		fmt.Fprintf(&b, "<%s>", step)
	}
	b.WriteString(" ?o . }")
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}

// triplePattern is one BGP pattern of a parsed SELECT: each field is
// either a "?var", a "<iri>" term, or (predicate only) a '/'-joined
// chain of "<iri>" terms.
type triplePattern struct {
	subject   string
	predicate []string
	object    string
}

// parsedSelect is the minimal SPARQL SELECT this evaluator understands:
// PREFIX declarations, a variable list (or "*"), and a sequence of
// '.'-joined BGP patterns with no FILTER/OPTIONAL/UNION. This is the
// narrow subset travharv itself ever generates or accepts from
// SPARQLSubjectDefinition/PathAssertion/Service.Dump; it is not a
// general SPARQL parser.
type parsedSelect struct {
	prefixes map[string]string
	vars     []string
	star     bool
	patterns []triplePattern
	limit    int
}

func parseSelect(q string) (*parsedSelect, error) {
	ps := &parsedSelect{prefixes: map[string]string{}}
	rest := q

	for {
		trimmed := strings.TrimSpace(rest)
		if !strings.HasPrefix(strings.ToUpper(trimmed), "PREFIX") {
			rest = trimmed
			break
		}
		idx := strings.Index(trimmed, ">")
		if idx < 0 {
			return nil, fmt.Errorf("unterminated PREFIX clause")
		}
		clause := trimmed[:idx+1]
		rest = trimmed[idx+1:]
		fields := strings.Fields(clause)
		if len(fields) < 3 {
			return nil, fmt.Errorf("malformed PREFIX clause %q", clause)
		}
		prefix := strings.TrimSuffix(fields[1], ":")
		iri := strings.TrimSuffix(strings.TrimPrefix(fields[2], "<"), ">")
		ps.prefixes[prefix] = iri
	}

	upper := strings.ToUpper(rest)
	selIdx := strings.Index(upper, "SELECT")
	whereIdx := strings.Index(upper, "WHERE")
	if selIdx < 0 || whereIdx < 0 || whereIdx < selIdx {
		return nil, fmt.Errorf("expected SELECT ... WHERE")
	}
	varSection := strings.TrimSpace(rest[selIdx+len("SELECT") : whereIdx])
	if varSection == "*" {
		ps.star = true
	} else {
		for _, v := range strings.Fields(varSection) {
			ps.vars = append(ps.vars, strings.TrimPrefix(v, "?"))
		}
	}

	openIdx := strings.Index(rest[whereIdx:], "{")
	closeIdx := strings.LastIndex(rest, "}")
	if openIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("expected {...} block")
	}
	body := rest[whereIdx+openIdx+1 : closeIdx]
	tail := strings.TrimSpace(rest[closeIdx+1:])
	if tail != "" {
		fields := strings.Fields(tail)
		if len(fields) == 2 && strings.EqualFold(fields[0], "LIMIT") {
			fmt.Sscanf(fields[1], "%d", &ps.limit)
		}
	}

	var stmts []string
	start, inIRI := 0, false
	for i, r := range body {
		switch {
		case r == '<':
			inIRI = true
		case r == '>':
			inIRI = false
		case r == '.' && !inIRI:
			stmts = append(stmts, body[start:i])
			start = i + 1
		}
	}
	stmts = append(stmts, body[start:])
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		tp, err := parseTriplePattern(stmt, ps.prefixes)
		if err != nil {
			return nil, err
		}
		ps.patterns = append(ps.patterns, tp)
	}
	if ps.star {
		seen := map[string]bool{}
		for _, p := range ps.patterns {
			candidates := append([]string{p.subject, p.object}, p.predicate...)
			for _, v := range candidates {
				if strings.HasPrefix(v, "?") && !seen[v] {
					seen[v] = true
					ps.vars = append(ps.vars, strings.TrimPrefix(v, "?"))
				}
			}
		}
	}
	return ps, nil
}

func parseTriplePattern(stmt string, prefixes map[string]string) (triplePattern, error) {
	parts := tokenizeTriple(stmt)
	if len(parts) != 3 {
		return triplePattern{}, fmt.Errorf("malformed triple pattern %q", stmt)
	}
	subj, err := resolveTerm(parts[0], prefixes)
	if err != nil {
		return triplePattern{}, err
	}
	obj, err := resolveTerm(parts[2], prefixes)
	if err != nil {
		return triplePattern{}, err
	}
	steps, err := urikit.SplitPath(parts[1])
	if err != nil {
		return triplePattern{}, err
	}
	var preds []string
	for _, step := range steps {
		p, err := resolveTerm(step, prefixes)
		if err != nil {
			return triplePattern{}, err
		}
		preds = append(preds, p)
	}
	return triplePattern{subject: subj, predicate: preds, object: obj}, nil
}

// tokenizeTriple splits "s p o" into exactly 3 tokens, treating
// <...> spans and ?var/prefix:local tokens as atomic and '/' chains
// within the predicate position as one token.
func tokenizeTriple(stmt string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			tokens = append(tokens, s)
		}
		cur.Reset()
	}
	for _, r := range stmt {
		switch r {
		case '<':
			depth++
			cur.WriteRune(r)
		case '>':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case ' ', '\t', '\n':
			if depth > 0 {
				cur.WriteRune(r)
				continue
			}
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// ValidateSelect reports whether sparql parses as a SELECT query this
// evaluator understands. ConfigBuilder uses it to reject a malformed
// SPARQL subject definition at config-load time rather than at first
// task execution.
func ValidateSelect(sparql string) error {
	_, err := parseSelect(sparql)
	return err
}

func resolveTerm(tok string, prefixes map[string]string) (string, error) {
	if strings.HasPrefix(tok, "?") || tok == "" {
		return tok, nil
	}
	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
		return strings.TrimSuffix(strings.TrimPrefix(tok, "<"), ">"), nil
	}
	if prefix, local, ok := strings.Cut(tok, ":"); ok {
		ns, found := prefixes[prefix]
		if !found {
			return "", fmt.Errorf("unbound prefix %q in query", prefix)
		}
		return ns + local, nil
	}
	return "", fmt.Errorf("unrecognized term %q in query", tok)
}
