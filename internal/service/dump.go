package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/pithecene-io/travharv/internal/store"
)

// writeTurtle renders res as N-Triples lines, a valid subset of
// Turtle. Grounded on store/remote.go's ntripleLines helper, the same
// approach this module already trusts for building INSERT DATA bodies.
func writeTurtle(w io.Writer, res store.Result) error {
	for _, row := range res.Rows {
		s, ok := row["s"]
		if !ok {
			continue
		}
		p, ok := row["p"]
		if !ok {
			continue
		}
		o, ok := row["o"]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s %s %s .\n", termText(s, true), termText(p, true), termText(o, o.IsIRI))
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write turtle line: %w", err)
		}
	}
	return nil
}

func termText(b store.Binding, iri bool) string {
	if iri {
		return "<" + b.Value + ">"
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(b.Value)
	return `"` + escaped + `"`
}

// writeJSONLD renders res as a flat JSON-LD node array keyed by
// subject, each predicate mapping to a list of {"@id"|"@value": ...}
// objects. This is a minimal, hand-built serialiser rather than a
// library call: the store layer never builds an in-memory rdf2go
// graph from query rows (only the other direction), so there is no
// existing Graph to hand to a library serialiser here.
func writeJSONLD(w io.Writer, res store.Result) error {
	order := make([]string, 0)
	nodes := make(map[string]map[string][]string)
	isIRIValue := make(map[string]map[string]bool)

	for _, row := range res.Rows {
		s, ok := row["s"]
		if !ok {
			continue
		}
		p, ok := row["p"]
		if !ok {
			continue
		}
		o, ok := row["o"]
		if !ok {
			continue
		}
		if _, seen := nodes[s.Value]; !seen {
			nodes[s.Value] = make(map[string][]string)
			isIRIValue[s.Value] = make(map[string]bool)
			order = append(order, s.Value)
		}
		nodes[s.Value][p.Value] = append(nodes[s.Value][p.Value], o.Value)
		if o.IsIRI {
			isIRIValue[s.Value][p.Value+"\x00"+o.Value] = true
		}
	}

	var b strings.Builder
	b.WriteString("[\n")
	for i, subject := range order {
		b.WriteString("  {\n")
		b.WriteString(fmt.Sprintf("    %s: %s", jsonString("@id"), jsonString(subject)))
		preds := nodes[subject]
		predNames := make([]string, 0, len(preds))
		for p := range preds {
			predNames = append(predNames, p)
		}
		for _, p := range predNames {
			b.WriteString(",\n")
			b.WriteString(fmt.Sprintf("    %s: [", jsonString(p)))
			values := preds[p]
			for j, v := range values {
				if j > 0 {
					b.WriteString(", ")
				}
				if isIRIValue[subject][p+"\x00"+v] {
					b.WriteString(fmt.Sprintf("{%s: %s}", jsonString("@id"), jsonString(v)))
				} else {
					b.WriteString(fmt.Sprintf("{%s: %s}", jsonString("@value"), jsonString(v)))
				}
			}
			b.WriteString("]")
		}
		b.WriteString("\n  }")
		if i != len(order)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]\n")

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write jsonld: %w", err)
	}
	return nil
}

func jsonString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
