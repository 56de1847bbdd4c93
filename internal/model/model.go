// Package model holds the data shapes shared across config loading,
// path assertion, execution, and reporting: subjects, property paths,
// tasks, configs, and the execution-report record types.
//
// Grounded on travharv/config_build.py's Config/Task dataclasses and
// travharv/execution_report.py's report dataclasses, adapted to Go
// tagged-variant interfaces per the source's isinstance dispatch on
// SubjectDefinition.
package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pithecene-io/travharv/internal/urikit"
)

// ConfigError reports a fatal problem building one job configuration:
// a missing key, unresolvable prefix, or malformed path/SPARQL text.
type ConfigError struct {
	ConfigName string
	Err        error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("model: config %q: %v", e.ConfigName, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InvalidSubjectError marks a subject string that failed IRI
// validation; PathAssertion skips that subject rather than failing
// the whole task.
type InvalidSubjectError struct {
	Subject string
}

func (e *InvalidSubjectError) Error() string {
	return fmt.Sprintf("model: %q is not a valid subject IRI", e.Subject)
}

// PropertyPath is a non-empty ordered sequence of absolute-IRI steps.
type PropertyPath []string

// SubPath returns the prefix of p covering its first (len(p)-depth)
// steps, per PathAssertion's "steps[0 .. n-depth]" sub-path rule.
// depth outside [0, len(p)] is clamped.
func (p PropertyPath) SubPath(depth int) PropertyPath {
	n := len(p)
	end := n - depth
	if end < 0 {
		end = 0
	}
	if end > n {
		end = n
	}
	return p[:end]
}

// String renders p as bracketed-IRI steps joined by " / ", the form
// recorded in an AssertionRecord's path text.
func (p PropertyPath) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = "<" + s + ">"
	}
	return strings.Join(parts, " / ")
}

// AssertPathSet is a non-empty ordered list of property paths to
// assert for a task's subjects.
type AssertPathSet []PropertyPath

// SubjectSelector evaluates a SPARQL SELECT and returns the bound
// subject IRIs of its first projected column. store.Facade satisfies
// this structurally; model never imports store.
type SubjectSelector interface {
	SelectSubjects(ctx context.Context, sparql string) ([]string, error)
}

// SubjectDefinition is the tagged-variant subject source: a literal
// IRI list, or a SPARQL query evaluated lazily at task start.
type SubjectDefinition interface {
	// Subjects resolves the subject IRI list. sel is only consulted by
	// the SPARQL variant.
	Subjects(ctx context.Context, sel SubjectSelector) ([]string, error)
}

// LiteralSubjectDefinition is a fixed list of subject IRIs.
type LiteralSubjectDefinition struct {
	IRIs []string
}

// Subjects returns the literal IRI list unchanged.
func (d LiteralSubjectDefinition) Subjects(context.Context, SubjectSelector) ([]string, error) {
	return d.IRIs, nil
}

// SPARQLSubjectDefinition captures a SPARQL query (prefixes already
// injected) that binds ?subject; it is evaluated once, lazily, at
// task-execution time.
type SPARQLSubjectDefinition struct {
	Query string
}

// Subjects evaluates the query against sel and filters to IRI
// bindings, per the spec's "non-IRI SPARQL bindings are dropped" rule.
func (d SPARQLSubjectDefinition) Subjects(ctx context.Context, sel SubjectSelector) ([]string, error) {
	if sel == nil {
		return nil, fmt.Errorf("model: SPARQL subject definition requires a selector")
	}
	return sel.SelectSubjects(ctx, d.Query)
}

// Task pairs a subject source with the paths asserted against each of
// its subjects.
type Task struct {
	Subjects SubjectDefinition
	Paths    AssertPathSet
}

// Config is one job configuration: a namespace manager, a snooze
// policy, and the tasks to run.
type Config struct {
	Name          string
	NSM           *urikit.NamespaceManager
	SnoozeMinutes int
	Tasks         []Task
}

// SnoozeDeadline returns the instant before which a named graph's
// lastmod must fall for its config to NOT be snoozed, i.e. the config
// runs if lastmod is older than this deadline.
func (c Config) SnoozeDeadline(now time.Time) time.Time {
	return now.Add(-time.Duration(c.SnoozeMinutes) * time.Minute)
}
