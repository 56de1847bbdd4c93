package model

import (
	"time"

	"github.com/google/uuid"
)

// GraphAdditionRecord logs one harvested document that contributed
// triples to the store during a PathAssertion run.
type GraphAdditionRecord struct {
	ID          string
	URL         string
	MimeType    string
	TripleCount int
}

// NewGraphAdditionRecord stamps a fresh record id.
func NewGraphAdditionRecord(url, mimeType string, tripleCount int) GraphAdditionRecord {
	return GraphAdditionRecord{
		ID:          uuid.New().String(),
		URL:         url,
		MimeType:    mimeType,
		TripleCount: tripleCount,
	}
}

// AssertionRecord is the outcome of asserting one (subject, path) pair.
type AssertionRecord struct {
	ID             string
	Subject        string
	PathText       string
	DepthSucceeded int
	Result         bool
	Timestamp      time.Time
	Message        string
	GraphsAdded    []GraphAdditionRecord
}

// NewAssertionRecord stamps a fresh record id and timestamp.
func NewAssertionRecord(subject, pathText string, depthSucceeded int, result bool, message string, graphsAdded []GraphAdditionRecord) AssertionRecord {
	return AssertionRecord{
		ID:             uuid.New().String(),
		Subject:        subject,
		PathText:       pathText,
		DepthSucceeded: depthSucceeded,
		Result:         result,
		Timestamp:      time.Now().UTC(),
		Message:        message,
		GraphsAdded:    graphsAdded,
	}
}

// TaskReport aggregates the assertions produced while running one Task.
type TaskReport struct {
	ID         string
	LastMod    time.Time
	Assertions []AssertionRecord
}

// NewTaskReport stamps a fresh report id and lastmod.
func NewTaskReport(assertions []AssertionRecord) TaskReport {
	return TaskReport{
		ID:         uuid.New().String(),
		LastMod:    time.Now().UTC(),
		Assertions: assertions,
	}
}

// ExecutionReport aggregates every TaskReport produced while running
// one Config. Per the spec, it is materialised only when at least one
// TaskReport holds at least one AssertionRecord; Executor enforces
// that, not this constructor.
type ExecutionReport struct {
	ID         string
	ConfigName string
	LastMod    time.Time
	Tasks      []TaskReport
}

// NewExecutionReport stamps a fresh report id and lastmod.
func NewExecutionReport(configName string, tasks []TaskReport) ExecutionReport {
	return ExecutionReport{
		ID:         uuid.New().String(),
		ConfigName: configName,
		LastMod:    time.Now().UTC(),
		Tasks:      tasks,
	}
}

// HasAssertions reports whether any task in tasks produced at least
// one assertion, the gate on materialising an ExecutionReport at all.
func HasAssertions(tasks []TaskReport) bool {
	for _, t := range tasks {
		if len(t.Assertions) > 0 {
			return true
		}
	}
	return false
}
