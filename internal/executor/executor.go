// Package executor walks one Config's tasks, subjects, and paths
// through PathAssertion, aggregates the results into an
// ExecutionReport, and inserts its RDF rendering into the config's
// named graph.
//
// Grounded on travharv/runner.py's per-config task loop (materialise
// subjects once per task, assert every subject x path, collect into
// the report hierarchy) and on execution_report.py's
// report/task/assertion nesting (see internal/model/report.go,
// internal/reportgraph).
package executor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pithecene-io/travharv/internal/assertion"
	"github.com/pithecene-io/travharv/internal/lodclient"
	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/reportgraph"
	"github.com/pithecene-io/travharv/internal/store"
	"github.com/pithecene-io/travharv/log"
)

// Deps are the collaborators Executor threads down into every
// PathAssertion it drives.
type Deps struct {
	Facade      *store.Facade
	Client      *lodclient.Client
	AcceptTypes []string
	Logger      *log.Logger
}

func (d Deps) assertionDeps() assertion.Deps {
	return assertion.Deps{
		Facade:      d.Facade,
		Client:      d.Client,
		AcceptTypes: d.AcceptTypes,
		Logger:      d.Logger,
	}
}

// Run executes every task in cfg and returns the ExecutionReport it
// produced. Per the spec, a report is only materialised (non-nil) if
// at least one TaskReport holds at least one AssertionRecord; a config
// whose tasks produced nothing returns (nil, nil).
func Run(ctx context.Context, deps Deps, cfg *model.Config) (*model.ExecutionReport, error) {
	logger := deps.Logger
	if logger != nil {
		logger = logger.WithConfig(cfg.Name)
	}

	taskReports := make([]model.TaskReport, 0, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		assertions, err := runTask(ctx, deps, cfg, task, logger)
		if err != nil && logger != nil {
			logger.Error("task aborted", zap.Error(err))
		}
		taskReports = append(taskReports, model.NewTaskReport(assertions))
	}

	if !model.HasAssertions(taskReports) {
		return nil, nil
	}

	report := model.NewExecutionReport(cfg.Name, taskReports)
	g := reportgraph.Render(report)
	if err := deps.Facade.InsertForConfig(ctx, g, cfg.Name); err != nil {
		return nil, err
	}
	return &report, nil
}

// runTask materialises task's subject list and asserts every
// subject x path pair. An InvalidSubjectError skips just that subject;
// any other error is fatal for the task and the partial assertion
// list collected so far is returned alongside it.
func runTask(ctx context.Context, deps Deps, cfg *model.Config, task model.Task, logger *log.Logger) ([]model.AssertionRecord, error) {
	subjects, err := task.Subjects.Subjects(ctx, deps.Facade)
	if err != nil {
		return nil, err
	}

	var out []model.AssertionRecord
	assertDeps := deps.assertionDeps()

subjects:
	for _, subject := range subjects {
		for _, p := range task.Paths {
			rec, err := assertion.Run(ctx, assertDeps, cfg.Name, subject, p, cfg.NSM)
			if err != nil {
				var invalid *model.InvalidSubjectError
				if errors.As(err, &invalid) {
					if logger != nil {
						logger.Warn("skipping invalid subject", zap.String("subject", subject))
					}
					continue subjects
				}
				return out, err
			}
			out = append(out, *rec)
		}
	}
	return out, nil
}
