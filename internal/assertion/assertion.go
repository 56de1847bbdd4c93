// Package assertion drives one (subject, property path) pair through
// the traversal-and-verification state machine: verify progressively
// shorter prefixes of the path against the store, harvest and insert
// new RDF whenever a prefix resolves (or, failing all of them, harvest
// the subject itself), then retry the full path once more before
// giving up.
//
// Grounded on travharv/path_assertion.py's SubjPropPathAssertion: the
// depth/previous_bounce_depth/bounced fields and the assert/verify/
// harvest/surface method split carry over directly; see the decision
// notes on succesfulAssertionDepth below for the one place this
// implementation diverges from a literal reading of that source.
package assertion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pithecene-io/travharv/internal/lodclient"
	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/store"
	"github.com/pithecene-io/travharv/internal/urikit"
	"github.com/pithecene-io/travharv/log"
)

// Deps are the collaborators PathAssertion needs: the store facade it
// verifies and inserts against, and the LOD client it harvests with.
type Deps struct {
	Facade      *store.Facade
	Client      *lodclient.Client
	AcceptTypes []string
	Logger      *log.Logger
}

func (d Deps) acceptTypes() []string {
	if len(d.AcceptTypes) > 0 {
		return d.AcceptTypes
	}
	return lodclient.DefaultAcceptTypes
}

// Run asserts one (subject, path) pair for configName and returns the
// AssertionRecord it produced. A subject that fails IRI validation
// produces no record: the caller should skip it rather than treat it
// as a run failure (*model.InvalidSubjectError is returned so callers
// can tell the two cases apart).
//
// Depth bookkeeping mirrors the source one-for-one: depth counts how
// many trailing steps have been backed off from the full path; each
// verify failure increases it, and resolving any prefix (or
// exhausting the path entirely) resets it to 0 and marks the run
// "bounced", giving the full path one more attempt. The loop exits
// once a bounce has happened and depth has backed off past what that
// bounce already recovered, or immediately once a verify resolves the
// full path (depth 0): at that point every step is known to resolve,
// so there is nothing left to bounce for.
//
// succesfulAssertionDepth is tracked here as the RESOLVED PREFIX
// LENGTH (n - depth at the moment a verify succeeds), not the literal
// depth value path_assertion.py assigns to it. A literal depth
// assignment can never equal n at the final comparison, which would
// make every assertion report failure; tracking prefix length instead
// matches the field's own "deepest prefix ever verified, in [0, n]"
// definition and the worked examples of a path resolving in stages.
func Run(ctx context.Context, deps Deps, configName, subject string, path model.PropertyPath, nsm *urikit.NamespaceManager) (*model.AssertionRecord, error) {
	if !urikit.IsURI(subject) {
		return nil, &model.InvalidSubjectError{Subject: subject}
	}

	n := len(path)
	header := urikit.InjectPrefixes("", nsm)

	depth := 0
	previousBounceDepth := 0
	bounced := false
	succesfulAssertionDepth := 0
	var graphsAdded []model.GraphAdditionRecord
	lastSubPath := path

	logger := deps.Logger

	for depth <= n {
		if bounced && depth >= n-previousBounceDepth {
			break
		}

		if depth == n {
			added, err := harvest(ctx, deps, configName, subject)
			if err != nil {
				return nil, err
			}
			graphsAdded = append(graphsAdded, added...)
			previousBounceDepth = depth
			depth = 0
			bounced = true
			continue
		}

		subPath := path.SubPath(depth)
		lastSubPath = subPath

		ok, err := deps.Facade.VerifyPath(ctx, subject, subPath, header)
		if err != nil {
			return nil, err
		}

		if !ok {
			depth++
			continue
		}

		succesfulAssertionDepth = n - depth

		endpoint, found, err := deps.Facade.EndpointObject(ctx, subject, subPath, header)
		if err != nil {
			return nil, err
		}
		if found && urikit.IsURI(endpoint) {
			added, err := harvest(ctx, deps, configName, endpoint)
			if err != nil {
				return nil, err
			}
			graphsAdded = append(graphsAdded, added...)
		}

		// A verify at depth 0 resolved the full path: there is no
		// shorter prefix left to retry and nothing further to gain by
		// bouncing, so stop here. Without this, a full-path success
		// keeps resetting previousBounceDepth to 0 and the exit guard
		// below (depth >= n-previousBounceDepth) never trips, looping
		// forever re-verifying and re-harvesting the same endpoint.
		if succesfulAssertionDepth == n {
			break
		}

		previousBounceDepth = depth
		depth = 0
		bounced = true
	}

	result := succesfulAssertionDepth == n
	pathText := lastSubPath.String()
	message := fmt.Sprintf("Assertion failed, last path: %s", pathText)
	if result {
		pathText = path.String()
		message = "Assertion successful"
	}

	if logger != nil {
		logger.Debug("path assertion finished",
			zap.String("subject", subject),
			zap.Bool("result", result),
			zap.Int("graphs_added", len(graphsAdded)))
	}

	rec := model.NewAssertionRecord(subject, pathText, succesfulAssertionDepth, result, message, graphsAdded)
	return &rec, nil
}

// harvest fetches uri's RDF description and inserts it into configName's
// named graph. Per the spec's retry-exhaustion edge case, a transport
// failure (the client exhausting its retry budget) contributes no
// triples and is not treated as a hard error; only a store insert
// failure propagates, since that indicates the backend itself is
// unusable for the rest of the run.
func harvest(ctx context.Context, deps Deps, configName, uri string) ([]model.GraphAdditionRecord, error) {
	accept := deps.acceptTypes()
	g, err := deps.Client.GetGraphForFormat(ctx, uri, accept, nil)
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.Warn("harvest exhausted retries, continuing with no triples",
				zap.String("uri", uri), zap.Error(err))
		}
		return nil, nil
	}
	if g == nil || g.Len() == 0 {
		return nil, nil
	}
	if err := deps.Facade.InsertForConfig(ctx, g, configName); err != nil {
		return nil, err
	}
	rec := model.NewGraphAdditionRecord(uri, accept[0], g.Len())
	return []model.GraphAdditionRecord{rec}, nil
}
