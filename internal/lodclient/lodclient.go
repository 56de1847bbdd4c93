// Package lodclient fetches an RDF description of a subject URL:
// content-negotiated retrieval with format fallback, and HTML
// signposting / embedded-RDF discovery when no RDF media type is
// served directly.
//
// Grounded on travharv/web_discovery.py's get_description_into_graph,
// generalized from its single hard-coded Accept header into the
// spec's ordered accept-types walk, and on
// pithecene-io-quarry/adapter/webhook.Adapter for the HTTP
// client/retry shape.
package lodclient

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/pithecene-io/travharv/internal/retry"
	"github.com/pithecene-io/travharv/iox"
)

// Media types the spec recognises as RDF-bearing responses.
const (
	MimeTurtle      = "text/turtle"
	MimeJSONLD      = "application/ld+json"
	MimeJSON        = "application/json"
	MimeHTML        = "text/html"
	MimeOctetStream = "application/octet-stream"
)

// DefaultAcceptTypes is the Turtle-first negotiation order PathAssertion
// uses for harvesting.
var DefaultAcceptTypes = []string{MimeTurtle, MimeJSONLD}

func rdfFormatFor(acceptNegotiated, contentType string) (format string, ok bool) {
	switch contentType {
	case MimeTurtle:
		return MimeTurtle, true
	case MimeJSONLD, MimeJSON:
		return MimeJSONLD, true
	case MimeOctetStream:
		if acceptNegotiated == MimeTurtle {
			return MimeTurtle, true
		}
		return "", false
	default:
		return "", false
	}
}

// Client fetches RDF descriptions over HTTP with the spec's retry
// policy and format fallback.
type Client struct {
	httpClient *http.Client
}

// New returns a Client with a 30s per-request timeout.
func New() *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// GetGraphForFormat implements the spec's get_graph_for_format: try
// each accept type in order, fall back to HTML signposting/embedded-RDF
// discovery, and return nil if nothing yielded RDF. visited guards
// against signposting cycles; pass a fresh map per top-level harvest
// call.
func (c *Client) GetGraphForFormat(ctx context.Context, subjectURL string, acceptTypes []string, visited map[string]bool) (*rdf2go.Graph, error) {
	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[subjectURL] {
		return nil, nil
	}
	visited[subjectURL] = true

	for _, accept := range acceptTypes {
		body, contentType, status, err := c.get(ctx, subjectURL, accept)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			continue
		}
		format, ok := rdfFormatFor(accept, contentType)
		if !ok {
			continue
		}
		g := rdf2go.NewGraph(subjectURL)
		if err := g.Parse(strings.NewReader(body), format); err != nil {
			continue
		}
		return g, nil
	}

	return c.discoverViaHTML(ctx, subjectURL, acceptTypes, visited)
}

// discoverViaHTML re-requests subjectURL with Accept: text/html and
// unions the graphs reachable via <link rel=describedby> and embedded
// <script> RDF bodies.
func (c *Client) discoverViaHTML(ctx context.Context, subjectURL string, acceptTypes []string, visited map[string]bool) (*rdf2go.Graph, error) {
	body, contentType, status, err := c.get(ctx, subjectURL, MimeHTML)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !strings.HasPrefix(contentType, MimeHTML) {
		return nil, nil
	}

	signposts, err := parseSignposting(strings.NewReader(body))
	if err != nil {
		return nil, nil
	}

	union := rdf2go.NewGraph(subjectURL)
	any := false

	for _, href := range signposts.Links {
		abs, err := resolveAgainst(subjectURL, href)
		if err != nil {
			continue
		}
		linked, err := c.GetGraphForFormat(ctx, abs, acceptTypes, visited)
		if err != nil {
			return nil, err
		}
		if linked != nil {
			mergeInto(union, linked)
			any = true
		}
	}

	for _, script := range signposts.Scripts {
		format, ok := rdfFormatFor(script.MimeType, script.MimeType)
		if !ok {
			continue
		}
		if err := union.Parse(strings.NewReader(script.Body), format); err == nil {
			any = true
		}
	}

	if !any {
		return nil, nil
	}
	return union, nil
}

func mergeInto(dst, src *rdf2go.Graph) {
	for _, t := range iterTriples(src) {
		dst.AddTriple(t.Subject, t.Predicate, t.Object)
	}
}

func resolveAgainst(base, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// get issues one GET with the given Accept header, retrying per
// retry.Default on the transient status set. It returns the response
// body, the Content-Type (media-type only, parameters stripped), and
// the final status code.
func (c *Client) get(ctx context.Context, target, accept string) (body, contentType string, status int, err error) {
	var lastErr error
	for attempt := 1; attempt <= retry.Default.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return "", "", 0, fmt.Errorf("lodclient: build request for %s: %w", target, err)
		}
		req.Header.Set("Accept", accept)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			lastErr = doErr
			if !retry.Default.Sleep(ctx, attempt) {
				return "", "", 0, fmt.Errorf("lodclient: fetch %s: %w", target, lastErr)
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		iox.DiscardClose(resp.Body)
		if readErr != nil {
			lastErr = readErr
			if !retry.Default.Sleep(ctx, attempt) {
				return "", "", 0, fmt.Errorf("lodclient: read body from %s: %w", target, lastErr)
			}
			continue
		}

		if retry.RetryableStatus[resp.StatusCode] {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if !retry.Default.Sleep(ctx, attempt) {
				return string(data), mediaType(resp.Header.Get("Content-Type")), resp.StatusCode, nil
			}
			continue
		}

		return string(data), mediaType(resp.Header.Get("Content-Type")), resp.StatusCode, nil
	}
	return "", "", 0, fmt.Errorf("lodclient: exhausted retries fetching %s: %w", target, lastErr)
}

func mediaType(ctypeHeader string) string {
	t, _, err := mime.ParseMediaType(ctypeHeader)
	if err != nil {
		return ctypeHeader
	}
	return t
}

func iterTriples(g *rdf2go.Graph) []*rdf2go.Triple {
	ch := g.IterTriples()
	var out []*rdf2go.Triple
	for t := range ch {
		out = append(out, t)
	}
	return out
}
