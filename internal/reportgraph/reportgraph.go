// Package reportgraph renders an ExecutionReport into RDF triples
// ready for insertion into a config's named graph by the Executor.
//
// The concrete vocabulary is left to this package's own IRIs (rooted
// under the same urn:traversal-harvesting: base store.DefaultBase
// uses) plus schema.org's DataDownload/contentUrl terms and void's
// triples count, per the required shape. The original source
// (execution_report.py) leaves its own triple templates as TODOs, so
// there is no prior art to follow beyond the field list the report
// types already carry.
package reportgraph

import (
	"strconv"

	"github.com/deiu/rdf2go"

	"github.com/pithecene-io/travharv/internal/model"
)

// Vocab is the namespace every predicate and class IRI this package
// mints is rooted under.
const Vocab = "urn:traversal-harvesting:vocab#"

const (
	schemaNS = "https://schema.org/"
	voidNS   = "http://rdfs.org/ns/void#"
	xsdNS    = "http://www.w3.org/2001/XMLSchema#"
)

var (
	xsdDateTime = rdf2go.NewResource(xsdNS + "dateTime")
	xsdInteger  = rdf2go.NewResource(xsdNS + "integer")
	xsdBoolean  = rdf2go.NewResource(xsdNS + "boolean")
)

func iri(local string) rdf2go.Term    { return rdf2go.NewResource(Vocab + local) }
func node(id string) rdf2go.Term      { return rdf2go.NewBlankNode(id) }
func schema(local string) rdf2go.Term { return rdf2go.NewResource(schemaNS + local) }

func add(g *rdf2go.Graph, s, p, o rdf2go.Term) { g.AddTriple(s, p, o) }

// Render builds the RDF graph for one ExecutionReport. Callers insert
// the result into the config's own named graph via
// StoreFacade.InsertForConfig.
func Render(report model.ExecutionReport) *rdf2go.Graph {
	g := rdf2go.NewGraph("")

	reportNode := node(report.ID)
	add(g, reportNode, iri("type"), iri("ExecutionReport"))
	add(g, reportNode, iri("configName"), rdf2go.NewLiteral(report.ConfigName))
	add(g, reportNode, iri("lastMod"), rdf2go.NewLiteralWithDatatype(report.LastMod.Format(rfc3339), xsdDateTime))

	for _, task := range report.Tasks {
		taskNode := node(task.ID)
		add(g, reportNode, iri("task"), taskNode)
		add(g, taskNode, iri("type"), iri("TaskReport"))
		add(g, taskNode, iri("lastMod"), rdf2go.NewLiteralWithDatatype(task.LastMod.Format(rfc3339), xsdDateTime))

		for _, assertion := range task.Assertions {
			renderAssertion(g, taskNode, assertion)
		}
	}

	return g
}

func renderAssertion(g *rdf2go.Graph, taskNode rdf2go.Term, a model.AssertionRecord) {
	assertionNode := node(a.ID)
	add(g, taskNode, iri("assertion"), assertionNode)
	add(g, assertionNode, iri("type"), iri("AssertionRecord"))
	add(g, assertionNode, iri("subject"), rdf2go.NewResource(a.Subject))
	add(g, assertionNode, iri("assertionPath"), rdf2go.NewLiteral(a.PathText))
	add(g, assertionNode, iri("result"), rdf2go.NewLiteralWithDatatype(boolLiteral(a.Result), xsdBoolean))
	add(g, assertionNode, iri("timestamp"), rdf2go.NewLiteralWithDatatype(a.Timestamp.Format(rfc3339), xsdDateTime))
	add(g, assertionNode, iri("message"), rdf2go.NewLiteral(a.Message))

	for _, graphAdded := range a.GraphsAdded {
		graphNode := node(graphAdded.ID)
		add(g, assertionNode, iri("graphAdded"), graphNode)
		add(g, graphNode, iri("type"), schema("DataDownload"))
		add(g, graphNode, schema("contentUrl"), rdf2go.NewResource(graphAdded.URL))
		add(g, graphNode, schema("encodingFormat"), rdf2go.NewLiteral(graphAdded.MimeType))
		add(g, graphNode, rdf2go.NewResource(voidNS+"triples"),
			rdf2go.NewLiteralWithDatatype(intLiteral(graphAdded.TripleCount), xsdInteger))
	}
}

func boolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func intLiteral(n int) string {
	return strconv.Itoa(n)
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"
