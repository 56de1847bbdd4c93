package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pithecene-io/travharv/internal/service"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestRunEndToEndDumpsTurtle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dir := t.TempDir()
	initFile := writeFile(t, dir, "seed.ttl",
		`<https://example.org/r/1> <https://example.org/ns#isPartOf> <`+ts.URL+`> .`+"\n")

	configYAML := `
snooze-till-graph-age-minutes: 0
prefix:
  ex: "https://example.org/ns#"
assert:
  - subjects:
      literal:
        - "https://example.org/r/1"
    paths:
      - "ex:isPartOf"
`
	configFile := writeFile(t, dir, "demo.yaml", configYAML)
	dumpFile := filepath.Join(dir, "out.ttl")

	s := service.New(service.Options{}, nil)
	ctx := context.Background()
	opts := service.Options{
		ConfigPath:  configFile,
		InitContext: []string{initFile},
		Dump:        dumpFile,
	}
	if err := s.Run(ctx, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(dumpFile)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !strings.Contains(string(data), "https://example.org/r/1") {
		t.Fatalf("expected the seeded subject in the dump, got:\n%s", data)
	}
}

func TestRunEndToEndDumpsJSONLD(t *testing.T) {
	dir := t.TempDir()
	initFile := writeFile(t, dir, "seed.ttl",
		`<https://example.org/r/2> <https://example.org/ns#label> "demo" .`+"\n")

	configYAML := `
snooze-till-graph-age-minutes: 0
prefix:
  ex: "https://example.org/ns#"
assert:
  - subjects:
      literal:
        - "https://example.org/r/2"
    paths:
      - "ex:label"
`
	configFile := writeFile(t, dir, "demo.yaml", configYAML)
	dumpFile := filepath.Join(dir, "out.jsonld")

	s := service.New(service.Options{}, nil)
	ctx := context.Background()
	opts := service.Options{
		ConfigPath:  configFile,
		InitContext: []string{initFile},
		Dump:        dumpFile,
	}
	if err := s.Run(ctx, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(dumpFile)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"@id"`) || !strings.Contains(out, "https://example.org/r/2") {
		t.Fatalf("expected a JSON-LD node for the seeded subject, got:\n%s", out)
	}
}

func TestRunAbortsFolderBuildOnOneMalformedConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", `
snooze-till-graph-age-minutes: 0
prefix:
  ex: "https://example.org/ns#"
assert: []
`)
	writeFile(t, dir, "good.yaml", `
snooze-till-graph-age-minutes: 0
prefix:
  ex: "https://example.org/ns#"
assert:
  - subjects:
      literal:
        - "https://example.org/r/3"
    paths:
      - "ex:label"
`)

	s := service.New(service.Options{}, nil)
	err := s.Run(context.Background(), service.Options{ConfigPath: dir})
	if err == nil {
		t.Fatal("expected the malformed bad.yaml config to surface as a BuildFromFolder error")
	}
}
