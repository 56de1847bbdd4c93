// Package service is the top-level orchestration point: construct the
// backend, seed the store from initial context, build one or many job
// configs, drive Executor over each, and optionally dump the store's
// contents.
//
// Grounded on travharv/runner.py's top-level run() (construct store,
// load init context, iterate configs, execute) and on
// pithecene-io-quarry's cmd/quarry/main.go for how a thin CLI wires
// into a Service-shaped orchestration layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deiu/rdf2go"
	"go.uber.org/zap"

	"github.com/pithecene-io/travharv/internal/config"
	"github.com/pithecene-io/travharv/internal/executor"
	"github.com/pithecene-io/travharv/internal/lodclient"
	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/store"
	"github.com/pithecene-io/travharv/log"
)

// Options configures one Service run; it mirrors the CLI's flag set
// directly.
type Options struct {
	// ConfigPath is a single config file or a folder of them.
	ConfigPath string
	// Dump is the output destination: "" for no dump, "-" for stdout,
	// or a file path whose suffix selects the serialisation (.ttl
	// turtle, .jsonld/.json JSON-LD, anything else turtle).
	Dump string
	// InitContext lists files, folders, or URLs to pre-load into the
	// store's context graph before any config runs.
	InitContext []string
	// ReadURI/WriteURI select the remote SPARQL backend when both are
	// set; a memory backend is used when either is empty.
	ReadURI, WriteURI string
	// Base overrides the named-graph URN base. Empty uses
	// store.DefaultBase.
	Base string
}

// Service holds the store facade and LOD client a run is driven
// through.
type Service struct {
	Facade *store.Facade
	Client *lodclient.Client
	Logger *log.Logger
}

// New constructs a Service's backend per opts: a remote SPARQL backend
// when both ReadURI and WriteURI are set, a memory backend otherwise.
func New(opts Options, logger *log.Logger) *Service {
	base := opts.Base
	if base == "" {
		base = store.DefaultBase
	}

	var backend store.Backend
	if opts.ReadURI != "" && opts.WriteURI != "" {
		backend = store.NewRemoteBackend(opts.ReadURI, opts.WriteURI, base)
	} else {
		backend = store.NewMemoryBackend()
	}

	return &Service{
		Facade: store.NewFacade(backend, base),
		Client: lodclient.New(),
		Logger: logger,
	}
}

// Run executes one end-to-end pass: load initial context, build
// configs, execute each, and dump if requested.
func (s *Service) Run(ctx context.Context, opts Options) error {
	if len(opts.InitContext) > 0 {
		if err := s.loadInitialContext(ctx, opts.InitContext); err != nil {
			return err
		}
	}

	cfgs, err := s.buildConfigs(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	for _, cfg := range cfgs {
		deps := executor.Deps{Facade: s.Facade, Client: s.Client, Logger: s.Logger}
		if _, err := executor.Run(ctx, deps, cfg); err != nil {
			if s.Logger != nil {
				s.Logger.WithConfig(cfg.Name).Error("config execution failed", zap.Error(err))
			}
			continue
		}
	}

	if opts.Dump != "" {
		return s.dump(ctx, opts.Dump)
	}
	return nil
}

func (s *Service) buildConfigs(ctx context.Context, path string) ([]*model.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &model.ConfigError{ConfigName: path, Err: fmt.Errorf("stat config path: %w", err)}
	}

	b := config.NewBuilder(s.Facade)
	if info.IsDir() {
		return b.BuildFromFolder(ctx, path)
	}

	cfg, err := b.BuildFromFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}
	return []*model.Config{cfg}, nil
}

// loadInitialContext merges every resource (file, folder, or URL) into
// one graph and inserts it under the context named graph.
func (s *Service) loadInitialContext(ctx context.Context, resources []string) error {
	union := rdf2go.NewGraph("")
	for _, r := range resources {
		if strings.HasPrefix(r, "http://") || strings.HasPrefix(r, "https://") {
			g, err := s.Client.GetGraphForFormat(ctx, r, lodclient.DefaultAcceptTypes, nil)
			if err != nil {
				return fmt.Errorf("initial context %s: %w", r, err)
			}
			mergeGraph(union, g)
			continue
		}

		info, err := os.Stat(r)
		if err != nil {
			return fmt.Errorf("initial context %s: %w", r, err)
		}
		if !info.IsDir() {
			if err := loadFileInto(union, r); err != nil {
				return err
			}
			continue
		}

		entries, err := os.ReadDir(r)
		if err != nil {
			return fmt.Errorf("initial context dir %s: %w", r, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			if err := loadFileInto(union, filepath.Join(r, n)); err != nil {
				return err
			}
		}
	}

	if union.Len() == 0 {
		return nil
	}
	return s.Facade.Insert(ctx, union, s.Facade.Base()+"context")
}

func loadFileInto(g *rdf2go.Graph, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read initial context file %s: %w", path, err)
	}
	if err := g.Parse(bytes.NewReader(data), formatForPath(path)); err != nil {
		return fmt.Errorf("parse initial context file %s: %w", path, err)
	}
	return nil
}

func mergeGraph(dst, src *rdf2go.Graph) {
	if src == nil {
		return
	}
	ch := src.IterTriples()
	for t := range ch {
		dst.AddTriple(t.Subject, t.Predicate, t.Object)
	}
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonld", ".json":
		return lodclient.MimeJSONLD
	default:
		return lodclient.MimeTurtle
	}
}

// dump serialises every triple currently in the store to dest. Format
// is inferred from dest's suffix (.ttl turtle, .jsonld/.json JSON-LD,
// anything else turtle); dest "-" writes to stdout.
func (s *Service) dump(ctx context.Context, dest string) error {
	res, err := s.Facade.AllTriples(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if dest != "-" {
		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("create dump destination %s: %w", dest, err)
		}
		defer f.Close()
		w = f
	}

	if strings.HasSuffix(strings.ToLower(dest), ".jsonld") || strings.HasSuffix(strings.ToLower(dest), ".json") {
		return writeJSONLD(w, res)
	}
	return writeTurtle(w, res)
}
