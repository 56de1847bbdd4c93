// Package config loads one or many job configuration files into
// model.Config values: case-folded top-level keys, shape validation,
// prefix/path resolution, and the snooze freshness check against the
// store.
//
// Grounded on pithecene-io-quarry's cli/config package (yaml.v3 with
// KnownFields(true), a Load(path) entry point) for the loading shape,
// adapted with a yaml.Node pre-pass since travharv's required keys are
// case-insensitive at the top level while quarry's config keys are
// fixed-case Go struct tags.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/travharv/internal/model"
	"github.com/pithecene-io/travharv/internal/store"
	"github.com/pithecene-io/travharv/internal/urikit"
)

// rawConfig is the YAML shape of one job config, decoded after its
// top-level keys have been case-folded to lower-case.
type rawConfig struct {
	SnoozeMinutes *int              `yaml:"snooze-till-graph-age-minutes"`
	Prefix        map[string]string `yaml:"prefix"`
	Assert        []rawTask         `yaml:"assert"`
}

type rawTask struct {
	Subjects rawSubjects `yaml:"subjects"`
	Paths    []string    `yaml:"paths"`
}

type rawSubjects struct {
	Literal []string `yaml:"literal"`
	SPARQL  string   `yaml:"SPARQL"`
}

// Builder builds model.Config values from YAML files, applying the
// snooze rule against facade's tracked lastmod timestamps.
type Builder struct {
	Facade *store.Facade
	// Now returns the current time; defaults to time.Now when nil.
	// Exposed for tests that need a fixed clock.
	Now func() time.Time
}

// NewBuilder returns a Builder that checks snooze state against facade.
func NewBuilder(facade *store.Facade) *Builder {
	return &Builder{Facade: facade}
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

// BuildFromFile loads one config file. It returns (nil, nil) if the
// config is snoozed: that is not an error, just an empty result.
func (b *Builder) BuildFromFile(ctx context.Context, path string) (*model.Config, error) {
	name := configName(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &model.ConfigError{ConfigName: name, Err: fmt.Errorf("stat %s: %w", path, err)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ConfigError{ConfigName: name, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	raw, err := parseRaw(data)
	if err != nil {
		return nil, &model.ConfigError{ConfigName: name, Err: err}
	}

	if err := validateShape(raw); err != nil {
		return nil, &model.ConfigError{ConfigName: name, Err: err}
	}

	snoozeMinutes := 0
	if raw.SnoozeMinutes != nil {
		snoozeMinutes = *raw.SnoozeMinutes
	}

	skip, err := b.shouldSkip(ctx, name, info.ModTime(), snoozeMinutes)
	if err != nil {
		return nil, &model.ConfigError{ConfigName: name, Err: err}
	}
	if skip {
		return nil, nil
	}

	return buildConfig(name, raw, snoozeMinutes)
}

// BuildFromFolder loads every *.yml/*.yaml file (case-insensitive) in
// dir lexicographically. Any single file's load failure aborts the
// whole folder build.
func (b *Builder) BuildFromFolder(ctx context.Context, dir string) ([]*model.Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &model.ConfigError{ConfigName: dir, Err: fmt.Errorf("read dir %s: %w", dir, err)}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []*model.Config
	for _, n := range names {
		cfg, err := b.BuildFromFile(ctx, filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (b *Builder) shouldSkip(ctx context.Context, name string, fileModTime time.Time, snoozeMinutes int) (bool, error) {
	if b.Facade == nil {
		return false, nil
	}
	lastmod, err := b.Facade.LastModTSForConfig(ctx, name)
	if err != nil {
		return false, err
	}
	if lastmod == nil {
		return false, nil
	}
	deadline := (model.Config{SnoozeMinutes: snoozeMinutes}).SnoozeDeadline(b.now())
	snoozed := lastmod.After(deadline)
	if snoozed && fileModTime.After(*lastmod) {
		snoozed = false
	}
	return snoozed, nil
}

func configName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseRaw decodes data into a rawConfig after lower-casing its
// top-level mapping keys; travharv's config keys are case-insensitive
// only at that level.
func parseRaw(data []byte) (*rawConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty config document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config document must be a mapping")
	}
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i]
		key.Value = strings.ToLower(key.Value)
	}

	var raw rawConfig
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &raw, nil
}

func validateShape(raw *rawConfig) error {
	if raw.SnoozeMinutes == nil {
		return fmt.Errorf("missing required key snooze-till-graph-age-minutes")
	}
	if *raw.SnoozeMinutes < 0 {
		return fmt.Errorf("snooze-till-graph-age-minutes must be non-negative, got %d", *raw.SnoozeMinutes)
	}
	if len(raw.Prefix) == 0 {
		return fmt.Errorf("missing required key prefix")
	}
	if len(raw.Assert) == 0 {
		return fmt.Errorf("assert list must be non-empty")
	}
	for i, t := range raw.Assert {
		hasLiteral := len(t.Subjects.Literal) > 0
		hasSPARQL := strings.TrimSpace(t.Subjects.SPARQL) != ""
		if hasLiteral == hasSPARQL {
			return fmt.Errorf("assert[%d].subjects must set exactly one of literal or sparql", i)
		}
		if hasSPARQL {
			nsm := urikit.NewNamespaceManager()
			for prefix, ns := range raw.Prefix {
				nsm.Bind(prefix, ns)
			}
			if err := store.ValidateSelect(urikit.InjectPrefixes(t.Subjects.SPARQL, nsm)); err != nil {
				return fmt.Errorf("assert[%d].subjects.sparql: %w", i, err)
			}
		}
		if len(t.Paths) == 0 {
			return fmt.Errorf("assert[%d].paths must be non-empty", i)
		}
	}
	return nil
}

func buildConfig(name string, raw *rawConfig, snoozeMinutes int) (*model.Config, error) {
	nsm := urikit.NewNamespaceManager()
	for prefix, ns := range raw.Prefix {
		nsm.Bind(prefix, ns)
	}

	tasks := make([]model.Task, 0, len(raw.Assert))
	for i, t := range raw.Assert {
		paths := make(model.AssertPathSet, 0, len(t.Paths))
		for _, text := range t.Paths {
			steps, err := urikit.ResolvePath(text, nsm)
			if err != nil {
				return nil, &model.ConfigError{ConfigName: name, Err: fmt.Errorf("assert[%d].paths %q: %w", i, text, err)}
			}
			paths = append(paths, model.PropertyPath(steps))
		}

		var subjects model.SubjectDefinition
		if len(t.Subjects.Literal) > 0 {
			iris := make([]string, 0, len(t.Subjects.Literal))
			for _, s := range t.Subjects.Literal {
				iri, err := urikit.ResolveURI(s, nsm)
				if err != nil {
					return nil, &model.ConfigError{ConfigName: name, Err: fmt.Errorf("assert[%d].subjects.literal %q: %w", i, s, err)}
				}
				iris = append(iris, iri)
			}
			subjects = model.LiteralSubjectDefinition{IRIs: iris}
		} else {
			subjects = model.SPARQLSubjectDefinition{Query: urikit.InjectPrefixes(t.Subjects.SPARQL, nsm)}
		}

		tasks = append(tasks, model.Task{Subjects: subjects, Paths: paths})
	}

	return &model.Config{
		Name:          name,
		NSM:           nsm,
		SnoozeMinutes: snoozeMinutes,
		Tasks:         tasks,
	}, nil
}
