package log_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pithecene-io/travharv/log"
)

func TestFromConfigFileBuildsAWorkingLogger(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logconf.json")
	contents := `{
		"level": "info",
		"encoding": "json",
		"outputPaths": ["stdout"],
		"errorOutputPaths": ["stderr"],
		"encoderConfig": {
			"messageKey": "message",
			"levelKey": "level",
			"timeKey": "timestamp"
		}
	}`
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	logger, err := log.FromConfigFile(p)
	if err != nil {
		t.Fatalf("FromConfigFile: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
	logger.Info("hello from a test")
}

func TestFromConfigFileRejectsMissingFile(t *testing.T) {
	if _, err := log.FromConfigFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestWithConfigAndWithTaskChainContextFields(t *testing.T) {
	base := log.New()
	withConfig := base.WithConfig("demo")
	withTask := withConfig.WithTask("task-1")
	withTask.Debug("nested context fields attached")
}
