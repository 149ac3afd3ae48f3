package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/imdidiff/internal/platform"
	"github.com/sdejongh/imdidiff/pkg/config"
	"github.com/sdejongh/imdidiff/pkg/exclude"
	"github.com/sdejongh/imdidiff/pkg/logging"
	"github.com/sdejongh/imdidiff/pkg/models"
	"github.com/sdejongh/imdidiff/pkg/normalize"
)

// checkDirectory resolves path and fails with ExitNotDirectory unless it is
// an existing directory
func checkDirectory(path string) (string, error) {
	if err := platform.ValidatePath(path); err != nil {
		return "", exitError(ExitNotDirectory, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", exitError(ExitNotDirectory, fmt.Errorf("failed to resolve %s: %w", path, err))
	}
	abs = platform.NormalizePath(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", exitError(ExitNotDirectory, fmt.Errorf("%s is not a directory", path))
	}
	return abs, nil
}

// validatePair rejects identical or nested source and target trees
func validatePair(source, target string) error {
	if source == target {
		return exitError(ExitUsage, fmt.Errorf("source and target cannot be the same: %s", source))
	}
	if isWithin(target, source) {
		return exitError(ExitUsage, fmt.Errorf("target cannot be inside source directory"))
	}
	if isWithin(source, target) {
		return exitError(ExitUsage, fmt.Errorf("source cannot be inside target directory"))
	}
	return nil
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(globalFlags.ConfigFile)
	if err != nil {
		return nil, exitError(ExitUsage, fmt.Errorf("failed to load config: %w", err))
	}
	return cfg, nil
}

// loadExcludeList reads the operator exclude list. An unreadable file maps
// to ExitExcludeUnread, a malformed one to ExitExcludeMalformed.
func loadExcludeList(path string) ([]exclude.Entry, error) {
	if path == "" {
		return nil, nil
	}
	entries, err := exclude.LoadFile(path)
	if err != nil {
		var perr *exclude.ParseError
		if errors.As(err, &perr) {
			return nil, exitError(ExitExcludeMalformed, err)
		}
		return nil, exitError(ExitExcludeUnread, err)
	}
	return entries, nil
}

// createNormalizer builds the normalization pipeline from configuration
func createNormalizer(cfg config.NormalizeConfig, logger logging.Logger) (*normalize.Normalizer, error) {
	rules := normalize.BuiltinIMDIRules()
	if cfg.Rules != "" {
		var err error
		if rules, err = normalize.LoadRules(cfg.Rules); err != nil {
			return nil, exitError(ExitUsage, err)
		}
	}

	var transformer normalize.Transformer
	if cfg.Stylesheet != "" {
		cmd, err := normalize.NewCommand(cfg.Command, cfg.Stylesheet, logger)
		if err != nil {
			return nil, exitError(ExitUsage, err)
		}
		transformer = cmd
	}

	return normalize.New(cfg.Options, rules, transformer), nil
}

// createCompareOperation creates a compare operation from configuration
func createCompareOperation(cfg *config.Config, source, target, excludeList string) (*models.CompareOperation, error) {
	operation := &models.CompareOperation{
		ID:              uuid.New().String(),
		SourceRoot:      source,
		TargetRoot:      target,
		ExcludeList:     excludeList,
		Extensions:      cfg.Compare.Extensions,
		ExcludePatterns: cfg.Exclude.Patterns,
		Timeout:         cfg.Compare.Timeout,
		ShowSuppressed:  cfg.Output.ShowSuppressed,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, exitError(ExitUsage, err)
	}

	return operation, nil
}
