// Package transform applies a document transformation to every file of a
// tree and writes the results to a parallel output tree.
package transform

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sdejongh/imdidiff/pkg/logging"
	"github.com/sdejongh/imdidiff/pkg/normalize"
	"github.com/sdejongh/imdidiff/pkg/storage"
)

// ErrTargetExists is returned when an output file is already present
var ErrTargetExists = errors.New("target file already exists")

// Options configures a tree transformation
type Options struct {
	// InputExtension is replaced by OutputExtension in output file names.
	// Files without it keep their name.
	InputExtension  string
	OutputExtension string
}

// Stats counts the outcome of a run
type Stats struct {
	Directories int
	Transformed int
	Failed      int
	BytesRead   int64
	BytesWrote  int64
}

// Runner walks an input tree and writes every transformed file below the
// output root. It never overwrites an existing output.
type Runner struct {
	input       storage.Backend
	output      storage.Backend
	transformer normalize.Transformer
	logger      logging.Logger
	opts        Options
}

// New creates a runner. logger may be nil.
func New(input, output storage.Backend, t normalize.Transformer, logger logging.Logger, opts Options) *Runner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Runner{
		input:       input,
		output:      output,
		transformer: t,
		logger:      logger,
		opts:        opts,
	}
}

// OutputPath maps an input relative path to its output relative path
func (r *Runner) OutputPath(rel string) string {
	in, out := r.opts.InputExtension, r.opts.OutputExtension
	if in == "" {
		return rel
	}
	dir, base := path.Split(rel)
	i := strings.LastIndex(strings.ToLower(base), strings.ToLower(in))
	if i < 0 {
		return rel
	}
	return dir + base[:i] + out + base[i+len(in):]
}

// Run transforms the whole input tree, mirroring its directories in the
// output tree. A failing transformation is logged
// and counted; an existing output file or an I/O failure on the output
// side aborts the run.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	r.logger.Info(ctx, fmt.Sprintf("Transforming files in %s", r.input.Root()), nil)

	err := r.input.Walk(ctx, func(info storage.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir {
			stats.Directories++
			r.logger.Info(ctx, fmt.Sprintf("Transforming files in %s", info.Path), nil)
			if err := r.output.MkdirAll(ctx, info.RelativePath); err != nil {
				return fmt.Errorf("failed to mirror %s: %w", info.RelativePath, err)
			}
			return nil
		}
		return r.file(ctx, info, stats)
	})
	if err != nil {
		return stats, err
	}

	r.logger.Info(ctx, "Transformation completed", logging.Fields{
		"transformed": stats.Transformed,
		"failed":      stats.Failed,
		"directories": stats.Directories,
	})
	return stats, nil
}

func (r *Runner) file(ctx context.Context, info storage.FileInfo, stats *Stats) error {
	outRel := r.OutputPath(info.RelativePath)

	exists, err := r.output.Exists(ctx, outRel)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTargetExists, r.output.Abs(outRel))
	}

	raw, err := storage.ReadAll(ctx, r.input, info.RelativePath)
	if err != nil {
		r.fail(ctx, info, err, stats)
		return nil
	}
	stats.BytesRead += int64(len(raw))

	result, err := r.transformer.Transform(ctx, info.Path, raw)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.fail(ctx, info, err, stats)
		return nil
	}

	w, err := r.output.Create(ctx, outRel)
	if err != nil {
		if errors.Is(err, storage.ErrExists) {
			return fmt.Errorf("%w: %s", ErrTargetExists, r.output.Abs(outRel))
		}
		return fmt.Errorf("failed to create %s: %w", r.output.Abs(outRel), err)
	}
	n, err := w.Write(result)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", r.output.Abs(outRel), err)
	}

	stats.Transformed++
	stats.BytesWrote += int64(n)
	r.logger.Debug(ctx, "Transformed file", logging.Fields{
		"input":  info.Path,
		"output": r.output.Abs(outRel),
	})
	return nil
}

func (r *Runner) fail(ctx context.Context, info storage.FileInfo, err error, stats *Stats) {
	stats.Failed++
	r.logger.Error(ctx, "Failed to transform file", err, logging.Fields{"file": info.Path})
}
