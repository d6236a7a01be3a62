package command

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geal-ai/grib2msm"
	"github.com/geal-ai/grib2msm/internal/metrics"
)

type batchResult struct {
	path   string
	fields int
	took   time.Duration
	err    error
}

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file|glob>...",
		Short: "Decode many files concurrently and record metrics",
		Long: `Decode every file (shell globs are expanded) with batch.workers concurrent
decoders. One line per file is printed; failures do not stop the others.
With metrics.textfile set, Prometheus metrics are written there at the end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			rec := metrics.New()
			results := a.runBatch(cmd, paths, rec)

			failed := 0
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.err != nil {
					failed++
					fmt.Fprintf(out, "%s  error: %v\n", r.path, r.err)
					continue
				}
				fmt.Fprintf(out, "%s  fields=%d  %s\n", r.path, r.fields, r.took.Round(time.Millisecond))
			}

			if path := a.cfg.Metrics.Textfile; path != "" {
				if err := rec.WriteTextfile(path); err != nil {
					return err
				}
				a.log.Info("metrics written", zap.String("path", path))
			}
			if failed > 0 {
				return errors.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("workers", 0, "concurrent decoders (default batch.workers)")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file")
	_ = a.v.BindPFlag("batch.workers", f.Lookup("workers"))
	_ = a.v.BindPFlag("metrics.textfile", f.Lookup("metrics-textfile"))
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, paths []string, rec *metrics.Recorder) []batchResult {
	results := make([]batchResult, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.cfg.Batch.Workers)
	for i, path := range paths {
		i, path := i, path // per-iteration copy (go1.22 loopvar semantics on go1.21)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = batchResult{path: path, err: err}
				return nil
			}
			start := time.Now()
			msg, err := grib2msm.DecodeFile(path, a.decodeOptions()...)
			took := time.Since(start)
			rec.Observe(msg, err, took, a.fieldLabel)
			if err != nil {
				a.log.Warn("decode failed", zap.String("file", path), zap.String("kind", metrics.Kind(err)), zap.Error(err))
				results[i] = batchResult{path: path, took: took, err: err}
				return nil
			}
			a.log.Debug("decoded", zap.String("file", path), zap.Int("fields", len(msg.Fields)), zap.Duration("took", took))
			results[i] = batchResult{path: path, fields: len(msg.Fields), took: took}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// expandPaths expands glob arguments; plain paths pass through unchanged.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			out = append(out, arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %q", arg)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no files match %q", arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}
