package command

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geal-ai/grib2msm/internal/archive"
)

// latestCycles is how far back (in 3-hour runs) fetch looks without a run argument.
const latestCycles = 8

func newFetchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [<run> [<file type>...]]",
		Short: "Download MSM files for a run from the RISH archive",
		Long: `Download MSM GRIB2 files into archive.dir. <run> is YYYYMMDDhhmm (UTC);
without it the newest available run is used. File types default to
archive.file_types, e.g. Lsurf_FH00-15 or L-pall_FH36-39.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &archive.Client{
				HTTPClient: &http.Client{Timeout: a.cfg.Archive.Timeout},
				BaseURL:    a.cfg.Archive.BaseURL,
			}
			types := a.cfg.Archive.FileTypes
			if len(args) > 1 {
				types = args[1:]
			}

			var run string
			if len(args) > 0 {
				if _, err := archive.ParseRun(args[0]); err != nil {
					return err
				}
				run = args[0]
			} else {
				var err error
				run, err = client.Latest(cmd.Context(), types[0], time.Now(), latestCycles)
				if err != nil {
					return err
				}
				a.log.Info("latest run", zap.String("run", run))
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Batch.Workers)
			for _, ft := range types {
				ft := ft // per-iteration copy (go1.22 loopvar semantics on go1.21)
				g.Go(func() error {
					path, err := client.Fetch(ctx, run, ft, a.cfg.Archive.Dir)
					if err != nil {
						a.log.Error("fetch failed", zap.String("run", run), zap.String("type", ft), zap.Error(err))
						return err
					}
					mu.Lock()
					fmt.Fprintln(out, path)
					mu.Unlock()
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().String("dir", "", "download directory (default archive.dir)")
	_ = a.v.BindPFlag("archive.dir", cmd.Flags().Lookup("dir"))
	return cmd
}
