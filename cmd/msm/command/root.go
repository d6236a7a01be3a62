// Package command implements the msm subcommands.
package command

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/geal-ai/grib2msm"
	"github.com/geal-ai/grib2msm/internal/config"
	"github.com/geal-ai/grib2msm/internal/labels"
	"github.com/geal-ai/grib2msm/internal/logging"
)

// app is the state shared by every subcommand, filled in before RunE.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *zap.Logger
	labels *labels.Table
}

// NewRootCommand builds the msm command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New(), log: zap.NewNop(), labels: labels.Default()}
	var cfgPath string

	root := &cobra.Command{
		Use:          "msm",
		Short:        "Decode and download JMA MSM GRIB2 files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cfgPath, cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "YAML config file (env MSM_* overrides it)")
	pf.String("log-level", "", "debug, info, warn or error")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))

	root.AddCommand(
		newDecodeCommand(a),
		newBatchCommand(a),
		newFetchCommand(a),
	)
	return root
}

func (a *app) init(cfgPath string, logOut io.Writer) error {
	cfg, err := config.Load(a.v, cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log, logOut)

	if cfg.Labels.File != "" {
		f, err := os.Open(cfg.Labels.File)
		if err != nil {
			return errors.Wrap(err, "open labels file")
		}
		defer f.Close()
		if err := a.labels.Load(f); err != nil {
			return errors.Wrapf(err, "load %s", cfg.Labels.File)
		}
	}
	return nil
}

// decodeOptions maps config onto decoder options.
func (a *app) decodeOptions() []grib2msm.Option {
	return []grib2msm.Option{
		grib2msm.WithLogger(a.log),
		grib2msm.WithRawCapture(a.cfg.Decode.CaptureRaw),
		grib2msm.WithMaxGridPoints(a.cfg.Decode.MaxGridPoints),
	}
}

// fieldLabel names a field's parameter and level.
func (a *app) fieldLabel(f *grib2msm.Field) (string, string) {
	cat, num := f.Parameter()
	lvl := f.Level()
	return a.labels.Parameter(cat, num), a.labels.Level(lvl.Type, lvl.Value())
}
