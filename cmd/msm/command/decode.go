package command

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geal-ai/grib2msm"
)

func newDecodeCommand(a *app) *cobra.Command {
	var (
		format string
		at     string
	)
	cmd := &cobra.Command{
		Use:   "decode <file>...",
		Short: "Decode MSM GRIB2 files and summarise every field",
		Long: `Decode each file as one GRIB2 message and print its grid and one line per
field: parameter, level, lead time, min/max/mean and, with --at, the
nearest-neighbour value at a point.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := parsePoint(at)
			if err != nil {
				return err
			}
			reports := make([]messageReport, 0, len(args))
			for _, path := range args {
				msg, err := grib2msm.DecodeFile(path, a.decodeOptions()...)
				if err != nil {
					a.log.Error("decode failed", zap.String("file", path), zap.Error(err))
					return err
				}
				a.log.Info("decoded", zap.String("file", path), zap.Int("fields", len(msg.Fields)))
				reports = append(reports, a.buildReport(path, msg, pt))
			}
			return writeReports(cmd.OutOrStdout(), format, reports)
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "text", "output format: text, json or yaml")
	f.StringVar(&at, "at", "", "also print each field's value at lat,lon")
	f.Bool("raw", false, "keep and print the raw R/E/D bytes of section 5")
	_ = a.v.BindPFlag("decode.capture_raw", f.Lookup("raw"))
	return cmd
}
