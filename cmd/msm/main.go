// Command msm decodes JMA MSM GRIB2 files and downloads them from the RISH archive.
//
// Usage:
//
//	msm decode [--format text|json|yaml] [--at lat,lon] [--raw] <file>...
//	msm batch [--metrics-textfile path] <file|glob>...
//	msm fetch [--dir msm] [<run> [<file type>...]]
//
// Examples:
//
//	msm decode Z__C_RJTD_20240102030000_MSM_GPV_Rjp_Lsurf_FH00-15_grib2.bin
//	msm decode --at 35.68,139.77 --format json msm/*.bin
//	msm fetch 202401020300 Lsurf_FH00-15
//	msm fetch
package main

import (
	"os"

	"github.com/geal-ai/grib2msm/cmd/msm/command"
)

func main() {
	if err := command.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
