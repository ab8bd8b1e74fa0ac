package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zbd/pkg/app"
	"github.com/deploymenttheory/go-zbd/pkg/app/report"
)

var (
	reportRange    app.ZoneRange
	reportOption   string
	reportUnit     string
	reportCount    bool
	reportCapacity bool
	reportMaxZones uint32
)

var reportCmd = &cobra.Command{
	Use:   "report [device-path | dump-info-file]",
	Short: "Report zones of a device or of a zone information dump",
	Long: `Report the zones touched by a byte range of a zoned block device. When
the path is a regular file it is read as a zone information dump.

Report options (--ro):
  em  empty             oi  implicitly open    oe  explicitly open
  cl  closed            fu  full               ro  read-only
  ol  offline           rwp reset recommended  ns  non-sequential resources
  nw  not write pointer (conventional zones)

Examples:
  # Report all zones
  zbd report /dev/nullb0

  # Report full zones of the first 1 GiB as CSV
  zbd report /dev/sdb --len 1g --ro fu -o csv

  # Total zone capacity in 4KiB blocks
  zbd report /dev/nvme0n2 --capacity --unit 4k

  # Count empty zones recorded in a dump
  zbd report ./sdb_zone_info.dump --ro em --count`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(args[0])
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	addRangeFlags(reportCmd, &reportRange)
	reportCmd.Flags().StringVar(&reportOption, "ro", "", "report option (em, oi, oe, cl, fu, ro, ol, rwp, ns, nw)")
	reportCmd.Flags().StringVarP(&reportUnit, "unit", "u", "", "size unit for offsets and lengths shown (1 or a multiple of 512)")
	reportCmd.Flags().BoolVarP(&reportCount, "count", "n", false, "only report the number of zones")
	reportCmd.Flags().BoolVarP(&reportCapacity, "capacity", "c", false, "only report the total capacity of the zones")
	reportCmd.Flags().Uint32Var(&reportMaxZones, "limit", 0, "maximum number of zones to report, 0 for all")
}

func runReport(path string) error {
	request := &report.Request{
		Path:         path,
		Range:        reportRange,
		Option:       reportOption,
		Unit:         reportUnit,
		CountOnly:    reportCount,
		CapacityOnly: reportCapacity,
		MaxZones:     reportMaxZones,
	}

	response, err := report.Handle(appCtx, request)
	if err != nil {
		return err
	}

	appCtx.Log(report.FormatSummary(response))
	return report.FormatOutput(appCtx.Out, response, appCtx.OutputFormat)
}
