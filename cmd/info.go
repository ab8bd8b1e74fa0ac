package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zbd/pkg/app/report"
)

var infoCmd = &cobra.Command{
	Use:   "info [device-path | dump-info-file]",
	Short: "Show the geometry and zone limits of a zoned device",
	Long: `Show the vendor, zone model, capacity, block sizes, zone size and
zone resource limits of a zoned block device, or of the device a zone
information dump was taken from.

Examples:
  zbd info /dev/nullb0
  zbd info -o json /dev/sdb
  zbd info ./sdb_zone_info.dump`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := report.HandleInfo(appCtx, args[0])
		if err != nil {
			return err
		}
		return report.FormatInfo(appCtx.Out, info, appCtx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
