package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zbd/pkg/app"
	"github.com/deploymenttheory/go-zbd/pkg/app/manage"
)

var (
	dumpRange  app.ZoneRange
	dumpDir    string
	dumpPrefix string
)

var dumpCmd = &cobra.Command{
	Use:   "dump [device-path]",
	Short: "Save zone information and zone data to dump files",
	Long: `Save the information of every zone of a device to <prefix>_zone_info.dump
and the data of the zones touched by the range to <prefix>_zone_data.dump.
The prefix defaults to the device base name.

Examples:
  zbd dump /dev/nullb0 --dir /var/backups
  zbd dump /dev/sdb --ofst 1g --len 1g --prefix sdb-part`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := manage.HandleDump(appCtx, &manage.DumpRequest{
			DevicePath: args[0],
			Range:      dumpRange,
			Dir:        dumpDir,
			Prefix:     dumpPrefix,
		})
		if err != nil {
			return err
		}
		if appCtx.Quiet {
			return nil
		}
		return manage.FormatOutput(appCtx.Out, response, appCtx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	addRangeFlags(dumpCmd, &dumpRange)
	dumpCmd.Flags().StringVarP(&dumpDir, "dir", "d", "", "directory of the dump files (default: dump.dir setting)")
	dumpCmd.Flags().StringVarP(&dumpPrefix, "prefix", "f", "", "dump file name prefix (default: device base name)")
}
