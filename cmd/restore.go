package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zbd/pkg/app/manage"
)

var (
	restoreDir    string
	restorePrefix string
)

var restoreCmd = &cobra.Command{
	Use:   "restore [device-path]",
	Short: "Restore zone state and data from dump files",
	Long: `Replay a dump onto a device with the same geometry. The zones covered by
the dump are reset, then rewritten and brought back to their dumped condition
without exceeding the open and active zone limits of the device.

Examples:
  zbd restore /dev/nullb1 --dir /var/backups --prefix nullb0`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := manage.HandleRestore(appCtx, &manage.RestoreRequest{
			DevicePath: args[0],
			Dir:        restoreDir,
			Prefix:     restorePrefix,
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
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVarP(&restoreDir, "dir", "d", "", "directory of the dump files (default: dump.dir setting)")
	restoreCmd.Flags().StringVarP(&restorePrefix, "prefix", "f", "", "dump file name prefix (default: device base name)")
}
