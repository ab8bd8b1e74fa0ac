package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zbd/internal/config"
	"github.com/deploymenttheory/go-zbd/internal/logging"
	"github.com/deploymenttheory/go-zbd/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string

	appCtx *app.Context
)

var rootCmd = &cobra.Command{
	Use:   "zbd",
	Short: "Zoned block device management tool",
	Long: `zbd inspects and manages zoned block devices (SMR disks, ZNS SSDs and
emulated zoned devices) through the Linux zoned block device interface.

Commands:
  info        Show the geometry and zone limits of a device
  report      Report zones of a device or of a zone information dump
  reset       Reset the write pointer of zones
  open        Explicitly open zones
  close       Close zones
  finish      Finish zones
  dump        Save zone information and zone data to files
  restore     Restore zone state and data from dump files`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "table", "csv", "json", "yaml":
		default:
			return fmt.Errorf("unsupported output format: %s", outputFormat)
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		logger, err := logging.New(logging.Verbosity(cfg.Log, verbose, quiet))
		if err != nil {
			return err
		}

		appCtx = app.NewContext(cfg, logger)
		appCtx.Context = cmd.Context()
		appCtx.OutputFormat = outputFormat
		appCtx.Verbose = verbose
		appCtx.Quiet = quiet
		appCtx.Out = cmd.OutOrStdout()
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appCtx == nil {
			return nil
		}
		_ = appCtx.Logger.Sync()
		return appCtx.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, csv, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: zbd-config.yaml in ., ./config, $HOME/.zbd, /etc/zbd)")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// addRangeFlags registers the --ofst and --len flags of zone range commands.
func addRangeFlags(cmd *cobra.Command, zr *app.ZoneRange) {
	cmd.Flags().StringVar(&zr.Offset, "ofst", "", "start offset of the first zone in bytes (k, m, g suffixes)")
	cmd.Flags().StringVar(&zr.Length, "len", "", "length of the zone range in bytes, 0 for the end of the device")
}
