package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zbd/internal/types"
	"github.com/deploymenttheory/go-zbd/pkg/app"
	"github.com/deploymenttheory/go-zbd/pkg/app/manage"
)

var zoneOpDescriptions = []struct {
	op    types.ZoneOp
	short string
}{
	{types.ZoneOpReset, "Reset the write pointer of zones"},
	{types.ZoneOpOpen, "Explicitly open zones"},
	{types.ZoneOpClose, "Close open zones"},
	{types.ZoneOpFinish, "Finish zones, moving their write pointer to the zone capacity"},
}

func newZoneOpCommand(op types.ZoneOp, short string) *cobra.Command {
	var zr app.ZoneRange

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [device-path]", op),
		Short: short,
		Long: fmt.Sprintf(`%s.

The range must start on a zone boundary and end on a zone boundary or at
the device capacity. Without --len every zone from --ofst to the end of the
device is affected.

Examples:
  zbd %[2]s /dev/nullb0 --ofst 256m --len 512m
  zbd %[2]s /dev/sdb`, short, op),

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := manage.HandleOperation(appCtx, &manage.OperationRequest{
				DevicePath: args[0],
				Op:         op,
				Range:      zr,
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
	addRangeFlags(cmd, &zr)
	return cmd
}

func init() {
	for _, d := range zoneOpDescriptions {
		rootCmd.AddCommand(newZoneOpCommand(d.op, d.short))
	}
}
