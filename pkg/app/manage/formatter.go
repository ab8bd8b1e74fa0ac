package manage

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FormatOutput writes an operation, dump or restore response in the
// requested output format
func FormatOutput(w io.Writer, response any, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table", "csv":
		return formatText(w, response, format == "csv")
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatText(w io.Writer, response any, csv bool) error {
	switch r := response.(type) {
	case *OperationResponse:
		if r.Length == 0 {
			if !csv {
				fmt.Fprintf(w, "%s: no zones at offset %d\n", r.Device, r.Offset)
			}
			return nil
		}
		if csv {
			fmt.Fprintf(w, "%s, %d, %d\n", r.Operation, r.ZoneStart, r.ZoneEnd)
			return nil
		}
		fmt.Fprintf(w, "%s: %s zones %d to %d (%d zones)\n",
			r.Device, r.Operation, r.ZoneStart, r.ZoneEnd-1, r.ZoneEnd-r.ZoneStart)

	case *DumpResponse:
		if csv {
			fmt.Fprintf(w, "%s, %s, %d, %d, %d, %d\n",
				r.InfoFile, r.DataFile, r.ZoneStart, r.ZoneEnd, r.DumpedZones, r.DumpedBytes)
			return nil
		}
		fmt.Fprintf(w, "Dumped zones %d to %d of %s\n", r.ZoneStart, r.ZoneEnd-1, r.Device)
		fmt.Fprintf(w, "    Zone information: %s\n", r.InfoFile)
		fmt.Fprintf(w, "    Zone data: %s (%d zones, %d B)\n", r.DataFile, r.DumpedZones, r.DumpedBytes)

	case *RestoreResponse:
		if csv {
			fmt.Fprintf(w, "%d, %d, %d, %d, %d\n",
				r.ResetZones, r.RestoredZones, r.RestoredBytes, r.OpenZones, r.ActiveZones)
			return nil
		}
		fmt.Fprintf(w, "Restored %s from %s\n", r.Device, r.InfoFile)
		fmt.Fprintf(w, "    Reset zones: %d\n", r.ResetZones)
		fmt.Fprintf(w, "    Restored zones: %d (%d B)\n", r.RestoredZones, r.RestoredBytes)
		fmt.Fprintf(w, "    Open zones: %d, active zones: %d\n", r.OpenZones, r.ActiveZones)

	default:
		return fmt.Errorf("unsupported response type %T", response)
	}
	return nil
}
