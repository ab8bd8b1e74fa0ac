package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// FormatOutput writes report results in the requested output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "csv":
		return formatCSV(w, response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatInfo writes device geometry in the requested output format
func FormatInfo(w io.Writer, info *DeviceInfo, format string) error {
	switch format {
	case "json":
		return formatJSON(w, info)
	case "yaml":
		return formatYAML(w, info)
	case "table", "csv":
		return formatDeviceInfo(w, info)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatDeviceInfo(w io.Writer, info *DeviceInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	fmt.Fprintf(tw, "Device %s:\n", info.Path)
	fmt.Fprintf(tw, "    Vendor ID:\t%s\n", info.VendorID)
	fmt.Fprintf(tw, "    Zone model:\t%s\n", info.Model)
	fmt.Fprintf(tw, "    Capacity:\t%.03f GB (%d 512-bytes sectors)\n",
		float64(info.Capacity())/1000000000, info.NrSectors)
	fmt.Fprintf(tw, "    Logical blocks:\t%d blocks of %d B\n", info.NrLBlocks, info.LBlockSize)
	fmt.Fprintf(tw, "    Physical blocks:\t%d blocks of %d B\n", info.NrPBlocks, info.PBlockSize)
	fmt.Fprintf(tw, "    Zones:\t%d zones of %.1f MB\n", info.NrZones, float64(info.ZoneSize)/1048576.0)
	fmt.Fprintf(tw, "    Maximum number of open zones:\t%s\n", formatLimit(info.MaxOpenZones))
	fmt.Fprintf(tw, "    Maximum number of active zones:\t%s\n", formatLimit(info.MaxActiveZones))

	return tw.Flush()
}

func formatLimit(limit uint32) string {
	switch limit {
	case 0:
		return "no limit"
	case types.LimitUnknown:
		return "unknown"
	}
	return fmt.Sprintf("%d", limit)
}

// formatTable prints the device header followed by one line per zone
func formatTable(w io.Writer, response *Response) error {
	if err := formatDeviceInfo(w, &response.Device); err != nil {
		return err
	}

	if response.CountOnly {
		fmt.Fprintf(w, "%d zones\n", response.NrZones)
	}
	if response.CapacityOnly {
		if response.Unit != 1 {
			fmt.Fprintf(w, "%d x %d B total zone capacity\n", response.TotalCapacity, response.Unit)
		} else {
			fmt.Fprintf(w, "%d B total zone capacity\n", response.TotalCapacity)
		}
	}
	if response.CountOnly || response.CapacityOnly {
		return nil
	}

	if len(response.Zones) == 0 {
		fmt.Fprintln(w, "No zones found matching the report option.")
		return nil
	}
	for i := range response.Zones {
		fmt.Fprintln(w, response.Zones[i].Line())
	}
	return nil
}

// formatCSV prints the zones without the device header
func formatCSV(w io.Writer, response *Response) error {
	switch {
	case response.CountOnly && response.CapacityOnly:
		fmt.Fprintf(w, "%d, %d\n", response.NrZones, response.TotalCapacity)
		return nil
	case response.CountOnly:
		fmt.Fprintf(w, "%d\n", response.NrZones)
		return nil
	case response.CapacityOnly:
		fmt.Fprintf(w, "%d\n", response.TotalCapacity)
		return nil
	}

	fmt.Fprintln(w, "zone num, type, ofst, len, cap, wp, cond, non_seq, reset")
	for i := range response.Zones {
		fmt.Fprintln(w, response.Zones[i].CSV())
	}
	return nil
}

func formatJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(v)
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	if response.NrZones == 0 {
		return "No zones reported"
	}

	summary := fmt.Sprintf("Reported %d zone", response.NrZones)
	if response.NrZones != 1 {
		summary += "s"
	}
	summary += fmt.Sprintf(" from %s %s", response.Source, response.Device.Path)
	if response.Option != "all" {
		summary += fmt.Sprintf(" matching %q", response.Option)
	}
	return summary
}
