package types

import (
	"fmt"
	"strings"
)

// ReportOption selects which zones a report returns.
type ReportOption uint32

const (
	ReportAll              ReportOption = 0x00
	ReportEmpty            ReportOption = 0x01
	ReportImpOpen          ReportOption = 0x02
	ReportExpOpen          ReportOption = 0x03
	ReportClosed           ReportOption = 0x04
	ReportFull             ReportOption = 0x05
	ReportReadOnly         ReportOption = 0x06
	ReportOffline          ReportOption = 0x07
	ReportResetRecommended ReportOption = 0x10
	ReportNonSeq           ReportOption = 0x11
	ReportNotWP            ReportOption = 0x3f
)

var reportOptionNames = []struct {
	opt  ReportOption
	name string
}{
	{ReportAll, "all"},
	{ReportEmpty, "em"},
	{ReportImpOpen, "oi"},
	{ReportExpOpen, "oe"},
	{ReportClosed, "cl"},
	{ReportFull, "fu"},
	{ReportReadOnly, "ro"},
	{ReportOffline, "ol"},
	{ReportResetRecommended, "rwp"},
	{ReportResetRecommended, "rw"},
	{ReportNonSeq, "ns"},
	{ReportNotWP, "nw"},
}

func (ro ReportOption) String() string {
	for _, n := range reportOptionNames {
		if n.opt == ro {
			return n.name
		}
	}
	return fmt.Sprintf("0x%02x", uint32(ro))
}

// ParseReportOption parses the short filter names used on the command line.
func ParseReportOption(s string) (ReportOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ReportAll, nil
	}
	for _, n := range reportOptionNames {
		if n.name == s {
			return n.opt, nil
		}
	}
	return 0, fmt.Errorf("unknown report option %q", s)
}

// Matches reports whether a zone satisfies the report option.
func (ro ReportOption) Matches(z *Zone) bool {
	switch ro {
	case ReportAll:
		return true
	case ReportNotWP:
		return z.Cond == ZoneCondNotWP
	case ReportEmpty:
		return z.IsEmpty()
	case ReportImpOpen:
		return z.IsImpOpen()
	case ReportExpOpen:
		return z.IsExpOpen()
	case ReportClosed:
		return z.IsClosed()
	case ReportFull:
		return z.IsFull()
	case ReportReadOnly:
		return z.IsReadOnly()
	case ReportOffline:
		return z.IsOffline()
	case ReportResetRecommended:
		return z.Flags.ResetRecommended()
	case ReportNonSeq:
		return z.Flags.NonSeqResources()
	default:
		return false
	}
}

// ReportCondition maps a zone condition to the report option selecting it.
func ReportCondition(c ZoneCondition) ReportOption {
	switch c {
	case ZoneCondNotWP:
		return ReportNotWP
	case ZoneCondEmpty:
		return ReportEmpty
	case ZoneCondImpOpen:
		return ReportImpOpen
	case ZoneCondExpOpen:
		return ReportExpOpen
	case ZoneCondClosed:
		return ReportClosed
	case ZoneCondFull:
		return ReportFull
	case ZoneCondReadOnly:
		return ReportReadOnly
	case ZoneCondOffline:
		return ReportOffline
	}
	return ReportAll
}
