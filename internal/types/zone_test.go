package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneConditions(t *testing.T) {
	tests := []struct {
		cond   ZoneCondition
		short  string
		long   string
		open   bool
		active bool
	}{
		{ZoneCondNotWP, "nw", "not-write-pointer", false, false},
		{ZoneCondEmpty, "em", "empty", false, false},
		{ZoneCondImpOpen, "oi", "open-implicit", true, true},
		{ZoneCondExpOpen, "oe", "open-explicit", true, true},
		{ZoneCondClosed, "cl", "closed", false, true},
		{ZoneCondFull, "fu", "full", false, false},
		{ZoneCondReadOnly, "ro", "read-only", false, false},
		{ZoneCondOffline, "ol", "offline", false, false},
		{ZoneCondition(0x7), "??", "unknown", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.long, func(t *testing.T) {
			z := Zone{Type: ZoneTypeSeqWriteRequired, Cond: tt.cond}
			assert.Equal(t, tt.short, tt.cond.Name(true))
			assert.Equal(t, tt.long, tt.cond.String())
			assert.Equal(t, tt.open, z.IsOpen())
			assert.Equal(t, tt.active, z.IsActive())
		})
	}
}

func TestZoneTypes(t *testing.T) {
	assert.Equal(t, "cnv", ZoneTypeConventional.Name(true))
	assert.Equal(t, "seq-write-required", ZoneTypeSeqWriteRequired.String())
	assert.Equal(t, "swp", ZoneTypeSeqWritePreferred.Name(true))
	assert.Equal(t, "???", ZoneType(9).Name(true))

	assert.True(t, (&Zone{Type: ZoneTypeSeqWritePreferred}).IsSequential())
	assert.False(t, (&Zone{Type: ZoneTypeConventional}).IsSequential())
}

func TestZoneDataEnd(t *testing.T) {
	tests := []struct {
		name string
		zone Zone
		want uint64
	}{
		{"conventional", Zone{Start: 4096, Len: 4096, Capacity: 4096, WP: 8192, Type: ZoneTypeConventional, Cond: ZoneCondNotWP}, 8192},
		{"empty", Zone{Start: 4096, Len: 4096, Capacity: 2048, WP: 4096, Type: ZoneTypeSeqWriteRequired, Cond: ZoneCondEmpty}, 4096},
		{"closed", Zone{Start: 4096, Len: 4096, Capacity: 2048, WP: 5120, Type: ZoneTypeSeqWriteRequired, Cond: ZoneCondClosed}, 5120},
		{"full", Zone{Start: 4096, Len: 4096, Capacity: 2048, WP: 8192, Type: ZoneTypeSeqWriteRequired, Cond: ZoneCondFull}, 6144},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.zone.DataEnd())
			assert.Equal(t, uint64(8192), tt.zone.End())
		})
	}
}

func TestBlkZoneConversion(t *testing.T) {
	bz := BlkZone{Start: 524288, Len: 524288, WP: 524296, Type: 2, Cond: 4, Reset: 1, NonSeq: 1, Capacity: 262144}

	z := bz.Zone(true)
	assert.Equal(t, uint64(256<<20), z.Start)
	assert.Equal(t, uint64(256<<20), z.Len)
	assert.Equal(t, uint64(128<<20), z.Capacity)
	assert.Equal(t, uint64(256<<20+4096), z.WP)
	assert.Equal(t, ZoneTypeSeqWriteRequired, z.Type)
	assert.Equal(t, ZoneCondClosed, z.Cond)
	assert.True(t, z.Flags.ResetRecommended())
	assert.True(t, z.Flags.NonSeqResources())

	// Test: Without the capacity flag, capacity is the zone length
	z = bz.Zone(false)
	assert.Equal(t, z.Len, z.Capacity)

	rep := BlkZoneReport{Flags: BlkZoneRepCapacity}
	assert.True(t, rep.HasCapacity())
	assert.False(t, (&BlkZoneReport{}).HasCapacity())
}
