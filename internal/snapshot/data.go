package snapshot

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-zbd/internal/types"
)

// DataExtent returns the byte range [start, end) of data held by a zone.
// Offline and read-only zones have no write pointer and are not copied.
func DataExtent(z *types.Zone) (start, end uint64, ok bool) {
	if z.IsOffline() || z.IsReadOnly() {
		return 0, 0, false
	}
	return z.Start, z.DataEnd(), true
}

// CopyZone copies the data of zone z from src to dst at the same absolute
// offsets, buf bytes at a time, and returns the number of bytes copied.
func CopyZone(dst io.WriterAt, src io.ReaderAt, z *types.Zone, buf []byte) (int64, error) {
	start, end, ok := DataExtent(z)
	if !ok {
		return 0, nil
	}
	if len(buf) == 0 {
		return 0, fmt.Errorf("empty transfer buffer")
	}

	for ofst := start; ofst < end; {
		iosize := min(uint64(len(buf)), end-ofst)
		chunk := buf[:iosize]

		if _, err := src.ReadAt(chunk, int64(ofst)); err != nil {
			return int64(ofst - start), fmt.Errorf("read zone data at %d failed: %w", ofst, err)
		}
		if _, err := dst.WriteAt(chunk, int64(ofst)); err != nil {
			return int64(ofst - start), fmt.Errorf("write zone data at %d failed: %w", ofst, err)
		}
		ofst += iosize
	}

	return int64(end - start), nil
}
