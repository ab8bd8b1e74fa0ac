package device

import "unsafe"

// BufferAlignment satisfies O_DIRECT alignment on every logical block size
// in use.
const BufferAlignment = 4096

// AlignedBuffer returns a size byte buffer whose first byte is aligned on
// BufferAlignment.
func AlignedBuffer(size int) []byte {
	buf := make([]byte, size+BufferAlignment)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&buf[0])) & (BufferAlignment - 1)); rem != 0 {
		off = BufferAlignment - rem
	}
	return buf[off : off+size : off+size]
}
