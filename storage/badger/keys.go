package badger

import (
	"encoding/binary"

	"github.com/poiesic/shigen/core"
)

// Key prefixes for different data types
const (
	resourcePrefix = "resrec:"
)

// makeResourceKey generates a key for a resource by ID.
// Format: prefix + big-endian ID, so prefix scans return resources in ID order.
func makeResourceKey(id core.ID) []byte {
	buf := make([]byte, len(resourcePrefix)+8)
	offset := copy(buf, resourcePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
