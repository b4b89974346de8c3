package tracer

import (
	"github.com/colorfulnotion/cairotrace/field"
	"github.com/holiman/uint256"
)

// Memory is a relocated memory image indexed from address 0. A nil cell was
// never written.
type Memory []*uint256.Int

// Get returns the value at idx, or nil when idx is outside the image or the
// cell is a hole.
func (m Memory) Get(idx int) *uint256.Int {
	if idx < 0 || idx >= len(m) {
		return nil
	}
	return m[idx]
}

// FormatMemory projects the populated cells of memory into a display map
// keyed by 1-based address.
func FormatMemory(memory Memory) map[uint64]string {
	out := make(map[uint64]string)
	for addr, v := range memory {
		if v == nil {
			continue
		}
		out[uint64(addr)+1] = field.Hex(v)
	}
	return out
}
