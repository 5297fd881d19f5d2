package lane

// Byte-enable masks that select a sub-word access.
const (
	EnableByte0 uint8 = 0x1
	EnableByte1 uint8 = 0x2
	EnableByte2 uint8 = 0x4
	EnableByte3 uint8 = 0x8
	EnableLow   uint8 = 0x3
	EnableHigh  uint8 = 0xc
	EnableWord  uint8 = 0xf
)

// An Access is the storage view of a transaction.
type Access struct {
	// Address is the byte address handed to the storage.
	Address uint32

	// Lane is the byte position the value occupies on the 32-bit bus.
	Lane uint8

	// Width is the number of bytes accessed: 1, 2, or 4.
	Width int

	// FullWord is set when the mask did not select a sub-word access.
	FullWord bool
}

// Shift is the number of bits the storage value is moved by on the bus.
func (a Access) Shift() uint {
	return uint(a.Lane) * 8
}

// Mask covers the bus bits that carry the value.
func (a Access) Mask() uint32 {
	if a.Width == 4 {
		return 0xffffffff
	}

	return (uint32(1)<<(a.Width*8) - 1) << a.Shift()
}

// Decode classifies a byte-enable mask and computes where the access lands.
//
// Single-byte and half-word masks force word alignment and put the lane
// index in the low address bits. Every other mask, including 0x0, 0xf, and
// non-contiguous patterns, is a full-word access at the unmodified address.
func Decode(address uint32, byteEnable uint8) Access {
	aligned := address &^ 0x3

	switch byteEnable {
	case EnableByte0, EnableByte1, EnableByte2, EnableByte3:
		l := laneOfByte(byteEnable)
		return Access{Address: aligned | uint32(l), Lane: l, Width: 1}
	case EnableLow:
		return Access{Address: aligned, Lane: 0, Width: 2}
	case EnableHigh:
		return Access{Address: aligned | 2, Lane: 2, Width: 2}
	default:
		return Access{Address: address, Lane: 0, Width: 4, FullWord: true}
	}
}

// NarrowByteEnable converts a byte-enable value taken from a 32-bit bus
// argument. Values wider than a byte match no sub-word pattern, so they map
// to 0 and decode as a full-word access. Strict engines reject them.
func NarrowByteEnable(byteEnable uint32) uint8 {
	if byteEnable > 0xff {
		return 0
	}

	return uint8(byteEnable)
}

func laneOfByte(byteEnable uint8) uint8 {
	switch byteEnable {
	case EnableByte1:
		return 1
	case EnableByte2:
		return 2
	case EnableByte3:
		return 3
	default:
		return 0
	}
}

// IsStandardByteEnable tells if the mask is one of the single-byte or
// half-word patterns, or a full word.
func IsStandardByteEnable(byteEnable uint8) bool {
	switch byteEnable {
	case EnableByte0, EnableByte1, EnableByte2, EnableByte3,
		EnableLow, EnableHigh, EnableWord:
		return true
	default:
		return false
	}
}
