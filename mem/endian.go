package mem

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Endianness decides how half-words and words are composed from the bytes
// stored in memory.
type Endianness int

// The two supported byte orders. The zero value is big-endian.
const (
	BigEndian Endianness = iota
	LittleEndian
)

// ParseEndianness converts a name such as "big", "be", "little", or "le"
// into an Endianness.
func ParseEndianness(s string) (Endianness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be", "big-endian":
		return BigEndian, nil
	case "little", "le", "little-endian":
		return LittleEndian, nil
	}

	return BigEndian, fmt.Errorf("unknown endianness %q", s)
}

// ByteOrder returns the encoding/binary byte order that matches e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return fmt.Sprintf("Endianness(%d)", int(e))
	}
}
