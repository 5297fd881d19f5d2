// Package mem defines the vocabulary shared by the memory model packages:
// endianness, bus transactions, access errors, and size units.
package mem

// For capacity
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)
