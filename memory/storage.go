// Package memory provides the storage backend of the memory model: sparse
// byte-addressable storages, one per node, grouped into a Bank.
package memory

import (
	"sync"

	"github.com/sarchlab/memmodel/mem"
)

// DefaultUnitSize is the allocation granularity of a Storage.
const DefaultUnitSize uint64 = 4096

// A Storage keeps the data of one node's address space.
//
// The storage manages the data in units, similar to pages in memory
// management. No memory is allocated for a unit until Write touches it, and
// reading an untouched unit returns zeros.
//
// Every Read and Write is atomic with respect to other calls on the same
// storage.
type Storage struct {
	lock     sync.RWMutex
	node     uint32
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, DefaultUnitSize)
}

// NewStorageWithUnitSize creates a storage that allocates its data in units of
// the given size.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("storage unit size must be positive")
	}

	storage := new(Storage)

	storage.unitSize = unitSize
	storage.capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

// Capacity returns the number of addressable bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// AllocatedUnits returns how many units have been touched by writes.
func (s *Storage) AllocatedUnits() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.data)
}

func (s *Storage) checkRange(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return &mem.AccessError{
			Kind:    mem.OutOfRange,
			Address: address,
			Node:    s.node,
			Width:   length,
		}
	}

	return nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	res := make([]byte, length)

	err := s.ReadInto(address, res)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// ReadInto fills buf with the bytes starting at address.
func (s *Storage) ReadInto(address uint64, buf []byte) error {
	length := uint64(len(buf))
	if err := s.checkRange(address, length); err != nil {
		return err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := min(length-dataOffset, s.unitSize-inUnitAddr)

		dst := buf[dataOffset : dataOffset+lenToRead]
		if unit, ok := s.data[baseAddr]; ok {
			copy(dst, unit[inUnitAddr:inUnitAddr+lenToRead])
		} else {
			clear(dst)
		}

		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.checkRange(address, length); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := min(length-dataOffset, s.unitSize-inUnitAddr)

		unit, ok := s.data[baseAddr]
		if !ok {
			unit = make([]byte, s.unitSize)
			s.data[baseAddr] = unit
		}

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])
		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}
