package memory

import (
	"slices"
	"sync"

	"github.com/sarchlab/memmodel/mem"
)

// A Bank holds the storages of all the nodes in a simulation. Each node is an
// independent address space, so accesses to different nodes never contend
// for the same lock.
type Bank struct {
	lock     sync.RWMutex
	capacity uint64
	unitSize uint64
	nodes    map[uint32]*Storage
}

// NewBank creates a bank whose nodes each hold capacity bytes. If no node id
// is given, node 0 is created.
func NewBank(capacity uint64, nodes ...uint32) *Bank {
	b := &Bank{
		capacity: capacity,
		unitSize: DefaultUnitSize,
		nodes:    make(map[uint32]*Storage),
	}

	if len(nodes) == 0 {
		nodes = []uint32{0}
	}

	for _, n := range nodes {
		b.AddNode(n)
	}

	return b
}

// AddNode creates the storage of a node. Adding an existing node returns the
// storage that is already there.
func (b *Bank) AddNode(node uint32) *Storage {
	b.lock.Lock()
	defer b.lock.Unlock()

	if s, ok := b.nodes[node]; ok {
		return s
	}

	s := NewStorageWithUnitSize(b.capacity, b.unitSize)
	s.node = node
	b.nodes[node] = s

	return s
}

// Node returns the storage of a node.
func (b *Bank) Node(node uint32) (*Storage, error) {
	b.lock.RLock()
	s, ok := b.nodes[node]
	b.lock.RUnlock()

	if !ok {
		return nil, &mem.AccessError{Kind: mem.UnknownNode, Node: node}
	}

	return s, nil
}

// Nodes lists the node ids in ascending order.
func (b *Bank) Nodes() []uint32 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	ids := make([]uint32, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Capacity returns the size of each node's address space.
func (b *Bank) Capacity() uint64 {
	return b.capacity
}

// Dump returns a copy of n raw bytes of a node starting at addr.
func (b *Bank) Dump(node uint32, addr uint64, n uint64) ([]byte, error) {
	s, err := b.Node(node)
	if err != nil {
		return nil, err
	}

	return s.Read(addr, n)
}

func (b *Bank) read(addr uint32, node uint32, buf []byte) error {
	s, err := b.Node(node)
	if err != nil {
		return err
	}

	return s.ReadInto(uint64(addr), buf)
}

func (b *Bank) write(addr uint32, node uint32, buf []byte) error {
	s, err := b.Node(node)
	if err != nil {
		return err
	}

	return s.Write(uint64(addr), buf)
}

// Read8 reads one byte.
func (b *Bank) Read8(addr uint32, node uint32) (uint8, error) {
	var buf [1]byte

	if err := b.read(addr, node, buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}

// Read16 reads a half-word composed with the given endianness.
func (b *Bank) Read16(
	addr uint32,
	endian mem.Endianness,
	node uint32,
) (uint16, error) {
	var buf [2]byte

	if err := b.read(addr, node, buf[:]); err != nil {
		return 0, err
	}

	return endian.ByteOrder().Uint16(buf[:]), nil
}

// Read32 reads a word composed with the given endianness.
func (b *Bank) Read32(
	addr uint32,
	endian mem.Endianness,
	node uint32,
) (uint32, error) {
	var buf [4]byte

	if err := b.read(addr, node, buf[:]); err != nil {
		return 0, err
	}

	return endian.ByteOrder().Uint32(buf[:]), nil
}

// Write8 writes one byte.
func (b *Bank) Write8(addr uint32, value uint8, node uint32) error {
	return b.write(addr, node, []byte{value})
}

// Write16 decomposes a half-word with the given endianness and writes it.
func (b *Bank) Write16(
	addr uint32,
	value uint16,
	endian mem.Endianness,
	node uint32,
) error {
	var buf [2]byte

	endian.ByteOrder().PutUint16(buf[:], value)

	return b.write(addr, node, buf[:])
}

// Write32 decomposes a word with the given endianness and writes it.
func (b *Bank) Write32(
	addr uint32,
	value uint32,
	endian mem.Endianness,
	node uint32,
) error {
	var buf [4]byte

	endian.ByteOrder().PutUint32(buf[:], value)

	return b.write(addr, node, buf[:])
}
