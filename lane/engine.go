// Package lane implements the byte-lane decode engine. It translates
// transactions between the bus view (word address, byte-enable mask, 32-bit
// data) and the storage view (byte address, exact-width value).
package lane

import (
	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/tracing"
)

// Backend is the storage the engine reads from and writes to. Half-word and
// word accessors compose bytes with the given endianness.
type Backend interface {
	Read8(addr uint32, node uint32) (uint8, error)
	Read16(addr uint32, endian mem.Endianness, node uint32) (uint16, error)
	Read32(addr uint32, endian mem.Endianness, node uint32) (uint32, error)
	Write8(addr uint32, value uint8, node uint32) error
	Write16(addr uint32, value uint16, endian mem.Endianness, node uint32) error
	Write32(addr uint32, value uint32, endian mem.Endianness, node uint32) error
}

// Config fixes how an engine treats every transaction.
type Config struct {
	Endianness mem.Endianness

	// DefaultNode is used by front ends whose transactions carry no node.
	DefaultNode uint32

	// StrictByteEnable rejects masks that are not a single byte, a half-word,
	// or a full word instead of treating them as a full-word access.
	StrictByteEnable bool
}

// An Engine serves transactions against a Backend. It keeps no state of its
// own besides its configuration and hooks.
type Engine struct {
	*tracing.HookableBase

	backend Backend
	config  Config
}

// Endianness returns the configured byte order.
func (e *Engine) Endianness() mem.Endianness {
	return e.config.Endianness
}

// DefaultNode returns the node used when a front end does not name one.
func (e *Engine) DefaultNode() uint32 {
	return e.config.DefaultNode
}

// Config returns the configuration of the engine.
func (e *Engine) Config() Config {
	return e.config
}

// Read fetches the value selected by byteEnable. The value is placed in its
// lane, so a byte read from lane 2 occupies bits [23:16].
func (e *Engine) Read(
	address uint32,
	byteEnable uint8,
	node uint32,
) (uint32, error) {
	access := Decode(address, byteEnable)
	data, err := e.read(access, byteEnable, node)

	e.notify(mem.Transaction{
		Kind:       mem.AccessRead,
		Address:    address,
		Data:       data,
		ByteEnable: byteEnable,
		Node:       node,
	}, access, err)

	return data, err
}

func (e *Engine) read(
	access Access,
	byteEnable uint8,
	node uint32,
) (uint32, error) {
	if err := e.checkByteEnable(access, byteEnable, node); err != nil {
		return 0, err
	}

	var (
		value uint32
		err   error
	)

	switch access.Width {
	case 1:
		var b uint8
		b, err = e.backend.Read8(access.Address, node)
		value = uint32(b)
	case 2:
		var hw uint16
		hw, err = e.backend.Read16(access.Address, e.config.Endianness, node)
		value = uint32(hw)
	default:
		value, err = e.backend.Read32(access.Address, e.config.Endianness, node)
	}

	if err != nil {
		return 0, err
	}

	return value << access.Shift(), nil
}

// Write stores the part of data selected by byteEnable. The value is taken
// from its lane, so a byte write to lane 3 stores bits [31:24] of data.
func (e *Engine) Write(
	address uint32,
	data uint32,
	byteEnable uint8,
	node uint32,
) error {
	access := Decode(address, byteEnable)
	err := e.write(access, data, byteEnable, node)

	e.notify(mem.Transaction{
		Kind:       mem.AccessWrite,
		Address:    address,
		Data:       data,
		ByteEnable: byteEnable,
		Node:       node,
	}, access, err)

	return err
}

func (e *Engine) write(
	access Access,
	data uint32,
	byteEnable uint8,
	node uint32,
) error {
	if err := e.checkByteEnable(access, byteEnable, node); err != nil {
		return err
	}

	value := data >> access.Shift()

	switch access.Width {
	case 1:
		return e.backend.Write8(access.Address, uint8(value), node)
	case 2:
		return e.backend.Write16(
			access.Address, uint16(value), e.config.Endianness, node)
	default:
		return e.backend.Write32(
			access.Address, value, e.config.Endianness, node)
	}
}

// Serve executes a transaction. For reads, the result is stored in
// txn.Data.
func (e *Engine) Serve(txn *mem.Transaction) error {
	switch txn.Kind {
	case mem.AccessRead:
		data, err := e.Read(txn.Address, txn.ByteEnable, txn.Node)
		if err != nil {
			return err
		}

		txn.Data = data

		return nil
	case mem.AccessWrite:
		return e.Write(txn.Address, txn.Data, txn.ByteEnable, txn.Node)
	default:
		panic("unknown access kind " + txn.Kind.String())
	}
}

func (e *Engine) checkByteEnable(
	access Access,
	byteEnable uint8,
	node uint32,
) error {
	if !e.config.StrictByteEnable || IsStandardByteEnable(byteEnable) {
		return nil
	}

	return &mem.AccessError{
		Kind:    mem.InvalidByteEnable,
		Address: uint64(access.Address),
		Node:    node,
		Width:   uint64(byteEnable),
	}
}

func (e *Engine) notify(txn mem.Transaction, access Access, err error) {
	tracing.NotifyAccess(e, tracing.Access{
		Txn:              txn,
		EffectiveAddress: access.Address,
		Lane:             access.Lane,
		Width:            access.Width,
		Err:              err,
	})
}
