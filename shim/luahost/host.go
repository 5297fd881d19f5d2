// Package luahost runs testbench scripts written in Lua against the decode
// engine. Scripts issue bus transactions with memread and memwrite, or use
// the byte-address helpers read_word, write_byte, and friends.
package luahost

import (
	"errors"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/memmodel/lane"
)

const haltSignal = lua.LString("memmodel: halt")

// A Host owns a Lua state with the memory model functions installed.
type Host struct {
	L *lua.LState

	engine   *lane.Engine
	accessor *lane.Accessor
	halted   bool
	exitCode int
}

// New creates a Host whose scripts drive the engine. The byte-address helpers
// work on the default node of the engine.
func New(engine *lane.Engine) *Host {
	h := &Host{
		L:        lua.NewState(),
		engine:   engine,
		accessor: lane.NewAccessor(engine, engine.DefaultNode()),
	}

	h.register()

	return h
}

// Close releases the Lua state.
func (h *Host) Close() {
	h.L.Close()
}

// Halted tells if the script called halt.
func (h *Host) Halted() bool {
	return h.halted
}

// ExitCode returns the code passed to halt.
func (h *Host) ExitCode() int {
	return h.exitCode
}

// RunString runs a script. A script that calls halt stops there without
// error.
func (h *Host) RunString(source string) error {
	return h.filterHalt(h.L.DoString(source))
}

// RunFile runs the script in the file.
func (h *Host) RunFile(path string) error {
	return h.filterHalt(h.L.DoFile(path))
}

func (h *Host) filterHalt(err error) error {
	var apiErr *lua.ApiError
	if h.halted && errors.As(err, &apiErr) && apiErr.Object == haltSignal {
		return nil
	}

	return err
}

// guarded makes halt final. A pcall can catch the halt signal, but every
// later call into the model raises it again.
func (h *Host) guarded(f lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if h.halted {
			L.Error(haltSignal, 0)
		}

		return f(L)
	}
}

func (h *Host) register() {
	funcs := map[string]lua.LGFunction{
		"memread":     h.memRead,
		"memwrite":    h.memWrite,
		"read_word":   h.readWord,
		"read_hword":  h.readHWord,
		"read_byte":   h.readByte,
		"write_word":  h.writeWord,
		"write_hword": h.writeHWord,
		"write_byte":  h.writeByte,
		"halt":        h.halt,
	}

	for name, f := range funcs {
		h.L.SetGlobal(name, h.L.NewFunction(h.guarded(f)))
	}

	h.L.SetGlobal("ENDIAN", lua.LString(h.engine.Endianness().String()))
	h.L.SetGlobal("NODE", lua.LNumber(h.engine.DefaultNode()))
}

func checkUint32(L *lua.LState, n int) uint32 {
	v := float64(L.CheckNumber(n))
	if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
		L.ArgError(n, "expected an unsigned 32-bit integer")
	}

	return uint32(v)
}

func optNode(L *lua.LState, n int, def uint32) uint32 {
	if L.GetTop() < n {
		return def
	}

	return checkUint32(L, n)
}

func raise(L *lua.LState, err error) {
	L.RaiseError("%s", err.Error())
}

// memread(address, byte_enable [, node]) returns the lane-placed data.
func (h *Host) memRead(L *lua.LState) int {
	addr := checkUint32(L, 1)
	be := checkUint32(L, 2)
	node := optNode(L, 3, h.engine.DefaultNode())

	data, err := h.engine.Read(addr, lane.NarrowByteEnable(be), node)
	if err != nil {
		raise(L, err)
	}

	L.Push(lua.LNumber(data))

	return 1
}

// memwrite(address, data, byte_enable [, node]).
func (h *Host) memWrite(L *lua.LState) int {
	addr := checkUint32(L, 1)
	data := checkUint32(L, 2)
	be := checkUint32(L, 3)
	node := optNode(L, 4, h.engine.DefaultNode())

	err := h.engine.Write(addr, data, lane.NarrowByteEnable(be), node)
	if err != nil {
		raise(L, err)
	}

	return 0
}

func (h *Host) readWord(L *lua.LState) int {
	v, err := h.accessor.LoadWord(checkUint32(L, 1))
	if err != nil {
		raise(L, err)
	}

	L.Push(lua.LNumber(v))

	return 1
}

func (h *Host) readHWord(L *lua.LState) int {
	v, err := h.accessor.LoadHalf(checkUint32(L, 1))
	if err != nil {
		raise(L, err)
	}

	L.Push(lua.LNumber(v))

	return 1
}

func (h *Host) readByte(L *lua.LState) int {
	v, err := h.accessor.LoadByte(checkUint32(L, 1))
	if err != nil {
		raise(L, err)
	}

	L.Push(lua.LNumber(v))

	return 1
}

func (h *Host) writeWord(L *lua.LState) int {
	if err := h.accessor.StoreWord(checkUint32(L, 1), checkUint32(L, 2)); err != nil {
		raise(L, err)
	}

	return 0
}

func (h *Host) writeHWord(L *lua.LState) int {
	addr := checkUint32(L, 1)
	v := checkUint32(L, 2)

	if err := h.accessor.StoreHalf(addr, uint16(v)); err != nil {
		raise(L, err)
	}

	return 0
}

func (h *Host) writeByte(L *lua.LState) int {
	addr := checkUint32(L, 1)
	v := checkUint32(L, 2)

	if err := h.accessor.StoreByte(addr, uint8(v)); err != nil {
		raise(L, err)
	}

	return 0
}

// halt([code]) stops the script.
func (h *Host) halt(L *lua.LState) int {
	h.halted = true
	h.exitCode = L.OptInt(1, 0)

	L.Error(haltSignal, 0)

	return 0
}
