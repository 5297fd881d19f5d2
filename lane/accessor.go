package lane

// An Accessor offers byte-address loads and stores on one node, the way a
// testbench program drives the bus. It derives the byte enable from the low
// address bits, places store data in its lane, and right-justifies load
// results.
type Accessor struct {
	engine *Engine
	node   uint32
}

// NewAccessor creates an Accessor bound to a node of the engine.
func NewAccessor(engine *Engine, node uint32) *Accessor {
	return &Accessor{engine: engine, node: node}
}

// Node returns the node the accessor works on.
func (a *Accessor) Node() uint32 {
	return a.node
}

// LoadWord reads the 32-bit word at addr.
func (a *Accessor) LoadWord(addr uint32) (uint32, error) {
	return a.engine.Read(addr, EnableWord, a.node)
}

// LoadHalf reads the half-word containing addr.
func (a *Accessor) LoadHalf(addr uint32) (uint16, error) {
	be, shift := halfLane(addr)

	v, err := a.engine.Read(addr, be, a.node)
	if err != nil {
		return 0, err
	}

	return uint16(v >> shift), nil
}

// LoadByte reads the byte at addr.
func (a *Accessor) LoadByte(addr uint32) (uint8, error) {
	be, shift := byteLane(addr)

	v, err := a.engine.Read(addr, be, a.node)
	if err != nil {
		return 0, err
	}

	return uint8(v >> shift), nil
}

// StoreWord writes the 32-bit word at addr.
func (a *Accessor) StoreWord(addr uint32, value uint32) error {
	return a.engine.Write(addr, value, EnableWord, a.node)
}

// StoreHalf writes the half-word containing addr.
func (a *Accessor) StoreHalf(addr uint32, value uint16) error {
	be, shift := halfLane(addr)
	return a.engine.Write(addr, uint32(value)<<shift, be, a.node)
}

// StoreByte writes the byte at addr.
func (a *Accessor) StoreByte(addr uint32, value uint8) error {
	be, shift := byteLane(addr)
	return a.engine.Write(addr, uint32(value)<<shift, be, a.node)
}

func halfLane(addr uint32) (uint8, uint) {
	if addr&0x2 == 0 {
		return EnableLow, 0
	}

	return EnableHigh, 16
}

func byteLane(addr uint32) (uint8, uint) {
	l := addr & 0x3
	return 1 << l, uint(l) * 8
}
