package mem

import "fmt"

// AccessKind tells if a transaction reads or writes memory.
type AccessKind int

// Transaction kinds.
const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// A Transaction is one bus access as a simulator sees it. For reads, Data is
// the output slot that receives the lane-placed result.
type Transaction struct {
	Kind       AccessKind
	Address    uint32
	Data       uint32
	ByteEnable uint8
	Node       uint32
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s addr=0x%08x data=0x%08x be=0x%x node=%d",
		t.Kind, t.Address, t.Data, t.ByteEnable, t.Node)
}
