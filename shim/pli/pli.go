// Package pli exposes the decode engine through a positional-argument
// foreign-call interface, the way Verilog PLI system tasks fetch their
// arguments with tf_getp and return results with tf_putp.
package pli

import (
	"fmt"
	"slices"

	"github.com/sarchlab/memmodel/lane"
)

// Argument positions of $memread and $memwrite. Positions start at 1.
const (
	AddrArg       = 1
	DataArg       = 2
	ByteEnableArg = 3

	// NodeArg is optional. Without it, the default node of the memory is
	// used.
	NodeArg = 4
)

// Names of the system tasks.
const (
	MemReadTask  = "$memread"
	MemWriteTask = "$memwrite"
)

// Args is the argument list of one system task call.
type Args interface {
	NumArgs() int
	Get(i int) uint32
	Put(i int, v uint32)
}

// Memory is what the tasks drive. *lane.Engine implements it.
type Memory interface {
	Read(address uint32, byteEnable uint8, node uint32) (uint32, error)
	Write(address uint32, data uint32, byteEnable uint8, node uint32) error
	DefaultNode() uint32
}

// TaskFunc is the body of a system task.
type TaskFunc func(args Args) error

// A Task binds a system task name to its body.
type Task struct {
	Name string
	Func TaskFunc
}

func node(m Memory, args Args) uint32 {
	if args.NumArgs() >= NodeArg {
		return args.Get(NodeArg)
	}

	return m.DefaultNode()
}

func checkArgs(name string, args Args) error {
	if args.NumArgs() < ByteEnableArg {
		return fmt.Errorf("%s: expected at least %d arguments, got %d",
			name, ByteEnableArg, args.NumArgs())
	}

	return nil
}

// MemRead serves $memread(address, data, byte_enable [, node]). The read
// data is put into the data argument.
func MemRead(m Memory, args Args) error {
	if err := checkArgs(MemReadTask, args); err != nil {
		return err
	}

	data, err := m.Read(
		args.Get(AddrArg),
		lane.NarrowByteEnable(args.Get(ByteEnableArg)),
		node(m, args),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", MemReadTask, err)
	}

	args.Put(DataArg, data)

	return nil
}

// MemWrite serves $memwrite(address, data, byte_enable [, node]).
func MemWrite(m Memory, args Args) error {
	if err := checkArgs(MemWriteTask, args); err != nil {
		return err
	}

	err := m.Write(
		args.Get(AddrArg),
		args.Get(DataArg),
		lane.NarrowByteEnable(args.Get(ByteEnableArg)),
		node(m, args),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", MemWriteTask, err)
	}

	return nil
}

// Tasks returns the task table of the memory model.
func Tasks(m Memory) []Task {
	return []Task{
		{Name: MemReadTask, Func: func(args Args) error { return MemRead(m, args) }},
		{Name: MemWriteTask, Func: func(args Args) error { return MemWrite(m, args) }},
	}
}

// A Registry dispatches system task calls by name.
type Registry struct {
	tasks map[string]TaskFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]TaskFunc)}
}

// Register adds tasks to the registry. Names must be unique.
func (r *Registry) Register(tasks ...Task) error {
	for _, t := range tasks {
		if _, ok := r.tasks[t.Name]; ok {
			return fmt.Errorf("task %s is already registered", t.Name)
		}

		r.tasks[t.Name] = t.Func
	}

	return nil
}

// Call invokes the task with the given name.
func (r *Registry) Call(name string, args Args) error {
	f, ok := r.tasks[name]
	if !ok {
		return fmt.Errorf("unknown task %s", name)
	}

	return f(args)
}

// Names lists the registered task names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for n := range r.tasks {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// SliceArgs is an in-memory argument list. Element 0 holds argument 1.
type SliceArgs []uint32

// NumArgs returns the number of arguments.
func (a SliceArgs) NumArgs() int {
	return len(a)
}

// Get returns argument i.
func (a SliceArgs) Get(i int) uint32 {
	return a[i-1]
}

// Put stores v into argument i.
func (a SliceArgs) Put(i int, v uint32) {
	a[i-1] = v
}
