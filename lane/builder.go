package lane

import (
	"log"

	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/tracing"
)

// Builder can build decode engines.
type Builder struct {
	backend Backend
	config  Config
	hooks   []tracing.Hook
}

// MakeBuilder returns a Builder with big-endian composition, node 0 as the
// default node, and permissive byte-enable handling.
func MakeBuilder() Builder {
	return Builder{
		config: Config{
			Endianness:  mem.BigEndian,
			DefaultNode: 0,
		},
	}
}

// WithBackend sets the storage the engine serves transactions against.
func (b Builder) WithBackend(backend Backend) Builder {
	b.backend = backend
	return b
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithEndianness sets how half-words and words are composed.
func (b Builder) WithEndianness(endian mem.Endianness) Builder {
	b.config.Endianness = endian
	return b
}

// WithDefaultNode sets the node used by front ends that do not name one.
func (b Builder) WithDefaultNode(node uint32) Builder {
	b.config.DefaultNode = node
	return b
}

// WithStrictByteEnable makes the engine reject non-standard byte-enable
// masks.
func (b Builder) WithStrictByteEnable() Builder {
	b.config.StrictByteEnable = true
	return b
}

// WithHook registers a hook on the engine to build.
func (b Builder) WithHook(hook tracing.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.backend == nil {
		log.Panic("decode engine requires a backend")
	}

	switch b.config.Endianness {
	case mem.BigEndian, mem.LittleEndian:
	default:
		log.Panicf("unsupported endianness %s", b.config.Endianness)
	}
}

// Build creates a new Engine.
func (b Builder) Build() *Engine {
	b.parametersMustBeValid()

	e := &Engine{
		HookableBase: tracing.NewHookableBase(),
		backend:      b.backend,
		config:       b.config,
	}

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	return e
}
