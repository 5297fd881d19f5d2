package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/memmodel/lane"
	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/memory"
	"github.com/sarchlab/memmodel/tracing"
)

type config struct {
	envFile     string
	endian      string
	nodes       uint32
	defaultNode uint32
	capacity    string
	strict      bool
	trace       string
	logAccesses bool
}

var cfg config

// Environment variables that back the flags of the same meaning.
var envFlags = map[string]string{
	"endian":       "MEMMODEL_ENDIAN",
	"nodes":        "MEMMODEL_NODES",
	"default-node": "MEMMODEL_DEFAULT_NODE",
	"capacity":     "MEMMODEL_CAPACITY",
	"strict":       "MEMMODEL_STRICT",
	"trace":        "MEMMODEL_TRACE",
	"log":          "MEMMODEL_LOG",
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&cfg.envFile, "env-file", ".env",
		"file with MEMMODEL_* settings; a missing file is ignored")
	pf.StringVar(&cfg.endian, "endian", "big",
		"byte order of half-words and words: big or little")
	pf.Uint32Var(&cfg.nodes, "nodes", 1, "number of memory nodes")
	pf.Uint32Var(&cfg.defaultNode, "default-node", 0,
		"node used by transactions that do not name one")
	pf.StringVar(&cfg.capacity, "capacity", "4GB",
		"bytes per node, with an optional KB, MB, or GB suffix")
	pf.BoolVar(&cfg.strict, "strict", false,
		"reject byte enables that are not a byte, half-word, or word")
	pf.StringVar(&cfg.trace, "trace", "",
		"record transactions into this SQLite database (without suffix)")
	pf.BoolVar(&cfg.logAccesses, "log", false, "log every transaction")
}

// loadConfig reads the env file and fills every flag the user did not set
// from its environment variable.
func loadConfig(cmd *cobra.Command) error {
	err := godotenv.Load(cfg.envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", cfg.envFile, err)
	}

	for name, key := range envFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}

		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}

		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

func parseSize(s string) (uint64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	multiplier := uint64(1)
	for suffix, m := range map[string]uint64{
		"KB": mem.KB,
		"MB": mem.MB,
		"GB": mem.GB,
	} {
		if strings.HasSuffix(s, suffix) {
			multiplier = m
			s = strings.TrimSuffix(s, suffix)

			break
		}
	}

	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	return n * multiplier, nil
}

type model struct {
	engine *lane.Engine
	bank   *memory.Bank
}

func (c config) engineConfig() (lane.Config, error) {
	endian, err := mem.ParseEndianness(c.endian)
	if err != nil {
		return lane.Config{}, err
	}

	return lane.Config{
		Endianness:       endian,
		DefaultNode:      c.defaultNode,
		StrictByteEnable: c.strict,
	}, nil
}

// buildModel creates the bank and the engine described by the configuration.
func (c config) buildModel() (*model, error) {
	engineConfig, err := c.engineConfig()
	if err != nil {
		return nil, err
	}

	capacity, err := parseSize(c.capacity)
	if err != nil {
		return nil, err
	}

	if c.nodes == 0 {
		return nil, errors.New("at least one node is required")
	}

	nodes := make([]uint32, 0, c.nodes)
	for n := range c.nodes {
		nodes = append(nodes, n)
	}

	if c.defaultNode >= c.nodes {
		return nil, fmt.Errorf("default node %d is not one of the %d nodes",
			c.defaultNode, c.nodes)
	}

	bank := memory.NewBank(capacity, nodes...)
	builder := lane.MakeBuilder().
		WithBackend(bank).
		WithConfig(engineConfig)

	if c.logAccesses {
		logger := log.New(os.Stderr, "memmodel: ", log.LstdFlags)
		builder = builder.WithHook(tracing.NewLogTracer(logger))
	}

	if c.trace != "" {
		tracer := tracing.NewSQLiteTracer(c.trace)
		tracer.Init()
		builder = builder.WithHook(tracer)
	}

	return &model{engine: builder.Build(), bank: bank}, nil
}
