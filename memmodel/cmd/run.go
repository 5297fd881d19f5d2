package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/memmodel/shim/luahost"
)

var runCmd = &cobra.Command{
	Use:   "run <script.lua>",
	Short: "Run a Lua testbench script against the memory model.",
	Long: `Run a Lua testbench script. The script can call ` +
		`memread(addr, be [, node]) and memwrite(addr, data, be [, node]), ` +
		`the byte-address helpers read_word, read_hword, read_byte, ` +
		`write_word, write_hword, write_byte, and halt([code]).`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		m, err := cfg.buildModel()
		if err != nil {
			return err
		}

		host := luahost.New(m.engine)
		defer host.Close()

		err = host.RunFile(args[0])
		if err != nil {
			return err
		}

		if host.Halted() && host.ExitCode() != 0 {
			fmt.Fprintf(os.Stderr, "script halted with code %d\n",
				host.ExitCode())
			atexit.Exit(host.ExitCode())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
