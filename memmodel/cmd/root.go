// Package cmd provides the command-line interface of the memory model.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memmodel",
	Short: "memmodel serves byte-enable qualified memory transactions.",
	Long: `memmodel is a simulated memory that testbenches drive with ` +
		`memread and memwrite transactions. It can run testbench scripts, ` +
		`check itself, and serve the memory for inspection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
