package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/memmodel/monitoring"
	"github.com/sarchlab/memmodel/shim/luahost"
)

var (
	servePort   int
	serveOpen   bool
	serveScript string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the memory model over HTTP until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		m, err := cfg.buildModel()
		if err != nil {
			return err
		}

		monitor := monitoring.NewMonitor(m.engine, m.bank)
		if servePort != 0 {
			monitor.WithPortNumber(servePort)
		}

		if serveScript != "" {
			host := luahost.New(m.engine)
			err = host.RunFile(serveScript)
			host.Close()

			if err != nil {
				return err
			}
		}

		url := monitor.StartServer()
		defer monitor.StopServer()

		if serveOpen {
			if err := browser.OpenURL(url + "/api/config"); err != nil {
				fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
			}
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"port of the server; a random port is used if not set")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false,
		"open the server in a browser")
	serveCmd.Flags().StringVar(&serveScript, "script", "",
		"Lua script that initializes the memory before serving")

	rootCmd.AddCommand(serveCmd)
}
