package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/z6wdc/online-chat-messenger/internal/ui"
)

var (
	serverHost string
	tcpPort    int
	udpPort    int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal client for the online chat messenger",
	Long: `Chat is the terminal client of the online chat messenger. It creates or
joins a named room over the control channel, then exchanges messages with the
room over the relay channel. Type /exit to leave.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "127.0.0.1", "server host")
	rootCmd.PersistentFlags().IntVar(&tcpPort, "tcp-port", 12346, "control channel port")
	rootCmd.PersistentFlags().IntVar(&udpPort, "udp-port", 12345, "relay channel port")
}
