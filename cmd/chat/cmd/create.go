package cmd

import (
	"github.com/spf13/cobra"

	"github.com/z6wdc/online-chat-messenger/internal/client"
	"github.com/z6wdc/online-chat-messenger/internal/protocol"
)

var displayName string

var createCmd = &cobra.Command{
	Use:   "create <room>",
	Short: "Create a chat room and host it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := promptDisplayName()
		if err != nil {
			return err
		}
		sess, err := client.Connect(serverHost, tcpPort, udpPort, protocol.OpCreateRoom, args[0], name)
		if err != nil {
			return err
		}
		return runChat(sess)
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join an existing chat room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := promptDisplayName()
		if err != nil {
			return err
		}
		sess, err := client.Connect(serverHost, tcpPort, udpPort, protocol.OpJoinRoom, args[0], name)
		if err != nil {
			return err
		}
		return runChat(sess)
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, joinCmd} {
		c.Flags().StringVar(&displayName, "name", "", "display name (prompted if empty)")
		rootCmd.AddCommand(c)
	}
}
