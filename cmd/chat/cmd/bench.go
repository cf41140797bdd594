package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/z6wdc/online-chat-messenger/internal/client"
	"github.com/z6wdc/online-chat-messenger/internal/protocol"
)

var (
	benchWorkers  int
	benchMessages int
	benchBody     string
)

var benchCmd = &cobra.Command{
	Use:   "bench <room>",
	Short: "Load-test the relay with concurrent senders",
	Long: `Bench creates the room, joins it with the requested number of concurrent
workers, and has every worker blast messages at the relay as fast as it can.
Prints the elapsed time and throughput at the end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := args[0]
		host, err := client.Connect(serverHost, tcpPort, udpPort, protocol.OpCreateRoom, room, "bench-host")
		if err != nil {
			return err
		}
		defer host.Close()

		sessions := make([]*client.Session, benchWorkers)
		for i := range sessions {
			s, err := client.Connect(serverHost, tcpPort, udpPort, protocol.OpJoinRoom, room, fmt.Sprintf("bench-%d", i))
			if err != nil {
				return fmt.Errorf("worker %d join: %w", i, err)
			}
			defer s.Close()
			sessions[i] = s
		}

		start := time.Now()
		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func(s *client.Session) {
				defer wg.Done()
				for n := 0; n < benchMessages; n++ {
					if err := s.Send(benchBody); err != nil {
						return
					}
				}
			}(s)
		}
		wg.Wait()

		elapsed := time.Since(start)
		total := benchWorkers * benchMessages
		fmt.Printf("Sent %d messages in %.2f seconds\n", total, elapsed.Seconds())
		fmt.Printf("Throughput: %.2f messages per second\n", float64(total)/elapsed.Seconds())
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 100, "concurrent senders")
	benchCmd.Flags().IntVar(&benchMessages, "messages", 100, "messages per sender")
	benchCmd.Flags().StringVar(&benchBody, "body",
		"This is a significantly longer test message to better simulate real-world chat conditions.",
		"message body to send")
	rootCmd.AddCommand(benchCmd)
}
