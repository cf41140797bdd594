package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/z6wdc/online-chat-messenger/internal/client"
	"github.com/z6wdc/online-chat-messenger/internal/ui"
)

const receiveBufferSize = 4096

// promptDisplayName asks for a name when --name was not given.
func promptDisplayName() (string, error) {
	if displayName != "" {
		return displayName, nil
	}
	fmt.Print("Enter your username: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// runChat drives an established session: one goroutine rendering incoming
// messages, the main loop reading stdin lines and relaying them.
func runChat(sess *client.Session) error {
	defer sess.Close()
	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("Joined %s as %s", sess.Room, sess.DisplayName)))
	fmt.Println(ui.MutedStyle.Render("Type /exit to leave."))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		buf := make([]byte, receiveBufferSize)
		for {
			msg, err := sess.Receive(buf)
			if err != nil {
				return
			}
			if client.IsClosureNotice(msg) {
				fmt.Println(ui.NoticeBox(msg))
				return
			}
			fmt.Println(ui.MessageBox(msg))
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-closed:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(strings.ToLower(line)) == "/exit" {
				fmt.Println(ui.MutedStyle.Render("Leaving chat..."))
				return nil
			}
			if line == "" {
				continue
			}
			if err := sess.Send(line); err != nil {
				return err
			}
		}
	}
}
