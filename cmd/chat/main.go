package main

import "github.com/z6wdc/online-chat-messenger/cmd/chat/cmd"

func main() {
	cmd.Execute()
}
