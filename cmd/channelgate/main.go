package main

import "github.com/novix-hq/channelgate/cmd/channelgate/cmd"

func main() {
	cmd.Execute()
}
