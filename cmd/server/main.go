package main

import "github.com/eventease/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
