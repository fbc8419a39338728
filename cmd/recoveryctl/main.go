package main

import "github.com/ethaccount/recovery/cmd/recoveryctl/commands"

func main() {
	commands.Execute()
}
