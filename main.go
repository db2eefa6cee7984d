package main

import "github.com/agentd/agentd/cmd"

func main() {
	cmd.Execute()
}
