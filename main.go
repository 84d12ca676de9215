package main

import "github.com/agentic-research/lsgraph/cmd"

func main() {
	cmd.Execute()
}
