package main

import (
	"github.com/tanq16/swarmget/cmd"
)

func main() {
	cmd.Execute()
}
