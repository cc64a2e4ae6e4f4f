package main

import (
	"fmt"
	"os"

	"github.com/d60-Lab/postboard/cmd/postboard/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
