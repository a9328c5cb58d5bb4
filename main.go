package main

import (
	"fmt"
	"os"

	"github.com/litterscan/litterscan/cmd"
	"github.com/litterscan/litterscan/internal/conf"
)

func main() {
	settings := &conf.Settings{}
	if err := cmd.RootCommand(settings).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
