package main

import (
	"fmt"
	"os"

	"github.com/rulemate-india/core/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rulemate:", err)
		os.Exit(1)
	}
}
