package main

import (
	"fmt"
	"os"

	"github.com/MrEthical07/goToken/cmd/gotoken/cmd"
	"github.com/fatih/color"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(1)
	}
}
