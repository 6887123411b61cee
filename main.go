package main

import (
	"os"

	"github.com/upnepa/gridlog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
