package main

import (
	"os"

	"github.com/quarrydb/quarry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
