package main

import (
	"os"

	"crossbot/cmd/crossbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
