package main

import (
	"os"

	"github.com/gokatarajesh/quizwhiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
