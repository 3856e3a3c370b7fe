// Package main implements the codecat command line tool.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}
