package main

import (
	"fmt"
	"os"

	"github.com/lazypower/waypoint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "waypoint: %v\n", err)
		os.Exit(1)
	}
}
