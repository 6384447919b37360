// Command turnips runs the pattern engine for a single week of prices,
// without any of the service machinery.
//
//	turnips [--last-week PATTERN] [--json] BASE_PRICE [PRICE ...]
//
// Up to twelve half-day prices, Monday AM first; use ? (or .) for a
// half-day nobody checked.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
