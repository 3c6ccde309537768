// Package main is the entry point for zum, a terminal monitor for Z.ai plan usage.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
