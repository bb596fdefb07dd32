package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present so ${ANTHROPIC_API_KEY} and friends expand in
	// the config file. Missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
