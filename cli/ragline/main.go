package main

import (
	"os"

	"github.com/joho/godotenv"

	raglinecmder "github.com/papercomputeco/ragline/cmd/ragline"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cmd := raglinecmder.NewRaglineCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
