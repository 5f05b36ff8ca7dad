package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nagachetan/ai-rag-chatbot/cmd"
)

func main() {
	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
