package main

import (
	"os"

	"github.com/ab7289/dining-concierge/suggestionworker"
)

func main() {
	if err := suggestionworker.Run(); err != nil {
		os.Exit(1)
	}
}
