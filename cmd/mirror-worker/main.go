package main

import (
	"os"

	"github.com/ab7289/dining-concierge/mirrorworker"
)

func main() {
	if err := mirrorworker.Run(); err != nil {
		os.Exit(1)
	}
}
