package main

import (
	"os"

	"github.com/ab7289/dining-concierge/conciergeservice"
)

func main() {
	if err := conciergeservice.Run(); err != nil {
		os.Exit(1)
	}
}
