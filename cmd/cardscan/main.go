// Command cardscan extracts contact details from business card images.
package main

import (
	"fmt"
	"os"

	"cardscan/cmd/cardscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
