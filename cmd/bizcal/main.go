// Command bizcal answers business-day questions from the command line.
package main

import (
	"os"

	"github.com/zapponejosh/bizcal/cmd/bizcal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
