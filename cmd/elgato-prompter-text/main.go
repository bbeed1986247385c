// Command elgato-prompter-text manages Elgato Prompter scripts.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tessro/elgato-prompter-text/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Silent() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr)
		}
		os.Exit(exitErr.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
