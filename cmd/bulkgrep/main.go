package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gnolang/bulkgrep/cmd"
)

func main() {
	os.Exit(exitCode(cmd.Execute(), os.Stderr))
}

// exitCode maps the command result to a process status. Finding matches
// exits 1 without an error message.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cmd.ErrMatchesFound):
		return 1
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}
