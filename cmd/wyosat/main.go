// Command wyosat is the Wyoming satellite daemon: it bridges a local
// microphone/speaker/wake-word endpoint to a remote voice-assistant server
// over the Wyoming protocol (spec.md §1).
package main

import (
	"fmt"
	"os"

	"github.com/rhasspy/wyoming-satellite/cmd/wyosat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
