// gesturehook - system-wide circle gesture recognizer
// Watches the primary pointer button through a low-level hook and notifies
// local UI consumers when a roughly circular stroke is drawn.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
