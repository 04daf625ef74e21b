// Command availctl computes availability offline from a working-hours file.
// Support uses it to reproduce what a client saw without touching production.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
