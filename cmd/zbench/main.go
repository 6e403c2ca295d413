package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "zbench %s panicked: %v\n\n%s\n", version, r, debug.Stack())
			fmt.Fprintln(os.Stderr, "Checkouts under the work dir are left as they were; rerun with --force-recompile if a build was interrupted.")
			os.Exit(2)
		}
	}()

	Execute()
}
