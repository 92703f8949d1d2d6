// Command contractctl canonicalizes, hashes, resolves and exchanges design
// contract documents, and keeps drafts and archived versions of them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
