// Command promptdiscovery searches and recommends prompts from a JSONL
// catalog, and serves the catalog over REST and MCP.
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
