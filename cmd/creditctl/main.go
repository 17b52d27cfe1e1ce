// Command creditctl is the operator tool: it mints development tokens,
// computes the stored hash of a consumer identifier for investigations,
// lints purpose policy files and applies the audit schema.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
