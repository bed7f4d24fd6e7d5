// Command execguard evaluates proposed patches and classified commands
// against an approval policy and a sandbox policy, and reports whether they
// may run automatically, need the user's approval, or must be rejected.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	a := newApp(os.Stdin, os.Stdout)
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
