// Command cmdai turns natural-language instructions into vetted shell
// commands. See internal/cli for the command tree.
package main

import (
	"fmt"
	"os"

	"github.com/cmdai/cmdai/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
