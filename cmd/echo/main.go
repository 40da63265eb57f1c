// Command echo runs the echo reference workload over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/jabolina/maelnode/internal/workload/echo"
	"github.com/jabolina/maelnode/pkg/node"
)

func main() {
	if err := node.Run(node.DefaultConfig(), echo.New); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
