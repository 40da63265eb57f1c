// Command counter runs the grow-only counter reference workload over
// stdio.
package main

import (
	"fmt"
	"os"

	"github.com/jabolina/maelnode/internal/workload/counter"
	"github.com/jabolina/maelnode/pkg/node"
)

func main() {
	if err := node.Run(node.DefaultConfig(), counter.New); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
