// Command kafka runs the partitioned log reference workload over stdio,
// covering both the single-node and multi-node variants.
package main

import (
	"fmt"
	"os"

	"github.com/jabolina/maelnode/internal/workload/kafka"
	"github.com/jabolina/maelnode/pkg/node"
)

func main() {
	if err := node.Run(node.DefaultConfig(), kafka.New); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
