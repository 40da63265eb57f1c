// Command broadcast-batch runs the batched variant of the broadcast
// reference workload over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/jabolina/maelnode/internal/workload/broadcast"
	"github.com/jabolina/maelnode/pkg/node"
)

func main() {
	if err := node.Run(node.DefaultConfig(), broadcast.NewBatched); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
