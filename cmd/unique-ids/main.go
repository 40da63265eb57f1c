// Command unique-ids runs the unique id generation reference workload over
// stdio.
package main

import (
	"fmt"
	"os"

	"github.com/jabolina/maelnode/internal/workload/uniqueids"
	"github.com/jabolina/maelnode/pkg/node"
)

func main() {
	if err := node.Run(node.DefaultConfig(), uniqueids.New); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
