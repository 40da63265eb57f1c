// Command txn-kv runs the transactional key/value reference workload over
// stdio, covering both the single-node and multi-node variants.
package main

import (
	"fmt"
	"os"

	"github.com/jabolina/maelnode/internal/workload/txnkv"
	"github.com/jabolina/maelnode/pkg/node"
)

func main() {
	if err := node.Run(node.DefaultConfig(), txnkv.New); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
