// Command computed runs a compute service worker: a process that
// attaches to the shared topic, its per-host topic and the topic's
// fanout, dispatching every inbound RPC call, cast and fanout_cast to a
// single registered handler.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "computed",
		Short: "Run and interact with compute service workers",
	}
	root.AddCommand(runCmd())
	root.AddCommand(rpcCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
