// Command tinsnip computes sheet-metal parts from part scripts or JSON5
// snapshots: flat patterns, exports, meshes and revision history.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
