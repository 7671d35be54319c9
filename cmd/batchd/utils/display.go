// Package utils contains utility functions for the batchd daemon.
package utils

import (
	"fmt"
)

// DisplayLogo prints the batchd ASCII logo with version information
func DisplayLogo(version string) {
	fmt.Println()
	fmt.Println(` ░░░░░░░░░░░░░░░░░░░░░░░░░░
 ░█▀▄░█▀█░▀█▀░█▀▀░█░█░█▀▄░░
 ░█▀▄░█▀█░░█░░█░░░█▀█░█░█░░
 ░▀▀░░▀░▀░░▀░░▀▀▀░▀░▀░▀▀░░░
 ░░░░░░░░░░░░░░░░░░░░░░░░░░`)
	fmt.Printf("\n batchd v%s - Durable batching coordinator\n", version)
	fmt.Println(" Idempotent admission, batched writes, checkpointed handoff")
	fmt.Println()
}
