// Command pipestress runs contention scenarios against the resource lock
// protocol and the rendezvous endpoints built on it, reporting what
// happened through logs and prometheus metrics.
package main

import (
	"os"
)

func main() {
	rootCmd := newRootCommand()
	rootCmd.AddCommand(newResourcesCommand())
	rootCmd.AddCommand(newPipesCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
