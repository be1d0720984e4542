// libctl is the command-line interface to the circulation engine.
// It operates directly on the SQLite store, no server required.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
