// seed subcommand: load demo data into the database.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo catalog, rooms, events, and staff",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SeedDemo(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Demo data loaded.")
		return nil
	},
}
