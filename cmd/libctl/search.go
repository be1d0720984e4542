// search subcommand: catalog lookup with availability counts.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by title or author",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, engine, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := engine.FindItem(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		emit(results, func() {
			if len(results) == 0 {
				fmt.Println("No matches.")
				return
			}
			for _, r := range results {
				fmt.Printf("%s  %q by %s (%s) - %d/%d available\n",
					r.Item.Key, r.Item.Title, r.Item.Author, r.Item.Type,
					r.AvailableCopies, r.TotalCopies)
			}
		})
		return nil
	},
}
