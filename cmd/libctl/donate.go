// donate subcommand: register a donated copy.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/circulation-engine/circulation"
)

var donateFlags struct {
	shelf       string
	condition   string
	date        string
	itemType    string
	title       string
	author      string
	publishDate string
	publisher   string
}

var donateCmd = &cobra.Command{
	Use:   "donate <item-key>",
	Short: "Record a donated copy",
	Long: "Records a donated copy of an item. When the item key is new to the\n" +
		"catalog, supply --type, --title, --author, --publish-date, and --publisher.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(donateFlags.date)
		if err != nil {
			return err
		}

		req := circulation.DonationRequest{
			ItemKey:         circulation.ItemKey(args[0]),
			ShelfLocation:   donateFlags.shelf,
			Condition:       donateFlags.condition,
			AcquisitionDate: date,
		}
		if donateFlags.title != "" || donateFlags.author != "" || donateFlags.itemType != "" {
			publishDate, err := parseDateArg(donateFlags.publishDate)
			if err != nil {
				return err
			}
			req.Details = &circulation.CatalogItem{
				Type:        donateFlags.itemType,
				Title:       donateFlags.title,
				Author:      donateFlags.author,
				PublishDate: publishDate,
				Publisher:   donateFlags.publisher,
			}
		}

		store, engine, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := engine.DonateCopy(cmd.Context(), req)
		if err != nil {
			return err
		}

		emit(result, func() {
			fmt.Printf("Donation recorded. Copy %s.\n", result.CopyID)
			if result.ItemCreated {
				fmt.Printf("New catalog item %s created.\n", args[0])
			}
		})
		return nil
	},
}

func init() {
	donateCmd.Flags().StringVar(&donateFlags.shelf, "shelf", "", "shelf location")
	donateCmd.Flags().StringVar(&donateFlags.condition, "condition", "Good", "physical condition")
	donateCmd.Flags().StringVar(&donateFlags.date, "date", "", "acquisition date YYYY-MM-DD (default: today)")
	donateCmd.Flags().StringVar(&donateFlags.itemType, "type", "", "item type for a new catalog key")
	donateCmd.Flags().StringVar(&donateFlags.title, "title", "", "title for a new catalog key")
	donateCmd.Flags().StringVar(&donateFlags.author, "author", "", "author for a new catalog key")
	donateCmd.Flags().StringVar(&donateFlags.publishDate, "publish-date", "", "publish date for a new catalog key")
	donateCmd.Flags().StringVar(&donateFlags.publisher, "publisher", "", "publisher for a new catalog key")
}
