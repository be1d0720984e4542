// return subcommand: close a loan.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/circulation-engine/circulation"
)

var returnDate string

var returnCmd = &cobra.Command{
	Use:   "return <loan-id>",
	Short: "Return a borrowed copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(returnDate)
		if err != nil {
			return err
		}

		store, engine, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := engine.ReturnCopy(cmd.Context(), circulation.LoanID(args[0]), date)
		if err != nil {
			return err
		}

		emit(result, func() {
			fmt.Printf("Returned on %s.\n", result.ReturnDate)
			if result.FineRecorded {
				fmt.Printf("Fine: %s (%d days late), outstanding.\n",
					result.FineAmount.StringFixed(2), result.DaysLate)
			}
			if result.CopyMissing {
				fmt.Println("Note: copy record no longer in inventory; loan closed anyway.")
			}
		})
		return nil
	},
}

func init() {
	returnCmd.Flags().StringVar(&returnDate, "date", "", "return date YYYY-MM-DD (default: today)")
}
