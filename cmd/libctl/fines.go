// fines subcommand: list outstanding fines and settle them.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/circulation-engine/circulation"
)

var finesCmd = &cobra.Command{
	Use:   "fines",
	Short: "Inspect and settle fines",
}

var finesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outstanding fines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, engine, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		fines, err := engine.OutstandingFines(cmd.Context())
		if err != nil {
			return err
		}

		emit(fines, func() {
			if len(fines) == 0 {
				fmt.Println("No outstanding fines.")
				return
			}
			for _, f := range fines {
				fmt.Printf("loan %s  %s\n", f.LoanID, f.Amount.StringFixed(2))
			}
		})
		return nil
	},
}

var settleDate string

var finesSettleCmd = &cobra.Command{
	Use:   "settle <loan-id>",
	Short: "Mark a loan's fine as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(settleDate)
		if err != nil {
			return err
		}

		store, engine, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		loanID := circulation.LoanID(args[0])
		if err := engine.SettleFine(cmd.Context(), loanID, date); err != nil {
			return err
		}
		fine, err := engine.GetFine(cmd.Context(), loanID)
		if err != nil {
			return err
		}

		emit(fine, func() {
			fmt.Printf("Settled %s for loan %s on %s.\n",
				fine.Amount.StringFixed(2), loanID, date)
		})
		return nil
	},
}

func init() {
	finesSettleCmd.Flags().StringVar(&settleDate, "date", "", "payment date YYYY-MM-DD (default: today)")
	finesCmd.AddCommand(finesListCmd)
	finesCmd.AddCommand(finesSettleCmd)
}
