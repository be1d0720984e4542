// borrow subcommand: lend a copy to a member.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/circulation-engine/circulation"
)

var borrowDate string

var borrowCmd = &cobra.Command{
	Use:   "borrow <copy-id> <member-id>",
	Short: "Borrow a copy for a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(borrowDate)
		if err != nil {
			return err
		}

		store, engine, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := engine.BorrowCopy(cmd.Context(),
			circulation.CopyID(args[0]), circulation.MemberID(args[1]), date)
		if err != nil {
			return err
		}

		emit(result, func() {
			fmt.Printf("Borrowed. Loan %s, due %s.\n", result.LoanID, result.DueDate)
		})
		return nil
	},
}

func init() {
	borrowCmd.Flags().StringVar(&borrowDate, "date", "", "borrow date YYYY-MM-DD (default: today)")
}
