// volunteer subcommand: sign a member up as a volunteer.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var volunteerFlags struct {
	room string
	date string
}

var volunteerCmd = &cobra.Command{
	Use:   "volunteer <first-name> <last-name>",
	Short: "Register as a library volunteer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateArg(volunteerFlags.date)
		if err != nil {
			return err
		}

		store, _, svc, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		member, err := svc.Volunteer(cmd.Context(), args[0], args[1], volunteerFlags.room, date)
		if err != nil {
			return err
		}

		emit(member, func() {
			fmt.Printf("Welcome aboard, %s %s. Personnel record %s.\n",
				member.FirstName, member.LastName, member.ID)
		})
		return nil
	},
}

func init() {
	volunteerCmd.Flags().StringVar(&volunteerFlags.room, "room", "", "room assignment")
	volunteerCmd.Flags().StringVar(&volunteerFlags.date, "date", "", "start date YYYY-MM-DD (default: today)")
}
