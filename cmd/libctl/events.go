// events subcommand: search events, register seats, ask for help.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/circulation-engine/community"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse and register for library events",
}

var eventsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search events by name or type",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, svc, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := svc.FindEvents(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		emit(events, func() {
			if len(events) == 0 {
				fmt.Println("No matching events.")
				return
			}
			for _, e := range events {
				fmt.Printf("%s  %s (%s) %s %s room %s, %d seats taken\n",
					e.ID, e.Name, e.Type, e.StartDate, e.StartTime,
					e.RoomNumber, e.ReservedSeats)
			}
		})
		return nil
	},
}

var eventsRegisterCmd = &cobra.Command{
	Use:   "register <event-id>",
	Short: "Reserve a seat at an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, svc, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := svc.RegisterForEvent(cmd.Context(), community.EventID(args[0])); err != nil {
			return err
		}
		fmt.Println("Seat reserved.")
		return nil
	},
}

var helpRoom string

var eventsHelpCmd = &cobra.Command{
	Use:   "help",
	Short: "Check whether a librarian is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, svc, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		librarian, found, err := svc.AskForHelp(cmd.Context(), helpRoom)
		if err != nil {
			return err
		}

		emit(librarian, func() {
			if !found {
				fmt.Println("No librarian on duty right now.")
				return
			}
			fmt.Printf("%s %s (%s) can help you in room %s.\n",
				librarian.FirstName, librarian.LastName,
				librarian.Position, librarian.RoomNumber)
		})
		return nil
	},
}

func init() {
	eventsHelpCmd.Flags().StringVar(&helpRoom, "room", "", "room to check (default: front desk)")
	eventsCmd.AddCommand(eventsSearchCmd)
	eventsCmd.AddCommand(eventsRegisterCmd)
	eventsCmd.AddCommand(eventsHelpCmd)
}
