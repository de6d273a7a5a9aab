package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/veriloc/internal/model"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomUpdateCmd())
	cmd.AddCommand(newRoomDeleteCmd())
	cmd.AddCommand(newRoomBookCmd())
	cmd.AddCommand(newRoomOccupancyCmd())
	cmd.AddCommand(newRoomAnalyticsCmd())
	cmd.AddCommand(newRoomStatusCmd())

	return cmd
}

func roomPath(number string) string {
	return "/api/v1/rooms/" + url.PathEscape(number)
}

// parseBookings turns "Monday 9:00-10:00" flag values into request bookings
func parseBookings(raw []string) ([]Booking, error) {
	out := make([]Booking, 0, len(raw))
	for _, r := range raw {
		b, err := model.ParseBooking(r)
		if err != nil {
			return nil, err
		}
		out = append(out, Booking{Day: string(b.Day), Duration: b.Duration})
	}
	return out, nil
}

func newRoomListCmd() *cobra.Command {
	var status, number, day, duration string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("status", status)
			query.Set("number", number)
			query.Set("day", day)
			query.Set("duration", duration)

			var result []Room
			if err := client.Get(cmd.Context(), "/api/v1/rooms", query, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: vacant, occupied")
	cmd.Flags().StringVar(&number, "number", "", "Filter by room number substring")
	cmd.Flags().StringVar(&day, "day", "", "Only rooms booked on this day")
	cmd.Flags().StringVar(&duration, "duration", "", "Only rooms with this exact slot, e.g. 9:00-10:00")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <number>",
		Short: "Show a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Get(cmd.Context(), roomPath(args[0]), nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomCreateCmd() *cobra.Command {
	var status string
	var admins, bookings []string

	cmd := &cobra.Command{
		Use:   "create <number>",
		Short: "Create a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"room_number": args[0]}
			if status != "" {
				req["status"] = status
			}
			if len(admins) > 0 {
				req["authorized_admins"] = admins
			}
			if len(bookings) > 0 {
				schedule, err := parseBookings(bookings)
				if err != nil {
					return err
				}
				req["bookings"] = schedule
			}

			var result Room
			if err := client.Post(cmd.Context(), "/api/v1/rooms", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Initial status (default vacant)")
	cmd.Flags().StringSliceVar(&admins, "admins", nil, "Authorized admin IDs")
	cmd.Flags().StringArrayVar(&bookings, "booking", nil, `Weekly slot, e.g. "Monday 9:00-10:00" (repeatable)`)

	return cmd
}

func newRoomUpdateCmd() *cobra.Command {
	var status string
	var admins, bookings []string
	var clearBookings bool

	cmd := &cobra.Command{
		Use:   "update <number>",
		Short: "Change a room's status, authorized admins or schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("status") {
				req["status"] = status
			}
			if cmd.Flags().Changed("admins") {
				if admins == nil {
					admins = []string{}
				}
				req["authorized_admins"] = admins
			}
			if cmd.Flags().Changed("booking") || clearBookings {
				schedule, err := parseBookings(bookings)
				if err != nil {
					return err
				}
				req["bookings"] = schedule
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update: set --status, --admins, --booking or --clear-bookings")
			}

			var result Room
			if err := client.Patch(cmd.Context(), roomPath(args[0]), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status: vacant, occupied")
	cmd.Flags().StringSliceVar(&admins, "admins", nil, "Replace authorized admin IDs (empty clears)")
	cmd.Flags().StringArrayVar(&bookings, "booking", nil, `Replace the schedule with these slots, e.g. "Monday 9:00-10:00"`)
	cmd.Flags().BoolVar(&clearBookings, "clear-bookings", false, "Remove every booking")
	cmd.MarkFlagsMutuallyExclusive("booking", "clear-bookings")

	return cmd
}

func newRoomBookCmd() *cobra.Command {
	var day, duration string

	cmd := &cobra.Command{
		Use:   "book <number>",
		Short: "Add a weekly slot to a room's schedule",
		Long: `Add a weekly slot to a room's schedule.

The server rejects a slot that overlaps another booking of the same
room on the same day. An end time at or before the start is read as
the afternoon, so 12:30-1:30 ends at 13:30.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := model.NewBooking(day, duration)
			if err != nil {
				return err
			}

			var result Room
			req := Booking{Day: string(b.Day), Duration: b.Duration}
			if err := client.Post(cmd.Context(), roomPath(args[0])+"/bookings", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Day of the week (required)")
	cmd.Flags().StringVar(&duration, "duration", "", "Slot as H:MM-H:MM (required)")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newRoomDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), roomPath(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Deleted room %s", args[0]))
			return nil
		},
	}
}

func newRoomOccupancyCmd() *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "occupancy",
		Short: "Show occupancy totals and bookings per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("day", day)

			var result Occupancy
			if err := client.Get(cmd.Context(), "/api/v1/rooms/occupancy", query, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Only count rooms booked on this day")

	return cmd
}

func newRoomAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show bookings for every day of the week",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []DayOccupancy
			if err := client.Get(cmd.Context(), "/api/v1/rooms/analytics", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomStatusCmd() *cobra.Command {
	var fingerprint int

	cmd := &cobra.Command{
		Use:   "status <number> <vacant|occupied>",
		Short: "Report a status change as a room unit would",
		Long: `Send the same request a room unit sends after a fingerprint match.

The server checks that the fingerprint belongs to an admin authorized
for the room before applying the change.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"room_number":    args[0],
				"status":         args[1],
				"fingerprint_id": fingerprint,
			}

			var result StatusUpdate
			if err := client.Post(cmd.Context(), "/api/v1/rooms/update", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&fingerprint, "fingerprint", 0, "Matched fingerprint ID (required)")
	_ = cmd.MarkFlagRequired("fingerprint")

	return cmd
}

func newActivityCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", fmt.Sprint(limit))
			}

			var result []Activity
			if err := client.Get(cmd.Context(), "/api/v1/activity", query, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries (server default when unset)")

	return cmd
}
