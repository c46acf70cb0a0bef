package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/slotwise/marketplace/internal/availability"
	"github.com/slotwise/marketplace/internal/booking"
	"github.com/slotwise/marketplace/internal/marketplace"
)

// session resolves config and the token-carrying context for one command run.
func session(cmd *cobra.Command, v *viper.Viper) (*app, context.Context) {
	a := newApp(loadCLIConfig(v))
	return a, marketplace.WithToken(cmd.Context(), a.cfg.Token)
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func providersCmd(v *viper.Viper) *cobra.Command {
	var filter marketplace.ProviderFilter
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers and their services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx := session(cmd, v)
			providers, err := a.adapter.ListProviders(ctx, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.cfg.JSON {
				return printJSON(out, providers)
			}
			if len(providers) == 0 {
				fmt.Fprintln(out, "No providers found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tSERVICE\tNAME\tCATEGORY\tRATING")
			for _, p := range providers {
				fmt.Fprintf(tw, "%s\t\t%s\t%s\t%.1f\n", p.ID, p.Name, p.Category, p.Rating)
				for _, s := range p.Services {
					fmt.Fprintf(tw, "\t%s\t%s\t%s\t\n", s.ID, s.Name, s.Category)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.Category, "category", "", "only providers in this category")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "search text")
	return cmd
}

func scheduleCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule SERVICE",
		Short: "Show the weekly opening hours of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx := session(cmd, v)
			schedule, err := a.adapter.GetServiceSchedule(ctx, args[0])
			if err != nil {
				return err
			}
			rows := availability.Summaries(schedule)
			out := cmd.OutOrStdout()
			if a.cfg.JSON {
				return printJSON(out, rows)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%s\n", row.Label, row.Hours)
			}
			return tw.Flush()
		},
	}
}

func calendarCmd(v *viper.Viper) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "calendar SERVICE",
		Short: "Print the month grid of bookable dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx := session(cmd, v)
			flow, err := a.service.Open(ctx, args[0])
			if err != nil {
				return err
			}
			cells, err := a.service.Calendar(flow, month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.cfg.JSON {
				return printJSON(out, struct {
					Window booking.Window `json:"window"`
					Cells  []booking.Cell `json:"cells"`
				}{flow.Window(), cells})
			}
			renderMonth(out, flow.Window(), cells)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show as YYYY-MM (default: first bookable month)")
	return cmd
}

// renderMonth prints a Monday-first grid. Selectable days are marked with *.
func renderMonth(w io.Writer, window booking.Window, cells []booking.Cell) {
	fmt.Fprintf(w, "Bookable %s to %s\n", window.MinDate, window.MaxDate)
	fmt.Fprintln(w, " Mo  Tu  We  Th  Fr  Sa  Su")
	for i, c := range cells {
		switch {
		case !c.InMonth:
			fmt.Fprint(w, "    ")
		case c.Selectable:
			fmt.Fprintf(w, "%3d*", c.Day)
		default:
			fmt.Fprintf(w, "%3d ", c.Day)
		}
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
}

func slotsCmd(v *viper.Viper) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "slots SERVICE",
		Short: "List time slots for one date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx := session(cmd, v)
			flow, err := a.service.Open(ctx, args[0])
			if err != nil {
				return err
			}
			state, err := a.service.SelectDate(ctx, flow, date)
			if err != nil {
				return reportError(err)
			}
			out := cmd.OutOrStdout()
			if a.cfg.JSON {
				return printJSON(out, state)
			}
			return renderSlots(out, state)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func renderSlots(w io.Writer, state booking.FlowState) error {
	if state.SlotStatus == booking.SlotsDegraded {
		fmt.Fprintln(w, "Time slots could not be loaded. Please try again.")
		return nil
	}
	if len(state.Slots) == 0 {
		fmt.Fprintf(w, "No time slots on %s.\n", state.SelectedDate)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range state.Slots {
		status := "available"
		if !s.Available {
			status = "taken"
		}
		fmt.Fprintf(tw, "%s\t%s\n", s.Time, status)
	}
	return tw.Flush()
}

func bookCmd(v *viper.Viper) *cobra.Command {
	var date, slot, notes string
	cmd := &cobra.Command{
		Use:   "book SERVICE",
		Short: "Book an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx := session(cmd, v)
			result, err := runBooking(ctx, a.service, args[0], date, slot, notes)
			if err != nil {
				return reportError(err)
			}
			out := cmd.OutOrStdout()
			if a.cfg.JSON {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "Booked %s at %s.\n", date, strings.TrimSpace(slot))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVar(&slot, "time", "", "time slot as listed by the slots command")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the provider")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

// runBooking walks a flow the way the web client does: open, pick the date,
// load its slots, continue, pick the slot, submit.
func runBooking(ctx context.Context, svc *booking.Service, serviceID, date, slot, notes string) (*booking.AppointmentResult, error) {
	flow, err := svc.Open(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	state, err := svc.SelectDate(ctx, flow, date)
	if err != nil {
		return nil, err
	}
	if state.SlotStatus == booking.SlotsDegraded {
		return nil, errors.New("time slots could not be loaded, please try again")
	}
	if err := flow.Continue(); err != nil {
		return nil, err
	}
	if err := flow.SelectSlot(slot); err != nil {
		return nil, err
	}
	return svc.Submit(ctx, flow, notes)
}
