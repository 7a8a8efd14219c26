package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/calendar"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "View calendar events",
	Long: `List events from the authenticated Google Calendar.

Examples:
  gsuite calendar today
  gsuite calendar upcoming --days 14
  gsuite calendar list --q standup`,
}

var calendarTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List today's events",
	RunE:  runCalendarToday,
}

var calendarUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List events in the coming days",
	RunE:  runCalendarUpcoming,
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events with filters",
	RunE:  runCalendarList,
}

var (
	calendarUpcomingDays int
	calendarListQuery    string
	calendarListMax      int64
	calendarListCalendar string
)

func init() {
	calendarUpcomingCmd.Flags().IntVar(&calendarUpcomingDays, "days", 7, "Days ahead to list")

	calendarListCmd.Flags().StringVar(&calendarListQuery, "q", "", "Free-text event filter")
	calendarListCmd.Flags().Int64Var(&calendarListMax, "max", 25, "Maximum number of events")
	calendarListCmd.Flags().StringVar(&calendarListCalendar, "calendar", "", "Calendar ID (default: primary)")

	calendarCmd.AddCommand(calendarTodayCmd)
	calendarCmd.AddCommand(calendarUpcomingCmd)
	calendarCmd.AddCommand(calendarListCmd)
	rootCmd.AddCommand(calendarCmd)
}

func calendarClient(ctx context.Context) (*calendar.Client, error) {
	if err := requireDeps(); err != nil {
		return nil, err
	}
	return calendar.NewClient(ctx, deps.Manager,
		calendar.WithTimezone(deps.Settings.DefaultTimezone),
		calendar.WithRetryPolicy(deps.Settings.RetryPolicy()),
		calendar.WithRequestTimeout(deps.Settings.RequestTimeoutDuration()))
}

func printEvents(cmd *cobra.Command, events []*calendar.Event) {
	if len(events) == 0 {
		cmd.Println("No events.")
		return
	}
	for _, e := range events {
		when := e.Start.Format("Mon Jan 02 15:04")
		if e.AllDay {
			when = e.Start.Format("Mon Jan 02") + " (all day)"
		}
		cmd.Printf("%-24s  %s\n", when, e.Summary)
		if e.Location != "" {
			cmd.Printf("%-24s  @ %s\n", "", e.Location)
		}
	}
}

func runCalendarToday(cmd *cobra.Command, _ []string) error {
	client, err := calendarClient(cmd.Context())
	if err != nil {
		return err
	}

	events, err := client.Today(cmd.Context())
	if err != nil {
		return err
	}
	printEvents(cmd, events)
	return nil
}

func runCalendarUpcoming(cmd *cobra.Command, _ []string) error {
	client, err := calendarClient(cmd.Context())
	if err != nil {
		return err
	}

	events, err := client.Upcoming(cmd.Context(), calendarUpcomingDays, 0)
	if err != nil {
		return err
	}
	printEvents(cmd, events)
	return nil
}

func runCalendarList(cmd *cobra.Command, _ []string) error {
	client, err := calendarClient(cmd.Context())
	if err != nil {
		return err
	}

	events, err := client.ListEvents(cmd.Context(), calendar.ListOptions{
		TimeMin:    time.Now(),
		CalendarID: calendarListCalendar,
		Query:      calendarListQuery,
		MaxResults: calendarListMax,
	})
	if err != nil {
		return err
	}
	printEvents(cmd, events)
	return nil
}
