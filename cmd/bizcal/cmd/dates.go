package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/bizcal/internal/calendar"
)

func newDayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "day DATE",
		Short: "Show whether a date is a business day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.lookup(cmd.Context())
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}

			status := "business day"
			if cal.IsHoliday(d) {
				status = "holiday"
			}
			if calendar.IsLastBusinessDayOfMonth(cal, d) {
				status += ", last of month"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%s)\n", d, d.Weekday(), status, cal.Name())
			return nil
		},
	}
}

func newRollCmd(opts *options) *cobra.Command {
	var convention, origin string

	cmd := &cobra.Command{
		Use:   "roll DATE",
		Short: "Adjust a date onto a business day",
		Example: `  bizcal roll 2024-12-25 --calendar London
  bizcal roll 2024-02-28 -c MonthEndReference --origin 2024-01-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.lookup(cmd.Context())
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			c, err := calendar.ParseRollingConvention(convention)
			if err != nil {
				return err
			}
			o := calendar.NullDate
			if origin != "" {
				if o, err = calendar.ParseDate(origin); err != nil {
					return fmt.Errorf("origin: %w", err)
				}
			}

			result, err := calendar.Roll(cal, d, c, o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	conventionFlag(cmd, &convention, calendar.Following)
	cmd.Flags().StringVar(&origin, "origin", "", "Reference date for MonthEndReference")
	return cmd
}

func newAdvanceCmd(opts *options) *cobra.Command {
	var convention string

	cmd := &cobra.Command{
		Use:   "advance DATE PERIOD",
		Short: "Move a date by a period and adjust it",
		Long: `Move DATE by PERIOD (such as 3M, -2W, 10D or 1Y) and adjust the result.

A D period counts business days; the convention only matters when the
count is zero. Other units move on the calendar and then roll.`,
		Example: `  bizcal advance 2024-12-24 1D
  bizcal advance 2024-01-31 1M -c ModifiedFollowing`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.lookup(cmd.Context())
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			p, err := calendar.ParsePeriod(args[1])
			if err != nil {
				return err
			}
			c, err := calendar.ParseRollingConvention(convention)
			if err != nil {
				return err
			}

			result, err := calendar.AdvancePeriod(cal, d, p, c)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			opts.log.Debug("advanced",
				"business_days", calendar.BusinessDaysBetween(cal, d, result))
			return nil
		},
	}

	conventionFlag(cmd, &convention, calendar.Following)
	return cmd
}

func newScheduleCmd(opts *options) *cobra.Command {
	var convention string

	cmd := &cobra.Command{
		Use:     "schedule START END PERIOD",
		Short:   "List adjusted dates from START to END every PERIOD",
		Example: `  bizcal schedule 2024-01-31 2024-12-31 1M -c MonthEndReference`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.lookup(cmd.Context())
			if err != nil {
				return err
			}
			start, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := calendar.ParseDate(args[1])
			if err != nil {
				return err
			}
			p, err := calendar.ParsePeriod(args[2])
			if err != nil {
				return err
			}
			c, err := calendar.ParseRollingConvention(convention)
			if err != nil {
				return err
			}

			dates, err := calendar.Schedule(cal, start, end, p, c)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range dates {
				fmt.Fprintln(out, d)
			}
			return nil
		},
	}

	conventionFlag(cmd, &convention, calendar.ModifiedFollowing)
	return cmd
}

func newHolidaysCmd(opts *options) *cobra.Command {
	var weekends bool

	cmd := &cobra.Command{
		Use:   "holidays FROM TO",
		Short: "List the holidays between two dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.lookup(cmd.Context())
			if err != nil {
				return err
			}
			from, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			to, err := calendar.ParseDate(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range calendar.HolidayList(cal, from, to, weekends) {
				line := fmt.Sprintf("%s %s", d, d.Weekday())
				if custom, ok := cal.(*calendar.Custom); ok {
					if name := custom.HolidayName(d); name != "" {
						line += " " + name
					}
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&weekends, "weekends", false, "Include weekend days")
	return cmd
}

func newEasterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "easter YEAR",
		Short: "Show Easter Sunday and Easter Monday for a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var year int
			if _, err := fmt.Sscanf(args[0], "%d", &year); err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			sunday, err := calendar.EasterSunday(year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Easter Sunday: %s\n", sunday)
			fmt.Fprintf(out, "Easter Monday: %s\n", sunday.Next())
			if doy, err := calendar.EasterMonday(year); err == nil {
				fmt.Fprintf(out, "Day of year:   %d\n", doy)
			}
			return nil
		},
	}
}
