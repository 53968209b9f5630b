package cmd

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/database"
	"github.com/zapponejosh/bizcal/internal/holidayfile"
)

// Build information, set with -ldflags at release time.
var (
	Version   = "0.1.0"
	GitCommit = "development"
	BuildDate = "unknown"
)

func newCalendarsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars that can be named with --calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := opts.registry.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSOURCE\tBASE")
			for _, info := range infos {
				base := info.Base
				if base == "" {
					base = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Source, base)
			}
			return w.Flush()
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export NAME [FILE]",
		Short: "Write a stored calendar as a holiday file",
		Long: `Write a stored custom calendar as a YAML or TOML holiday file.

The file can be loaded with --holidays or stored elsewhere with the import
tool. A FILE ending in .toml is written as TOML. Without FILE the calendar
is written to stdout in --format.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.db == nil {
				return fmt.Errorf("no calendar database at %s", opts.dbPath)
			}

			stored, err := opts.db.GetCalendarWithHolidays(cmd.Context(), args[0])
			if err != nil {
				if database.IsNotFound(err) {
					return fmt.Errorf("%w: %s is not a stored calendar", calendar.ErrUnknownCalendar, args[0])
				}
				return err
			}
			f := holidayfile.FromRecord(stored)

			if len(args) == 2 {
				if err := holidayfile.Save(args[1], f); err != nil {
					return err
				}
				opts.log.Info("calendar exported", "calendar", f.Name, "file", args[1])
				return nil
			}

			data, err := holidayfile.Encode(f, holidayfile.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", string(holidayfile.FormatYAML), "Output format without FILE (yaml or toml)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Needs no calendars or database.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bizcal v%s\n", Version)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
