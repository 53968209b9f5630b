// Package cmd implements the bizcal command tree.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/config"
	"github.com/zapponejosh/bizcal/internal/database"
	"github.com/zapponejosh/bizcal/internal/holidayfile"
	"github.com/zapponejosh/bizcal/internal/logger"
)

// options holds the persistent flags and what setup builds from them.
type options struct {
	calendar string
	dbPath   string
	holidays string
	verbose  bool

	log      *slog.Logger
	db       *database.DB
	registry *calendar.Registry
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "bizcal",
		Short: "Business-day calendar arithmetic",
		Long: `bizcal rolls and advances dates over business-day calendars.

Calendars are the built-ins (TARGET, London, Frankfurt, Zurich, NewYork,
WeekendsOnly, Null), YAML or TOML holiday files from --holidays, custom calendars
stored in --db, and joins such as TARGET+London.

Defaults for --calendar, --db and --holidays come from DEFAULT_CALENDAR,
DATABASE_PATH and HOLIDAYS_DIR.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.calendar, "calendar", "", "Calendar name or join (default: DEFAULT_CALENDAR)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite file with stored calendars (default: DATABASE_PATH)")
	flags.StringVar(&opts.holidays, "holidays", "", "Directory of YAML or TOML holiday files (default: HOLIDAYS_DIR)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newDayCmd(opts),
		newRollCmd(opts),
		newAdvanceCmd(opts),
		newScheduleCmd(opts),
		newHolidaysCmd(opts),
		newEasterCmd(opts),
		newCalendarsCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)

	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup fills unset flags from the environment, opens the store if it
// exists and builds the calendar registry.
func (o *options) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("calendar") {
		o.calendar = cfg.DefaultCalendar
	}
	if !flags.Changed("db") {
		o.dbPath = cfg.DatabasePath
	}
	if !flags.Changed("holidays") {
		o.holidays = cfg.HolidaysDir
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	o.log = logger.New(cmd.ErrOrStderr(), level, "text")

	ctx := cmd.Context()

	// A missing database just means no stored calendars.
	var store calendar.Queryable
	if _, err := os.Stat(o.dbPath); err == nil {
		o.db, err = database.Open(database.DefaultConfig(o.dbPath), o.log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if _, err := o.db.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		store = o.db
	} else {
		o.log.Debug("no calendar database", slog.String("path", o.dbPath))
	}
	o.registry = calendar.NewRegistry(store)

	if o.holidays != "" {
		files, err := holidayfile.LoadDir(o.holidays)
		if err != nil {
			return err
		}
		if err := holidayfile.RegisterAll(ctx, o.registry, files); err != nil {
			return err
		}
		o.log.Debug("holiday files loaded", slog.Int("calendars", len(files)))
	}

	return o.registry.SetDefault(ctx, o.calendar)
}

func (o *options) close() {
	if o.db != nil {
		o.db.Close()
		o.db = nil
	}
}

// lookup resolves the --calendar flag.
func (o *options) lookup(ctx context.Context) (calendar.Calendar, error) {
	return o.registry.Lookup(ctx, o.calendar)
}

// conventionFlag registers --convention/-c on cmd.
func conventionFlag(cmd *cobra.Command, target *string, def calendar.RollingConvention) {
	cmd.Flags().StringVarP(target, "convention", "c", def.String(),
		"Rolling convention: Unadjusted, Following, ModifiedFollowing, Preceding, ModifiedPreceding, MonthEndReference")
}
