package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/inkbook/studio/internal/adapters/eventstore"
	"github.com/inkbook/studio/internal/adapters/natural"
	"github.com/inkbook/studio/internal/adapters/notify"
	"github.com/inkbook/studio/internal/adapters/render"
	"github.com/inkbook/studio/internal/application/agenda"
	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/config"
	"github.com/inkbook/studio/internal/infrastructure/logger"
	"github.com/inkbook/studio/internal/infrastructure/metrics"
	"github.com/inkbook/studio/internal/ports"
)

// agendaFlags override the agenda section of the configuration.
type agendaFlags struct {
	store    string
	token    string
	user     string
	timezone string
	stats    bool
}

// agendaEnv is everything an agenda subcommand needs.
type agendaEnv struct {
	cfg      *config.Config
	logger   *logger.Logger
	loc      *time.Location
	client   *eventstore.Client
	ctrl     *agenda.Controller
	registry *prometheus.Registry
	stats    bool
	out      io.Writer
}

// NewAgendaCommand creates the agenda command with subcommands
func NewAgendaCommand() *cobra.Command {
	flags := &agendaFlags{}

	agendaCmd := &cobra.Command{
		Use:   "agenda",
		Short: "Work with the weekly agenda",
		Long:  "View and change the weekly agenda through the Event Store API.",
	}

	pf := agendaCmd.PersistentFlags()
	pf.StringVar(&flags.store, "store", "", "Event Store base URL (default from agenda.store_url)")
	pf.StringVar(&flags.token, "token", "", "Bearer token (default from agenda.token)")
	pf.StringVar(&flags.user, "user", "", "User ID (default from agenda.user_id)")
	pf.StringVar(&flags.timezone, "tz", "", "Timezone for dates and times (default from agenda.timezone)")
	pf.BoolVar(&flags.stats, "stats", false, "Print operation counters when done")

	agendaCmd.AddCommand(
		newAgendaWeekCommand(flags),
		newAgendaAddCommand(flags),
		newAgendaMoveCommand(flags),
		newAgendaEditCommand(flags),
		newAgendaDeleteCommand(flags),
		newAgendaExportCommand(flags),
	)

	return agendaCmd
}

func (f *agendaFlags) open(cmd *cobra.Command, now func(loc *time.Location) time.Time) (*agendaEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if f.store != "" {
		cfg.Agenda.StoreURL = f.store
	}
	if f.token != "" {
		cfg.Agenda.Token = f.token
	}
	if f.user != "" {
		cfg.Agenda.UserID = f.user
	}
	if f.timezone != "" {
		cfg.Agenda.Timezone = f.timezone
	}

	loc, err := cfg.Agenda.Location()
	if err != nil {
		return nil, err
	}

	// stdout belongs to the agenda output
	logCfg := cfg.Logger
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	appLogger, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := eventstore.NewClient(cfg.Agenda.StoreURL, cfg.Agenda.Token, cfg.Agenda.Timeout, eventstore.WithLogger(appLogger))
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	registry := prometheus.NewRegistry()
	notifier := notify.Fanout{
		notify.NewWriter(out),
		notify.NewLog(cfg.Agenda.UserID, appLogger),
	}

	clock := func() time.Time { return time.Now().In(loc) }
	if now != nil {
		clock = func() time.Time { return now(loc) }
	}

	ctrl, err := agenda.New(
		agenda.Session{UserID: cfg.Agenda.UserID, Token: cfg.Agenda.Token},
		client,
		notifier,
		appLogger,
		agenda.WithClock(clock),
		agenda.WithMetrics(metrics.NewAgendaMetrics(registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w (set --user or AGENDA_USER_ID)", err)
	}

	return &agendaEnv{
		cfg:      cfg,
		logger:   appLogger,
		loc:      loc,
		client:   client,
		ctrl:     ctrl,
		registry: registry,
		stats:    f.stats,
		out:      out,
	}, nil
}

// load fetches the agenda; the notifier has already reported a failure.
func (env *agendaEnv) load(cmd *cobra.Command) error {
	return env.ctrl.Load(cmd.Context())
}

func (env *agendaEnv) close() {
	if env.stats {
		env.printStats()
	}
	_ = env.logger.Close()
}

func (env *agendaEnv) printStats() {
	families, err := env.registry.Gather()
	if err != nil {
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%-28s %4.0f", strings.Join(labels, "/"), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(env.out, l)
	}
}

func newAgendaWeekCommand(flags *agendaFlags) *cobra.Command {
	var (
		date      string
		plain     bool
		cellWidth int
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the weekly grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			var now func(*time.Location) time.Time
			if date != "" {
				day, err := time.Parse(entities.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				now = func(loc *time.Location) time.Time {
					return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
				}
			}

			env, err := flags.open(cmd, now)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.load(cmd); err != nil {
				return err
			}

			opts := []render.Option{render.WithCellWidth(cellWidth), render.WithToday(time.Now().In(env.loc))}
			if plain {
				opts = append(opts, render.Plain())
			}
			fmt.Fprintln(env.out, render.New(env.out, opts...).Week(env.ctrl.Grid()))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the week to show (yyyy-mm-dd, default today)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable colours")
	cmd.Flags().IntVar(&cellWidth, "width", 18, "Width of one day column")

	return cmd
}

// slotFlags selects a slot either explicitly or with a natural phrase.
type slotFlags struct {
	date string
	time string
	when string
}

func (s *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.date, "date", "", "Date (yyyy-mm-dd)")
	cmd.Flags().StringVar(&s.time, "time", "", "Time on the half-hour grid (HH:MM)")
	cmd.Flags().StringVar(&s.when, "when", "", `Natural date and time, e.g. "friday at 10:30"`)
}

func (s *slotFlags) isSet() bool {
	return s.when != "" || s.date != "" || s.time != ""
}

func (s *slotFlags) resolve(now time.Time) (entities.Slot, error) {
	if s.when != "" {
		if s.date != "" || s.time != "" {
			return entities.Slot{}, errors.New("use either --when or --date/--time")
		}
		return natural.New().Slot(s.when, now)
	}
	return entities.Slot{Date: s.date, Time: s.time}, nil
}

func newAgendaAddCommand(flags *agendaFlags) *cobra.Command {
	var (
		slot        slotFlags
		title       string
		description string
		color       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Book an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.open(cmd, nil)
			if err != nil {
				return err
			}
			defer env.close()

			at, err := slot.resolve(time.Now().In(env.loc))
			if err != nil {
				return err
			}

			if err := env.ctrl.OpenCreate(); err != nil {
				return err
			}
			_, err = env.ctrl.Create(cmd.Context(), ports.CreateEventRequest{
				Title:       title,
				Description: description,
				Date:        at.Date,
				Time:        at.Time,
				Color:       color,
			})
			return err
		},
	}

	slot.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&color, "color", "", "Palette colour (derived from the title when empty)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newAgendaMoveCommand(flags *agendaFlags) *cobra.Command {
	var slot slotFlags

	cmd := &cobra.Command{
		Use:   "move <event-id> [slot-key]",
		Short: "Move an appointment to another slot",
		Long:  "Move an appointment to the slot named by a key such as slot-2025-01-07-10:00, or by --date/--time or --when.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.open(cmd, nil)
			if err != nil {
				return err
			}
			defer env.close()

			var key string
			switch {
			case len(args) == 2:
				key = args[1]
			case slot.isSet():
				at, err := slot.resolve(time.Now().In(env.loc))
				if err != nil {
					return err
				}
				key = at.Key()
			default:
				return errors.New("a slot key, --date/--time or --when is required")
			}

			if err := env.load(cmd); err != nil {
				return err
			}
			if err := env.ctrl.BeginDrag(args[0]); err != nil {
				return err
			}

			res, err := env.ctrl.Drop(cmd.Context(), key)
			switch res {
			case agenda.DropIgnored:
				fmt.Fprintf(env.out, "Nothing moved: %q is not a slot on the agenda\n", key)
			case agenda.DropUnchanged:
				fmt.Fprintln(env.out, "Appointment is already in that slot")
			}
			return err
		},
	}

	slot.register(cmd)
	return cmd
}

func newAgendaEditCommand(flags *agendaFlags) *cobra.Command {
	var (
		slot        slotFlags
		title       string
		description string
		color       string
	)

	cmd := &cobra.Command{
		Use:   "edit <event-id>",
		Short: "Change an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.open(cmd, nil)
			if err != nil {
				return err
			}
			defer env.close()

			var req ports.EditEventRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("color") {
				req.Color = &color
			}
			if slot.when != "" {
				at, err := slot.resolve(time.Now().In(env.loc))
				if err != nil {
					return err
				}
				req.Date, req.Time = &at.Date, &at.Time
			} else {
				if slot.date != "" {
					req.Date = &slot.date
				}
				if slot.time != "" {
					req.Time = &slot.time
				}
			}

			if err := env.load(cmd); err != nil {
				return err
			}
			if err := env.ctrl.OpenEdit(args[0]); err != nil {
				return err
			}
			_, err = env.ctrl.Edit(cmd.Context(), args[0], req)
			return err
		},
	}

	slot.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&color, "color", "", "New palette colour")

	return cmd
}

func newAgendaDeleteCommand(flags *agendaFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.open(cmd, nil)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.load(cmd); err != nil {
				return err
			}
			id := args[0]
			if err := env.ctrl.RequestDelete(id); err != nil {
				return err
			}

			if !yes {
				e, _ := env.ctrl.Event(id)
				fmt.Fprintf(env.out, "Delete %q on %s at %s? [y/N] ", e.Title, e.Date, e.Time)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					env.ctrl.Cancel()
					fmt.Fprintln(env.out, "Cancelled")
					return nil
				}
			}

			return env.ctrl.ConfirmDelete(cmd.Context(), id)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newAgendaExportCommand(flags *agendaFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the agenda as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.open(cmd, nil)
			if err != nil {
				return err
			}
			defer env.close()

			w := env.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			return env.client.ExportICS(cmd.Context(), env.cfg.Agenda.UserID, w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "File to write (- for stdout)")
	return cmd
}
