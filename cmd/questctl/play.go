package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/database"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/migrations"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/progress"
)

const playHelp = `commands:
  scan <code>     scan a QR code
  answer <text>   answer the current task
  hint            reveal the hint
  puzzle          scan the assembled puzzle
  next            continue after navigation
  status          show the current state
  reset           start over
  quit`

func newPlayCmd() *cobra.Command {
	var season, dbPath, device string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a route in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := loadRoute(args[0], season)
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			var backend progress.Backend = progress.NewMemory()
			if dbPath != "" {
				db, err := database.Open(ctx, dbPath)
				if err != nil {
					return fmt.Errorf("opening %s: %w", dbPath, err)
				}
				defer db.Close()
				if err := migrations.Run(ctx, db, logger); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				backend = progress.NewSQLite(db)
			}

			eng := engine.New(progress.ForDevice(backend, device), logger, nil)
			ev, err := eng.Load(ctx, rt)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s\n%s\n\n", rt.Title, rt.Intro.Text)
			render(out, ev, nil)
			return play(ctx, eng, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "season to play (optional with a single season)")
	cmd.Flags().StringVar(&dbPath, "db", "data/play.db", `SQLite file for progress; "" keeps it in memory`)
	cmd.Flags().StringVar(&device, "device", "terminal", "device id to store progress under")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine transitions")
	return cmd
}

// play reads commands until quit or end of input.
func play(ctx context.Context, eng *engine.Engine, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !sc.Scan() {
			_, _ = fmt.Fprintln(out)
			return sc.Err()
		}
		verb, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		arg = strings.TrimSpace(arg)

		var (
			ev  engine.Event
			err error
		)
		switch strings.ToLower(verb) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help", "?":
			_, _ = fmt.Fprintln(out, playHelp)
			continue
		case "scan":
			ev, err = eng.Scan(ctx, arg)
		case "answer":
			ev, err = eng.Submit(ctx, arg)
		case "hint":
			ev, err = eng.RequestHint(ctx)
		case "puzzle":
			ev, err = eng.RequestPuzzleScan(ctx)
		case "next":
			ev, err = eng.AcknowledgeNavigation(ctx)
		case "status":
			ev = eng.Snapshot()
		case "reset":
			ev, err = eng.Reset(ctx)
		default:
			_, _ = fmt.Fprintf(out, "unknown command %q, type help\n", verb)
			continue
		}
		render(out, ev, err)
	}
}

func render(w io.Writer, ev engine.Event, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(w, "! %v\n", err)
	}
	if ev.Kind == "" {
		return
	}

	_, _ = fmt.Fprintf(w, "[%s] %d/%d done, %d hints\n", ev.State, ev.Progress.Completed, ev.Progress.Total, ev.HintsUsed)
	switch ev.State {
	case engine.Scanning:
		_, _ = fmt.Fprintf(w, "scan the code of checkpoint %s\n", ev.Expected)
	case engine.TaskActive, engine.AwaitingPuzzleScan:
		cp := ev.Checkpoint
		if cp == nil {
			break
		}
		_, _ = fmt.Fprintf(w, "checkpoint %s (%s): %s\n", cp.ID, cp.Type, cp.Question)
		for i, c := range cp.Choices {
			_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, c)
		}
		if cp.Tip != "" {
			_, _ = fmt.Fprintf(w, "tip: %s\n", cp.Tip)
		}
		if ev.AttemptsRemaining != nil {
			_, _ = fmt.Fprintf(w, "attempts left: %d\n", *ev.AttemptsRemaining)
		}
		if ev.Hint != "" {
			_, _ = fmt.Fprintf(w, "hint: %s\n", ev.Hint)
		}
		if ev.State == engine.AwaitingPuzzleScan {
			_, _ = fmt.Fprintln(w, "scan the assembled puzzle")
		}
	case engine.Navigating:
		if ev.Navigation != nil {
			_, _ = fmt.Fprintln(w, ev.Navigation.Text)
		}
		_, _ = fmt.Fprintln(w, "type next to continue")
	case engine.Finished:
		if o := ev.Outcome; o != nil {
			_, _ = fmt.Fprintf(w, "%s\n%s %s\n%s\n", o.FinishTitle, o.Icon, o.Title, o.Text)
		}
	}
}
