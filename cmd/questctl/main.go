// Command questctl checks route documents, prints their code sheets and plays
// a route in the terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/codesheet"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "questctl",
		Short:         "Tools for QR scavenger hunt routes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd())
	root.AddCommand(newCodesCmd())
	root.AddCommand(newPlayCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a route document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := route.LoadFile(args[0])
			var malformed *route.MalformedRouteError
			if errors.As(err, &malformed) {
				for _, p := range malformed.Problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "  "+p)
				}
				return fmt.Errorf("%s: %d problems", args[0], len(malformed.Problems))
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s: ok\n", args[0])
			for _, id := range def.SeasonIDs() {
				rt := def.Seasons[id].Route
				_, _ = fmt.Fprintf(out, "  season %s: %d checkpoints, path %s, finish code %s\n",
					id, rt.Len(), strings.Join(rt.Path(), " > "), rt.Finish.Code)
				if u := rt.Unreachable(); len(u) > 0 {
					_, _ = fmt.Fprintf(out, "    unreachable: %s\n", strings.Join(u, ", "))
				}
			}
			return nil
		},
	}
}

func newCodesCmd() *cobra.Command {
	var season, xlsx string

	cmd := &cobra.Command{
		Use:   "codes <file>",
		Short: "List every QR code a route needs printed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRoute(args[0], season)
			if err != nil {
				return err
			}

			if xlsx != "" {
				f, err := os.Create(xlsx)
				if err != nil {
					return err
				}
				if err := codesheet.Write(f, rt); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", xlsx)
				return nil
			}

			for i, c := range codesheet.Codes(rt) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%2d  %-10s  %-16s  %s\n", i+1, c.Kind, c.Value, c.Label)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "season to use (optional with a single season)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write the code sheet to this spreadsheet instead")
	return cmd
}

func loadRoute(path, season string) (*route.Route, error) {
	def, err := route.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return def.Active(season)
}
