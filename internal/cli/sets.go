package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/catalog"
)

// setsCommand creates the sets command.
func (c *CLI) setsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Browse the Scryfall set catalog",
	}
	cmd.AddCommand(c.setsListCommand())
	return cmd
}

func (c *CLI) setsListCommand() *cobra.Command {
	var (
		all     bool
		refresh bool
		asJSON  bool
		types   []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sets that can be labeled",
		Long: `List the sets that can be labeled, newest first.

By default digital-only sets, small sets and a few promotional products are
hidden. Use --all to list everything Scryfall knows about.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.newServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if refresh {
				svc.fetcher().Invalidate()
			}
			res, err := svc.fetcher().Sets(ctx)
			if err != nil {
				return err
			}
			sets := filterSets(res.Value, all, types)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sets)
			}

			rows := make([][]string, len(sets))
			for i, s := range sets {
				rows[i] = []string{strings.ToUpper(s.Code), s.Name, catalog.TypeTitle(s.SetType), strconv.Itoa(s.CardCount), s.ReleasedAt}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Code", "Name", "Type", "Cards", "Released"}, rows))
			printStats(res.Status, fmt.Sprintf("%d of %d sets", len(sets), len(res.Value)))
			if res.Status == catalog.Stale {
				printWarning("Scryfall is unreachable; showing data cached at %s", res.CachedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every set, including digital and promotional ones")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch the catalog instead of using the cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sets as JSON")
	cmd.Flags().StringSliceVar(&types, "type", nil, "only list these set types (e.g. expansion,core)")
	cmd.RegisterFlagCompletionFunc("type", cobra.FixedCompletions(catalog.DefaultSetTypes, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// filterSets applies the default filter unless all is set, restricts to
// types when given, and orders the result newest first.
func filterSets(sets []catalog.Set, all bool, types []string) []catalog.Set {
	opts := catalog.DefaultFilter()
	if all {
		opts = catalog.FilterOptions{IncludeDigital: true}
	}
	if len(types) > 0 {
		opts.SetTypes = types
	}
	out := catalog.Filter(sets, opts)
	slices.SortStableFunc(out, func(a, b catalog.Set) int {
		return strings.Compare(b.ReleasedAt, a.ReleasedAt)
	})
	return out
}

// loadSets fetches the catalog for the picker.
func (c *CLI) loadSets(ctx context.Context, all bool) ([]catalog.Set, error) {
	svc, err := c.newServices(ctx)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	spinner := newSpinner(ctx, "Loading sets...")
	spinner.Start()
	res, err := svc.fetcher().Sets(ctx)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	if res.Status == catalog.Stale {
		printWarning("Scryfall is unreachable; using data cached at %s", res.CachedAt.Format("2006-01-02 15:04"))
	}
	return filterSets(res.Value, all, nil), nil
}
