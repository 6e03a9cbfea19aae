package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dm-vev/netcore/core"
	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *options) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "inspect <player>",
		Short: "Prints the stored profile of a player",
		Long: `inspect reads the profile of a player from the configured store, by name
or UUID, and prints it with the most recent transactions. The server does not
need to be running.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := core.LoadConfig(opts.networkConfig)
			if err != nil {
				return fmt.Errorf("load network config: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			st, err := core.OpenStore(ctx, conf)
			if err != nil {
				return err
			}
			defer st.Close()
			return inspect(ctx, cmd.OutOrStdout(), st, args[0], limit)
		},
		SilenceUsage: true,
	}
	c.Flags().IntVarP(&limit, "transactions", "n", 10, "Number of transactions to print")
	return c
}

func inspect(ctx context.Context, w io.Writer, st store.Store, player string, limit int) error {
	var (
		p   store.Profile
		err error
	)
	if id, perr := uuid.Parse(player); perr == nil {
		p, err = st.Profile(ctx, id)
	} else {
		p, err = st.ProfileByName(ctx, player)
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s has never joined the network", player)
	}
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	txs, err := st.Transactions(ctx, p.UUID, limit)
	if err != nil {
		return fmt.Errorf("read transactions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "UUID:\t%s\n", p.UUID)
	fmt.Fprintf(tw, "Rank:\t%s\n", rank.FromString(p.Rank).DisplayName)
	fmt.Fprintf(tw, "Tags:\t%s\n", joinOr(tagNames(p.Tags), "none"))
	fmt.Fprintf(tw, "Honor:\t%d\n", p.Honor)
	for _, c := range currency.All() {
		fmt.Fprintf(tw, "%s:\t%d\n", c.DisplayName(), p.Currencies[string(c)])
	}
	fmt.Fprintf(tw, "Achievements:\t%s\n", joinOr(achievementNames(p.Achievements), "none"))
	fmt.Fprintf(tw, "Client:\t%s (%s)\n", p.ClientVersion, p.Locale)
	fmt.Fprintf(tw, "First join:\t%s\n", formatTime(p.FirstJoin))
	fmt.Fprintf(tw, "Last join:\t%s\n", formatTime(p.LastJoin))
	if len(txs) > 0 {
		fmt.Fprintln(tw, "\nTIME\tLEDGER\tDELTA\tBALANCE\tREASON")
		for _, tx := range txs {
			fmt.Fprintf(tw, "%s\t%s\t%+d\t%d\t%s\n", formatTime(tx.Time), tx.Ledger, tx.Delta, tx.Balance, tx.Reason)
		}
	}
	return tw.Flush()
}

func tagNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, t := range rank.TagsByID(ids) {
		names = append(names, t.Name)
	}
	return names
}

func achievementNames(ids []int) []string {
	registry, _ := achievement.NewRegistry(achievement.Defaults()...)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if d, ok := registry.Lookup(id); ok {
			names = append(names, d.Name)
			continue
		}
		names = append(names, fmt.Sprintf("#%d", id))
	}
	return names
}

func joinOr(s []string, empty string) string {
	if len(s) == 0 {
		return empty
	}
	return strings.Join(s, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.DateTime)
}
