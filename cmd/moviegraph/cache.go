package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviegraph/internal/moviecache"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := NewClient(serverURL).Stats()
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		if jsonOutput {
			printJSON(st)
			return nil
		}
		printStats(stdout, st)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [namespace]",
	Short: "Clear a cache namespace, or everything",
	Long: `Clear one cache namespace (origin, enriched, ai, store) or, without
an argument, every tier including the persistent store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns := ""
		if len(args) > 0 {
			ns = args[0]
		}
		if err := NewClient(serverURL).Clear(ns); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		if ns == "" {
			ns = "all caches"
		}
		fmt.Fprintf(stdout, "Cleared %s\n", ns)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete movies not accessed recently (favorites are kept)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxAge, _ := cmd.Flags().GetDuration("max-age")
		resp, err := NewClient(serverURL).Cleanup(maxAge)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		fmt.Fprintf(stdout, "Deleted %d movies not accessed within %s\n", resp.Deleted, resp.MaxAge)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, clearCmd, cleanupCmd)
	cleanupCmd.Flags().Duration("max-age", 0, "Maximum age since last access (server default if zero)")
}

func printStats(w io.Writer, st *moviecache.Stats) {
	fmt.Fprintln(w, "Store")
	fmt.Fprintf(w, "  Movies:     %d (%d enhanced)\n", st.Store.TotalMovies, st.Store.CachedMovies)
	fmt.Fprintf(w, "  Favorites:  %d\n", st.Store.FavoritesCount)
	fmt.Fprintf(w, "  Languages:  %d\n", st.Store.LanguagesCount)
	fmt.Fprintf(w, "  Avg rating: %.2f\n", st.Store.AverageRating)
	fmt.Fprintf(w, "  In memory:  %d\n", st.Store.MemoryEntries)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Namespaces")
	for _, ns := range st.Namespaces {
		fmt.Fprintf(w, "  %-10s %d active, %d expired\n", ns.Name, ns.Active, ns.Expired)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Lookups")
	fmt.Fprintf(w, "  Memory:   %d\n", st.Hits.Memory)
	fmt.Fprintf(w, "  Database: %d\n", st.Hits.Database)
	fmt.Fprintf(w, "  Miss:     %d\n", st.Hits.Miss)
	fmt.Fprintf(w, "  Hit rate: %.0f%%\n", st.Hits.HitRate*100)
}
