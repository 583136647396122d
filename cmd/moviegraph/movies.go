package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviegraph/internal/movie"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [trakt-id]",
	Short: "Look up a movie, cache first",
	Long: `Look up a movie in the cache tiers. On a miss the server enhances it
from upstream, resolving a bare Trakt id first, unless --cached is given.

Examples:
  moviegraph lookup 16662
  moviegraph lookup --title Inception --year 2010
  moviegraph lookup --key Inception_2010`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLookupCmd,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the Trakt catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		resp, err := NewClient(serverURL).Search(args[0], limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return outputMovies(resp)
	},
}

var localCmd = &cobra.Command{
	Use:   "local [query]",
	Short: "Search cached movies without calling upstream",
	Long: `Full-text search over cached movies. Without a query, lists the most
recently accessed ones.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		resp, err := NewClient(serverURL).LocalSearch(query, limit)
		if err != nil {
			return fmt.Errorf("local search failed: %w", err)
		}
		return outputMovies(resp)
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related <trakt-id>",
	Short: "Show movies related to a movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		resp, err := NewClient(serverURL).Related(id, limit)
		if err != nil {
			return fmt.Errorf("related failed: %w", err)
		}
		return outputMovies(resp)
	},
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <trakt-id> [title] [year]",
	Short: "Enhance a movie with stats, ratings and poster",
	Long: `Enhance a movie with stats, ratings and poster. Without a title the
server resolves the movie from its Trakt id.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ref := movie.Ref{OriginID: id}
		if len(args) > 1 {
			ref.Title = args[1]
		}
		if len(args) > 2 {
			if ref.Year, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid year: %s", args[2])
			}
		}
		rec, err := NewClient(serverURL).Enhance(ref)
		if err != nil {
			return fmt.Errorf("enhance failed: %w", err)
		}
		if jsonOutput {
			printJSON(rec)
			return nil
		}
		printMovie(stdout, rec)
		return nil
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <movie-key>",
	Short: "Mark a cached movie as favorite so cleanup keeps it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remove, _ := cmd.Flags().GetBool("remove")
		rec, err := NewClient(serverURL).SetFavorite(args[0], !remove)
		if err != nil {
			return fmt.Errorf("favorite failed: %w", err)
		}
		if jsonOutput {
			printJSON(rec)
			return nil
		}
		if rec.Favorite {
			fmt.Fprintf(stdout, "%s marked as favorite\n", rec.Key)
		} else {
			fmt.Fprintf(stdout, "%s unmarked\n", rec.Key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd, searchCmd, localCmd, relatedCmd, enhanceCmd, favoriteCmd)

	lookupCmd.Flags().String("title", "", "Movie title")
	lookupCmd.Flags().Int("year", 0, "Release year")
	lookupCmd.Flags().String("key", "", "Movie key (e.g. Inception_2010)")
	lookupCmd.Flags().Bool("cached", false, "Do not call upstream on a miss")

	searchCmd.Flags().Int("limit", 0, "Maximum results (server default 15)")
	localCmd.Flags().Int("limit", 20, "Maximum results")
	relatedCmd.Flags().Int("limit", 0, "Maximum results (server default 8)")
	favoriteCmd.Flags().Bool("remove", false, "Clear the favorite flag instead")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid trakt ID: %s", s)
	}
	return id, nil
}

func runLookupCmd(cmd *cobra.Command, args []string) error {
	p := LookupParams{Enhance: true}
	p.Title, _ = cmd.Flags().GetString("title")
	p.Year, _ = cmd.Flags().GetInt("year")
	p.Key, _ = cmd.Flags().GetString("key")
	if cached, _ := cmd.Flags().GetBool("cached"); cached {
		p.Enhance = false
	}
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p.ID = id
	}
	if p.ID == 0 && p.Title == "" && p.Key == "" {
		return fmt.Errorf("give a trakt ID, --title or --key")
	}

	resp, err := NewClient(serverURL).Lookup(p)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if jsonOutput {
		printJSON(resp)
		return nil
	}
	printMovie(stdout, resp.Movie)
	fmt.Fprintf(stdout, "\n(from %s)\n", resp.Source)
	return nil
}

func outputMovies(resp *MovieListResponse) error {
	if jsonOutput {
		printJSON(resp)
		return nil
	}
	printMovies(stdout, resp.Items)
	return nil
}
