package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/vmunix/moviegraph/internal/movie"
)

var stdout io.Writer = os.Stdout

func printJSON(v any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}

func printMovies(w io.Writer, items []*movie.Record) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tRATING\tENHANCED\tKEY")
	for _, m := range items {
		enhanced := "no"
		if m.HasFull() {
			enhanced = "yes"
		}
		title := m.Title
		if m.Favorite {
			title += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", m.OriginID, title, m.Year, formatRating(m.Rating()), enhanced, m.Key)
	}
	_ = tw.Flush()
}

func printMovie(w io.Writer, m *movie.Record) {
	fmt.Fprintf(w, "%s (%d)\n", m.Title, m.Year)
	fmt.Fprintf(w, "  Key:       %s\n", m.Key)
	if m.OriginID > 0 {
		fmt.Fprintf(w, "  Trakt ID:  %d\n", m.OriginID)
	}
	fmt.Fprintf(w, "  Rating:    %s\n", formatRating(m.Rating()))
	if len(m.Basic.Genres) > 0 {
		fmt.Fprintf(w, "  Genres:    %s\n", strings.Join(m.Basic.Genres, ", "))
	}
	if m.Basic.Runtime > 0 {
		fmt.Fprintf(w, "  Runtime:   %d min\n", m.Basic.Runtime)
	}
	if m.Favorite {
		fmt.Fprintln(w, "  Favorite:  yes")
	}
	if m.HasFull() {
		if s := m.Full.Stats; s != nil {
			fmt.Fprintf(w, "  Watchers:  %d  Plays: %d  Collectors: %d\n", s.Watchers, s.Plays, s.Collectors)
		}
		if m.Full.PosterURL != "" {
			fmt.Fprintf(w, "  Poster:    %s\n", m.Full.PosterURL)
		}
		fmt.Fprintf(w, "  Enhanced:  %s\n", m.Full.EnhancedAt.Format("2006-01-02 15:04"))
	}
	if m.Basic.Overview != "" {
		fmt.Fprintf(w, "\n  %s\n", m.Basic.Overview)
	}
}
