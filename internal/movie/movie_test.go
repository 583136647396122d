package movie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		title string
		year  int
		want  string
	}{
		{"Inception", 2010, "Inception_2010"},
		{"The Lord of the Rings: The Fellowship of the Ring", 2001, "The_Lord_of_the_Rings_The_Fellowship_of_the_Ring_2001"},
		{"Léon: The Professional", 1994, "Leon_The_Professional_1994"},
		{"Ocean's Eleven", 2001, "Oceans_Eleven_2001"},
		{"Fast & Furious", 2009, "Fast_and_Furious_2009"},
		{"  Spaced   Out  ", 1999, "Spaced_Out_1999"},
		{"Unknown Year", 0, "Unknown_Year"},
		{"", 1984, "1984"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.title, tt.year))
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	assert.Equal(t, Key("Amélie", 2001), Key("Amélie", 2001))
	assert.Equal(t, "Amelie_2001", Key("Amélie", 2001))
}

func TestRecord_HasFullAndRating(t *testing.T) {
	basicRating := 7.5
	rec := NewRecord(Ref{OriginID: 1, Title: "Heat", Year: 1995, Basic: &Basic{Rating: &basicRating}})

	assert.False(t, rec.HasFull())
	assert.Equal(t, "Heat_1995", rec.Key)
	assert.InDelta(t, 7.5, *rec.Rating(), 0.001)

	rec.Full = &Full{Ratings: &Ratings{Rating: 8.2}}
	assert.True(t, rec.HasFull())
	assert.InDelta(t, 8.2, *rec.Rating(), 0.001)

	var nilRec *Record
	assert.False(t, nilRec.HasFull())
}

func TestRecord_Clone(t *testing.T) {
	rating := 8.8
	rec := &Record{
		Key:   "Inception_2010",
		Basic: Basic{Rating: &rating, Genres: []string{"sci-fi"}},
		Full: &Full{
			Stats:   &Stats{Watchers: 10},
			Ratings: &Ratings{Rating: 8.8, Distribution: map[string]int{"10": 5}},
		},
	}

	c := rec.Clone()
	c.Basic.Genres[0] = "drama"
	*c.Basic.Rating = 1
	c.Full.Stats.Watchers = 99
	c.Full.Ratings.Distribution["10"] = 0

	assert.Equal(t, "sci-fi", rec.Basic.Genres[0])
	assert.InDelta(t, 8.8, *rec.Basic.Rating, 0.001)
	assert.Equal(t, 10, rec.Full.Stats.Watchers)
	assert.Equal(t, 5, rec.Full.Ratings.Distribution["10"])
}
