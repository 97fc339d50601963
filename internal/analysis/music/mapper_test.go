package music

import (
	"testing"

	"github.com/mindease/backend/internal/analysis/sentiment"
	"github.com/mindease/backend/internal/model/chat"
)

func fixed(polarity float64) sentiment.Scorer {
	return sentiment.ScorerFunc(func(string) sentiment.Score {
		return sentiment.Score{Polarity: polarity}
	})
}

func TestMoodForThresholds(t *testing.T) {
	cases := []struct {
		polarity float64
		want     chat.Mood
	}{
		{0.9, chat.MoodHappy},
		{0.31, chat.MoodHappy},
		{0.3, chat.MoodRelaxed},
		{0.2, chat.MoodRelaxed},
		{0.1, chat.MoodRelaxed},
		{0.09, chat.MoodStressed},
		{0, chat.MoodStressed},
		{-0.2, chat.MoodStressed},
		{-0.21, chat.MoodDepressed},
		{-1, chat.MoodDepressed},
	}

	for _, tc := range cases {
		if got := MoodFor(tc.polarity); got != tc.want {
			t.Fatalf("MoodFor(%v) = %s, want %s", tc.polarity, got, tc.want)
		}
	}
}

func TestRecommendHappyPlaylist(t *testing.T) {
	rec := NewMapper(fixed(0.5)).Recommend("great day")
	if rec.Mood != chat.MoodHappy {
		t.Fatalf("expected Happy, got %s", rec.Mood)
	}
	if rec.Playlist == nil || *rec.Playlist != "https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC" {
		t.Fatalf("unexpected playlist: %v", rec.Playlist)
	}
}

func TestRecommendDepressedHasNoPlaylist(t *testing.T) {
	for _, p := range []float64{-0.21, -0.5, -1} {
		rec := NewMapper(fixed(p)).Recommend("text")
		if rec.Mood != chat.MoodDepressed {
			t.Fatalf("polarity %v: expected Depressed, got %s", p, rec.Mood)
		}
		if rec.Playlist != nil {
			t.Fatalf("polarity %v: expected no playlist, got %s", p, *rec.Playlist)
		}
	}
}

func TestRecommendIsPure(t *testing.T) {
	m := NewMapper(sentiment.NewLexicon())
	first := m.Recommend("I feel calm and relaxed today")
	for i := 0; i < 5; i++ {
		got := m.Recommend("I feel calm and relaxed today")
		if got.Mood != first.Mood {
			t.Fatalf("mood changed between calls: %s vs %s", got.Mood, first.Mood)
		}
		if (got.Playlist == nil) != (first.Playlist == nil) || (got.Playlist != nil && *got.Playlist != *first.Playlist) {
			t.Fatal("playlist changed between calls")
		}
	}
}

func TestRecommendBlankTextIsStressed(t *testing.T) {
	rec := NewMapper(fixed(0.9)).Recommend("   ")
	if rec.Mood != chat.MoodStressed {
		t.Fatalf("expected Stressed for blank text, got %s", rec.Mood)
	}
}

func TestPlaylistCoverage(t *testing.T) {
	for _, mood := range []chat.Mood{chat.MoodHappy, chat.MoodSad, chat.MoodStressed, chat.MoodRelaxed} {
		if _, ok := PlaylistFor(mood); !ok {
			t.Fatalf("missing playlist for %s", mood)
		}
	}
	if _, ok := PlaylistFor(chat.MoodDepressed); ok {
		t.Fatal("Depressed must not have a playlist")
	}
}
