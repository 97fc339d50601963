// Package music maps message polarity onto a mood playlist.
package music

import (
	"strings"

	"github.com/mindease/backend/internal/analysis/sentiment"
	"github.com/mindease/backend/internal/model/chat"
)

const playlistBase = "https://open.spotify.com/playlist/"

// playlists 是心情到歌单的固定映射；Depressed 没有对应歌单。
var playlists = map[chat.Mood]string{
	chat.MoodHappy:    playlistBase + "37i9dQZF1DXdPec7aLTmlC",
	chat.MoodSad:      playlistBase + "1oJZ98sB3FbQAbrZkEbdtQ",
	chat.MoodStressed: playlistBase + "37i9dQZF1DWZeKCadgRdKQ",
	chat.MoodRelaxed:  playlistBase + "37i9dQZF1DX4sWSpwq3LiO",
}

// Recommendation is the mapper verdict. Playlist is nil when the mood has
// no playlist.
type Recommendation struct {
	Mood     chat.Mood `json:"mood"`
	Playlist *string   `json:"playlist"`
}

// Mapper recommends a playlist from the polarity of a message.
type Mapper struct {
	scorer sentiment.Scorer
}

// NewMapper shares the classifier's scorer but applies its own thresholds.
func NewMapper(scorer sentiment.Scorer) *Mapper {
	if scorer == nil {
		scorer = sentiment.NewLexicon()
	}
	return &Mapper{scorer: scorer}
}

// Recommend scores text and returns the mood and playlist for it.
func (m *Mapper) Recommend(text string) Recommendation {
	var polarity float64
	if strings.TrimSpace(text) != "" {
		polarity = m.scorer.Score(text).Polarity
	}

	mood := MoodFor(polarity)
	rec := Recommendation{Mood: mood}
	if url, ok := PlaylistFor(mood); ok {
		rec.Playlist = &url
	}
	return rec
}

// PlaylistFor returns the playlist URL for mood, if one exists.
func PlaylistFor(mood chat.Mood) (string, bool) {
	url, ok := playlists[mood]
	return url, ok
}

// MoodFor applies the mapper thresholds, first match wins.
func MoodFor(polarity float64) chat.Mood {
	switch {
	case polarity > 0.3:
		return chat.MoodHappy
	case polarity < -0.2:
		return chat.MoodDepressed
	case polarity >= 0.1 && polarity <= 0.3:
		return chat.MoodRelaxed
	default:
		return chat.MoodStressed
	}
}
