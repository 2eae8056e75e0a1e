package vibe

import (
	"testing"

	"VibeFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackDeterminism(t *testing.T) {
	prefs := &model.MusicPreferences{Genres: []string{"rock"}}
	quiz := &model.MoodQuizData{Activity: "working out"}

	first := fallbackCompletion("angry", 0.72, prefs, quiz)
	second := fallbackCompletion("angry", 0.72, prefs, quiz)

	assert.Equal(t, first.Vibe, second.Vibe)
	assert.Equal(t, first.MoodCategory, second.MoodCategory)
	assert.Equal(t, first.Playlist, second.Playlist)
}

func TestFallbackEmotionBuckets(t *testing.T) {
	expected := map[string]string{
		"happy":     "energetic",
		"sad":       "melancholic",
		"angry":     "angry",
		"surprised": "excited",
		"fearful":   "calm",
		"disgusted": "angry",
		"neutral":   "peaceful",
	}
	for emotion, mood := range expected {
		completion := fallbackCompletion(emotion, 0.5, nil, nil)
		assert.Equal(t, mood, completion.MoodCategory, "emotion %s", emotion)
		assert.NotEmpty(t, completion.Playlist, "emotion %s", emotion)
		assert.True(t, model.IsValidMoodCategory(completion.MoodCategory))
	}
}

func TestFallbackUnknownEmotionUsesNeutral(t *testing.T) {
	completion := fallbackCompletion("bewildered", 0.4, nil, nil)
	assert.Equal(t, "peaceful", completion.MoodCategory)
	assert.NotEmpty(t, completion.Playlist)
}

func TestFallbackGenreNarrowing(t *testing.T) {
	full := fallbackCompletion("happy", 0.9, nil, nil)
	narrowed := fallbackCompletion("happy", 0.9, &model.MusicPreferences{Genres: []string{"rock"}}, nil)

	require.NotEmpty(t, narrowed.Playlist)
	assert.Less(t, len(narrowed.Playlist), len(full.Playlist))
	for _, item := range narrowed.Playlist {
		found := false
		for _, song := range fallbackPlaylists["happy"] {
			if song.Title != item.Title {
				continue
			}
			for _, g := range song.genres {
				if g == "rock" {
					found = true
				}
			}
		}
		assert.True(t, found, "song %q should be tagged rock", item.Title)
	}
}

func TestFallbackActivityNarrowing(t *testing.T) {
	quiz := &model.MoodQuizData{Activity: "Studying"}
	completion := fallbackCompletion("sad", 0.6, nil, quiz)

	require.NotEmpty(t, completion.Playlist)
	titles := make(map[string]bool)
	for _, item := range completion.Playlist {
		titles[item.Title] = true
	}
	assert.True(t, titles["Mad World"])
	assert.True(t, titles["Skinny Love"])
	assert.False(t, titles["Someone Like You"])
}

func TestFallbackNarrowingNeverEmpties(t *testing.T) {
	// No happy song is tagged "classical"; the narrowing is skipped
	// instead of producing an empty playlist.
	prefs := &model.MusicPreferences{Genres: []string{"classical"}}
	completion := fallbackCompletion("happy", 0.9, prefs, nil)
	assert.Len(t, completion.Playlist, len(fallbackPlaylists["happy"]))

	quiz := &model.MoodQuizData{Activity: "skydiving"}
	completion = fallbackCompletion("happy", 0.9, nil, quiz)
	assert.NotEmpty(t, completion.Playlist)
}

func TestFallbackVibeInterpolation(t *testing.T) {
	plain := fallbackVibe("happy", 0.9, nil, nil)
	assert.Contains(t, plain, "happy")
	assert.Contains(t, plain, "90.0%")
	assert.NotContains(t, plain, "Perfect for")

	quiz := &model.MoodQuizData{Activity: "Cooking"}
	prefs := &model.MusicPreferences{Genres: []string{"Funk"}}
	rich := fallbackVibe("happy", 0.9, prefs, quiz)
	assert.Contains(t, rich, "Perfect for cooking.")
	assert.Contains(t, rich, "your taste for funk")
}
