package vibe

import (
	"fmt"
	"strings"

	"VibeFM/model"
)

// fallbackSong tags a playlist entry with the genres and activities it
// suits, so the deterministic path can narrow a bucket by preference.
type fallbackSong struct {
	model.PlaylistItem
	genres     []string
	activities []string
}

// fallbackPlaylists keys base playlists by detected emotion. Anything
// outside the six face-detection emotions lands on the neutral bucket.
var fallbackPlaylists = map[string][]fallbackSong{
	"happy": {
		{model.PlaylistItem{Title: "Good 4 U", Artist: "Olivia Rodrigo", Reason: "Upbeat energy matches your positive vibe"}, []string{"pop", "rock"}, []string{"dancing", "working out"}},
		{model.PlaylistItem{Title: "Levitating", Artist: "Dua Lipa", Reason: "Feel-good disco vibes"}, []string{"pop", "dance"}, []string{"dancing"}},
		{model.PlaylistItem{Title: "Blinding Lights", Artist: "The Weeknd", Reason: "Energetic and uplifting"}, []string{"pop", "electronic"}, []string{"driving", "working out"}},
		{model.PlaylistItem{Title: "Walking on Sunshine", Artist: "Katrina and the Waves", Reason: "Pure sunshine in a song"}, []string{"rock", "pop"}, []string{"walking"}},
		{model.PlaylistItem{Title: "Happy", Artist: "Pharrell Williams", Reason: "The definitive feel-good anthem"}, []string{"pop", "funk"}, []string{"dancing", "cooking"}},
	},
	"sad": {
		{model.PlaylistItem{Title: "Someone Like You", Artist: "Adele", Reason: "Beautiful ballad for contemplative moments"}, []string{"pop", "soul"}, []string{"relaxing"}},
		{model.PlaylistItem{Title: "Hurt", Artist: "Johnny Cash", Reason: "Raw emotion and reflection"}, []string{"country", "rock"}, []string{"relaxing"}},
		{model.PlaylistItem{Title: "Mad World", Artist: "Gary Jules", Reason: "Atmospheric melancholy"}, []string{"indie", "electronic"}, []string{"relaxing", "studying"}},
		{model.PlaylistItem{Title: "The Night We Met", Artist: "Lord Huron", Reason: "Wistful longing in every note"}, []string{"indie", "folk"}, []string{"relaxing"}},
		{model.PlaylistItem{Title: "Skinny Love", Artist: "Bon Iver", Reason: "Fragile and cathartic"}, []string{"indie", "folk"}, []string{"studying"}},
	},
	"angry": {
		{model.PlaylistItem{Title: "Break Stuff", Artist: "Limp Bizkit", Reason: "Channel that intensity"}, []string{"rock", "metal"}, []string{"working out"}},
		{model.PlaylistItem{Title: "Killing in the Name", Artist: "Rage Against the Machine", Reason: "Powerful release energy"}, []string{"rock", "metal"}, []string{"working out"}},
		{model.PlaylistItem{Title: "Bodies", Artist: "Drowning Pool", Reason: "High-energy outlet"}, []string{"metal"}, []string{"working out"}},
		{model.PlaylistItem{Title: "Du Hast", Artist: "Rammstein", Reason: "Industrial force to burn it off"}, []string{"metal", "electronic"}, []string{"working out", "driving"}},
		{model.PlaylistItem{Title: "Smells Like Teen Spirit", Artist: "Nirvana", Reason: "Grunge catharsis"}, []string{"rock"}, []string{"driving"}},
	},
	"surprised": {
		{model.PlaylistItem{Title: "Uptown Funk", Artist: "Mark Ronson ft. Bruno Mars", Reason: "Unexpected groove to match your surprise"}, []string{"funk", "pop"}, []string{"dancing"}},
		{model.PlaylistItem{Title: "Can't Stop the Feeling", Artist: "Justin Timberlake", Reason: "Joyful surprise energy"}, []string{"pop"}, []string{"dancing", "cooking"}},
		{model.PlaylistItem{Title: "Bohemian Rhapsody", Artist: "Queen", Reason: "A song that never goes where you expect"}, []string{"rock"}, []string{"driving"}},
		{model.PlaylistItem{Title: "Electric Feel", Artist: "MGMT", Reason: "A jolt of psychedelic energy"}, []string{"indie", "electronic"}, []string{"dancing"}},
	},
	"fearful": {
		{model.PlaylistItem{Title: "Weightless", Artist: "Marconi Union", Reason: "Scientifically calming ambient tones"}, []string{"ambient", "electronic"}, []string{"relaxing", "studying"}},
		{model.PlaylistItem{Title: "Breathe Me", Artist: "Sia", Reason: "Gentle reassurance for anxious moments"}, []string{"pop", "indie"}, []string{"relaxing"}},
		{model.PlaylistItem{Title: "Holocene", Artist: "Bon Iver", Reason: "Perspective and calm"}, []string{"indie", "folk"}, []string{"relaxing"}},
		{model.PlaylistItem{Title: "Gymnopédie No.1", Artist: "Erik Satie", Reason: "Soft piano to steady the nerves"}, []string{"classical"}, []string{"studying", "relaxing"}},
	},
	"disgusted": {
		{model.PlaylistItem{Title: "Seven Nation Army", Artist: "The White Stripes", Reason: "A driving riff to shake it off"}, []string{"rock"}, []string{"working out", "driving"}},
		{model.PlaylistItem{Title: "Back in Black", Artist: "AC/DC", Reason: "No-nonsense energy reset"}, []string{"rock"}, []string{"driving"}},
		{model.PlaylistItem{Title: "Stronger", Artist: "Kanye West", Reason: "Turn distaste into drive"}, []string{"hip hop", "electronic"}, []string{"working out"}},
		{model.PlaylistItem{Title: "Lose Yourself", Artist: "Eminem", Reason: "Channel it into focus"}, []string{"hip hop"}, []string{"working out"}},
	},
	"neutral": {
		{model.PlaylistItem{Title: "Weightless", Artist: "Marconi Union", Reason: "Balanced and centering"}, []string{"ambient", "electronic"}, []string{"relaxing", "studying"}},
		{model.PlaylistItem{Title: "Clair de Lune", Artist: "Claude Debussy", Reason: "Peaceful and contemplative"}, []string{"classical"}, []string{"studying", "relaxing"}},
		{model.PlaylistItem{Title: "Lofi Hip Hop Mix", Artist: "Various Artists", Reason: "Chill background vibes"}, []string{"hip hop", "electronic"}, []string{"studying", "cooking"}},
		{model.PlaylistItem{Title: "Banana Pancakes", Artist: "Jack Johnson", Reason: "Easygoing acoustic warmth"}, []string{"folk", "pop"}, []string{"cooking", "relaxing"}},
	},
}

// fallbackMoodCategories maps detected emotions onto the mood enum.
var fallbackMoodCategories = map[string]string{
	"happy":     "energetic",
	"sad":       "melancholic",
	"angry":     "angry",
	"surprised": "excited",
	"fearful":   "calm",
	"disgusted": "angry",
	"neutral":   "peaceful",
}

// fallbackCompletion builds the deterministic vibe when no provider is
// available or its answer was unusable. Same inputs always produce the
// same output.
func fallbackCompletion(emotion string, confidence float64, prefs *model.MusicPreferences, quiz *model.MoodQuizData) *model.VibeCompletion {
	key := strings.ToLower(emotion)
	songs, ok := fallbackPlaylists[key]
	if !ok {
		key = "neutral"
		songs = fallbackPlaylists["neutral"]
	}

	if prefs != nil && len(prefs.Genres) > 0 {
		songs = narrowBy(songs, prefs.Genres[0], func(s fallbackSong) []string { return s.genres })
	}
	if quiz != nil && quiz.Activity != "" {
		songs = narrowBy(songs, quiz.Activity, func(s fallbackSong) []string { return s.activities })
	}

	playlist := make([]model.PlaylistItem, 0, len(songs))
	for _, s := range songs {
		playlist = append(playlist, s.PlaylistItem)
	}

	return &model.VibeCompletion{
		Vibe:         fallbackVibe(emotion, confidence, prefs, quiz),
		MoodCategory: fallbackMoodCategories[key],
		Playlist:     playlist,
	}
}

// narrowBy keeps songs tagged with the given value. A narrowing that
// would empty the list is skipped.
func narrowBy(songs []fallbackSong, value string, tags func(fallbackSong) []string) []fallbackSong {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return songs
	}
	narrowed := make([]fallbackSong, 0, len(songs))
	for _, s := range songs {
		for _, tag := range tags(s) {
			if strings.ToLower(tag) == value {
				narrowed = append(narrowed, s)
				break
			}
		}
	}
	if len(narrowed) == 0 {
		return songs
	}
	return narrowed
}

// fallbackVibe interpolates whichever context blocks are present into a
// templated sentence.
func fallbackVibe(emotion string, confidence float64, prefs *model.MusicPreferences, quiz *model.MoodQuizData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You're feeling %s with %.1f%% confidence. Let's find some music that matches your energy!",
		emotion, confidence*100)
	if quiz != nil && quiz.Activity != "" {
		fmt.Fprintf(&b, " Perfect for %s.", strings.ToLower(quiz.Activity))
	}
	if prefs != nil && len(prefs.Genres) > 0 {
		fmt.Fprintf(&b, " We leaned into your taste for %s.", strings.ToLower(prefs.Genres[0]))
	}
	return b.String()
}
