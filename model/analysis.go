package model

import (
	"encoding/json"
	"time"
)

// MoodCategories is the fixed set of categories the generation step is
// expected to produce. Responses outside this set are treated as malformed.
var MoodCategories = []string{
	"energetic", "calm", "melancholic", "romantic",
	"angry", "excited", "peaceful", "nostalgic",
}

// IsValidMoodCategory reports whether category is one of MoodCategories.
func IsValidMoodCategory(category string) bool {
	for _, c := range MoodCategories {
		if c == category {
			return true
		}
	}
	return false
}

// PlaylistItem is one suggested song. Order within a playlist is
// presentation order and is preserved verbatim.
type PlaylistItem struct {
	Title  string `json:"title" bson:"title"`
	Artist string `json:"artist" bson:"artist"`
	Reason string `json:"reason" bson:"reason"`
}

// AnalysisRecord is one user submission's full result.
//
// The ID is assigned by the active database backend and is opaque to
// callers: the flat-file backend hands out timestamp-based ids, MongoDB
// hands out ObjectID hex strings. Never parse it.
type AnalysisRecord struct {
	ID              string          `json:"id"`
	Filename        string          `json:"filename,omitempty"`
	DominantEmotion string          `json:"dominantEmotion"`
	Confidence      float64         `json:"confidence"`
	Vibe            string          `json:"vibe"`
	MoodCategory    string          `json:"moodCategory"`
	Playlist        []PlaylistItem  `json:"playlist"`
	ColorAnalysis   json.RawMessage `json:"colorAnalysis,omitempty"`
	Preferences     json.RawMessage `json:"preferences,omitempty"`
	MoodQuizData    json.RawMessage `json:"moodQuizData,omitempty"`
	UserID          string          `json:"userId,omitempty"`
	IsFavorite      bool            `json:"isFavorite"`
	ViewCount       int             `json:"viewCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// EmotionScore is one entry of the client-submitted emotion list.
type EmotionScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AnalyzeRequest is the body of POST /api/analyze-mood. The three context
// blobs are opaque client-supplied JSON; the persistence layer never
// interprets them.
type AnalyzeRequest struct {
	Emotions      []EmotionScore  `json:"emotions"`
	Filename      string          `json:"filename,omitempty"`
	ColorAnalysis json.RawMessage `json:"colorAnalysis,omitempty"`
	Preferences   json.RawMessage `json:"preferences,omitempty"`
	MoodQuizData  json.RawMessage `json:"moodQuizData,omitempty"`
	UserID        string          `json:"userId,omitempty"`
}

// AnalyzeResponse is the payload returned to the client after a successful
// analysis.
type AnalyzeResponse struct {
	Success         bool           `json:"success"`
	AnalysisID      string         `json:"analysisId"`
	DominantEmotion string         `json:"dominantEmotion"`
	Confidence      float64        `json:"confidence"`
	Vibe            string         `json:"vibe"`
	MoodCategory    string         `json:"moodCategory"`
	Playlist        []PlaylistItem `json:"playlist"`
}

// ColorAnalysis mirrors the shape produced by the client-side color
// analyzer. The analyzer parses it tolerantly to enrich the prompt; the
// persistence layer stores the raw blob untouched.
type ColorAnalysis struct {
	DominantColors  []ColorData `json:"dominantColors"`
	Mood            string      `json:"mood"`
	Temperature     string      `json:"temperature"` // warm, cool, neutral
	Saturation      float64     `json:"saturation"`
	HarmonyScore    float64     `json:"harmonyScore"`
	EmotionalImpact string      `json:"emotionalImpact"`
}

// ColorData is one dominant color within a ColorAnalysis.
type ColorData struct {
	Hex        string  `json:"hex"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
}

// MusicPreferences mirrors the music-preference quiz payload.
type MusicPreferences struct {
	Genres        []string `json:"genres"`
	Artists       []string `json:"artists"`
	Platforms     []string `json:"platforms"`
	EnergyLevel   string   `json:"energyLevel"`
	MoodInfluence string   `json:"moodInfluence"`
}

// MoodQuizData mirrors the mood-color quiz payload.
type MoodQuizData struct {
	SelectedColor   string           `json:"selectedColor"`
	MoodWords       []string         `json:"moodWords"`
	Genres          []string         `json:"genres"`
	Activity        string           `json:"activity"`
	ColorPsychology *ColorPsychology `json:"colorPsychology"`
}

// ColorPsychology is the quiz's interpretation of the selected color.
type ColorPsychology struct {
	Mood       string `json:"mood"`
	Psychology string `json:"psychology"`
	Hex        string `json:"hex"`
	Name       string `json:"name"`
}
