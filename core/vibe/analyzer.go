package vibe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"VibeFM/db"
	"VibeFM/logger"
	"VibeFM/model"
)

// ErrNoEmotions rejects an analyze request whose emotion list is missing
// or empty. Nothing is processed or persisted in that case.
var ErrNoEmotions = errors.New("emotions data is missing or empty")

// Analyzer turns a detected emotion-score list plus optional context into
// a persisted vibe and playlist. A nil provider means every request takes
// the deterministic fallback path.
type Analyzer struct {
	provider Provider
	db       *db.Service
}

func NewAnalyzer(provider Provider, database *db.Service) *Analyzer {
	return &Analyzer{provider: provider, db: database}
}

// Analyze runs the full pipeline: dominant-emotion selection, prompt
// composition, generation (or fallback) and persistence. Provider faults
// are swallowed; a persistence failure is surfaced.
func (a *Analyzer) Analyze(ctx context.Context, req *model.AnalyzeRequest) (*model.AnalyzeResponse, error) {
	if len(req.Emotions) == 0 {
		return nil, ErrNoEmotions
	}

	dominant, confidence := dominantEmotion(req.Emotions)

	colors := parseColorAnalysis(req.ColorAnalysis)
	prefs := parsePreferences(req.Preferences)
	quiz := parseMoodQuiz(req.MoodQuizData)

	completion := a.generate(ctx, dominant, confidence, colors, prefs, quiz)

	record := &model.AnalysisRecord{
		Filename:        req.Filename,
		DominantEmotion: dominant,
		Confidence:      confidence,
		Vibe:            completion.Vibe,
		MoodCategory:    completion.MoodCategory,
		Playlist:        completion.Playlist,
		ColorAnalysis:   req.ColorAnalysis,
		Preferences:     req.Preferences,
		MoodQuizData:    req.MoodQuizData,
		UserID:          req.UserID,
	}
	id, err := a.db.SaveAnalysis(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	return &model.AnalyzeResponse{
		Success:         true,
		AnalysisID:      id,
		DominantEmotion: dominant,
		Confidence:      confidence,
		Vibe:            completion.Vibe,
		MoodCategory:    completion.MoodCategory,
		Playlist:        completion.Playlist,
	}, nil
}

// dominantEmotion scans for the highest score. Starts from ("neutral", 0)
// so an all-zero list stays neutral; ties keep the first occurrence.
func dominantEmotion(emotions []model.EmotionScore) (string, float64) {
	dominant := "neutral"
	max := 0.0
	for _, e := range emotions {
		if e.Score > max {
			max = e.Score
			dominant = e.Name
		}
	}
	return dominant, max
}

// generate asks the provider and validates its answer, falling back to
// the rule table when the provider is absent, errors or returns a shape
// that fails validation.
func (a *Analyzer) generate(ctx context.Context, emotion string, confidence float64, colors *model.ColorAnalysis, prefs *model.MusicPreferences, quiz *model.MoodQuizData) *model.VibeCompletion {
	if a.provider == nil {
		return fallbackCompletion(emotion, confidence, prefs, quiz)
	}

	prompt := composePrompt(emotion, confidence, colors, prefs, quiz)
	completion, err := a.provider.GenerateVibe(ctx, prompt)
	if err != nil {
		logger.Warn("Vibe generation failed, using fallback",
			logger.String("emotion", emotion),
			logger.ErrorField(err))
		return fallbackCompletion(emotion, confidence, prefs, quiz)
	}
	if !validCompletion(completion) {
		logger.Warn("Vibe generation returned an invalid shape, using fallback",
			logger.String("emotion", emotion),
			logger.String("moodCategory", completion.MoodCategory))
		return fallbackCompletion(emotion, confidence, prefs, quiz)
	}
	return completion
}

func validCompletion(c *model.VibeCompletion) bool {
	return c != nil &&
		c.Vibe != "" &&
		model.IsValidMoodCategory(c.MoodCategory) &&
		len(c.Playlist) > 0
}

// composePrompt concatenates the dominant emotion with whichever optional
// context blocks are present. An absent block contributes nothing.
func composePrompt(emotion string, confidence float64, colors *model.ColorAnalysis, prefs *model.MusicPreferences, quiz *model.MoodQuizData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The detected emotion is %q with %.1f%% confidence.", emotion, confidence*100)

	if colors != nil {
		if colors.Mood != "" {
			fmt.Fprintf(&b, " The colors in their photo suggest a %s mood.", colors.Mood)
		}
		if colors.Temperature != "" {
			fmt.Fprintf(&b, " The color temperature is %s.", colors.Temperature)
		}
		if colors.Saturation > 0 {
			fmt.Fprintf(&b, " Color saturation is %.0f%%.", colors.Saturation*100)
		}
	}

	if quiz != nil {
		if quiz.ColorPsychology != nil {
			fmt.Fprintf(&b, " In a color quiz they chose %s, associated with a %s mood.",
				quiz.ColorPsychology.Name, quiz.ColorPsychology.Mood)
		}
		if len(quiz.MoodWords) > 0 {
			fmt.Fprintf(&b, " They describe their mood as: %s.", strings.Join(quiz.MoodWords, ", "))
		}
		if quiz.Activity != "" {
			fmt.Fprintf(&b, " They plan to listen while %s.", strings.ToLower(quiz.Activity))
		}
	}

	if prefs != nil {
		if len(prefs.Genres) > 0 {
			fmt.Fprintf(&b, " Their preferred genres are: %s.", strings.Join(prefs.Genres, ", "))
		}
		if prefs.EnergyLevel != "" {
			fmt.Fprintf(&b, " They prefer %s energy music.", prefs.EnergyLevel)
		}
		if prefs.MoodInfluence != "" {
			fmt.Fprintf(&b, " Their mood influences their music choice: %s.", prefs.MoodInfluence)
		}
	}

	b.WriteString(" Create a music vibe description and a playlist matching this state.")
	return b.String()
}

// tolerant parsers; a malformed blob enriches nothing but fails nothing

func parseColorAnalysis(raw json.RawMessage) *model.ColorAnalysis {
	if len(raw) == 0 {
		return nil
	}
	var colors model.ColorAnalysis
	if err := json.Unmarshal(raw, &colors); err != nil {
		logger.Debug("Ignoring unparseable color analysis", logger.ErrorField(err))
		return nil
	}
	return &colors
}

func parsePreferences(raw json.RawMessage) *model.MusicPreferences {
	if len(raw) == 0 {
		return nil
	}
	var prefs model.MusicPreferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		logger.Debug("Ignoring unparseable preferences", logger.ErrorField(err))
		return nil
	}
	return &prefs
}

func parseMoodQuiz(raw json.RawMessage) *model.MoodQuizData {
	if len(raw) == 0 {
		return nil
	}
	var quiz model.MoodQuizData
	if err := json.Unmarshal(raw, &quiz); err != nil {
		logger.Debug("Ignoring unparseable mood quiz data", logger.ErrorField(err))
		return nil
	}
	return &quiz
}
