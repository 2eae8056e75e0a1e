package model

// Analytics is the aggregate view over all stored analyses.
//
// AverageConfidence is the arithmetic mean over all records and is defined
// as 0 when there are no records. DailyActivity is keyed by calendar date
// (UTC, "2006-01-02") and always carries the last 7 days, zeroes included.
type Analytics struct {
	TotalAnalyses       int            `json:"totalAnalyses"`
	RecentAnalyses      int            `json:"recentAnalyses"`
	EmotionDistribution map[string]int `json:"emotionDistribution"`
	MoodDistribution    map[string]int `json:"moodDistribution"`
	DailyActivity       map[string]int `json:"dailyActivity"`
	AverageConfidence   float64        `json:"averageConfidence"`
}
