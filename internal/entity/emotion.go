package entity

import "time"

type Emotion string

const (
	EmotionAngry    Emotion = "angry"
	EmotionDisgust  Emotion = "disgust"
	EmotionFear     Emotion = "fear"
	EmotionHappy    Emotion = "happy"
	EmotionNeutral  Emotion = "neutral"
	EmotionSad      Emotion = "sad"
	EmotionSurprise Emotion = "surprise"
)

// DefaultEmotionLabels is the class order of a label encoder fitted on the
// seven emotion folder names (sorted alphabetically).
var DefaultEmotionLabels = []string{
	string(EmotionAngry),
	string(EmotionDisgust),
	string(EmotionFear),
	string(EmotionHappy),
	string(EmotionNeutral),
	string(EmotionSad),
	string(EmotionSurprise),
}

func IsValidEmotion(label string) bool {
	switch Emotion(label) {
	case EmotionAngry, EmotionDisgust, EmotionFear, EmotionHappy,
		EmotionNeutral, EmotionSad, EmotionSurprise:
		return true
	default:
		return false
	}
}

type EmotionSample struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	RoundNumber int       `json:"round_number"`
	Emotion     string    `json:"emotion"`
	Confidence  float64   `json:"confidence"`
	Difficulty  string    `json:"difficulty"`
	Word        string    `json:"word,omitempty"`
	TimeTakenMs int64     `json:"time_taken_ms,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type EmotionCount struct {
	Emotion       string  `db:"emotion"`
	Count         int     `db:"count"`
	AvgConfidence float64 `db:"avg_confidence"`
}

type SessionSummary struct {
	SessionID       string
	TotalSamples    int
	DominantEmotion string
	Emotions        []EmotionCount
}
