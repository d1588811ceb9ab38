package emotion

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Landmarks is a flat coordinate vector. Null entries are rejected instead of
// decoding as zero.
type Landmarks []float64

func (l *Landmarks) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}

	out := make(Landmarks, len(raw))
	for i, v := range raw {
		if v == nil {
			return fmt.Errorf("landmark %d is null", i)
		}
		out[i] = *v
	}
	*l = out
	return nil
}

type DetectEmotionRequest struct {
	Landmarks Landmarks `json:"landmarks"`
}

type DetectEmotionResponse struct {
	Emotion       string             `json:"emotion"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

type RecordSampleRequest struct {
	SessionID   string  `json:"session_id" validate:"required,max=64"`
	UserID      string  `json:"user_id" validate:"required,max=64"`
	RoundNumber int     `json:"round_number" validate:"gte=0"`
	Emotion     string  `json:"emotion" validate:"required,oneof=angry disgust fear happy neutral sad surprise"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
	Difficulty  string  `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Word        string  `json:"word" validate:"max=64"`
	TimeTakenMs int64   `json:"time_taken_ms" validate:"gte=0"`
}

// DifficultyRequest asks for a difficulty from a single emotion reading. A
// missing confidence counts as 0.5.
type DifficultyRequest struct {
	Emotion    string   `json:"emotion" validate:"required,oneof=angry disgust fear happy neutral sad surprise"`
	Confidence *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

type DifficultyResponse struct {
	Difficulty string  `json:"difficulty"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

type SampleResponse struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"session_id"`
	UserID      string  `json:"user_id"`
	RoundNumber int     `json:"round_number"`
	Emotion     string  `json:"emotion"`
	Confidence  float64 `json:"confidence"`
	Difficulty  string  `json:"difficulty"`
	Word        string  `json:"word,omitempty"`
	TimeTakenMs int64   `json:"time_taken_ms"`
	CreatedAt   string  `json:"created_at"`
}

type RecordSampleResponse struct {
	SampleResponse
	NextDifficulty    string `json:"next_difficulty"`
	DifficultyChanged bool   `json:"difficulty_changed"`
}

type SessionSamplesResponse struct {
	SessionID string           `json:"session_id"`
	Samples   []SampleResponse `json:"samples"`
}

type EmotionCountResponse struct {
	Emotion       string  `json:"emotion"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

type SessionSummaryResponse struct {
	SessionID       string                 `json:"session_id"`
	TotalSamples    int                    `json:"total_samples"`
	DominantEmotion string                 `json:"dominant_emotion"`
	Emotions        []EmotionCountResponse `json:"emotions"`
}

type HealthResponse struct {
	Status           string   `json:"status"`
	ModelLoaded      bool     `json:"model_loaded"`
	BackendConnected bool     `json:"backend_connected"`
	ModelType        string   `json:"model_type"`
	ExpectedInput    string   `json:"expected_input"`
	Normalization    string   `json:"normalization"`
	Labels           []string `json:"labels"`
	ImageEnabled     bool     `json:"image_enabled"`
	SampleStore      bool     `json:"sample_store"`
}
