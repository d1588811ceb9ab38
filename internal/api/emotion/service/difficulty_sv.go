package emotionService

import (
	"JoyverseEmotion/internal/api/emotion"
	"JoyverseEmotion/internal/entity"
	"JoyverseEmotion/pkg/log"
	"strings"

	"golang.org/x/net/context"
)

// DefaultDifficultyConfidence stands in for a missing confidence score.
const DefaultDifficultyConfidence = 0.5

// NextDifficulty steps the current difficulty one level after a recorded
// round. Confident positive emotions step up (easy above 0.7, medium above
// 0.8); confident negative ones step down (hard above 0.6, medium above 0.7).
func NextDifficulty(current entity.Difficulty, e entity.Emotion, confidence float64) (entity.Difficulty, bool) {
	switch entity.PolarityOf(e) {
	case entity.PolarityPositive:
		switch {
		case current == entity.DifficultyEasy && confidence > 0.7:
			return entity.DifficultyMedium, true
		case current == entity.DifficultyMedium && confidence > 0.8:
			return entity.DifficultyHard, true
		}
	case entity.PolarityNegative:
		switch {
		case current == entity.DifficultyHard && confidence > 0.6:
			return entity.DifficultyMedium, true
		case current == entity.DifficultyMedium && confidence > 0.7:
			return entity.DifficultyEasy, true
		}
	}
	return current, false
}

// DifficultyForEmotion picks a difficulty from a single reading without any
// history.
func DifficultyForEmotion(e entity.Emotion, confidence float64) entity.Difficulty {
	switch entity.PolarityOf(e) {
	case entity.PolarityPositive:
		if confidence > 0.7 {
			return entity.DifficultyHard
		}
		return entity.DifficultyMedium
	case entity.PolarityNegative:
		if confidence > 0.6 {
			return entity.DifficultyMedium
		}
		return entity.DifficultyEasy
	default:
		return entity.DifficultyMedium
	}
}

func (s *emotionService) SuggestDifficulty(ctx context.Context, req emotion.DifficultyRequest) (entity.Difficulty, error) {
	label := strings.ToLower(req.Emotion)
	if !entity.IsValidEmotion(label) {
		log.WithRequestID(s.log, ctx).WithField("emotion", req.Emotion).Warn("Invalid emotion label")
		return "", emotion.ErrInvalidEmotion
	}

	confidence := DefaultDifficultyConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	return DifficultyForEmotion(entity.Emotion(label), confidence), nil
}
