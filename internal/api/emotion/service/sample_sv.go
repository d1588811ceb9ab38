package emotionService

import (
	"JoyverseEmotion/internal/api/emotion"
	"JoyverseEmotion/internal/entity"
	contextPkg "JoyverseEmotion/pkg/context"
	"JoyverseEmotion/pkg/redis"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"strings"
	"time"
)

func (s *emotionService) RecordSample(ctx context.Context, req emotion.RecordSampleRequest) (entity.RecordedSample, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.repo == nil {
		return entity.RecordedSample{}, emotion.ErrSampleStoreUnavailable
	}

	label := strings.ToLower(req.Emotion)
	if !entity.IsValidEmotion(label) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"emotion":    req.Emotion,
		}).Warn("Invalid emotion label")
		return entity.RecordedSample{}, emotion.ErrInvalidEmotion
	}

	current := entity.DifficultyEasy
	if req.Difficulty != "" {
		if !entity.IsValidDifficulty(req.Difficulty) {
			return entity.RecordedSample{}, emotion.ErrInvalidDifficulty
		}
		current = entity.Difficulty(req.Difficulty)
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.RecordedSample{}, err
	}

	now := time.Now()
	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.RecordedSample{}, err
	}

	sample := entity.EmotionSample{
		ID:          ULID,
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		RoundNumber: req.RoundNumber,
		Emotion:     label,
		Confidence:  req.Confidence,
		Difficulty:  string(current),
		Word:        req.Word,
		TimeTakenMs: req.TimeTakenMs,
		CreatedAt:   now,
	}

	if err := repo.Samples.CreateSample(ctx, sample); err != nil {
		return entity.RecordedSample{}, emotion.ErrInternalServerError
	}

	if s.cache != nil {
		if err := s.cache.SetLatestEmotion(ctx, sample); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sample.SessionID,
				"error":      err.Error(),
			}).Warn("Failed to cache latest emotion")
		}
	}

	next, changed := NextDifficulty(current, entity.Emotion(label), req.Confidence)

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"session_id":      sample.SessionID,
		"emotion":         sample.Emotion,
		"difficulty":      current,
		"next_difficulty": next,
	}).Info("Emotion sample recorded")

	return entity.RecordedSample{
		Sample:            sample,
		NextDifficulty:    next,
		DifficultyChanged: changed,
	}, nil
}

func (s *emotionService) GetSessionSamples(ctx context.Context, sessionID string) ([]entity.EmotionSample, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.repo == nil {
		return nil, emotion.ErrSampleStoreUnavailable
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	samples, err := repo.Samples.GetSamplesBySession(ctx, sessionID)
	if err != nil {
		return nil, emotion.ErrInternalServerError
	}
	if len(samples) == 0 {
		return nil, emotion.ErrSessionNotFound
	}

	return samples, nil
}

func (s *emotionService) GetSessionSummary(ctx context.Context, sessionID string) (entity.SessionSummary, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.repo == nil {
		return entity.SessionSummary{}, emotion.ErrSampleStoreUnavailable
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.SessionSummary{}, err
	}

	counts, err := repo.Samples.CountEmotionsBySession(ctx, sessionID)
	if err != nil {
		return entity.SessionSummary{}, emotion.ErrInternalServerError
	}
	if len(counts) == 0 {
		return entity.SessionSummary{}, emotion.ErrSessionNotFound
	}

	return Summarize(sessionID, counts), nil
}

// Summarize totals per-emotion counts. The dominant emotion is the most
// frequent one; ties go to the higher average confidence, then to the
// alphabetically first label.
func Summarize(sessionID string, counts []entity.EmotionCount) entity.SessionSummary {
	summary := entity.SessionSummary{
		SessionID: sessionID,
		Emotions:  counts,
	}

	var dominant *entity.EmotionCount
	for i := range counts {
		c := &counts[i]
		summary.TotalSamples += c.Count

		switch {
		case dominant == nil,
			c.Count > dominant.Count,
			c.Count == dominant.Count && c.AvgConfidence > dominant.AvgConfidence,
			c.Count == dominant.Count && c.AvgConfidence == dominant.AvgConfidence && c.Emotion < dominant.Emotion:
			dominant = c
		}
	}

	if dominant != nil {
		summary.DominantEmotion = dominant.Emotion
	}

	return summary
}

// GetLatestEmotion reads the cached latest sample and falls back to the
// database when the cache misses or is not configured.
func (s *emotionService) GetLatestEmotion(ctx context.Context, sessionID string) (entity.EmotionSample, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.cache == nil && s.repo == nil {
		return entity.EmotionSample{}, emotion.ErrSampleStoreUnavailable
	}

	if s.cache != nil {
		sample, err := s.cache.GetLatestEmotion(ctx, sessionID)
		if err == nil {
			return sample, nil
		}
		if !errors.Is(err, redis.ErrNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Latest emotion cache lookup failed")
		}
	}

	if s.repo == nil {
		return entity.EmotionSample{}, emotion.ErrLatestNotFound
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.EmotionSample{}, err
	}

	sample, err := repo.Samples.GetLatestBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, emotion.ErrLatestNotFound) {
			return entity.EmotionSample{}, err
		}
		return entity.EmotionSample{}, emotion.ErrInternalServerError
	}

	return sample, nil
}
