package emotionHandler

import (
	"JoyverseEmotion/internal/api/emotion"
	emotionService "JoyverseEmotion/internal/api/emotion/service"
	"JoyverseEmotion/internal/entity"
	contextPkg "JoyverseEmotion/pkg/context"
	"JoyverseEmotion/pkg/handlerUtil"
	jwtPkg "JoyverseEmotion/pkg/jwt"
	"JoyverseEmotion/pkg/log"
	"errors"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"strings"
	"time"
)

func (h *EmotionHandler) RecordSample(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing record sample request")

	var req emotion.RecordSampleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, emotion.ErrInvalidBody, ctx.Path(), "parse_request_body")
	}

	req.Emotion = strings.ToLower(strings.TrimSpace(req.Emotion))
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	recorded, err := h.emotionService.RecordSample(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "record_sample")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, emotion.RecordSampleResponse{
			SampleResponse:    toSampleResponse(recorded.Sample),
			NextDifficulty:    string(recorded.NextDifficulty),
			DifficultyChanged: recorded.DifficultyChanged,
		})
	}
}

// SuggestDifficulty maps one emotion reading to a difficulty without
// touching the sample store.
func (h *EmotionHandler) SuggestDifficulty(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req emotion.DifficultyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, emotion.ErrInvalidBody, ctx.Path(), "parse_request_body")
	}

	req.Emotion = strings.ToLower(strings.TrimSpace(req.Emotion))
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	difficulty, err := h.emotionService.SuggestDifficulty(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "suggest_difficulty")
	}

	confidence := emotionService.DefaultDifficultyConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, emotion.DifficultyResponse{
			Difficulty: string(difficulty),
			Emotion:    req.Emotion,
			Confidence: confidence,
		})
	}
}

func (h *EmotionHandler) GetSessionSamples(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("session ID is required"), ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"user_id":    userData.ID,
	}).Debug("Processing get session samples request")

	samples, err := h.emotionService.GetSessionSamples(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session_samples")
	}

	response := emotion.SessionSamplesResponse{
		SessionID: sessionID,
		Samples:   make([]emotion.SampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, toSampleResponse(s))
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func (h *EmotionHandler) GetSessionSummary(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := jwtPkg.GetUserLoginData(ctx); err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("session ID is required"), ctx.Path())
	}

	summary, err := h.emotionService.GetSessionSummary(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session_summary")
	}

	response := emotion.SessionSummaryResponse{
		SessionID:       summary.SessionID,
		TotalSamples:    summary.TotalSamples,
		DominantEmotion: summary.DominantEmotion,
		Emotions:        make([]emotion.EmotionCountResponse, 0, len(summary.Emotions)),
	}
	for _, e := range summary.Emotions {
		response.Emotions = append(response.Emotions, emotion.EmotionCountResponse{
			Emotion:       e.Emotion,
			Count:         e.Count,
			AvgConfidence: e.AvgConfidence,
		})
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func (h *EmotionHandler) GetLatestEmotion(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("session ID is required"), ctx.Path())
	}

	sample, err := h.emotionService.GetLatestEmotion(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_latest_emotion")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, toSampleResponse(sample))
	}
}

func toSampleResponse(s entity.EmotionSample) emotion.SampleResponse {
	return emotion.SampleResponse{
		ID:          s.ID,
		SessionID:   s.SessionID,
		UserID:      s.UserID,
		RoundNumber: s.RoundNumber,
		Emotion:     s.Emotion,
		Confidence:  s.Confidence,
		Difficulty:  s.Difficulty,
		Word:        s.Word,
		TimeTakenMs: s.TimeTakenMs,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}
