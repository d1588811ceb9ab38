package emotionHandler

import (
	"JoyverseEmotion/internal/api/emotion"
	emotionService "JoyverseEmotion/internal/api/emotion/service"
	contextPkg "JoyverseEmotion/pkg/context"
	"JoyverseEmotion/pkg/handlerUtil"
	"JoyverseEmotion/pkg/inference"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/onnx"
	"fmt"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

const homePage = `<html>
	<head><title>Landmark-based Emotion Detection</title></head>
	<body>
		<h1>Landmark-based Emotion Detection API</h1>
		<p>This API detects emotions from facial landmarks.</p>
		<p>Send POST requests to /detect_emotion with landmarks data.</p>
	</body>
</html>`

func (h *EmotionHandler) Home(ctx *fiber.Ctx) error {
	ctx.Type("html")
	return ctx.SendString(homePage)
}

func (h *EmotionHandler) Health(ctx *fiber.Ctx) error {
	status := h.emotionService.ModelStatus()

	health := "healthy"
	if !status.Loaded || !status.Connected {
		health = "degraded"
	}

	labels := status.Labels
	if labels == nil {
		labels = []string{}
	}

	return ctx.JSON(emotion.HealthResponse{
		Status:           health,
		ModelLoaded:      status.Loaded,
		BackendConnected: status.Connected,
		ModelType:        fmt.Sprintf("%s (%s)", status.Backend, status.InputKind),
		ExpectedInput:    expectedInput(status),
		Normalization:    status.Normalization,
		Labels:           labels,
		ImageEnabled:     status.ImageEnabled,
		SampleStore:      status.SampleStore,
	})
}

func expectedInput(status emotionService.ModelStatus) string {
	if status.InputKind == onnx.InputKindImage {
		return fmt.Sprintf("%d image values", status.ExpectedInput)
	}
	return fmt.Sprintf("%d facial landmarks", status.ExpectedInput)
}

func (h *EmotionHandler) DetectEmotion(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing detect emotion request")

	var req emotion.DetectEmotionRequest
	if body := ctx.Body(); len(body) > 0 {
		if err := jsoniter.Unmarshal(body, &req); err != nil {
			return errHandler.Handle(ctx, requestID, fmt.Errorf("%w: %v", emotion.ErrInvalidBody, err), ctx.Path(), "parse_request_body")
		}
	}

	prediction, err := h.emotionService.DetectEmotion(c, req.Landmarks)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_emotion")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, toDetectResponse(prediction, ctx.QueryBool("verbose")))
	}
}

func (h *EmotionHandler) DetectEmotionFromImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, emotion.ErrImageRequired, ctx.Path(), "read_form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing image emotion request")

	if err := h.utils.ValidateImageFile(file); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
	}

	data, err := h.utils.ReadUploadedFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
	}

	prediction, err := h.emotionService.DetectEmotionFromImage(c, data)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_emotion_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, toDetectResponse(prediction, ctx.QueryBool("verbose")))
	}
}

func toDetectResponse(p inference.Prediction, verbose bool) emotion.DetectEmotionResponse {
	resp := emotion.DetectEmotionResponse{
		Emotion:    p.Label,
		Confidence: p.Confidence,
	}
	if verbose {
		resp.Probabilities = p.Probabilities
	}
	return resp
}
