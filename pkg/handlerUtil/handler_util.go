package handlerUtil

import (
	"JoyverseEmotion/internal/api/emotion"
	"JoyverseEmotion/pkg/inference"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/response"
	"JoyverseEmotion/pkg/utils"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Status maps an error to the HTTP status and detail message sent back.
// It is the only place inference and domain errors become status codes.
func Status(err error) (int, string) {
	var invalid *inference.InvalidInputError
	if errors.As(err, &invalid) {
		return fiber.StatusBadRequest, invalid.Error()
	}

	var unavailable *inference.ModelUnavailableError
	if errors.As(err, &unavailable) {
		return fiber.StatusInternalServerError, unavailable.Error()
	}

	var failed *inference.InferenceError
	if errors.As(err, &failed) {
		return fiber.StatusInternalServerError, failed.Error()
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Code, respErr.Error()
	}

	switch {
	case errors.Is(err, utils.ErrNoFile):
		return fiber.StatusBadRequest, emotion.ErrImageRequired.Error()
	case errors.Is(err, utils.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, utils.ErrNotAnImage):
		return fiber.StatusBadRequest, emotion.ErrInvalidImage.Error()
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, "An unexpected error occurred"
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	code, detail := Status(err)

	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"code":       code,
		"path":       path,
		"operation":  operation,
	}

	if code >= fiber.StatusInternalServerError {
		traceID := log.ErrorWithTraceID(h.logger, fields, "Operation failed")
		return c.Status(code).JSON(response.Detail{Detail: detail, TraceID: traceID})
	}

	h.logger.WithFields(fields).Warn("Operation failed with error response")
	return c.Status(code).JSON(response.Detail{Detail: detail})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(response.Detail{
		Detail: "Validation failed: " + err.Error(),
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(response.Detail{
		Detail: "Request timed out",
	})
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(response.Detail{Detail: message})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
