package config

import (
	contextPkg "JoyverseEmotion/pkg/context"
	"JoyverseEmotion/pkg/handlerUtil"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/response"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const defaultBodyLimit = 10 * 1024 * 1024

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "Joyverse Emotion",
			BodyLimit:         getEnvInt("APP_BODY_LIMIT", defaultBodyLimit),
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: getEnv("APP_ENV", "") == "development",
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			ErrorHandler:      fiberErrorHandler(logger),
		})

	return app
}

// fiberErrorHandler renders errors that escape handlers, such as unknown
// routes and oversized bodies, in the same {"detail": ...} shape.
func fiberErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, detail := handlerUtil.Status(err)
		if code >= fiber.StatusInternalServerError {
			requestID, _ := c.Locals(contextPkg.RequestIDHeader).(string)
			traceID := log.ErrorWithTraceID(logger, log.Fields{
				log.RequestIDKey: requestID,
				"path":           c.Path(),
				"error":          err.Error(),
			}, "Unhandled error")
			return c.Status(code).JSON(response.Detail{Detail: detail, TraceID: traceID})
		}
		return c.Status(code).JSON(response.Detail{Detail: detail})
	}
}
