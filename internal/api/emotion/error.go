package emotion

import (
	"JoyverseEmotion/pkg/response"
	"net/http"
)

var (
	ErrNoLandmarks            = response.NewError(http.StatusBadRequest, "No landmarks data provided")
	ErrInvalidBody            = response.NewError(http.StatusBadRequest, "Invalid request body")
	ErrImageRequired          = response.NewError(http.StatusBadRequest, "No image provided")
	ErrInvalidImage           = response.NewError(http.StatusBadRequest, "Invalid image file")
	ErrNoFace                 = response.NewError(http.StatusUnprocessableEntity, "No face detected in image")
	ErrImageUnsupported       = response.NewError(http.StatusNotImplemented, "Image detection is not configured")
	ErrInvalidEmotion         = response.NewError(http.StatusBadRequest, "invalid emotion label")
	ErrInvalidDifficulty      = response.NewError(http.StatusBadRequest, "invalid difficulty, must be easy, medium or hard")
	ErrSessionNotFound        = response.NewError(http.StatusNotFound, "session not found")
	ErrLatestNotFound         = response.NewError(http.StatusNotFound, "no emotion recorded for session")
	ErrSampleStoreUnavailable = response.NewError(http.StatusServiceUnavailable, "sample store unavailable")
	ErrInternalServerError    = response.NewError(http.StatusInternalServerError, "internal server error")
)
