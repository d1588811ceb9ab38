package emotionService

import (
	"JoyverseEmotion/internal/api/emotion"
	contextPkg "JoyverseEmotion/pkg/context"
	"JoyverseEmotion/pkg/facemesh"
	"JoyverseEmotion/pkg/imageproc"
	"JoyverseEmotion/pkg/inference"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/onnx"
	"bytes"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *emotionService) DetectEmotion(ctx context.Context, landmarks []float64) (inference.Prediction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	// An unloaded model is reported before any input problem.
	if len(landmarks) == 0 && s.predictor.Available() {
		return inference.Prediction{}, emotion.ErrNoLandmarks
	}

	prediction, err := s.predictor.Predict(ctx, landmarks)
	if err != nil {
		s.logPredictError(ctx, err)
		return inference.Prediction{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"emotion":    prediction.Label,
		"confidence": prediction.Confidence,
	}).Debug("Emotion detected")

	return prediction, nil
}

// DetectEmotionFromImage feeds an uploaded photo either straight into an
// image classifier or through the face mesh into a landmark classifier.
func (s *emotionService) DetectEmotionFromImage(ctx context.Context, data []byte) (inference.Prediction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(data) == 0 {
		return inference.Prediction{}, emotion.ErrImageRequired
	}
	if !s.imageEnabled() {
		return inference.Prediction{}, emotion.ErrImageUnsupported
	}

	img, err := imageproc.Decode(bytes.NewReader(data))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to decode uploaded image")
		return inference.Prediction{}, emotion.ErrInvalidImage
	}

	var features []float64
	if s.model.InputKind == onnx.InputKindImage {
		tensor, err := imageproc.Prepare(img, s.model.ImageSize, s.model.Layout)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to prepare image tensor")
			return inference.Prediction{}, emotion.ErrInternalServerError
		}
		features = make([]float64, len(tensor))
		for i, v := range tensor {
			features[i] = float64(v)
		}
	} else {
		features, err = s.detector.Landmarks(ctx, img)
		if err != nil {
			if errors.Is(err, facemesh.ErrNoFace) {
				return inference.Prediction{}, emotion.ErrNoFace
			}
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Face mesh extraction failed")
			return inference.Prediction{}, &inference.InferenceError{Op: "face mesh", Err: err}
		}
	}

	prediction, err := s.predictor.Predict(ctx, features)
	if err != nil {
		s.logPredictError(ctx, err)
		return inference.Prediction{}, err
	}

	return prediction, nil
}

func (s *emotionService) imageEnabled() bool {
	if s.model.InputKind == onnx.InputKindImage {
		return s.model.ImageSize > 0
	}
	return s.detector != nil
}

func (s *emotionService) ModelStatus() ModelStatus {
	return ModelStatus{
		Loaded:        s.predictor.Available(),
		Connected:     s.predictor.Connected(),
		Backend:       s.model.Backend,
		InputKind:     s.model.InputKind,
		ExpectedInput: s.predictor.ExpectedSize(),
		Normalization: string(s.predictor.Policy()),
		Labels:        s.predictor.Labels(),
		ImageEnabled:  s.imageEnabled(),
		SampleStore:   s.repo != nil,
	}
}

func (s *emotionService) logPredictError(ctx context.Context, err error) {
	entry := log.WithRequestID(s.log, ctx).WithField("error", err.Error())

	switch {
	case inference.IsInvalidInput(err):
		entry.Warn("Rejected landmark vector")
	case inference.IsModelUnavailable(err):
		entry.Error("Prediction requested without a loaded model")
	default:
		entry.Error("Emotion detection failed")
	}
}
