package emotionService

import (
	"JoyverseEmotion/internal/api/emotion"
	emotionRepository "JoyverseEmotion/internal/api/emotion/repository"
	"JoyverseEmotion/internal/entity"
	"JoyverseEmotion/pkg/inference"
	"JoyverseEmotion/pkg/redis"
	"JoyverseEmotion/pkg/utils"
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IEmotionService interface {
	DetectEmotion(ctx context.Context, landmarks []float64) (inference.Prediction, error)
	DetectEmotionFromImage(ctx context.Context, data []byte) (inference.Prediction, error)
	ModelStatus() ModelStatus

	RecordSample(ctx context.Context, req emotion.RecordSampleRequest) (entity.RecordedSample, error)
	SuggestDifficulty(ctx context.Context, req emotion.DifficultyRequest) (entity.Difficulty, error)
	GetSessionSamples(ctx context.Context, sessionID string) ([]entity.EmotionSample, error)
	GetSessionSummary(ctx context.Context, sessionID string) (entity.SessionSummary, error)
	GetLatestEmotion(ctx context.Context, sessionID string) (entity.EmotionSample, error)
}

// Predictor is the loaded inference pipeline.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (inference.Prediction, error)
	Available() bool
	ExpectedSize() int
	Policy() inference.NormalizationPolicy
	Labels() []string
	Connected() bool
}

// LandmarkDetector turns a face image into the landmark vector the
// classifier expects.
type LandmarkDetector interface {
	Landmarks(ctx context.Context, img image.Image) ([]float64, error)
}

// ModelInfo describes what the loaded classifier consumes.
type ModelInfo struct {
	Backend   string
	InputKind string
	ImageSize int
	Layout    string
}

type ModelStatus struct {
	Loaded        bool
	Connected     bool
	Backend       string
	InputKind     string
	ExpectedInput int
	Normalization string
	Labels        []string
	ImageEnabled  bool
	SampleStore   bool
}

type emotionService struct {
	log       *logrus.Logger
	predictor Predictor
	detector  LandmarkDetector
	model     ModelInfo
	repo      emotionRepository.Repository
	cache     redis.IRedis
	utils     utils.IUtils
}

// NewEmotionService wires detection and sample recording. detector, repo and
// cache are optional and may be nil.
func NewEmotionService(
	log *logrus.Logger,
	predictor Predictor,
	detector LandmarkDetector,
	model ModelInfo,
	repo emotionRepository.Repository,
	cache redis.IRedis,
	utils utils.IUtils,
) IEmotionService {
	return &emotionService{
		log:       log,
		predictor: predictor,
		detector:  detector,
		model:     model,
		repo:      repo,
		cache:     cache,
		utils:     utils,
	}
}
