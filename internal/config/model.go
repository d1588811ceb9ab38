package config

import (
	emotionService "JoyverseEmotion/internal/api/emotion/service"
	"JoyverseEmotion/internal/entity"
	"JoyverseEmotion/pkg/facemesh"
	"JoyverseEmotion/pkg/inference"
	"JoyverseEmotion/pkg/onnx"
	"JoyverseEmotion/pkg/remote"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"strings"
	"time"
)

const (
	BackendONNX = "onnx"
	BackendHTTP = "http"
	BackendWS   = "ws"

	defaultLandmarkInputSize = 936
)

type ModelConfig struct {
	Backend           string
	ModelPath         string
	MetadataPath      string
	LabelEncoderPath  string
	Normalization     string
	MeanPath          string
	StdPath           string
	InputSize         int
	RemoteURL         string
	RemoteTimeout     time.Duration
	ONNXLibPath       string
	IntraOpThreads    int
	FaceMeshModelPath string
	FaceMeshMetaPath  string
	FaceMeshThreshold float64
	Required          bool
}

func LoadModelConfig() (ModelConfig, error) {
	cfg := ModelConfig{
		Backend:           strings.ToLower(getEnv("MODEL_BACKEND", BackendONNX)),
		ModelPath:         getEnv("MODEL_PATH", "models/fer_landmarks.onnx"),
		MetadataPath:      getEnv("MODEL_METADATA_PATH", "models/fer_landmarks.json"),
		LabelEncoderPath:  getEnv("LABEL_ENCODER_PATH", ""),
		Normalization:     getEnv("NORMALIZATION", ""),
		MeanPath:          getEnv("NORMALIZATION_MEAN_PATH", "models/mean.npy"),
		StdPath:           getEnv("NORMALIZATION_STD_PATH", "models/std.npy"),
		InputSize:         getEnvInt("MODEL_INPUT_SIZE", defaultLandmarkInputSize),
		RemoteURL:         getEnv("MODEL_REMOTE_URL", ""),
		RemoteTimeout:     getEnvDuration("MODEL_REMOTE_TIMEOUT", 5*time.Second),
		ONNXLibPath:       getEnv("ONNXRUNTIME_LIB_PATH", ""),
		IntraOpThreads:    getEnvInt("ONNX_INTRA_OP_THREADS", 0),
		FaceMeshModelPath: getEnv("FACEMESH_MODEL_PATH", ""),
		FaceMeshMetaPath:  getEnv("FACEMESH_METADATA_PATH", ""),
		FaceMeshThreshold: getEnvFloat("FACEMESH_PRESENCE_THRESHOLD", facemesh.DefaultPresenceThreshold),
		Required:          getEnvBool("MODEL_REQUIRED", false),
	}

	switch cfg.Backend {
	case BackendONNX:
	case BackendHTTP, BackendWS:
		if cfg.RemoteURL == "" {
			return ModelConfig{}, fmt.Errorf("MODEL_REMOTE_URL is required for the %s backend", cfg.Backend)
		}
	default:
		return ModelConfig{}, fmt.Errorf("unknown MODEL_BACKEND %q", cfg.Backend)
	}

	if cfg.InputSize <= 0 {
		return ModelConfig{}, fmt.Errorf("MODEL_INPUT_SIZE must be positive, got %d", cfg.InputSize)
	}
	if _, err := inference.ParseNormalizationPolicy(cfg.Normalization); err != nil {
		return ModelConfig{}, err
	}

	return cfg, nil
}

// LoadedModel is everything the detection routes read at request time. It is
// built once and never mutated.
type LoadedModel struct {
	Pipeline *inference.Pipeline
	FaceMesh *facemesh.Detector
	Info     emotionService.ModelInfo
	usesONNX bool
}

// LoadModel builds the inference pipeline. When loading fails and the model is
// not required, the returned pipeline reports ModelUnavailableError on every
// prediction.
func LoadModel(cfg ModelConfig, log *logrus.Logger) (*LoadedModel, error) {
	loaded := &LoadedModel{
		Info: emotionService.ModelInfo{
			Backend:   cfg.Backend,
			InputKind: onnx.InputKindLandmarks,
		},
	}

	pipeline, err := loaded.buildPipeline(cfg, log)
	if err != nil {
		if cfg.Required {
			loaded.Close()
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"backend": cfg.Backend,
			"error":   err.Error(),
		}).Error("Model failed to load, serving without a model")
		pipeline = inference.NewUnavailablePipeline(err, cfg.InputSize)
	}
	loaded.Pipeline = pipeline

	if cfg.FaceMeshModelPath != "" && loaded.Info.InputKind == onnx.InputKindLandmarks {
		detector, err := loaded.buildFaceMesh(cfg)
		if err != nil {
			log.WithError(err).Warn("Face mesh unavailable, image detection disabled")
		} else {
			loaded.FaceMesh = detector
		}
	}

	log.WithFields(logrus.Fields{
		"backend":       cfg.Backend,
		"loaded":        pipeline.Available(),
		"input_kind":    loaded.Info.InputKind,
		"expected_size": pipeline.ExpectedSize(),
		"normalization": pipeline.Policy(),
		"face_mesh":     loaded.FaceMesh != nil,
	}).Info("Emotion model ready")

	return loaded, nil
}

func (m *LoadedModel) buildPipeline(cfg ModelConfig, log *logrus.Logger) (*inference.Pipeline, error) {
	var (
		classifier inference.Classifier
		classes    []string
		policyName = cfg.Normalization
	)

	switch cfg.Backend {
	case BackendONNX:
		if err := m.initONNX(cfg); err != nil {
			return nil, err
		}

		meta, err := onnx.LoadMetadata(cfg.MetadataPath)
		if err != nil {
			return nil, err
		}

		session, err := onnx.NewClassifier(cfg.ModelPath, meta, cfg.IntraOpThreads)
		if err != nil {
			return nil, err
		}
		classifier = session
		classes = meta.Classes
		if policyName == "" {
			policyName = meta.Normalization
		}

		m.Info.InputKind = meta.InputKind
		m.Info.Layout = meta.Layout
		m.Info.ImageSize = meta.ImageSize
	case BackendHTTP:
		client := remote.NewHTTPClassifier(cfg.RemoteURL, cfg.InputSize, cfg.RemoteTimeout, log)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout)
		defer cancel()
		if err := client.CheckHealth(ctx); err != nil {
			log.WithError(err).Warn("Remote model server is not healthy yet")
		}
		classifier = client
	case BackendWS:
		classifier = remote.NewWSClassifier(cfg.RemoteURL, cfg.InputSize, log)
	}

	labels, err := loadLabels(cfg.LabelEncoderPath, classes)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	policy, err := inference.ParseNormalizationPolicy(policyName)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	var opts []inference.Option
	if policy == inference.NormalizeStandardize {
		stats, err := inference.LoadNormalizationStats(cfg.MeanPath, cfg.StdPath)
		if err != nil {
			classifier.Close()
			return nil, err
		}
		opts = append(opts, inference.WithStandardization(stats))
	}

	pipeline, err := inference.NewPipeline(classifier, labels, opts...)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	return pipeline, nil
}

func loadLabels(path string, classes []string) (*inference.LabelEncoder, error) {
	switch {
	case path != "":
		return inference.LoadLabelEncoder(path)
	case len(classes) > 0:
		return inference.NewLabelEncoder(classes)
	default:
		return inference.NewLabelEncoder(entity.DefaultEmotionLabels)
	}
}

func (m *LoadedModel) buildFaceMesh(cfg ModelConfig) (*facemesh.Detector, error) {
	if cfg.FaceMeshMetaPath == "" {
		return nil, errors.New("FACEMESH_METADATA_PATH is required with FACEMESH_MODEL_PATH")
	}
	if err := m.initONNX(cfg); err != nil {
		return nil, err
	}

	meta, err := onnx.LoadMetadata(cfg.FaceMeshMetaPath)
	if err != nil {
		return nil, err
	}

	session, err := onnx.NewSession(cfg.FaceMeshModelPath, meta, cfg.IntraOpThreads)
	if err != nil {
		return nil, err
	}

	detector, err := facemesh.NewDetector(session, cfg.FaceMeshThreshold)
	if err != nil {
		session.Close()
		return nil, err
	}

	return detector, nil
}

func (m *LoadedModel) initONNX(cfg ModelConfig) error {
	if err := onnx.InitEnvironment(cfg.ONNXLibPath); err != nil {
		return err
	}
	m.usesONNX = true
	return nil
}

// Close releases sessions, remote connections and the ONNX environment.
func (m *LoadedModel) Close() error {
	var errs []error
	if m.Pipeline != nil {
		errs = append(errs, m.Pipeline.Close())
	}
	if m.FaceMesh != nil {
		errs = append(errs, m.FaceMesh.Close())
	}
	if m.usesONNX {
		errs = append(errs, onnx.DestroyEnvironment())
	}
	return errors.Join(errs...)
}
