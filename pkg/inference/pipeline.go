package inference

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/net/context"
)

// Prediction is the result of a single forward pass.
type Prediction struct {
	Label         string
	Confidence    float64
	Probabilities map[string]float64
}

// Pipeline is the immutable service context built once at startup: the
// loaded classifier, its label encoder and the normalization policy it was
// trained with. All methods are safe for concurrent use.
type Pipeline struct {
	classifier Classifier
	labels     *LabelEncoder
	stats      *NormalizationStats
	policy     NormalizationPolicy
	inputSize  int
	loadErr    error
}

type Option func(*Pipeline) error

// WithStandardization enables mean/std feature scaling. The stats must match
// the classifier input size.
func WithStandardization(stats *NormalizationStats) Option {
	return func(p *Pipeline) error {
		if stats == nil {
			return fmt.Errorf("standardization requires normalization stats")
		}
		p.stats = stats
		p.policy = NormalizeStandardize
		return nil
	}
}

func NewPipeline(classifier Classifier, labels *LabelEncoder, opts ...Option) (*Pipeline, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if labels == nil {
		return nil, fmt.Errorf("label encoder is required")
	}

	p := &Pipeline{
		classifier: classifier,
		labels:     labels,
		policy:     NormalizeNone,
		inputSize:  classifier.InputSize(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.inputSize <= 0 {
		return nil, fmt.Errorf("classifier reports invalid input size %d", p.inputSize)
	}
	if p.stats != nil && p.stats.Len() != p.inputSize {
		return nil, fmt.Errorf("normalization stats have %d features, model expects %d", p.stats.Len(), p.inputSize)
	}

	return p, nil
}

// NewUnavailablePipeline returns a pipeline that fails every prediction with
// ModelUnavailableError. It is used when startup loading failed but the
// process keeps serving health checks.
func NewUnavailablePipeline(cause error, inputSize int) *Pipeline {
	return &Pipeline{
		policy:    NormalizeNone,
		inputSize: inputSize,
		loadErr:   cause,
	}
}

func (p *Pipeline) Available() bool {
	return p != nil && p.classifier != nil && p.labels != nil
}

func (p *Pipeline) LoadError() error {
	if p == nil {
		return errors.New("pipeline not initialized")
	}
	return p.loadErr
}

func (p *Pipeline) ExpectedSize() int {
	return p.inputSize
}

func (p *Pipeline) Policy() NormalizationPolicy {
	return p.policy
}

func (p *Pipeline) Labels() []string {
	if p.labels == nil {
		return nil
	}
	return p.labels.Classes()
}

// Connected reports whether the classifier can currently serve requests.
// Classifiers without a persistent connection are connected once loaded.
func (p *Pipeline) Connected() bool {
	if !p.Available() {
		return false
	}
	if conn, ok := p.classifier.(Connector); ok {
		return conn.IsConnected()
	}
	return true
}

// Predict runs validation, normalization, the forward pass, softmax and label
// lookup for one feature vector.
func (p *Pipeline) Predict(ctx context.Context, features []float64) (pred Prediction, err error) {
	if !p.Available() {
		return Prediction{}, &ModelUnavailableError{Cause: p.LoadError()}
	}

	if err := p.validate(features); err != nil {
		return Prediction{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			pred = Prediction{}
			err = &InferenceError{Op: "forward", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	input := make([]float64, len(features))
	if p.policy == NormalizeStandardize {
		p.stats.Apply(input, features)
	} else {
		copy(input, features)
	}

	batch := make([]float32, len(input))
	for i, v := range input {
		if !fitsFloat32(v) {
			return Prediction{}, &InvalidInputError{
				Expected: p.inputSize,
				Actual:   len(features),
				Reason:   fmt.Sprintf("Landmark %d is out of range after normalization", i),
			}
		}
		batch[i] = float32(v)
	}

	if err := ctx.Err(); err != nil {
		return Prediction{}, &InferenceError{Op: "forward", Err: err}
	}

	out, err := p.classifier.Forward(ctx, batch)
	if err != nil {
		return Prediction{}, &InferenceError{Op: "forward", Err: err}
	}

	if len(out) != p.labels.Len() {
		return Prediction{}, &InferenceError{
			Op:  "output",
			Err: fmt.Errorf("model returned %d logits for %d classes", len(out), p.labels.Len()),
		}
	}

	logits := make([]float64, len(out))
	for i, v := range out {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Prediction{}, &InferenceError{Op: "output", Err: fmt.Errorf("non-finite logit at class %d", i)}
		}
		logits[i] = f
	}

	probs := Softmax(logits)
	idx := Argmax(probs)

	label, err := p.labels.Decode(idx)
	if err != nil {
		return Prediction{}, &InferenceError{Op: "label", Err: err}
	}

	distribution := make(map[string]float64, len(probs))
	for i, prob := range probs {
		name, _ := p.labels.Decode(i)
		distribution[name] = RoundConfidence(prob)
	}

	return Prediction{
		Label:         label,
		Confidence:    RoundConfidence(probs[idx]),
		Probabilities: distribution,
	}, nil
}

func (p *Pipeline) validate(features []float64) error {
	if len(features) != p.inputSize {
		return &InvalidInputError{Expected: p.inputSize, Actual: len(features)}
	}

	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{
				Expected: p.inputSize,
				Actual:   len(features),
				Reason:   fmt.Sprintf("Landmark %d is not a finite number", i),
			}
		}
		if !fitsFloat32(v) {
			return &InvalidInputError{
				Expected: p.inputSize,
				Actual:   len(features),
				Reason:   fmt.Sprintf("Landmark %d is out of range", i),
			}
		}
	}

	return nil
}

// fitsFloat32 reports whether v survives the float32 tensor conversion
// without becoming infinite.
func fitsFloat32(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= math.MaxFloat32
}

func (p *Pipeline) Close() error {
	if p.classifier == nil {
		return nil
	}
	return p.classifier.Close()
}
