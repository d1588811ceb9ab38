package inference

import (
	"errors"
	"math"
	"sync"
	"testing"

	"JoyverseEmotion/internal/entity"

	"golang.org/x/net/context"
)

const landmarkSize = 936

// linearClassifier computes logits = W·x + b with fixed weights.
type linearClassifier struct {
	weights [][]float32
	bias    []float32
	size    int

	mu       sync.Mutex
	lastSeen []float32
	err      error
	panics   bool
	extra    int
}

func newLinearClassifier(size int, classes int) *linearClassifier {
	w := make([][]float32, classes)
	for c := range w {
		w[c] = make([]float32, size)
		for i := range w[c] {
			w[c][i] = float32((c+1)*(i%7+1)) / float32(size*10)
		}
	}
	b := make([]float32, classes)
	for c := range b {
		b[c] = float32(c) * 0.1
	}
	return &linearClassifier{weights: w, bias: b, size: size}
}

func (l *linearClassifier) Forward(_ context.Context, input []float32) ([]float32, error) {
	l.mu.Lock()
	l.lastSeen = append([]float32(nil), input...)
	l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}
	if l.panics {
		panic("tensor shape mismatch")
	}

	out := make([]float32, len(l.weights)+l.extra)
	for c, row := range l.weights {
		sum := l.bias[c]
		for i, w := range row {
			sum += w * input[i]
		}
		out[c] = sum
	}
	return out, nil
}

func (l *linearClassifier) InputSize() int { return l.size }
func (l *linearClassifier) Close() error   { return nil }

func defaultEncoder(t *testing.T) *LabelEncoder {
	t.Helper()
	enc, err := NewLabelEncoder(entity.DefaultEmotionLabels)
	if err != nil {
		t.Fatalf("NewLabelEncoder: %v", err)
	}
	return enc
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPredictReturnsLabelAndConfidence(t *testing.T) {
	p, err := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	inputs := [][]float64{filled(landmarkSize, 0), filled(landmarkSize, 0.5), filled(landmarkSize, 1)}
	for _, in := range inputs {
		pred, err := p.Predict(context.Background(), in)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if !entity.IsValidEmotion(pred.Label) {
			t.Errorf("label %q is not one of the seven emotions", pred.Label)
		}
		if pred.Confidence < 0 || pred.Confidence > 1 {
			t.Errorf("confidence %v outside [0,1]", pred.Confidence)
		}
		if len(pred.Probabilities) != 7 {
			t.Errorf("expected 7 probabilities, got %d", len(pred.Probabilities))
		}
	}
}

func TestPredictRejectsWrongLength(t *testing.T) {
	p, err := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	for _, n := range []int{0, 1, 935, 937, 1404} {
		_, err := p.Predict(context.Background(), filled(n, 0.5))
		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Fatalf("len %d: expected InvalidInputError, got %v", n, err)
		}
		if invalid.Expected != landmarkSize || invalid.Actual != n {
			t.Errorf("len %d: got expected=%d actual=%d", n, invalid.Expected, invalid.Actual)
		}
	}

	_, err = p.Predict(context.Background(), filled(935, 0))
	if err.Error() != "Expected 936 landmarks, got 935" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPredictRejectsNonFiniteValues(t *testing.T) {
	p, _ := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))

	in := filled(landmarkSize, 0.5)
	in[10] = math.NaN()
	if _, err := p.Predict(context.Background(), in); !IsInvalidInput(err) {
		t.Fatalf("expected InvalidInputError for NaN, got %v", err)
	}
}

func TestPredictRejectsValuesBeyondFloat32(t *testing.T) {
	p, _ := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))

	for _, v := range []float64{1e39, -1e39, math.MaxFloat64} {
		in := filled(landmarkSize, 0.5)
		in[3] = v
		_, err := p.Predict(context.Background(), in)
		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Fatalf("%g: expected InvalidInputError, got %v", v, err)
		}
		if invalid.Error() != "Landmark 3 is out of range" {
			t.Errorf("%g: unexpected message %q", v, invalid.Error())
		}
	}

	in := filled(landmarkSize, 0.5)
	in[3] = math.MaxFloat32
	if _, err := p.Predict(context.Background(), in); IsInvalidInput(err) {
		t.Errorf("MaxFloat32 should be accepted, got %v", err)
	}
}

func TestPredictRejectsOverflowAfterStandardization(t *testing.T) {
	stats, err := NewNormalizationStats(filled(landmarkSize, 0), filled(landmarkSize, 0))
	if err != nil {
		t.Fatalf("NewNormalizationStats: %v", err)
	}

	clf := newLinearClassifier(landmarkSize, 7)
	p, err := NewPipeline(clf, defaultEncoder(t), WithStandardization(stats))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	in := filled(landmarkSize, 0.5)
	in[7] = 1e37

	_, err = p.Predict(context.Background(), in)
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if invalid.Error() != "Landmark 7 is out of range after normalization" {
		t.Errorf("unexpected message %q", invalid.Error())
	}
	if clf.lastSeen != nil {
		t.Error("classifier should not run on overflowing input")
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	p, _ := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))
	in := filled(landmarkSize, 0.37)

	first, err := p.Predict(context.Background(), in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	second, err := p.Predict(context.Background(), in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if first.Label != second.Label || first.Confidence != second.Confidence {
		t.Fatalf("predictions differ: %+v vs %+v", first, second)
	}
	for k, v := range first.Probabilities {
		if second.Probabilities[k] != v {
			t.Errorf("probability for %s differs: %v vs %v", k, v, second.Probabilities[k])
		}
	}
}

func TestZeroInputProducesGoldenOutput(t *testing.T) {
	clf := newLinearClassifier(landmarkSize, 7)
	p, _ := NewPipeline(clf, defaultEncoder(t))

	pred, err := p.Predict(context.Background(), filled(landmarkSize, 0))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// With a zero input the logits are the bias [0, 0.1, ..., 0.6].
	logits := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	probs := Softmax(logits)

	if pred.Label != "surprise" {
		t.Errorf("expected surprise for the largest bias, got %s", pred.Label)
	}
	if pred.Confidence != RoundConfidence(probs[6]) {
		t.Errorf("expected confidence %v, got %v", RoundConfidence(probs[6]), pred.Confidence)
	}
	if pred.Confidence != 0.189 {
		t.Errorf("golden confidence changed: %v", pred.Confidence)
	}
}

func TestStandardizationFeedsScaledFeatures(t *testing.T) {
	mean := filled(landmarkSize, 0.5)
	std := filled(landmarkSize, 0.25)
	stats, err := NewNormalizationStats(mean, std)
	if err != nil {
		t.Fatalf("NewNormalizationStats: %v", err)
	}

	clf := newLinearClassifier(landmarkSize, 7)
	p, err := NewPipeline(clf, defaultEncoder(t), WithStandardization(stats))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.Policy() != NormalizeStandardize {
		t.Fatalf("expected standardize policy, got %s", p.Policy())
	}

	in := filled(landmarkSize, 0.5)
	in[0] = 1.0
	if _, err := p.Predict(context.Background(), in); err != nil {
		t.Fatalf("Predict: %v", err)
	}

	want := float32(0.5 / (0.25 + StdEpsilon))
	if math.Abs(float64(clf.lastSeen[0]-want)) > 1e-6 {
		t.Errorf("feature 0: want %v, got %v", want, clf.lastSeen[0])
	}
	if clf.lastSeen[1] != 0 {
		t.Errorf("feature 1: want 0, got %v", clf.lastSeen[1])
	}
}

func TestRawPolicyPassesFeaturesThrough(t *testing.T) {
	clf := newLinearClassifier(landmarkSize, 7)
	p, _ := NewPipeline(clf, defaultEncoder(t))

	in := filled(landmarkSize, 0.25)
	if _, err := p.Predict(context.Background(), in); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i, v := range clf.lastSeen {
		if v != 0.25 {
			t.Fatalf("feature %d altered: %v", i, v)
		}
	}
}

func TestStatsMustMatchInputSize(t *testing.T) {
	stats, _ := NewNormalizationStats(filled(10, 0), filled(10, 1))
	_, err := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t), WithStandardization(stats))
	if err == nil {
		t.Fatal("expected error for mismatched stats")
	}
}

func TestUnavailablePipeline(t *testing.T) {
	cause := errors.New("open model.onnx: no such file")
	p := NewUnavailablePipeline(cause, landmarkSize)

	_, err := p.Predict(context.Background(), filled(landmarkSize, 0.5))
	if !IsModelUnavailable(err) {
		t.Fatalf("expected ModelUnavailableError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
	if err.Error() != "Model not loaded" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

// socketClassifier reports a connection state like the websocket backend.
type socketClassifier struct {
	*linearClassifier
	up bool
}

func (s *socketClassifier) IsConnected() bool { return s.up }

func TestPipelineConnectedAndLabels(t *testing.T) {
	local, err := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if !local.Connected() {
		t.Error("in-process classifier should report connected")
	}
	if got := local.Labels(); len(got) != len(entity.DefaultEmotionLabels) || got[0] != entity.DefaultEmotionLabels[0] {
		t.Errorf("unexpected labels %v", got)
	}

	remote := &socketClassifier{linearClassifier: newLinearClassifier(landmarkSize, 7)}
	p, err := NewPipeline(remote, defaultEncoder(t))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.Connected() {
		t.Error("expected disconnected before the socket is up")
	}
	remote.up = true
	if !p.Connected() {
		t.Error("expected connected once the socket is up")
	}

	down := NewUnavailablePipeline(errors.New("missing"), landmarkSize)
	if down.Connected() || down.Labels() != nil {
		t.Error("unavailable pipeline should report no connection and no labels")
	}
}

func TestInferenceFailures(t *testing.T) {
	boom := errors.New("onnxruntime: run failed")

	tests := []struct {
		name  string
		setup func(*linearClassifier)
	}{
		{"forward error", func(c *linearClassifier) { c.err = boom }},
		{"panic", func(c *linearClassifier) { c.panics = true }},
		{"output size", func(c *linearClassifier) { c.extra = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := newLinearClassifier(landmarkSize, 7)
			tt.setup(clf)
			p, _ := NewPipeline(clf, defaultEncoder(t))

			_, err := p.Predict(context.Background(), filled(landmarkSize, 0.5))
			if !IsInferenceFailure(err) {
				t.Fatalf("expected InferenceError, got %v", err)
			}
		})
	}

	clf := newLinearClassifier(landmarkSize, 7)
	clf.err = boom
	p, _ := NewPipeline(clf, defaultEncoder(t))
	_, err := p.Predict(context.Background(), filled(landmarkSize, 0.5))
	if !errors.Is(err, boom) {
		t.Errorf("expected underlying cause to be wrapped, got %v", err)
	}
}

func TestPredictHonorsCanceledContext(t *testing.T) {
	p, _ := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, filled(landmarkSize, 0.5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrentPredictions(t *testing.T) {
	p, _ := NewPipeline(newLinearClassifier(landmarkSize, 7), defaultEncoder(t))
	want, _ := p.Predict(context.Background(), filled(landmarkSize, 0.8))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Predict(context.Background(), filled(landmarkSize, 0.8))
			if err != nil || got.Label != want.Label || got.Confidence != want.Confidence {
				t.Errorf("concurrent prediction differs: %+v, %v", got, err)
			}
		}()
	}
	wg.Wait()
}
