package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/net/context"
)

var (
	envOnce sync.Once
	envErr  error
)

// InitEnvironment loads the onnxruntime shared library once per process.
func InitEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return envErr
}

func DestroyEnvironment() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// Session wraps a dynamic onnxruntime session. Tensors are allocated per Run,
// so one Session can serve concurrent requests.
type Session struct {
	session *ort.DynamicAdvancedSession
	meta    Metadata
}

func NewSession(modelPath string, meta Metadata, intraOpThreads int) (*Session, error) {
	if !ort.IsInitialized() {
		return nil, fmt.Errorf("ONNX environment is not initialized")
	}

	var options *ort.SessionOptions
	if intraOpThreads > 0 {
		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}
		defer opts.Destroy()

		if err := opts.SetIntraOpNumThreads(intraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
		options = opts
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{meta.InputName}, meta.OutputNames(), options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{
		session: session,
		meta:    meta,
	}, nil
}

func (s *Session) Metadata() Metadata {
	return s.meta
}

// Run executes the graph on one input item and returns a copy of every
// declared output.
func (s *Session) Run(ctx context.Context, input []float32) ([][]float32, error) {
	if len(input) != s.meta.InputSize() {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), s.meta.InputSize())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := make([]float32, len(input))
	copy(data, input)

	inputTensor, err := ort.NewTensor(ort.NewShape(s.meta.InputShape...), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := make([]ort.ArbitraryTensor, len(s.meta.Outputs))
	typed := make([]*ort.Tensor[float32], len(s.meta.Outputs))
	for i, spec := range s.meta.Outputs {
		t, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.Shape...))
		if err != nil {
			for _, created := range typed[:i] {
				created.Destroy()
			}
			return nil, fmt.Errorf("failed to create output tensor %q: %w", spec.Name, err)
		}
		typed[i] = t
		outputs[i] = t
	}
	defer func() {
		for _, t := range typed {
			t.Destroy()
		}
	}()

	if err := s.session.Run([]ort.ArbitraryTensor{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	results := make([][]float32, len(typed))
	for i, t := range typed {
		results[i] = append([]float32(nil), t.GetData()...)
	}

	return results, nil
}

func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	return s.session.Destroy()
}

// Classifier adapts a Session whose first output is the per-class logits.
type Classifier struct {
	*Session
}

func NewClassifier(modelPath string, meta Metadata, intraOpThreads int) (*Classifier, error) {
	session, err := NewSession(modelPath, meta, intraOpThreads)
	if err != nil {
		return nil, err
	}
	return &Classifier{Session: session}, nil
}

func (c *Classifier) Forward(ctx context.Context, input []float32) ([]float32, error) {
	outputs, err := c.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	return outputs[0], nil
}

func (c *Classifier) InputSize() int {
	return c.meta.InputSize()
}
