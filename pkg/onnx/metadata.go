package onnx

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

const (
	InputKindLandmarks = "landmarks"
	InputKindImage     = "image"

	LayoutNCHW = "nchw"
	LayoutNHWC = "nhwc"
)

type TensorSpec struct {
	Name  string  `json:"name"`
	Shape []int64 `json:"shape"`
}

// Metadata describes the exported model next to its .onnx file.
type Metadata struct {
	InputName     string       `json:"input_name"`
	InputShape    []int64      `json:"input_shape"`
	OutputName    string       `json:"output_name"`
	OutputShape   []int64      `json:"output_shape"`
	Outputs       []TensorSpec `json:"outputs"`
	Classes       []string     `json:"classes"`
	ImageSize     int          `json:"image_size"`
	InputKind     string       `json:"input_kind"`
	Layout        string       `json:"layout"`
	Normalization string       `json:"normalization"`
}

func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := jsoniter.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if err := meta.normalize(); err != nil {
		return Metadata{}, err
	}

	return meta, nil
}

func (m *Metadata) normalize() error {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.InputKind == "" {
		m.InputKind = InputKindLandmarks
	}
	if m.Layout == "" {
		m.Layout = LayoutNCHW
	}

	if len(m.Outputs) == 0 {
		name := m.OutputName
		if name == "" {
			name = "output"
		}
		m.Outputs = []TensorSpec{{Name: name, Shape: m.OutputShape}}
	}

	if len(m.InputShape) == 0 {
		return fmt.Errorf("metadata input_shape is required")
	}
	m.InputShape = batchOfOne(m.InputShape)

	for i := range m.Outputs {
		if len(m.Outputs[i].Shape) == 0 {
			return fmt.Errorf("metadata output %q has no shape", m.Outputs[i].Name)
		}
		m.Outputs[i].Shape = batchOfOne(m.Outputs[i].Shape)
	}

	switch m.InputKind {
	case InputKindLandmarks, InputKindImage:
	default:
		return fmt.Errorf("unknown input_kind %q", m.InputKind)
	}

	switch m.Layout {
	case LayoutNCHW, LayoutNHWC:
	default:
		return fmt.Errorf("unknown layout %q", m.Layout)
	}

	return nil
}

// InputSize is the number of features of a single item, excluding the batch
// dimension.
func (m Metadata) InputSize() int {
	return itemSize(m.InputShape)
}

func (m Metadata) OutputNames() []string {
	names := make([]string, len(m.Outputs))
	for i, o := range m.Outputs {
		names[i] = o.Name
	}
	return names
}

// batchOfOne pins dynamic dimensions (-1 or 0) to 1.
func batchOfOne(shape []int64) []int64 {
	out := make([]int64, len(shape))
	for i, d := range shape {
		if d <= 0 {
			d = 1
		}
		out[i] = d
	}
	return out
}

func itemSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	dims := shape
	if len(shape) > 1 {
		dims = shape[1:]
	}
	size := int64(1)
	for _, d := range dims {
		size *= d
	}
	return int(size)
}
