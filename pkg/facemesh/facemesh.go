package facemesh

import (
	"errors"
	"fmt"
	"image"
	"math"

	"JoyverseEmotion/pkg/imageproc"
	"JoyverseEmotion/pkg/onnx"

	"golang.org/x/net/context"
)

// NumLandmarks is the number of points of the face mesh topology.
const NumLandmarks = 468

// DefaultPresenceThreshold is the minimum face-presence probability.
const DefaultPresenceThreshold = 0.5

var ErrNoFace = errors.New("no face detected in image")

// Runner is a loaded face-landmark graph.
type Runner interface {
	Run(ctx context.Context, input []float32) ([][]float32, error)
	Metadata() onnx.Metadata
	Close() error
}

// Detector extracts 468 (x, y) landmarks normalized to [0,1] from an image,
// the same flattened layout the landmark classifier is trained on.
type Detector struct {
	runner    Runner
	size      int
	layout    string
	threshold float64
}

func NewDetector(runner Runner, threshold float64) (*Detector, error) {
	meta := runner.Metadata()

	size := meta.ImageSize
	if size == 0 {
		size = inferImageSize(meta)
	}
	if size <= 0 {
		return nil, fmt.Errorf("cannot determine face mesh input size from %v", meta.InputShape)
	}
	if threshold <= 0 {
		threshold = DefaultPresenceThreshold
	}

	return &Detector{
		runner:    runner,
		size:      size,
		layout:    meta.Layout,
		threshold: threshold,
	}, nil
}

func inferImageSize(meta onnx.Metadata) int {
	if len(meta.InputShape) != 4 {
		return 0
	}
	if meta.Layout == onnx.LayoutNHWC {
		return int(meta.InputShape[1])
	}
	return int(meta.InputShape[2])
}

func (d *Detector) InputSize() int {
	return d.size
}

// Landmarks returns 936 coordinates ordered x0, y0, x1, y1, ...
func (d *Detector) Landmarks(ctx context.Context, img image.Image) ([]float64, error) {
	tensor, err := imageproc.Prepare(img, d.size, d.layout)
	if err != nil {
		return nil, err
	}

	outputs, err := d.runner.Run(ctx, tensor)
	if err != nil {
		return nil, fmt.Errorf("face mesh inference failed: %w", err)
	}
	if len(outputs) == 0 {
		return nil, errors.New("face mesh returned no outputs")
	}

	if len(outputs) > 1 && len(outputs[1]) > 0 {
		if presence := sigmoid(float64(outputs[1][0])); presence < d.threshold {
			return nil, ErrNoFace
		}
	}

	return d.decode(outputs[0])
}

func (d *Detector) decode(raw []float32) ([]float64, error) {
	if len(raw)%NumLandmarks != 0 {
		return nil, fmt.Errorf("face mesh returned %d values, not a multiple of %d", len(raw), NumLandmarks)
	}

	stride := len(raw) / NumLandmarks
	if stride < 2 {
		return nil, fmt.Errorf("face mesh returned %d values per landmark", stride)
	}

	scale := float64(d.size)
	coords := make([]float64, 0, 2*NumLandmarks)
	for i := 0; i < NumLandmarks; i++ {
		x := float64(raw[i*stride]) / scale
		y := float64(raw[i*stride+1]) / scale
		coords = append(coords, x, y)
	}

	return coords, nil
}

func (d *Detector) Close() error {
	return d.runner.Close()
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
