package facemesh

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"JoyverseEmotion/pkg/onnx"

	"golang.org/x/net/context"
)

type fakeRunner struct {
	meta     onnx.Metadata
	outputs  [][]float32
	err      error
	gotInput int
}

func (f *fakeRunner) Run(_ context.Context, input []float32) ([][]float32, error) {
	f.gotInput = len(input)
	return f.outputs, f.err
}

func (f *fakeRunner) Metadata() onnx.Metadata { return f.meta }
func (f *fakeRunner) Close() error            { return nil }

func meshMetadata() onnx.Metadata {
	return onnx.Metadata{
		InputName:  "input_1",
		InputShape: []int64{1, 192, 192, 3},
		Layout:     onnx.LayoutNHWC,
		InputKind:  onnx.InputKindImage,
	}
}

func meshOutput(stride int) []float32 {
	out := make([]float32, NumLandmarks*stride)
	for i := 0; i < NumLandmarks; i++ {
		out[i*stride] = 96
		out[i*stride+1] = 48
	}
	return out
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 120, A: 255})
		}
	}
	return img
}

func TestLandmarksNormalizesCoordinates(t *testing.T) {
	runner := &fakeRunner{
		meta:    meshMetadata(),
		outputs: [][]float32{meshOutput(3), {4}},
	}
	det, err := NewDetector(runner, 0)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	if det.InputSize() != 192 {
		t.Fatalf("InputSize() = %d", det.InputSize())
	}

	coords, err := det.Landmarks(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Landmarks: %v", err)
	}
	if len(coords) != 936 {
		t.Fatalf("expected 936 coordinates, got %d", len(coords))
	}
	if coords[0] != 0.5 || coords[1] != 0.25 {
		t.Errorf("unexpected first landmark (%v, %v)", coords[0], coords[1])
	}
	if runner.gotInput != 192*192*3 {
		t.Errorf("runner received %d values", runner.gotInput)
	}
}

func TestLandmarksNoFace(t *testing.T) {
	runner := &fakeRunner{
		meta:    meshMetadata(),
		outputs: [][]float32{meshOutput(3), {-6}},
	}
	det, _ := NewDetector(runner, 0.5)

	if _, err := det.Landmarks(context.Background(), testImage()); !errors.Is(err, ErrNoFace) {
		t.Fatalf("expected ErrNoFace, got %v", err)
	}
}

func TestLandmarksRejectsMalformedOutput(t *testing.T) {
	runner := &fakeRunner{
		meta:    meshMetadata(),
		outputs: [][]float32{make([]float32, 100)},
	}
	det, _ := NewDetector(runner, 0)

	if _, err := det.Landmarks(context.Background(), testImage()); err == nil {
		t.Fatal("expected error for malformed output")
	}

	runner.outputs = nil
	runner.err = errors.New("session closed")
	if _, err := det.Landmarks(context.Background(), testImage()); err == nil {
		t.Fatal("expected runner error")
	}
}

func TestNewDetectorNeedsImageSize(t *testing.T) {
	runner := &fakeRunner{meta: onnx.Metadata{InputShape: []int64{1, 936}}}
	if _, err := NewDetector(runner, 0); err == nil {
		t.Fatal("expected error without an image input shape")
	}
}
