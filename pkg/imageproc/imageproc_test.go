package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestToTensorLayouts(t *testing.T) {
	img := solid(2, 2, color.RGBA{R: 255, G: 0, B: 255, A: 255})

	nchw, err := ToTensor(img, LayoutNCHW)
	if err != nil {
		t.Fatalf("ToTensor: %v", err)
	}
	if len(nchw) != 12 {
		t.Fatalf("expected 12 values, got %d", len(nchw))
	}
	if nchw[0] != 1 || nchw[4] != 0 || nchw[8] != 1 {
		t.Errorf("unexpected planar values %v", nchw)
	}

	nhwc, err := ToTensor(img, LayoutNHWC)
	if err != nil {
		t.Fatalf("ToTensor: %v", err)
	}
	if nhwc[0] != 1 || nhwc[1] != 0 || nhwc[2] != 1 {
		t.Errorf("unexpected interleaved values %v", nhwc[:3])
	}

	if _, err := ToTensor(img, "chw"); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestPrepareResizes(t *testing.T) {
	img := solid(64, 48, color.Gray{Y: 128})

	tensor, err := Prepare(img, 16, LayoutNCHW)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(tensor) != 3*16*16 {
		t.Fatalf("expected %d values, got %d", 3*16*16, len(tensor))
	}
	for _, v := range tensor {
		if v < 0 || v > 1 {
			t.Fatalf("value %v outside [0,1]", v)
		}
	}

	if _, err := Prepare(img, 0, LayoutNCHW); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(5, 3, color.White)); err != nil {
		t.Fatal(err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 3 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected decode error")
	}
}
