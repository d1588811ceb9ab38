package imageproc

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

const (
	LayoutNCHW = "nchw"
	LayoutNHWC = "nhwc"
)

// Decode reads a JPEG or PNG image and applies its EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return img, nil
}

func Resize(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, resize.Bilinear)
}

// ToTensor converts an RGB image into float32 values in [0,1], either
// channel-planar (NCHW) or interleaved (NHWC).
func ToTensor(img image.Image, layout string) ([]float32, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			pixelIndex := y*width + x
			switch layout {
			case LayoutNCHW:
				data[pixelIndex] = rNorm
				data[plane+pixelIndex] = gNorm
				data[2*plane+pixelIndex] = bNorm
			case LayoutNHWC:
				data[3*pixelIndex] = rNorm
				data[3*pixelIndex+1] = gNorm
				data[3*pixelIndex+2] = bNorm
			default:
				return nil, fmt.Errorf("unknown tensor layout %q", layout)
			}
		}
	}

	return data, nil
}

// Prepare resizes img to size×size and returns it as a tensor.
func Prepare(img image.Image, size int, layout string) ([]float32, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size %d", size)
	}
	return ToTensor(Resize(img, size, size), layout)
}
