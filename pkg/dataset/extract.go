package dataset

import (
	"errors"
	"image"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// LandmarkDetector turns an image into a flattened landmark vector.
type LandmarkDetector interface {
	Landmarks(ctx context.Context, img image.Image) ([]float64, error)
}

// ImageLoader opens an image file.
type ImageLoader func(path string) (image.Image, error)

// Stats counts what happened during an extraction run.
type Stats struct {
	Kept       int
	Unreadable int
	NoFace     int
	PerLabel   map[string]int
}

type Extractor struct {
	detector LandmarkDetector
	load     ImageLoader
	log      *logrus.Logger
	progress bool
}

func NewExtractor(detector LandmarkDetector, load ImageLoader, log *logrus.Logger, progress bool) *Extractor {
	return &Extractor{
		detector: detector,
		load:     load,
		log:      log,
		progress: progress,
	}
}

// Extract walks root and keeps a row for every image that yields exactly
// FeatureCount coordinates. Unreadable images and images without landmarks are
// skipped.
func (e *Extractor) Extract(ctx context.Context, root string) ([]Sample, Stats, error) {
	stats := Stats{PerLabel: make(map[string]int)}

	dirs, err := ScanImageFolders(root)
	if err != nil {
		return nil, stats, err
	}

	var samples []Sample
	for _, dir := range dirs {
		e.log.WithFields(logrus.Fields{
			"label":  dir.Label,
			"images": len(dir.Images),
		}).Info("Processing label folder")

		var bar *pb.ProgressBar
		if e.progress {
			bar = pb.StartNew(len(dir.Images))
		}

		for _, path := range dir.Images {
			if err := ctx.Err(); err != nil {
				if bar != nil {
					bar.Finish()
				}
				return samples, stats, err
			}
			if bar != nil {
				bar.Increment()
			}

			img, err := e.load(path)
			if err != nil {
				stats.Unreadable++
				e.log.WithFields(logrus.Fields{"path": path, "error": err.Error()}).Debug("Skipping unreadable image")
				continue
			}

			coords, err := e.detector.Landmarks(ctx, img)
			if err != nil || len(coords) != FeatureCount {
				stats.NoFace++
				if err != nil && !errors.Is(err, context.Canceled) {
					e.log.WithFields(logrus.Fields{"path": path, "error": err.Error()}).Debug("No landmarks extracted")
				}
				continue
			}

			samples = append(samples, Sample{Features: coords, Label: dir.Label})
			stats.Kept++
			stats.PerLabel[dir.Label]++
		}

		if bar != nil {
			bar.Finish()
		}
	}

	return samples, stats, nil
}
