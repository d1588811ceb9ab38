package main

import (
	"JoyverseEmotion/pkg/dataset"
	"JoyverseEmotion/pkg/facemesh"
	"JoyverseEmotion/pkg/imageproc"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/onnx"
	"JoyverseEmotion/pkg/s3"
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

type options struct {
	trainDir     string
	testDir      string
	outDir       string
	s3Prefix     string
	modelPath    string
	metadataPath string
	libPath      string
	threshold    float64
	progress     bool
}

func main() {
	os.Exit(extract())
}

// extract returns the process exit code so deferred cleanup runs before exit.
func extract() int {
	opts := parseFlags()

	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error(err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.trainDir, "train", "train", "folder of <label>/<image> training images")
	flag.StringVar(&opts.testDir, "test", "test", "folder of <label>/<image> test images")
	flag.StringVar(&opts.outDir, "out", ".", "directory for the landmark CSV files")
	flag.StringVar(&opts.s3Prefix, "s3-prefix", "", "upload the CSV files under this S3 prefix")
	flag.StringVar(&opts.modelPath, "facemesh-model", os.Getenv("FACEMESH_MODEL_PATH"), "face mesh ONNX model")
	flag.StringVar(&opts.metadataPath, "facemesh-metadata", os.Getenv("FACEMESH_METADATA_PATH"), "face mesh model metadata JSON")
	flag.StringVar(&opts.libPath, "onnxruntime", os.Getenv("ONNXRUNTIME_LIB_PATH"), "path to the onnxruntime shared library")
	flag.Float64Var(&opts.threshold, "threshold", facemesh.DefaultPresenceThreshold, "minimum face presence score")
	flag.BoolVar(&opts.progress, "progress", true, "show a progress bar per label")
	flag.Parse()
	return opts
}

func run(ctx context.Context, opts options, logger *logrus.Logger) error {
	if opts.modelPath == "" || opts.metadataPath == "" {
		return fmt.Errorf("-facemesh-model and -facemesh-metadata are required")
	}

	if err := onnx.InitEnvironment(opts.libPath); err != nil {
		return err
	}
	defer onnx.DestroyEnvironment()

	meta, err := onnx.LoadMetadata(opts.metadataPath)
	if err != nil {
		return err
	}

	session, err := onnx.NewSession(opts.modelPath, meta, 0)
	if err != nil {
		return err
	}

	detector, err := facemesh.NewDetector(session, opts.threshold)
	if err != nil {
		session.Close()
		return err
	}
	defer detector.Close()

	var uploader s3.ItfS3
	if opts.s3Prefix != "" {
		if uploader, err = s3.New(); err != nil {
			return err
		}
	}

	extractor := dataset.NewExtractor(detector, imageproc.Open, logger, opts.progress)

	splits := []struct {
		dir  string
		file string
	}{
		{opts.trainDir, "cleaned_landmark_train.csv"},
		{opts.testDir, "cleaned_landmark_test.csv"},
	}

	for _, split := range splits {
		samples, stats, err := extractor.Extract(ctx, split.dir)
		if err != nil {
			return fmt.Errorf("extract %s: %w", split.dir, err)
		}

		out := filepath.Join(opts.outDir, split.file)
		if err := dataset.WriteCSVFile(out, samples); err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{
			"file":       out,
			"kept":       stats.Kept,
			"no_face":    stats.NoFace,
			"unreadable": stats.Unreadable,
			"per_label":  stats.PerLabel,
		}).Info("Saved landmark dataset")

		if uploader != nil {
			if err := upload(uploader, opts.s3Prefix, out, os.Stdout, logger); err != nil {
				return err
			}
		}
	}

	return nil
}

// upload stores the dataset file and writes a presigned link to w. An object
// that cannot be presigned is deleted again.
func upload(uploader s3.ItfS3, prefix, path string, w io.Writer, logger *logrus.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	location, err := uploader.Upload(s3.DatasetKey(prefix, path, time.Now()), f, "text/csv")
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	presigned, err := uploader.PresignUrl(location)
	if err != nil {
		if delErr := uploader.DeleteFile(location); delErr != nil {
			logger.WithFields(logrus.Fields{
				"location": location,
				"error":    delErr.Error(),
			}).Warn("Failed to remove unreachable dataset upload")
		}
		return fmt.Errorf("presign %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"location": location,
	}).Info("Uploaded landmark dataset")
	fmt.Fprintln(w, presigned)

	return nil
}
