package main

import (
	"JoyverseEmotion/internal/config"
	"JoyverseEmotion/pkg/dataset"
	"JoyverseEmotion/pkg/inference"
	"JoyverseEmotion/pkg/log"
	"errors"
	"flag"
	"fmt"
	"github.com/cheggaaa/pb/v3"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

type labelScore struct {
	total   int
	correct int
}

func main() {
	os.Exit(evaluateMain())
}

func evaluateMain() int {
	csvPath := flag.String("csv", "cleaned_landmark_test.csv", "landmark CSV with a label column")
	progress := flag.Bool("progress", true, "show a progress bar")
	flag.Parse()

	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	if err := run(*csvPath, *progress, logger); err != nil {
		logger.Error(err)
		return 1
	}
	return 0
}

func run(csvPath string, progress bool, logger *logrus.Logger) error {
	cfg, err := config.LoadModelConfig()
	if err != nil {
		return err
	}
	cfg.Required = true
	cfg.FaceMeshModelPath = ""

	model, err := config.LoadModel(cfg, logger)
	if err != nil {
		return err
	}
	defer model.Close()

	samples, err := dataset.ReadCSVFile(csvPath)
	if err != nil {
		return err
	}

	scores, failed, err := evaluate(context.Background(), model.Pipeline, samples, progress)
	if err != nil {
		return err
	}

	report(os.Stdout, scores, failed)
	return nil
}

type predictor interface {
	Predict(ctx context.Context, features []float64) (inference.Prediction, error)
}

func evaluate(ctx context.Context, p predictor, samples []dataset.Sample, progress bool) (map[string]*labelScore, int, error) {
	scores := make(map[string]*labelScore)
	failed := 0

	var bar *pb.ProgressBar
	if progress {
		bar = pb.StartNew(len(samples))
		defer bar.Finish()
	}

	for _, sample := range samples {
		if bar != nil {
			bar.Increment()
		}

		label := strings.ToLower(sample.Label)
		score, ok := scores[label]
		if !ok {
			score = &labelScore{}
			scores[label] = score
		}
		score.total++

		pred, err := p.Predict(ctx, sample.Features)
		if err != nil {
			var invalid *inference.InvalidInputError
			if !errors.As(err, &invalid) {
				return nil, 0, err
			}
			failed++
			continue
		}

		if pred.Label == label {
			score.correct++
		}
	}

	return scores, failed, nil
}

func report(w io.Writer, scores map[string]*labelScore, failed int) {
	labels := make([]string, 0, len(scores))
	total, correct := 0, 0
	for label, score := range scores {
		labels = append(labels, label)
		total += score.total
		correct += score.correct
	}
	sort.Strings(labels)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "label\tsamples\tcorrect\taccuracy")
	for _, label := range labels {
		score := scores[label]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\n", label, score.total, score.correct, ratio(score.correct, score.total))
	}
	fmt.Fprintf(tw, "overall\t%d\t%d\t%.3f\n", total, correct, ratio(correct, total))
	tw.Flush()

	if failed > 0 {
		fmt.Fprintf(w, "%d rows rejected as invalid input\n", failed)
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
