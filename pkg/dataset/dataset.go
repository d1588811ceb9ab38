package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FeatureCount is the number of landmark coordinates per row (468 x, y pairs).
const FeatureCount = 936

var ErrEmptyDataset = errors.New("dataset has no rows")

// Sample is one labeled landmark vector.
type Sample struct {
	Features []float64
	Label    string
}

// Header returns the CSV header: 0..935 followed by "label".
func Header() []string {
	header := make([]string, 0, FeatureCount+1)
	for i := 0; i < FeatureCount; i++ {
		header = append(header, strconv.Itoa(i))
	}
	return append(header, "label")
}

func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}

	row := make([]string, FeatureCount+1)
	for i, s := range samples {
		if len(s.Features) != FeatureCount {
			return fmt.Errorf("sample %d has %d features, expected %d", i, len(s.Features), FeatureCount)
		}
		for j, v := range s.Features {
			row[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		row[FeatureCount] = s.Label
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a landmark CSV. The label column is located by name, any
// other column must be numeric.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	labelCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "label") {
			labelCol = i
			break
		}
	}
	if labelCol < 0 {
		return nil, errors.New("csv has no label column")
	}

	var samples []Sample
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		features := make([]float64, 0, len(record)-1)
		for i, field := range record {
			if i == labelCol {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i, err)
			}
			features = append(features, v)
		}
		samples = append(samples, Sample{
			Features: features,
			Label:    strings.ToLower(record[labelCol]),
		})
	}

	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}
	return samples, nil
}

func ReadCSVFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// LabelDir is one class folder of an image dataset.
type LabelDir struct {
	Label  string
	Images []string
}

// ScanImageFolders lists <root>/<label>/<image> in lexical order. Files at the
// root level are ignored.
func ScanImageFolders(root string) ([]LabelDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []LabelDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		files, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}

		dir := LabelDir{Label: entry.Name()}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			dir.Images = append(dir.Images, filepath.Join(root, entry.Name(), f.Name()))
		}
		sort.Strings(dir.Images)
		dirs = append(dirs, dir)
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Label < dirs[j].Label })
	return dirs, nil
}
