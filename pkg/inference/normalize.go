package inference

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/floats"
)

// StdEpsilon keeps standardization finite for features with zero variance.
const StdEpsilon = 1e-6

type NormalizationPolicy string

const (
	NormalizeNone        NormalizationPolicy = "none"
	NormalizeStandardize NormalizationPolicy = "standardize"
)

func ParseNormalizationPolicy(s string) (NormalizationPolicy, error) {
	switch NormalizationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NormalizeNone:
		return NormalizeNone, nil
	case NormalizeStandardize:
		return NormalizeStandardize, nil
	default:
		return "", fmt.Errorf("unknown normalization policy %q", s)
	}
}

// NormalizationStats holds the per-feature training mean and standard
// deviation. It is immutable after construction.
type NormalizationStats struct {
	mean  []float64
	std   []float64
	denom []float64
}

func NewNormalizationStats(mean, std []float64) (*NormalizationStats, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("normalization mean is empty")
	}
	if len(mean) != len(std) {
		return nil, fmt.Errorf("normalization mean has %d features, std has %d", len(mean), len(std))
	}

	s := &NormalizationStats{
		mean:  append([]float64(nil), mean...),
		std:   append([]float64(nil), std...),
		denom: append([]float64(nil), std...),
	}
	floats.AddConst(StdEpsilon, s.denom)

	for i, d := range s.denom {
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("invalid standard deviation %v at feature %d", s.std[i], i)
		}
	}

	return s, nil
}

// LoadNormalizationStats reads mean and std vectors from .npy or .json files.
// Multi-dimensional arrays are flattened in row-major order.
func LoadNormalizationStats(meanPath, stdPath string) (*NormalizationStats, error) {
	mean, err := loadVector(meanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load normalization mean: %w", err)
	}
	std, err := loadVector(stdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load normalization std: %w", err)
	}
	return NewNormalizationStats(mean, std)
}

func loadVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vec []float64
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		if err := npyio.Read(f, &vec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	case ".json":
		if err := jsoniter.NewDecoder(f).Decode(&vec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported vector file %s", path)
	}

	return vec, nil
}

func (s *NormalizationStats) Len() int {
	return len(s.mean)
}

// Apply writes (x - mean) / (std + eps) into dst, which must have the same
// length as x.
func (s *NormalizationStats) Apply(dst, x []float64) []float64 {
	floats.SubTo(dst, x, s.mean)
	floats.Div(dst, s.denom)
	return dst
}
