package inference

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
)

func TestParseNormalizationPolicy(t *testing.T) {
	tests := map[string]NormalizationPolicy{
		"":            NormalizeNone,
		"none":        NormalizeNone,
		"Standardize": NormalizeStandardize,
	}
	for in, want := range tests {
		got, err := ParseNormalizationPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseNormalizationPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseNormalizationPolicy("minmax"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestNormalizationStatsApply(t *testing.T) {
	stats, err := NewNormalizationStats([]float64{1, 2, 3}, []float64{1, 0, 2})
	if err != nil {
		t.Fatalf("NewNormalizationStats: %v", err)
	}

	got := stats.Apply(make([]float64, 3), []float64{2, 2, 7})
	want := []float64{1 / (1 + StdEpsilon), 0, 4 / (2 + StdEpsilon)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("feature %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormalizationStatsValidation(t *testing.T) {
	if _, err := NewNormalizationStats(nil, nil); err == nil {
		t.Error("expected error for empty stats")
	}
	if _, err := NewNormalizationStats([]float64{0, 0}, []float64{1}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := NewNormalizationStats([]float64{0}, []float64{-StdEpsilon}); err == nil {
		t.Error("expected error for zero denominator")
	}
}

func TestLoadNormalizationStatsFromNpy(t *testing.T) {
	dir := t.TempDir()
	meanPath := filepath.Join(dir, "mean.npy")
	stdPath := filepath.Join(dir, "std.json")

	f, err := os.Create(meanPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := npyio.Write(f, []float64{0.5, 0.25, 0.125}); err != nil {
		t.Fatalf("npyio.Write: %v", err)
	}
	f.Close()

	if err := os.WriteFile(stdPath, []byte(`[1, 1, 1]`), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := LoadNormalizationStats(meanPath, stdPath)
	if err != nil {
		t.Fatalf("LoadNormalizationStats: %v", err)
	}
	if stats.Len() != 3 {
		t.Fatalf("expected 3 features, got %d", stats.Len())
	}

	if _, err := LoadNormalizationStats(filepath.Join(dir, "mean.txt"), stdPath); err == nil {
		t.Error("expected error for missing file")
	}
}
