package inference

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLabelEncoderLowercasesAndDecodes(t *testing.T) {
	enc, err := NewLabelEncoder([]string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprise"})
	if err != nil {
		t.Fatalf("NewLabelEncoder: %v", err)
	}

	label, err := enc.Decode(3)
	if err != nil || label != "happy" {
		t.Fatalf("Decode(3) = %q, %v", label, err)
	}
	if idx, ok := enc.Encode("SAD"); !ok || idx != 5 {
		t.Fatalf("Encode(SAD) = %d, %v", idx, ok)
	}
	if _, err := enc.Decode(7); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestLabelEncoderRejectsBadClasses(t *testing.T) {
	bad := [][]string{
		nil,
		{"happy", "happy"},
		{"happy", "bored"},
	}
	for _, classes := range bad {
		if _, err := NewLabelEncoder(classes); err == nil {
			t.Errorf("expected error for %v", classes)
		}
	}
}

func TestLoadLabelEncoderFormats(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "labels.json")
	if err := os.WriteFile(plain, []byte(`["angry","happy","neutral"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	wrapped := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(wrapped, []byte(`{"classes":["sad","surprise"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	enc, err := LoadLabelEncoder(plain)
	if err != nil || enc.Len() != 3 {
		t.Fatalf("plain: %v, len %d", err, enc.Len())
	}
	enc, err = LoadLabelEncoder(wrapped)
	if err != nil || enc.Len() != 2 {
		t.Fatalf("wrapped: %v", err)
	}
	if label, _ := enc.Decode(1); label != "surprise" {
		t.Errorf("wrapped label = %q", label)
	}
}
