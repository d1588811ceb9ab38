package onnx

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMetadata(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model_metadata.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMetadataDefaults(t *testing.T) {
	path := writeMetadata(t, `{
		"input_shape": [-1, 936],
		"output_shape": [-1, 7],
		"classes": ["angry","disgust","fear","happy","neutral","sad","surprise"]
	}`)

	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}

	if meta.InputName != "input" || meta.Outputs[0].Name != "output" {
		t.Errorf("unexpected tensor names %q / %q", meta.InputName, meta.Outputs[0].Name)
	}
	if meta.InputShape[0] != 1 || meta.Outputs[0].Shape[0] != 1 {
		t.Errorf("dynamic batch not pinned: %v %v", meta.InputShape, meta.Outputs[0].Shape)
	}
	if meta.InputSize() != 936 {
		t.Errorf("InputSize() = %d, want 936", meta.InputSize())
	}
	if meta.InputKind != InputKindLandmarks || meta.Layout != LayoutNCHW {
		t.Errorf("unexpected kind/layout %q/%q", meta.InputKind, meta.Layout)
	}
}

func TestLoadMetadataMultipleOutputs(t *testing.T) {
	path := writeMetadata(t, `{
		"input_name": "input_1",
		"input_shape": [1, 192, 192, 3],
		"layout": "nhwc",
		"input_kind": "image",
		"outputs": [
			{"name": "conv2d_21", "shape": [1, 1, 1, 1404]},
			{"name": "conv2d_31", "shape": [1, 1, 1, 1]}
		]
	}`)

	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if got := meta.InputSize(); got != 192*192*3 {
		t.Errorf("InputSize() = %d", got)
	}
	names := meta.OutputNames()
	if len(names) != 2 || names[1] != "conv2d_31" {
		t.Errorf("OutputNames() = %v", names)
	}
}

func TestLoadMetadataRejectsInvalid(t *testing.T) {
	cases := []string{
		`{}`,
		`{"input_shape": [1, 936], "output_shape": [1, 7], "input_kind": "audio"}`,
		`{"input_shape": [1, 936], "output_shape": [1, 7], "layout": "hwc"}`,
		`{"input_shape": [1, 936]}`,
		`not json`,
	}
	for _, body := range cases {
		if _, err := LoadMetadata(writeMetadata(t, body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}
