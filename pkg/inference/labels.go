package inference

import (
	"JoyverseEmotion/internal/entity"
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// LabelEncoder is the fixed bijection between class indices and emotion labels.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder has no classes")
	}

	enc := &LabelEncoder{
		classes: make([]string, len(classes)),
		index:   make(map[string]int, len(classes)),
	}

	for i, class := range classes {
		label := strings.ToLower(strings.TrimSpace(class))
		if !entity.IsValidEmotion(label) {
			return nil, fmt.Errorf("unsupported emotion label %q at index %d", class, i)
		}
		if _, exists := enc.index[label]; exists {
			return nil, fmt.Errorf("duplicate emotion label %q", label)
		}
		enc.classes[i] = label
		enc.index[label] = i
	}

	return enc, nil
}

// LoadLabelEncoder reads either a JSON array of labels or an object with a
// "classes" array, in class-index order.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label encoder: %w", err)
	}

	var classes []string
	if err := jsoniter.Unmarshal(raw, &classes); err != nil {
		var wrapped struct {
			Classes []string `json:"classes"`
		}
		if err := jsoniter.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse label encoder: %w", err)
		}
		classes = wrapped.Classes
	}

	return NewLabelEncoder(classes)
}

func (e *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(e.classes) {
		return "", fmt.Errorf("class index %d out of range [0, %d)", idx, len(e.classes))
	}
	return e.classes[idx], nil
}

func (e *LabelEncoder) Encode(label string) (int, bool) {
	idx, ok := e.index[strings.ToLower(label)]
	return idx, ok
}

func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
