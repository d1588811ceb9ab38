package remote

import "fmt"

// ForwardRequest is the payload sent to an external model server.
type ForwardRequest struct {
	Inputs []float32 `json:"inputs"`
}

// ForwardResponse carries the per-class logits of a single item.
type ForwardResponse struct {
	Logits []float32 `json:"logits"`
	Error  string    `json:"error,omitempty"`
}

func (r ForwardResponse) result() ([]float32, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("model server error: %s", r.Error)
	}
	if len(r.Logits) == 0 {
		return nil, fmt.Errorf("model server returned no logits")
	}
	return r.Logits, nil
}
