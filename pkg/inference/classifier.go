package inference

import "golang.org/x/net/context"

// Classifier is a pre-trained model that maps a single flattened feature
// vector to per-class logits. Implementations must be safe for concurrent
// Forward calls once constructed.
type Classifier interface {
	Forward(ctx context.Context, input []float32) ([]float32, error)
	InputSize() int
	Close() error
}

// Connector is implemented by classifiers backed by a long-lived connection.
type Connector interface {
	IsConnected() bool
}
