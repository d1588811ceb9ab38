package remote

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// HTTPClassifier runs the forward pass on an external model server over HTTP.
type HTTPClassifier struct {
	client    *resty.Client
	inputSize int
	log       *logrus.Logger
}

func NewHTTPClassifier(baseURL string, inputSize int, timeout time.Duration, log *logrus.Logger) *HTTPClassifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &HTTPClassifier{
		client:    client,
		inputSize: inputSize,
		log:       log,
	}
}

func (c *HTTPClassifier) Forward(ctx context.Context, input []float32) ([]float32, error) {
	var res ForwardResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(ForwardRequest{Inputs: input}).
		SetResult(&res).
		SetError(&res).
		Post("/forward")
	if err != nil {
		return nil, fmt.Errorf("send forward request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode(),
			"error":  res.Error,
		}).Warn("Model server rejected forward request")
		return nil, fmt.Errorf("forward failed with status: %d", resp.StatusCode())
	}

	return res.result()
}

// CheckHealth reports whether the model server answers its health endpoint.
func (c *HTTPClassifier) CheckHealth(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("model server unhealthy: %d", resp.StatusCode())
	}
	return nil
}

func (c *HTTPClassifier) InputSize() int {
	return c.inputSize
}

func (c *HTTPClassifier) Close() error {
	return nil
}
