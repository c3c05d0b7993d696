// Package predictor calls the remote regression model that scores a single
// candidate record.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// ErrPredictionFailed wraps every failure of the remote model: transport
// errors, non-2xx statuses, malformed bodies and explicit error responses.
var ErrPredictionFailed = errors.New("prediction failed")

const (
	defaultRetries    = 2
	defaultRetryDelay = 200 * time.Millisecond
)

// Client posts prediction requests to the model endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	retries    uint64
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a client for the model endpoint at url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// Predict sends one validated input to the model. Only transport errors are
// retried; any answer from the server is final.
func (c *Client) Predict(ctx context.Context, in domain.PredictionInput) (domain.PredictionResult, error) {
	body, err := json.Marshal(toRequest(in))
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("encode prediction request: %w", err)
	}

	var result domain.PredictionResult
	attempt := 0
	op := func() error {
		attempt++
		res, err := c.doRequest(ctx, body)
		if err != nil {
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) {
				c.logger.Warn("prediction request failed", "attempt", attempt, "error", err)
			}
			return err
		}
		result = res
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), c.retries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return domain.PredictionResult{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) (domain.PredictionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.PredictionResult{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.PredictionResult{}, backoff.Permanent(err)
		}
		return domain.PredictionResult{}, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.PredictionResult{}, backoff.Permanent(fmt.Errorf("model API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(b)))
	}

	var pr response
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return domain.PredictionResult{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	res, err := pr.result()
	if err != nil {
		return domain.PredictionResult{}, backoff.Permanent(err)
	}
	return res, nil
}

// Model API wire types. Field names follow the model service.

type request struct {
	Year            int     `json:"Año"`
	Month           int     `json:"IdMes"`
	EntityID        int     `json:"IdEmpresa"`
	Temperature     float64 `json:"temperatura"`
	Precipitation   float64 `json:"precipitacion"`
	GDP             float64 `json:"PIB_mensual_interpolado"`
	BasketCost      float64 `json:"COSTO_CANASTA"`
	HouseholdIncome float64 `json:"INGRESO_FAMILIAR_MENSUAL"`
}

func toRequest(in domain.PredictionInput) request {
	return request(in)
}

type response struct {
	Status     string   `json:"status"`
	Prediction *float64 `json:"prediction"`
	Confidence *float64 `json:"confidence"`
	Message    string   `json:"message"`
}

func (r response) result() (domain.PredictionResult, error) {
	if r.Status != "success" {
		msg := r.Message
		if msg == "" {
			msg = "unknown error"
		}
		return domain.PredictionResult{}, fmt.Errorf("model returned status %q: %s", r.Status, msg)
	}
	if r.Prediction == nil {
		return domain.PredictionResult{}, errors.New("model response has no prediction")
	}
	return domain.PredictionResult{Prediction: *r.Prediction, Confidence: r.Confidence}, nil
}
