package predictor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	c := NewClient(url, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.retryDelay = time.Millisecond
	return c
}

func TestClient_Predict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2024.0, body["Año"])
		assert.Equal(t, 1.0, body["IdMes"])
		assert.Equal(t, 11.0, body["IdEmpresa"])
		assert.Equal(t, 16.5, body["temperatura"])
		assert.Equal(t, 150.0, body["precipitacion"])
		assert.Equal(t, 20_000_000.0, body["PIB_mensual_interpolado"])
		assert.Equal(t, 520.0, body["COSTO_CANASTA"])
		assert.Equal(t, 450.0, body["INGRESO_FAMILIAR_MENSUAL"])

		_, _ = io.WriteString(w, `{"status":"success","prediction":1234.5,"confidence":0.87,"message":"ok"}`)
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Predict(context.Background(), domain.DefaultPredictionInput())
	require.NoError(t, err)

	assert.Equal(t, 1234.5, res.Prediction)
	require.NotNil(t, res.Confidence)
	assert.Equal(t, 0.87, *res.Confidence)
}

func TestClient_Predict_NoConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","prediction":99}`)
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Predict(context.Background(), domain.DefaultPredictionInput())
	require.NoError(t, err)
	assert.Equal(t, 99.0, res.Prediction)
	assert.Nil(t, res.Confidence)
}

func TestClient_Predict_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantMsg: "status 500: boom"},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad"}`, wantMsg: "status 400"},
		{name: "malformed body", status: http.StatusOK, body: `{"status":`, wantMsg: "decode response"},
		{name: "error status", status: http.StatusOK, body: `{"status":"error","message":"model not loaded"}`, wantMsg: "model not loaded"},
		{name: "missing prediction", status: http.StatusOK, body: `{"status":"success"}`, wantMsg: "no prediction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).Predict(context.Background(), domain.DefaultPredictionInput())
			require.ErrorIs(t, err, ErrPredictionFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, int32(1), calls.Load(), "server answers are not retried")
		})
	}
}

func TestClient_Predict_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).Predict(context.Background(), domain.DefaultPredictionInput())
	require.ErrorIs(t, err, ErrPredictionFailed)
	assert.Contains(t, err.Error(), "prediction request")
}

func TestClient_Predict_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","prediction":1}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Predict(ctx, domain.DefaultPredictionInput())
	require.ErrorIs(t, err, ErrPredictionFailed)
}
