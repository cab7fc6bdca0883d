package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/absmach/fedfraud/pkg/errors"
)

const CTJSON string = "application/json"

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// SDK is a client of the monitoring API.
type SDK interface {
	// UpdateMetrics records the evaluation report of a round.
	//
	// example:
	//  m := sdk.Metrics{Round: 1, Accuracy: 0.99, PRAUC: 0.71}
	//  _ = sdk.UpdateMetrics(ctx, m)
	UpdateMetrics(ctx context.Context, m Metrics) error

	// ListMetrics lists recorded rounds ordered by round number.
	//
	// example:
	//  page, _ := sdk.ListMetrics(ctx, 0, 10)
	//  fmt.Println(page)
	ListMetrics(ctx context.Context, offset, limit uint64) (MetricsPage, error)

	// LatestMetrics returns the most recent round.
	LatestMetrics(ctx context.Context) (Metrics, error)

	// UpdateThreshold sets the operating threshold used for predictions.
	//
	// example:
	//  _ = sdk.UpdateThreshold(ctx, 0.206122)
	UpdateThreshold(ctx context.Context, threshold float64) error

	// Threshold returns the operating threshold.
	Threshold(ctx context.Context) (Threshold, error)

	// Predict scores sequences with the best model.
	//
	// example:
	//  res, _ := sdk.Predict(ctx, [][][]float64{{{0.1, 0.2}}})
	//  fmt.Println(res.Predictions[0].Fraud)
	Predict(ctx context.Context, sequences [][][]float64) (PredictResponse, error)

	// Health returns the readiness status of the monitoring API.
	Health(ctx context.Context) (string, error)
}

type monitorSDK struct {
	monitorURL string
	client     *http.Client
}

type Config struct {
	MonitorURL      string
	TLSVerification bool
	Timeout         time.Duration
}

func NewSDK(cfg Config) SDK {
	return &monitorSDK{
		monitorURL: cfg.MonitorURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *monitorSDK) processRequest(ctx context.Context, method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	switch {
	case resp.StatusCode == expectedRespCode:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return []byte{}, fmt.Errorf("%w: %s", errors.ErrNotFound, bytes.TrimSpace(body))
	default:
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}
}
