package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	updateMetricsEndpoint   = "/update_metrics"
	getMetricsEndpoint      = "/get_metrics"
	latestMetricsEndpoint   = "/get_metrics/latest"
	updateThresholdEndpoint = "/update_threshold"
	getThresholdEndpoint    = "/get_threshold"
	predictEndpoint         = "/predict"
	healthEndpoint          = "/get_health"
)

type Metrics struct {
	Round     int       `json:"round"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1_score"`
	PRAUC     float64   `json:"pr_auc"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

type MetricsPage struct {
	Offset  uint64    `json:"offset"`
	Limit   uint64    `json:"limit"`
	Total   uint64    `json:"total"`
	Metrics []Metrics `json:"metrics"`
}

type Threshold struct {
	Threshold float64   `json:"threshold"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

type Prediction struct {
	Probability float64 `json:"probability"`
	Fraud       bool    `json:"fraud"`
}

type PredictResponse struct {
	Round       int          `json:"round"`
	Threshold   float64      `json:"threshold"`
	Predictions []Prediction `json:"predictions"`
}

type predictRequest struct {
	Sequences [][][]float64 `json:"sequences"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (sdk *monitorSDK) UpdateMetrics(ctx context.Context, m Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = sdk.processRequest(ctx, http.MethodPost, sdk.monitorURL+updateMetricsEndpoint, data, http.StatusOK)

	return err
}

func (sdk *monitorSDK) ListMetrics(ctx context.Context, offset, limit uint64) (MetricsPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}

	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.monitorURL+getMetricsEndpoint+query, nil, http.StatusOK)
	if err != nil {
		return MetricsPage{}, err
	}

	var page MetricsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return MetricsPage{}, err
	}

	return page, nil
}

func (sdk *monitorSDK) LatestMetrics(ctx context.Context) (Metrics, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.monitorURL+latestMetricsEndpoint, nil, http.StatusOK)
	if err != nil {
		return Metrics{}, err
	}

	var m Metrics
	if err := json.Unmarshal(body, &m); err != nil {
		return Metrics{}, err
	}

	return m, nil
}

func (sdk *monitorSDK) UpdateThreshold(ctx context.Context, threshold float64) error {
	data, err := json.Marshal(Threshold{Threshold: threshold})
	if err != nil {
		return err
	}

	_, err = sdk.processRequest(ctx, http.MethodPost, sdk.monitorURL+updateThresholdEndpoint, data, http.StatusOK)

	return err
}

func (sdk *monitorSDK) Threshold(ctx context.Context) (Threshold, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.monitorURL+getThresholdEndpoint, nil, http.StatusOK)
	if err != nil {
		return Threshold{}, err
	}

	var t Threshold
	if err := json.Unmarshal(body, &t); err != nil {
		return Threshold{}, err
	}

	return t, nil
}

func (sdk *monitorSDK) Predict(ctx context.Context, sequences [][][]float64) (PredictResponse, error) {
	data, err := json.Marshal(predictRequest{Sequences: sequences})
	if err != nil {
		return PredictResponse{}, err
	}

	body, err := sdk.processRequest(ctx, http.MethodPost, sdk.monitorURL+predictEndpoint, data, http.StatusOK)
	if err != nil {
		return PredictResponse{}, err
	}

	var res PredictResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return PredictResponse{}, err
	}

	return res, nil
}

func (sdk *monitorSDK) Health(ctx context.Context) (string, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.monitorURL+healthEndpoint, nil, http.StatusOK)
	if err != nil {
		return "", err
	}

	var h healthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		return "", err
	}

	return h.Status, nil
}
