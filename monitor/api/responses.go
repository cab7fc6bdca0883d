package api

import (
	"net/http"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/storage"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*metricsResponse)(nil)
	_ supermq.Response = (*metricsPageResponse)(nil)
	_ supermq.Response = (*thresholdResponse)(nil)
	_ supermq.Response = (*predictResponse)(nil)
	_ supermq.Response = (*healthResponse)(nil)
)

type metricsResponse struct {
	storage.RoundMetrics
}

func (m metricsResponse) Code() int {
	return http.StatusOK
}

func (m metricsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (m metricsResponse) Empty() bool {
	return false
}

type metricsPageResponse struct {
	monitor.MetricsPage
}

func (m metricsPageResponse) Code() int {
	return http.StatusOK
}

func (m metricsPageResponse) Headers() map[string]string {
	return map[string]string{}
}

func (m metricsPageResponse) Empty() bool {
	return false
}

type thresholdResponse struct {
	storage.Threshold
}

func (t thresholdResponse) Code() int {
	return http.StatusOK
}

func (t thresholdResponse) Headers() map[string]string {
	return map[string]string{}
}

func (t thresholdResponse) Empty() bool {
	return false
}

type predictResponse struct {
	monitor.PredictionPage
}

func (p predictResponse) Code() int {
	return http.StatusOK
}

func (p predictResponse) Headers() map[string]string {
	return map[string]string{}
}

func (p predictResponse) Empty() bool {
	return false
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h healthResponse) Code() int {
	return http.StatusOK
}

func (h healthResponse) Headers() map[string]string {
	return map[string]string{}
}

func (h healthResponse) Empty() bool {
	return false
}
