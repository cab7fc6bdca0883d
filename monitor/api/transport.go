package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func MakeHandler(svc monitor.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Post("/update_metrics", otelhttp.NewHandler(kithttp.NewServer(
		updateMetricsEndpoint(svc),
		decodeJSON[updateMetricsReq],
		api.EncodeResponse,
		opts...,
	), "update-metrics").ServeHTTP)

	mux.Route("/get_metrics", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listMetricsEndpoint(svc),
			decodeListMetricsReq,
			api.EncodeResponse,
			opts...,
		), "list-metrics").ServeHTTP)
		r.Get("/latest", otelhttp.NewHandler(kithttp.NewServer(
			latestMetricsEndpoint(svc),
			kithttp.NopRequestDecoder,
			api.EncodeResponse,
			opts...,
		), "latest-metrics").ServeHTTP)
	})

	mux.Post("/update_threshold", otelhttp.NewHandler(kithttp.NewServer(
		updateThresholdEndpoint(svc),
		decodeJSON[updateThresholdReq],
		api.EncodeResponse,
		opts...,
	), "update-threshold").ServeHTTP)

	mux.Get("/get_threshold", otelhttp.NewHandler(kithttp.NewServer(
		thresholdEndpoint(svc),
		kithttp.NopRequestDecoder,
		api.EncodeResponse,
		opts...,
	), "get-threshold").ServeHTTP)

	mux.Post("/predict", otelhttp.NewHandler(kithttp.NewServer(
		predictEndpoint(svc),
		decodeJSON[predictReq],
		api.EncodeResponse,
		opts...,
	), "predict").ServeHTTP)

	mux.Get("/get_health", kithttp.NewServer(
		healthEndpoint,
		kithttp.NopRequestDecoder,
		api.EncodeResponse,
		opts...,
	).ServeHTTP)
	mux.Get("/health", supermq.Health("monitor", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeJSON[T any](_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeListMetricsReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}
	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listMetricsReq{
		offset: o,
		limit:  l,
	}, nil
}
