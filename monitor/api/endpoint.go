package api

import (
	"context"
	"errors"

	"github.com/absmach/fedfraud/monitor"
	pkgerrors "github.com/absmach/fedfraud/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func updateMetricsEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateMetricsReq)
		if !ok {
			return metricsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return metricsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		m, err := svc.UpdateMetrics(ctx, req.metrics())
		if err != nil {
			return metricsResponse{}, err
		}

		return metricsResponse{RoundMetrics: m}, nil
	}
}

func listMetricsEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listMetricsReq)
		if !ok {
			return metricsPageResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return metricsPageResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListMetrics(ctx, req.offset, req.limit)
		if err != nil {
			return metricsPageResponse{}, err
		}

		return metricsPageResponse{MetricsPage: page}, nil
	}
}

func latestMetricsEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		m, err := svc.LatestMetrics(ctx)
		if err != nil {
			return metricsResponse{}, err
		}

		return metricsResponse{RoundMetrics: m}, nil
	}
}

func updateThresholdEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateThresholdReq)
		if !ok {
			return thresholdResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return thresholdResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		t, err := svc.UpdateThreshold(ctx, *req.Threshold)
		if err != nil {
			return thresholdResponse{}, err
		}

		return thresholdResponse{Threshold: t}, nil
	}
}

func thresholdEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		t, err := svc.Threshold(ctx)
		if err != nil {
			return thresholdResponse{}, err
		}

		return thresholdResponse{Threshold: t}, nil
	}
}

func predictEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.Predict(ctx, req.Sequences)
		if err != nil {
			return predictResponse{}, err
		}

		return predictResponse{PredictionPage: page}, nil
	}
}

func healthEndpoint(_ context.Context, _ any) (any, error) {
	return healthResponse{Status: "ready"}, nil
}
