package api

import (
	"context"
	"errors"

	"github.com/absmach/fedfraud/coordinator"
	pkgerrors "github.com/absmach/fedfraud/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func statusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		status, err := svc.Status(ctx)
		if err != nil {
			return statusResponse{}, err
		}

		return statusResponse{Status: status}, nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		rounds, err := svc.ListRounds(ctx)
		if err != nil {
			return listRoundsResponse{}, err
		}

		return listRoundsResponse{
			Total:  len(rounds),
			Rounds: rounds,
		}, nil
	}
}

func getRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.GetRound(ctx, req.round)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{RoundResult: res}, nil
	}
}

func bestModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		best, err := svc.BestModel(ctx)
		if err != nil {
			return bestResponse{}, err
		}

		return bestResponse{Best: best}, nil
	}
}
