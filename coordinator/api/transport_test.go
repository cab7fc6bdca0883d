package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/coordinator/api"
	"github.com/absmach/fedfraud/coordinator/mocks"
	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *mocks.MockService) {
	t.Helper()

	svc := new(mocks.MockService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(api.MakeHandler(svc, logger, "test-instance"))
	t.Cleanup(ts.Close)

	return ts, svc
}

func get(t *testing.T, url string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return resp.StatusCode, body
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ts, svc := newServer(t)
	svc.On("Status", mock.Anything).Return(coordinator.Status{
		State:     coordinator.StateAwaitingUpdates,
		Round:     2,
		NumRounds: 5,
		Last:      &fl.RoundResult{Round: 1, Status: fl.StatusCompleted, NumUpdates: 2, NewBest: true},
		Best:      &coordinator.Best{Round: 1, PRAUC: 0.61, Threshold: 0.44},
	}, nil)

	code, body := get(t, ts.URL+"/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "awaiting_updates", body["state"])
	assert.Equal(t, 2.0, body["round"])
	assert.Equal(t, 5.0, body["num_rounds"])

	best, ok := body["best"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.61, best["pr_auc"])
	assert.Equal(t, 0.44, best["threshold"])
}

func TestRounds(t *testing.T) {
	t.Parallel()

	ts, svc := newServer(t)
	svc.On("ListRounds", mock.Anything).Return([]fl.RoundResult{
		{Round: 1, Status: fl.StatusQuorumFailure, Failures: []string{"b"}},
		{Round: 2, Status: fl.StatusCompleted, Report: &fl.EvaluationReport{Round: 2, PRAUC: 0.5}},
	}, nil)
	svc.On("GetRound", mock.Anything, 2).Return(fl.RoundResult{Round: 2, Status: fl.StatusCompleted}, nil)
	svc.On("GetRound", mock.Anything, 9).Return(fl.RoundResult{}, errors.ErrNotFound)

	cases := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "list",
			path:   "/rounds",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, 2.0, body["total"])
				assert.Len(t, body["rounds"], 2)
			},
		},
		{
			name:   "get",
			path:   "/rounds/2",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "completed", body["status"])
			},
		},
		{
			name:   "unknown round",
			path:   "/rounds/9",
			status: http.StatusNotFound,
		},
		{
			name:   "not a number",
			path:   "/rounds/two",
			status: http.StatusBadRequest,
		},
		{
			name:   "round zero",
			path:   "/rounds/0",
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, body := get(t, ts.URL+tc.path)
			assert.Equal(t, tc.status, code)
			if tc.check != nil {
				tc.check(t, body)
			}
		})
	}
}

func TestBestModel(t *testing.T) {
	t.Parallel()

	t.Run("none yet", func(t *testing.T) {
		t.Parallel()

		ts, svc := newServer(t)
		svc.On("BestModel", mock.Anything).Return(coordinator.Best{}, errors.ErrNotFound)

		code, body := get(t, ts.URL+"/best")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Contains(t, body["error"], "not found")
	})

	t.Run("available", func(t *testing.T) {
		t.Parallel()

		ts, svc := newServer(t)
		svc.On("BestModel", mock.Anything).Return(coordinator.Best{Round: 3, PRAUC: 0.72, Threshold: 0.31}, nil)

		code, body := get(t, ts.URL+"/best")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 3.0, body["round"])
		assert.Equal(t, 0.72, body["pr_auc"])
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
