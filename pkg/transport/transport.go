// Package transport carries fit instructions to clients and their updates back.
package transport

import (
	"context"
	"errors"

	"github.com/absmach/fedfraud/pkg/fl"
)

// Keys understood in FitIns.Config.
const (
	ConfigLocalEpochs    = "local_epochs"
	ConfigBatchSize      = "batch_size"
	ConfigLearningRate   = "learning_rate"
	ConfigPositiveWeight = "positive_class_weight"
)

var (
	ErrClientTimeout = errors.New("client did not reply in time")
	ErrClientFailed  = errors.New("client reported a failure")
)

// FitIns instructs a client to train from Parameters for one round.
type FitIns struct {
	Round      int                `json:"round"      cbor:"round"`
	Parameters fl.Parameters      `json:"parameters" cbor:"parameters"`
	Config     map[string]float64 `json:"config"     cbor:"config"`
}

// Client is a registered participant. Fit must honour ctx cancellation.
type Client interface {
	ID() string
	Fit(ctx context.Context, ins FitIns) (fl.ClientUpdate, error)
}
