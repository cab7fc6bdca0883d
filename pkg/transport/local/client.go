// Package local runs a federated client in-process over a local dataset.
package local

import (
	"context"
	"time"

	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/transport"
)

type client struct {
	id   string
	data dataset.Dataset
	cfg  model.TrainConfig
}

func NewClient(id string, data dataset.Dataset, cfg model.TrainConfig) transport.Client {
	return &client{id: id, data: data, cfg: cfg}
}

func (c *client) ID() string {
	return c.id
}

func (c *client) Fit(ctx context.Context, ins transport.FitIns) (fl.ClientUpdate, error) {
	cfg := c.cfg
	if v, ok := ins.Config[transport.ConfigLocalEpochs]; ok {
		cfg.Epochs = int(v)
	}
	if v, ok := ins.Config[transport.ConfigBatchSize]; ok {
		cfg.BatchSize = int(v)
	}
	if v, ok := ins.Config[transport.ConfigLearningRate]; ok {
		cfg.LearningRate = v
	}
	if v, ok := ins.Config[transport.ConfigPositiveWeight]; ok {
		cfg.PositiveWeight = v
	}
	cfg.Seed += uint64(ins.Round)

	res, err := model.NewTrainer(cfg).Fit(ctx, ins.Parameters, c.data.X, c.data.Y)
	if err != nil {
		return fl.ClientUpdate{}, err
	}

	return fl.ClientUpdate{
		ClientID:   c.id,
		Round:      ins.Round,
		Parameters: res.Parameters,
		NumSamples: res.NumSamples,
		Metrics:    res.Metrics,
		ReceivedAt: time.Now(),
	}, nil
}
