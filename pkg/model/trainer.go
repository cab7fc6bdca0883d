package model

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/absmach/fedfraud/pkg/fl"
)

// LocalThreshold is the operating point clients report their local scores at.
const LocalThreshold = 0.83

// Metric keys reported in fl.ClientUpdate.Metrics.
const (
	MetricLoss      = "loss"
	MetricAccuracy  = "accuracy"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricF1        = "f1_score"
	MetricPRAUC     = "pr_auc"
)

type TrainConfig struct {
	Epochs         int
	BatchSize      int
	LearningRate   float64
	PositiveWeight float64
	Seed           uint64
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:         2,
		BatchSize:      256,
		LearningRate:   0.01,
		PositiveWeight: 20,
	}
}

type TrainResult struct {
	Parameters fl.Parameters
	NumSamples int
	Metrics    map[string]float64
}

// Trainer fine-tunes the dense head on local data. The recurrent layer is
// frozen, so hidden states are computed once per Fit.
type Trainer struct {
	cfg TrainConfig
}

func NewTrainer(cfg TrainConfig) *Trainer {
	def := DefaultTrainConfig()
	if cfg.Epochs < 1 {
		cfg.Epochs = def.Epochs
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.PositiveWeight <= 0 {
		cfg.PositiveWeight = def.PositiveWeight
	}

	return &Trainer{cfg: cfg}
}

func (t *Trainer) Config() TrainConfig {
	return t.cfg
}

// Fit starts from params and returns new parameters; params is not modified.
func (t *Trainer) Fit(ctx context.Context, params fl.Parameters, X [][][]float64, y []int) (TrainResult, error) {
	if len(X) != len(y) {
		return TrainResult{}, fmt.Errorf("%w: %d sequences, %d labels", fl.ErrLengthMismatch, len(X), len(y))
	}
	if len(X) == 0 {
		return TrainResult{}, fmt.Errorf("%w: no training samples", fl.ErrInvalidSampleCount)
	}

	out := params.Clone()
	net, err := FromParameters(out)
	if err != nil {
		return TrainResult{}, err
	}

	hidden, err := net.HiddenStates(ctx, X)
	if err != nil {
		return TrainResult{}, err
	}

	rng := rand.New(rand.NewPCG(t.cfg.Seed, uint64(len(X))))
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}
	grad := make([]float64, net.units)

	for range t.cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return TrainResult{}, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += t.cfg.BatchSize {
			batch := order[start:min(start+t.cfg.BatchSize, len(order))]
			clear(grad)
			var gradBias float64
			for _, i := range batch {
				diff := t.weight(y[i]) * (net.Head(hidden[i]) - float64(y[i]))
				for j, v := range hidden[i] {
					grad[j] += diff * v
				}
				gradBias += diff
			}
			scale := t.cfg.LearningRate / float64(len(batch))
			for j := range grad {
				net.dense[j] -= scale * grad[j]
			}
			net.denseBias -= scale * gradBias
		}
	}
	out[4].Data[0] = net.denseBias

	probs := make([]float64, len(hidden))
	var loss float64
	for i, h := range hidden {
		probs[i] = net.Head(h)
		loss += t.weight(y[i]) * crossEntropy(probs[i], y[i])
	}
	report, err := fl.Evaluate(probs, y, LocalThreshold)
	if err != nil {
		return TrainResult{}, err
	}

	return TrainResult{
		Parameters: out,
		NumSamples: len(X),
		Metrics: map[string]float64{
			MetricLoss:      loss / float64(len(X)),
			MetricAccuracy:  report.Accuracy,
			MetricPrecision: report.Precision,
			MetricRecall:    report.Recall,
			MetricF1:        report.F1,
			MetricPRAUC:     report.PRAUC,
		},
	}, nil
}

func (t *Trainer) weight(label int) float64 {
	if label == 1 {
		return t.cfg.PositiveWeight
	}

	return 1
}

func crossEntropy(p float64, label int) float64 {
	const eps = 1e-7
	p = math.Min(math.Max(p, eps), 1-eps)
	if label == 1 {
		return -math.Log(p)
	}

	return -math.Log(1 - p)
}
