package api

import (
	"errors"
	"fmt"

	"github.com/absmach/fedfraud/pkg/api"
	"github.com/absmach/fedfraud/pkg/storage"
)

var (
	errInvalidRound     = errors.New("round must be positive")
	errScoreOutOfRange  = errors.New("scores must lie in [0, 1]")
	errInvalidThreshold = errors.New("threshold must lie in [0, 1]")
	errNoSequences      = errors.New("at least one sequence is required")
	errEmptySequence    = errors.New("sequences must have at least one step")
	errLimitSize        = fmt.Errorf("limit must not exceed %d", api.MaxLimitSize)
)

type updateMetricsReq struct {
	Round     int     `json:"round"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	PRAUC     float64 `json:"pr_auc"`
}

func (r *updateMetricsReq) validate() error {
	if r.Round < 1 {
		return errInvalidRound
	}
	for _, v := range []float64{r.Accuracy, r.Precision, r.Recall, r.F1, r.PRAUC} {
		if v < 0 || v > 1 {
			return errScoreOutOfRange
		}
	}

	return nil
}

func (r *updateMetricsReq) metrics() storage.RoundMetrics {
	return storage.RoundMetrics{
		Round:     r.Round,
		Accuracy:  r.Accuracy,
		Precision: r.Precision,
		Recall:    r.Recall,
		F1:        r.F1,
		PRAUC:     r.PRAUC,
	}
}

type listMetricsReq struct {
	offset, limit uint64
}

func (r *listMetricsReq) validate() error {
	if r.limit > api.MaxLimitSize {
		return errLimitSize
	}

	return nil
}

type updateThresholdReq struct {
	Threshold *float64 `json:"threshold"`
}

func (r *updateThresholdReq) validate() error {
	if r.Threshold == nil || *r.Threshold < 0 || *r.Threshold > 1 {
		return errInvalidThreshold
	}

	return nil
}

type predictReq struct {
	Sequences [][][]float64 `json:"sequences"`
}

func (r *predictReq) validate() error {
	if len(r.Sequences) == 0 {
		return errNoSequences
	}
	for _, seq := range r.Sequences {
		if len(seq) == 0 {
			return errEmptySequence
		}
	}

	return nil
}
