package fl

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Tensor is a dense row-major array of one layer's weights or biases.
type Tensor struct {
	Shape []int     `json:"shape" cbor:"shape"`
	Data  []float64 `json:"data"  cbor:"data"`
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int) Tensor {
	return Tensor{
		Shape: slices.Clone(shape),
		Data:  make([]float64, numElements(shape)),
	}
}

func (t Tensor) Validate() error {
	if n := numElements(t.Shape); n != len(t.Data) {
		return fmt.Errorf("%w: shape %v holds %d values, got %d", ErrShapeMismatch, t.Shape, n, len(t.Data))
	}

	return nil
}

func (t Tensor) Clone() Tensor {
	return Tensor{
		Shape: slices.Clone(t.Shape),
		Data:  slices.Clone(t.Data),
	}
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

// Parameters is the ordered set of tensors that make up a model.
// A Parameters value is treated as an immutable snapshot once handed over.
type Parameters []Tensor

func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	for i := range p {
		out[i] = p[i].Clone()
	}

	return out
}

// SameShape reports whether p and other have identical layer shapes.
func (p Parameters) SameShape(other Parameters) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !slices.Equal(p[i].Shape, other[i].Shape) {
			return false
		}
	}

	return true
}

func (p Parameters) Validate() error {
	if len(p) == 0 {
		return ErrEmptyParameters
	}
	for i := range p {
		if err := p[i].Validate(); err != nil {
			return fmt.Errorf("tensor %d: %w", i, err)
		}
	}

	return nil
}

// ClientUpdate is what a client returns at the end of a round.
type ClientUpdate struct {
	ClientID   string             `json:"client_id"`
	Round      int                `json:"round"`
	Parameters Parameters         `json:"parameters"`
	NumSamples int                `json:"num_samples"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	ReceivedAt time.Time          `json:"received_at"`
}

// EvaluationReport holds the aggregated model's scores on the held-out set.
type EvaluationReport struct {
	Round     int     `json:"round"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	PRAUC     float64 `json:"pr_auc"`
	Threshold float64 `json:"threshold"`
}

// Rounded returns a copy with every score rounded for external reporting.
// Comparisons must use the unrounded report.
func (r EvaluationReport) Rounded() EvaluationReport {
	return EvaluationReport{
		Round:     r.Round,
		Accuracy:  Round6(r.Accuracy),
		Precision: Round6(r.Precision),
		Recall:    Round6(r.Recall),
		F1:        Round6(r.F1),
		PRAUC:     Round6(r.PRAUC),
		Threshold: Round6(r.Threshold),
	}
}

func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

type RoundStatus string

const (
	StatusCompleted     RoundStatus = "completed"
	StatusQuorumFailure RoundStatus = "quorum_failure"
	StatusFailed        RoundStatus = "failed"
	StatusAbandoned     RoundStatus = "abandoned"
)

// RoundResult is created once per round and never modified afterwards.
// Parameters and Report are nil when the round did not aggregate.
type RoundResult struct {
	Round      int               `json:"round"`
	Status     RoundStatus       `json:"status"`
	Parameters Parameters        `json:"-"`
	Report     *EvaluationReport `json:"report,omitempty"`
	Failures   []string          `json:"failures,omitempty"`
	NumUpdates int               `json:"num_updates"`
	NewBest    bool              `json:"new_best"`
	Error      string            `json:"error,omitempty"`
}

// Summary drops the parameters so the result can be retained or serialized cheaply.
func (r RoundResult) Summary() RoundResult {
	r.Parameters = nil
	r.Failures = slices.Clone(r.Failures)

	return r
}

// BestModel is the best-scoring aggregated model seen so far.
type BestModel struct {
	Round      int        `json:"round"       cbor:"round"`
	Parameters Parameters `json:"parameters"  cbor:"parameters"`
	PRAUC      float64    `json:"pr_auc"      cbor:"pr_auc"`
	Threshold  float64    `json:"threshold"   cbor:"threshold"`
	SavedAt    time.Time  `json:"saved_at"    cbor:"saved_at"`
}
