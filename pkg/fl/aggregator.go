package fl

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

type Aggregator interface {
	Aggregate(updates []ClientUpdate) (Parameters, error)
}

// FedAvgAggregator averages parameters weighted by each update's sample count.
type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

// Aggregate returns Σ(params·n) / Σn. Updates are summed in client ID order,
// not registration order: the aggregator never sees the roster, and sorting
// by ID keeps the floating point sums identical however the updates arrive.
func (f *FedAvgAggregator) Aggregate(updates []ClientUpdate) (Parameters, error) {
	if len(updates) == 0 {
		return nil, ErrNoUpdates
	}

	ordered := slices.Clone(updates)
	slices.SortStableFunc(ordered, func(a, b ClientUpdate) int {
		return cmp.Compare(a.ClientID, b.ClientID)
	})

	ref := ordered[0].Parameters
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("client %s: %w", ordered[0].ClientID, err)
	}

	aggregated := make(Parameters, len(ref))
	for i := range ref {
		aggregated[i] = NewTensor(ref[i].Shape...)
	}

	var totalSamples int64
	for _, update := range ordered {
		if update.NumSamples < 1 {
			return nil, fmt.Errorf("client %s: %w", update.ClientID, ErrInvalidSampleCount)
		}
		if !update.Parameters.SameShape(ref) {
			return nil, fmt.Errorf("client %s: %w", update.ClientID, ErrShapeMismatch)
		}
		if totalSamples > math.MaxInt64-int64(update.NumSamples) {
			return nil, ErrOverflow
		}
		totalSamples += int64(update.NumSamples)

		weight := float64(update.NumSamples)
		for i, t := range update.Parameters {
			if len(t.Data) != len(aggregated[i].Data) {
				return nil, fmt.Errorf("client %s tensor %d: %w", update.ClientID, i, ErrShapeMismatch)
			}
			dst := aggregated[i].Data
			for j, v := range t.Data {
				dst[j] += v * weight
			}
		}
	}

	weightNorm := float64(totalSamples)
	for i := range aggregated {
		for j := range aggregated[i].Data {
			aggregated[i].Data[j] /= weightNorm
		}
	}

	return aggregated, nil
}
