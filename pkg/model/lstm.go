// Package model holds the fixed fraud classifier: one LSTM layer followed by
// a sigmoid dense unit. Weights travel as fl.Parameters in Keras order.
package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/absmach/fedfraud/pkg/fl"
	"golang.org/x/sync/errgroup"
)

// DefaultUnits is the width of the recurrent layer.
const DefaultUnits = 64

const (
	numTensors = 5
	numGates   = 4
	batchSize  = 64
)

var (
	ErrShape    = errors.New("model parameters have an unexpected shape")
	ErrSequence = errors.New("sequence does not match the model input width")
)

// LSTM is a read-only view of parameters as a network. It is safe for
// concurrent use.
type LSTM struct {
	features int
	units    int
	// kernel is [features][4*units], recurrent is [units][4*units].
	kernel    []float64
	recurrent []float64
	bias      []float64
	dense     []float64
	denseBias float64
}

// FromParameters checks shapes and wraps p. The tensors are not copied.
func FromParameters(p fl.Parameters) (*LSTM, error) {
	if len(p) != numTensors {
		return nil, fmt.Errorf("%w: want %d tensors, got %d", ErrShape, numTensors, len(p))
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Join(ErrShape, err)
	}
	if len(p[0].Shape) != 2 || len(p[1].Shape) != 2 {
		return nil, fmt.Errorf("%w: kernels must be rank 2", ErrShape)
	}

	features, gates := p[0].Shape[0], p[0].Shape[1]
	units := p[1].Shape[0]
	switch {
	case features < 1 || units < 1:
		return nil, fmt.Errorf("%w: empty layer", ErrShape)
	case gates != numGates*units:
		return nil, fmt.Errorf("%w: kernel %v does not match %d units", ErrShape, p[0].Shape, units)
	case p[1].Shape[1] != numGates*units:
		return nil, fmt.Errorf("%w: recurrent kernel %v", ErrShape, p[1].Shape)
	case len(p[2].Data) != numGates*units:
		return nil, fmt.Errorf("%w: bias %v", ErrShape, p[2].Shape)
	case len(p[3].Data) != units:
		return nil, fmt.Errorf("%w: dense kernel %v", ErrShape, p[3].Shape)
	case len(p[4].Data) != 1:
		return nil, fmt.Errorf("%w: dense bias %v", ErrShape, p[4].Shape)
	}

	return &LSTM{
		features:  features,
		units:     units,
		kernel:    p[0].Data,
		recurrent: p[1].Data,
		bias:      p[2].Data,
		dense:     p[3].Data,
		denseBias: p[4].Data[0],
	}, nil
}

func (m *LSTM) Features() int { return m.features }

func (m *LSTM) Units() int { return m.units }

// NewParameters returns Glorot-uniform kernels with zero biases and a unit
// forget-gate bias. The same seed always yields the same parameters.
func NewParameters(features, units int, seed uint64) fl.Parameters {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	gates := numGates * units

	kernel := fl.NewTensor(features, gates)
	glorot(rng, kernel.Data, features, gates)
	recurrent := fl.NewTensor(units, gates)
	glorot(rng, recurrent.Data, units, gates)
	bias := fl.NewTensor(gates)
	for j := units; j < 2*units; j++ {
		bias.Data[j] = 1
	}
	dense := fl.NewTensor(units, 1)
	glorot(rng, dense.Data, units, 1)

	return fl.Parameters{kernel, recurrent, bias, dense, fl.NewTensor(1)}
}

func glorot(rng *rand.Rand, data []float64, fanIn, fanOut int) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
}

// Hidden runs the recurrent layer over seq and returns the final hidden state.
func (m *LSTM) Hidden(seq [][]float64) ([]float64, error) {
	h := make([]float64, m.units)
	c := make([]float64, m.units)
	z := make([]float64, numGates*m.units)
	u := m.units

	for t, x := range seq {
		if len(x) != m.features {
			return nil, fmt.Errorf("%w: step %d has %d features, want %d", ErrSequence, t, len(x), m.features)
		}
		copy(z, m.bias)
		for f, v := range x {
			if v == 0 {
				continue
			}
			row := m.kernel[f*len(z) : (f+1)*len(z)]
			for j := range z {
				z[j] += v * row[j]
			}
		}
		for k, v := range h {
			if v == 0 {
				continue
			}
			row := m.recurrent[k*len(z) : (k+1)*len(z)]
			for j := range z {
				z[j] += v * row[j]
			}
		}
		for j := range u {
			i := sigmoid(z[j])
			fg := sigmoid(z[u+j])
			g := math.Tanh(z[2*u+j])
			o := sigmoid(z[3*u+j])
			c[j] = fg*c[j] + i*g
			h[j] = o * math.Tanh(c[j])
		}
	}

	return h, nil
}

// Head applies the dense sigmoid unit to a hidden state.
func (m *LSTM) Head(h []float64) float64 {
	return sigmoid(m.logit(h))
}

func (m *LSTM) logit(h []float64) float64 {
	z := m.denseBias
	for j, v := range h {
		z += v * m.dense[j]
	}

	return z
}

// PredictOne returns the fraud probability of a single sequence.
func (m *LSTM) PredictOne(seq [][]float64) (float64, error) {
	h, err := m.Hidden(seq)
	if err != nil {
		return 0, err
	}

	return m.Head(h), nil
}

// Predict scores every sequence in X. Batches run in parallel, and out[i]
// always belongs to X[i].
func (m *LSTM) Predict(ctx context.Context, X [][][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	err := m.forEach(ctx, X, func(i int, h []float64) {
		out[i] = m.Head(h)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// HiddenStates returns the final hidden state of every sequence in X.
func (m *LSTM) HiddenStates(ctx context.Context, X [][][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	err := m.forEach(ctx, X, func(i int, h []float64) {
		out[i] = h
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (m *LSTM) forEach(ctx context.Context, X [][][]float64, fn func(int, []float64)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for start := 0; start < len(X); start += batchSize {
		end := min(start+batchSize, len(X))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				h, err := m.Hidden(X[i])
				if err != nil {
					return fmt.Errorf("sequence %d: %w", i, err)
				}
				fn(i, h)
			}

			return nil
		})
	}

	return g.Wait()
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
