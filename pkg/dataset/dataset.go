// Package dataset loads and generates labelled transaction sequences.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	ErrEmpty     = errors.New("dataset is empty")
	ErrMalformed = errors.New("malformed dataset")
)

// Dataset is a set of fixed-shape sequences X[sample][step][feature] with
// binary labels Y[sample].
type Dataset struct {
	X [][][]float64
	Y []int
}

func (d Dataset) Len() int {
	return len(d.Y)
}

// Shape returns the number of steps and features per sequence.
func (d Dataset) Shape() (steps, features int) {
	if len(d.X) == 0 || len(d.X[0]) == 0 {
		return 0, 0
	}

	return len(d.X[0]), len(d.X[0][0])
}

func (d Dataset) Validate() error {
	if len(d.X) == 0 {
		return ErrEmpty
	}
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%w: %d sequences, %d labels", ErrMalformed, len(d.X), len(d.Y))
	}
	steps, features := d.Shape()
	if steps == 0 || features == 0 {
		return fmt.Errorf("%w: zero-length sequences", ErrMalformed)
	}
	for i, seq := range d.X {
		if len(seq) != steps {
			return fmt.Errorf("%w: sequence %d has %d steps, want %d", ErrMalformed, i, len(seq), steps)
		}
		for t, x := range seq {
			if len(x) != features {
				return fmt.Errorf("%w: sequence %d step %d has %d features, want %d", ErrMalformed, i, t, len(x), features)
			}
		}
		if d.Y[i] != 0 && d.Y[i] != 1 {
			return fmt.Errorf("%w: label %d is %d", ErrMalformed, i, d.Y[i])
		}
	}

	return nil
}

// Positives counts fraud labels.
func (d Dataset) Positives() int {
	n := 0
	for _, y := range d.Y {
		n += y
	}

	return n
}

// Synthetic builds a reproducible dataset. Fraud sequences have feature 0
// shifted upwards so a model can separate them.
func Synthetic(n, steps, features int, fraudRate float64, seed uint64) Dataset {
	rng := rand.New(rand.NewPCG(seed, math.Float64bits(fraudRate)))
	d := Dataset{
		X: make([][][]float64, n),
		Y: make([]int, n),
	}
	for i := range n {
		if rng.Float64() < fraudRate {
			d.Y[i] = 1
		}
		d.X[i] = make([][]float64, steps)
		for t := range steps {
			x := make([]float64, features)
			for f := range x {
				x[f] = rng.NormFloat64()
			}
			if d.Y[i] == 1 {
				x[0] += 1.5
			}
			d.X[i][t] = x
		}
	}

	return d
}
