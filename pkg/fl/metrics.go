package fl

import (
	"cmp"
	"fmt"
	"slices"
)

type confusion struct {
	tp, fp, tn, fn int
}

func confusionAt(probs []float64, labels []int, threshold float64) confusion {
	var c confusion
	for i, p := range probs {
		predicted := p > threshold
		actual := labels[i] == 1
		switch {
		case predicted && actual:
			c.tp++
		case predicted && !actual:
			c.fp++
		case !predicted && !actual:
			c.tn++
		default:
			c.fn++
		}
	}

	return c
}

func (c confusion) precision() float64 {
	return safeDivide(float64(c.tp), float64(c.tp+c.fp))
}

func (c confusion) recall() float64 {
	return safeDivide(float64(c.tp), float64(c.tp+c.fn))
}

func (c confusion) f1() float64 {
	p, r := c.precision(), c.recall()
	if p+r == 0 {
		return 0
	}

	return 2 * p * r / (p + r)
}

func (c confusion) accuracy() float64 {
	return safeDivide(float64(c.tp+c.tn), float64(c.tp+c.fp+c.tn+c.fn))
}

func safeDivide(num, den float64) float64 {
	if den == 0 {
		return 0
	}

	return num / den
}

// Evaluate scores probabilities against labels at the given threshold.
// The returned report leaves Round and Threshold for the caller to fill in,
// and is computed at full precision; use Rounded for reporting.
func Evaluate(probs []float64, labels []int, threshold float64) (EvaluationReport, error) {
	if len(probs) != len(labels) {
		return EvaluationReport{}, fmt.Errorf("%w: %d probabilities, %d labels", ErrLengthMismatch, len(probs), len(labels))
	}
	if len(probs) == 0 {
		return EvaluationReport{}, nil
	}

	c := confusionAt(probs, labels, threshold)

	return EvaluationReport{
		Accuracy:  c.accuracy(),
		Precision: c.precision(),
		Recall:    c.recall(),
		F1:        c.f1(),
		PRAUC:     PRAUC(probs, labels),
	}, nil
}

// PRAUC integrates the precision-recall curve with the trapezoidal rule.
// The curve is traced by lowering the cut through every distinct score,
// starting from (recall 0, precision 1). It is 0 when there are no positives.
func PRAUC(probs []float64, labels []int) float64 {
	if len(probs) == 0 || len(probs) != len(labels) {
		return 0
	}

	positives := 0
	for _, l := range labels {
		if l == 1 {
			positives++
		}
	}
	if positives == 0 {
		return 0
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})

	var (
		area          float64
		tp, fp        int
		prevRecall    = 0.0
		prevPrecision = 1.0
	)
	for i := 0; i < len(order); {
		score := probs[order[i]]
		for ; i < len(order) && probs[order[i]] == score; i++ {
			if labels[order[i]] == 1 {
				tp++
			} else {
				fp++
			}
		}
		recall := float64(tp) / float64(positives)
		precision := float64(tp) / float64(tp+fp)
		area += (recall - prevRecall) * (precision + prevPrecision) / 2
		prevRecall, prevPrecision = recall, precision
	}

	return area
}
