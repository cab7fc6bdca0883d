package fl_test

import (
	"testing"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		probs     []float64
		labels    []int
		threshold float64
		want      fl.EvaluationReport
		err       error
	}{
		{
			name:      "perfect predictions",
			probs:     []float64{0.9, 0.1, 0.8, 0.2},
			labels:    []int{1, 0, 1, 0},
			threshold: 0.5,
			want:      fl.EvaluationReport{Accuracy: 1, Precision: 1, Recall: 1, F1: 1, PRAUC: 1},
		},
		{
			name:      "no positive predictions",
			probs:     []float64{0.3, 0.1, 0.2},
			labels:    []int{1, 0, 0},
			threshold: 0.5,
			want:      fl.EvaluationReport{Accuracy: 2.0 / 3, Precision: 0, Recall: 0, F1: 0, PRAUC: 1},
		},
		{
			name:      "no positive labels",
			probs:     []float64{0.3, 0.9},
			labels:    []int{0, 0},
			threshold: 0.5,
			want:      fl.EvaluationReport{Accuracy: 0.5},
		},
		{
			name:      "prediction equal to threshold is negative",
			probs:     []float64{0.5, 0.6},
			labels:    []int{1, 1},
			threshold: 0.5,
			want:      fl.EvaluationReport{Accuracy: 0.5, Precision: 1, Recall: 0.5, F1: 2.0 / 3, PRAUC: 1},
		},
		{
			name: "empty input",
			want: fl.EvaluationReport{},
		},
		{
			name:   "length mismatch",
			probs:  []float64{0.1},
			labels: []int{1, 0},
			err:    fl.ErrLengthMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := fl.Evaluate(tc.probs, tc.labels, tc.threshold)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want.Accuracy, got.Accuracy, 1e-12)
			assert.InDelta(t, tc.want.Precision, got.Precision, 1e-12)
			assert.InDelta(t, tc.want.Recall, got.Recall, 1e-12)
			assert.InDelta(t, tc.want.F1, got.F1, 1e-12)
			assert.InDelta(t, tc.want.PRAUC, got.PRAUC, 1e-12)
		})
	}
}

func TestPRAUC(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		probs  []float64
		labels []int
		want   float64
	}{
		{
			name:   "interleaved scores",
			probs:  []float64{0.9, 0.8, 0.7, 0.6},
			labels: []int{1, 0, 1, 0},
			want:   0.5 + 0.5*(0.5+2.0/3)/2,
		},
		{
			name:   "tied scores form one step",
			probs:  []float64{0.5, 0.5},
			labels: []int{1, 0},
			want:   0.75,
		},
		{
			name:   "input order does not matter",
			probs:  []float64{0.6, 0.7, 0.8, 0.9},
			labels: []int{0, 1, 0, 1},
			want:   0.5 + 0.5*(0.5+2.0/3)/2,
		},
		{
			name:   "no positives",
			probs:  []float64{0.2, 0.4},
			labels: []int{0, 0},
			want:   0,
		},
		{
			name: "empty",
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tc.want, fl.PRAUC(tc.probs, tc.labels), 1e-12)
		})
	}
}

func TestEvaluationReportRounded(t *testing.T) {
	t.Parallel()

	r := fl.EvaluationReport{Round: 3, Accuracy: 0.12345649, PRAUC: 0.9999996, Threshold: 0.206122449}
	got := r.Rounded()

	assert.Equal(t, 3, got.Round)
	assert.InDelta(t, 0.123456, got.Accuracy, 1e-12)
	assert.InDelta(t, 1.0, got.PRAUC, 1e-12)
	assert.InDelta(t, 0.206122, got.Threshold, 1e-12)
	assert.InDelta(t, 0.9999996, r.PRAUC, 1e-15)
}
