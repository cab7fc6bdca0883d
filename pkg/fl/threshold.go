package fl

const (
	thresholdMin   = 0.05
	thresholdMax   = 0.90
	thresholdSteps = 50
)

// ThresholdGrid returns the candidate operating thresholds in ascending order.
func ThresholdGrid() []float64 {
	grid := make([]float64, thresholdSteps)
	step := (thresholdMax - thresholdMin) / float64(thresholdSteps-1)
	for i := range grid {
		grid[i] = thresholdMin + float64(i)*step
	}
	grid[thresholdSteps-1] = thresholdMax

	return grid
}

// SelectThreshold scans ThresholdGrid and returns the threshold with the
// strictly greatest F1, keeping the lowest one on ties. It returns 0 when
// the input is empty, mismatched, single-class, or no threshold scores F1 > 0.
func SelectThreshold(probs []float64, labels []int) float64 {
	if len(probs) == 0 || len(probs) != len(labels) || singleClass(labels) {
		return 0
	}

	var bestF1, bestThreshold float64
	for _, t := range ThresholdGrid() {
		c := confusionAt(probs, labels, t)
		if f1 := c.f1(); f1 > bestF1 {
			bestF1 = f1
			bestThreshold = t
		}
	}

	return bestThreshold
}

func singleClass(labels []int) bool {
	for _, l := range labels[1:] {
		if l != labels[0] {
			return false
		}
	}

	return true
}
