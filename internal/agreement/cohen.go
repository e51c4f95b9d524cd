package agreement

// cohenKappa computes Cohen's kappa for exactly two raters from paired
// label codes. k is the vocabulary size.
//
// Observed agreement po is the contingency trace over N. Expected
// agreement pe comes from the product of the two raters' marginals.
// When pe == 1 (both raters only ever used a single label) chance
// agreement is total and kappa is defined as 1.0 instead of dividing
// by zero.
func cohenKappa(rows [][]int, k int) float64 {
	n := len(rows)

	contingency := make([][]int, k)
	for i := range contingency {
		contingency[i] = make([]int, k)
	}
	for _, row := range rows {
		contingency[row[0]][row[1]]++
	}

	rowMarginal := make([]float64, k)
	colMarginal := make([]float64, k)
	trace := 0
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			rowMarginal[i] += float64(contingency[i][j])
			colMarginal[j] += float64(contingency[i][j])
		}
		trace += contingency[i][i]
	}

	nf := float64(n)
	po := float64(trace) / nf

	pe := 0.0
	for i := 0; i < k; i++ {
		pe += rowMarginal[i] * colMarginal[i] / (nf * nf)
	}

	if 1-pe < epsilon {
		return 1.0
	}
	return (po - pe) / (1 - pe)
}

// epsilon guards the degenerate-distribution division.
const epsilon = 1e-12
