package agreement

import "gonum.org/v1/gonum/stat"

// fleissKappa computes Fleiss' kappa for three or more raters from label
// codes, one row per post with the fixed rater count m. k is the
// vocabulary size.
//
// Per-post agreement P_i = (sum_j n_ij^2 - m) / (m*(m-1)), mean over
// posts gives observed agreement. Expected agreement is the sum of
// squared label base rates. The pe == 1 degenerate case is defined as
// kappa 1.0, matching the Cohen's convention.
func fleissKappa(rows [][]int, k int) float64 {
	n := len(rows)
	m := len(rows[0])

	perPost := make([]float64, n)
	totals := make([]float64, k) // sum of n_ij over posts, per label

	counts := make([]int, k)
	for i, row := range rows {
		for j := range counts {
			counts[j] = 0
		}
		for _, code := range row {
			counts[code]++
		}

		sumSquares := 0
		for j, c := range counts {
			sumSquares += c * c
			totals[j] += float64(c)
		}
		perPost[i] = float64(sumSquares-m) / float64(m*(m-1))
	}

	pbar := stat.Mean(perPost, nil)

	pe := 0.0
	nm := float64(n * m)
	for _, t := range totals {
		rate := t / nm
		pe += rate * rate
	}

	if 1-pe < epsilon {
		return 1.0
	}
	return (pbar - pe) / (1 - pe)
}
