package agreement

import "github.com/clearlabel/agreekit/internal/annotation"

// ConfusionMatrix counts, for one category with exactly two raters, how
// often rater A assigned the row label while rater B assigned the column
// label, over the same usable posts the kappa was computed on.
type ConfusionMatrix struct {
	Category annotation.Category
	Labels   []annotation.Label
	Counts   [][]int // Counts[a][b]: rater A chose Labels[a], rater B chose Labels[b]
	Posts    int
}

func buildConfusion(cat annotation.Category, rows [][]int, codec *annotation.Codec) *ConfusionMatrix {
	k := codec.Size()
	counts := make([][]int, k)
	for i := range counts {
		counts[i] = make([]int, k)
	}
	for _, row := range rows {
		counts[row[0]][row[1]]++
	}
	return &ConfusionMatrix{
		Category: cat,
		Labels:   codec.Labels(),
		Counts:   counts,
		Posts:    len(rows),
	}
}

// MarginalA returns the fraction of posts rater A assigned the label at
// the given code.
func (m *ConfusionMatrix) MarginalA(code int) float64 {
	if m.Posts == 0 {
		return 0
	}
	total := 0
	for _, c := range m.Counts[code] {
		total += c
	}
	return float64(total) / float64(m.Posts)
}

// MarginalB returns the fraction of posts rater B assigned the label at
// the given code.
func (m *ConfusionMatrix) MarginalB(code int) float64 {
	if m.Posts == 0 {
		return 0
	}
	total := 0
	for _, row := range m.Counts {
		total += row[code]
	}
	return float64(total) / float64(m.Posts)
}
