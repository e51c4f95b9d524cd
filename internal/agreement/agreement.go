package agreement

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/clearlabel/agreekit/internal/annotation"
)

// Method identifies which kappa formula applies, selected once per
// category from the usable rater count rather than branching inside the
// calculation.
type Method int

const (
	MethodNone   Method = iota // agreement not computable
	MethodCohens               // exactly 2 raters
	MethodFleiss               // 3 or more raters
)

// MethodFor selects the kappa formula for a rater count.
func MethodFor(raters int) Method {
	switch {
	case raters == 2:
		return MethodCohens
	case raters >= 3:
		return MethodFleiss
	default:
		return MethodNone
	}
}

func (m Method) String() string {
	switch m {
	case MethodCohens:
		return "Cohen's Kappa"
	case MethodFleiss:
		return "Fleiss' Kappa"
	default:
		return "unavailable"
	}
}

// KappaResult holds the agreement statistics for one category, or for
// the pooled overall computation.
type KappaResult struct {
	Category     annotation.Category
	Method       Method
	Raters       int
	Posts        int     // usable posts (every rater supplied a label)
	Kappa        float64 // NaN while Unavailable
	RawAgreement float64 // fraction of usable posts with unanimous labels
	Band         Band
	Unavailable  bool
	Cause        string
}

// ExcludedPost records a post dropped from one category's table,
// with the reason, so exclusions are reported rather than silent.
type ExcludedPost struct {
	PostID   string
	Category annotation.Category
	Reason   string
}

// Report is the full output of one agreement computation.
type Report struct {
	Raters     []string
	Posts      int // distinct posts seen in the input
	Categories []*KappaResult
	Overall    *KappaResult
	Confusion  []*ConfusionMatrix // populated only for 2-rater runs
	Excluded   []ExcludedPost
}

// Category returns the result for a category, or nil.
func (r *Report) Category(cat annotation.Category) *KappaResult {
	for _, kr := range r.Categories {
		if kr.Category == cat {
			return kr
		}
	}
	return nil
}

// Calculator computes inter-annotator agreement over a fixed category
// set and label vocabulary. It is a pure function of its input records;
// concurrent use on independent inputs is safe.
type Calculator struct {
	codec      *annotation.Codec
	categories []annotation.Category
}

// NewCalculator creates an agreement calculator for the given vocabulary
// and category set.
func NewCalculator(codec *annotation.Codec, categories []annotation.Category) *Calculator {
	return &Calculator{codec: codec, categories: categories}
}

// normalized holds one category's usable rows: one label code per rater,
// rater order fixed and identical across posts.
type normalized struct {
	posts []string
	rows  [][]int
}

// Compute builds per-category tables and dispatches to Cohen's or
// Fleiss' kappa. Per-category failures (too few posts, degenerate data)
// are reported in the result, never as an error; only empty input or an
// empty category set is a caller error.
func (c *Calculator) Compute(records []annotation.Record) (*Report, error) {
	if len(c.categories) == 0 {
		return nil, fmt.Errorf("agreement: no categories configured")
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("agreement: no records supplied")
	}

	raters, posts := roster(records)
	labels := c.labelIndex(records)
	method := MethodFor(len(raters))

	report := &Report{Raters: raters, Posts: len(posts)}

	// Overall pools usable rows across every category into one combined
	// computation, not an average of per-category kappas.
	var pooled [][]int

	for _, cat := range c.categories {
		tab, excluded := c.buildTable(cat, raters, posts, labels)
		report.Excluded = append(report.Excluded, excluded...)

		result := c.computeCategory(cat, method, len(raters), tab)
		report.Categories = append(report.Categories, result)

		if !result.Unavailable && len(raters) == 2 {
			report.Confusion = append(report.Confusion, buildConfusion(cat, tab.rows, c.codec))
		}
		pooled = append(pooled, tab.rows...)
	}

	report.Overall = c.computeCategory("", method, len(raters), &normalized{rows: pooled})
	return report, nil
}

// computeCategory runs the dispatched kappa formula over one table.
func (c *Calculator) computeCategory(cat annotation.Category, method Method, raters int, tab *normalized) *KappaResult {
	result := &KappaResult{
		Category: cat,
		Method:   method,
		Raters:   raters,
		Posts:    len(tab.rows),
		Kappa:    math.NaN(),
	}

	if method == MethodNone {
		result.Unavailable = true
		result.Cause = fmt.Sprintf("agreement requires at least 2 annotators, found %d", raters)
		return result
	}
	if len(tab.rows) < 2 {
		result.Unavailable = true
		result.Cause = fmt.Sprintf("only %d usable posts (need at least 2)", len(tab.rows))
		return result
	}

	switch method {
	case MethodCohens:
		result.Kappa = cohenKappa(tab.rows, c.codec.Size())
	case MethodFleiss:
		result.Kappa = fleissKappa(tab.rows, c.codec.Size())
	}
	result.RawAgreement = rawAgreement(tab.rows)
	result.Band = BandFor(result.Kappa)
	return result
}

// buildTable restricts one category to posts where every rater supplied
// a non-missing label. Dropping a post never affects any other post's
// row (rows are independent).
func (c *Calculator) buildTable(cat annotation.Category, raters, posts []string, labels labelIndex) (*normalized, []ExcludedPost) {
	tab := &normalized{}
	var excluded []ExcludedPost

	for _, post := range posts {
		row := make([]int, len(raters))
		var missing []string
		for i, rater := range raters {
			code := c.codec.Code(labels.get(rater, post, cat))
			row[i] = code
			if code < 0 {
				missing = append(missing, rater)
			}
		}
		if len(missing) > 0 {
			excluded = append(excluded, ExcludedPost{
				PostID:   post,
				Category: cat,
				Reason:   fmt.Sprintf("missing label from %s", strings.Join(missing, ", ")),
			})
			continue
		}
		tab.posts = append(tab.posts, post)
		tab.rows = append(tab.rows, row)
	}
	return tab, excluded
}

// rawAgreement is the fraction of rows where all raters gave the same label.
func rawAgreement(rows [][]int) float64 {
	if len(rows) == 0 {
		return 0
	}
	agree := 0
	for _, row := range rows {
		unanimous := true
		for _, code := range row[1:] {
			if code != row[0] {
				unanimous = false
				break
			}
		}
		if unanimous {
			agree++
		}
	}
	return float64(agree) / float64(len(rows))
}

// labelIndex resolves (rater, post, category) to a normalized label.
type labelIndex map[string]annotation.Label

func labelKey(rater, post string, cat annotation.Category) string {
	return rater + "\x00" + post + "\x00" + string(cat)
}

func (idx labelIndex) get(rater, post string, cat annotation.Category) annotation.Label {
	return idx[labelKey(rater, post, cat)]
}

func (c *Calculator) labelIndex(records []annotation.Record) labelIndex {
	idx := make(labelIndex)
	for _, rec := range records {
		for _, cat := range c.categories {
			l := rec.FeedbackLabel(c.codec, cat)
			if l != annotation.Missing {
				idx[labelKey(rec.AnnotatorID, rec.PostID, cat)] = l
			}
		}
	}
	return idx
}

// roster returns the sorted distinct annotator IDs and post IDs, fixing
// the rater order used in every table.
func roster(records []annotation.Record) (raters, posts []string) {
	raterSet := make(map[string]bool)
	postSet := make(map[string]bool)
	for _, rec := range records {
		raterSet[rec.AnnotatorID] = true
		postSet[rec.PostID] = true
	}
	for r := range raterSet {
		raters = append(raters, r)
	}
	for p := range postSet {
		posts = append(posts, p)
	}
	sort.Strings(raters)
	sort.Strings(posts)
	return raters, posts
}
