package database

// Run is one stored evaluation run over a set of annotation exports.
type Run struct {
	ID          string
	CreatedAt   string
	Annotators  int
	Posts       int
	Warnings    int
	SourceFiles []string
}

// AgreementResult is one stored kappa computation. Kappa is nil when the
// computation was unavailable; Pooled marks the cross-category overall row.
type AgreementResult struct {
	RunID        string
	Category     string
	Pooled       bool
	Method       string
	Raters       int
	Posts        int
	Kappa        *float64
	RawAgreement float64
	Band         string
	Cause        *string
}

// DisagreementRow is one stored (post, category) where annotators split.
// Labels maps annotator ID to the label they assigned.
type DisagreementRow struct {
	RunID    string
	PostID   string
	Category string
	Labels   map[string]string
}

// VerdictRow is one stored consensus verdict. Confidence is nil when no
// votes were cast. Votes maps annotator ID to whether they judged the
// model correct.
type VerdictRow struct {
	RunID      string
	PostID     string
	Category   string
	Verdict    string
	Confidence *float64
	Votes      map[string]bool
}

// EvaluationResult is one stored per-category (or pooled) model score.
type EvaluationResult struct {
	RunID     string
	Category  string
	Pooled    bool
	Strategy  string
	Correct   int
	Incorrect int
	Uncertain int
	NoData    int
	Posts     int
	Evaluated int
	Accuracy  float64
	ErrorRate float64
}

// ProblemPostRow is one stored post flagged for a high error rate.
type ProblemPostRow struct {
	RunID     string
	PostID    string
	Errors    int
	Total     int
	ErrorRate float64
}

// Stats contains aggregate database statistics.
type Stats struct {
	Runs        int
	Annotations int
	Verdicts    int
	LastRunID   string
	LastRunAt   string
}
