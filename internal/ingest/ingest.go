// Package ingest reads annotation export files. Each JSON file holds one
// annotator's pass over the posts; annotator identity comes from file
// order, not file content.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/clearlabel/agreekit/internal/annotation"
)

// Import is the result of loading one set of export files.
type Import struct {
	Records     []annotation.Record
	Annotators  []string
	Posts       int // distinct post IDs across all files
	SourceFiles []string
	Warnings    int // missing predictions and malformed entries
}

// Loader parses export files against a fixed category set.
type Loader struct {
	categories []annotation.Category
}

// NewLoader creates a loader for the given categories.
func NewLoader(categories []annotation.Category) *Loader {
	return &Loader{categories: categories}
}

// LoadFiles reads the export files in order. The file at index i becomes
// annotator-(i+1), so re-running an import with the same file order
// yields the same annotator IDs.
func (l *Loader) LoadFiles(paths []string) (*Import, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("ingest: no input files")
	}

	imp := &Import{SourceFiles: paths}
	posts := make(map[string]bool)

	for i, path := range paths {
		annotator := fmt.Sprintf("annotator-%d", i+1)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("ingest: open %s: %w", path, err)
		}
		records, warnings, err := l.Parse(f, annotator)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("ingest: parse %s: %w", path, err)
		}

		imp.Records = append(imp.Records, records...)
		imp.Annotators = append(imp.Annotators, annotator)
		imp.Warnings += warnings
		for _, rec := range records {
			posts[rec.PostID] = true
		}
		log.Printf("Loaded %d posts from %s as %s", len(records), path, annotator)
	}

	imp.Posts = len(posts)
	return imp, nil
}

// Parse reads one annotator's export. Posts without an ID are skipped
// with a warning; missing model predictions are warned about but do not
// drop the post, since its human feedback still counts for agreement.
func (l *Loader) Parse(r io.Reader, annotatorID string) ([]annotation.Record, int, error) {
	var export struct {
		Posts []struct {
			PostID   string                     `json:"postId"`
			Feedback map[string]string          `json:"feedback"`
			LLM      map[string]json.RawMessage `json:"llm"`
		} `json:"posts"`
	}
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, 0, fmt.Errorf("decode export: %w", err)
	}

	warnings := 0
	var records []annotation.Record
	for _, post := range export.Posts {
		if post.PostID == "" {
			log.Printf("Skipping post without postId in %s", annotatorID)
			warnings++
			continue
		}

		rec := annotation.Record{
			PostID:      post.PostID,
			AnnotatorID: annotatorID,
			Feedback:    make(map[annotation.Category]string),
			Predictions: make(map[annotation.Category]string),
		}
		for cat, raw := range post.Feedback {
			rec.Feedback[annotation.Category(cat)] = raw
		}
		for _, cat := range l.categories {
			pred, ok := prediction(post.LLM, cat)
			if !ok {
				log.Printf("Missing %s prediction for post %s", predictionField(cat), post.PostID)
				warnings++
				continue
			}
			rec.Predictions[cat] = pred
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].PostID < records[j].PostID })
	return records, warnings, nil
}

// predictionField maps a category to its export field: theme becomes
// llmTheme, contentQuality becomes llmContentQuality.
func predictionField(cat annotation.Category) string {
	s := string(cat)
	if s == "" {
		return ""
	}
	return "llm" + strings.ToUpper(s[:1]) + s[1:]
}

// prediction extracts the model's prediction for one category. The
// objects field arrives as a list; its first element is the prediction.
func prediction(llm map[string]json.RawMessage, cat annotation.Category) (string, bool) {
	raw, ok := llm[predictionField(cat)]
	if !ok {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", false
		}
		return list[0], true
	}

	return "", false
}
