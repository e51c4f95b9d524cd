package annotation

// Record holds one annotator's view of one post: the raw feedback label
// per category, plus the AI's own predicted label per category. Feedback
// values are raw export strings; normalization happens through the Codec.
type Record struct {
	PostID      string
	AnnotatorID string
	Feedback    map[Category]string
	Predictions map[Category]string
}

// FeedbackLabel returns the normalized feedback label for a category.
func (r Record) FeedbackLabel(codec *Codec, cat Category) Label {
	raw, ok := r.Feedback[cat]
	if !ok {
		return Missing
	}
	return codec.Normalize(cat, raw)
}

// Categories converts configured category names to Category values,
// preserving order.
func Categories(names []string) []Category {
	cats := make([]Category, len(names))
	for i, n := range names {
		cats[i] = Category(n)
	}
	return cats
}
