// Package server is the HTTP dashboard over stored evaluation runs.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/clearlabel/agreekit/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for browsing evaluation runs.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"pct": func(f float64) string {
			return fmt.Sprintf("%.2f%%", f*100)
		},
		"score": func(f *float64) string {
			if f == nil {
				return "N/A"
			}
			return fmt.Sprintf("%.4f", *f)
		},
		"conf": func(f *float64) string {
			if f == nil {
				return "N/A"
			}
			return fmt.Sprintf("%.0f%%", *f*100)
		},
		"shortID": func(id string) string {
			if len(id) > 8 {
				return id[:8]
			}
			return id
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "run.html", "disagreements.html", "verdicts.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/run/", s.handleRun)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	runs, err := s.db.ListRuns()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, _ := s.db.GetStats()

	s.render(w, "index.html", map[string]any{
		"Runs":  runs,
		"Stats": stats,
	})
}

// handleRun dispatches /run/{id} and its subpages.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/run/")
	if path == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	runID := parts[0]

	run, err := s.db.GetRun(runID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		s.renderRun(w, run)
		return
	}
	switch parts[1] {
	case "disagreements":
		s.renderDisagreements(w, run)
	case "verdicts":
		s.renderVerdicts(w, run)
	case "charts":
		s.renderCharts(w, run)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) renderRun(w http.ResponseWriter, run *database.Run) {
	agreements, err := s.db.GetAgreementResults(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	evaluations, _ := s.db.GetEvaluationResults(run.ID)
	problems, _ := s.db.GetProblemPosts(run.ID)
	disagreements, _ := s.db.GetDisagreements(run.ID)

	var overallAgreement *database.AgreementResult
	var categories []database.AgreementResult
	for i := range agreements {
		if agreements[i].Pooled {
			overallAgreement = &agreements[i]
		} else {
			categories = append(categories, agreements[i])
		}
	}

	var overallEval *database.EvaluationResult
	var evalCategories []database.EvaluationResult
	for i := range evaluations {
		if evaluations[i].Pooled {
			overallEval = &evaluations[i]
		} else {
			evalCategories = append(evalCategories, evaluations[i])
		}
	}

	s.render(w, "run.html", map[string]any{
		"Run":               run,
		"Agreements":        categories,
		"OverallAgreement":  overallAgreement,
		"Evaluations":       evalCategories,
		"OverallEvaluation": overallEval,
		"ProblemPosts":      problems,
		"DisagreementCount": len(disagreements),
		"Guidance":          guidanceMarkdown(overallAgreement, overallEval),
	})
}

func (s *Server) renderDisagreements(w http.ResponseWriter, run *database.Run) {
	disagreements, err := s.db.GetDisagreements(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "disagreements.html", map[string]any{
		"Run":           run,
		"Disagreements": disagreements,
	})
}

func (s *Server) renderVerdicts(w http.ResponseWriter, run *database.Run) {
	verdicts, err := s.db.GetVerdicts(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "verdicts.html", map[string]any{
		"Run":      run,
		"Verdicts": verdicts,
	})
}

// guidanceMarkdown builds the next-steps note shown on the run page,
// rendered through the markdown template func.
func guidanceMarkdown(agr *database.AgreementResult, eval *database.EvaluationResult) string {
	var b strings.Builder

	if agr != nil && agr.Kappa != nil {
		switch k := *agr.Kappa; {
		case k >= 0.60:
			b.WriteString("**High agreement** (kappa >= 0.6): annotators consistently agreed, " +
				"so the consensus verdicts are reliable error indicators.\n\n")
		case k >= 0.40:
			b.WriteString("**Moderate agreement** (0.4 <= kappa < 0.6): reasonable agreement with " +
				"some ambiguity. Review the disagreement cases before trusting the evaluation.\n\n")
		default:
			b.WriteString("**Low agreement** (kappa < 0.4): annotators could not reliably agree. " +
				"Clarify the annotation guidelines and re-annotate.\n\n")
		}
	} else {
		b.WriteString("**Agreement unavailable**: not enough usable data to compute kappa.\n\n")
	}

	if eval != nil {
		switch acc := eval.Accuracy; {
		case acc >= 0.9:
			b.WriteString("**Excellent**: the model shows outstanding performance (>90% accuracy).")
		case acc >= 0.8:
			b.WriteString("**Good**: the model shows strong performance (80-90% accuracy).")
		case acc >= 0.7:
			b.WriteString("**Fair**: the model shows acceptable performance (70-80% accuracy).")
		default:
			b.WriteString("**Poor**: the model needs significant improvement (<70% accuracy).")
		}
	}
	return b.String()
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
