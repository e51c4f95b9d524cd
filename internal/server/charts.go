package server

import (
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/clearlabel/agreekit/internal/database"
)

// renderCharts serves the go-echarts page for one run: per-category
// kappa and per-category model accuracy as bar charts.
func (s *Server) renderCharts(w http.ResponseWriter, run *database.Run) {
	agreements, err := s.db.GetAgreementResults(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	evaluations, err := s.db.GetEvaluationResults(run.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	page := components.NewPage()
	page.PageTitle = "Run charts"
	page.AddCharts(kappaChart(agreements), accuracyChart(evaluations))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func kappaChart(results []database.AgreementResult) *charts.Bar {
	var categories []string
	var data []opts.BarData
	for _, r := range results {
		if r.Pooled || r.Kappa == nil {
			continue
		}
		categories = append(categories, r.Category)
		data = append(data, opts.BarData{Value: *r.Kappa})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Inter-annotator agreement",
			Subtitle: "Kappa per category",
		}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1, Max: 1}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(categories).AddSeries("kappa", data)
	return bar
}

func accuracyChart(results []database.EvaluationResult) *charts.Bar {
	var categories []string
	var accuracy []opts.BarData
	var errorRate []opts.BarData
	for _, r := range results {
		if r.Pooled {
			continue
		}
		categories = append(categories, r.Category)
		accuracy = append(accuracy, opts.BarData{Value: r.Accuracy * 100})
		errorRate = append(errorRate, opts.BarData{Value: r.ErrorRate * 100})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Model performance",
			Subtitle: "Accuracy and error rate per category (%)",
		}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(categories).
		AddSeries("accuracy", accuracy).
		AddSeries("error rate", errorRate)
	return bar
}
