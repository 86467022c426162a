// Package metrics declares the service's Prometheus collectors. They register
// with the default registry served on the metrics router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "psyche_assessments_scored_total",
		Help: "Assessments scored and persisted.",
	})

	AnswersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "psyche_answers_rejected_total",
		Help: "Answer-level problems found in rejected submissions.",
	})

	AssessmentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "psyche_assessments_skipped_total",
		Help: "Stored assessments left out of a batch because their responses no longer re-derive.",
	})

	ReportsComposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "psyche_reports_composed_total",
		Help: "Report documents composed.",
	})

	SectionsOmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psyche_report_sections_omitted_total",
		Help: "Visible template sections that composed to nothing, by reason.",
	}, []string{"reason"})

	ResultsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psyche_results_cache_total",
		Help: "Results cache lookups by outcome (hit, miss, error).",
	}, []string{"outcome"})
)
