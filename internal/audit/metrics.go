package audit

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/wcagscan/internal/model"
)

var (
	passTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wcagscan",
		Name:      "pass_total",
		Help:      "Evaluation pass attempts by source and result.",
	}, []string{"source", "result"})

	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wcagscan",
		Name:      "render_duration_seconds",
		Help:      "Time spent acquiring the rendered snapshot.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
	}, []string{"result"})

	auditScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wcagscan",
		Name:      "audit_score",
		Help:      "Final coverage-adjusted audit scores.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	auditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wcagscan",
		Name:      "audits_total",
		Help:      "Completed audits by effective mode.",
	}, []string{"mode"})
)

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var pe *PassError
	if errors.As(err, &pe) {
		return pe.Kind.String()
	}
	return classify(err).String()
}

// ObserveReport records a completed audit
func ObserveReport(r *model.Report) {
	auditsTotal.WithLabelValues(string(r.ModeEffective)).Inc()
	if r.Score != nil {
		auditScore.Observe(*r.Score)
	}
}
