package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	provisions      *prom.CounterVec
	taskToggles     prom.Counter
	bulkSaveEntries *prom.CounterVec
	submissions     *prom.CounterVec
	recoveries      *prom.CounterVec
	requestDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		provisions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "havenclean",
			Name:      "checklist_provisions_total",
			Help:      "Get-or-create calls by whether a checklist was created",
		}, []string{"created"}),
		taskToggles: prom.NewCounter(prom.CounterOpts{
			Namespace: "havenclean",
			Name:      "task_toggles_total",
			Help:      "Single-task completion toggles",
		}),
		bulkSaveEntries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "havenclean",
			Name:      "bulk_save_entries_total",
			Help:      "Bulk save entries by whether they were applied or skipped",
		}, []string{"result"}),
		submissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "havenclean",
			Name:      "submissions_total",
			Help:      "Checklist submissions by outcome",
		}, []string{"outcome"}),
		recoveries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "havenclean",
			Name:      "conflict_recoveries_total",
			Help:      "Conflict recovery runs by outcome",
		}, []string{"outcome"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "havenclean",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method, route, and status",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		pr.provisions, pr.taskToggles, pr.bulkSaveEntries,
		pr.submissions, pr.recoveries, pr.requestDuration,
	)
	return pr
}

func (p *PrometheusRecorder) IncProvision(created bool) {
	p.provisions.WithLabelValues(strconv.FormatBool(created)).Inc()
}

func (p *PrometheusRecorder) IncTaskToggle() {
	p.taskToggles.Inc()
}

func (p *PrometheusRecorder) IncBulkSave(applied, skipped int) {
	p.bulkSaveEntries.WithLabelValues("applied").Add(float64(applied))
	p.bulkSaveEntries.WithLabelValues("skipped").Add(float64(skipped))
}

func (p *PrometheusRecorder) IncSubmission(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	p.submissions.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncRecovery(converged bool) {
	outcome := "failed"
	if converged {
		outcome = "converged"
	}
	p.recoveries.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRequestDuration(method, route string, status int, d time.Duration) {
	p.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the
// provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
