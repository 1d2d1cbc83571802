package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the form service.
type Metrics struct {
	SubmissionsAccepted   prometheus.Counter
	SubmissionsRejected   prometheus.Counter
	SubmissionsIncomplete prometheus.Counter
	UploadOutcomes        *prometheus.CounterVec
	ValidationErrors      prometheus.Counter
}

// New creates and registers the service metrics with a fresh registry, so
// tests can construct instances without duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "iskolar_forms_submissions_accepted_total",
			Help: "Applications whose base response row was stored",
		}),
		SubmissionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "iskolar_forms_submissions_rejected_total",
			Help: "Applications rejected before any write",
		}),
		SubmissionsIncomplete: factory.NewCounter(prometheus.CounterOpts{
			Name: "iskolar_forms_submissions_incomplete_total",
			Help: "Applications stored with one or more failed file uploads",
		}),
		UploadOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iskolar_forms_uploads_total",
			Help: "Per-field file upload outcomes",
		}, []string{"outcome"}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "iskolar_forms_validation_errors_total",
			Help: "Field-level validation failures returned to applicants",
		}),
	}
}
