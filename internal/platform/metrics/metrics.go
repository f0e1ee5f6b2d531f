// Package metrics exposes Prometheus instruments for onboarding and chat
// token issuance.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

var (
	groupSyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_group_syncs_total",
		Help: "Remote field-group upserts by group and result.",
	}, []string{"group", "result"})

	finalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_finalizations_total",
		Help: "Onboarding finalize attempts by result.",
	}, []string{"result"})

	stepAdvancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_step_advances_total",
		Help: "Successful step transitions by target step.",
	}, []string{"step"})

	draftStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_draft_store_errors_total",
		Help: "Local draft store failures by operation.",
	}, []string{"op"})

	chatTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_tokens_issued_total",
		Help: "Chat token issuance attempts by result.",
	}, []string{"result"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_token_rate_limited_total",
		Help: "Chat token requests rejected by the per-IP limiter.",
	})

	photoUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_photo_uploads_total",
		Help: "Photo uploads by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGroupSync records one field-group upsert outcome.
func RecordGroupSync(group, result string) {
	groupSyncsTotal.WithLabelValues(group, result).Inc()
}

// RecordFinalize records a finalize attempt.
func RecordFinalize(result string) {
	finalizationsTotal.WithLabelValues(result).Inc()
}

// RecordStepAdvance records a transition into step.
func RecordStepAdvance(step string) {
	stepAdvancesTotal.WithLabelValues(step).Inc()
}

// RecordDraftStoreError records a swallowed local store failure.
func RecordDraftStoreError(op string) {
	draftStoreErrorsTotal.WithLabelValues(op).Inc()
}

// RecordChatToken records a token issuance attempt.
func RecordChatToken(result string) {
	chatTokensTotal.WithLabelValues(result).Inc()
}

// RecordRateLimited records a rejected token request.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// RecordPhotoUpload records a photo upload outcome.
func RecordPhotoUpload(result string) {
	photoUploadsTotal.WithLabelValues(result).Inc()
}
