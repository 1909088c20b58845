package handler

import (
	"fmt"
	"net/http"

	"github.com/cardvault/gateway/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "# TYPE gateway_cards_tokenized_total counter\n")
	writeMetric(w, "gateway_cards_tokenized_total %d\n", snap.CardsTokenized)

	writeMetric(w, "# TYPE gateway_authorizations_created_total counter\n")
	writeMetric(w, "gateway_authorizations_created_total %d\n", snap.AuthorizationsCreated)

	writeMetric(w, "# TYPE gateway_authorizations_rejected_total counter\n")
	writeMetric(w, "gateway_authorizations_rejected_total{reason=\"invalid_amount\"} %d\n", snap.AuthorizationsRejectedAmount)
	writeMetric(w, "gateway_authorizations_rejected_total{reason=\"invalid_token\"} %d\n", snap.AuthorizationsRejectedToken)
	writeMetric(w, "gateway_authorizations_rejected_total{reason=\"other\"} %d\n", snap.AuthorizationsRejectedOther)

	writeMetric(w, "# TYPE gateway_captures_total counter\n")
	writeMetric(w, "gateway_captures_total %d\n", snap.Captures)
	writeMetric(w, "# TYPE gateway_refunds_total counter\n")
	writeMetric(w, "gateway_refunds_total %d\n", snap.Refunds)
	writeMetric(w, "# TYPE gateway_platform_fees_captured_minor_units_total counter\n")
	writeMetric(w, "gateway_platform_fees_captured_minor_units_total %d\n", snap.PlatformFeesCapturedMinorUnits)

	writeMetric(w, "# TYPE gateway_signups_total counter\n")
	writeMetric(w, "gateway_signups_total %d\n", snap.Signups)
	writeMetric(w, "# TYPE gateway_logins_failed_total counter\n")
	writeMetric(w, "gateway_logins_failed_total %d\n", snap.LoginsFailed)

	writeMetric(w, "# TYPE gateway_ledger_events_published_total counter\n")
	writeMetric(w, "gateway_ledger_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "gateway_ledger_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
