package main

import (
	"context"
	"log/slog"
	"time"

	hhttp "yana/internal/handler/http"
	"yana/internal/observability/slo"
)

// startSLOReporter periodically drains the HTTP metrics window and
// publishes it to the slo gauges, so /metrics exposes current standing
// against the availability, latency, and error-rate targets rather than
// raw counters a dashboard would have to recompute itself.
func startSLOReporter(ctx context.Context, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := hhttp.SnapshotSLOWindow()
			if !ok {
				continue
			}
			slo.UpdateAvailability(snap.Availability)
			slo.UpdateErrorRate(snap.ErrorRate)
			slo.UpdateLatencyP95(snap.LatencyP95)
			slo.UpdateLatencyP99(snap.LatencyP99)

			if snap.Availability < slo.AvailabilitySLO/100 {
				logger.Warn("availability below SLO target",
					slog.Float64("availability", snap.Availability),
					slog.Float64("target", slo.AvailabilitySLO/100))
			}
			if snap.ErrorRate > slo.ErrorRateSLO {
				logger.Warn("error rate above SLO target",
					slog.Float64("error_rate", snap.ErrorRate),
					slog.Float64("target", slo.ErrorRateSLO))
			}
		}
	}
}
