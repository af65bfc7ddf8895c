// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of email messages that reached a terminal send state.",
		},
		[]string{"status"},
	)

	WebhooksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_webhooks_processed_total",
			Help: "Total number of provider webhooks processed.",
		},
		[]string{"type", "status"},
	)

	QueueConsumeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_consume_duration_seconds",
			Help:    "Time spent handling a single queued message.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"queue"},
	)
)

func RecordEmailSent(status string) {
	EmailsSent.WithLabelValues(status).Inc()
}

func RecordWebhookProcessed(webhookType string, status string) {
	WebhooksProcessed.WithLabelValues(webhookType, status).Inc()
}

func ObserveQueueConsume(queue string, duration time.Duration) {
	QueueConsumeDuration.WithLabelValues(queue).Observe(duration.Seconds())
}
