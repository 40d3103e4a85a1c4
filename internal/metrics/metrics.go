package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campaign_messages_sent_total", Help: "Messages accepted by the gateway"},
		[]string{"instance"},
	)
	MessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campaign_messages_failed_total", Help: "Messages that failed to send"},
		[]string{"instance"},
	)
	BatchesRun = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campaign_batches_total", Help: "Batch runs executed"},
	)
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_batch_duration_seconds",
			Help:    "Time spent processing one batch",
			Buckets: prometheus.DefBuckets,
		},
	)
	CampaignsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campaigns_completed_total", Help: "Campaigns that reached completed"},
	)
	CampaignsPaused = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campaigns_paused_total", Help: "Campaigns paused by instance disconnect"},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesSent, MessagesFailed, BatchesRun, BatchDuration,
		CampaignsCompleted, CampaignsPaused,
	)
}

// Handler exposes the Prometheus scrape endpoint
func Handler() http.Handler { return promhttp.Handler() }
