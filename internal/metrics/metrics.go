package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger", Name: "bot_updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger", Name: "handler_errors_total", Help: "Handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledger", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})

	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger", Name: "submissions_total", Help: "Point change submissions by kind",
	}, []string{"kind"})
	Audit = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger", Name: "audit_total", Help: "Processed pending entries",
	}, []string{"action", "outcome"})
	Settlements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger", Name: "settlements_total", Help: "Auction, bounty and redemption settlements",
	}, []string{"type"})
	BalanceMismatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger", Name: "balance_mismatches", Help: "Students whose cached balance differs from history",
	})

	// Фоновые задачи, метка job.
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger", Subsystem: "job", Name: "runs_total", Help: "Background job runs",
	}, []string{"job"})
	JobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger", Subsystem: "job", Name: "errors_total", Help: "Background job failures, panics included",
	}, []string{"job"})
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger", Subsystem: "job", Name: "duration_seconds", Help: "Background job duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, DBPing, Submissions, Audit, Settlements, BalanceMismatches)
	prometheus.MustRegister(JobRuns, JobErrors, JobDuration)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
