// Package metrics exposes the engine's prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	signalsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "signals_recorded_total",
		Help:      "Signals written by the interaction engine, by type.",
	}, []string{"type"})

	signalsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "signals_rejected_total",
		Help:      "Signal operations rejected by a guard or rate limit, by reason.",
	}, []string{"reason"})

	mutualLikes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "mutual_likes_total",
		Help:      "Like operations that observed a mutual like.",
	})

	matchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "matches_created_total",
		Help:      "Match aggregates created, by source.",
	}, []string{"source"})

	matchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "match_transitions_total",
		Help:      "Match lifecycle mutations, by operation.",
	}, []string{"op"})

	pairsScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "generator_pairs_scored_total",
		Help:      "Pairs scored by the cohort match generator.",
	})

	notifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wedmatch",
		Name:      "notification_failures_total",
		Help:      "Notification deliveries that failed and were dropped, by event.",
	}, []string{"event"})
)

func SignalRecorded(signalType string) { signalsRecorded.WithLabelValues(signalType).Inc() }
func SignalRejected(reason string) { signalsRejected.WithLabelValues(reason).Inc() }
func MutualLike() { mutualLikes.Inc() }
func MatchCreated(source string) { matchesCreated.WithLabelValues(source).Inc() }
func MatchTransition(op string) { matchTransitions.WithLabelValues(op).Inc() }
func PairsScored(n int) { pairsScored.Add(float64(n)) }
func NotificationFailed(event string) { notifyFailures.WithLabelValues(event).Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
