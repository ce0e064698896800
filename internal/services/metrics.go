package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recommendationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomie_recommendation_requests_total",
		Help: "Recommendation requests served, labeled by phase",
	}, []string{"phase"})

	recommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roomie_recommendation_duration_seconds",
		Help:    "End to end recommendation generation latency",
		Buckets: prometheus.DefBuckets,
	})

	recommendationCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomie_recommendation_cache_hits_total",
		Help: "Recommendation results served from the Redis cache",
	})

	recommendationCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomie_recommendation_cache_misses_total",
		Help: "Recommendation requests that had to be recomputed",
	})

	modelFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomie_model_fallbacks_total",
		Help: "Requests served rule-only because no model snapshot was published",
	})

	modelTrainings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomie_model_trainings_total",
		Help: "Training runs, labeled by outcome",
	}, []string{"result"})

	modelSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roomie_model_entities",
		Help: "Members and posts covered by the published model snapshot",
	}, []string{"entity"})
)
