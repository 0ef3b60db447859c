package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts successfully published posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// CommentsCreated counts successfully stored comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Total number of comments created",
	})

	// FollowEvents counts follow graph changes by outcome.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_events_total",
		Help: "Follow and unfollow requests by outcome",
	}, []string{"action", "outcome"})

	// PageCacheLookups counts page cache lookups by result (hit, miss, error).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
