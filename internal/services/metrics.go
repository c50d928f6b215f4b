package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedAuthorLookupFailures counts feed items served without an avatar.
	FeedAuthorLookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialfeed_feed_author_lookup_failures_total",
		Help: "Author lookups that failed while assembling the feed",
	}, []string{"reason"})

	// ActivityEventsTotal counts activity events by type.
	ActivityEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialfeed_activity_events_total",
		Help: "Successful writes by activity type",
	}, []string{"event"})
)
