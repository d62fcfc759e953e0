package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created, by status category",
	}, []string{"status"})

	BookingsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of bookings moved to the cancelled archive",
	})

	BookingsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_completed_total",
		Help: "Total number of bookings completed",
	})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of failed booking operations",
	}, []string{"reason"})

	CodecFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codec_fallbacks_total",
		Help: "Total number of payload decodes recovered via duplicated plain fields",
	})

	SequenceFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequence_fallbacks_total",
		Help: "Total number of sequence issuances that used a fallback step",
	}, []string{"step"})

	MergeInputRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "merge_input_records",
		Help:    "Number of source records per merge invocation",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	SweepDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_deleted_total",
		Help: "Total number of rows removed by the expiry sweeper",
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
