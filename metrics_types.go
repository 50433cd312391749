package repcore

import "github.com/prometheus/client_golang/prometheus"

// metrics holds Prometheus metrics for monitoring a replica's
// reconfiguration behavior, in the shape of the teacher's metrics
// struct (metrics_types.go).
type metrics struct {
	// id is the node address this metrics set was built for; it is not
	// attached to any series as a label.
	id string

	// status is a gauge that indicates the current replica status for
	// a given partition; one time series per Status value, set to 1
	// for the active one and 0 for the rest, mirroring the teacher's
	// per-state gauge convention.
	status *prometheus.GaugeVec

	// reconfigurationDuration is an histogram that indicates how much
	// time a full updateConfigurationOnMetaServer round trip took,
	// including any retries.
	reconfigurationDuration *prometheus.HistogramVec

	// reconfigurationRetries counts every 1000ms retry scheduled
	// against the meta service.
	reconfigurationRetries *prometheus.CounterVec

	// learnerAdmissions/learnerRejections count addPotentialSecondary
	// admission control outcomes.
	learnerAdmissions  *prometheus.CounterVec
	learnerRejections  *prometheus.CounterVec
}
