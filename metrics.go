package repcore

// newMetrics initializes Prometheus metrics for monitoring a replica,
// following the teacher's newMetrics(nodeId, namespace) convention
// (metrics.go).
func newMetrics(nodeID, namespace string) *metrics {
	m := &metrics{
		id: nodeID,
		status: prometheusGaugeVec(namespace, "replica", "status",
			"Indicates the current replica status per partition (1=active)",
			[]string{"partition", "status"}),
		reconfigurationDuration: prometheusHistogramVec(namespace, "replica", "reconfiguration_duration_seconds",
			"Indicates how long a meta-service reconfiguration round trip took, including retries",
			[]string{"partition", "type"}),
		reconfigurationRetries: prometheusCounterVec(namespace, "replica", "reconfiguration_retries_total",
			"Counts every retry scheduled against the meta service after a non-terminal error",
			[]string{"partition"}),
		learnerAdmissions: prometheusCounterVec(namespace, "replica", "learner_admissions_total",
			"Counts accepted add-learner proposals",
			[]string{"partition"}),
		learnerRejections: prometheusCounterVec(namespace, "replica", "learner_rejections_total",
			"Counts rejected add-learner proposals",
			[]string{"partition"}),
	}
	return m
}

func (m *metrics) setStatus(pid PartitionId, s Status) {
	if m == nil {
		return
	}
	for _, candidate := range []Status{Inactive, PotentialSecondary, Secondary, Primary, Error} {
		v := 0.0
		if candidate == s {
			v = 1.0
		}
		m.status.WithLabelValues(pid.String(), candidate.String()).Set(v)
	}
}

func (m *metrics) observeReconfiguration(pid PartitionId, proposalType ProposalType, seconds float64) {
	if m == nil {
		return
	}
	m.reconfigurationDuration.WithLabelValues(pid.String(), proposalType.String()).Observe(seconds)
}

func (m *metrics) incRetry(pid PartitionId) {
	if m == nil {
		return
	}
	m.reconfigurationRetries.WithLabelValues(pid.String()).Inc()
}

func (m *metrics) incLearnerAdmission(pid PartitionId) {
	if m == nil {
		return
	}
	m.learnerAdmissions.WithLabelValues(pid.String()).Inc()
}

func (m *metrics) incLearnerRejection(pid PartitionId) {
	if m == nil {
		return
	}
	m.learnerRejections.WithLabelValues(pid.String()).Inc()
}
