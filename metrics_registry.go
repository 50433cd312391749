package repcore

import "github.com/prometheus/client_golang/prometheus"

// prometheusGaugeVec builds a GaugeVec and registers it through
// registerMetric, which skips registration when
// prometheus.DefaultRegisterer is nil and tolerates duplicates so unit
// tests that construct many replicas don't panic.
func prometheusGaugeVec(namespace, subsystem, name, help string, labels []string) *prometheus.GaugeVec {
	v := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	registerMetric(v)
	return v
}

func prometheusCounterVec(namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	v := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	registerMetric(v)
	return v
}

func prometheusHistogramVec(namespace, subsystem, name, help string, labels []string) *prometheus.HistogramVec {
	v := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	registerMetric(v)
	return v
}

// registerMetric registers c, tolerating an AlreadyRegisteredError so
// that building a second Replica in the same process (or in tests)
// does not panic. The collector from that second call is left
// unregistered; it is not swapped for the one already registered.
func registerMetric(c prometheus.Collector) {
	if prometheus.DefaultRegisterer == nil {
		return
	}
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}
