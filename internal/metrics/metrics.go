package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder holds the attendance collectors. A nil *Recorder records nothing.
type Recorder struct {
	generatedRecords *prometheus.CounterVec
	generationRuns   *prometheus.CounterVec
	transitions      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		generatedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_generation_records_total",
			Help: "Attendance records considered by the daily generation, by result.",
		}, []string{"result"}),
		generationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_generation_runs_total",
			Help: "Daily generation runs, by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_transitions_total",
			Help: "Check-in and check-out attempts, by action and outcome.",
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(r.generatedRecords, r.generationRuns, r.transitions)
	return r
}

func (r *Recorder) Generation(outcome string, created, skipped int) {
	if r == nil {
		return
	}
	r.generationRuns.WithLabelValues(outcome).Inc()
	r.generatedRecords.WithLabelValues("created").Add(float64(created))
	r.generatedRecords.WithLabelValues("skipped").Add(float64(skipped))
}

func (r *Recorder) Transition(action, outcome string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(action, outcome).Inc()
}
