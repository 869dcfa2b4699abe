package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/textloom/loom/workflow"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loom_runs_started_total",
		Help: "Total workflow runs started",
	})
	runsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loom_runs_completed_total",
		Help: "Total workflow runs that finished successfully",
	})
	runsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loom_runs_failed_total",
		Help: "Total workflow runs that ended in failure",
	})
	stepsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loom_steps_completed_total",
		Help: "Total workflow steps completed",
	})
	stepRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loom_step_retries_total",
		Help: "Total step retries after empty provider output",
	})
)

// observeEvent updates run metrics from a single engine event.
func observeEvent(ev workflow.Event) {
	switch ev.Type {
	case workflow.EventStepCompleted:
		stepsCompleted.Inc()
	case workflow.EventRetrying:
		stepRetries.Inc()
	case workflow.EventRunCompleted:
		runsCompleted.Inc()
	case workflow.EventRunFailed:
		runsFailed.Inc()
	}
}
