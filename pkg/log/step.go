package log

import "time"

// StepTracker reports the progress of connection attempt phases. The
// desktop surfaces these steps in its connection troubleshooting view,
// so step names are user-facing.
type StepTracker struct {
	logger Logger
	connID string
}

// NewStepTracker creates a tracker emitting to the given logger. A nil
// logger disables reporting.
func NewStepTracker(logger Logger, connID string) *StepTracker {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &StepTracker{logger: logger, connID: connID}
}

// Start begins a named step and emits its started event.
func (t *StepTracker) Start(name string) *Step {
	t.logger.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: t.connID,
		Category:     CategoryStep,
		Step:         &StepEvent{Name: name, Status: StepStarted},
	})
	return &Step{tracker: t, name: name, startedAt: time.Now()}
}

// Step is a single in-progress phase. Exactly one of Complete or Fail
// should be called; later calls are ignored.
type Step struct {
	tracker   *StepTracker
	name      string
	startedAt time.Time
	done      bool
}

// Complete marks the step as finished successfully.
func (s *Step) Complete() {
	s.finish(StepCompleted, "")
}

// Fail marks the step as failed with the given reason.
func (s *Step) Fail(detail string) {
	s.finish(StepFailed, detail)
}

func (s *Step) finish(status StepStatus, detail string) {
	if s.done {
		return
	}
	s.done = true
	s.tracker.logger.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: s.tracker.connID,
		Category:     CategoryStep,
		Step: &StepEvent{
			Name:    s.name,
			Status:  status,
			Detail:  detail,
			Elapsed: time.Since(s.startedAt),
		},
	})
}
