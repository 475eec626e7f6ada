package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserCreated()                                    {}
func (n *NoopRecorder) IncUserUpdated()                                    {}
func (n *NoopRecorder) IncUserRejected()                                   {}
func (n *NoopRecorder) IncSignupRateLimited()                              {}
func (n *NoopRecorder) IncMigrationsApplied(count int)                     {}
func (n *NoopRecorder) IncMigrationRunFailed()                             {}
func (n *NoopRecorder) ObserveMigrationRunDuration(duration time.Duration) {}
