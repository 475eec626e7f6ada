package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated                uint64
	UsersUpdated                uint64
	UsersRejected               uint64
	SignupsRateLimited          uint64
	MigrationsApplied           uint64
	MigrationRunsFailed         uint64
	MigrationRunDurationCount   uint64
	MigrationRunDurationTotalNs int64
}

// InMemoryRecorder keeps counters in process memory. It backs /metrics.
type InMemoryRecorder struct {
	usersCreated                uint64
	usersUpdated                uint64
	usersRejected               uint64
	signupsRateLimited          uint64
	migrationsApplied           uint64
	migrationRunsFailed         uint64
	migrationRunDurationCount   uint64
	migrationRunDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:                atomic.LoadUint64(&m.usersCreated),
		UsersUpdated:                atomic.LoadUint64(&m.usersUpdated),
		UsersRejected:               atomic.LoadUint64(&m.usersRejected),
		SignupsRateLimited:          atomic.LoadUint64(&m.signupsRateLimited),
		MigrationsApplied:           atomic.LoadUint64(&m.migrationsApplied),
		MigrationRunsFailed:         atomic.LoadUint64(&m.migrationRunsFailed),
		MigrationRunDurationCount:   atomic.LoadUint64(&m.migrationRunDurationCount),
		MigrationRunDurationTotalNs: atomic.LoadInt64(&m.migrationRunDurationTotalNs),
	}
}

// IncUserCreated increments the created users counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserUpdated increments the updated users counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserRejected counts create/update requests refused by validation.
func (m *InMemoryRecorder) IncUserRejected() {
	atomic.AddUint64(&m.usersRejected, 1)
}

// IncSignupRateLimited counts registrations refused by the rate limiter.
func (m *InMemoryRecorder) IncSignupRateLimited() {
	atomic.AddUint64(&m.signupsRateLimited, 1)
}

// IncMigrationsApplied adds count to the applied migrations counter.
func (m *InMemoryRecorder) IncMigrationsApplied(count int) {
	if count <= 0 {
		return
	}
	atomic.AddUint64(&m.migrationsApplied, uint64(count))
}

// IncMigrationRunFailed increments the failed migration runs counter.
func (m *InMemoryRecorder) IncMigrationRunFailed() {
	atomic.AddUint64(&m.migrationRunsFailed, 1)
}

// ObserveMigrationRunDuration records how long an apply run took.
func (m *InMemoryRecorder) ObserveMigrationRunDuration(duration time.Duration) {
	atomic.AddUint64(&m.migrationRunDurationCount, 1)
	atomic.AddInt64(&m.migrationRunDurationTotalNs, duration.Nanoseconds())
}
