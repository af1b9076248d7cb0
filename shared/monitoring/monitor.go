package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// TaskStatus is the board entry for one item of the latest batch run.
type TaskStatus struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Video        string    `json:"video"`
	State        string    `json:"state"`
	Readiness    string    `json:"readiness,omitempty"`
	Confidence   float64   `json:"overall_confidence"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	tasks          []TaskStatus
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	log.Printf("✅ Run completed successfully - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Items that need review don't make the service unhealthy
	log.Printf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	log.Printf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
	log.Printf("Failure occurred at: %s", time.Now().Format("2006-01-02 15:04:05"))
}

// SetTasks replaces the task board with a snapshot of the current batch.
func (m *Monitor) SetTasks(tasks []TaskStatus) {
	snapshot := make([]TaskStatus, len(tasks))
	copy(snapshot, tasks)

	m.mu.Lock()
	m.tasks = snapshot
	m.mu.Unlock()
}

// Tasks returns a copy of the task board.
func (m *Monitor) Tasks() []TaskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]TaskStatus, len(m.tasks))
	copy(out, m.tasks)
	return out
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last run: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("❌ Last run failed: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
