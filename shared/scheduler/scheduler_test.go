package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-annotator/shared/config"
	"video-annotator/shared/monitoring"
)

type fakeMetrics string

func (m fakeMetrics) GetSummary() string { return string(m) }

type fakeAgent struct {
	runs    int
	partial error
	err     error
}

func (a *fakeAgent) Name() string      { return "fake" }
func (a *fakeAgent) Initialize() error { return nil }

func (a *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	a.runs++
	if a.err != nil {
		return a.err
	}
	if a.partial != nil {
		events.OnPartialFailure(a.partial, time.Millisecond)
	}
	events.OnSuccess(fakeMetrics("2 ready"), time.Millisecond)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{Schedule: "0 0 3 * * *", Monitoring: config.MonitoringConfig{HealthPort: 8080}}
}

func TestRunOnceRecordsOutcome(t *testing.T) {
	tests := []struct {
		name        string
		agent       *fakeAgent
		wantErr     bool
		wantHealthy bool
	}{
		{"success", &fakeAgent{}, false, true},
		{"partial failure stays healthy", &fakeAgent{partial: errors.New("1 needs review")}, false, true},
		{"run error", &fakeAgent{err: errors.New("store unavailable")}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := monitoring.NewMonitor()
			s := New(testConfig(), tt.agent, monitor)

			err := s.RunOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunOnce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.agent.runs != 1 {
				t.Errorf("agent ran %d times, want 1", tt.agent.runs)
			}
			if monitor.IsHealthy() != tt.wantHealthy {
				t.Errorf("IsHealthy() = %v, want %v", monitor.IsHealthy(), tt.wantHealthy)
			}
		})
	}
}

func TestNewDefaultsMonitor(t *testing.T) {
	s := New(testConfig(), &fakeAgent{}, nil)
	if s.Monitor() == nil {
		t.Fatal("Monitor() should not be nil")
	}
}
