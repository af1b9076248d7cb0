package annotator

import (
	"fmt"
	"sync"
	"time"

	"video-annotator/internal/models"
	"video-annotator/shared/config"
	"video-annotator/shared/monitoring"

	"github.com/google/uuid"
)

type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskProcessing TaskState = "processing"
	TaskDone       TaskState = "done"
	TaskFailed     TaskState = "failed"
)

// Task is one video in a batch. A failed task is reported as needs_review.
type Task struct {
	ID                string
	Collection        config.CollectionConfig
	Video             *models.Video
	State             TaskState
	Readiness         models.Readiness
	OverallConfidence float64
	Segments          int
	Err               error
	UpdatedAt         time.Time
}

// TaskList tracks a batch in input order. Transitions are only
// pending -> processing -> done | failed.
type TaskList struct {
	mu    sync.Mutex
	tasks []*Task
}

func NewTaskList() *TaskList {
	return &TaskList{}
}

// Add appends a pending task per video and returns the index of the first.
func (l *TaskList) Add(col config.CollectionConfig, videos []*models.Video) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	first := len(l.tasks)
	now := time.Now()
	for _, v := range videos {
		l.tasks = append(l.tasks, &Task{
			ID:         uuid.NewString(),
			Collection: col,
			Video:      v,
			State:      TaskPending,
			UpdatedAt:  now,
		})
	}
	return first
}

func (l *TaskList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Start moves task i from pending to processing.
func (l *TaskList) Start(i int) (Task, error) {
	return l.transition(i, TaskPending, func(t *Task) {
		t.State = TaskProcessing
	})
}

// Complete records the readiness of an annotated video.
func (l *TaskList) Complete(i int, set *models.AnnotationSet, readiness models.Readiness) (Task, error) {
	return l.transition(i, TaskProcessing, func(t *Task) {
		t.State = TaskDone
		t.Readiness = readiness
		if set != nil {
			t.OverallConfidence = set.OverallConfidence
			t.Segments = len(set.Segments)
		}
	})
}

func (l *TaskList) Fail(i int, err error) (Task, error) {
	return l.transition(i, TaskProcessing, func(t *Task) {
		t.State = TaskFailed
		t.Readiness = models.ReadinessNeedsReview
		t.Err = err
	})
}

func (l *TaskList) transition(i int, from TaskState, apply func(*Task)) (Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.tasks) {
		return Task{}, fmt.Errorf("task index %d out of range", i)
	}
	t := l.tasks[i]
	if t.State != from {
		return *t, fmt.Errorf("task %s is %s, want %s", t.ID, t.State, from)
	}
	apply(t)
	t.UpdatedAt = time.Now()
	return *t, nil
}

// Snapshot returns copies of all tasks in input order.
func (l *TaskList) Snapshot() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Task, len(l.tasks))
	for i, t := range l.tasks {
		out[i] = *t
	}
	return out
}

// Count returns how many tasks are in the given state.
func (l *TaskList) Count(state TaskState) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, t := range l.tasks {
		if t.State == state {
			n++
		}
	}
	return n
}

// Status converts the list for the monitor's task board.
func (l *TaskList) Status() []monitoring.TaskStatus {
	tasks := l.Snapshot()
	out := make([]monitoring.TaskStatus, len(tasks))
	for i, t := range tasks {
		out[i] = monitoring.TaskStatus{
			ID:           t.ID,
			CollectionID: t.Collection.ID,
			Video:        t.Video.Key(),
			State:        string(t.State),
			Readiness:    string(t.Readiness),
			Confidence:   t.OverallConfidence,
			UpdatedAt:    t.UpdatedAt,
		}
		if t.Err != nil {
			out[i].Error = t.Err.Error()
		}
	}
	return out
}

// Digest groups finished tasks for the review email.
func (l *TaskList) Digest(now time.Time) *models.ReviewDigest {
	digest := &models.ReviewDigest{GeneratedAt: now}
	for _, t := range l.Snapshot() {
		if t.State != TaskDone && t.State != TaskFailed {
			continue
		}
		item := models.ReviewItem{
			CollectionID:      t.Collection.ID,
			ItemKey:           t.Video.Key(),
			Title:             t.Video.Title,
			URL:               t.Video.URL,
			Readiness:         t.Readiness,
			OverallConfidence: t.OverallConfidence,
			Segments:          t.Segments,
		}
		if t.Err != nil {
			item.Error = t.Err.Error()
		}
		if t.Readiness == models.ReadinessReady {
			digest.Ready = append(digest.Ready, item)
		} else {
			digest.NeedsReview = append(digest.NeedsReview, item)
		}
	}
	return digest
}
