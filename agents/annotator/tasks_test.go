package annotator

import (
	"errors"
	"testing"
	"time"

	"video-annotator/internal/models"
	"video-annotator/shared/config"
)

func testVideos(keys ...string) []*models.Video {
	videos := make([]*models.Video, len(keys))
	for i, k := range keys {
		videos[i] = &models.Video{ID: k, Title: "Video " + k, URL: "https://example.com/" + k}
	}
	return videos
}

func TestTaskListTransitions(t *testing.T) {
	list := NewTaskList()
	col := config.CollectionConfig{ID: "docks"}
	if first := list.Add(col, testVideos("a", "b")); first != 0 {
		t.Fatalf("Add() = %d, want 0", first)
	}
	if first := list.Add(col, testVideos("c")); first != 2 {
		t.Fatalf("second Add() = %d, want 2", first)
	}

	if _, err := list.Complete(0, nil, models.ReadinessReady); err == nil {
		t.Error("Complete() on a pending task should fail")
	}

	if task, err := list.Start(0); err != nil || task.State != TaskProcessing {
		t.Fatalf("Start(0) = (%v, %v)", task.State, err)
	}
	if _, err := list.Start(0); err == nil {
		t.Error("Start() twice should fail")
	}

	set := &models.AnnotationSet{Segments: make([]models.AnnotationSegment, 2), OverallConfidence: 0.8}
	task, err := list.Complete(0, set, models.ReadinessReady)
	if err != nil {
		t.Fatalf("Complete(0) error = %v", err)
	}
	if task.State != TaskDone || task.Segments != 2 || task.OverallConfidence != 0.8 {
		t.Errorf("completed task = %+v", task)
	}

	list.Start(1)
	task, err = list.Fail(1, errors.New("timeout"))
	if err != nil {
		t.Fatalf("Fail(1) error = %v", err)
	}
	if task.State != TaskFailed || task.Readiness != models.ReadinessNeedsReview {
		t.Errorf("failed task = %+v, want failed/needs_review", task)
	}

	if _, err := list.Start(5); err == nil {
		t.Error("Start() out of range should fail")
	}

	if got := list.Count(TaskPending); got != 1 {
		t.Errorf("Count(pending) = %d, want 1", got)
	}

	status := list.Status()
	if len(status) != 3 {
		t.Fatalf("len(Status()) = %d, want 3", len(status))
	}
	if status[1].Error != "timeout" || status[1].Video != "b" || status[1].CollectionID != "docks" {
		t.Errorf("status[1] = %+v", status[1])
	}
	if status[2].State != "pending" {
		t.Errorf("status[2].State = %s, want pending", status[2].State)
	}
}

func TestTaskListDigest(t *testing.T) {
	list := NewTaskList()
	list.Add(config.CollectionConfig{ID: "docks"}, testVideos("a", "b", "c"))

	list.Start(0)
	list.Complete(0, &models.AnnotationSet{OverallConfidence: 0.9}, models.ReadinessReady)
	list.Start(1)
	list.Complete(1, &models.AnnotationSet{OverallConfidence: 0.3}, models.ReadinessNeedsReview)

	now := time.Now()
	digest := list.Digest(now)
	if !digest.GeneratedAt.Equal(now) {
		t.Error("GeneratedAt not set")
	}
	if len(digest.Ready) != 1 || digest.Ready[0].ItemKey != "a" {
		t.Errorf("Ready = %+v", digest.Ready)
	}
	if len(digest.NeedsReview) != 1 || digest.NeedsReview[0].Title != "Video b" {
		t.Errorf("NeedsReview = %+v (pending tasks must be left out)", digest.NeedsReview)
	}
}
