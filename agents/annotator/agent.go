package annotator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"video-annotator/agents/annotator/youtube"
	"video-annotator/internal/models"
	"video-annotator/shared/ai"
	"video-annotator/shared/annotation"
	"video-annotator/shared/config"
	"video-annotator/shared/email"
	"video-annotator/shared/monitoring"
	"video-annotator/shared/scheduler"
	"video-annotator/shared/storage"
)

// ErrAnnotationInFlight rejects a second annotation of a video whose first
// analysis has not returned yet.
var ErrAnnotationInFlight = errors.New("annotation already in progress")

// maxPlaylistVideos caps how much of a playlist one run picks up.
const maxPlaylistVideos = 200

// DigestSender delivers the post-run review digest.
type DigestSender interface {
	SendReviewDigest(digest *models.ReviewDigest) error
}

// AnnotatorMetrics implements scheduler.Metrics
type AnnotatorMetrics struct {
	VideosFound int
	Skipped     int
	Annotated   int
	Failed      int
	Ready       int
	NeedsReview int
}

func (m AnnotatorMetrics) GetSummary() string {
	return fmt.Sprintf("found %d videos, annotated %d, %d ready, %d need review",
		m.VideosFound, m.Annotated, m.Ready, m.NeedsReview)
}

// Agent annotates every collection's videos and implements scheduler.Agent.
type Agent struct {
	config   *config.Config
	density  ai.Density
	analyzer ai.Analyzer
	store    *storage.AnnotationStore
	source   VideoSource
	digest   DigestSender
	monitor  *monitoring.Monitor
	pause    time.Duration

	mu        sync.Mutex
	inFlight  map[string]bool
	readiness map[string]models.Readiness
	latest    map[string]*models.AnnotationSet
}

func NewAgent(cfg *config.Config, monitor *monitoring.Monitor) *Agent {
	density, err := ai.ParseDensity(cfg.AI.Density)
	if err != nil {
		log.Printf("Warning: %v, using scene density", err)
		density = ai.DensityScene
	}
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	return &Agent{
		config:    cfg,
		density:   density,
		monitor:   monitor,
		pause:     2 * time.Second,
		inFlight:  make(map[string]bool),
		readiness: make(map[string]models.Readiness),
		latest:    make(map[string]*models.AnnotationSet),
	}
}

func (a *Agent) Name() string {
	return "Video Annotator"
}

func (a *Agent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())
	ctx := context.Background()

	if a.store == nil {
		kv, err := storage.Open(ctx, a.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to open annotation store: %w", err)
		}
		a.store = storage.NewAnnotationStore(kv)
		log.Printf("Annotation store initialized (%s backend)", a.config.Storage.Backend)
	}

	if a.analyzer == nil {
		analyzer, err := ai.NewGeminiAnalyzer(a.config)
		if err != nil {
			return fmt.Errorf("failed to create AI analyzer: %w", err)
		}
		a.analyzer = analyzer
		log.Println("AI analyzer initialized")
	}

	if a.source == nil {
		var playlists PlaylistReader
		if a.usesPlaylists() {
			client, err := youtube.NewClient(ctx, &a.config.YouTube)
			if err != nil {
				return fmt.Errorf("failed to create YouTube client: %w", err)
			}
			playlists = client
			log.Println("YouTube client initialized")
		}
		a.source = NewCatalog(playlists, maxPlaylistVideos)
	}

	if a.digest == nil && a.config.Email.Enabled {
		a.digest = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	return nil
}

// Close releases the annotation store.
func (a *Agent) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.KV().Close()
}

func (a *Agent) usesPlaylists() bool {
	for _, col := range a.config.Collections {
		if col.PlaylistID != "" {
			return true
		}
	}
	return false
}

// RunOnce annotates every video that has no stored annotations yet.
func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	var metrics AnnotatorMetrics
	var sourceErrs []error

	list := NewTaskList()
	for _, col := range a.config.Collections {
		videos, err := a.source.Videos(ctx, col)
		if err != nil {
			log.Printf("Warning: %v", err)
			sourceErrs = append(sourceErrs, err)
		}
		metrics.VideosFound += len(videos)

		pending := a.unannotated(ctx, col, videos)
		metrics.Skipped += len(videos) - len(pending)
		list.Add(col, pending)
	}

	log.Printf("Found %d videos (%d new, %d already annotated)", metrics.VideosFound, list.Len(), metrics.Skipped)

	if list.Len() == 0 {
		if metrics.VideosFound == 0 && len(sourceErrs) > 0 {
			return fmt.Errorf("failed to list videos: %w", errors.Join(sourceErrs...))
		}
		log.Println("No new videos to annotate")
		events.OnSuccess(metrics, time.Since(startTime))
		return nil
	}

	if err := a.runTasks(ctx, list); err != nil {
		return fmt.Errorf("batch stopped with %d videos left: %w", list.Count(TaskPending), err)
	}

	metrics.Annotated = list.Count(TaskDone)
	metrics.Failed = list.Count(TaskFailed)
	digest := list.Digest(time.Now())
	metrics.Ready = len(digest.Ready)
	metrics.NeedsReview = len(digest.NeedsReview)

	if metrics.Failed == list.Len() {
		return fmt.Errorf("all %d annotations failed", metrics.Failed)
	}

	if a.digest != nil && len(digest.NeedsReview) > 0 {
		log.Printf("Sending review digest with %d videos", len(digest.NeedsReview))
		if err := a.digest.SendReviewDigest(digest); err != nil {
			events.OnPartialFailure(fmt.Errorf("failed to send review digest: %w", err), time.Since(startTime))
		} else {
			log.Println("Review digest sent successfully")
		}
	}

	if metrics.Failed > 0 {
		events.OnPartialFailure(fmt.Errorf("%d of %d videos failed analysis", metrics.Failed, list.Len()), time.Since(startTime))
	}
	if len(sourceErrs) > 0 {
		events.OnPartialFailure(errors.Join(sourceErrs...), time.Since(startTime))
	}

	events.OnSuccess(metrics, time.Since(startTime))

	log.Printf("Session complete: %d total videos, %d skipped, %d annotated, %d failed, %d need review",
		metrics.VideosFound, metrics.Skipped, metrics.Annotated, metrics.Failed, metrics.NeedsReview)

	return nil
}

func (a *Agent) unannotated(ctx context.Context, col config.CollectionConfig, videos []*models.Video) []*models.Video {
	var pending []*models.Video
	for _, v := range videos {
		_, ok, err := a.store.Get(ctx, col.ID, v.Key())
		if err != nil {
			log.Printf("Warning: failed to check stored annotations for %s: %v", v.Key(), err)
		}
		if !ok {
			pending = append(pending, v)
		}
	}
	return pending
}

// AnnotateBatch annotates videos one at a time in input order. A failed
// video is marked needs_review and the batch continues. Cancelling ctx
// stops the batch before the next video; its tasks stay pending.
func (a *Agent) AnnotateBatch(ctx context.Context, col config.CollectionConfig, videos []*models.Video) (*TaskList, error) {
	list := NewTaskList()
	list.Add(col, videos)
	return list, a.runTasks(ctx, list)
}

func (a *Agent) runTasks(ctx context.Context, list *TaskList) error {
	a.monitor.SetTasks(list.Status())

	n := list.Len()
	for i := 0; i < n; i++ {
		if i > 0 && a.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(a.pause):
			}
		}
		if err := ctx.Err(); err != nil {
			log.Printf("Batch cancelled, %d videos left", n-i)
			return err
		}

		task, err := list.Start(i)
		if err != nil {
			return err
		}
		a.monitor.SetTasks(list.Status())

		log.Printf("Annotating video %d/%d: %s", i+1, n, task.Video.Title)
		set, readiness, err := a.AnnotateVideo(ctx, task.Collection, task.Video)
		if err != nil {
			log.Printf("Warning: Failed to annotate video %s (%s): %v", task.Video.Key(), task.Video.Title, err)
			list.Fail(i, err)
		} else {
			list.Complete(i, set, readiness)
		}
		a.monitor.SetTasks(list.Status())
	}
	return nil
}

// AnnotateVideo runs one analysis pass and stores the normalized result.
// A store failure is logged and the set is still returned and kept in
// memory.
func (a *Agent) AnnotateVideo(ctx context.Context, col config.CollectionConfig, video *models.Video) (*models.AnnotationSet, models.Readiness, error) {
	key := storage.AnnotationKey(col.ID, video.Key())
	if !a.acquire(key) {
		return nil, "", fmt.Errorf("%s: %w", video.Key(), ErrAnnotationInFlight)
	}
	defer a.release(key)

	labels, err := a.Labels(ctx, col)
	if err != nil {
		log.Printf("Warning: using configured labels for %s: %v", col.ID, err)
		labels = col.Labels
	}

	resp, err := a.analyzer.Analyze(ctx, ai.Request{
		Video:  video,
		Prompt: ai.BuildAnnotationPrompt(a.density, labels, col.Description),
		Schema: ai.AnnotationSchema(),
	})
	if err != nil {
		a.setReadiness(key, models.ReadinessNeedsReview)
		return nil, models.ReadinessNeedsReview, err
	}

	result := annotation.Normalize(resp.Data)
	if result.Outcome == annotation.Empty {
		log.Printf("Warning: no segments could be read from the analysis of %s", video.Key())
	}

	segments := result.Segments
	if segments == nil {
		segments = []models.AnnotationSegment{}
	}
	set := &models.AnnotationSet{
		Segments:      segments,
		AnnotatedAt:   time.Now(),
		VideoURL:      video.URL,
		VideoMetadata: video.Metadata,
	}
	readiness := annotation.Recompute(set)

	if err := a.store.Put(ctx, col.ID, video.Key(), set); err != nil {
		log.Printf("Warning: annotations for %s are kept in memory only: %v", video.Key(), err)
	}
	a.remember(key, set, readiness)

	log.Printf("Annotated %s: %d segments (%s), confidence %.2f, %s",
		video.Key(), len(set.Segments), result.Outcome, set.OverallConfidence, readiness)
	return set, readiness, nil
}

func (a *Agent) acquire(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight[key] {
		return false
	}
	a.inFlight[key] = true
	return true
}

func (a *Agent) release(key string) {
	a.mu.Lock()
	delete(a.inFlight, key)
	a.mu.Unlock()
}

func (a *Agent) setReadiness(key string, r models.Readiness) {
	a.mu.Lock()
	a.readiness[key] = r
	a.mu.Unlock()
}

func (a *Agent) remember(key string, set *models.AnnotationSet, r models.Readiness) {
	a.mu.Lock()
	a.readiness[key] = r
	a.latest[key] = set
	a.mu.Unlock()
}

// Readiness returns the last known readiness of a video.
func (a *Agent) Readiness(collectionID, itemKey string) (models.Readiness, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.readiness[storage.AnnotationKey(collectionID, itemKey)]
	return r, ok
}

// Annotations returns the newest set for a video, preferring one produced
// in this process over the stored copy.
func (a *Agent) Annotations(ctx context.Context, collectionID, itemKey string) (*models.AnnotationSet, error) {
	a.mu.Lock()
	set, ok := a.latest[storage.AnnotationKey(collectionID, itemKey)]
	a.mu.Unlock()
	if ok {
		return set, nil
	}
	return a.store.Load(ctx, collectionID, itemKey)
}

// Items lists the annotated videos of a collection.
func (a *Agent) Items(ctx context.Context, collectionID string) ([]string, error) {
	return a.store.Items(ctx, collectionID)
}

// Edit opens an edit session on a video, applies fn and records the
// resulting readiness.
func (a *Agent) Edit(ctx context.Context, collectionID, itemKey string, fn func(*annotation.Session) (annotation.EditResult, error)) (annotation.EditResult, error) {
	set, err := a.Annotations(ctx, collectionID, itemKey)
	if err != nil {
		return annotation.EditResult{}, err
	}

	session := annotation.NewSession(collectionID, itemKey, set, a.store)
	if recorder, ok := a.store.KV().(annotation.EditRecorder); ok {
		session.WithRecorder(recorder)
	}

	res, err := fn(session)
	if err != nil {
		return res, err
	}
	a.remember(storage.AnnotationKey(collectionID, itemKey), session.Set(), res.Readiness)
	return res, nil
}

type editLister interface {
	ListEdits(ctx context.Context, collectionID, itemKey string) ([]models.EditEvent, error)
}

// History returns the manual edits recorded for a video, oldest first.
// Only the SQL backends keep an edit log.
func (a *Agent) History(ctx context.Context, collectionID, itemKey string) ([]models.EditEvent, error) {
	lister, ok := a.store.KV().(editLister)
	if !ok {
		return nil, fmt.Errorf("the %s storage backend does not record edits", a.config.Storage.Backend)
	}
	return lister.ListEdits(ctx, collectionID, itemKey)
}

// Labels returns the stored label taxonomy of a collection, or the
// configured labels when none has been stored.
func (a *Agent) Labels(ctx context.Context, col config.CollectionConfig) (models.LabelSet, error) {
	labels, err := a.store.Labels(ctx, col.ID)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		labels = append(models.LabelSet{}, col.Labels...)
	}
	return labels, nil
}

// AddLabels adds labels to a collection's taxonomy and stores it.
func (a *Agent) AddLabels(ctx context.Context, col config.CollectionConfig, labels ...string) (models.LabelSet, error) {
	return a.updateLabels(ctx, col, func(set *models.LabelSet) {
		for _, l := range labels {
			set.Add(l)
		}
	})
}

func (a *Agent) RemoveLabels(ctx context.Context, col config.CollectionConfig, labels ...string) (models.LabelSet, error) {
	return a.updateLabels(ctx, col, func(set *models.LabelSet) {
		for _, l := range labels {
			set.Remove(l)
		}
	})
}

func (a *Agent) updateLabels(ctx context.Context, col config.CollectionConfig, fn func(*models.LabelSet)) (models.LabelSet, error) {
	labels, err := a.Labels(ctx, col)
	if err != nil {
		return nil, err
	}
	fn(&labels)
	if err := a.store.PutLabels(ctx, col.ID, labels); err != nil {
		return labels, err
	}
	return labels, nil
}

// SuggestClasses asks the model for label candidates using the first video
// of the collection.
func (a *Agent) SuggestClasses(ctx context.Context, col config.CollectionConfig) ([]string, error) {
	videos, err := a.source.Videos(ctx, col)
	if err != nil && len(videos) == 0 {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("collection %s has no videos", col.ID)
	}

	resp, err := a.analyzer.Analyze(ctx, ai.Request{Video: videos[0], Prompt: ai.SuggestClassesPrompt})
	if err != nil {
		return nil, fmt.Errorf("failed to suggest classes: %w", err)
	}

	classes := ai.ParseSuggestedClasses(resp.Data)
	log.Printf("Suggested %d classes for %s from %s", len(classes), col.ID, videos[0].Key())
	return classes, nil
}

// EstimateCollectionROI estimates savings for all videos in a collection.
func (a *Agent) EstimateCollectionROI(ctx context.Context, col config.CollectionConfig) (ROIEstimate, error) {
	videos, err := a.source.Videos(ctx, col)
	if err != nil && len(videos) == 0 {
		return ROIEstimate{}, err
	}

	durations := make([]float64, len(videos))
	for i, v := range videos {
		durations[i] = float64(v.DurationSeconds)
		if v.Metadata != nil && v.Metadata.DurationSeconds > 0 {
			durations[i] = v.Metadata.DurationSeconds
		}
	}
	return EstimateROI(durations), nil
}
