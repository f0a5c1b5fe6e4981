package tasks

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hannahlog/rss-reruns/app/config"
	"github.com/hannahlog/rss-reruns/app/database"
	"github.com/hannahlog/rss-reruns/app/feed"
)

// Runner executes rebroadcast batches against a single feed document,
// either on a cron schedule or on demand. The core is strictly
// single-writer, so every document access (scheduled runs, manual triggers
// and read-only snapshots for the API) is serialized through one mutex.
type Runner struct {
	feedName string
	profile  *config.Profile
	history  *database.HistoryRepository
	cron     *cron.Cron

	mu  sync.Mutex
	mod *feed.Modifier
}

func NewRunner(feedName string, mod *feed.Modifier, profile *config.Profile,
	history *database.HistoryRepository) *Runner {
	return &Runner{
		feedName: feedName,
		profile:  profile,
		history:  history,
		mod:      mod,
	}
}

// Start schedules recurring batches per the profile's cron spec.
func (r *Runner) Start() error {
	if r.profile.Schedule.Cron == "" {
		return fmt.Errorf("no cron spec configured")
	}

	r.cron = cron.New()
	_, err := r.cron.AddFunc(r.profile.Schedule.Cron, func() {
		if _, err := r.RunBatch(r.profile.Schedule.BatchSize); err != nil {
			slog.Error("Scheduled rebroadcast failed", "feed", r.feedName, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule rebroadcast: %w", err)
	}

	r.cron.Start()
	slog.Info("Rebroadcast schedule started", "feed", r.feedName,
		"cron", r.profile.Schedule.Cron, "batch_size", r.profile.Schedule.BatchSize)
	return nil
}

// Stop halts the schedule and waits for a running batch to finish.
func (r *Runner) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// RunBatch rebroadcasts count entries, writes the document out and records
// the reruns in the history database.
func (r *Runner) RunBatch(count int) ([]feed.Rerun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	reruns, err := r.mod.Rebroadcast(count, now)
	if err != nil {
		return nil, err
	}

	if err := r.mod.SetEntryTitles("", ""); err != nil {
		return nil, err
	}

	if err := r.mod.Write(r.profile.Output.Path, r.keepMetadata(), now); err != nil {
		return nil, fmt.Errorf("failed to write feed: %w", err)
	}

	for _, rerun := range reruns {
		if err := r.history.Record(r.feedName, rerun.GUID, rerun.Title,
			rerun.OriginalPubDate, rerun.RebroadcastAt); err != nil {
			slog.Warn("Failed to record rerun history", "feed", r.feedName,
				"guid", rerun.GUID, "error", err)
		}
	}

	slog.Info("Rebroadcast batch complete", "feed", r.feedName,
		"requested", count, "rebroadcast", len(reruns), "output", r.profile.Output.Path)
	return reruns, nil
}

// Snapshot serializes the current document for serving.
func (r *Runner) Snapshot() ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.mod.Serialize(r.keepMetadata())
	if err != nil {
		return nil, "", err
	}
	return data, r.mod.ContentType(), nil
}

// Stats reports the scheduler state counts.
func (r *Runner) Stats() (feed.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mod.CollectStats()
}

// FeedName returns the name used for logging and history rows.
func (r *Runner) FeedName() string {
	return r.feedName
}

// BatchSize returns the profile's configured entries-per-batch.
func (r *Runner) BatchSize() int {
	return r.profile.Schedule.BatchSize
}

func (r *Runner) keepMetadata() bool {
	return r.profile.Output.KeepMetadata == nil || *r.profile.Output.KeepMetadata
}
