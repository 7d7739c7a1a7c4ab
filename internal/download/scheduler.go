// Package download implements the client-side download scheduler (4.K):
// a persistent, disk-backed FIFO queue of DownloadTasks with exactly one
// active HTTP transfer at a time.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/report"
	"github.com/picccassso/nuptune/internal/store"
	"github.com/picccassso/nuptune/internal/util"
)

const (
	// maxRetries is the number of retries permitted after the initial
	// attempt, per 4.K/§7 ("retry up to 3 times"); a task therefore gets
	// up to maxRetries+1 total attempts before DownloadFailed.
	maxRetries   = 3
	retryWait    = 5 * time.Second
	progressTick = 250 * time.Millisecond
)

// Progress is a high-frequency transfer update for one task.
type Progress struct {
	TaskID   string
	Fraction float64
	Bytes    int64
	Total    int64
}

// QueueEvent signals a task's status changed; the store row is always
// updated before this is sent, so listeners reading the store see
// consistent state.
type QueueEvent struct {
	TaskID string
	Status string
}

// Scheduler runs at most one active HTTP download at a time, pulling the
// next queued task whenever the current one completes, pauses, is
// cancelled, or fails out.
type Scheduler struct {
	store *store.Store
	fetch func(ctx context.Context, songID string) (io.ReadCloser, int64, error)

	// Logger receives a LogDownload event per task completion/failure.
	// Nil by default; set directly after New.
	Logger *report.EventLogger

	progress    chan Progress
	queueChange chan QueueEvent

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wake    chan struct{}
}

// New returns a Scheduler backed by st. fetch performs the actual HTTP
// GET for a song's original bytes (e.g. against `GET /download/{song_id}`)
// and returns a reader plus the content length; it is injected so the
// scheduler has no direct dependency on the HTTP transport package.
func New(st *store.Store, fetch func(ctx context.Context, songID string) (io.ReadCloser, int64, error)) *Scheduler {
	return &Scheduler{
		store:       st,
		fetch:       fetch,
		progress:    make(chan Progress, 64),
		queueChange: make(chan QueueEvent, 64),
		cancels:     make(map[string]context.CancelFunc),
		wake:        make(chan struct{}, 1),
	}
}

// Progress returns the high-frequency transfer progress stream.
func (s *Scheduler) Progress() <-chan Progress { return s.progress }

// QueueChanges returns the queue-change stream. Every emission here
// corresponds to a row already persisted to the queue store.
func (s *Scheduler) QueueChanges() <-chan QueueEvent { return s.queueChange }

// Run drives the scheduler loop until ctx is cancelled: whenever nothing
// is downloading, it pulls the oldest Queued task and runs it to
// completion, pause, cancellation, or exhausted retries, then looks for
// the next one.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok := s.nextQueued()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			case <-time.After(time.Second):
				continue
			}
		}
		s.runTask(ctx, task)
	}
}

func (s *Scheduler) nextQueued() (store.DownloadTask, bool) {
	tasks, err := s.store.ListDownloads()
	if err != nil {
		util.WarnLog("download: listing queue: %v", err)
		return store.DownloadTask{}, false
	}
	for _, t := range tasks {
		if t.Status == store.DownloadQueued {
			return t, true
		}
	}
	return store.DownloadTask{}, false
}

func (s *Scheduler) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// runTask executes one task end to end, including its retry loop.
func (s *Scheduler) runTask(ctx context.Context, task store.DownloadTask) {
	taskCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[task.ID] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, task.ID)
		s.mu.Unlock()
	}()

	s.setStatus(task.ID, store.DownloadActive, "")

	totalAttempts := maxRetries + 1
	for attempt := 0; attempt < totalAttempts; attempt++ {
		err := s.transfer(taskCtx, task)
		if err == nil {
			s.onCompleted(task)
			s.Logger.LogDownload(task.ID, task.SongID, "completed", 0, nil)
			return
		}
		if taskCtx.Err() != nil {
			// Paused or cancelled mid-transfer; status was already set by
			// Pause/Cancel, so there is nothing further to record here.
			return
		}

		util.WarnLog("download: transfer failed for %s (attempt %d/%d): %v", task.ID, attempt+1, totalAttempts, err)
		if attempt == totalAttempts-1 {
			s.setStatus(task.ID, store.DownloadFailed, err.Error())
			s.Logger.LogDownload(task.ID, task.SongID, "failed", 0, err)
			return
		}
		_ = s.store.IncrementDownloadAttempt(task.ID)
		select {
		case <-taskCtx.Done():
			return
		case <-time.After(retryWait):
		}
		s.setStatus(task.ID, store.DownloadActive, "")
	}
}

// transfer performs one attempt at the HTTP GET and byte-for-byte copy
// to DestPath, emitting Progress at progressTick intervals.
func (s *Scheduler) transfer(ctx context.Context, task store.DownloadTask) error {
	body, total, err := s.fetch(ctx, task.SongID)
	if err != nil {
		return fmt.Errorf("download: fetch %s: %w: %v", task.SongID, apperr.ErrDownloadTransport, err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(task.DestPath), 0o755); err != nil {
		return fmt.Errorf("download: create dest dir: %w", err)
	}
	tmp := task.DestPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("download: create %s: %w", tmp, err)
	}

	pw := &progressWriter{
		sched: s, taskID: task.ID, total: total,
		lastEmit: time.Now(),
	}
	_, copyErr := io.Copy(out, io.TeeReader(body, pw))
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("download: copy %s: %w: %v", task.SongID, apperr.ErrDownloadTransport, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return closeErr
	}

	if err := util.RetryableRename(tmp, task.DestPath, util.DefaultRetryConfig()); err != nil {
		return fmt.Errorf("download: finalize %s: %w", task.DestPath, err)
	}
	return nil
}

type progressWriter struct {
	sched    *Scheduler
	taskID   string
	total    int64
	written  int64
	lastEmit time.Time
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if time.Since(w.lastEmit) >= progressTick {
		w.lastEmit = time.Now()
		_ = w.sched.store.UpdateDownloadProgress(w.taskID, w.written)
		fraction := 0.0
		if w.total > 0 {
			fraction = float64(w.written) / float64(w.total)
		}
		select {
		case w.sched.progress <- Progress{TaskID: w.taskID, Fraction: fraction, Bytes: w.written, Total: w.total}:
		default:
		}
	}
	return len(p), nil
}

// onCompleted marks a task Done and overwrites its expected byte count
// with the on-disk file size, per 4.K.
func (s *Scheduler) onCompleted(task store.DownloadTask) {
	size := task.BytesTotal
	if info, err := os.Stat(task.DestPath); err == nil {
		size = info.Size()
	}
	_ = s.store.UpdateDownloadProgress(task.ID, size)
	s.setStatus(task.ID, store.DownloadDone, "")
}

func (s *Scheduler) setStatus(id, status, errMsg string) {
	if err := s.store.SetDownloadStatus(id, status, errMsg); err != nil {
		util.WarnLog("download: setting status for %s: %v", id, err)
		return
	}
	select {
	case s.queueChange <- QueueEvent{TaskID: id, Status: status}:
	default:
	}
}

// Enqueue adds a new task to the back of the queue.
func (s *Scheduler) Enqueue(songID, songPath, destPath string, priority int) (string, error) {
	id := uuid.NewString()
	task := store.DownloadTask{ID: id, SongID: songID, SongPath: songPath, DestPath: destPath, Priority: priority}
	if err := s.store.EnqueueDownload(task); err != nil {
		return "", err
	}
	s.setStatus(id, store.DownloadQueued, "")
	s.nudge()
	return id, nil
}

// EnqueueBatch enqueues several tasks, preserving call order as queue
// order.
func (s *Scheduler) EnqueueBatch(items []struct {
	SongID   string
	SongPath string
	DestPath string
	Priority int
}) ([]string, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		id, err := s.Enqueue(it.SongID, it.SongPath, it.DestPath, it.Priority)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Pause stops an in-flight transfer (if any) and marks the task Paused.
func (s *Scheduler) Pause(id string) error {
	s.cancelInFlight(id)
	s.setStatus(id, store.DownloadPaused, "")
	return nil
}

// Resume re-queues a paused task.
func (s *Scheduler) Resume(id string) error {
	s.setStatus(id, store.DownloadQueued, "")
	s.nudge()
	return nil
}

// Retry re-queues a failed task, resetting its error.
func (s *Scheduler) Retry(id string) error {
	s.setStatus(id, store.DownloadQueued, "")
	s.nudge()
	return nil
}

// Cancel stops an in-flight transfer (if any) and removes the task
// outright, clearing its transient progress.
func (s *Scheduler) Cancel(id string) error {
	s.cancelInFlight(id)
	if err := s.store.RemoveDownload(id); err != nil {
		return err
	}
	select {
	case s.queueChange <- QueueEvent{TaskID: id, Status: "removed"}:
	default:
	}
	return nil
}

func (s *Scheduler) cancelInFlight(id string) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// ClearAll cancels any in-flight transfer and removes every task.
func (s *Scheduler) ClearAll() error {
	tasks, err := s.store.ListDownloads()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.Cancel(t.ID); err != nil {
			util.WarnLog("download: clearing %s: %v", t.ID, err)
		}
	}
	return nil
}

// DeleteAlbum cancels and removes every task for songs belonging to
// albumID, or every standalone task if albumID is "".
func (s *Scheduler) DeleteAlbum(albumID string, songIDsInAlbum map[string]bool) error {
	tasks, err := s.store.ListDownloads()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		inAlbum := songIDsInAlbum[t.SongID]
		if (albumID == "" && !inAlbum) || (albumID != "" && inAlbum) {
			if err := s.Cancel(t.ID); err != nil {
				util.WarnLog("download: deleting task %s: %v", t.ID, err)
			}
		}
	}
	return nil
}
