package download

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/picccassso/nuptune/internal/store"
)

func openTestScheduler(t *testing.T, fetch func(ctx context.Context, songID string) (io.ReadCloser, int64, error)) (*Scheduler, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "downloads.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, fetch), st
}

func staticFetch(content string) func(context.Context, string) (io.ReadCloser, int64, error) {
	return func(context.Context, string) (io.ReadCloser, int64, error) {
		return io.NopCloser(strings.NewReader(content)), int64(len(content)), nil
	}
}

func TestSchedulerDownloadsQueuedTaskToDone(t *testing.T) {
	destDir := t.TempDir()
	sched, st := openTestScheduler(t, staticFetch("hello world"))

	dest := filepath.Join(destDir, "song.mp3")
	id, err := sched.Enqueue("song-1", "/music/song.mp3", dest, 0)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go sched.Run(ctx)

	deadline := time.After(time.Second)
	for {
		task, err := st.GetDownload(id)
		if err != nil {
			t.Fatalf("GetDownload() error = %v", err)
		}
		if task.Status == store.DownloadDone {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task did not complete, last status = %s", task.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("downloaded content = %q, want %q", data, "hello world")
	}
}

func TestSchedulerRetriesOnTransportErrorThenFails(t *testing.T) {
	var attempts int32
	fetch := func(context.Context, string) (io.ReadCloser, int64, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, 0, errors.New("connection reset")
	}
	sched, st := openTestScheduler(t, fetch)

	dest := filepath.Join(t.TempDir(), "song.mp3")
	id, err := sched.Enqueue("song-1", "/music/song.mp3", dest, 0)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	task, _ := st.GetDownload(id)
	sched.runTask(context.Background(), task)

	final, err := st.GetDownload(id)
	if err != nil {
		t.Fatalf("GetDownload() error = %v", err)
	}
	if final.Status != store.DownloadFailed {
		t.Errorf("status = %s, want %s", final.Status, store.DownloadFailed)
	}
	if got, want := atomic.LoadInt32(&attempts), int32(maxRetries+1); got != want {
		t.Errorf("attempts = %d, want %d (initial attempt plus %d retries)", got, want, maxRetries)
	}
}

func TestSchedulerCancelStopsInFlightTransfer(t *testing.T) {
	block := make(chan struct{})
	fetch := func(ctx context.Context, _ string) (io.ReadCloser, int64, error) {
		return io.NopCloser(&blockingReader{ctx: ctx, block: block}), 0, nil
	}
	sched, _ := openTestScheduler(t, fetch)

	dest := filepath.Join(t.TempDir(), "song.mp3")
	id, err := sched.Enqueue("song-1", "/music/song.mp3", dest, 0)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	if err := sched.Cancel(id); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	close(block)
}

// blockingReader blocks Read until ctx is cancelled, simulating an
// in-flight transfer that Cancel must be able to interrupt.
type blockingReader struct {
	ctx   context.Context
	block chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	case <-r.block:
		return 0, io.EOF
	}
}
