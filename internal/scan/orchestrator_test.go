package scan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/picccassso/nuptune/internal/metacache"
)

func TestRunProducesAlbumsAndStandalone(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Album", "01 - Artist - Song One.mp3"))
	writeFile(t, filepath.Join(root, "Album", "02 - Artist - Song Two.mp3"))
	writeFile(t, filepath.Join(root, "loose-track.mp3"))

	cache := metacache.New(filepath.Join(t.TempDir(), "cache.json"))

	var stages []string
	res, err := Run(context.Background(), root, cache, Options{
		OnProgress: func(e ProgressEvent) { stages = append(stages, e.Stage) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Misses != 3 {
		t.Errorf("Misses = %d, want 3 (fresh cache)", res.Misses)
	}
	if len(res.Library.AllSongs()) != 3 {
		t.Errorf("AllSongs() = %d, want 3", len(res.Library.AllSongs()))
	}
	if len(stages) == 0 {
		t.Error("expected at least one progress event")
	}
}

func TestRunReusesCacheOnSecondPass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"))

	cachePath := filepath.Join(t.TempDir(), "cache.json")
	cache := metacache.New(cachePath)

	if _, err := Run(context.Background(), root, cache, Options{}); err != nil {
		t.Fatalf("Run() first pass error = %v", err)
	}

	res2, err := Run(context.Background(), root, cache, Options{})
	if err != nil {
		t.Fatalf("Run() second pass error = %v", err)
	}
	if res2.Hits != 1 {
		t.Errorf("Hits = %d, want 1 on second pass", res2.Hits)
	}
}
