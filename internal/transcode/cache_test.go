package transcode

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/picccassso/nuptune/internal/store"
)

func openTestCache(t *testing.T, budget int64) (*Cache, string) {
	t.Helper()
	dbDir := t.TempDir()
	st, err := store.Open(filepath.Join(dbDir, "cache.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	artifactDir := t.TempDir()
	return New(artifactDir, st, budget), artifactDir
}

func TestResolveHighPassesThroughOriginal(t *testing.T) {
	c, _ := openTestCache(t, 0)
	songPath := filepath.Join(t.TempDir(), "song.mp3")

	path, release, err := c.Resolve(context.Background(), songPath, High)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	defer release()
	if path != songPath {
		t.Errorf("Resolve(High) path = %q, want original %q", path, songPath)
	}
}

func TestArtifactKeyIsStablePerQuality(t *testing.T) {
	k1 := ArtifactKey("/music/a.mp3", Medium)
	k2 := ArtifactKey("/music/a.mp3", Medium)
	k3 := ArtifactKey("/music/a.mp3", Low)
	if k1 != k2 {
		t.Errorf("ArtifactKey not stable: %q != %q", k1, k2)
	}
	if k1 == k3 {
		t.Errorf("expected different qualities to produce different keys, got %q for both", k1)
	}
}

func TestResolveDegradesToHighWhenEncoderUnavailable(t *testing.T) {
	origPath := os.Getenv("PATH")
	os.Setenv("PATH", "")
	defer os.Setenv("PATH", origPath)

	c, _ := openTestCache(t, 0)
	songPath := filepath.Join(t.TempDir(), "song.mp3")

	path, release, err := c.Resolve(context.Background(), songPath, Medium)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	defer release()
	if path != songPath {
		t.Errorf("Resolve(Medium) with no encoder = %q, want degrade to original %q", path, songPath)
	}
}

func TestQualityValid(t *testing.T) {
	for _, q := range []Quality{High, Medium, Low} {
		if !q.Valid() {
			t.Errorf("%q.Valid() = false, want true", q)
		}
	}
	if Quality("ultra").Valid() {
		t.Error(`"ultra".Valid() = true, want false`)
	}
}
