package thumbkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func testConfig() *Config {
	return &Config{
		Quality:    85,
		MaxWidth:   64,
		MaxHeight:  64,
		StreamMode: "memory",
	}
}

func TestNew(t *testing.T) {
	t.Run("creates thumbnailer", func(t *testing.T) {
		tn, err := New(testConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tn.Registry() == nil {
			t.Error("expected a registry")
		}
	})

	t.Run("rejects invalid quality", func(t *testing.T) {
		cfg := testConfig()
		cfg.Quality = 0
		if _, err := New(cfg); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("rejects unknown stream mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.StreamMode = "carrier-pigeon"
		if _, err := New(cfg); err == nil {
			t.Error("expected error")
		}
	})
}

func TestThumbnailBytes(t *testing.T) {
	ctx := context.Background()
	tn, err := New(testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := tn.ThumbnailBytes(ctx, testJPEG(t, 400, 400))
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if w, h := decodeDims(t, out); w != 64 || h != 64 {
		t.Errorf("expected 64x64, got %dx%d", w, h)
	}
}

func TestThumbnailBytesFileMode(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.StreamMode = "file"
	cfg.TempDir = t.TempDir()
	tn, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := tn.ThumbnailBytes(ctx, testJPEG(t, 300, 200))
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if w, h := decodeDims(t, out); w != 64 || h != 43 {
		t.Errorf("expected 64x43, got %dx%d", w, h)
	}
	if tn.Registry().Len() != 0 {
		t.Errorf("expected drained registry, got %d entries", tn.Registry().Len())
	}
}

func TestThumbnailFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	if err := os.WriteFile(src, testJPEG(t, 200, 200), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tn, err := New(testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := tn.ThumbnailFile(ctx, src, dst, WithQuality(70)); err != nil {
		t.Fatalf("thumbnail: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if w, h := decodeDims(t, data); w != 64 || h != 64 {
		t.Errorf("expected 64x64, got %dx%d", w, h)
	}
}

func TestThumbnailBatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var jobs []BatchJob
	for i := 0; i < 6; i++ {
		src := filepath.Join(dir, fmt.Sprintf("src-%d.jpg", i))
		if err := os.WriteFile(src, testJPEG(t, 120+i, 90), 0o644); err != nil {
			t.Fatalf("write fixture %d: %v", i, err)
		}
		jobs = append(jobs, BatchJob{
			Src: src,
			Dst: filepath.Join(dir, fmt.Sprintf("dst-%d.jpg", i)),
		})
	}

	cfg := testConfig()
	cfg.Workers = 3
	tn, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := tn.ThumbnailBatch(ctx, jobs); err != nil {
		t.Fatalf("batch: %v", err)
	}

	for _, job := range jobs {
		if _, err := os.Stat(job.Dst); err != nil {
			t.Errorf("missing output %s: %v", job.Dst, err)
		}
	}
}

func TestThumbnailBatchPartialFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.jpg")
	if err := os.WriteFile(good, testJPEG(t, 100, 100), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	jobs := []BatchJob{
		{Src: good, Dst: filepath.Join(dir, "good-thumb.jpg")},
		{Src: filepath.Join(dir, "missing.jpg"), Dst: filepath.Join(dir, "never.jpg")},
	}

	tn, err := New(testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := tn.ThumbnailBatch(ctx, jobs); err == nil {
		t.Error("expected error for missing source")
	}
	// The good job still completes.
	if _, err := os.Stat(jobs[0].Dst); err != nil {
		t.Errorf("missing output: %v", err)
	}
}
