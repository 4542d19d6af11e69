package thumbkit

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/gobeaver/thumbkit/memstream"
)

// Global instance
var (
	defaultTN   *Thumbnailer
	defaultOnce sync.Once
	defaultErr  error
)

// Thumbnailer generates thumbnails with a fixed configuration. It owns a
// memstream registry shared by all handles it opens and is safe for
// concurrent use.
type Thumbnailer struct {
	cfg *Config
	reg *memstream.Registry
}

// Init initializes the global thumbnailer instance
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultTN, defaultErr = New(cfg)
	})

	return defaultErr
}

// Default returns the global thumbnailer, initializing it from the
// environment on first use
func Default() (*Thumbnailer, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return defaultTN, nil
}

// New creates a new thumbnailer with given config
func New(cfg *Config) (*Thumbnailer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []memstream.Option{
		memstream.WithTempDir(cfg.TempDir),
		memstream.WithMaxOutputBytes(cfg.MaxOutputBytes),
	}
	if cfg.StreamMode == "file" {
		opts = append(opts, memstream.WithMode(memstream.ModeFile))
	}

	return &Thumbnailer{
		cfg: cfg,
		reg: memstream.NewRegistry(opts...),
	}, nil
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return ErrInvalidQuality
	}
	if cfg.MaxWidth < 0 || cfg.MaxHeight < 0 {
		return ErrInvalidSize
	}
	switch cfg.StreamMode {
	case "memory", "file":
	default:
		return fmt.Errorf("unknown stream mode: %s", cfg.StreamMode)
	}
	return nil
}

// Registry returns the thumbnailer's memstream registry, e.g. to open
// auxiliary streams against the same temp dir and limits.
func (t *Thumbnailer) Registry() *memstream.Registry {
	return t.reg
}

// Open opens the JPEG file at path with the thumbnailer's defaults applied.
func (t *Thumbnailer) Open(path string) (*Image, error) {
	im, err := Open(path)
	if err != nil {
		return nil, err
	}
	t.applyDefaults(im)
	return im, nil
}

// OpenBytes opens a JPEG held in memory with the thumbnailer's defaults
// applied.
func (t *Thumbnailer) OpenBytes(data []byte) (*Image, error) {
	im, err := openBytes(t.reg, data)
	if err != nil {
		return nil, err
	}
	t.applyDefaults(im)
	return im, nil
}

func (t *Thumbnailer) applyDefaults(im *Image) {
	im.reg = t.reg
	im.quality = t.cfg.Quality
	im.decodeW = t.cfg.MaxWidth
	im.decodeH = t.cfg.MaxHeight
	im.strip = t.cfg.StripMetadata
}

// encodeOptions prepends config-derived options so per-call options win.
func (t *Thumbnailer) encodeOptions(options []Option) []Option {
	if t.cfg.Sharpen > 0 {
		options = append([]Option{WithSharpen(t.cfg.Sharpen)}, options...)
	}
	return options
}

// ThumbnailBytes generates a thumbnail of a JPEG held in memory and returns
// the encoded bytes.
func (t *Thumbnailer) ThumbnailBytes(ctx context.Context, src []byte, options ...Option) ([]byte, error) {
	im, err := t.OpenBytes(src)
	if err != nil {
		return nil, err
	}
	defer im.Close()

	var dst memstream.Destination
	im.SetOutputBuffer(&dst)
	if err := im.Encode(ctx, t.encodeOptions(options)...); err != nil {
		return nil, err
	}
	return dst.Data, nil
}

// ThumbnailFile generates a thumbnail of the JPEG at srcPath and writes it
// to dstPath.
func (t *Thumbnailer) ThumbnailFile(ctx context.Context, srcPath, dstPath string, options ...Option) error {
	im, err := t.Open(srcPath)
	if err != nil {
		return err
	}
	defer im.Close()

	im.SetOutputFile(dstPath)
	return im.Encode(ctx, t.encodeOptions(options)...)
}

// BatchJob names one source/destination pair for batch thumbnailing.
type BatchJob struct {
	Src string
	Dst string
}

// ThumbnailBatch generates thumbnails for all jobs using a worker pool.
// Failed jobs are logged and collected; the returned error joins every
// per-job failure, so a partial batch still completes the remaining work.
func (t *Thumbnailer) ThumbnailBatch(ctx context.Context, jobs []BatchJob, options ...Option) error {
	workers := t.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan BatchJob)
	errCh := make(chan error, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := t.ThumbnailFile(ctx, job.Src, job.Dst, options...); err != nil {
					Logger().Warn("thumbnail failed",
						zap.String("src", job.Src),
						zap.Error(err))
					errCh <- fmt.Errorf("%s: %w", job.Src, err)
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return ctx.Err()
		case jobCh <- job:
		}
	}
	close(jobCh)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ThumbnailFile generates a thumbnail using the global thumbnailer.
func ThumbnailFile(ctx context.Context, srcPath, dstPath string, options ...Option) error {
	t, err := Default()
	if err != nil {
		return err
	}
	return t.ThumbnailFile(ctx, srcPath, dstPath, options...)
}

// ThumbnailBytes generates a thumbnail using the global thumbnailer.
func ThumbnailBytes(ctx context.Context, src []byte, options ...Option) ([]byte, error) {
	t, err := Default()
	if err != nil {
		return nil, err
	}
	return t.ThumbnailBytes(ctx, src, options...)
}
