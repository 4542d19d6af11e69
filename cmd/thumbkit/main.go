package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/gobeaver/thumbkit"
)

func main() {
	var (
		inDir   = flag.String("in", ".", "Directory containing source images")
		outDir  = flag.String("out", "", "Directory for generated thumbnails")
		pattern = flag.String("pattern", "*.jpg", "Glob pattern for source files (e.g. \"**/*.jpeg\")")
		width   = flag.Int("width", 256, "Maximum thumbnail width")
		height  = flag.Int("height", 256, "Maximum thumbnail height")
		quality = flag.Int("quality", 85, "JPEG quality (1-100)")
		workers = flag.Int("workers", 0, "Worker count (0 = number of CPUs)")
		strip   = flag.Bool("strip", false, "Strip comment and application segments")
		sharpen = flag.Float64("sharpen", 0, "Unsharp mask amount after resizing (0 = off)")
		comment = flag.String("comment", "", "COM segment text for generated thumbnails")
		verbose = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *outDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: thumbkit -in <dir> -out <dir> [-pattern glob] [-width n] [-height n]")
		os.Exit(1)
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	thumbkit.SetLogger(logger)

	if err := run(*inDir, *outDir, *pattern, *width, *height, *quality, *workers, *strip, *sharpen, *comment, logger); err != nil {
		logger.Error("batch failed", zap.Error(err))
		os.Exit(1)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func run(inDir, outDir, pattern string, width, height, quality, workers int, strip bool, sharpen float64, comment string, logger *zap.Logger) error {
	matcher, err := glob.Compile(pattern, '/')
	if err != nil {
		return fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	jobs, err := collectJobs(inDir, outDir, matcher)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Warn("no matching files", zap.String("dir", inDir), zap.String("pattern", pattern))
		return nil
	}
	logger.Info("generating thumbnails",
		zap.Int("count", len(jobs)),
		zap.Int("width", width),
		zap.Int("height", height))

	for _, job := range jobs {
		if err := os.MkdirAll(filepath.Dir(job.Dst), 0o755); err != nil {
			return err
		}
	}

	tn, err := thumbkit.New(&thumbkit.Config{
		Quality:       quality,
		MaxWidth:      width,
		MaxHeight:     height,
		StreamMode:    "memory",
		StripMetadata: strip,
		Sharpen:       sharpen,
		Workers:       workers,
	})
	if err != nil {
		return err
	}

	var opts []thumbkit.Option
	if comment != "" {
		opts = append(opts, thumbkit.WithComment(comment))
	}
	return tn.ThumbnailBatch(context.Background(), jobs, opts...)
}

// collectJobs walks inDir and pairs every file matching the pattern with an
// output path under outDir, mirroring the directory layout.
func collectJobs(inDir, outDir string, matcher glob.Glob) ([]thumbkit.BatchJob, error) {
	var jobs []thumbkit.BatchJob
	err := filepath.WalkDir(inDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		if !matcher.Match(filepath.ToSlash(rel)) {
			return nil
		}
		ext := filepath.Ext(rel)
		dst := strings.TrimSuffix(rel, ext) + ".thumb" + ext
		jobs = append(jobs, thumbkit.BatchJob{
			Src: path,
			Dst: filepath.Join(outDir, dst),
		})
		return nil
	})
	return jobs, err
}
