package thumbkit

import (
	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Default JPEG quality for encoded thumbnails (1-100)
	Quality int `env:"THUMBKIT_QUALITY,default:85"`

	// Default bounding box for thumbnails
	MaxWidth  int `env:"THUMBKIT_MAX_WIDTH,default:256"`
	MaxHeight int `env:"THUMBKIT_MAX_HEIGHT,default:256"`

	// Stream backing mode: memory, or file for consumers that need real
	// descriptors (cgo codecs, child processes)
	StreamMode string `env:"THUMBKIT_STREAM_MODE,default:memory"`

	// Directory for temporary backing files in file mode ("" = platform default)
	TempDir string `env:"THUMBKIT_TEMP_DIR"`

	// Upper bound on a single encoded output, in bytes (0 = unlimited)
	MaxOutputBytes int64 `env:"THUMBKIT_MAX_OUTPUT_BYTES"`

	// Strip comment and application segments from outputs by default
	StripMetadata bool `env:"THUMBKIT_STRIP_METADATA,default:false"`

	// Unsharp mask amount applied after resizing (0 = disabled)
	Sharpen float64 `env:"THUMBKIT_SHARPEN"`

	// Worker count for batch thumbnailing (0 = GOMAXPROCS)
	Workers int `env:"THUMBKIT_WORKERS"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
