package thumbkit

// Option represents a per-encode configuration option
type Option func(*Options)

// Options contains all possible options for an encode operation.
// Options passed to Encode override the corresponding handle-level setters
// for that call only.
type Options struct {
	// Quality is the JPEG quality (1-100). Zero means the handle's quality.
	Quality int

	// MaxWidth and MaxHeight bound the output size. The image is scaled to
	// fit within the box, preserving aspect ratio. Zero means the handle's
	// decode size.
	MaxWidth  int
	MaxHeight int

	// Comment replaces the output COM segment text.
	Comment    string
	commentSet bool

	// StripMetadata drops comment and application segments (and with them
	// any embedded EXIF thumbnail) from the output.
	StripMetadata bool

	// Sharpen applies an unsharp mask of the given amount after resizing.
	// Zero disables sharpening.
	Sharpen float64

	// Upscale allows outputs larger than the source. By default images
	// smaller than the requested box are left at their original size.
	Upscale bool
}

// WithQuality sets the JPEG quality (1-100) for this encode
func WithQuality(quality int) Option {
	return func(o *Options) {
		o.Quality = quality
	}
}

// WithMaxDimensions bounds the output to fit within width x height,
// preserving aspect ratio
func WithMaxDimensions(width, height int) Option {
	return func(o *Options) {
		o.MaxWidth = width
		o.MaxHeight = height
	}
}

// WithComment sets the COM segment text written to the output
func WithComment(comment string) Option {
	return func(o *Options) {
		o.Comment = comment
		o.commentSet = true
	}
}

// WithStripMetadata drops comment and application segments from the output
func WithStripMetadata() Option {
	return func(o *Options) {
		o.StripMetadata = true
	}
}

// WithSharpen applies an unsharp mask of the given amount after resizing.
// Useful to recover edge contrast lost in heavy downscales; 0.5 is a
// reasonable starting point.
func WithSharpen(amount float64) Option {
	return func(o *Options) {
		o.Sharpen = amount
	}
}

// WithUpscale allows outputs larger than the source image
func WithUpscale() Option {
	return func(o *Options) {
		o.Upscale = true
	}
}

func processOptions(options ...Option) *Options {
	opts := &Options{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}
